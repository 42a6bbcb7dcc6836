package mailcore

import (
	"os"
	"path/filepath"
)

// Config contains settings shared by all messages in a Session.
// The zero value is usable; missing paths are filled in by NewSession.
type Config struct {
	// ConvertCharset enables conversion of text/plain part content to
	// UTF-8 when the part declares a different charset. Conversion
	// failure is non-fatal and keeps the original bytes.
	ConvertCharset bool

	// TempDir is where rebuilt messages are serialized before being
	// copied over the original. Defaults to the system temp directory.
	TempDir string

	// CacheDir is where remote message bodies are cached once fetched.
	// Defaults to the system temp directory.
	CacheDir string

	// ProxySocket is the Unix socket path of the remote-mail helper.
	// Defaults to $HOME/.imap.sock.
	ProxySocket string
}

func (c Config) withDefaults() Config {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.CacheDir == "" {
		c.CacheDir = os.TempDir()
	}
	if c.ProxySocket == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/"
		}
		c.ProxySocket = filepath.Join(home, ".imap.sock")
	}
	return c
}
