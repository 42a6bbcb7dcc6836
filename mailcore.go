// Package mailcore presents a single message abstraction over two backing
// stores: messages held as files in a maildir directory tree, and messages
// held on a remote server and proxied through a helper process.
//
// A Message is created by its owning Folder, either from a file found during
// enumeration or from a remote listing. Headers and MIME parts are loaded
// lazily on first access. Status flags are encoded in the maildir filename
// for local messages and mirrored in memory for remote ones.
//
// The surrounding application supplies collaborators (error sink, path
// rewrite hook, proxy channel, global index) through a Session. Absent
// collaborators are valid; operations that would need them degrade to
// no-ops.
package mailcore

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ProxyChannel is the command channel to the remote-mail helper process.
// Implementations perform one blocking round-trip per call and must not
// pipeline commands.
type ProxyChannel interface {
	// MarkRead asks the helper to mark a message as read.
	MarkRead(ctx context.Context, id int, folder string) error

	// MarkUnread asks the helper to mark a message as unread.
	MarkUnread(ctx context.Context, id int, folder string) error

	// DeleteMessage asks the helper to delete a message.
	DeleteMessage(ctx context.Context, id int, folder string) error

	// FetchMessage returns the full raw message bytes.
	FetchMessage(ctx context.Context, id int, folder string) ([]byte, error)
}

// ErrorSink receives human-readable diagnostics for failures that are
// reported rather than returned, such as parse errors during lazy loading.
// It is supplied by the embedding application's scripting layer.
type ErrorSink interface {
	OnError(msg string)
}

// RewriteHook may substitute the file to parse in place of a message's own
// path, e.g. to transparently decompress. The returned path is deleted
// after parsing when ok is true and the path differs from the input.
type RewriteHook interface {
	Rewrite(path string) (path2 string, ok bool)
}

// Indexer is notified when the set of messages changed and the global
// message index should be rebuilt. deleted distinguishes a refresh caused
// by message deletion from other refresh triggers.
type Indexer interface {
	Refresh(deleted bool)
}

// TypeDetector determines the content type of a file to be attached.
type TypeDetector interface {
	DetectType(path string) string
}

// Session bundles the configuration and collaborators shared by all
// folders and messages. All fields except Config may be nil.
type Session struct {
	Config  Config
	Proxy   ProxyChannel
	Errors  ErrorSink
	Rewrite RewriteHook
	Index   Indexer
	Types   TypeDetector
}

// NewSession creates a Session with defaults applied to the configuration.
func NewSession(config Config) *Session {
	return &Session{Config: config.withDefaults()}
}

func (s *Session) onError(msg string) {
	if s.Errors != nil {
		s.Errors.OnError(msg)
	}
}

func (s *Session) refreshIndex(deleted bool) {
	if s.Index != nil {
		s.Index.Refresh(deleted)
	}
}

func (s *Session) detectType(path string) string {
	if s.Types != nil {
		return s.Types.DetectType(path)
	}
	return detectTypeByContent(path)
}

// detectTypeByContent is the default type detection: extension lookup
// first, content sniffing as the fallback.
func detectTypeByContent(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}

	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}
