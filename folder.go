package mailcore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-maildir"

	mcerrors "github.com/maildeck/mailcore/errors"
)

// Folder is the owning container of a set of messages: a maildir
// directory for local mail, a named mailbox on the remote server
// otherwise. Its unread counter and modification marker are shared
// mutable state, written by any message under it; access is serialized
// by the single application thread.
type Folder struct {
	session *Session
	path    string
	remote  bool

	mtime  int64
	unread int
}

// NewFolder creates a Folder for a local maildir directory.
func NewFolder(s *Session, path string) *Folder {
	return &Folder{session: s, path: path}
}

// NewRemoteFolder creates a Folder for a remote mailbox. path is the
// mailbox name as the proxy channel expects it.
func NewRemoteFolder(s *Session, path string) *Folder {
	return &Folder{session: s, path: path, remote: true}
}

// Path returns the folder path or remote mailbox name.
func (f *Folder) Path() string { return f.path }

// Remote reports whether the folder lives on the remote server.
func (f *Folder) Remote() bool { return f.remote }

// Mtime returns the folder's modification marker.
func (f *Folder) Mtime() int64 { return f.mtime }

// BumpMtime advances the folder's modification marker, invalidating any
// cached view of its contents.
func (f *Folder) BumpMtime() { f.mtime++ }

// Unread returns the current unread count.
func (f *Folder) Unread() int { return f.unread }

// SetUnread replaces the unread count.
func (f *Folder) SetUnread(n int) { f.unread = n }

// Create creates the maildir directory structure (new, cur, tmp).
func (f *Folder) Create() error {
	if f.remote {
		return nil
	}
	if err := os.MkdirAll(f.path, 0700); err != nil {
		return err
	}
	return maildir.Dir(f.path).Init()
}

// Exists checks that the maildir exists and has the required structure.
func (f *Folder) Exists() bool {
	if f.remote {
		return true
	}
	for _, sub := range []string{"new", "cur", "tmp"} {
		info, err := os.Stat(filepath.Join(f.path, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// Deliver writes a message into the folder using the safe maildir
// delivery process: written under tmp/, then moved into new/.
func (f *Folder) Deliver(message io.Reader) error {
	if f.remote {
		return mcerrors.ErrDeliveryFailed
	}
	if !f.Exists() {
		return mcerrors.ErrMaildirNotFound
	}

	delivery, err := maildir.NewDelivery(f.path)
	if err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrDeliveryFailed, err)
	}
	if _, err := io.Copy(delivery, message); err != nil {
		_ = delivery.Abort()
		return fmt.Errorf("%w: %v", mcerrors.ErrDeliveryFailed, err)
	}
	return delivery.Close()
}

// Messages enumerates the folder's messages, new/ before cur/, creating
// a fresh record per file. The folder's unread count is recomputed from
// the listing. Remote folders are listed by the external scanner, not
// here.
func (f *Folder) Messages() ([]*Message, error) {
	if f.remote {
		return nil, nil
	}

	var msgs []*Message
	for _, sub := range []string{"new", "cur"} {
		names, err := f.listDir(sub)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			msgs = append(msgs, NewLocalMessage(f.session, f, filepath.Join(f.path, sub, name)))
		}
	}

	unread := 0
	for _, m := range msgs {
		if m.IsNew() {
			unread++
		}
	}
	f.unread = unread

	return msgs, nil
}

// RemoteMessage creates a record for a message id reported by a remote
// listing of this folder.
func (f *Folder) RemoteMessage(id int, flags string) *Message {
	return NewRemoteMessage(f.session, f, id, flags)
}

func (f *Folder) listDir(subdir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.path, subdir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mcerrors.ErrMaildirNotFound
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}
