package mailcore

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	mcerrors "github.com/maildeck/mailcore/errors"
)

// Message is a single mail message, backed either by a maildir file or by
// a remote message reached through the proxy channel. Headers and MIME
// parts are loaded lazily on first access and cached for the lifetime of
// the record.
type Message struct {
	session *Session
	parent  *Folder

	path     string
	remote   bool
	remoteID int

	// remoteFlags mirrors the flag state of a remote message; local
	// messages derive flags from the path instead. Always sorted and
	// deduplicated.
	remoteFlags string

	// logicalTime stands in for a modification timestamp on remote
	// messages; it is bumped on every flag mutation.
	logicalTime int64

	headers map[string]string
	parts   []*Part
}

// NewLocalMessage creates a record for a message file inside a maildir
// folder. The path carries the flag state; no flags are stored in memory.
func NewLocalMessage(s *Session, parent *Folder, path string) *Message {
	return &Message{session: s, parent: parent, path: path}
}

// NewRemoteMessage creates a record for a message held on the remote
// server, identified by its server-side id within the parent folder.
// flags is the flag state reported by the listing. The record's path is
// the local cache file the body is fetched into on first use.
func NewRemoteMessage(s *Session, parent *Folder, id int, flags string) *Message {
	return &Message{
		session:     s,
		parent:      parent,
		remote:      true,
		remoteID:    id,
		remoteFlags: SortFlags(flags),
		path:        remoteCachePath(s.Config.CacheDir, parent.Path(), id),
	}
}

// remoteCachePath derives a stable cache filename for a remote message
// from its folder and id.
func remoteCachePath(cacheDir, folder string, id int) string {
	h, err := blake2b.New(24, nil)
	if err != nil {
		return filepath.Join(cacheDir, fmt.Sprintf("msg-%d", id))
	}
	fmt.Fprintf(h, "%s\x00%d", folder, id)
	return filepath.Join(cacheDir, "msg-"+hex.EncodeToString(h.Sum(nil)))
}

// IsLocal reports whether the message is backed by a maildir file.
func (m *Message) IsLocal() bool { return !m.remote }

// IsRemote reports whether the message lives on the remote server.
func (m *Message) IsRemote() bool { return m.remote }

// Path returns the on-disk path of the message: the maildir file for a
// local message, the body cache file for a remote one.
func (m *Message) Path() string { return m.path }

// Parent returns the owning folder. The folder outlives its messages.
func (m *Message) Parent() *Folder { return m.parent }

// RemoteID returns the server-side message id. Zero for local messages.
func (m *Message) RemoteID() int { return m.remoteID }

// Headers returns all headers, mapped from lower-cased name to decoded
// value. An empty map means the message could not be parsed; the failure
// has been reported to the error sink.
func (m *Message) Headers(ctx context.Context) map[string]string {
	if len(m.headers) == 0 {
		m.populate(ctx)
	}
	return m.headers
}

// HeaderValue returns the decoded value of the named header. The lookup
// is case-insensitive.
func (m *Message) HeaderValue(ctx context.Context, name string) string {
	return m.Headers(ctx)[strings.ToLower(name)]
}

// Parts returns the root part(s) of the message's MIME tree, parsing on
// first access. An empty result means parsing failed; the failure has
// been reported to the error sink.
func (m *Message) Parts(ctx context.Context) []*Part {
	if len(m.parts) == 0 {
		m.populate(ctx)
	}
	return m.parts
}

// populate fills the header and part caches from a single parse. Failures
// leave both caches empty; nothing partially populated is ever visible.
func (m *Message) populate(ctx context.Context) {
	if m.remote {
		// A failed fetch leaves no cache file; the open below then
		// fails and reports through the sink.
		_ = m.lazyLoad(ctx)
	}

	f, cleanup, err := m.session.openMessageFile(m.path)
	if err != nil {
		return
	}
	defer cleanup()

	ent, err := readEntity(f)
	if err != nil {
		m.session.onError(fmt.Sprintf("failed to parse message: %s: %v", m.path, err))
		return
	}

	m.headers = headerMap(ent.Header)
	if root := m.session.partFromEntity(ent); root != nil {
		m.parts = []*Part{root}
	}
}

// lazyLoad fetches the body of a remote message into its cache file if
// that file does not exist yet. This is the only point at which remote
// message content touches local storage.
func (m *Message) lazyLoad(ctx context.Context) error {
	if _, err := os.Stat(m.path); err == nil {
		return nil
	}
	if m.session.Proxy == nil {
		return mcerrors.ErrProxyUnavailable
	}

	body, err := m.session.Proxy.FetchMessage(ctx, m.remoteID, m.parent.Path())
	if err != nil {
		slog.Debug("fetch of remote message failed",
			slog.Int("id", m.remoteID), slog.Any("err", err))
		return fmt.Errorf("%w: %v", mcerrors.ErrProxyFailed, err)
	}

	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", mcerrors.ErrOpenFailed, m.path, err)
	}
	_, werr := f.Write(body)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

// Flags returns the current flag set: derived from the path for local
// messages, the in-memory mirror for remote ones. Always sorted and
// deduplicated.
func (m *Message) Flags() string {
	if m.remote {
		return m.remoteFlags
	}
	return FlagsFromPath(m.path)
}

// SetFlags replaces the flag set. For a local message the file is renamed
// to the path encoding the new flags before the stored path is updated; a
// failed rename leaves both untouched. For a remote message only the
// in-memory mirror changes and the logical time is bumped.
func (m *Message) SetFlags(flags string) error {
	if m.remote {
		m.remoteFlags = SortFlags(flags)
		m.bumpRemote()
		return nil
	}

	dst := PathWithFlags(m.path, flags)
	if dst == m.path {
		return nil
	}
	if err := os.Rename(m.path, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", mcerrors.ErrRenameFailed, m.path, err)
	}
	m.path = dst
	return nil
}

// HasFlag reports whether the upper-cased flag character is present.
func (m *Message) HasFlag(c byte) bool {
	return strings.IndexByte(m.Flags(), upperFlag(c)) >= 0
}

// AddFlag adds the upper-cased flag character. It reports whether the
// flag was newly added.
func (m *Message) AddFlag(c byte) (bool, error) {
	c = upperFlag(c)
	flags := m.Flags()
	if strings.IndexByte(flags, c) >= 0 {
		return false, nil
	}
	if err := m.SetFlags(flags + string(c)); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFlag removes the upper-cased flag character. It reports whether
// the flag was present and removed.
func (m *Message) RemoveFlag(c byte) (bool, error) {
	c = upperFlag(c)
	flags := m.Flags()
	if strings.IndexByte(flags, c) < 0 {
		return false, nil
	}
	if err := m.SetFlags(strings.ReplaceAll(flags, string(c), "")); err != nil {
		return false, err
	}
	return true, nil
}

// IsNew reports whether the message counts as unread: flag N present, or
// flag S absent. A message carrying neither flag is unread by default.
func (m *Message) IsNew() bool {
	return m.HasFlag(FlagNew) || !m.HasFlag(FlagSeen)
}

// MarkRead marks the message as read.
//
// Remote: the command goes over the proxy channel, the mirror drops N and
// gains S, and the parent's unread count drops (floored at zero). Local:
// a message still under new/ is first renamed into the sibling cur/
// directory, then S is added; otherwise N is removed and S added through
// the flag-suffix rewrite alone.
func (m *Message) MarkRead(ctx context.Context) error {
	if m.remote {
		m.proxyCommand(ctx, func(p ProxyChannel) error {
			return p.MarkRead(ctx, m.remoteID, m.parent.Path())
		})

		m.remoteFlags = SortFlags(strings.ReplaceAll(m.remoteFlags, string(FlagNew), "") + string(FlagSeen))
		m.bumpRemote()

		c := m.parent.Unread() - 1
		if c < 0 {
			c = 0
		}
		m.parent.SetUnread(c)
		return nil
	}

	if idx := strings.Index(m.path, "/new/"); idx >= 0 {
		dst := m.path[:idx] + "/cur/" + m.path[idx+len("/new/"):]
		if err := os.Rename(m.path, dst); err != nil {
			return fmt.Errorf("%w: %s: %v", mcerrors.ErrRenameFailed, m.path, err)
		}
		m.path = dst
		_, err := m.AddFlag(FlagSeen)
		return err
	}

	if _, err := m.RemoveFlag(FlagNew); err != nil {
		return err
	}
	_, err := m.AddFlag(FlagSeen)
	return err
}

// MarkUnread marks the message as unread.
//
// Remote: the command goes over the proxy channel, the mirror drops S and
// gains N, and the parent's unread count rises. Local: flag S is removed
// if present. No rename back into new/ is performed; leaving new/ is a
// one-way transition.
func (m *Message) MarkUnread(ctx context.Context) error {
	if m.remote {
		m.proxyCommand(ctx, func(p ProxyChannel) error {
			return p.MarkUnread(ctx, m.remoteID, m.parent.Path())
		})

		m.remoteFlags = SortFlags(strings.ReplaceAll(m.remoteFlags, string(FlagSeen), "") + string(FlagNew))
		m.bumpRemote()

		m.parent.SetUnread(m.parent.Unread() + 1)
		return nil
	}

	if m.HasFlag(FlagSeen) {
		_, err := m.RemoveFlag(FlagSeen)
		return err
	}
	return nil
}

// Unlink deletes the message and asks the global index to refresh. It
// reports whether the deletion succeeded.
func (m *Message) Unlink(ctx context.Context) bool {
	if m.remote {
		m.proxyCommand(ctx, func(p ProxyChannel) error {
			return p.DeleteMessage(ctx, m.remoteID, m.parent.Path())
		})
		m.parent.BumpMtime()
		m.session.refreshIndex(false)
		return true
	}

	err := os.Remove(m.path)
	m.session.refreshIndex(true)
	return err == nil
}

// Mtime returns the modification marker of the message: the file
// modification time for a local message, the logical time for a remote
// one.
func (m *Message) Mtime() int64 {
	if m.remote {
		return m.logicalTime
	}
	fi, err := os.Stat(m.path)
	if err != nil {
		return 1
	}
	return fi.ModTime().Unix()
}

// InvalidateParts drops the cached part tree so the next access
// re-parses the message.
func (m *Message) InvalidateParts() {
	m.parts = nil
}

// bumpRemote advances the logical time and the parent folder's
// modification marker after a remote flag mutation.
func (m *Message) bumpRemote() {
	m.logicalTime++
	if m.parent != nil {
		m.parent.BumpMtime()
	}
}

// proxyCommand runs a proxy round-trip. A missing channel or a failed
// command is a silent no-op for this record; surfacing proxy failures is
// the channel's responsibility.
func (m *Message) proxyCommand(_ context.Context, call func(ProxyChannel) error) {
	if m.session.Proxy == nil {
		return
	}
	if err := call(m.session.Proxy); err != nil {
		slog.Debug("proxy command failed", slog.Any("err", err))
	}
}
