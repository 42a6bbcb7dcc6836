package mailcore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	gomessage "github.com/emersion/go-message"

	mcerrors "github.com/maildeck/mailcore/errors"
)

// Recovery budget: skip at most this many leading newlines, scanning at
// most this many bytes, before the single retry.
const (
	recoverNewlines = 2
	recoverMaxScan  = 1024
)

// openMessageFile opens the file to parse for a message, honoring the
// optional rewrite hook. cleanup must be called once parsing is done; it
// closes the file and removes the substitute file if one was used.
func (s *Session) openMessageFile(path string) (f *os.File, cleanup func(), err error) {
	actual := path
	replaced := false

	if s.Rewrite != nil {
		if p, ok := s.Rewrite.Rewrite(path); ok && p != "" && p != path {
			actual = p
			replaced = true
		}
	}

	f, err = os.Open(actual)
	if err != nil {
		if replaced {
			_ = os.Remove(actual)
		}
		if errors.Is(err, fs.ErrNotExist) {
			s.onError(fmt.Sprintf("failed to open the message file, not found: %s: %v", path, err))
			return nil, nil, fmt.Errorf("%w: %s", mcerrors.ErrMessageNotFound, path)
		}
		s.onError(fmt.Sprintf("failed to open the existing message file: %s: %v", path, err))
		return nil, nil, fmt.Errorf("%w: %s: %v", mcerrors.ErrOpenFailed, path, err)
	}

	cleanup = func() {
		_ = f.Close()
		if replaced {
			_ = os.Remove(actual)
		}
	}
	return f, cleanup, nil
}

// readEntity constructs a MIME entity from an open message file. If the
// first attempt yields nothing, the stream is rewound and up to two
// leading lines are discarded before a single retry. This recovers from
// stray envelope lines prepended to otherwise valid messages; it is not a
// general-purpose repair.
func readEntity(f *os.File) (*gomessage.Entity, error) {
	ent, err := gomessage.Read(f)
	if ent != nil {
		// Unknown charsets and encodings are tolerated; the entity is
		// still navigable and charset policy is applied later.
		return ent, nil
	}

	if _, serr := f.Seek(0, 0); serr != nil {
		return nil, fmt.Errorf("%w: %v", mcerrors.ErrParseFailed, err)
	}
	skipLeadingLines(f)

	ent, err = gomessage.Read(f)
	if ent != nil {
		return ent, nil
	}
	return nil, fmt.Errorf("%w: %v", mcerrors.ErrParseFailed, err)
}

// skipLeadingLines consumes bytes one at a time until two newlines have
// been seen or the scan budget is exhausted. The cap guards against
// pathological inputs containing no newlines at all.
func skipLeadingLines(f *os.File) {
	newlines := 0
	scanned := 0
	buf := make([]byte, 1)

	for newlines < recoverNewlines && scanned < recoverMaxScan {
		n, err := f.Read(buf)
		if err != nil || n == 0 {
			return
		}
		if buf[0] == '\n' {
			newlines++
		}
		scanned++
	}
}

// headerMap flattens an entity's header into a map from lower-cased
// header name to decoded value.
func headerMap(h gomessage.Header) map[string]string {
	out := make(map[string]string)

	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out[strings.ToLower(fields.Key())] = value
	}
	return out
}
