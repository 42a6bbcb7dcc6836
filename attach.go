package mailcore

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	gomessage "github.com/emersion/go-message"

	mcerrors "github.com/maildeck/mailcore/errors"
)

// AddAttachments rebuilds the on-disk message to carry the named files as
// attachments. The existing top-level body is wrapped, forced to
// text/plain UTF-8, inside a new multipart/mixed container; each file is
// appended in input order as a base64-encoded part named after its base
// name. The rebuilt message is serialized to a temporary file and only
// then copied over the original, so a failure at any earlier point leaves
// the original untouched.
func (m *Message) AddAttachments(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		m.session.onError(fmt.Sprintf("failed to open the message: %s: %v", m.path, err))
		return fmt.Errorf("%w: %s: %v", mcerrors.ErrOpenFailed, m.path, err)
	}
	defer func() { _ = f.Close() }()

	ent, err := readEntity(f)
	if err != nil {
		m.session.onError(fmt.Sprintf("failed to parse message: %s: %v", m.path, err))
		return err
	}

	// Top-level headers carry over; the content type becomes the new
	// multipart container's.
	outer := gomessage.Header{Header: ent.Header.Header.Copy()}
	outer.SetContentType("multipart/mixed", nil)
	outer.Del("Content-Transfer-Encoding")

	tmp, err := os.CreateTemp(m.session.Config.TempDir, "mailcore-*")
	if err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	mw, err := gomessage.CreateWriter(tmp, outer)
	if err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}

	// The original body goes in first, as text/plain UTF-8.
	var inner gomessage.Header
	inner.SetContentType("text/plain", map[string]string{"charset": "UTF-8"})
	pw, err := mw.CreatePart(inner)
	if err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}
	if _, err := io.Copy(pw, ent.Body); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}

	for _, name := range paths {
		if err := m.writeAttachment(mw, name); err != nil {
			return err
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}

	// All writing succeeded; replace the original. The serializer read
	// from the still-open original, so the content never goes directly
	// on top of it.
	_ = f.Close()
	if err := copyFile(tmpName, m.path); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}

	slog.Debug("attachments added", slog.String("path", m.path), slog.Int("count", len(paths)))
	m.InvalidateParts()
	return nil
}

func (m *Message) writeAttachment(mw *gomessage.Writer, name string) error {
	af, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", mcerrors.ErrOpenFailed, name, err)
	}
	defer func() { _ = af.Close() }()

	var h gomessage.Header
	h.Set("Content-Type", m.session.detectType(name))
	h.Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(name)}))
	h.Set("Content-Transfer-Encoding", "base64")

	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}
	if _, err := io.Copy(pw, af); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrAttachmentFailed, err)
	}
	return pw.Close()
}

// copyFile copies src over dst, truncating dst. A plain copy rather than
// a rename; the temp directory may live on a different filesystem.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
