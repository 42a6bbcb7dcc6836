package mailcore

import (
	"io"
	"log/slog"
	"mime"
	"strings"

	gomessage "github.com/emersion/go-message"
	"golang.org/x/text/encoding/ianaindex"
)

// partFromEntity recursively converts a parsed MIME entity into an owned
// Part tree. The entity is consumed entirely by this call; no reference
// to it outlives the conversion.
func (s *Session) partFromEntity(e *gomessage.Entity) *Part {
	ctype, params, err := e.Header.ContentType()
	if err != nil {
		ctype = strings.ToLower(strings.TrimSpace(e.Header.Get("Content-Type")))
		params = nil
	}
	if ctype == "" {
		ctype = "text/plain"
	}

	full := ctype
	if len(params) > 0 {
		full = mime.FormatMediaType(ctype, params)
	}

	// A part with a disposition filename, or failing that a content-type
	// name parameter, is an attachment. Everything else is inline.
	name := ""
	if _, dparams, derr := e.Header.ContentDisposition(); derr == nil {
		name = dparams["filename"]
	}
	if name == "" {
		name = params["name"]
	}

	part := &Part{Type: full, Filename: name}

	if mr := e.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if err == io.EOF || child == nil {
				break
			}
			cp := s.partFromEntity(child)
			cp.parent = part
			part.Children = append(part.Children, cp)
		}
		return part
	}

	// Leaf part: the body stream has the content transfer encoding
	// already undone. For an embedded message the stream is the
	// serialized embedded message itself.
	content, err := io.ReadAll(e.Body)
	if err != nil {
		slog.Debug("partial part content", slog.String("type", ctype), slog.Any("err", err))
	}

	if s.Config.ConvertCharset {
		content = normalizeCharset(ctype, params["charset"], content)
	}
	part.Content = content
	return part
}

// normalizeCharset converts text/plain content declared in a non-UTF-8
// charset to UTF-8. Any failure keeps the original bytes unchanged.
func normalizeCharset(ctype, charset string, content []byte) []byte {
	if ctype != "text/plain" || charset == "" || strings.EqualFold(charset, "utf-8") {
		return content
	}

	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		slog.Debug("unknown charset, keeping original bytes", slog.String("charset", charset))
		return content
	}

	converted, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		slog.Debug("charset conversion failed, keeping original bytes",
			slog.String("charset", charset), slog.Any("err", err))
		return content
	}
	return converted
}
