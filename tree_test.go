package mailcore

import (
	"context"
	"strings"
	"testing"
)

const multipartMessage = "From: sender@example.com\r\n" +
	"Subject: mixed\r\n" +
	"Content-Type: multipart/mixed; boundary=BOUNDARY\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"hello world\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/pdf; name=\"doc.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8gcGRm\r\n" +
	"--BOUNDARY--\r\n"

func TestPartTreeMultipart(t *testing.T) {
	s := newTestSession(t)
	folder := newTestMaildir(t, s)
	m := writeMessageFile(t, s, folder, "cur", "10:2,S", multipartMessage)

	parts := m.Parts(context.Background())
	if len(parts) != 1 {
		t.Fatalf("expected one root part, got %d", len(parts))
	}

	root := parts[0]
	if !strings.HasPrefix(root.Type, "multipart/mixed") {
		t.Fatalf("root type = %q", root.Type)
	}
	if len(root.Content) != 0 {
		t.Fatalf("multipart node should carry no content, got %d bytes", len(root.Content))
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}

	text := root.Children[0]
	if text.IsAttachment() {
		t.Fatalf("text part should be inline")
	}
	if got := strings.TrimRight(string(text.Content), "\r\n"); got != "hello world" {
		t.Fatalf("text content = %q", got)
	}
	if text.Parent() != root {
		t.Fatalf("child parent back-reference not set")
	}

	pdf := root.Children[1]
	if !pdf.IsAttachment() {
		t.Fatalf("pdf part should be an attachment")
	}
	// The disposition filename wins over the content-type name parameter.
	if pdf.Filename != "report.pdf" {
		t.Fatalf("pdf filename = %q, want %q", pdf.Filename, "report.pdf")
	}
	// Content transfer encoding is undone.
	if string(pdf.Content) != "hello pdf" {
		t.Fatalf("pdf content = %q, want decoded bytes", pdf.Content)
	}
	if !strings.HasPrefix(pdf.Type, "application/pdf") {
		t.Fatalf("pdf type = %q", pdf.Type)
	}
	if pdf.Parent() != root {
		t.Fatalf("child parent back-reference not set")
	}
}

func TestAttachmentNameFromTypeParameter(t *testing.T) {
	s := newTestSession(t)
	folder := newTestMaildir(t, s)
	raw := "Content-Type: application/octet-stream; name=\"named.bin\"\r\n" +
		"\r\n" +
		"data\r\n"
	m := writeMessageFile(t, s, folder, "cur", "11:2,S", raw)

	parts := m.Parts(context.Background())
	if len(parts) != 1 {
		t.Fatalf("expected one root part, got %d", len(parts))
	}
	if parts[0].Filename != "named.bin" {
		t.Fatalf("filename = %q, want %q", parts[0].Filename, "named.bin")
	}
}

func TestEmbeddedMessageSerialized(t *testing.T) {
	s := newTestSession(t)
	folder := newTestMaildir(t, s)
	raw := "Content-Type: multipart/mixed; boundary=OUTER\r\n" +
		"\r\n" +
		"--OUTER\r\n" +
		"Content-Type: message/rfc822\r\n" +
		"\r\n" +
		"Subject: inner\r\n" +
		"\r\n" +
		"inner body\r\n" +
		"--OUTER--\r\n"
	m := writeMessageFile(t, s, folder, "cur", "12:2,S", raw)

	parts := m.Parts(context.Background())
	if len(parts) != 1 || len(parts[0].Children) != 1 {
		t.Fatalf("unexpected tree shape")
	}

	embedded := parts[0].Children[0]
	if !strings.HasPrefix(embedded.Type, "message/rfc822") {
		t.Fatalf("embedded type = %q", embedded.Type)
	}
	content := string(embedded.Content)
	if !strings.Contains(content, "Subject: inner") || !strings.Contains(content, "inner body") {
		t.Fatalf("embedded content = %q, want serialized inner message", content)
	}
}

const latin1Message = "Content-Type: text/plain; charset=ISO-8859-1\r\n" +
	"\r\n" +
	"caf\xe9\r\n"

func TestCharsetNormalization(t *testing.T) {
	s := newTestSession(t)
	s.Config.ConvertCharset = true
	folder := newTestMaildir(t, s)
	m := writeMessageFile(t, s, folder, "cur", "13:2,S", latin1Message)

	parts := m.Parts(context.Background())
	if len(parts) != 1 {
		t.Fatalf("expected one root part, got %d", len(parts))
	}
	if got := string(parts[0].Content); !strings.Contains(got, "café") {
		t.Fatalf("content = %q, want UTF-8 conversion", got)
	}
}

func TestCharsetNormalizationDisabled(t *testing.T) {
	s := newTestSession(t)
	folder := newTestMaildir(t, s)
	m := writeMessageFile(t, s, folder, "cur", "14:2,S", latin1Message)

	parts := m.Parts(context.Background())
	if got := string(parts[0].Content); !strings.Contains(got, "caf\xe9") {
		t.Fatalf("content = %q, want original bytes", got)
	}
}

// Conversion failure is non-fatal: unknown charsets keep the original
// bytes unchanged.
func TestCharsetNormalizationUnknownCharset(t *testing.T) {
	s := newTestSession(t)
	s.Config.ConvertCharset = true
	folder := newTestMaildir(t, s)
	raw := "Content-Type: text/plain; charset=x-no-such-charset\r\n" +
		"\r\n" +
		"caf\xe9\r\n"
	m := writeMessageFile(t, s, folder, "cur", "15:2,S", raw)

	parts := m.Parts(context.Background())
	if got := string(parts[0].Content); !strings.Contains(got, "caf\xe9") {
		t.Fatalf("content = %q, want original bytes", got)
	}
}

// Only exact text/plain content is normalized.
func TestCharsetNormalizationSkipsOtherTypes(t *testing.T) {
	if got := normalizeCharset("text/html", "ISO-8859-1", []byte("caf\xe9")); string(got) != "caf\xe9" {
		t.Fatalf("text/html content converted: %q", got)
	}
	if got := normalizeCharset("text/plain", "UTF-8", []byte("café")); string(got) != "café" {
		t.Fatalf("utf-8 content changed: %q", got)
	}
}
