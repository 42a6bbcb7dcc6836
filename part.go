package mailcore

// Part is one node of a message's MIME tree. Leaf parts carry decoded
// content; multipart nodes carry children instead. A part belongs to
// exactly one message and is never shared across messages.
type Part struct {
	// Type is the full content type, including parameters,
	// e.g. "text/plain; charset=utf-8".
	Type string

	// Filename is the attachment filename, taken from the disposition
	// filename parameter or the content-type name parameter. Empty for
	// inline parts.
	Filename string

	// Content is the decoded part content. Empty for multipart nodes.
	Content []byte

	// Children are the sub-parts of a multipart node, in original order.
	Children []*Part

	parent *Part
}

// IsAttachment reports whether this part carries an attachment filename.
func (p *Part) IsAttachment() bool {
	return p.Filename != ""
}

// Parent returns the enclosing part, or nil for a root part. The
// reference is structural only; a part does not own its parent.
func (p *Part) Parent() *Part {
	return p.parent
}
