// Package errors provides centralized error definitions for mailcore.
package errors

import "errors"

// Message errors.
var (
	// ErrMessageNotFound indicates the message file does not exist on disk.
	ErrMessageNotFound = errors.New("message not found")

	// ErrOpenFailed indicates the message file exists but could not be opened.
	ErrOpenFailed = errors.New("open failed")

	// ErrParseFailed indicates MIME parsing failed, even after recovery.
	ErrParseFailed = errors.New("parse failed")
)

// Flag errors.
var (
	// ErrRenameFailed indicates a flag-driven file rename did not complete.
	// The message path and its derived flags are left unchanged.
	ErrRenameFailed = errors.New("rename failed")
)

// Folder errors.
var (
	// ErrMaildirNotFound indicates the maildir directory does not exist.
	ErrMaildirNotFound = errors.New("maildir not found")

	// ErrDeliveryFailed indicates message delivery into a folder failed.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Proxy errors.
var (
	// ErrProxyUnavailable indicates the remote-mail helper process could
	// not be reached over its socket.
	ErrProxyUnavailable = errors.New("proxy unavailable")

	// ErrProxyFailed indicates the helper process returned no usable
	// response for a command.
	ErrProxyFailed = errors.New("proxy command failed")
)

// Attachment errors.
var (
	// ErrAttachmentFailed indicates an attachment rebuild aborted before
	// the original message was overwritten.
	ErrAttachmentFailed = errors.New("attachment rebuild failed")
)
