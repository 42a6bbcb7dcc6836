// Package proxy implements the command channel to the remote-mail helper
// process.
//
// The protocol is line-oriented: the client writes one command terminated
// by a newline, then reads the complete response. Each round-trip uses a
// fresh connection to the helper's Unix socket, and a mutex guarantees at
// most one outstanding request per client; commands are never pipelined.
//
// Commands understood by the helper:
//
//	mark_read <id> <folder>
//	mark_unread <id> <folder>
//	delete_message <id> <folder>
//	get_message <id> <folder>    response: full raw message bytes
package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/maildeck/mailcore"
	mcerrors "github.com/maildeck/mailcore/errors"
)

// Client speaks the helper protocol over a Unix-domain socket.
type Client struct {
	socketPath string

	// mu serializes round-trips: one outstanding request at a time.
	mu sync.Mutex
}

// NewClient creates a client for the helper listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// MarkRead implements mailcore.ProxyChannel.
func (c *Client) MarkRead(ctx context.Context, id int, folder string) error {
	_, err := c.roundTrip(ctx, fmt.Sprintf("mark_read %d %s", id, folder))
	return err
}

// MarkUnread implements mailcore.ProxyChannel.
func (c *Client) MarkUnread(ctx context.Context, id int, folder string) error {
	_, err := c.roundTrip(ctx, fmt.Sprintf("mark_unread %d %s", id, folder))
	return err
}

// DeleteMessage implements mailcore.ProxyChannel.
func (c *Client) DeleteMessage(ctx context.Context, id int, folder string) error {
	_, err := c.roundTrip(ctx, fmt.Sprintf("delete_message %d %s", id, folder))
	return err
}

// FetchMessage implements mailcore.ProxyChannel. The response body is the
// full raw message.
func (c *Client) FetchMessage(ctx context.Context, id int, folder string) ([]byte, error) {
	return c.roundTrip(ctx, fmt.Sprintf("get_message %d %s", id, folder))
}

// roundTrip writes one command line and blocks until the helper has sent
// its complete response and closed the connection.
func (c *Client) roundTrip(ctx context.Context, cmd string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mcerrors.ErrProxyUnavailable, c.socketPath, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, cmd+"\n"); err != nil {
		return nil, fmt.Errorf("%w: %v", mcerrors.ErrProxyFailed, err)
	}

	out, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mcerrors.ErrProxyFailed, err)
	}

	slog.Debug("proxy round-trip", slog.String("cmd", cmd), slog.Int("response_bytes", len(out)))
	return out, nil
}

// Compile-time interface verification.
var _ mailcore.ProxyChannel = (*Client)(nil)
