package transport

// client.go = the single outbound connection to the visualizer and its line protocol.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"navpanel/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrAbandoned    = errors.New("connection abandoned by user")
)

// Dialer opens stream connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options configures a Client.
type Options struct {
	Port           int           // service port, protocol.DefaultPort when zero
	ConnectTimeout time.Duration // zero means no timeout beyond ctx
	Dialer         Dialer        // defaults to a net.Dialer using ConnectTimeout
	WriteTimeout   time.Duration // per-line write deadline, none when zero
	Logger         *slog.Logger
}

// Stats holds connection statistics
type Stats struct {
	Host         string
	Connected    bool
	ConnectedAt  time.Time
	Uptime       time.Duration
	MessagesSent int
	SendFailures int
	LastSend     time.Time
}

// Client owns one TCP connection to the visualizer. Lines are written and flushed
// one at a time; nothing is ever read back.
type Client struct {
	port         int
	timeout      time.Duration
	writeTimeout time.Duration
	dialer  Dialer
	logger  *slog.Logger

	mu     sync.Mutex
	host   string
	conn   net.Conn
	writer *bufio.Writer
	stats  Stats
}

// NewClient creates a disconnected client.
func NewClient(opts Options) *Client {
	port := opts.Port
	if port == 0 {
		port = protocol.DefaultPort
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: opts.ConnectTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		port:         port,
		timeout:      opts.ConnectTimeout,
		writeTimeout: opts.WriteTimeout,
		dialer:       dialer,
		logger:       logger,
	}
}

// Address joins host with the service port.
func (c *Client) Address(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.port))
}

// Connect makes exactly one attempt to reach host. Any existing connection is torn
// down first, so a failed reconnect leaves the client disconnected.
func (c *Client) Connect(ctx context.Context, host string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	addr := c.Address(host)
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.logger.Warn("visualizer_connect_failed",
			"addr", addr,
			"error", err.Error(),
		)
		return fmt.Errorf("connection to %s failed: %w", addr, err)
	}

	c.host = host
	c.conn = conn
	c.writer = bufio.NewWriter(conn)
	c.stats.Host = host
	c.stats.Connected = true
	c.stats.ConnectedAt = time.Now()

	c.logger.Info("visualizer_connected",
		"addr", addr,
		"local_addr", conn.LocalAddr().String(),
	)
	return nil
}

// SendLine writes text and a newline, then flushes. A write failure drops the socket
// and leaves the client in a degraded, non-sending state until the next Connect.
func (c *Client) SendLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.stats.SendFailures++
		c.logger.Debug("line_dropped_not_connected",
			"line", text,
		)
		return ErrNotConnected
	}

	if err := c.writeLocked(text); err != nil {
		c.stats.SendFailures++
		c.logger.Error("visualizer_send_failed",
			"host", c.host,
			"line", text,
			"error", err.Error(),
		)
		c.closeLocked()
		return err
	}

	c.stats.MessagesSent++
	c.stats.LastSend = time.Now()
	c.logger.Debug("line_sent",
		"line", text,
	)
	return nil
}

func (c *Client) writeLocked(text string) error {
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.writer.WriteString(text); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// UpdateNumber sends "name = value".
func (c *Client) UpdateNumber(name string, value float64) error {
	return c.SendLine(protocol.Assign(name, value))
}

// UpdateBool sends "name = true" or "name = false".
func (c *Client) UpdateBool(name string, value bool) error {
	return c.SendLine(protocol.AssignBool(name, value))
}

// SendCode sends a command payload verbatim.
func (c *Client) SendCode(code string) error {
	return c.SendLine(code)
}

// Close tears down the connection. Closing a disconnected client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.logger.Info("visualizer_disconnected",
		"host", c.host,
	)
	c.conn = nil
	c.writer = nil
	c.stats.Connected = false
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Host is the last host successfully connected to.
func (c *Client) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// Stats returns connection statistics
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	if c.conn != nil {
		stats.Uptime = time.Since(c.stats.ConnectedAt)
	}
	return stats
}
