package visualizer

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"navpanel/internal/protocol"
)

// LineHandler consumes one received line, without its newline.
type LineHandler interface {
	HandleLine(line string) error
}

// LineHandlerFunc adapts a function to LineHandler.
type LineHandlerFunc func(line string) error

func (f LineHandlerFunc) HandleLine(line string) error { return f(line) }

// ConnectionInfo is a snapshot of one panel connection.
type ConnectionInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Lines       int       `json:"lines"`
	Dropped     int       `json:"dropped"`
	Failed      int       `json:"failed"`
}

// Connection is one panel feeding lines to the handler. Nothing is written back.
type Connection struct {
	ID      string
	conn    net.Conn
	Manager *ConnectionManager
	Limiter *rate.Limiter
	handler LineHandler

	maxLine     int
	idleTimeout time.Duration

	mu   sync.Mutex
	info ConnectionInfo
}

func NewConnection(conn net.Conn, manager *ConnectionManager, handler LineHandler, opts Options) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:          id,
		conn:        conn,
		Manager:     manager,
		Limiter:     rate.NewLimiter(rate.Limit(opts.LineRate), opts.LineBurst),
		handler:     handler,
		maxLine:     opts.MaxLineSize,
		idleTimeout: opts.IdleTimeout,
		info: ConnectionInfo{
			ID:          id,
			RemoteAddr:  conn.RemoteAddr().String(),
			ConnectedAt: time.Now(),
		},
	}
}

// Listen reads lines until the peer goes away or the connection is closed.
func (c *Connection) Listen() {
	defer c.conn.Close()
	reader := bufio.NewReaderSize(c.conn, c.maxLine)
	logger := c.Manager.logger

	logger.Info("panel_started_listening",
		"client_id", c.ID,
		"remote_addr", c.info.RemoteAddr,
	)
	c.resetDeadline()

	oversized := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// keep discarding until the newline that ends this line
			oversized = true
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("panel_disconnected",
					"client_id", c.ID,
				)
				return
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				logger.Warn("panel_read_timeout",
					"client_id", c.ID,
				)
				return
			}
			if errors.Is(err, net.ErrClosed) ||
				strings.Contains(err.Error(), "connection reset") {
				return
			}
			logger.Error("panel_read_error",
				"client_id", c.ID,
				"error", err.Error(),
			)
			return
		}
		c.resetDeadline()

		if oversized {
			oversized = false
			c.count(func(i *ConnectionInfo) { i.Dropped++ })
			logger.Warn("line_too_large",
				"client_id", c.ID,
				"max_size", c.maxLine,
			)
			continue
		}

		if !c.Limiter.Allow() {
			c.count(func(i *ConnectionInfo) { i.Dropped++ })
			logger.Warn("rate_limit_exceeded",
				"client_id", c.ID,
			)
			continue
		}

		line := strings.TrimRight(string(chunk), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := c.handler.HandleLine(line); err != nil {
			c.count(func(i *ConnectionInfo) { i.Failed++ })
			logger.Warn("line_rejected",
				"client_id", c.ID,
				"line", line,
				"error", err.Error(),
			)
			continue
		}
		c.count(func(i *ConnectionInfo) { i.Lines++ })
		if a, err := protocol.ParseAssignment(line); err == nil {
			logger.Debug("variable_updated",
				"client_id", c.ID,
				"variable", a.Name,
				"value", a.Literal,
			)
		} else {
			logger.Debug("line_executed",
				"client_id", c.ID,
				"line", line,
			)
		}
	}
}

func (c *Connection) resetDeadline() {
	if c.idleTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}
}

func (c *Connection) count(update func(*ConnectionInfo)) {
	c.mu.Lock()
	update(&c.info)
	c.mu.Unlock()
}

// Info returns a snapshot of the connection's counters.
func (c *Connection) Info() ConnectionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *Connection) Close() {
	c.conn.Close()
}
