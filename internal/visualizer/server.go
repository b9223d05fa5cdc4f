package visualizer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	DefaultMaxLineSize = 64 * 1024
	DefaultLineRate    = 200
	DefaultLineBurst   = 400
)

// Options tunes a Server. Zero values take the defaults above; IdleTimeout zero
// means connections never time out.
type Options struct {
	LineRate    float64
	LineBurst   int
	MaxLineSize int
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.LineRate <= 0 {
		o.LineRate = DefaultLineRate
	}
	if o.LineBurst <= 0 {
		o.LineBurst = DefaultLineBurst
	}
	if o.MaxLineSize <= 0 {
		o.MaxLineSize = DefaultMaxLineSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Server accepts panel connections and feeds their lines to one handler.
type Server struct {
	Addr    string
	Manager *ConnectionManager

	handler LineHandler
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	quitChan chan struct{}
	wg       sync.WaitGroup
}

func NewServer(addr string, handler LineHandler, opts Options) *Server {
	opts = opts.withDefaults()
	return &Server{
		Addr:     addr,
		Manager:  NewConnectionManager(opts.Logger),
		handler:  handler,
		opts:     opts,
		logger:   opts.Logger,
		quitChan: make(chan struct{}),
	}
}

// Listen binds the listening socket without accepting yet.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to start visualizer listener: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.logger.Info("visualizer_listening",
		"addr", listener.Addr().String(),
	)
	return nil
}

// ListenAddr is the bound address, or nil before Listen.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Stop. It returns nil after Stop.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quitChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept_failed",
				"error", err.Error(),
			)
			continue
		}

		s.wg.Add(1)
		go func(conn net.Conn) {
			defer s.wg.Done()
			s.handleConnection(conn)
		}(conn)
	}
}

// Start is Listen followed by Serve.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) handleConnection(conn net.Conn) {
	client := NewConnection(conn, s.Manager, s.handler, s.opts)
	s.Manager.AddConnection(client)
	client.Listen()
	s.Manager.RemoveConnection(client)
}

// Stop closes the listener and every connection, then waits for their goroutines.
func (s *Server) Stop() {
	s.mu.Lock()
	select {
	case <-s.quitChan:
		s.mu.Unlock()
		return
	default:
		close(s.quitChan)
	}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.Manager.CloseAllConnections()
	s.wg.Wait()
	s.logger.Info("visualizer_stopped")
}
