package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/tebeka/atexit"

	"navpanel/internal/panel"
	"navpanel/internal/prefs"
	"navpanel/internal/schema"
	"navpanel/internal/transport"
)

// drainTimeout bounds how long queued lines may take to reach the socket before a
// reconnect or exit gives up on them.
const drainTimeout = 2 * time.Second

// session ties one visualizer connection to the preference store and, for the panel,
// the outbox and the built controls.
type session struct {
	logger   *slog.Logger
	store    prefs.Store
	client   *transport.Client
	remember bool

	mu     sync.Mutex
	schema *schema.Schema
	outbox *transport.Outbox
	panel  *panel.Panel
}

func openSession(logger *slog.Logger) (*session, error) {
	store, err := prefs.Open(cfg.PrefsBackend, cfg.AppID, cfg.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	s := &session{
		logger: logger,
		store:  store,
		client: transport.NewClient(transport.Options{
			Port:           cfg.VisualizerPort,
			ConnectTimeout: cfg.ConnectTimeout,
			WriteTimeout:   cfg.ConnectTimeout,
			Logger:         logger,
		}),
		remember: cfg.RememberHost,
	}
	atexit.Register(s.Close)
	return s, nil
}

// connect tries the configured host, then falls back to prompting with the stored
// host as the suggestion.
func (s *session) connect(ctx context.Context, prompter transport.Prompter) error {
	suggestion := prefs.ServerHost(ctx, s.store)
	host, prompted, err := transport.ConnectInteractive(ctx, s.client, prompter, cfg.VisualizerHost, suggestion)
	if err != nil {
		return err
	}
	if prompted && s.remember {
		s.rememberHost(ctx, host)
	}
	return nil
}

func (s *session) rememberHost(ctx context.Context, host string) {
	if err := prefs.RememberHost(ctx, s.store, host); err != nil {
		s.logger.Warn("remember_host_failed",
			"host", host,
			"error", err.Error(),
		)
		return
	}
	s.logger.Info("host_remembered", "host", host)
}

// startPanel builds the controls from sch behind an outbox, announcing initial values.
func (s *session) startPanel(sch *schema.Schema) *panel.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schema = sch
	if s.outbox == nil {
		s.outbox = transport.NewOutbox(s.client, cfg.OutboxSize, s.logger)
	}
	s.panel = panel.Build(sch, s.outbox)
	return s.panel
}

// Reconnect switches to host and rebuilds the panel, since a fresh visualizer knows
// none of the current values.
func (s *session) Reconnect(ctx context.Context, host string) (*panel.Panel, error) {
	// lines meant for the old visualizer must not reach the new one
	s.drain(ctx)

	if err := s.client.Connect(ctx, host); err != nil {
		return nil, err
	}
	if s.remember {
		s.rememberHost(ctx, host)
	}

	s.mu.Lock()
	if s.panel != nil {
		s.panel.Close()
	}
	sch := s.schema
	s.mu.Unlock()

	return s.startPanel(sch), nil
}

func (s *session) Stats() transport.Stats {
	return s.client.Stats()
}

// drain waits for queued lines to reach the current socket. Returns false on timeout.
func (s *session) drain(ctx context.Context) bool {
	s.mu.Lock()
	outbox := s.outbox
	s.mu.Unlock()
	if outbox == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := outbox.Flush(ctx); err != nil {
		s.logger.Warn("outbox_flush_failed",
			"error", err.Error(),
		)
		return false
	}
	return true
}

// Close drains the outbox before the socket goes away. If the drain times out the
// rest of the queue is discarded.
func (s *session) Close() {
	drained := s.drain(context.Background())

	s.mu.Lock()
	outbox := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	if outbox != nil {
		if drained {
			outbox.Close()
		} else {
			outbox.Shutdown()
		}
		if dropped := outbox.Dropped(); dropped > 0 {
			s.logger.Warn("outbox_dropped_lines",
				"count", dropped,
			)
		}
	}
	s.client.Close()
	s.store.Close()
}

// linePrompter asks for a host on a plain terminal.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter() transport.Prompter {
	if noPromptFlag || !isTerminal(os.Stdin) {
		return transport.PrompterFunc(func(context.Context, string, error) (string, bool, error) {
			return "", false, nil
		})
	}
	return linePrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p linePrompter) PromptHost(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
	color.New(color.FgRed).Fprintf(p.out, "✗ %v\n", lastErr)
	fmt.Fprintf(p.out, "Server IP [%s] (empty line to use it, ctrl+d to give up): ", suggestion)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", false, nil
		}
		return "", false, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = suggestion
	}
	return line, true, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
