package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"navpanel/internal/param"
)

// lineServer is a loopback visualizer stand-in that records every line and every
// accepted connection.
type lineServer struct {
	listener net.Listener

	mu       sync.Mutex
	lines    []string
	accepted int
	open     int
	conns    []net.Conn
	linesCh  chan string
}

func newLineServer(t *testing.T) *lineServer {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &lineServer{listener: l, linesCh: make(chan string, 1024)}
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *lineServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *lineServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.open++
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.read(conn)
	}
}

func (s *lineServer) read(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		s.open--
		s.mu.Unlock()
	}()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()
		s.linesCh <- line
	}
}

func (s *lineServer) counts() (accepted, open int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted, s.open
}

func (s *lineServer) next(t *testing.T) string {
	select {
	case line := <-s.linesCh:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for line")
		return ""
	}
}

func (s *lineServer) Close() {
	s.listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

// selectiveDialer fails for hosts in the bad set and dials loopback otherwise.
type selectiveDialer struct {
	bad   map[string]bool
	mu    sync.Mutex
	calls []string
}

func (d *selectiveDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, _ := net.SplitHostPort(address)
	d.mu.Lock()
	d.calls = append(d.calls, host)
	d.mu.Unlock()
	if d.bad[host] {
		return nil, errors.New("connection refused")
	}
	var nd net.Dialer
	return nd.DialContext(ctx, network, address)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type TransportSuite struct {
	suite.Suite
	server *lineServer
	dialer *selectiveDialer
	client *Client
}

func (s *TransportSuite) SetupTest() {
	s.server = newLineServer(s.T())
	s.dialer = &selectiveDialer{bad: map[string]bool{"10.255.255.1": true, "robot.invalid": true}}
	s.client = NewClient(Options{
		Port:           s.server.port(),
		ConnectTimeout: time.Second,
		Dialer:         s.dialer,
		Logger:         quietLogger(),
	})
}

func (s *TransportSuite) TearDownTest() {
	s.client.Close()
}

func (s *TransportSuite) waitAccepted(n int) {
	s.Eventually(func() bool {
		accepted, _ := s.server.counts()
		return accepted >= n
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *TransportSuite) TestSendLineFormats() {
	t := s.T()
	require.NoError(t, s.client.Connect(context.Background(), "127.0.0.1"))

	require.NoError(t, s.client.UpdateNumber("speed", 5))
	require.NoError(t, s.client.UpdateBool("showPath", true))
	require.NoError(t, s.client.SendCode("reset_robot()"))

	assert.Equal(t, "speed = 5.0", s.server.next(t))
	assert.Equal(t, "showPath = true", s.server.next(t))
	assert.Equal(t, "reset_robot()", s.server.next(t))

	stats := s.client.Stats()
	assert.Equal(t, 3, stats.MessagesSent)
	assert.True(t, stats.Connected)
	assert.Equal(t, "127.0.0.1", stats.Host)
}

func (s *TransportSuite) TestSendWithoutConnection() {
	err := s.client.SendLine("speed = 1.0")
	s.True(errors.Is(err, ErrNotConnected))
	s.Equal(1, s.client.Stats().SendFailures)
}

func (s *TransportSuite) TestFailedThenRetryLeavesOneConnection() {
	t := s.T()
	prompts := 0
	prompter := PrompterFunc(func(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
		prompts++
		assert.Error(t, lastErr)
		if prompts == 1 {
			assert.Equal(t, "robot.local", suggestion)
			return "robot.invalid", true, nil
		}
		assert.Equal(t, "robot.invalid", suggestion)
		return "127.0.0.1", true, nil
	})

	host, prompted, err := ConnectInteractive(context.Background(), s.client, prompter, "10.255.255.1", "robot.local")
	require.NoError(t, err)
	assert.True(t, prompted)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 2, prompts)
	assert.Equal(t, []string{"10.255.255.1", "robot.invalid", "127.0.0.1"}, s.dialer.calls)

	s.waitAccepted(1)
	time.Sleep(50 * time.Millisecond)
	accepted, open := s.server.counts()
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, open)
	assert.True(t, s.client.IsConnected())
}

func (s *TransportSuite) TestInitialSuccessSkipsPrompt() {
	prompter := PrompterFunc(func(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
		s.Fail("prompter must not be called")
		return "", false, nil
	})
	host, prompted, err := ConnectInteractive(context.Background(), s.client, prompter, "127.0.0.1", "")
	s.Require().NoError(err)
	s.False(prompted)
	s.Equal("127.0.0.1", host)
}

func (s *TransportSuite) TestCancelAbandons() {
	prompter := PrompterFunc(func(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
		s.Equal("10.255.255.1", suggestion)
		return "", false, nil
	})
	_, _, err := ConnectInteractive(context.Background(), s.client, prompter, "10.255.255.1", "")
	s.True(errors.Is(err, ErrAbandoned))
	s.False(s.client.IsConnected())
}

func (s *TransportSuite) TestReconnectReplacesSocket() {
	t := s.T()
	require.NoError(t, s.client.Connect(context.Background(), "127.0.0.1"))
	s.waitAccepted(1)
	require.NoError(t, s.client.Connect(context.Background(), "127.0.0.1"))
	s.waitAccepted(2)

	s.Eventually(func() bool {
		_, open := s.server.counts()
		return open == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.client.UpdateNumber("x", 1))
	assert.Equal(t, "x = 1.0", s.server.next(t))
}

func (s *TransportSuite) TestFailedReconnectDisconnects() {
	require.NoError(s.T(), s.client.Connect(context.Background(), "127.0.0.1"))
	s.Error(s.client.Connect(context.Background(), "robot.invalid"))
	s.False(s.client.IsConnected())
	s.Equal("127.0.0.1", s.client.Host())
}

func (s *TransportSuite) TestBrokenSocketDegrades() {
	t := s.T()
	require.NoError(t, s.client.Connect(context.Background(), "127.0.0.1"))
	s.waitAccepted(1)
	s.server.Close()

	// the peer reset may take a write or two to surface
	var err error
	for i := 0; i < 50 && err == nil; i++ {
		err = s.client.SendLine("speed = " + strconv.Itoa(i) + ".0")
		time.Sleep(10 * time.Millisecond)
	}
	require.Error(t, err)
	assert.False(t, s.client.IsConnected())
	assert.True(t, errors.Is(s.client.SendLine("speed = 1.0"), ErrNotConnected))
}

func (s *TransportSuite) TestOutboxPreservesOrder() {
	t := s.T()
	require.NoError(t, s.client.Connect(context.Background(), "127.0.0.1"))

	out := NewOutbox(s.client, 64, quietLogger())
	defer out.Close()

	r := param.NewRanged("speed", 0, 10, 5)
	r.Subscribe(out)
	r.SetPosition(0)
	r.SetPosition(param.Resolution)
	out.Enqueue("reset_robot()")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, out.Flush(ctx))

	assert.Equal(t, "speed = 0.0", s.server.next(t))
	assert.Equal(t, "speed = 10.0", s.server.next(t))
	assert.Equal(t, "reset_robot()", s.server.next(t))
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func TestClient_ConnectTimeout(t *testing.T) {
	d := dialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := NewClient(Options{ConnectTimeout: 50 * time.Millisecond, Dialer: d, Logger: quietLogger()})

	start := time.Now()
	err := c.Connect(context.Background(), "stuck.example")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Address(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, "localhost:31336", c.Address("localhost"))
	assert.Equal(t, "[::1]:31336", c.Address("::1"))
}

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// slowSender blocks each send until released.
type slowSender struct {
	release chan struct{}
	mu      sync.Mutex
	lines   []string
}

func (s *slowSender) SendLine(text string) error {
	<-s.release
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
	return nil
}

func TestOutbox_EnqueueNeverBlocks(t *testing.T) {
	sender := &slowSender{release: make(chan struct{})}
	out := NewOutbox(sender, 2, quietLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			out.Enqueue("x = " + strconv.Itoa(i) + ".0")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	assert.GreaterOrEqual(t, out.Dropped(), 7)
	close(sender.release)
	out.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "x = 0.0", sender.lines[0])
	assert.Equal(t, 10, len(sender.lines)+out.Dropped())
}

func TestOutbox_ClosedDrops(t *testing.T) {
	sender := &slowSender{release: make(chan struct{})}
	close(sender.release)
	out := NewOutbox(sender, 4, quietLogger())
	out.Close()

	assert.False(t, out.Enqueue("late = 1.0"))
	assert.Equal(t, 1, out.Dropped())
	assert.NoError(t, out.Flush(context.Background()))
}

func TestOutbox_FlushDoesNotBlockEnqueue(t *testing.T) {
	sender := &slowSender{release: make(chan struct{})}
	out := NewOutbox(sender, 2, quietLogger())
	defer out.Close()

	out.Enqueue("a = 1.0")
	out.Enqueue("b = 1.0")
	out.Enqueue("c = 1.0")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	flushed := make(chan error, 1)
	go func() { flushed <- out.Flush(ctx) }()
	time.Sleep(50 * time.Millisecond)

	enqueued := make(chan bool, 1)
	go func() { enqueued <- out.Enqueue("d = 1.0") }()
	select {
	case ok := <-enqueued:
		assert.False(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Enqueue blocked while Flush waited for room")
	}

	close(sender.release)
	select {
	case err := <-flushed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return after the sender drained")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "a = 1.0", sender.lines[0])
	assert.NotContains(t, sender.lines, "d = 1.0")
}

func TestOutbox_CloseReleasesWaitingFlush(t *testing.T) {
	sender := &slowSender{release: make(chan struct{})}
	out := NewOutbox(sender, 1, quietLogger())
	out.Enqueue("a = 1.0")
	out.Enqueue("b = 1.0")
	out.Enqueue("c = 1.0")

	flushed := make(chan error, 1)
	go func() { flushed <- out.Flush(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		out.Close()
		close(closed)
	}()
	close(sender.release)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not finish")
	}
	select {
	case err := <-flushed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return after Close")
	}
}

func TestOutbox_FlushTimesOutOnStuckSender(t *testing.T) {
	sender := &slowSender{release: make(chan struct{})}
	out := NewOutbox(sender, 1, quietLogger())
	out.Enqueue("a = 1.0")
	out.Enqueue("b = 1.0")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, out.Flush(ctx), context.DeadlineExceeded)

	close(sender.release)
	out.Shutdown()
	assert.False(t, out.Enqueue("late = 1.0"))
}
