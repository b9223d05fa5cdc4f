package transport

import (
	"context"
	"log/slog"
	"sync"

	"navpanel/internal/param"
)

// LineSender is the write side of a Client.
type LineSender interface {
	SendLine(text string) error
}

// job is one queued line, or a flush marker when done is set.
type job struct {
	line string
	done chan struct{}
}

// Outbox moves socket writes off the interaction thread: callers enqueue lines
// without blocking and a single worker drains them in order.
type Outbox struct {
	sender LineSender
	logger *slog.Logger
	queue  chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// closeMux guards queue against close; Close takes it exclusively
	closeMux  sync.RWMutex
	closed    bool
	closing   chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}

	statsMu sync.Mutex
	dropped int
}

// NewOutbox creates an outbox with room for size queued lines and starts its worker.
func NewOutbox(sender LineSender, size int, logger *slog.Logger) *Outbox {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Outbox{
		sender:  sender,
		logger:  logger,
		queue:   make(chan job, size),
		ctx:     ctx,
		cancel:  cancel,
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	o.wg.Add(1)
	go o.worker()
	return o
}

// Enqueue queues a line for sending. It never blocks: when the queue is full or the
// outbox is closed the line is dropped and logged. Returns whether it was queued.
func (o *Outbox) Enqueue(line string) bool {
	o.closeMux.RLock()
	defer o.closeMux.RUnlock()

	if o.closed {
		o.drop(line, "outbox_closed")
		return false
	}
	select {
	case o.queue <- job{line: line}:
		return true
	default:
		o.drop(line, "outbox_full")
		return false
	}
}

// Changed lets the outbox subscribe to parameters directly.
func (o *Outbox) Changed(c param.Change) {
	o.Enqueue(c.Line())
}

// Flush blocks until every line queued before the call has been handed to the sender.
// While it waits for room it holds only the shared lock, so Enqueue keeps dropping
// instead of blocking. A Close during the wait makes Flush wait for the drain.
func (o *Outbox) Flush(ctx context.Context) error {
	done := make(chan struct{})

	o.closeMux.RLock()
	if o.closed {
		o.closeMux.RUnlock()
		return o.waitStopped(ctx)
	}
	select {
	case o.queue <- job{done: done}:
		o.closeMux.RUnlock()
	case <-o.closing:
		o.closeMux.RUnlock()
		return o.waitStopped(ctx)
	case <-ctx.Done():
		o.closeMux.RUnlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Outbox) waitStopped(ctx context.Context) error {
	select {
	case <-o.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting lines, sends what is already queued and stops the worker.
func (o *Outbox) Close() {
	// wakes a Flush waiting for room so the write lock below is not starved
	o.closeOnce.Do(func() { close(o.closing) })

	o.closeMux.Lock()
	if !o.closed {
		close(o.queue)
		o.closed = true
	}
	o.closeMux.Unlock()

	o.wg.Wait()
}

// Shutdown stops the worker without sending what is still queued.
func (o *Outbox) Shutdown() {
	o.cancel()
	o.Close()
}

// Dropped counts lines discarded because the queue was full or closed.
func (o *Outbox) Dropped() int {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	return o.dropped
}

func (o *Outbox) drop(line, reason string) {
	o.statsMu.Lock()
	o.dropped++
	o.statsMu.Unlock()
	o.logger.Warn(reason,
		"line", line,
	)
}

func (o *Outbox) worker() {
	defer o.wg.Done()
	defer close(o.stopped)

	for j := range o.queue {
		if j.done != nil {
			close(j.done)
			continue
		}

		select {
		case <-o.ctx.Done():
			o.drop(j.line, "outbox_cancelled")
			continue
		default:
		}

		// failures are logged by the sender; the line is not retried
		_ = o.sender.SendLine(j.line)
	}
}
