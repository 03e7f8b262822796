package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering. A disabled dispatcher is nil and
// every method on it is a no-op, so call sites never branch on the flag.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events under backpressure instead of blocking the
	// session operation that emitted them. Drops are counted.
	DropIfFull bool
}

// Dispatcher decouples session-lifecycle operations from sink latency: Emit
// enqueues and returns, a single goroutine forwards to the sink.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	queue   chan Event
	quit    chan struct{}
	drained sync.WaitGroup

	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when auditing is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, cfg.BufferSize),
		quit:  make(chan struct{}),
	}

	d.drained.Add(1)
	go d.forward()

	return d
}

func (d *Dispatcher) forward() {
	defer d.drained.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			// Drain whatever was enqueued before Close; a logout event
			// emitted just before shutdown must still reach the sink.
			for {
				select {
				case event := <-d.queue:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit enqueues an event. Nil-safe.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-d.quit:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops the forwarder after draining the queue. Idempotent and
// nil-safe.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.quit)
		d.drained.Wait()
	})
}

// Dropped reports events shed under backpressure since construction.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
