package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned by Enqueue when every slot is taken.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes the dispatcher. Zero values pick the defaults noted per field.
type Options struct {
	// QueueSize bounds pending background calls. Default 256.
	QueueSize int
	// Workers drain the background queue. Default 4.
	Workers int
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries int
	// RetryBackoff grows linearly per attempt. Default 2s.
	RetryBackoff time.Duration
	// MaxDuration caps one call including its retries. Default 12s.
	MaxDuration time.Duration
	// PerSecond limits outbound calls across the whole bot. Default 25,
	// under Telegram's global limit of 30 messages per second.
	PerSecond float64
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.PerSecond <= 0 {
		o.PerSecond = 25
	}
	return o
}

// Call is one outbound Bot API request.
type Call struct {
	// Action names the call site for logs, e.g. "send.text".
	Action string
	// Endpoint is the Bot API method, e.g. "sendPhoto".
	Endpoint string
	Run      func() error
}

type queued struct {
	ctx  context.Context
	call Call
}

// Dispatcher runs outbound Telegram calls under a shared rate limit with
// retries. Do runs a call on the caller's goroutine; Enqueue hands it to a
// worker when the outcome does not matter.
type Dispatcher struct {
	opts    Options
	limiter *rate.Limiter
	queue   chan queued

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	failed atomic.Uint64
}

// NewDispatcher starts the worker pool.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.PerSecond), int(opts.PerSecond)+1),
		queue:   make(chan queued, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for q := range d.queue {
				_ = d.run(q.ctx, q.call)
			}
		}()
	}
	return d
}

// Do runs call with the retry policy and returns its final error.
func (d *Dispatcher) Do(ctx context.Context, call Call) error {
	if call.Run == nil {
		return errors.New("telegram sender: nil call")
	}
	return d.run(ctx, call)
}

// Enqueue schedules call for a worker. It never blocks.
func (d *Dispatcher) Enqueue(ctx context.Context, call Call) error {
	if call.Run == nil {
		return errors.New("telegram sender: nil call")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- queued{ctx: ctx, call: call}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Failures counts calls that failed after all attempts.
func (d *Dispatcher) Failures() uint64 {
	return d.failed.Load()
}

// Close stops accepting work and waits for queued calls to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
