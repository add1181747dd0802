package schedule

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/bandswap/internal/core"
)

// DefaultFPS is the default frame rate of a Loop.
const DefaultFPS = 60

// ErrLoopRunning is returned by Run when the loop is already running.
var ErrLoopRunning = errors.New("loop already running")

// Loop is a single-goroutine event loop. Frame callbacks run on a fixed
// ticker; posted functions run between frames. Everything a Loop executes
// runs on the goroutine that called Run, one callback at a time.
type Loop struct {
	interval time.Duration

	posts chan func()

	mu      sync.Mutex
	nextID  core.FrameID
	pending []frameRequest
	onTick  []func()

	panicHandler PanicHandler

	running atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

// PanicHandler receives a value recovered from a panicking callback and the
// stack at the point of the panic.
type PanicHandler func(value any, stack []byte)

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFPS sets the frame rate.
func WithFPS(fps int) LoopOption {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithPostBuffer sets the capacity of the posted-event queue.
func WithPostBuffer(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.posts = make(chan func(), n)
		}
	}
}

// WithPanicHandler recovers panics from posted functions, frame callbacks
// and tick hooks and reports them to h. The loop keeps running. Without a
// handler a panic propagates out of Run.
func WithPanicHandler(h PanicHandler) LoopOption {
	return func(l *Loop) {
		l.panicHandler = h
	}
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		interval: time.Second / DefaultFPS,
		posts:    make(chan func(), 256),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RequestFrame schedules fn to run on the next tick.
func (l *Loop) RequestFrame(fn func()) core.FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.pending = append(l.pending, frameRequest{id: l.nextID, fn: fn})
	return l.nextID
}

// CancelFrame removes a pending frame request.
func (l *Loop) CancelFrame(id core.FrameID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, req := range l.pending {
		if req.id == id {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return
		}
	}
}

// OnTick registers fn to run at the end of every tick, after frame callbacks.
// Hosts use it to flush drawing.
func (l *Loop) OnTick(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onTick = append(l.onTick, fn)
}

// Post queues fn to run on the loop goroutine. It blocks while the queue is
// full and returns false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}

	select {
	case l.posts <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Run executes the loop until ctx is cancelled or Stop is called.
// Returns nil on Stop and the context error on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case fn := <-l.posts:
			l.call(fn)
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.stop)
	})
}

// Tick runs one frame synchronously. Run calls it on every ticker fire;
// headless callers may call it directly when the loop is not running.
func (l *Loop) Tick() {
	l.tick()
}

func (l *Loop) tick() {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	hooks := make([]func(), len(l.onTick))
	copy(hooks, l.onTick)
	l.mu.Unlock()

	for _, req := range batch {
		l.call(req.fn)
	}
	for _, fn := range hooks {
		l.call(fn)
	}
}

// call runs fn, handing any panic to the panic handler.
func (l *Loop) call(fn func()) {
	if l.panicHandler == nil {
		fn()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				l.panicHandler(r, stack)
			}()
		}
	}()
	fn()
}
