// Package eventloop runs frame and timer callbacks on a single goroutine.
//
// Resolvers and positioners are scheduled through the Scheduler interface.
// Loop is the production implementation; Virtual is a manual clock for
// tests that advances time explicitly instead of waiting on real frames.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FrameInterval is the frame period at 60 frames per second.
const FrameInterval = time.Second / 60

// Cancel removes a pending callback. Calling it more than once, or after the
// callback ran, is a no-op.
type Cancel func()

// Scheduler schedules callbacks on one logical thread.
type Scheduler interface {
	Now() time.Time
	// RequestFrame runs fn on the next frame.
	RequestFrame(fn func()) Cancel
	// AfterFunc runs fn once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Cancel
}

// Config controls a Loop.
type Config struct {
	// FrameInterval is the frame period. Default: FrameInterval.
	FrameInterval time.Duration
	// QueueSize bounds the task channel. Default: 256.
	QueueSize int
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.FrameInterval <= 0 {
		c.FrameInterval = FrameInterval
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type task struct {
	fn        func()
	cancelled atomic.Bool
}

func (t *task) run() {
	if !t.cancelled.Load() {
		t.fn()
	}
}

// Loop is a real-time Scheduler. Every callback runs on the goroutine
// executing Run.
type Loop struct {
	cfg   Config
	tasks chan func()
	done  chan struct{}

	mu     sync.Mutex
	frames []*task
}

// New creates a Loop. Call Run to start it.
func New(cfg Config) *Loop {
	cfg.defaults()
	return &Loop{
		cfg:   cfg,
		tasks: make(chan func(), cfg.QueueSize),
		done:  make(chan struct{}),
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time { return time.Now() }

// Post queues fn to run on the loop goroutine. Posts after Run returned are
// dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// RequestFrame implements Scheduler.
func (l *Loop) RequestFrame(fn func()) Cancel {
	t := &task{fn: fn}
	l.mu.Lock()
	l.frames = append(l.frames, t)
	l.mu.Unlock()
	return func() { t.cancelled.Store(true) }
}

// AfterFunc implements Scheduler.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Cancel {
	t := &task{fn: fn}
	timer := time.AfterFunc(d, func() { l.Post(t.run) })
	return func() {
		t.cancelled.Store(true)
		timer.Stop()
	}
}

// Run executes queued tasks and frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.cfg.FrameInterval)
	defer ticker.Stop()

	l.cfg.Logger.Debug("eventloop: started", "frame_interval", l.cfg.FrameInterval)
	for {
		select {
		case <-ctx.Done():
			l.cfg.Logger.Debug("eventloop: stopped")
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case <-ticker.C:
			l.runFrame()
		}
	}
}

// runFrame runs the callbacks requested before this frame. Callbacks
// requested while it runs wait for the next one.
func (l *Loop) runFrame() {
	l.mu.Lock()
	batch := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, t := range batch {
		t.run()
	}
}
