package resolve

import (
	"log/slog"
	"slices"
	"time"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/eventloop"
	"github.com/hazyhaar/anchorage/target"
)

// State is the lifecycle of a Poller.
type State int

const (
	Pending State = iota
	Resolved
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Schedule is the retry budget of a Poller.
type Schedule struct {
	// Frames is the length of the frame retry loop. Default: 60.
	Frames int
	// Checkpoints are independent retries measured from Start, in any
	// order. The latest one ends the budget. Default: 50ms, 200ms, 500ms, 1s.
	Checkpoints []time.Duration
}

// DefaultSchedule matches one second of frames at 60 fps.
var DefaultSchedule = Schedule{
	Frames: 60,
	Checkpoints: []time.Duration{
		50 * time.Millisecond,
		200 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
	},
}

func (s *Schedule) defaults() {
	if s.Frames <= 0 {
		s.Frames = DefaultSchedule.Frames
	}
	if len(s.Checkpoints) == 0 {
		s.Checkpoints = DefaultSchedule.Checkpoints
	}
	// The latest checkpoint ends the budget, whatever the configured order.
	if !slices.IsSorted(s.Checkpoints) {
		s.Checkpoints = slices.Sorted(slices.Values(s.Checkpoints))
	}
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Scheduler eventloop.Scheduler
	Schedule  Schedule
	// Resolver defaults to New().
	Resolver *Resolver
	// OnResolved is called once with the anchor.
	OnResolved func(*Anchor)
	// OnExhausted is called once when the budget ran out without a match.
	OnExhausted func()
	Logger      *slog.Logger
}

// Poller retries resolution while the document loads. It starts Pending and
// ends Resolved or Exhausted; in both final states every pending frame and
// timer is cancelled and the document is never queried again.
type Poller struct {
	cfg    PollerConfig
	target *target.Target
	doc    dom.Document

	state      State
	anchor     *Anchor
	framesLeft int
	attempts   int
	stopped    bool

	frame   eventloop.Cancel
	timers  []eventloop.Cancel
	started time.Time
}

// NewPoller prepares a Poller for t against doc. Nothing runs before Start.
func NewPoller(t *target.Target, doc dom.Document, cfg PollerConfig) *Poller {
	cfg.Schedule.defaults()
	if cfg.Resolver == nil {
		cfg.Resolver = New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{cfg: cfg, target: t, doc: doc, framesLeft: cfg.Schedule.Frames}
}

// Start makes the immediate attempt and, when it misses, schedules the frame
// loop and the checkpoints. It must run on the scheduler's thread.
func (p *Poller) Start() {
	if p.stopped || p.state != Pending || p.attempts > 0 {
		return
	}
	p.started = p.cfg.Scheduler.Now()

	if !Spatial(p.target) || p.target.Validate() != nil {
		p.exhaust()
		return
	}
	if p.attempt() {
		return
	}

	p.frame = p.cfg.Scheduler.RequestFrame(p.onFrame)
	last := len(p.cfg.Schedule.Checkpoints) - 1
	for i, d := range p.cfg.Schedule.Checkpoints {
		final := i == last
		p.timers = append(p.timers, p.cfg.Scheduler.AfterFunc(d, func() { p.onCheckpoint(final) }))
	}
}

// Stop cancels every pending callback. The state is left as is.
func (p *Poller) Stop() {
	p.stopped = true
	p.cancelAll()
}

// State returns the current state.
func (p *Poller) State() State { return p.state }

// Anchor returns the resolved anchor, nil unless Resolved.
func (p *Poller) Anchor() *Anchor { return p.anchor }

// Attempts returns how many times the document was queried.
func (p *Poller) Attempts() int { return p.attempts }

func (p *Poller) onFrame() {
	p.frame = nil
	if p.attempt() {
		return
	}
	p.framesLeft--
	if p.framesLeft > 0 {
		p.frame = p.cfg.Scheduler.RequestFrame(p.onFrame)
	}
}

func (p *Poller) onCheckpoint(final bool) {
	if p.attempt() {
		return
	}
	if final && p.state == Pending && !p.stopped {
		p.exhaust()
	}
}

// attempt runs the whole chain once. It reports true when the poller is no
// longer pending.
func (p *Poller) attempt() bool {
	if p.stopped || p.state != Pending {
		return true
	}
	p.attempts++
	if needsDocument(p.target) && !dom.IsReady(p.doc) {
		return false
	}
	a := p.cfg.Resolver.Resolve(p.target, p.doc)
	if a == nil {
		return false
	}

	p.state = Resolved
	p.anchor = a
	p.cancelAll()
	p.cfg.Logger.Debug("resolve: anchor resolved",
		"strategy", a.Strategy,
		"attempts", p.attempts,
		"elapsed", p.cfg.Scheduler.Now().Sub(p.started))
	if p.cfg.OnResolved != nil {
		p.cfg.OnResolved(a)
	}
	return true
}

func (p *Poller) exhaust() {
	p.state = Exhausted
	p.cancelAll()
	var mode target.Mode
	if p.target != nil {
		mode = p.target.Mode
	}
	p.cfg.Logger.Debug("resolve: anchor exhausted", "mode", mode, "attempts", p.attempts)
	if p.cfg.OnExhausted != nil {
		p.cfg.OnExhausted()
	}
}

func needsDocument(t *target.Target) bool {
	return t.Mode == target.ModeElement || t.Mode == target.ModeText
}

func (p *Poller) cancelAll() {
	if p.frame != nil {
		p.frame()
		p.frame = nil
	}
	for _, c := range p.timers {
		c()
	}
	p.timers = nil
}
