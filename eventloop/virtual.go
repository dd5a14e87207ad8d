package eventloop

import (
	"sort"
	"time"
)

// Virtual is a deterministic Scheduler driven by Advance. It is not safe for
// concurrent use.
type Virtual struct {
	// FrameInterval is the delay of RequestFrame. Default: FrameInterval.
	FrameInterval time.Duration

	now     time.Time
	seq     int
	pending []*vtask
}

type vtask struct {
	at        time.Time
	seq       int
	fn        func()
	cancelled bool
}

// NewVirtual returns a Virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{FrameInterval: FrameInterval, now: start}
}

// Now implements Scheduler.
func (v *Virtual) Now() time.Time { return v.now }

// RequestFrame implements Scheduler.
func (v *Virtual) RequestFrame(fn func()) Cancel {
	return v.schedule(v.FrameInterval, fn)
}

// AfterFunc implements Scheduler.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Cancel {
	return v.schedule(d, fn)
}

func (v *Virtual) schedule(d time.Duration, fn func()) Cancel {
	v.seq++
	t := &vtask{at: v.now.Add(d), seq: v.seq, fn: fn}
	v.pending = append(v.pending, t)
	return func() { t.cancelled = true }
}

// Advance moves the clock forward by d, running every callback that falls
// due, in time order. Callbacks scheduled while advancing run too when they
// fall inside the window.
func (v *Virtual) Advance(d time.Duration) {
	end := v.now.Add(d)
	for {
		v.compact()
		if len(v.pending) == 0 || v.pending[0].at.After(end) {
			break
		}
		t := v.pending[0]
		v.pending = v.pending[1:]
		v.now = t.at
		t.fn()
	}
	v.now = end
}

// Pending returns the number of callbacks still scheduled.
func (v *Virtual) Pending() int {
	v.compact()
	return len(v.pending)
}

// compact drops cancelled callbacks and sorts the rest by due time.
func (v *Virtual) compact() {
	live := v.pending[:0]
	for _, t := range v.pending {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	v.pending = live
	sort.Slice(v.pending, func(i, j int) bool {
		a, b := v.pending[i], v.pending[j]
		if a.at.Equal(b.at) {
			return a.seq < b.seq
		}
		return a.at.Before(b.at)
	})
}
