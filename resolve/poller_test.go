package resolve

import (
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/eventloop"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/target"
)

// countingDoc counts every query made against the wrapped document.
type countingDoc struct {
	dom.Document
	calls int
}

func (c *countingDoc) ReadyState() string {
	c.calls++
	return c.Document.ReadyState()
}

func newVirtual() *eventloop.Virtual {
	return eventloop.NewVirtual(time.Unix(0, 0))
}

func TestPoller_ImmediateHit(t *testing.T) {
	d := parse(t, `<body><p data-anchor-id="k">x</p></body>`)
	v := newVirtual()

	var got *Anchor
	p := NewPoller(elementTarget(target.ElementLocator{StableID: "k"}), d, PollerConfig{
		Scheduler:  v,
		OnResolved: func(a *Anchor) { got = a },
	})
	p.Start()

	if p.State() != Resolved || got == nil {
		t.Fatalf("state %s, anchor %v", p.State(), got)
	}
	if p.Attempts() != 1 {
		t.Fatalf("attempts: %d", p.Attempts())
	}
	if v.Pending() != 0 {
		t.Fatalf("pending callbacks: %d", v.Pending())
	}
}

func TestPoller_ResolvesAfterHydration(t *testing.T) {
	d := parse(t, `<html><body></body></html>`)
	d.SetReadyState("complete")
	v := newVirtual()

	p := NewPoller(elementTarget(target.ElementLocator{StableID: "late"}), d, PollerConfig{Scheduler: v})
	p.Start()
	if p.State() != Pending {
		t.Fatalf("empty body must keep the poller pending, got %s", p.State())
	}

	v.Advance(120 * time.Millisecond)
	if p.State() != Pending {
		t.Fatalf("state: %s", p.State())
	}

	if err := d.Replace(strings.NewReader(`<body><main data-anchor-id="late">ok</main></body>`)); err != nil {
		t.Fatal(err)
	}
	v.Advance(20 * time.Millisecond)

	if p.State() != Resolved {
		t.Fatalf("state after hydration: %s", p.State())
	}
	if p.Anchor().Element.TagName() != "main" {
		t.Fatalf("anchor: %s", p.Anchor().Element.TagName())
	}
	if v.Pending() != 0 {
		t.Fatalf("pending callbacks after resolve: %d", v.Pending())
	}
}

func TestPoller_ExhaustsWithoutLeaking(t *testing.T) {
	base := parse(t, `<body><div>never</div></body>`)
	d := &countingDoc{Document: base}
	v := newVirtual()

	exhausted := 0
	p := NewPoller(elementTarget(target.ElementLocator{Selector: "#missing"}), d, PollerConfig{
		Scheduler:   v,
		OnExhausted: func() { exhausted++ },
	})
	p.Start()

	v.Advance(999 * time.Millisecond)
	if p.State() != Pending {
		t.Fatalf("state before last checkpoint: %s", p.State())
	}

	v.Advance(time.Millisecond)
	if p.State() != Exhausted || exhausted != 1 {
		t.Fatalf("state %s, exhausted hook %d", p.State(), exhausted)
	}
	if v.Pending() != 0 {
		t.Fatalf("leaked callbacks: %d", v.Pending())
	}

	// 1 immediate + 60 frames + 4 checkpoints.
	if p.Attempts() != 65 {
		t.Fatalf("attempts: got %d, want 65", p.Attempts())
	}

	calls := d.calls
	v.Advance(10 * time.Second)
	if d.calls != calls {
		t.Fatalf("document queried after exhaustion: %d -> %d", calls, d.calls)
	}
}

func TestPoller_StopCancelsEverything(t *testing.T) {
	d := parse(t, `<body><div>x</div></body>`)
	v := newVirtual()

	p := NewPoller(elementTarget(target.ElementLocator{Selector: "#missing"}), d, PollerConfig{Scheduler: v})
	p.Start()
	v.Advance(30 * time.Millisecond)
	p.Stop()

	if v.Pending() != 0 {
		t.Fatalf("pending after Stop: %d", v.Pending())
	}
	attempts := p.Attempts()
	v.Advance(2 * time.Second)
	if p.Attempts() != attempts {
		t.Fatal("attempts continued after Stop")
	}
	if p.State() != Pending {
		t.Fatalf("Stop changed state to %s", p.State())
	}
}

func TestPoller_RegionNeedsNoDocument(t *testing.T) {
	v := newVirtual()
	tg := &target.Target{
		Space:  target.SpaceImage,
		Mode:   target.ModeRegion,
		Region: &target.Region{Box: target.Box{X: 0.1, Y: 0.1}, RelativeTo: target.RelativeDocument},
	}
	p := NewPoller(tg, nil, PollerConfig{Scheduler: v})
	p.Start()
	if p.State() != Resolved || p.Anchor().Rect.Origin() != geom.Pt(0.1, 0.1) {
		t.Fatalf("state %s anchor %+v", p.State(), p.Anchor())
	}
}

func TestPoller_TimestampExhaustsImmediately(t *testing.T) {
	v := newVirtual()
	tg := &target.Target{Space: target.SpaceVideo, Mode: target.ModeTimestamp, Timestamp: &target.Timestamp{Seconds: 3}}
	p := NewPoller(tg, nil, PollerConfig{Scheduler: v})
	p.Start()
	if p.State() != Exhausted || v.Pending() != 0 || p.Attempts() != 0 {
		t.Fatalf("state %s pending %d attempts %d", p.State(), v.Pending(), p.Attempts())
	}
}

var _ dom.Document = (*countingDoc)(nil)

func TestPoller_UnsortedCheckpoints(t *testing.T) {
	d := parse(t, `<body><div>never</div></body>`)
	v := newVirtual()

	checkpoints := []time.Duration{300 * time.Millisecond, 50 * time.Millisecond}
	p := NewPoller(elementTarget(target.ElementLocator{Selector: "#missing"}), d, PollerConfig{
		Scheduler: v,
		Schedule:  Schedule{Frames: 1, Checkpoints: checkpoints},
	})
	p.Start()

	v.Advance(299 * time.Millisecond)
	if p.State() != Pending {
		t.Fatalf("exhausted before the latest checkpoint: %s", p.State())
	}
	v.Advance(time.Millisecond)
	if p.State() != Exhausted {
		t.Fatalf("state after the latest checkpoint: %s", p.State())
	}
	if checkpoints[0] != 300*time.Millisecond {
		t.Fatalf("caller's schedule reordered: %v", checkpoints)
	}
}
