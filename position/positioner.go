package position

import (
	"log/slog"
	"math"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/resolve"
	"github.com/hazyhaar/anchorage/viewport"
)

// Update is one published position.
type Update struct {
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Placement Placement  `json:"placement"`
	Callout   geom.Point `json:"callout"`
}

// Marker returns the marker position.
func (u Update) Marker() geom.Point { return geom.Point{X: u.X, Y: u.Y} }

// Source returns the anchor's current client rectangle, false when the
// anchor is gone.
type Source func() (geom.Rect, bool)

// Config configures a Positioner.
type Config struct {
	Anchor Source
	// Relative is the marker position as a fraction of the anchor rectangle.
	Relative geom.Point
	Callout  geom.Size
	Viewport func() geom.Size
	// Offset is added to the marker, e.g. the position of the hosting frame.
	Offset geom.Point
	Layout Layout
	// Threshold is the movement in pixels below which nothing is published.
	// Default: 1.
	Threshold float64
	OnUpdate  func(Update)
	Logger    *slog.Logger
}

// Positioner recomputes the marker and callout on every trigger and
// publishes only meaningful changes.
type Positioner struct {
	cfg     Config
	last    *Update
	cancels []func()
	closed  bool
}

// New creates a Positioner. Call Recompute or Attach to start publishing.
func New(cfg Config) *Positioner {
	cfg.Layout.defaults()
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Positioner{cfg: cfg}
}

// Recompute derives the current position from live geometry. It is
// idempotent and reports whether an update was published.
func (p *Positioner) Recompute() bool {
	if p.closed || p.cfg.Anchor == nil {
		return false
	}
	rect, ok := p.cfg.Anchor()
	if !ok {
		return false
	}
	var vp geom.Size
	if p.cfg.Viewport != nil {
		vp = p.cfg.Viewport()
	}

	marker := rect.At(p.cfg.Relative).Add(p.cfg.Offset)
	callout, placement := PlaceCallout(marker, p.cfg.Callout, vp, p.cfg.Layout)
	u := Update{X: marker.X, Y: marker.Y, Placement: placement, Callout: callout}

	if p.last != nil && !p.changed(*p.last, u) {
		return false
	}
	p.last = &u
	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(u)
	}
	return true
}

func (p *Positioner) changed(prev, next Update) bool {
	if prev.Placement != next.Placement {
		return true
	}
	t := p.cfg.Threshold
	return math.Abs(prev.X-next.X) > t || math.Abs(prev.Y-next.Y) > t ||
		math.Abs(prev.Callout.X-next.Callout.X) > t || math.Abs(prev.Callout.Y-next.Callout.Y) > t
}

// Last returns the last published update.
func (p *Positioner) Last() (Update, bool) {
	if p.last == nil {
		return Update{}, false
	}
	return *p.last, true
}

// Attach wires document scroll, window resize and the resize of every
// watched element (anchor, container) to Recompute, then recomputes once.
func (p *Positioner) Attach(obs dom.Observable, watch ...dom.Element) {
	if p.closed {
		return
	}
	recompute := func() { p.Recompute() }
	p.cancels = append(p.cancels, obs.OnScroll(recompute), obs.OnResize(recompute))
	for _, el := range watch {
		if el != nil {
			p.cancels = append(p.cancels, obs.ObserveResize(el, recompute))
		}
	}
	p.Recompute()
}

// Close disconnects every observer. Later triggers are ignored.
func (p *Positioner) Close() {
	p.closed = true
	for _, c := range p.cancels {
		c()
	}
	p.cancels = nil
}

// AnchorSource tracks a resolved anchor in doc.
func AnchorSource(a *resolve.Anchor, doc dom.Document) Source {
	return func() (geom.Rect, bool) {
		if a == nil {
			return geom.Rect{}, false
		}
		return a.ClientRect(doc), true
	}
}

// RegionSource tracks a normalized region through a viewport mapper.
func RegionSource(m *viewport.Mapper, box geom.Rect) Source {
	return func() (geom.Rect, bool) {
		if m.State().Validate() != nil {
			return geom.Rect{}, false
		}
		return m.NormalizedToScreen(box), true
	}
}

// DocumentViewport reads the viewport size from doc.
func DocumentViewport(doc dom.Document) func() geom.Size {
	return doc.Viewport
}

// MapperViewport reads the viewport size from a mapper.
func MapperViewport(m *viewport.Mapper) func() geom.Size {
	return func() geom.Size { return m.State().Viewport }
}
