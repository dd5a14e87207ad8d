// Package viewport converts between the three coordinate spaces of an open
// file view:
//
//   - normalized: fractions in [0,1] of the content's design size
//   - design: the content's own pixels, before zoom and scroll
//   - screen: on-screen pixels, after zoom and scroll
//
// A Mapper holds one State snapshot. The hosting surface mutates it with
// UpdateViewport on every scroll, resize or zoom; every transform is a pure
// function of the current State.
package viewport

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/anchorage/geom"
)

// ErrInvalidState is returned by State.Validate when a transform would divide
// by zero.
var ErrInvalidState = errors.New("viewport: invalid state")

// State is the viewport snapshot of one file view.
type State struct {
	Zoom     float64    `json:"zoom"`
	Scroll   geom.Point `json:"scroll"`
	Viewport geom.Size  `json:"viewport"`
	Design   geom.Size  `json:"design"`
}

// Validate checks the invariants required before normalizing: a positive
// design size and a positive zoom.
func (s State) Validate() error {
	if !s.Design.Positive() {
		return fmt.Errorf("%w: design size %vx%v", ErrInvalidState, s.Design.Width, s.Design.Height)
	}
	if s.Zoom <= 0 {
		return fmt.Errorf("%w: zoom %v", ErrInvalidState, s.Zoom)
	}
	return nil
}

// Partial carries the fields of an update. Nil fields are left untouched.
type Partial struct {
	Zoom     *float64    `json:"zoom,omitempty"`
	Scroll   *geom.Point `json:"scroll,omitempty"`
	Viewport *geom.Size  `json:"viewport,omitempty"`
	Design   *geom.Size  `json:"design,omitempty"`
}

// Mapper owns the State of one open file view.
type Mapper struct {
	state State
}

// New returns a Mapper seeded with s.
func New(s State) *Mapper {
	return &Mapper{state: s}
}

// State returns a copy of the current snapshot.
func (m *Mapper) State() State {
	return m.state
}

// UpdateViewport merges p into the current state in place.
func (m *Mapper) UpdateViewport(p Partial) {
	if p.Zoom != nil {
		m.state.Zoom = *p.Zoom
	}
	if p.Scroll != nil {
		m.state.Scroll = *p.Scroll
	}
	if p.Viewport != nil {
		m.state.Viewport = *p.Viewport
	}
	if p.Design != nil {
		m.state.Design = *p.Design
	}
}

// Scale returns the design→screen scale factor.
func (m *Mapper) Scale() float64 {
	return m.state.Zoom
}

// NormalizedToDesign scales a normalized rectangle by the design size,
// independently on each axis.
func (m *Mapper) NormalizedToDesign(r geom.Rect) geom.Rect {
	d := m.state.Design
	return geom.Rect{
		X:      r.X * d.Width,
		Y:      r.Y * d.Height,
		Width:  r.Width * d.Width,
		Height: r.Height * d.Height,
	}
}

// DesignToNormalized is the inverse of NormalizedToDesign. The caller must
// have validated the design size.
func (m *Mapper) DesignToNormalized(r geom.Rect) geom.Rect {
	d := m.state.Design
	return geom.Rect{
		X:      r.X / d.Width,
		Y:      r.Y / d.Height,
		Width:  r.Width / d.Width,
		Height: r.Height / d.Height,
	}
}

// DesignToScreen applies zoom then scroll: screen = design*zoom - scroll.
func (m *Mapper) DesignToScreen(r geom.Rect) geom.Rect {
	z := m.state.Zoom
	return geom.Rect{
		X:      r.X*z - m.state.Scroll.X,
		Y:      r.Y*z - m.state.Scroll.Y,
		Width:  r.Width * z,
		Height: r.Height * z,
	}
}

// DesignPointToScreen is DesignToScreen for a single point.
func (m *Mapper) DesignPointToScreen(p geom.Point) geom.Point {
	return m.DesignToScreen(geom.Rect{X: p.X, Y: p.Y}).Origin()
}

// ScreenToDesign undoes scroll then zoom: design = (screen + scroll) / zoom.
func (m *Mapper) ScreenToDesign(p geom.Point) geom.Point {
	z := m.state.Zoom
	return geom.Point{
		X: (p.X + m.state.Scroll.X) / z,
		Y: (p.Y + m.state.Scroll.Y) / z,
	}
}

// ScreenToNormalized maps a screen point to normalized space.
func (m *Mapper) ScreenToNormalized(p geom.Point) geom.Point {
	d := m.ScreenToDesign(p)
	return geom.Point{
		X: d.X / m.state.Design.Width,
		Y: d.Y / m.state.Design.Height,
	}
}

// NormalizedToScreen chains NormalizedToDesign and DesignToScreen.
func (m *Mapper) NormalizedToScreen(r geom.Rect) geom.Rect {
	return m.DesignToScreen(m.NormalizedToDesign(r))
}
