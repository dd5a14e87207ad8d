// Package position keeps a marker and its callout aligned with a live
// anchor. All coordinates are client (screen) pixels.
package position

import "github.com/hazyhaar/anchorage/geom"

// Placement is the side of the marker the callout sits on.
type Placement string

const (
	Below  Placement = "below"
	Right  Placement = "right"
	Left   Placement = "left"
	Above  Placement = "above"
	Center Placement = "center"
)

// Layout holds the fixed spacing constants of callout placement.
type Layout struct {
	// Spacing is the gap between marker and callout. Default: 12.
	Spacing float64 `yaml:"spacing"`
	// EdgePadding is the minimum gap to the viewport edge. Default: 8.
	EdgePadding float64 `yaml:"edge_padding"`
}

// DefaultLayout is the layout used when none is configured.
var DefaultLayout = Layout{Spacing: 12, EdgePadding: 8}

func (l *Layout) defaults() {
	if l.Spacing <= 0 {
		l.Spacing = DefaultLayout.Spacing
	}
	if l.EdgePadding <= 0 {
		l.EdgePadding = DefaultLayout.EdgePadding
	}
}

// PlaceCallout picks the callout position for a marker, trying below, right,
// left and above in that order. A side wins as soon as the room left on it,
// minus spacing and edge padding, fits the callout. Otherwise the callout is
// centered in the viewport.
func PlaceCallout(marker geom.Point, callout, viewport geom.Size, l Layout) (geom.Point, Placement) {
	l.defaults()
	gap := l.Spacing + l.EdgePadding

	if viewport.Height-marker.Y-gap >= callout.Height {
		return geom.Point{
			X: clampAxis(marker.X-callout.Width/2, callout.Width, viewport.Width, l.EdgePadding),
			Y: marker.Y + l.Spacing,
		}, Below
	}
	if viewport.Width-marker.X-gap >= callout.Width {
		return geom.Point{
			X: marker.X + l.Spacing,
			Y: clampAxis(marker.Y-callout.Height/2, callout.Height, viewport.Height, l.EdgePadding),
		}, Right
	}
	if marker.X-gap >= callout.Width {
		return geom.Point{
			X: marker.X - l.Spacing - callout.Width,
			Y: clampAxis(marker.Y-callout.Height/2, callout.Height, viewport.Height, l.EdgePadding),
		}, Left
	}
	if marker.Y-gap >= callout.Height {
		return geom.Point{
			X: clampAxis(marker.X-callout.Width/2, callout.Width, viewport.Width, l.EdgePadding),
			Y: marker.Y - l.Spacing - callout.Height,
		}, Above
	}
	return geom.Point{
		X: clampAxis((viewport.Width-callout.Width)/2, callout.Width, viewport.Width, l.EdgePadding),
		Y: clampAxis((viewport.Height-callout.Height)/2, callout.Height, viewport.Height, l.EdgePadding),
	}, Center
}

// clampAxis keeps [v, v+size] inside [pad, extent-pad]. When it cannot fit,
// the leading edge is pinned to pad.
func clampAxis(v, size, extent, pad float64) float64 {
	hi := extent - pad - size
	if hi < pad {
		return pad
	}
	return geom.Clamp(v, pad, hi)
}
