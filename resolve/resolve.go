// Package resolve finds the live anchor of a stored Target.
//
// Element targets go through an ordered list of strategies, strongest
// first; the first hit wins. Text targets are matched by quote and
// disambiguated by context. Region targets resolve to their rectangle
// without touching the document. Timestamp targets have no spatial anchor.
//
// Resolution against a document that is still loading is driven by Poller.
package resolve

import (
	"log/slog"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/target"
)

// Kind tells which field of an Anchor is set.
type Kind int

const (
	KindElement Kind = iota + 1
	KindRange
	KindRect
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindRange:
		return "range"
	case KindRect:
		return "rect"
	default:
		return "unknown"
	}
}

// Anchor is the live counterpart of a Target.
type Anchor struct {
	Kind     Kind
	Strategy string
	Element  dom.Element
	Range    *dom.Range
	// Rect is the region box: normalized for image and PDF targets, page
	// pixels for web targets.
	Rect       geom.Rect
	Normalized bool
	PageIndex  int
}

// ClientRect returns the anchor's current client rectangle in doc. For
// normalized regions it returns Rect unchanged; map it with a viewport
// Mapper instead.
func (a *Anchor) ClientRect(doc dom.Document) geom.Rect {
	switch a.Kind {
	case KindElement:
		return a.Element.BoundingRect()
	case KindRange:
		return a.Range.BoundingRect()
	default:
		if a.Normalized || doc == nil {
			return a.Rect
		}
		return a.Rect.Translate(doc.Scroll().Mul(-1))
	}
}

// Resolver runs the fallback chain.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for strategy errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithStrategies replaces the element strategy chain.
func WithStrategies(s []Strategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

// New creates a Resolver with the default chain.
func New(opts ...Option) *Resolver {
	r := &Resolver{strategies: DefaultStrategies}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

var defaultResolver = New()

// Resolve runs the default Resolver.
func Resolve(t *target.Target, doc dom.Document) *Anchor {
	return defaultResolver.Resolve(t, doc)
}

// Resolve returns the anchor of t in doc, or nil. Invalid targets and
// timestamp targets yield nil.
func (r *Resolver) Resolve(t *target.Target, doc dom.Document) *Anchor {
	if err := t.Validate(); err != nil {
		r.logger.Debug("resolve: invalid target ignored", "error", err)
		return nil
	}
	switch t.Mode {
	case target.ModeRegion:
		return regionAnchor(t)
	case target.ModeElement:
		if doc == nil {
			return nil
		}
		return r.resolveElement(t.Element, doc)
	case target.ModeText:
		if doc == nil {
			return nil
		}
		rng := FindQuote(t.Text, doc)
		if rng == nil {
			return nil
		}
		return &Anchor{Kind: KindRange, Strategy: StrategyText, Range: rng}
	default:
		return nil
	}
}

func (r *Resolver) resolveElement(loc *target.ElementLocator, doc dom.Document) *Anchor {
	for _, s := range r.strategies {
		el, err := s.Find(loc, doc)
		if err != nil {
			r.logger.Debug("resolve: strategy failed", "strategy", s.Name, "error", err)
			continue
		}
		if el != nil {
			return &Anchor{Kind: KindElement, Strategy: s.Name, Element: el}
		}
	}
	return nil
}

func regionAnchor(t *target.Target) *Anchor {
	reg := t.Region
	a := &Anchor{
		Kind:       KindRect,
		Strategy:   StrategyRegion,
		Rect:       reg.Box.Rect(),
		Normalized: t.Space != target.SpaceWeb,
	}
	if reg.PageIndex != nil {
		a.PageIndex = *reg.PageIndex
	}
	return a
}

// Spatial reports whether t can resolve to something on screen.
func Spatial(t *target.Target) bool {
	return t != nil && t.Mode != target.ModeTimestamp
}
