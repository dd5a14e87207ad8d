// Package dom defines the content handle the resolver and the positioner
// read from. A Document is passed explicitly to every call; nothing in this
// module reaches for a global page.
//
// Two implementations ship with the module: dom/htmldoc over a parsed
// snapshot, and browser over a live Chrome tab.
package dom

import (
	"strings"

	"github.com/hazyhaar/anchorage/geom"
)

// StableIDAttr is the attribute injected into snapshots to carry the stable
// anchor identifier.
const StableIDAttr = "data-anchor-id"

// ReadyComplete is the ready state of a fully loaded document.
const ReadyComplete = "complete"

// Document is a read-only view of a live or parsed document. Lookups return
// a nil Element on miss. QuerySelector and EvaluateXPath report syntax
// errors separately from misses.
type Document interface {
	ReadyState() string
	Body() Element
	ElementByStableID(id string) Element
	QuerySelector(selector string) (Element, error)
	EvaluateXPath(expr string) (Element, error)
	// QueryAttribute returns the first element whose attribute name equals value.
	QueryAttribute(name, value string) Element
	// ElementFromPoint takes client (viewport) coordinates.
	ElementFromPoint(p geom.Point) Element
	FirstByTag(tag string) Element
	// TextNodes returns the body's text nodes in document order.
	TextNodes() []TextNode
	Scroll() geom.Point
	Viewport() geom.Size
}

// Element is one element of a Document.
type Element interface {
	// TagName is lower-case.
	TagName() string
	ClassList() []string
	Attr(name string) (string, bool)
	Attributes() map[string]string
	// Parent returns nil at the document root.
	Parent() Element
	Children() []Element
	// BoundingRect is in client coordinates, like getBoundingClientRect.
	BoundingRect() geom.Rect
	OuterHTML() string
}

// TextNode is one text node of a Document.
type TextNode interface {
	Data() string
	Parent() Element
	// RangeRect returns the client rectangle of Data()[start:end], offsets in runes.
	RangeRect(start, end int) geom.Rect
}

// Range is a run of characters inside one text node.
type Range struct {
	Node  TextNode
	Start int
	End   int
}

// BoundingRect returns the client rectangle of the range.
func (r Range) BoundingRect() geom.Rect {
	return r.Node.RangeRect(r.Start, r.End)
}

// Text returns the characters covered by the range.
func (r Range) Text() string {
	runes := []rune(r.Node.Data())
	if r.Start < 0 || r.End > len(runes) || r.Start > r.End {
		return ""
	}
	return string(runes[r.Start:r.End])
}

// Observable is implemented by documents that can notify geometry changes.
// Each registration returns a function that removes it.
type Observable interface {
	OnScroll(fn func()) (cancel func())
	OnResize(fn func()) (cancel func())
	ObserveResize(el Element, fn func()) (cancel func())
}

// IsReady reports whether doc can be queried: its ready state is complete
// and its body has at least one child element. A complete document with an
// empty body is still hydrating.
func IsReady(doc Document) bool {
	if doc == nil || doc.ReadyState() != ReadyComplete {
		return false
	}
	body := doc.Body()
	return body != nil && len(body.Children()) > 0
}

// HasClasses reports whether el carries every class in want.
func HasClasses(el Element, want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]bool)
	for _, c := range el.ClassList() {
		have[c] = true
	}
	for _, c := range want {
		if !have[c] {
			return false
		}
	}
	return true
}

// SameTag compares tag names case-insensitively.
func SameTag(el Element, tag string) bool {
	return strings.EqualFold(el.TagName(), tag)
}
