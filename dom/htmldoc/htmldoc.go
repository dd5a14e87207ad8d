// Package htmldoc implements dom.Document over a parsed HTML snapshot.
//
// Layout is not computed. Element rectangles, in page coordinates, come from
// a data-anchor-rect="x,y,width,height" attribute recorded when the snapshot
// was captured, or are assigned later with SetRect. Elements without a
// rectangle report an empty one. A Document is not safe
// for concurrent use; drive it from one event loop.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
)

// RectAttr carries an element's page rectangle in a captured snapshot.
const RectAttr = "data-anchor-rect"

// DefaultViewport is the viewport size of a freshly parsed document.
var DefaultViewport = geom.Size{Width: 1280, Height: 720}

// Document is a parsed HTML document with assignable geometry.
type Document struct {
	root     *html.Node
	ready    string
	scroll   geom.Point
	viewport geom.Size
	rects    map[*html.Node]geom.Rect

	nextID    int
	onScroll  map[int]func()
	onResize  map[int]func()
	onElement map[*html.Node]map[int]func()
}

// Parse reads an HTML document. The result is complete and unscrolled.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return FromNode(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FromNode wraps an already parsed tree.
func FromNode(root *html.Node) *Document {
	return &Document{
		root:      root,
		ready:     dom.ReadyComplete,
		viewport:  DefaultViewport,
		rects:     capturedRects(root),
		onScroll:  make(map[int]func()),
		onResize:  make(map[int]func()),
		onElement: make(map[*html.Node]map[int]func()),
	}
}

// capturedRects collects the RectAttr rectangles of the tree. Malformed
// values are ignored.
func capturedRects(root *html.Node) map[*html.Node]geom.Rect {
	rects := make(map[*html.Node]geom.Rect)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key != RectAttr {
					continue
				}
				if r, ok := ParseRect(a.Val); ok {
					rects[n] = r
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return rects
}

// ParseRect parses "x,y,width,height". Negative sizes are rejected.
func ParseRect(s string) (geom.Rect, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return geom.Rect{}, false
		}
		v[i] = f
	}
	if v[2] < 0 || v[3] < 0 {
		return geom.Rect{}, false
	}
	return geom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Replace swaps the whole tree, as a navigation or a full re-render would.
// Assigned rectangles and element observers are dropped; captured ones are
// read from the new tree.
func (d *Document) Replace(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("htmldoc: replace: %w", err)
	}
	d.root = root
	d.rects = capturedRects(root)
	d.onElement = make(map[*html.Node]map[int]func())
	return nil
}

// Mutate runs fn against the tree in place.
func (d *Document) Mutate(fn func(root *html.Node)) {
	fn(d.root)
}

// SetReadyState sets the value returned by ReadyState.
func (d *Document) SetReadyState(s string) { d.ready = s }

// SetScroll moves the document and notifies scroll listeners.
func (d *Document) SetScroll(p geom.Point) {
	if p == d.scroll {
		return
	}
	d.scroll = p
	fire(d.onScroll)
}

// SetViewport resizes the window and notifies resize listeners.
func (d *Document) SetViewport(s geom.Size) {
	if s == d.viewport {
		return
	}
	d.viewport = s
	fire(d.onResize)
}

// SetRect assigns el its page rectangle and notifies its resize observers
// when the size changed.
func (d *Document) SetRect(el dom.Element, r geom.Rect) {
	n := nodeOf(el)
	if n == nil {
		return
	}
	prev, had := d.rects[n]
	d.rects[n] = r
	if !had || prev.Size() != r.Size() {
		fire(d.onElement[n])
	}
}

// Find returns the first element matching a CSS selector, nil on miss or
// syntax error.
func (d *Document) Find(selector string) dom.Element {
	el, _ := d.QuerySelector(selector)
	return el
}

func fire(fns map[int]func()) {
	for _, fn := range fns {
		fn()
	}
}

// ReadyState implements dom.Document.
func (d *Document) ReadyState() string { return d.ready }

// Scroll implements dom.Document.
func (d *Document) Scroll() geom.Point { return d.scroll }

// Viewport implements dom.Document.
func (d *Document) Viewport() geom.Size { return d.viewport }

// Body implements dom.Document.
func (d *Document) Body() dom.Element {
	var body *html.Node
	walk(d.root, func(n *html.Node) step {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return stop
		}
		return descend
	})
	return d.wrap(body)
}

// ElementByStableID implements dom.Document.
func (d *Document) ElementByStableID(id string) dom.Element {
	if id == "" {
		return nil
	}
	return d.QueryAttribute(dom.StableIDAttr, id)
}

// QuerySelector implements dom.Document with cascadia.
func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: selector %q: %w", selector, err)
	}
	return d.wrap(sel.MatchFirst(d.root)), nil
}

// EvaluateXPath implements dom.Document with htmlquery. Expressions that do
// not select an element are a miss.
func (d *Document) EvaluateXPath(expr string) (el dom.Element, err error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: xpath %q: %w", expr, err)
	}
	defer func() {
		if r := recover(); r != nil {
			el, err = nil, fmt.Errorf("htmldoc: xpath %q: %v", expr, r)
		}
	}()
	n := htmlquery.QuerySelector(d.root, compiled)
	if n == nil || n.Type != html.ElementNode {
		return nil, nil
	}
	return d.wrap(n), nil
}

// QueryAttribute implements dom.Document.
func (d *Document) QueryAttribute(name, value string) dom.Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) step {
		if n.Type != html.ElementNode {
			return descend
		}
		if v, ok := attr(n, name); ok && v == value {
			found = n
			return stop
		}
		return descend
	})
	return d.wrap(found)
}

// ElementFromPoint implements dom.Document: the deepest, last painted
// element whose rectangle contains p. Points outside the viewport miss.
func (d *Document) ElementFromPoint(p geom.Point) dom.Element {
	vp := geom.Rect{Width: d.viewport.Width, Height: d.viewport.Height}
	if !vp.Contains(p) {
		return nil
	}
	page := p.Add(d.scroll)
	var hit *html.Node
	walk(d.root, func(n *html.Node) step {
		if n.Type != html.ElementNode {
			return descend
		}
		if r, ok := d.rects[n]; ok && r.Contains(page) {
			hit = n
		}
		return descend
	})
	return d.wrap(hit)
}

// FirstByTag implements dom.Document.
func (d *Document) FirstByTag(tag string) dom.Element {
	tag = strings.ToLower(tag)
	var found *html.Node
	walk(d.root, func(n *html.Node) step {
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return stop
		}
		return descend
	})
	return d.wrap(found)
}

// TextNodes implements dom.Document. Script and style contents are skipped.
func (d *Document) TextNodes() []dom.TextNode {
	body := nodeOf(d.Body())
	if body == nil {
		return nil
	}
	var out []dom.TextNode
	walk(body, func(n *html.Node) step {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Noscript) {
			return skip
		}
		if n.Type == html.TextNode && n.Data != "" {
			out = append(out, textNode{n: n, d: d})
		}
		return descend
	})
	return out
}

// OnScroll implements dom.Observable.
func (d *Document) OnScroll(fn func()) func() {
	return d.register(d.onScroll, fn)
}

// OnResize implements dom.Observable.
func (d *Document) OnResize(fn func()) func() {
	return d.register(d.onResize, fn)
}

// ObserveResize implements dom.Observable.
func (d *Document) ObserveResize(el dom.Element, fn func()) func() {
	n := nodeOf(el)
	if n == nil {
		return func() {}
	}
	fns, ok := d.onElement[n]
	if !ok {
		fns = make(map[int]func())
		d.onElement[n] = fns
	}
	return d.register(fns, fn)
}

// Listeners returns the number of registered callbacks, for leak checks.
func (d *Document) Listeners() int {
	total := len(d.onScroll) + len(d.onResize)
	for _, fns := range d.onElement {
		total += len(fns)
	}
	return total
}

func (d *Document) register(fns map[int]func(), fn func()) func() {
	d.nextID++
	id := d.nextID
	fns[id] = fn
	return func() { delete(fns, id) }
}

func (d *Document) wrap(n *html.Node) dom.Element {
	if n == nil {
		return nil
	}
	return Element{n: n, d: d}
}

type step int

const (
	descend step = iota
	skip
	stop
)

// walk visits n and its descendants in document order. It reports false
// once a visit returned stop.
func walk(n *html.Node, visit func(*html.Node) step) bool {
	if n == nil {
		return true
	}
	switch visit(n) {
	case stop:
		return false
	case skip:
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func nodeOf(el dom.Element) *html.Node {
	e, ok := el.(Element)
	if !ok {
		return nil
	}
	return e.n
}

// Element is a dom.Element backed by an html.Node. Two Elements are equal
// when they wrap the same node.
type Element struct {
	n *html.Node
	d *Document
}

// Node returns the underlying html.Node.
func (e Element) Node() *html.Node { return e.n }

// TagName implements dom.Element.
func (e Element) TagName() string { return strings.ToLower(e.n.Data) }

// ClassList implements dom.Element.
func (e Element) ClassList() []string {
	v, _ := attr(e.n, "class")
	return strings.Fields(v)
}

// Attr implements dom.Element.
func (e Element) Attr(name string) (string, bool) { return attr(e.n, name) }

// Attributes implements dom.Element.
func (e Element) Attributes() map[string]string {
	out := make(map[string]string, len(e.n.Attr))
	for _, a := range e.n.Attr {
		if a.Namespace == "" {
			out[a.Key] = a.Val
		}
	}
	return out
}

// Parent implements dom.Element.
func (e Element) Parent() dom.Element {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.d.wrap(p)
}

// Children implements dom.Element.
func (e Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.d.wrap(c))
		}
	}
	return out
}

// BoundingRect implements dom.Element.
func (e Element) BoundingRect() geom.Rect {
	r, ok := e.d.rects[e.n]
	if !ok {
		return geom.Rect{}
	}
	return r.Translate(e.d.scroll.Mul(-1))
}

// OuterHTML implements dom.Element.
func (e Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.n); err != nil {
		return ""
	}
	return buf.String()
}

type textNode struct {
	n *html.Node
	d *Document
}

func (t textNode) Data() string { return t.n.Data }

func (t textNode) Parent() dom.Element {
	if t.n.Parent == nil || t.n.Parent.Type != html.ElementNode {
		return nil
	}
	return t.d.wrap(t.n.Parent)
}

// RangeRect slices the parent's rectangle horizontally in proportion to the
// rune offsets. Without a parent rectangle the result is empty.
func (t textNode) RangeRect(start, end int) geom.Rect {
	p := t.Parent()
	if p == nil {
		return geom.Rect{}
	}
	if _, ok := t.d.rects[t.n.Parent]; !ok {
		return geom.Rect{}
	}
	r := p.BoundingRect()
	total := len([]rune(t.n.Data))
	if total == 0 {
		return geom.Rect{X: r.X, Y: r.Y, Height: r.Height}
	}
	cw := r.Width / float64(total)
	return geom.Rect{
		X:      r.X + float64(start)*cw,
		Y:      r.Y,
		Width:  float64(end-start) * cw,
		Height: r.Height,
	}
}
