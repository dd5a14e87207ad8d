package browser

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
)

// Document is a dom.Document over a live Rod page. Every call evaluates in
// the page; lookups never wait for elements to appear, the Poller does the
// waiting. Evaluation failures are logged at debug and read as misses.
type Document struct {
	page   *rod.Page
	logger *slog.Logger
}

var _ dom.Document = (*Document)(nil)

// NewDocument wraps page.
func NewDocument(page *rod.Page, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{page: page.Sleeper(rod.NotFoundSleeper), logger: logger}
}

// textNodesJS defines anchorageText(), which lists the body's text nodes in
// document order, skipping script, style and noscript.
const textNodesJS = `function anchorageText() {
	const out = [];
	if (!document.body) return out;
	const w = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT, {
		acceptNode(n) {
			const p = n.parentElement;
			if (!p) return NodeFilter.FILTER_REJECT;
			const t = p.tagName;
			return (t === 'SCRIPT' || t === 'STYLE' || t === 'NOSCRIPT') ? NodeFilter.FILTER_REJECT : NodeFilter.FILTER_ACCEPT;
		}
	});
	let n;
	while ((n = w.nextNode())) out.push(n);
	return out;
}`

const rectJS = `(r) => JSON.stringify({x: r.x, y: r.y, width: r.width, height: r.height})`

func (d *Document) evalJSON(v any, js string, args ...any) error {
	res, err := d.page.Eval(js, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(res.Value.Str()), v)
}

// byJS returns the element produced by js, nil on miss or failure.
func (d *Document) byJS(js string, args ...any) dom.Element {
	el, err := d.page.ElementByJS(rod.Eval(js, args...))
	if err != nil {
		if !isNotFound(err) {
			d.logger.Debug("browser: element by js", "error", err)
		}
		return nil
	}
	return d.wrap(el)
}

func isNotFound(err error) bool {
	var nf *rod.ElementNotFoundError
	return errors.As(err, &nf)
}

func (d *Document) wrap(el *rod.Element) dom.Element {
	if el == nil {
		return nil
	}
	return &Element{el: el, doc: d}
}

func (d *Document) ReadyState() string {
	res, err := d.page.Eval(`() => document.readyState`)
	if err != nil {
		d.logger.Debug("browser: ready state", "error", err)
		return ""
	}
	return res.Value.Str()
}

func (d *Document) Body() dom.Element {
	return d.byJS(`() => document.body`)
}

func (d *Document) ElementByStableID(id string) dom.Element {
	return d.QueryAttribute(dom.StableIDAttr, id)
}

func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	ok, el, err := d.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return d.wrap(el), nil
}

func (d *Document) EvaluateXPath(expr string) (dom.Element, error) {
	ok, el, err := d.page.HasX(expr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return d.wrap(el), nil
}

func (d *Document) QueryAttribute(name, value string) dom.Element {
	return d.byJS(`(name, value) => {
		for (const el of document.querySelectorAll('*')) {
			if (el.getAttribute(name) === value) return el;
		}
		return null;
	}`, name, value)
}

func (d *Document) ElementFromPoint(p geom.Point) dom.Element {
	vp := d.Viewport()
	if p.X < 0 || p.Y < 0 || p.X >= vp.Width || p.Y >= vp.Height {
		return nil
	}
	return d.byJS(`(x, y) => document.elementFromPoint(x, y)`, p.X, p.Y)
}

func (d *Document) FirstByTag(tag string) dom.Element {
	return d.byJS(`(tag) => document.getElementsByTagName(tag)[0] || null`, tag)
}

func (d *Document) TextNodes() []dom.TextNode {
	var data []string
	err := d.evalJSON(&data, `() => { `+textNodesJS+` return JSON.stringify(anchorageText().map(n => n.data)); }`)
	if err != nil {
		d.logger.Debug("browser: text nodes", "error", err)
		return nil
	}
	out := make([]dom.TextNode, len(data))
	for i, s := range data {
		out[i] = &textNode{doc: d, index: i, data: s}
	}
	return out
}

func (d *Document) Scroll() geom.Point {
	var p geom.Point
	if err := d.evalJSON(&p, `() => JSON.stringify({x: window.scrollX, y: window.scrollY})`); err != nil {
		d.logger.Debug("browser: scroll", "error", err)
	}
	return p
}

func (d *Document) Viewport() geom.Size {
	var s geom.Size
	if err := d.evalJSON(&s, `() => JSON.stringify({width: window.innerWidth, height: window.innerHeight})`); err != nil {
		d.logger.Debug("browser: viewport", "error", err)
	}
	return s
}

// textNode addresses a text node by its index in anchorageText(). The index
// is only meaningful until the page mutates; call TextNodes again after.
type textNode struct {
	doc   *Document
	index int
	data  string
}

func (t *textNode) Data() string { return t.data }

func (t *textNode) Parent() dom.Element {
	return t.doc.byJS(`(i) => { `+textNodesJS+` const n = anchorageText()[i]; return n ? n.parentElement : null; }`, t.index)
}

func (t *textNode) RangeRect(start, end int) geom.Rect {
	var r geom.Rect
	err := t.doc.evalJSON(&r, `(i, s, e) => { `+textNodesJS+`
		const n = anchorageText()[i];
		if (!n) return JSON.stringify({});
		const cu = k => Array.from(n.data).slice(0, k).join('').length;
		const range = document.createRange();
		range.setStart(n, cu(s));
		range.setEnd(n, cu(e));
		return (`+rectJS+`)(range.getBoundingClientRect());
	}`, t.index, start, end)
	if err != nil {
		t.doc.logger.Debug("browser: range rect", "error", err)
	}
	return r
}
