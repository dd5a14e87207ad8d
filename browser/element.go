package browser

import (
	"encoding/json"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
)

// Element is a dom.Element over a Rod element.
type Element struct {
	el  *rod.Element
	doc *Document
}

var _ dom.Element = (*Element)(nil)

// Rod returns the underlying Rod element.
func (e *Element) Rod() *rod.Element { return e.el }

func (e *Element) evalJSON(v any, js string) bool {
	res, err := e.el.Eval(js)
	if err != nil {
		e.doc.logger.Debug("browser: element eval", "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), v); err != nil {
		e.doc.logger.Debug("browser: element decode", "error", err)
		return false
	}
	return true
}

func (e *Element) TagName() string {
	var tag string
	e.evalJSON(&tag, `() => JSON.stringify(this.tagName.toLowerCase())`)
	return tag
}

func (e *Element) ClassList() []string {
	var classes []string
	e.evalJSON(&classes, `() => JSON.stringify(Array.from(this.classList))`)
	return classes
}

func (e *Element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *Element) Attributes() map[string]string {
	attrs := map[string]string{}
	e.evalJSON(&attrs, `() => {
		const out = {};
		for (const a of this.attributes) out[a.name] = a.value;
		return JSON.stringify(out);
	}`)
	return attrs
}

func (e *Element) Parent() dom.Element {
	p, err := e.el.Parent()
	if err != nil {
		return nil
	}
	return e.doc.wrap(p)
}

func (e *Element) Children() []dom.Element {
	els, err := e.el.Elements(":scope > *")
	if err != nil {
		e.doc.logger.Debug("browser: children", "error", err)
		return nil
	}
	out := make([]dom.Element, len(els))
	for i, c := range els {
		out[i] = e.doc.wrap(c)
	}
	return out
}

func (e *Element) BoundingRect() geom.Rect {
	var r geom.Rect
	e.evalJSON(&r, `() => (`+rectJS+`)(this.getBoundingClientRect())`)
	return r
}

func (e *Element) OuterHTML() string {
	html, err := e.el.HTML()
	if err != nil {
		e.doc.logger.Debug("browser: outer html", "error", err)
		return ""
	}
	return html
}
