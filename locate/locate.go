// Package locate captures an ElementLocator from a live element, so the
// resolver has every strategy available when the annotation is rendered
// again.
package locate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/target"
)

// identRe matches ids and classes usable verbatim in a CSS selector.
var identRe = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// volatileAttrs are never recorded: they change on every render.
var volatileAttrs = map[string]bool{
	"style":            true,
	"class":            true,
	"data-anchor-rect": true,
}

// Describe builds a locator for el. click is the client position of the
// interaction, nil when the element was picked without a pointer.
func Describe(doc dom.Document, el dom.Element, click *geom.Point) target.ElementLocator {
	scroll := doc.Scroll()
	loc := target.ElementLocator{
		Selector:   CSSPath(el),
		XPath:      XPath(el),
		Attributes: Attributes(el),
		NthIndex:   NthOfType(el),
		TagName:    el.TagName(),
		ClassList:  el.ClassList(),
		Scroll:     &scroll,
	}
	if id, ok := el.Attr(dom.StableIDAttr); ok {
		loc.StableID = id
	}

	rect := el.BoundingRect().Translate(scroll)
	loc.ElementRect = &rect

	if click != nil {
		pos := click.Add(scroll)
		loc.Position = &pos
		rel := rect.FractionOf(pos)
		rel.X = geom.Clamp(rel.X, 0, 1)
		rel.Y = geom.Clamp(rel.Y, 0, 1)
		loc.Relative = &rel
	}
	return loc
}

// CSSPath returns a selector for el: "#id" when el has a usable id,
// otherwise a child-combinator chain from the nearest ancestor with an id
// (or from body) where each step is tag, classes and an :nth-of-type index
// when same-tag siblings exist.
func CSSPath(el dom.Element) string {
	var parts []string
	for cur := el; cur != nil; cur = cur.Parent() {
		if id, ok := cur.Attr("id"); ok && identRe.MatchString(id) {
			parts = append(parts, "#"+id)
			break
		}
		tag := cur.TagName()
		if tag == "body" || tag == "html" {
			parts = append(parts, tag)
			break
		}
		parts = append(parts, cssStep(cur))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func cssStep(el dom.Element) string {
	var b strings.Builder
	b.WriteString(el.TagName())
	for _, c := range el.ClassList() {
		if identRe.MatchString(c) {
			b.WriteString(".")
			b.WriteString(c)
		}
	}
	if idx, total := siblingIndex(el); total > 1 {
		fmt.Fprintf(&b, ":nth-of-type(%d)", idx)
	}
	return b.String()
}

// XPath returns the absolute XPath of el. Same-tag siblings get a 1-based
// index; an only child of its tag does not.
func XPath(el dom.Element) string {
	var parts []string
	for cur := el; cur != nil; cur = cur.Parent() {
		name := cur.TagName()
		if idx, total := siblingIndex(cur); total > 1 {
			parts = append(parts, fmt.Sprintf("%s[%d]", name, idx))
		} else {
			parts = append(parts, name)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// NthOfType returns the 1-based index of el among its same-tag siblings.
func NthOfType(el dom.Element) int {
	idx, _ := siblingIndex(el)
	return idx
}

func siblingIndex(el dom.Element) (idx, total int) {
	parent := el.Parent()
	if parent == nil {
		return 1, 1
	}
	tag := el.TagName()
	for _, sib := range parent.Children() {
		if sib.TagName() != tag {
			continue
		}
		total++
		if sib == el {
			idx = total
		}
	}
	if idx == 0 {
		// Elements that cannot be compared by identity.
		idx = 1
	}
	return idx, total
}

// Attributes returns the attributes worth matching on later, without the
// volatile ones.
func Attributes(el dom.Element) map[string]string {
	out := make(map[string]string)
	for k, v := range el.Attributes() {
		if volatileAttrs[k] || v == "" || strings.HasPrefix(k, "on") {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
