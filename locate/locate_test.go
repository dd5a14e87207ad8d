package locate

import (
	"testing"

	"github.com/hazyhaar/anchorage/dom/htmldoc"
	"github.com/hazyhaar/anchorage/geom"
)

const page = `<html><body>
<div class="wrap">
  <ul>
    <li>one</li>
    <li class="hot item" data-sku="42" style="color:red" onclick="x()">two</li>
  </ul>
</div>
<section id="notes"><p>only</p></section>
</body></html>`

func testDoc(t *testing.T) *htmldoc.Document {
	t.Helper()
	d, err := htmldoc.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return d
}

func TestCSSPath(t *testing.T) {
	d := testDoc(t)
	li := d.Find("li.hot")

	sel := CSSPath(li)
	want := "body > div.wrap > ul > li.hot.item:nth-of-type(2)"
	if sel != want {
		t.Fatalf("CSSPath: got %q, want %q", sel, want)
	}
	if d.Find(sel) != li {
		t.Fatal("CSSPath does not select the element back")
	}

	p := d.Find("#notes p")
	if got := CSSPath(p); got != "#notes > p" {
		t.Fatalf("id anchor: got %q", got)
	}
}

func TestXPath(t *testing.T) {
	d := testDoc(t)
	li := d.Find("li.hot")

	xp := XPath(li)
	if xp != "/html/body/div/ul/li[2]" {
		t.Fatalf("XPath: got %q", xp)
	}
	el, err := d.EvaluateXPath(xp)
	if err != nil || el != li {
		t.Fatalf("XPath does not select the element back: %v %v", el, err)
	}
}

func TestAttributes_DropsVolatile(t *testing.T) {
	d := testDoc(t)
	attrs := Attributes(d.Find("li.hot"))
	if attrs["data-sku"] != "42" {
		t.Fatalf("data-sku missing: %v", attrs)
	}
	for _, k := range []string{"style", "class", "onclick"} {
		if _, ok := attrs[k]; ok {
			t.Errorf("%s should be dropped", k)
		}
	}
}

func TestDescribe(t *testing.T) {
	d := testDoc(t)
	li := d.Find("li.hot")
	d.SetRect(li, geom.Rect{X: 100, Y: 500, Width: 200, Height: 50})
	d.SetScroll(geom.Pt(0, 400))

	click := geom.Pt(150, 125) // page (150, 525)
	loc := Describe(d, li, &click)

	if loc.TagName != "li" || loc.NthIndex != 2 {
		t.Fatalf("tag/nth: %+v", loc)
	}
	if loc.Position == nil || *loc.Position != geom.Pt(150, 525) {
		t.Fatalf("position: %+v", loc.Position)
	}
	if loc.ElementRect == nil || loc.ElementRect.Y != 500 {
		t.Fatalf("element rect: %+v", loc.ElementRect)
	}
	if loc.Relative == nil || loc.Relative.X != 0.25 || loc.Relative.Y != 0.5 {
		t.Fatalf("relative: %+v", loc.Relative)
	}
	if loc.StableID != "" {
		t.Fatalf("unexpected stable id %q", loc.StableID)
	}
}
