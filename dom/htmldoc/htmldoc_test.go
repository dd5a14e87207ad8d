package htmldoc

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/geom"
)

const page = `<!DOCTYPE html>
<html><head><style>p{}</style></head>
<body>
  <main id="content" class="layout">
    <p class="lead intro" data-anchor-id="a1">First paragraph.</p>
    <p>Second paragraph.</p>
    <script>var p = "First paragraph.";</script>
  </main>
</body></html>`

func testDoc(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(page)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return d
}

func TestQuerySelector(t *testing.T) {
	d := testDoc(t)
	el, err := d.QuerySelector("main > p.lead")
	if err != nil {
		t.Fatalf("QuerySelector: %v", err)
	}
	if el == nil || el.TagName() != "p" {
		t.Fatalf("got %v, want <p>", el)
	}
	if cl := el.ClassList(); len(cl) != 2 || cl[0] != "lead" {
		t.Fatalf("ClassList: %v", cl)
	}

	if _, err := d.QuerySelector("p[[["); err == nil {
		t.Fatal("expected syntax error")
	}
	miss, err := d.QuerySelector("article")
	if err != nil || miss != nil {
		t.Fatalf("miss: got %v, %v", miss, err)
	}
}

func TestEvaluateXPath(t *testing.T) {
	d := testDoc(t)
	el, err := d.EvaluateXPath("/html/body/main/p[2]")
	if err != nil {
		t.Fatalf("EvaluateXPath: %v", err)
	}
	if el == nil || !strings.Contains(el.OuterHTML(), "Second") {
		t.Fatalf("got %v, want second paragraph", el)
	}

	if _, err := d.EvaluateXPath("//p[@"); err == nil {
		t.Fatal("expected syntax error")
	}
	text, err := d.EvaluateXPath("/html/body/main/p[1]/text()")
	if err != nil || text != nil {
		t.Fatalf("text node should miss: %v, %v", text, err)
	}
}

func TestStableIDAndAttributes(t *testing.T) {
	d := testDoc(t)
	el := d.ElementByStableID("a1")
	if el == nil {
		t.Fatal("stable id miss")
	}
	if el != d.Find("p.lead") {
		t.Fatal("stable id and selector disagree")
	}
	if d.ElementByStableID("") != nil {
		t.Fatal("empty id must miss")
	}
	if got := d.QueryAttribute("id", "content"); got == nil || got.TagName() != "main" {
		t.Fatalf("QueryAttribute: %v", got)
	}
}

func TestReadiness(t *testing.T) {
	d, err := ParseString(`<html><body></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if dom.IsReady(d) {
		t.Fatal("empty body must not be ready")
	}

	if err := d.Replace(strings.NewReader(page)); err != nil {
		t.Fatal(err)
	}
	d.SetReadyState("interactive")
	if dom.IsReady(d) {
		t.Fatal("interactive document must not be ready")
	}
	d.SetReadyState(dom.ReadyComplete)
	if !dom.IsReady(d) {
		t.Fatal("complete document with content must be ready")
	}
}

func TestElementFromPoint(t *testing.T) {
	d := testDoc(t)
	main := d.Find("main")
	lead := d.Find("p.lead")
	d.SetRect(main, geom.Rect{X: 0, Y: 0, Width: 800, Height: 2000})
	d.SetRect(lead, geom.Rect{X: 20, Y: 1000, Width: 400, Height: 40})

	d.SetScroll(geom.Pt(0, 900))
	if got := d.ElementFromPoint(geom.Pt(50, 110)); got != lead {
		t.Fatalf("deepest hit: got %v, want lead", got)
	}
	if got := d.ElementFromPoint(geom.Pt(600, 10)); got != main {
		t.Fatalf("container hit: got %v, want main", got)
	}
	if got := d.ElementFromPoint(geom.Pt(50, 5000)); got != nil {
		t.Fatalf("outside viewport: got %v", got)
	}

	r := lead.BoundingRect()
	if r.Y != 100 || r.X != 20 {
		t.Fatalf("client rect: %+v", r)
	}
}

func TestTextNodes_SkipsScript(t *testing.T) {
	d := testDoc(t)
	count := 0
	for _, tn := range d.TextNodes() {
		if strings.Contains(tn.Data(), "First paragraph.") {
			count++
			if tn.Parent().TagName() != "p" {
				t.Fatalf("parent: %s", tn.Parent().TagName())
			}
		}
	}
	if count != 1 {
		t.Fatalf("got %d occurrences, want 1 (script skipped)", count)
	}
}

func TestRangeRect(t *testing.T) {
	d := testDoc(t)
	lead := d.Find("p.lead")
	d.SetRect(lead, geom.Rect{X: 0, Y: 10, Width: 160, Height: 20})

	var tn dom.TextNode
	for _, n := range d.TextNodes() {
		if n.Data() == "First paragraph." {
			tn = n
		}
	}
	if tn == nil {
		t.Fatal("text node not found")
	}
	// 16 runes over 160px: 10px per rune.
	r := dom.Range{Node: tn, Start: 6, End: 15}.BoundingRect()
	if r.X != 60 || r.Width != 90 || r.Y != 10 {
		t.Fatalf("RangeRect: %+v", r)
	}
}

func TestObservers(t *testing.T) {
	d := testDoc(t)
	lead := d.Find("p.lead")

	var scrolls, resizes, elems int
	c1 := d.OnScroll(func() { scrolls++ })
	c2 := d.OnResize(func() { resizes++ })
	c3 := d.ObserveResize(lead, func() { elems++ })

	d.SetScroll(geom.Pt(0, 10))
	d.SetScroll(geom.Pt(0, 10))
	d.SetViewport(geom.Size{Width: 600, Height: 400})
	d.SetRect(lead, geom.Rect{Width: 10, Height: 10})
	d.SetRect(lead, geom.Rect{X: 5, Width: 10, Height: 10})

	if scrolls != 1 || resizes != 1 || elems != 1 {
		t.Fatalf("scrolls=%d resizes=%d elems=%d, want 1 each", scrolls, resizes, elems)
	}

	c1()
	c2()
	c3()
	if n := d.Listeners(); n != 0 {
		t.Fatalf("listeners after cancel: %d", n)
	}
}

func TestMutate(t *testing.T) {
	d := testDoc(t)
	d.Mutate(func(root *html.Node) {
		lead := d.Find("p.lead").(Element).Node()
		lead.Parent.RemoveChild(lead)
	})
	if d.ElementByStableID("a1") != nil {
		t.Fatal("removed element still found")
	}
}

func TestCapturedRects(t *testing.T) {
	d, err := ParseString(`<html><body>
		<p id="a" data-anchor-rect="20, 1000, 400, 40">a</p>
		<p id="b" data-anchor-rect="bogus">b</p>
		<p id="c">c</p>
	</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	d.SetScroll(geom.Pt(0, 900))

	if r := d.Find("#a").BoundingRect(); r != (geom.Rect{X: 20, Y: 100, Width: 400, Height: 40}) {
		t.Fatalf("captured rect: %+v", r)
	}
	if r := d.Find("#b").BoundingRect(); !r.Empty() {
		t.Fatalf("malformed rect should be ignored: %+v", r)
	}
	if r := d.Find("#c").BoundingRect(); !r.Empty() {
		t.Fatalf("no rect: %+v", r)
	}

	if err := d.Replace(strings.NewReader(`<html><body><p id="a" data-anchor-rect="0,0,10,10">a</p></body></html>`)); err != nil {
		t.Fatal(err)
	}
	if r := d.Find("#a").BoundingRect(); r.Width != 10 {
		t.Fatalf("rect after replace: %+v", r)
	}
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"1,2,3,4", true},
		{" 1.5 , 2 , 3 , 4 ", true},
		{"1,2,3", false},
		{"1,2,-3,4", false},
		{"1,2,NaN,4", false},
		{"a,b,c,d", false},
	}
	for _, tt := range tests {
		if _, ok := ParseRect(tt.in); ok != tt.ok {
			t.Errorf("ParseRect(%q): ok=%v, want %v", tt.in, ok, tt.ok)
		}
	}
}
