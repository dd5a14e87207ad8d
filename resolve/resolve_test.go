package resolve

import (
	"strings"
	"testing"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/dom/htmldoc"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/target"
)

func parse(t *testing.T, src string) *htmldoc.Document {
	t.Helper()
	d, err := htmldoc.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return d
}

func elementTarget(loc target.ElementLocator) *target.Target {
	return &target.Target{Space: target.SpaceWeb, Mode: target.ModeElement, Element: &loc}
}

func TestResolve_StableIDBeatsSelector(t *testing.T) {
	d := parse(t, `<body>
		<div class="card" id="by-selector">selector</div>
		<div class="card" data-anchor-id="s1">stable</div>
	</body>`)

	a := Resolve(elementTarget(target.ElementLocator{
		StableID: "s1",
		Selector: "#by-selector",
		TagName:  "div",
	}), d)
	if a == nil {
		t.Fatal("no anchor")
	}
	if a.Strategy != StrategyStableID {
		t.Fatalf("strategy: got %s, want %s", a.Strategy, StrategyStableID)
	}
	if a.Element != d.ElementByStableID("s1") {
		t.Fatal("wrong element")
	}
}

func TestResolve_SelectorTagMismatchFallsThrough(t *testing.T) {
	d := parse(t, `<body>
		<span class="price">9.99</span>
		<p class="price">real</p>
	</body>`)

	a := Resolve(elementTarget(target.ElementLocator{
		Selector: ".price",
		XPath:    "/html/body/p",
		TagName:  "p",
	}), d)
	if a == nil {
		t.Fatal("no anchor")
	}
	if a.Strategy != StrategyXPath {
		t.Fatalf("strategy: got %s, want %s", a.Strategy, StrategyXPath)
	}
	if a.Element.TagName() != "p" {
		t.Fatalf("tag: got %s", a.Element.TagName())
	}
}

func TestResolve_SelectorMissingClassFallsThrough(t *testing.T) {
	d := parse(t, `<body><p id="x" class="a">text</p></body>`)
	a := Resolve(elementTarget(target.ElementLocator{
		Selector:  "#x",
		TagName:   "p",
		ClassList: []string{"a", "b"},
	}), d)
	if a == nil || a.Strategy != StrategyTag {
		t.Fatalf("got %+v, want tag fallback", a)
	}
}

func TestResolve_SyntaxErrorsAreMisses(t *testing.T) {
	d := parse(t, `<body><a href="/docs" title="Docs">docs</a></body>`)
	a := Resolve(elementTarget(target.ElementLocator{
		Selector:   "a[[[",
		XPath:      "//a[@",
		Attributes: map[string]string{"title": "Docs", "rel": "nope"},
		TagName:    "a",
	}), d)
	if a == nil || a.Strategy != StrategyAttributes {
		t.Fatalf("got %+v, want attributes", a)
	}
}

func TestResolve_AttributePriority(t *testing.T) {
	d := parse(t, `<body>
		<input name="q" data-x="1">
		<input id="search" data-x="1">
	</body>`)
	a := Resolve(elementTarget(target.ElementLocator{
		Attributes: map[string]string{"data-x": "1", "id": "search"},
	}), d)
	if a == nil || a.Strategy != StrategyAttributes {
		t.Fatalf("got %+v", a)
	}
	if v, _ := a.Element.Attr("id"); v != "search" {
		t.Fatalf("id attribute should win, got element %s", a.Element.OuterHTML())
	}
}

func TestResolve_PointWalksAncestors(t *testing.T) {
	d := parse(t, `<body><article><p><em>deep</em></p></article></body>`)
	article := d.Find("article")
	em := d.Find("em")
	d.SetRect(article, geom.Rect{X: 0, Y: 1000, Width: 600, Height: 400})
	d.SetRect(em, geom.Rect{X: 10, Y: 1010, Width: 40, Height: 20})
	d.SetScroll(geom.Pt(0, 900))

	pos := geom.Pt(20, 1015)
	rect := geom.Rect{X: 0, Y: 1000, Width: 600, Height: 400}
	a := Resolve(elementTarget(target.ElementLocator{
		Selector:    "section.gone",
		Position:    &pos,
		ElementRect: &rect,
		TagName:     "article",
	}), d)
	if a == nil || a.Strategy != StrategyPoint {
		t.Fatalf("got %+v, want point", a)
	}
	if a.Element != article {
		t.Fatalf("got %s, want article", a.Element.TagName())
	}
}

func TestResolve_NothingMatches(t *testing.T) {
	d := parse(t, `<body><div>x</div></body>`)
	a := Resolve(elementTarget(target.ElementLocator{Selector: "#gone", TagName: "table"}), d)
	if a != nil {
		t.Fatalf("got %+v, want nil", a)
	}
}

func TestResolve_InvalidTargetIgnored(t *testing.T) {
	d := parse(t, `<body><div>x</div></body>`)
	bad := &target.Target{Space: target.SpaceWeb, Mode: target.ModeTimestamp, Timestamp: &target.Timestamp{Seconds: 1}}
	if a := Resolve(bad, d); a != nil {
		t.Fatalf("got %+v, want nil", a)
	}
}

func TestResolve_Region(t *testing.T) {
	page := 1
	img := &target.Target{
		Space:  target.SpacePDF,
		Mode:   target.ModeRegion,
		Region: &target.Region{Box: target.Box{X: 0.5, Y: 0.5}, RelativeTo: target.RelativePage, PageIndex: &page},
	}
	a := Resolve(img, nil)
	if a == nil || a.Kind != KindRect || !a.Normalized || a.PageIndex != 1 {
		t.Fatalf("pdf region: %+v", a)
	}

	d := parse(t, `<body><div>x</div></body>`)
	d.SetScroll(geom.Pt(0, 300))
	web := &target.Target{
		Space:  target.SpaceWeb,
		Mode:   target.ModeRegion,
		Region: &target.Region{Box: target.Box{X: 40, Y: 500, W: 10, H: 10}, RelativeTo: target.RelativeDocument},
	}
	a = Resolve(web, d)
	if a == nil || a.Normalized {
		t.Fatalf("web region: %+v", a)
	}
	if r := a.ClientRect(d); r.Y != 200 || r.X != 40 {
		t.Fatalf("client rect: %+v", r)
	}
}

func TestFindQuote_Disambiguates(t *testing.T) {
	d := parse(t, `<body>
		<p>The cat sat on the mat.</p>
		<p>A dog sat on the rug.</p>
		<p>Then the cat sat again.</p>
	</body>`)

	q := &target.TextQuote{Exact: "sat", Prefix: "dog ", Suffix: " on the rug"}
	rng := FindQuote(q, d)
	if rng == nil {
		t.Fatal("no range")
	}
	if !strings.Contains(rng.Node.Data(), "dog") {
		t.Fatalf("wrong node: %q", rng.Node.Data())
	}
	if rng.Text() != "sat" {
		t.Fatalf("range text: %q", rng.Text())
	}
}

func TestFindQuote_OffsetTieBreak(t *testing.T) {
	d := parse(t, `<body><p>echo</p><p>echo</p><p>echo</p></body>`)
	texts := d.TextNodes()

	start := 8 // third "echo" in "echoechoecho"
	rng := FindQuote(&target.TextQuote{Exact: "echo", Start: &start}, d)
	if rng == nil {
		t.Fatal("no range")
	}
	if rng.Node != texts[2] {
		t.Fatal("offset tie-break picked the wrong occurrence")
	}
}

func TestFindQuote_NoMatch(t *testing.T) {
	d := parse(t, `<body><p>nothing here</p></body>`)
	if rng := FindQuote(&target.TextQuote{Exact: "absent"}, d); rng != nil {
		t.Fatalf("got %+v", rng)
	}
}

func TestResolve_TextAnchor(t *testing.T) {
	d := parse(t, `<body><p>quoted words</p></body>`)
	tg := &target.Target{Space: target.SpaceWeb, Mode: target.ModeText, Text: &target.TextQuote{Exact: "words"}}
	a := Resolve(tg, d)
	if a == nil || a.Kind != KindRange || a.Strategy != StrategyText {
		t.Fatalf("got %+v", a)
	}
	if a.Range.Start != 7 || a.Range.End != 12 {
		t.Fatalf("range: %d..%d", a.Range.Start, a.Range.End)
	}
}

func TestRank(t *testing.T) {
	if Rank(StrategyStableID) != 0 || Rank(StrategyTag) != 5 {
		t.Fatal("unexpected ranks")
	}
	if Rank("unknown") != len(DefaultStrategies) {
		t.Fatal("unknown strategy rank")
	}
	if !(Rank(StrategySelector) < Rank(StrategyXPath)) {
		t.Fatal("selector must outrank xpath")
	}
}

var _ dom.Document = (*htmldoc.Document)(nil)
