// Package snapshot prepares captured HTML for annotation: the markup is
// sanitized, then every body element gets a stable anchor identifier that
// the resolver tries before any structural strategy.
package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/idgen"
)

// Policy returns the sanitizing policy: user-generated-content rules plus
// classes, ids and data attributes, which locators depend on.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowAttrs("id").Globally()
	p.AllowDataAttributes()
	p.AllowElements("article", "section", "header", "footer", "main", "nav", "aside", "figure", "figcaption")
	return p
}

var policy = Policy()

// Sanitize strips scripts, event handlers and unsafe markup from s.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// Inject parses r and adds a data-anchor-id from gen to every body element
// that lacks one. It returns the rendered document and the number of ids
// added. A nil gen uses idgen.StableID.
func Inject(r io.Reader, gen idgen.Generator) (string, int, error) {
	if gen == nil {
		gen = idgen.StableID
	}
	root, err := html.Parse(r)
	if err != nil {
		return "", 0, fmt.Errorf("snapshot: parse: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return "", 0, fmt.Errorf("snapshot: no body")
	}

	seen := make(map[string]bool)
	collectIDs(body, seen)

	count := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if !hasAttr(c, dom.StableIDAttr) {
				id := gen()
				for seen[id] {
					id = gen()
				}
				seen[id] = true
				c.Attr = append(c.Attr, html.Attribute{Key: dom.StableIDAttr, Val: id})
				count++
			}
			walk(c)
		}
	}
	walk(body)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", 0, fmt.Errorf("snapshot: render: %w", err)
	}
	return buf.String(), count, nil
}

// Prepare sanitizes raw and injects stable ids.
func Prepare(raw string, gen idgen.Generator) (string, int, error) {
	return Inject(strings.NewReader(Sanitize(raw)), gen)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func collectIDs(n *html.Node, seen map[string]bool) {
	for _, a := range n.Attr {
		if a.Key == dom.StableIDAttr {
			seen[a.Val] = true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectIDs(c, seen)
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key && a.Val != "" {
			return true
		}
	}
	return false
}
