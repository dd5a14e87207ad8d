// Package excerpt renders what an anchor points at as markdown, for the
// readout shown next to a marker.
package excerpt

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/anchorage/resolve"
)

// DefaultMaxRunes bounds an excerpt.
const DefaultMaxRunes = 2000

// Renderer converts anchors to markdown.
type Renderer struct {
	conv     *converter.Converter
	maxRunes int
	domain   string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxRunes bounds the excerpt length. Zero or less disables the bound.
func WithMaxRunes(n int) Option { return func(r *Renderer) { r.maxRunes = n } }

// WithDomain resolves relative links against domain.
func WithDomain(domain string) Option { return func(r *Renderer) { r.domain = domain } }

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		maxRunes: DefaultMaxRunes,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Markdown renders the anchored element as markdown, or the anchored text
// as a block quote. Region anchors have no content and yield "".
func (r *Renderer) Markdown(a *resolve.Anchor) (string, error) {
	if a == nil {
		return "", nil
	}
	switch a.Kind {
	case resolve.KindElement:
		md, err := r.convert(a.Element.OuterHTML())
		if err != nil {
			return "", fmt.Errorf("excerpt: convert: %w", err)
		}
		return r.truncate(strings.TrimSpace(md)), nil
	case resolve.KindRange:
		text := strings.Join(strings.Fields(a.Range.Text()), " ")
		if text == "" {
			return "", nil
		}
		return "> " + r.truncate(text), nil
	default:
		return "", nil
	}
}

func (r *Renderer) convert(html string) (string, error) {
	if r.domain != "" {
		return r.conv.ConvertString(html, converter.WithDomain(r.domain))
	}
	return r.conv.ConvertString(html)
}

func (r *Renderer) truncate(s string) string {
	if r.maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= r.maxRunes {
		return s
	}
	return string(runes[:r.maxRunes]) + "…"
}
