package resolve

import (
	"strings"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/target"
)

type occurrence struct {
	node   dom.TextNode
	start  int // rune offset in node
	global int // rune offset in document text
}

// FindQuote returns the range of q.Exact in doc. Several occurrences are
// ranked by how much of the recorded prefix and suffix surrounds them in
// the document text, then by distance to the recorded start offset.
func FindQuote(q *target.TextQuote, doc dom.Document) *dom.Range {
	exact := []rune(q.Exact)
	if len(exact) == 0 {
		return nil
	}

	var (
		full  []rune
		found []occurrence
	)
	for _, n := range doc.TextNodes() {
		data := []rune(n.Data())
		for _, i := range indexAll(data, exact) {
			found = append(found, occurrence{node: n, start: i, global: len(full) + i})
		}
		full = append(full, data...)
	}

	switch len(found) {
	case 0:
		return nil
	case 1:
		return rangeOf(found[0], len(exact))
	}

	prefix := []rune(q.Prefix)
	suffix := []rune(q.Suffix)
	best, bestScore, bestDist := 0, -1, -1
	for i, o := range found {
		score := commonSuffix(full[:o.global], prefix) + commonPrefix(full[o.global+len(exact):], suffix)
		dist := 0
		if q.Start != nil {
			dist = abs(o.global - *q.Start)
		}
		if score > bestScore || (score == bestScore && dist < bestDist) {
			best, bestScore, bestDist = i, score, dist
		}
	}
	return rangeOf(found[best], len(exact))
}

func rangeOf(o occurrence, n int) *dom.Range {
	return &dom.Range{Node: o.node, Start: o.start, End: o.start + n}
}

// indexAll returns the rune offsets of every, possibly overlapping,
// occurrence of sub in s.
func indexAll(s, sub []rune) []int {
	if !strings.Contains(string(s), string(sub)) {
		return nil
	}
	var out []int
	for i := 0; i+len(sub) <= len(s); i++ {
		if runesEqual(s[i:i+len(sub)], sub) {
			out = append(out, i)
		}
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// commonSuffix counts the trailing runes shared by text and want.
func commonSuffix(text, want []rune) int {
	n := 0
	for n < len(text) && n < len(want) && text[len(text)-1-n] == want[len(want)-1-n] {
		n++
	}
	return n
}

// commonPrefix counts the leading runes shared by text and want.
func commonPrefix(text, want []rune) int {
	n := 0
	for n < len(text) && n < len(want) && text[n] == want[n] {
		n++
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
