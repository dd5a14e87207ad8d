package idgen

import (
	"strings"
	"testing"
)

func TestNanoID_Length(t *testing.T) {
	for _, length := range []int{8, 10, 16} {
		if id := NanoID(length)(); len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
	}
}

func TestNanoID_Alphabet(t *testing.T) {
	id := NanoID(100)()
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			t.Fatalf("NanoID: unexpected character %q in %q", c, id)
		}
	}
}

func TestStableID_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := StableID()
		if _, ok := seen[id]; ok {
			t.Fatalf("StableID: duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewAnnotation(t *testing.T) {
	id := NewAnnotation()
	if !strings.HasPrefix(id, AnnotationPrefix) {
		t.Fatalf("missing prefix: %q", id)
	}
	if len(id) != len(AnnotationPrefix)+36 {
		t.Fatalf("length: got %d for %q", len(id), id)
	}
	if _, err := ParseAnnotation(id); err != nil {
		t.Fatalf("ParseAnnotation: %v", err)
	}
}

func TestNewAnnotation_Sortable(t *testing.T) {
	a, b := NewAnnotation(), NewAnnotation()
	if a >= b {
		t.Fatalf("ids not increasing: %q then %q", a, b)
	}
}

func TestParseAnnotation_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-an-id", "ann_not-a-uuid", "0190b6c2-8f1e-7a3b-9c4d-5e6f7a8b9c0d"} {
		if _, err := ParseAnnotation(s); err == nil {
			t.Errorf("ParseAnnotation(%q): expected error", s)
		}
	}
}
