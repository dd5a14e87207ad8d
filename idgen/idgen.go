// Package idgen generates the identifiers anchorage hands out: annotation
// IDs (prefixed UUIDv7, time-sortable) and the short stable IDs injected into
// snapshot markup as data-anchor-id.
package idgen

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AnnotationPrefix starts every annotation ID.
const AnnotationPrefix = "ann_"

// StableIDLength is the length of the IDs written into data-anchor-id.
const StableIDLength = 10

// Generator produces unique string identifiers.
type Generator func() string

// NanoID returns a Generator of base-36 IDs of the given length.
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i := range buf {
			buf[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return string(buf)
	}
}

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID of gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Annotation is the default annotation ID generator.
var Annotation Generator = Prefixed(AnnotationPrefix, UUIDv7())

// StableID is the default generator for data-anchor-id values.
var StableID Generator = NanoID(StableIDLength)

// NewAnnotation produces an annotation ID.
func NewAnnotation() string {
	return Annotation()
}

// ParseAnnotation validates an annotation ID and returns it.
func ParseAnnotation(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, AnnotationPrefix)
	if !ok {
		return "", fmt.Errorf("idgen: annotation id %q: missing %s prefix", s, AnnotationPrefix)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", fmt.Errorf("idgen: annotation id %q: %w", s, err)
	}
	return s, nil
}
