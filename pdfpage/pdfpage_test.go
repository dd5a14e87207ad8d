package pdfpage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/anchorage/geom"
)

// buildPDF writes a minimal PDF with one empty page per media box.
func buildPDF(boxes [][2]int) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	n := 2 + len(boxes)
	offsets := make([]int, n+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(boxes))
	for i := range boxes {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(boxes))

	for i, box := range boxes {
		offsets[i+3] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>\nendobj\n", i+3, box[0], box[1])
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", n+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", n+1, xref)
	return []byte(b.String())
}

func TestPageSizes(t *testing.T) {
	raw := buildPDF([][2]int{{612, 792}, {842, 595}})
	sizes, err := PageSizes(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("page sizes: %v", err)
	}
	want := []geom.Size{{Width: 612, Height: 792}, {Width: 842, Height: 595}}
	if len(sizes) != len(want) {
		t.Fatalf("pages: got %d, want %d", len(sizes), len(want))
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("page %d: got %+v, want %+v", i, sizes[i], want[i])
		}
	}

	landscape, err := DesignSize(sizes, 1)
	if err != nil || landscape.Width != 842 {
		t.Fatalf("design size: %+v %v", landscape, err)
	}
}

func TestPageSizesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buildPDF([][2]int{{300, 400}}), 0o644); err != nil {
		t.Fatal(err)
	}
	sizes, err := PageSizesFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 1 || sizes[0].Height != 400 {
		t.Fatalf("sizes: %+v", sizes)
	}
}

func TestPageSizes_NotPDF(t *testing.T) {
	if _, err := PageSizes(bytes.NewReader([]byte("hello"))); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestDesignSize_OutOfRange(t *testing.T) {
	sizes := []geom.Size{{Width: 1, Height: 1}}
	for _, i := range []int{-1, 1} {
		if _, err := DesignSize(sizes, i); err == nil {
			t.Errorf("index %d: expected error", i)
		}
	}
}
