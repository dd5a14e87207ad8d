// Package pdfpage reads page dimensions from PDF files. They become the
// mapper's design size when a PDF page is annotated.
package pdfpage

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/anchorage/geom"
)

// PageSizes returns the size of every page of the PDF, in points, in page
// order.
func PageSizes(rs io.ReadSeeker) ([]geom.Size, error) {
	conf := model.NewDefaultConfiguration()
	dims, err := api.PageDims(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfpage: page dims: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("pdfpage: no pages")
	}
	sizes := make([]geom.Size, len(dims))
	for i, d := range dims {
		sizes[i] = geom.Size{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}

// PageSizesFile is PageSizes on a file path.
func PageSizesFile(path string) ([]geom.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfpage: open: %w", err)
	}
	defer f.Close()
	return PageSizes(f)
}

// DesignSize returns the size of page pageIndex (0-based).
func DesignSize(sizes []geom.Size, pageIndex int) (geom.Size, error) {
	if pageIndex < 0 || pageIndex >= len(sizes) {
		return geom.Size{}, fmt.Errorf("pdfpage: page %d out of range [0,%d)", pageIndex, len(sizes))
	}
	return sizes[pageIndex], nil
}
