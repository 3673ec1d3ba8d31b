// Package render lays out typed document tree onto fixed size pages and
// draws it through a Backend.
package render

import (
	"io"

	"github.com/lucasb-eyer/go-colorful"
)

// Font selects face for text drawing and measurement.
type Font struct {
	Family string
	Bold   bool
	Italic bool
	Size   float64
}

// Picture is image prepared for embedding. Data is encoded as Type ("JPG"
// or "PNG"), Width and Height are in pixels.
type Picture struct {
	Name   string
	Type   string
	Data   []byte
	Width  int
	Height int
	DPI    int
}

// Backend is the drawing surface of one rendering pass. All coordinates are
// in points with origin in the top left corner of the current page, text is
// positioned by its baseline. Backend accumulates pages and writes complete
// document on Output.
type Backend interface {
	AddPage(width, height float64)
	SetFont(f Font)
	TextWidth(s string) float64
	Text(x, y float64, s string, c colorful.Color)
	Fill(x, y, w, h float64, c colorful.Color)
	Line(x1, y1, x2, y2, width float64, c colorful.Color)
	Image(pic *Picture, x, y, w, h float64)
	Output(w io.Writer) error
}

// BackendFactory creates fresh backend for every pass.
type BackendFactory func() Backend

var black = colorful.Color{}
