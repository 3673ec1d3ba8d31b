package render

import (
	"fmt"
	"io"

	"github.com/lucasb-eyer/go-colorful"
)

type textOp struct {
	page int
	x, y float64
	text string
	font Font
}

type pageOp struct {
	width, height float64
}

// fakeBackend records drawing operations, every character is half of font
// size wide.
type fakeBackend struct {
	font   Font
	pages  []pageOp
	texts  []textOp
	fills  int
	lines  int
	images []string
}

func newFakeFactory() (BackendFactory, *[]*fakeBackend) {
	var created []*fakeBackend
	return func() Backend {
		fb := &fakeBackend{}
		created = append(created, fb)
		return fb
	}, &created
}

func (f *fakeBackend) AddPage(width, height float64) {
	f.pages = append(f.pages, pageOp{width, height})
}

func (f *fakeBackend) SetFont(font Font) {
	f.font = font
}

func (f *fakeBackend) TextWidth(s string) float64 {
	return float64(len([]rune(s))) * f.font.Size / 2
}

func (f *fakeBackend) Text(x, y float64, s string, _ colorful.Color) {
	f.texts = append(f.texts, textOp{page: len(f.pages), x: x, y: y, text: s, font: f.font})
}

func (f *fakeBackend) Fill(_, _, _, _ float64, _ colorful.Color) {
	f.fills++
}

func (f *fakeBackend) Line(_, _, _, _, _ float64, _ colorful.Color) {
	f.lines++
}

func (f *fakeBackend) Image(pic *Picture, _, _, _, _ float64) {
	f.images = append(f.images, pic.Name)
}

func (f *fakeBackend) Output(w io.Writer) error {
	_, err := fmt.Fprintf(w, "PAGES %d\n", len(f.pages))
	return err
}

// textsOn returns text drawn on page (1 based).
func (f *fakeBackend) textsOn(page int) []string {
	var out []string
	for _, t := range f.texts {
		if t.page == page {
			out = append(out, t.text)
		}
	}
	return out
}
