package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap/zaptest"

	"odfc/odf"
	"odfc/render"
	"odfc/styles"
)

// recorder is backend writing every drawn text on its own line.
type recorder struct {
	size     float64
	pages    int
	texts    []string
	failWith error
}

func (r *recorder) AddPage(_, _ float64) { r.pages++ }

func (r *recorder) SetFont(f render.Font) { r.size = f.Size }

func (r *recorder) TextWidth(s string) float64 { return float64(len([]rune(s))) * r.size / 2 }

func (r *recorder) Text(_, _ float64, s string, _ colorful.Color) { r.texts = append(r.texts, s) }

func (r *recorder) Fill(_, _, _, _ float64, _ colorful.Color) {}

func (r *recorder) Line(_, _, _, _, _ float64, _ colorful.Color) {}

func (r *recorder) Image(_ *render.Picture, _, _, _, _ float64) {}

func (r *recorder) Output(w io.Writer) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, s := range r.texts {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "PAGES %d\n", r.pages)
	return err
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

const docStyles = `<office:styles>
  <style:default-style style:family="paragraph">
    <style:paragraph-properties fo:line-height="100%"/>
    <style:text-properties fo:font-size="10pt"/>
  </style:default-style>
</office:styles>
<office:automatic-styles>
  <style:page-layout style:name="pm1">
    <style:page-layout-properties fo:page-width="200pt" fo:page-height="100pt" fo:margin="10pt"/>
  </style:page-layout>
</office:automatic-styles>
<office:master-styles>
  <style:master-page style:name="Standard" style:page-layout-name="pm1"/>
</office:master-styles>`

func flatDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
  xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
  xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"
  office:mimetype="application/vnd.oasis.opendocument.text">` + docStyles + `
<office:body><office:text>` + body + `</office:text></office:body>
</office:document>`
}

// lines produces body occupying given number of 200x100pt pages, every
// page holds 8 lines of 10pt text.
func lines(pages int) string {
	var b strings.Builder
	for range pages * 8 {
		b.WriteString("<text:p>Body line</text:p>")
	}
	return b.String()
}

type testSetup struct {
	renderer *render.Renderer
	created  *[]*recorder
}

func newSetup(t *testing.T, body string, opts render.Options, failWith error) *testSetup {
	t.Helper()
	log := zaptest.NewLogger(t)

	doc, err := odf.Read([]byte(flatDocument(body)), "test.fodt", false, log)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	var created []*recorder
	factory := func() render.Backend {
		r := &recorder{failWith: failWith}
		created = append(created, r)
		return r
	}
	r := render.New(&render.Document{
		Body:    odf.BuildTree(doc.Body()),
		Catalog: styles.Build(styles.Options{Fallback: true}, log, doc.StyleSections()...),
	}, factory, opts, log)
	return &testSetup{renderer: r, created: &created}
}

func TestConvert_Passes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		opts      render.Options
		passes    int
		pages     int
		expected  *int
		wantText  string
		unwanted  string
		discarded bool
	}{
		{
			name:   "no page count reference",
			body:   lines(3),
			passes: 1,
			pages:  3,
		},
		{
			name:     "expectation met",
			body:     `<text:p>Total <text:page-count>2</text:page-count></text:p>` + lines(2)[len("<text:p>Body line</text:p>"):],
			passes:   1,
			pages:    2,
			expected: intPtr(2),
			wantText: "2",
		},
		{
			name:      "expectation missed",
			body:      `<text:p>Total <text:page-count>5</text:page-count></text:p>` + lines(4)[len("<text:p>Body line</text:p>"):],
			passes:    2,
			pages:     4,
			expected:  intPtr(5),
			wantText:  "4",
			unwanted:  "5",
			discarded: true,
		},
		{
			name:     "configured expectation overrides cached value",
			body:     `<text:p>Total <text:page-count>5</text:page-count></text:p>`,
			opts:     render.Options{ExpectedPageCount: 1},
			passes:   1,
			pages:    1,
			expected: intPtr(1),
			wantText: "5",
		},
		{
			name:      "not a number never matches",
			body:      `<text:p>Total <text:page-count>??</text:page-count></text:p>`,
			passes:    2,
			pages:     1,
			expected:  intPtr(0),
			wantText:  "1",
			unwanted:  "??",
			discarded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t, tt.body, tt.opts, nil)
			var out bytes.Buffer

			res, err := Convert(context.Background(), s.renderer, &out, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if res.Passes != tt.passes || len(*s.created) != tt.passes {
				t.Errorf("passes = %d (backends %d), want %d", res.Passes, len(*s.created), tt.passes)
			}
			if res.Pages != tt.pages {
				t.Errorf("Pages = %d, want %d", res.Pages, tt.pages)
			}
			switch {
			case tt.expected == nil && res.Expected != nil:
				t.Errorf("Expected = %d, want nil", *res.Expected)
			case tt.expected != nil && (res.Expected == nil || *res.Expected != *tt.expected):
				t.Errorf("Expected = %v, want %d", res.Expected, *tt.expected)
			}
			if (len(res.Discarded) > 0) != tt.discarded {
				t.Errorf("Discarded = %d bytes, want discarded=%v", len(res.Discarded), tt.discarded)
			}

			got := out.String()
			if !strings.HasSuffix(got, fmt.Sprintf("PAGES %d\n", tt.pages)) {
				t.Errorf("output does not end with page count:\n%s", got)
			}
			outLines := strings.Split(got, "\n")
			if tt.wantText != "" && !contains(outLines, tt.wantText) {
				t.Errorf("output does not show %q:\n%s", tt.wantText, got)
			}
			if tt.unwanted != "" && contains(outLines, tt.unwanted) {
				t.Errorf("output still shows %q:\n%s", tt.unwanted, got)
			}
			if tt.discarded && !contains(strings.Split(string(res.Discarded), "\n"), tt.unwanted) {
				t.Errorf("discarded pass does not show cached value %q", tt.unwanted)
			}
		})
	}
}

func TestConvert_SecondPassReusesTree(t *testing.T) {
	s := newSetup(t, `<text:p>Total <text:page-count>7</text:page-count></text:p>`+lines(2), render.Options{}, nil)
	var out bytes.Buffer
	if _, err := Convert(context.Background(), s.renderer, &out, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	created := *s.created
	if len(created) != 2 {
		t.Fatalf("backends = %d, want 2", len(created))
	}
	first, second := created[0], created[1]
	if first.pages != second.pages || len(first.texts) != len(second.texts) {
		t.Errorf("passes differ: %d/%d pages, %d/%d texts", first.pages, second.pages, len(first.texts), len(second.texts))
	}
}

func TestConvert_Errors(t *testing.T) {
	log := zaptest.NewLogger(t)
	backendErr := errors.New("backend exploded")

	t.Run("first pass backend failure", func(t *testing.T) {
		s := newSetup(t, lines(1), render.Options{}, backendErr)
		res, err := Convert(context.Background(), s.renderer, io.Discard, log)
		var ce *ConversionError
		if !errors.As(err, &ce) {
			t.Fatalf("error = %v, want ConversionError", err)
		}
		if ce.Pass != 1 || !errors.Is(err, backendErr) {
			t.Errorf("error = %v, want pass 1 wrapping backend error", err)
		}
		if res.Passes != 1 {
			t.Errorf("Passes = %d, want 1", res.Passes)
		}
	})

	t.Run("copy failure", func(t *testing.T) {
		s := newSetup(t, lines(1), render.Options{}, nil)
		_, err := Convert(context.Background(), s.renderer, failingWriter{}, log)
		var ce *ConversionError
		if !errors.As(err, &ce) || ce.Pass != 1 {
			t.Fatalf("error = %v, want ConversionError on pass 1", err)
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("error = %v, want sink error", err)
		}
	})

	t.Run("second pass failure", func(t *testing.T) {
		s := newSetup(t, `<text:p><text:page-count>3</text:page-count></text:p>`, render.Options{}, nil)
		res, err := Convert(context.Background(), s.renderer, failingWriter{}, log)
		var ce *ConversionError
		if !errors.As(err, &ce) || ce.Pass != 2 {
			t.Fatalf("error = %v, want ConversionError on pass 2", err)
		}
		if res.Passes != 2 {
			t.Errorf("Passes = %d, want 2", res.Passes)
		}
	})

	t.Run("unknown style", func(t *testing.T) {
		log := zaptest.NewLogger(t)
		doc, err := odf.Read([]byte(flatDocument(`<text:p text:style-name="Missing">x</text:p>`)), "test.fodt", false, log)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		r := render.New(&render.Document{
			Body:    odf.BuildTree(doc.Body()),
			Catalog: styles.Build(styles.Options{}, log, doc.StyleSections()...),
		}, func() render.Backend { return &recorder{} }, render.Options{}, log)

		_, err = Convert(context.Background(), r, io.Discard, log)
		var use *styles.UnknownStyleError
		if !errors.As(err, &use) {
			t.Fatalf("error = %v, want UnknownStyleError", err)
		}
		if !render.IsUnknownStyle(err) {
			t.Error("IsUnknownStyle() = false")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		s := newSetup(t, lines(1), render.Options{}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := Convert(ctx, s.renderer, io.Discard, log)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if res.Passes != 0 || len(*s.created) != 0 {
			t.Errorf("no pass must start, got %d", res.Passes)
		}
	})
}

func TestConversionError(t *testing.T) {
	inner := errors.New("boom")
	err := error(&ConversionError{Pass: 2, Err: inner})
	if err.Error() != "conversion failed on pass 2: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("ConversionError must unwrap to inner error")
	}
}

func intPtr(n int) *int {
	return &n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
