// Package pdf drives renderer to produce final PDF document making sure
// page count fields show the number of pages document actually has.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"odfc/render"
)

// ConversionError is returned when any rendering pass fails. No output
// written up to that point is valid.
type ConversionError struct {
	Pass int
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed on pass %d: %v", e.Pass, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Result describes finished conversion.
type Result struct {
	Passes int
	Pages  int
	// Expected page count document claimed on the first pass, nil when
	// document does not reference page count.
	Expected *int
	// Discarded is output of the first pass when it had to be rendered
	// again.
	Discarded []byte
}

// Convert renders document into w. First pass goes into memory. When
// document does not reference total page count, or the count it claims is
// what first pass produced, memory copy becomes the output. Otherwise
// second pass is rendered directly into w with page count forced to the
// actual one. Second pass is always final.
func Convert(ctx context.Context, r *render.Renderer, w io.Writer, log *zap.Logger) (Result, error) {
	var res Result

	if err := ctx.Err(); err != nil {
		return res, &ConversionError{Pass: 1, Err: err}
	}

	first := new(bytes.Buffer)
	pr, err := r.Render(first, nil)
	res.Passes = 1
	if err != nil {
		return res, &ConversionError{Pass: 1, Err: err}
	}
	res.Pages, res.Expected = pr.Pages, pr.Expected
	log.Debug("Rendering pass completed", zap.Int("pass", 1), zap.Int("pages", pr.Pages), zap.Intp("expected", pr.Expected))

	if pr.Expected == nil || *pr.Expected == pr.Pages {
		if _, err := io.Copy(w, first); err != nil {
			return res, &ConversionError{Pass: 1, Err: fmt.Errorf("unable to write output: %w", err)}
		}
		return res, nil
	}

	log.Info("Page count differs from expected, rendering again",
		zap.Int("expected", *pr.Expected), zap.Int("actual", pr.Pages))

	if err := ctx.Err(); err != nil {
		return res, &ConversionError{Pass: 2, Err: err}
	}

	res.Discarded = first.Bytes()
	forced := pr.Pages
	sr, err := r.Render(w, &forced)
	res.Passes = 2
	if err != nil {
		return res, &ConversionError{Pass: 2, Err: err}
	}
	res.Pages = sr.Pages
	log.Debug("Rendering pass completed", zap.Int("pass", 2), zap.Int("pages", sr.Pages), zap.Int("forced", forced))

	if sr.Pages != forced {
		// known approximation: forced count changed layout, output is kept
		log.Warn("Page count changed on final pass", zap.Int("forced", forced), zap.Int("actual", sr.Pages))
	}
	return res, nil
}
