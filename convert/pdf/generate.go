package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"odfc/config"
	"odfc/content"
	"odfc/misc"
	"odfc/render"
	"odfc/state"
	"odfc/styles"
)

// Generate creates the PDF output file. Output file is opened once and
// closed once, it is removed when conversion fails.
func Generate(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig, log *zap.Logger) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	log.Info("Generating PDF", zap.Stringer("format", c.OutputFormat), zap.String("output", outputPath))

	geometry, err := pageGeometry(&cfg.Page)
	if err != nil {
		return err
	}

	title := c.Meta.Title
	if len(title) == 0 {
		title = strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName))
	}
	factory := render.NewPDFFactory(render.PDFOptions{
		Archival:   c.OutputFormat.Archival(),
		Compress:   cfg.Compress,
		FontsDir:   cfg.FontsDir,
		Title:      title,
		Author:     c.Meta.Creator,
		Subject:    c.Meta.Subject,
		Keywords:   c.Meta.Keywords,
		Creator:    fmt.Sprintf("%s %s", misc.GetAppName(), misc.GetVersion()),
		DocumentID: c.ID,
	}, log)

	r := render.New(c.Document(), factory, render.Options{
		ExpectedPageCount: cfg.ExpectedPageCount,
		Geometry:          geometry,
	}, log)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		rerr = multierr.Append(rerr, f.Close())
		if rerr != nil {
			_ = os.Remove(outputPath)
		}
	}()

	res, err := Convert(ctx, r, f, log)
	if len(res.Discarded) > 0 {
		env.Rpt.StoreData("pass-1-"+filepath.Base(outputPath), res.Discarded)
	}
	if err != nil {
		return err
	}

	log.Info("PDF generated", zap.Int("pages", res.Pages), zap.Int("passes", res.Passes))
	return nil
}

// pageGeometry is used for documents without page layouts.
func pageGeometry(cfg *config.PageConfig) (styles.Geometry, error) {
	var (
		g   styles.Geometry
		err error
	)
	if g.Width, err = styles.ParseLength(cfg.Width); err != nil {
		return g, fmt.Errorf("bad page width %q: %w", cfg.Width, err)
	}
	if g.Height, err = styles.ParseLength(cfg.Height); err != nil {
		return g, fmt.Errorf("bad page height %q: %w", cfg.Height, err)
	}
	margin, err := styles.ParseLength(cfg.Margin)
	if err != nil {
		return g, fmt.Errorf("bad page margin %q: %w", cfg.Margin, err)
	}
	for i := range g.Margin {
		g.Margin[i] = margin
	}
	return g, nil
}
