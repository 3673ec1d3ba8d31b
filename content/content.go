package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"odfc/config"
	"odfc/hidden"
	"odfc/misc"
	"odfc/odf"
	"odfc/render"
	"odfc/state"
	"odfc/styles"
)

// Content is OpenDocument text prepared for rendering: conditional content
// resolved, styles cataloged, body converted to typed tree and pictures
// decoded. Everything here is read only once Prepare returns.
type Content struct {
	SrcName      string
	Doc          *odf.Document
	OutputFormat config.OutputFmt

	ID       string
	Meta     odf.Meta
	Catalog  *styles.Catalog
	Body     *odf.Node
	Pictures map[string]*render.Picture
	Pruned   hidden.Stats

	// WorkDir keeps debug artifacts, empty when no report was requested.
	WorkDir string
}

// Document returns what renderer needs.
func (c *Content) Document() *render.Document {
	return &render.Document{
		Body:     c.Body,
		Catalog:  c.Catalog,
		Pictures: c.Pictures,
		Meta:     c.Meta,
	}
}

// Prepare reads, prunes and parses document for conversion.
func Prepare(ctx context.Context, r io.Reader, srcName string, outputFormat config.OutputFmt, log *zap.Logger) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Document

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}

	doc, err := odf.Read(data, srcName, cfg.FixZip, log)
	if err != nil {
		return nil, fmt.Errorf("unable to load document: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate document UUID: %w", err)
	}

	baseSrcName := filepath.Base(srcName)

	var tmpDir string
	if env.Rpt != nil {
		if tmpDir, err = os.MkdirTemp("", misc.GetAppName()+"-"); err != nil {
			return nil, fmt.Errorf("unable to create temporary directory: %w", err)
		}
		env.Rpt.Store(fmt.Sprintf("%s-%s", misc.GetAppName(), id), tmpDir)

		// Save original document for debugging
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName), data, 0644); err != nil {
			return nil, fmt.Errorf("unable to write input doc for debugging: %w", err)
		}
	}

	// Conditional content is resolved once, before anything looks at the
	// tree. Headers and footers live in master styles and may carry markers
	// too.
	opts := hidden.Options{Prefix: cfg.Hidden.Prefix, ParagraphTags: cfg.Hidden.ParagraphTags}
	pruned := hidden.Prune(doc.Body(), opts, log)
	pruned = pruned.Add(hidden.Prune(doc.MasterStyles(), opts, log))
	log.Debug("Conditional content resolved",
		zap.Int("removed", pruned.Removed), zap.Int("paragraphs", pruned.Paragraphs),
		zap.Int("failed", pruned.Failed), zap.Int("skipped", pruned.Skipped))

	catalog := styles.Build(styles.Options{
		Fallback:    cfg.Styles.UnknownStyle == config.UnknownStyleModeFallback,
		DefaultFont: cfg.DefaultFont,
	}, log, doc.StyleSections()...)

	refs := collectImageRefs(doc.Body(), doc.MasterStyles())
	pictures := prepareImages(doc.Pictures, refs, outputFormat.Archival(), &cfg.Images, env.BrokenImage, log)

	c := &Content{
		SrcName:      srcName,
		Doc:          doc,
		OutputFormat: outputFormat,
		ID:           id.String(),
		Meta:         doc.Meta(),
		Catalog:      catalog,
		Body:         odf.BuildTree(doc.Body()),
		Pictures:     pictures,
		Pruned:       pruned,
		WorkDir:      tmpDir,
	}

	// Save pruned and prepared document for debugging
	if env.Rpt != nil {
		if err := doc.Content.WriteToFile(filepath.Join(tmpDir, baseSrcName+"_pruned.xml")); err != nil {
			return nil, fmt.Errorf("unable to write pruned doc for debugging: %w", err)
		}
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName+"_prepared"), []byte(c.String()), 0644); err != nil {
			return nil, fmt.Errorf("unable to write prepared doc for debugging: %w", err)
		}
	}

	return c, nil
}
