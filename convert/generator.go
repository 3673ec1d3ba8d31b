package convert

import (
	"context"

	"go.uber.org/zap"

	"odfc/config"
	"odfc/content"
	"odfc/convert/pdf"
	"odfc/state"
)

// writeOutput generates output in the format content was prepared for.
func writeOutput(ctx context.Context, c *content.Content, outputPath string, log *zap.Logger) error {
	switch c.OutputFormat {
	case config.OutputFmtPdf, config.OutputFmtPdfa:
		return pdf.Generate(ctx, c, outputPath, &state.EnvFromContext(ctx).Cfg.Document, log)
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
