package content

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"odfc/config"
	"odfc/render"
	imgutils "odfc/utils/images"
)

// collectImageRefs returns picture references of all draw:image elements
// under given roots in document order, duplicates removed.
func collectImageRefs(roots ...*etree.Element) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, el := range root.FindElements(".//draw:image") {
			href := el.SelectAttrValue("xlink:href", "")
			if len(href) == 0 || seen[href] {
				continue
			}
			seen[href] = true
			refs = append(refs, href)
		}
	}
	return refs
}

// packagePath maps reference to the name of package entry.
func packagePath(href string) string {
	return path.Clean(strings.TrimPrefix(href, "./"))
}

// prepareImages decodes every referenced picture and converts it to format
// PDF backend is able to embed. Never returns an error: pictures which could
// not be prepared are substituted with broken image when requested, or left
// out (renderer draws placeholder box in their place).
func prepareImages(pictures map[string][]byte, refs []string, archival bool, cfg *config.ImagesConfig, broken []byte, log *zap.Logger) map[string]*render.Picture {
	index := make(map[string]*render.Picture, len(refs))

	for _, href := range refs {
		data, ok := pictures[packagePath(href)]
		if !ok {
			log.Warn("Picture is not part of the document, skipping", zap.String("href", href))
			continue
		}
		pic, err := prepareImage(href, data, archival, cfg, log)
		if err != nil {
			pic = handleImageError(href, err, archival, cfg, broken, log)
		}
		if pic != nil {
			index[href] = pic
		}
	}
	return index
}

// handleImageError logs the problem and optionally substitutes picture with
// rasterized broken image.
func handleImageError(href string, err error, archival bool, cfg *config.ImagesConfig, broken []byte, log *zap.Logger) *render.Picture {
	log.Warn("Unable to prepare picture", zap.String("href", href), zap.Error(err))
	if !cfg.UseBroken || len(broken) == 0 {
		return nil
	}
	log.Debug("Substituting picture with broken image", zap.String("href", href))
	pic, err := prepareImage(href, broken, archival, cfg, log)
	if err != nil {
		// this should never happen
		log.Error("Unable to prepare broken image", zap.Error(err))
		return nil
	}
	return pic
}

func isSVG(name string, data []byte) bool {
	if strings.EqualFold(path.Ext(name), ".svg") {
		return true
	}
	head := data[:min(len(data), 512)]
	return bytes.Contains(head, []byte("<svg"))
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return true
}

// prepareImage leaves original JPEG data intact when no changes are
// necessary, everything else is decoded and re-encoded.
func prepareImage(name string, data []byte, archival bool, cfg *config.ImagesConfig, log *zap.Logger) (*render.Picture, error) {
	var (
		img    image.Image
		format string
		err    error
	)

	if isSVG(name, data) {
		if img, err = imgutils.RasterizeSVGToImage(data, 0, 0); err != nil {
			return nil, fmt.Errorf("unable to rasterize SVG: %w", err)
		}
		format = "svg"
	} else {
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && !filetype.IsImage(data) {
			return nil, fmt.Errorf("not an image (%s)", kind.MIME.Value)
		}
		if img, format, err = image.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("unable to decode: %w", err)
		}
	}

	changed := format != "jpeg" && format != "png"

	if cfg.ScaleFactor > 0.0 && cfg.ScaleFactor != 1.0 {
		h := max(int(float64(img.Bounds().Dy())*cfg.ScaleFactor), 1)
		resized := imaging.Resize(img, 0, h, imaging.Lanczos)
		if resized == nil {
			return nil, errors.New("unable to resize")
		}
		img = resized
		changed = true
	}

	opaque := isOpaque(img)
	if !opaque && archival {
		// archival output may not carry transparency
		log.Debug("Removing picture transparency", zap.String("href", name))
		img = flatten(img)
		opaque, changed = true, true
	}

	pic := &render.Picture{
		Name:   name,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		DPI:    cfg.DPI,
	}
	dpi := int16(cfg.DPI)

	switch {
	case format == "jpeg" && !changed:
		out, added, err := imgutils.EnsureJFIFAPP0(data, imgutils.DpiPxPerInch, dpi, dpi)
		if err != nil {
			return nil, fmt.Errorf("unable to process JPEG: %w", err)
		}
		if added {
			log.Debug("Inserting jpeg JFIF APP0 marker segment", zap.String("href", name))
		}
		pic.Type, pic.Data = "JPG", out
	case format == "png" || !opaque:
		// PDF backend does not support interlaced or 16 bit PNGs, normalizing
		buf := new(bytes.Buffer)
		if err := imaging.Encode(buf, imaging.Clone(img), imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("unable to encode PNG: %w", err)
		}
		pic.Type, pic.Data = "PNG", buf.Bytes()
	default:
		if imgutils.IsGrayscale(img) {
			img = imgutils.ToGray(img)
		}
		out, err := imgutils.EncodeJPEGWithDPI(img, cfg.JPEGQuality, imgutils.DpiPxPerInch, dpi, dpi)
		if err != nil {
			return nil, fmt.Errorf("unable to encode JPEG: %w", err)
		}
		pic.Type, pic.Data = "JPG", out
	}

	log.Debug("Picture prepared",
		zap.String("href", name), zap.String("format", format), zap.String("type", pic.Type),
		zap.Int("width", pic.Width), zap.Int("height", pic.Height), zap.Int("size", len(pic.Data)))
	return pic, nil
}

// flatten puts picture on white background.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, imaging.Clone(img), image.Point{}, 1.0)
}
