package render

import (
	"go.uber.org/zap"

	"odfc/odf"
	"odfc/styles"
)

// frameSize computes frame size in points, pictures without explicit
// size use their natural size at their resolution. Result fits into width
// and page body height keeping aspect ratio.
func (p *pass) frameSize(n *odf.Node, pic *Picture, width float64) (float64, float64) {
	w, _ := styles.ParseLength(n.Width)
	h, _ := styles.ParseLength(n.Height)
	if pic != nil && pic.Width > 0 && pic.Height > 0 {
		dpi := float64(pic.DPI)
		if dpi <= 0 {
			dpi = 96
		}
		pw, ph := float64(pic.Width)*72/dpi, float64(pic.Height)*72/dpi
		switch {
		case w <= 0 && h <= 0:
			w, h = pw, ph
		case w <= 0:
			w = h * pw / ph
		case h <= 0:
			h = w * ph / pw
		}
	}
	if w <= 0 {
		w = width
	}
	if h <= 0 {
		h = w * 0.75
	}

	if w > width && width > 0 {
		h, w = h*width/w, width
	}
	if limit := p.bodyHeight(); h > limit && limit > 0 {
		w, h = w*limit/h, limit
	}
	return w, h
}

// bodyHeight is height of the page area without margins.
func (p *pass) bodyHeight() float64 {
	g, _ := p.geometry(p.master)
	return g.Height - g.Margin[styles.Top] - g.Margin[styles.Bottom]
}

func (p *pass) picture(n *odf.Node) *Picture {
	if n == nil {
		return nil
	}
	pic, ok := p.r.doc.Pictures[n.Href]
	if !ok {
		p.warnOnce("picture:"+n.Href, "Picture not found", zap.String("href", n.Href))
		return nil
	}
	return pic
}

func imageChild(n *odf.Node) *odf.Node {
	for _, c := range n.Children {
		if c.Kind == odf.KindImage {
			return c
		}
	}
	return nil
}

// inlineImage returns item for frame anchored as character.
func (p *pass) inlineImage(n *odf.Node, width float64) *item {
	img := imageChild(n)
	if img == nil {
		return nil
	}
	pic := p.picture(img)
	w, h := p.frameSize(n, pic, width)
	return &item{kind: itemImage, width: w, height: h, pic: pic}
}

func (p *pass) frame(n *odf.Node, width float64) ([]*box, error) {
	if len(n.Style) > 0 {
		if _, err := p.r.doc.Catalog.Resolve(styles.FamilyGraphic, n.Style); err != nil {
			return nil, layoutError(n, err)
		}
	}

	if img := imageChild(n); img != nil {
		pic := p.picture(img)
		w, h := p.frameSize(n, pic, width)
		return []*box{{
			height: h,
			draw: func(p *pass, x, y float64) {
				if pic != nil {
					p.be.Image(pic, x, y, w, h)
				} else {
					p.placeholder(x, y, w, h)
				}
			},
		}}, nil
	}

	// text box
	w, _ := styles.ParseLength(n.Width)
	if w <= 0 || w > width {
		w = width
	}
	return p.layoutBlocks(n.Children, w, &listState{})
}
