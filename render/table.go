package render

import (
	"odfc/odf"
	"odfc/styles"
)

func (p *pass) table(n *odf.Node, width float64) ([]*box, error) {
	rec, err := p.r.doc.Catalog.Resolve(styles.FamilyTable, n.Style)
	if err != nil {
		return nil, layoutError(n, err)
	}

	avail := width - rec.MarginLeft - rec.MarginRight
	tw := avail
	if rec.Width > 0 && rec.Width < avail {
		tw = rec.Width
	}
	dx := rec.MarginLeft
	switch v, _ := rec.Prop("table:align"); v {
	case "center":
		dx += (avail - tw) / 2
	case "right":
		dx += avail - tw
	}

	ncols := len(n.Columns)
	for _, row := range n.Children {
		cols := 0
		for _, cell := range row.Children {
			cols += cell.ColSpan
		}
		ncols = max(ncols, cols)
	}
	if ncols == 0 {
		return nil, nil
	}
	widths, err := p.columnWidths(n.Columns, ncols, tw)
	if err != nil {
		return nil, layoutError(n, err)
	}

	var out []*box
	if rec.MarginTop > 0 {
		out = append(out, spacer(rec.MarginTop))
	}
	for _, row := range n.Children {
		b, err := p.tableRow(row, widths)
		if err != nil {
			return nil, layoutError(n, err)
		}
		out = append(out, b)
	}
	if rec.MarginBottom > 0 {
		out = append(out, spacer(rec.MarginBottom))
	}
	return shift(out, dx), nil
}

// columnWidths uses relative widths when every column has one, absolute
// widths (shrunk to fit) when every column has one, equal split otherwise.
func (p *pass) columnWidths(cols []string, n int, total float64) ([]float64, error) {
	abs := make([]float64, n)
	rel := make([]float64, n)
	for i := range min(n, len(cols)) {
		if len(cols[i]) == 0 {
			continue
		}
		rec, err := p.r.doc.Catalog.Resolve(styles.FamilyTableColumn, cols[i])
		if err != nil {
			return nil, err
		}
		abs[i], rel[i] = rec.ColumnWidth, rec.RelColumnWidth
	}

	widths := make([]float64, n)
	if sum, ok := total0(rel); ok {
		for i := range widths {
			widths[i] = total * rel[i] / sum
		}
		return widths, nil
	}
	if sum, ok := total0(abs); ok {
		scale := 1.0
		if sum > total {
			scale = total / sum
		}
		for i := range widths {
			widths[i] = abs[i] * scale
		}
		return widths, nil
	}
	for i := range widths {
		widths[i] = total / float64(n)
	}
	return widths, nil
}

// total0 sums values, ok is false when any value is not positive.
func total0(vals []float64) (float64, bool) {
	var sum float64
	for _, v := range vals {
		if v <= 0 {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

type cellLayout struct {
	rec    *styles.Record
	x, w   float64
	boxes  []*box
	height float64
}

// tableRow lays row out as single box, rows are moved to the next page as
// a whole. Row spans are not honored, spanning cell occupies its row only.
func (p *pass) tableRow(row *odf.Node, widths []float64) (*box, error) {
	rowRec, err := p.r.doc.Catalog.Resolve(styles.FamilyTableRow, row.Style)
	if err != nil {
		return nil, err
	}
	height := 0.0
	for _, prop := range []string{"style:min-row-height", "style:row-height"} {
		if v, ok := rowRec.Prop(prop); ok {
			if h, err := styles.ParseLength(v); err == nil {
				height = max(height, h)
			}
		}
	}

	var (
		cells []*cellLayout
		col   int
		x     float64
	)
	for _, cell := range row.Children {
		if col >= len(widths) {
			break
		}
		rec, err := p.r.doc.Catalog.Resolve(styles.FamilyTableCell, cell.Style)
		if err != nil {
			return nil, err
		}
		var w float64
		for i := col; i < min(col+cell.ColSpan, len(widths)); i++ {
			w += widths[i]
		}
		col += cell.ColSpan

		inner := max(w-rec.Padding[styles.Left]-rec.Padding[styles.Right], 1)
		boxes, err := p.layoutBlocks(cell.Children, inner, &listState{})
		if err != nil {
			return nil, err
		}
		c := &cellLayout{rec: rec, x: x, w: w, boxes: boxes}
		for _, b := range boxes {
			if !b.brk {
				c.height += b.height
			}
		}
		c.height += rec.Padding[styles.Top] + rec.Padding[styles.Bottom]
		height = max(height, c.height)
		cells = append(cells, c)
		x += w
	}

	return &box{
		height: height,
		draw: func(p *pass, x, y float64) {
			for _, c := range cells {
				p.drawCell(c, x+c.x, y, height)
			}
		},
	}, nil
}

func (p *pass) drawCell(c *cellLayout, x, y, height float64) {
	rec := c.rec
	if rec.Background != nil {
		p.be.Fill(x, y, c.w, height, *rec.Background)
	}
	cy := y + rec.Padding[styles.Top]
	if v, _ := rec.Prop("style:vertical-align"); v == "middle" || v == "bottom" {
		free := height - c.height
		if v == "middle" {
			free /= 2
		}
		cy += free
	}
	for _, b := range c.boxes {
		if b.brk {
			continue
		}
		if b.draw != nil {
			b.draw(p, x+rec.Padding[styles.Left], cy)
		}
		cy += b.height
	}

	edges := [4][4]float64{
		{x, y, x + c.w, y},
		{x + c.w, y, x + c.w, y + height},
		{x, y + height, x + c.w, y + height},
		{x, y, x, y + height},
	}
	for side, b := range rec.Borders {
		if !b.Visible() {
			continue
		}
		e := edges[side]
		p.be.Line(e[0], e[1], e[2], e[3], b.Width, b.Color)
	}
}
