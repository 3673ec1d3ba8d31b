package render

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"odfc/odf"
	"odfc/styles"
)

// default distance between tab stops
const tabStop = 36.0

// box is unit of vertical flow: a line of text, table row, image. Boxes
// are never split between pages.
type box struct {
	height float64
	// spacer is vertical space dropped at page boundary
	spacer bool
	// brk ends current page, master names master page for the next one
	brk    bool
	master string
	draw   func(p *pass, x, y float64)
}

func spacer(h float64) *box {
	return &box{height: h, spacer: true}
}

// shift moves boxes right.
func shift(boxes []*box, dx float64) []*box {
	if dx == 0 {
		return boxes
	}
	for _, b := range boxes {
		if b.draw == nil {
			continue
		}
		draw := b.draw
		b.draw = func(p *pass, x, y float64) { draw(p, x+dx, y) }
	}
	return boxes
}

// listState is list context of blocks being laid out.
type listState struct {
	style  *styles.ListStyle
	level  int
	indent float64
}

// listLabel is bullet or number waiting for first paragraph of list item.
type listLabel struct {
	text  string
	width float64
}

func (p *pass) layoutBlocks(nodes []*odf.Node, width float64, ls *listState) ([]*box, error) {
	return p.layoutItemBlocks(nodes, width, ls, nil)
}

func (p *pass) layoutItemBlocks(nodes []*odf.Node, width float64, ls *listState, label *listLabel) ([]*box, error) {
	var out []*box
	for _, n := range nodes {
		var (
			boxes []*box
			err   error
		)
		switch n.Kind {
		case odf.KindParagraph, odf.KindHeading:
			boxes, err = p.paragraph(n, width, label)
			label = nil
		case odf.KindList:
			boxes, err = p.list(n, width, ls)
		case odf.KindTable:
			boxes, err = p.table(n, width)
		case odf.KindSection:
			boxes, err = p.layoutItemBlocks(n.Children, width, ls, label)
			label = nil
		case odf.KindFrame:
			boxes, err = p.frame(n, width)
		case odf.KindPageBreak:
			boxes = []*box{{brk: true, master: n.Style}}
		default:
			// markers and stray inline content
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, boxes...)
	}
	return out, nil
}

func (p *pass) list(n *odf.Node, width float64, ls *listState) ([]*box, error) {
	style := ls.style
	if len(n.Style) > 0 {
		if s, ok := p.r.doc.Catalog.ListStyle(n.Style); ok {
			style = s
		} else {
			p.warnOnce("list:"+n.Style, "Unknown list style", zap.String("name", n.Style))
		}
	}
	level := style.Level(ls.level + 1)
	child := &listState{style: style, level: ls.level + 1, indent: level.Indent}
	dx := max(level.Indent-ls.indent, 0)

	var out []*box
	counter := level.StartValue
	for _, item := range n.Children {
		label := &listLabel{text: level.Label(counter), width: level.LabelWidth}
		counter++
		boxes, err := p.layoutItemBlocks(item.Children, width-dx, child, label)
		if err != nil {
			return nil, err
		}
		out = append(out, shift(boxes, dx)...)
	}
	return out, nil
}

func fontOf(rec *styles.Record) Font {
	return Font{Family: rec.FontName, Bold: rec.Bold, Italic: rec.Italic, Size: rec.FontSize}
}

func (p *pass) measure(rec *styles.Record, s string) float64 {
	p.be.SetFont(fontOf(rec))
	return p.be.TextWidth(s)
}

type itemKind int

const (
	itemWord itemKind = iota
	itemSpace
	itemTab
	itemBreak
	itemImage
)

// item is inline content atom.
type item struct {
	kind  itemKind
	text  string
	rec   *styles.Record
	field *odf.Node
	// hard spaces survive at line start
	hard          bool
	width, height float64
	pic           *Picture
}

func (it *item) metrics() (above, below float64) {
	if it.kind == itemImage {
		return it.height, 0
	}
	adv := it.rec.LineAdvance()
	above = (adv-it.rec.FontSize)/2 + it.rec.FontSize*0.8
	return above, adv - above
}

// line is laid out line of paragraph.
type line struct {
	items  []*item
	indent float64
	width  float64 // without trailing spaces
	above  float64
	below  float64
	// ended by explicit break or paragraph end, never justified
	last bool
}

func (l *line) height() float64 {
	return l.above + l.below
}

func (p *pass) paragraph(n *odf.Node, width float64, label *listLabel) ([]*box, error) {
	rec, err := p.r.doc.Catalog.Resolve(styles.FamilyParagraph, n.Style)
	if err != nil {
		return nil, layoutError(n, err)
	}
	items, floats, err := p.inlineItems(n.Children, rec, width)
	if err != nil {
		return nil, layoutError(n, err)
	}

	inner := width - rec.MarginLeft - rec.MarginRight
	lines := p.breakLines(items, inner, rec)

	var out []*box
	if rec.MarginTop > 0 {
		out = append(out, spacer(rec.MarginTop))
	}
	for i, ln := range lines {
		var lbl *listLabel
		if i == 0 {
			lbl = label
		}
		out = append(out, &box{
			height: ln.height(),
			draw: func(p *pass, x, y float64) {
				p.drawLine(ln, rec, lbl, x+rec.MarginLeft, y, inner)
			},
		})
	}
	for _, f := range floats {
		boxes, err := p.frame(f, inner)
		if err != nil {
			return nil, layoutError(n, err)
		}
		out = append(out, shift(boxes, rec.MarginLeft)...)
	}
	if rec.MarginBottom > 0 {
		out = append(out, spacer(rec.MarginBottom))
	}
	return out, nil
}

// inlineItems flattens paragraph content into items. Frames not anchored
// as characters are returned separately and placed after paragraph.
func (p *pass) inlineItems(nodes []*odf.Node, rec *styles.Record, width float64) (items []*item, floats []*odf.Node, err error) {
	var walk func(nodes []*odf.Node, rec *styles.Record) error
	walk = func(nodes []*odf.Node, rec *styles.Record) error {
		for _, n := range nodes {
			switch n.Kind {
			case odf.KindText:
				items = append(items, p.words(n.Text, rec)...)
			case odf.KindSpan:
				span, err := p.r.doc.Catalog.Resolve(styles.FamilyText, n.Style)
				if err != nil {
					return err
				}
				if err := walk(n.Children, rec.With(span)); err != nil {
					return err
				}
			case odf.KindSpace:
				w := p.measure(rec, " ")
				for range n.Count {
					items = append(items, &item{kind: itemSpace, text: " ", rec: rec, width: w, hard: true})
				}
			case odf.KindTab:
				items = append(items, &item{kind: itemTab, rec: rec})
			case odf.KindLineBreak:
				items = append(items, &item{kind: itemBreak, rec: rec})
			case odf.KindField:
				text := p.fieldText(n)
				items = append(items, &item{kind: itemWord, text: text, rec: rec, field: n, width: p.measure(rec, text)})
			case odf.KindFrame:
				if n.Anchor != "as-char" {
					floats = append(floats, n)
					continue
				}
				if it := p.inlineImage(n, width); it != nil {
					items = append(items, it)
				}
			}
		}
		return nil
	}
	err = walk(nodes, rec)
	return items, floats, err
}

// words splits text into word and space items.
func (p *pass) words(text string, rec *styles.Record) []*item {
	var out []*item
	for len(text) > 0 {
		i := strings.IndexByte(text, ' ')
		switch {
		case i < 0:
			out = append(out, &item{kind: itemWord, text: text, rec: rec, width: p.measure(rec, text)})
			text = ""
		case i == 0:
			out = append(out, &item{kind: itemSpace, text: " ", rec: rec, width: p.measure(rec, " ")})
			text = text[1:]
		default:
			out = append(out, &item{kind: itemWord, text: text[:i], rec: rec, width: p.measure(rec, text[:i])})
			text = text[i:]
		}
	}
	return out
}

// breakLines fills lines greedily. Words longer than the whole line are
// split between characters.
func (p *pass) breakLines(items []*item, width float64, rec *styles.Record) []*line {
	var (
		lines []*line
		cur   = &line{indent: rec.TextIndent}
	)
	finish := func(last bool) {
		cur.last = last
		trimTrailing(cur)
		if len(cur.items) == 0 {
			// empty line keeps paragraph line height
			cur.above, cur.below = (&item{rec: rec}).metrics()
		}
		lines = append(lines, cur)
		cur = &line{}
	}
	add := func(it *item) {
		cur.items = append(cur.items, it)
		cur.width += it.width
		a, b := it.metrics()
		cur.above, cur.below = max(cur.above, a), max(cur.below, b)
	}
	avail := func() float64 {
		return width - cur.indent
	}

	for _, it := range items {
		switch it.kind {
		case itemBreak:
			finish(true)
		case itemSpace:
			if len(cur.items) == 0 && !it.hard {
				continue
			}
			add(it)
		case itemTab:
			pos := cur.indent + cur.width
			stop := (math.Floor(pos/tabStop) + 1) * tabStop
			add(&item{kind: itemTab, rec: it.rec, width: stop - pos})
		default:
			if cur.width+it.width > avail() && hasContent(cur) {
				finish(false)
			}
			if it.kind == itemWord && it.width > avail() && it.field == nil {
				for _, piece := range p.splitWord(it, avail()) {
					if cur.width+piece.width > avail() && hasContent(cur) {
						finish(false)
					}
					add(piece)
				}
				continue
			}
			add(it)
		}
	}
	if len(cur.items) > 0 || len(lines) == 0 || lines[len(lines)-1].last {
		finish(true)
	} else {
		lines[len(lines)-1].last = true
	}
	return lines
}

func hasContent(l *line) bool {
	for _, it := range l.items {
		if it.kind != itemSpace || it.hard {
			return true
		}
	}
	return false
}

func trimTrailing(l *line) {
	for len(l.items) > 0 {
		last := l.items[len(l.items)-1]
		if last.kind != itemSpace {
			break
		}
		l.items = l.items[:len(l.items)-1]
		l.width -= last.width
	}
}

// splitWord cuts word into pieces not wider than width, at least one
// character each.
func (p *pass) splitWord(it *item, width float64) []*item {
	var (
		out   []*item
		runes = []rune(it.text)
		start = 0
	)
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && p.measure(it.rec, string(runes[start:end+1])) <= width {
			end++
		}
		s := string(runes[start:end])
		out = append(out, &item{kind: itemWord, text: s, rec: it.rec, width: p.measure(it.rec, s)})
		start = end
	}
	return out
}

func (p *pass) drawLine(ln *line, rec *styles.Record, label *listLabel, x, y, width float64) {
	if rec.Background != nil {
		p.be.Fill(x, y, width, ln.height(), *rec.Background)
	}
	baseline := y + ln.above

	if label != nil && len(label.text) > 0 {
		p.be.SetFont(fontOf(rec))
		p.be.Text(x-label.width, baseline, label.text, rec.Color)
	}

	offset := ln.indent
	free := width - ln.indent - ln.width
	var gap float64
	switch rec.Align {
	case "end", "right":
		offset += free
	case "center":
		offset += free / 2
	case "justify":
		if !ln.last && free > 0 {
			if n := countSpaces(ln); n > 0 {
				gap = free / float64(n)
			}
		}
	}

	cx := x + offset
	for _, it := range ln.items {
		switch it.kind {
		case itemWord:
			text := it.text
			if it.field != nil {
				text = p.fieldText(it.field)
			}
			p.drawText(it.rec, cx, baseline, text, it.width)
		case itemSpace:
			if it.rec.Background != nil && it.rec.Background != rec.Background {
				p.be.Fill(cx, baseline-it.rec.FontSize*0.8, it.width+gap, it.rec.FontSize, *it.rec.Background)
			}
			cx += gap
		case itemImage:
			if it.pic != nil {
				p.be.Image(it.pic, cx, baseline-it.height, it.width, it.height)
			} else {
				p.placeholder(cx, baseline-it.height, it.width, it.height)
			}
		}
		cx += it.width
	}
}

func countSpaces(l *line) int {
	n := 0
	for _, it := range l.items {
		if it.kind == itemSpace {
			n++
		}
	}
	return n
}

func (p *pass) drawText(rec *styles.Record, x, baseline float64, text string, width float64) {
	if rec.Background != nil {
		p.be.Fill(x, baseline-rec.FontSize*0.8, width, rec.FontSize, *rec.Background)
	}
	p.be.SetFont(fontOf(rec))
	p.be.Text(x, baseline, text, rec.Color)
	thickness := max(rec.FontSize/20, 0.5)
	if rec.Underline {
		p.be.Line(x, baseline+rec.FontSize*0.12, x+width, baseline+rec.FontSize*0.12, thickness, rec.Color)
	}
	if rec.LineThrough {
		p.be.Line(x, baseline-rec.FontSize*0.28, x+width, baseline-rec.FontSize*0.28, thickness, rec.Color)
	}
}

var placeholderColor = colorful.Color{R: 0.6, G: 0.6, B: 0.6}

// placeholder marks place of picture which could not be found.
func (p *pass) placeholder(x, y, w, h float64) {
	p.be.Line(x, y, x+w, y, 0.5, placeholderColor)
	p.be.Line(x+w, y, x+w, y+h, 0.5, placeholderColor)
	p.be.Line(x+w, y+h, x, y+h, 0.5, placeholderColor)
	p.be.Line(x, y+h, x, y, 0.5, placeholderColor)
	p.be.Line(x, y, x+w, y+h, 0.5, placeholderColor)
}
