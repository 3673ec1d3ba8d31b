package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"odfc/odf"
	"odfc/styles"
)

// Document is everything renderer needs: typed body, style catalog and
// prepared pictures keyed by package path.
type Document struct {
	Body     *odf.Node
	Catalog  *styles.Catalog
	Pictures map[string]*Picture
	Meta     odf.Meta
}

// Options controls rendering.
type Options struct {
	// ExpectedPageCount overrides cached page count of the document when
	// positive and document references page count at all.
	ExpectedPageCount int
	// Geometry is used when document has no master pages.
	Geometry styles.Geometry
}

// Result describes single rendering pass.
type Result struct {
	Pages int
	// Expected is page count document claims, nil when document never
	// references page count.
	Expected *int
	Bytes    int64
}

// Renderer lays document out. It keeps no state between passes and could be
// run any number of times.
type Renderer struct {
	doc        *Document
	opts       Options
	newBackend BackendFactory
	log        *zap.Logger

	expected *int
	regions  map[*styles.MasterPage]*regions
}

// regions are header and footer trees of master page.
type regions struct {
	header *odf.Node
	footer *odf.Node
}

// New prepares renderer. Style driven page breaks are turned into explicit
// nodes here, body tree is modified.
func New(doc *Document, newBackend BackendFactory, opts Options, log *zap.Logger) *Renderer {
	if opts.Geometry.Width <= 0 || opts.Geometry.Height <= 0 {
		opts.Geometry = styles.DefaultGeometry()
	}
	if doc.Body == nil {
		doc.Body = odf.BuildTree(nil)
	}
	r := &Renderer{
		doc:        doc,
		opts:       opts,
		newBackend: newBackend,
		log:        log.Named("render"),
		regions:    make(map[*styles.MasterPage]*regions),
	}
	odf.ApplyBreaks(doc.Body, r.breaks)
	for _, mp := range doc.Catalog.MasterPages() {
		r.regions[mp] = &regions{header: odf.BuildTree(mp.Header), footer: odf.BuildTree(mp.Footer)}
	}
	r.expected = r.expectedPages()
	return r
}

func (r *Renderer) breaks(n *odf.Node) (before, after bool, master string) {
	family := styles.FamilyParagraph
	switch n.Kind {
	case odf.KindParagraph, odf.KindHeading:
	case odf.KindTable:
		family = styles.FamilyTable
	default:
		return false, false, ""
	}
	rec, err := r.doc.Catalog.Resolve(family, n.Style)
	if err != nil {
		// reported when node is laid out
		return false, false, ""
	}
	return rec.BreakBefore, rec.BreakAfter, rec.MasterPage
}

// expectedPages looks for first page count field in body, then in headers
// and footers.
func (r *Renderer) expectedPages() *int {
	field := findField(r.doc.Body, odf.FieldPageCount)
	if field == nil {
		for _, mp := range r.doc.Catalog.MasterPages() {
			rg := r.regions[mp]
			if field = findField(rg.header, odf.FieldPageCount); field != nil {
				break
			}
			if field = findField(rg.footer, odf.FieldPageCount); field != nil {
				break
			}
		}
	}
	if field == nil {
		return nil
	}
	n := r.opts.ExpectedPageCount
	if n <= 0 {
		// not a number means no reliable expectation, 0 never matches
		n, _ = strconv.Atoi(strings.TrimSpace(field.Text))
	}
	return &n
}

func findField(n *odf.Node, kind odf.FieldKind) *odf.Node {
	if n == nil {
		return nil
	}
	if n.Kind == odf.KindField && n.Field == kind {
		return n
	}
	for _, c := range n.Children {
		if f := findField(c, kind); f != nil {
			return f
		}
	}
	return nil
}

// Expected returns page count document claims to have.
func (r *Renderer) Expected() *int {
	return r.expected
}

// Render performs single pass writing complete document to w. When forced
// is not nil every page count field shows it.
func (r *Renderer) Render(w io.Writer, forced *int) (Result, error) {
	res := Result{Expected: r.expected}

	p := &pass{
		r:      r,
		be:     r.newBackend(),
		forced: forced,
	}
	if err := p.run(); err != nil {
		return res, err
	}
	res.Pages = p.page

	cw := &countingWriter{w: w}
	if err := p.be.Output(cw); err != nil {
		return res, err
	}
	res.Bytes = cw.n

	r.log.Debug("Pass rendered", zap.Int("pages", res.Pages), zap.Int64("bytes", res.Bytes), zap.Bool("forced", forced != nil))
	return res, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	cw.n += int64(n)
	return n, err
}

// pass is state of one rendering pass.
type pass struct {
	r      *Renderer
	be     Backend
	forced *int

	page   int
	master *styles.MasterPage
	// master page for next page, set by explicit switches
	nextMaster *styles.MasterPage
	geom       styles.Geometry
	open       bool

	// content box of current page
	top, bottom, left, width float64
	y                        float64

	warned map[string]bool
}

func (p *pass) run() error {
	p.warned = make(map[string]bool)
	p.master, _ = p.r.doc.Catalog.MasterPage("")

	boxes, err := p.layoutBlocks(p.r.doc.Body.Children, p.contentWidth(p.master), &listState{})
	if err != nil {
		return err
	}
	for _, b := range boxes {
		if err := p.place(b); err != nil {
			return err
		}
	}
	if !p.open {
		// document always has at least one page
		return p.startPage()
	}
	return nil
}

// place puts box on the page flow breaking pages as necessary.
func (p *pass) place(b *box) error {
	switch {
	case b.brk:
		if len(b.master) > 0 {
			if mp, ok := p.r.doc.Catalog.MasterPage(b.master); ok {
				p.nextMaster = mp
			} else {
				p.warnOnce("master:"+b.master, "Unknown master page", zap.String("name", b.master))
			}
		}
		p.open = false
		return nil
	case b.spacer:
		// spacing is dropped at page boundaries
		if p.open && p.y+b.height <= p.bottom {
			p.y += b.height
		}
		return nil
	}

	if !p.open || (p.y+b.height > p.bottom && p.y > p.top) {
		if err := p.startPage(); err != nil {
			return err
		}
	}
	b.draw(p, p.left, p.y)
	p.y += b.height
	return nil
}

func (p *pass) geometry(mp *styles.MasterPage) (styles.Geometry, *styles.PageLayout) {
	if mp != nil {
		if pl, ok := p.r.doc.Catalog.PageLayout(mp.PageLayout); ok {
			return pl.Geometry, pl
		}
	}
	return p.r.opts.Geometry, nil
}

func (p *pass) contentWidth(mp *styles.MasterPage) float64 {
	g, _ := p.geometry(mp)
	return g.Width - g.Margin[styles.Left] - g.Margin[styles.Right]
}

func (p *pass) startPage() error {
	switch {
	case p.nextMaster != nil:
		p.master, p.nextMaster = p.nextMaster, nil
	case p.page > 0 && p.master != nil && len(p.master.Next) > 0:
		if mp, ok := p.r.doc.Catalog.MasterPage(p.master.Next); ok {
			p.master = mp
		}
	}

	g, pl := p.geometry(p.master)
	p.page++
	p.open = true
	p.geom = g
	p.be.AddPage(g.Width, g.Height)

	p.left = g.Margin[styles.Left]
	p.width = g.Width - g.Margin[styles.Left] - g.Margin[styles.Right]
	p.top = g.Margin[styles.Top]
	p.bottom = g.Height - g.Margin[styles.Bottom]

	p.y = p.top
	rg := p.r.regions[p.master]
	if rg == nil {
		return nil
	}
	if len(rg.header.Children) > 0 {
		h, err := p.region(rg.header, p.top, pl, true)
		if err != nil {
			return fmt.Errorf("header of page %d: %w", p.page, err)
		}
		p.top += h
	}
	if len(rg.footer.Children) > 0 {
		h, err := p.region(rg.footer, p.bottom, pl, false)
		if err != nil {
			return fmt.Errorf("footer of page %d: %w", p.page, err)
		}
		p.bottom -= h
	}
	p.y = p.top
	return nil
}

// region draws header (at top) or footer (ending at bottom) and returns
// space it occupies including spacing to body.
func (p *pass) region(tree *odf.Node, at float64, pl *styles.PageLayout, header bool) (float64, error) {
	var reg styles.Region
	if pl != nil {
		reg = pl.Footer
		if header {
			reg = pl.Header
		}
	}
	boxes, err := p.layoutBlocks(tree.Children, p.width, &listState{})
	if err != nil {
		return 0, err
	}
	var h float64
	for _, b := range boxes {
		if !b.brk {
			h += b.height
		}
	}
	h = max(h, reg.MinHeight)

	y := at
	if !header {
		y = at - h
	}
	for _, b := range boxes {
		if b.brk || b.spacer {
			if b.spacer {
				y += b.height
			}
			continue
		}
		b.draw(p, p.left, y)
		y += b.height
	}
	return h + reg.Spacing, nil
}

// fieldText returns value shown for field at the time of drawing.
func (p *pass) fieldText(n *odf.Node) string {
	switch n.Field {
	case odf.FieldPageNumber:
		return strconv.Itoa(max(p.page, 1))
	case odf.FieldPageCount:
		if p.forced != nil {
			return strconv.Itoa(*p.forced)
		}
		return n.Text
	case odf.FieldTitle:
		if len(n.Text) == 0 {
			return p.r.doc.Meta.Title
		}
	}
	return n.Text
}

func (p *pass) warnOnce(key, msg string, fields ...zap.Field) {
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	p.r.log.Warn(msg, fields...)
}

// IsUnknownStyle reports whether err was caused by reference to undefined
// style.
func IsUnknownStyle(err error) bool {
	var use *styles.UnknownStyleError
	return errors.As(err, &use)
}

func layoutError(n *odf.Node, err error) error {
	return fmt.Errorf("unable to lay out %s: %w", strings.ToLower(n.Kind.String()), err)
}
