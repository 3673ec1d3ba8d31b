package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"odfc/styles"
)

// PDFOptions configures gofpdf backend.
type PDFOptions struct {
	// Archival adds PDF/A identification to document metadata.
	Archival bool
	Compress bool
	// FontsDir is searched for TrueType fonts matching requested families.
	FontsDir string
	// Document information dictionary.
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Creator  string
	// Created is stamped into the document, zero means now.
	Created time.Time
	// DocumentID is used for XMP identification, generated when empty.
	DocumentID string
}

// PDF is Backend producing PDF through gofpdf.
type PDF struct {
	pdf   *gofpdf.Fpdf
	fonts *fontSet
	log   *zap.Logger

	font   Font
	face   resolvedFace
	faces  map[string]resolvedFace
	images map[string]bool
}

// NewPDFFactory returns factory creating PDF backend for every pass. Font
// directory is scanned once and shared between passes.
func NewPDFFactory(opts PDFOptions, log *zap.Logger) BackendFactory {
	fonts := newFontSet(opts.FontsDir, log)
	if opts.Archival && len(opts.DocumentID) == 0 {
		opts.DocumentID = uuid.NewString()
	}
	if opts.Created.IsZero() {
		opts.Created = time.Now()
	}
	return func() Backend {
		return newPDF(opts, fonts, log)
	}
}

func newPDF(opts PDFOptions, fonts *fontSet, log *zap.Logger) *PDF {
	g := styles.DefaultGeometry()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(opts.Created)
	pdf.SetModificationDate(opts.Created)
	if len(opts.Title) > 0 {
		pdf.SetTitle(opts.Title, true)
	}
	if len(opts.Author) > 0 {
		pdf.SetAuthor(opts.Author, true)
	}
	if len(opts.Subject) > 0 {
		pdf.SetSubject(opts.Subject, true)
	}
	if len(opts.Keywords) > 0 {
		pdf.SetKeywords(strings.Join(opts.Keywords, ", "), true)
	}
	if len(opts.Creator) > 0 {
		pdf.SetCreator(opts.Creator, true)
		pdf.SetProducer(opts.Creator, true)
	}
	if opts.Archival {
		if data, err := xmpPacket(opts); err != nil {
			pdf.SetError(fmt.Errorf("unable to build xmp metadata: %w", err))
		} else {
			pdf.SetXmpMetadata(data)
		}
	}
	return &PDF{
		pdf:    pdf,
		fonts:  fonts,
		log:    log,
		faces:  make(map[string]resolvedFace),
		images: make(map[string]bool),
	}
}

func (p *PDF) AddPage(width, height float64) {
	orientation := "P"
	if width > height {
		orientation = "L"
	}
	p.pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: width, Ht: height})
}

func (p *PDF) SetFont(f Font) {
	if f == p.font {
		return
	}
	p.font = f
	key := f.Family + "/" + styleString(f.Bold, f.Italic)
	face, ok := p.faces[key]
	if !ok {
		face = p.fonts.resolve(p.pdf, f)
		p.faces[key] = face
	}
	p.face = face
	p.pdf.SetFont(p.face.family, p.face.style, f.Size)
}

func (p *PDF) encode(s string) string {
	if p.face.utf8 {
		return s
	}
	return toWinAnsi(s)
}

func (p *PDF) TextWidth(s string) float64 {
	return p.pdf.GetStringWidth(p.encode(s))
}

func (p *PDF) Text(x, y float64, s string, c colorful.Color) {
	r, g, b := c.RGB255()
	p.pdf.SetTextColor(int(r), int(g), int(b))
	p.pdf.Text(x, y, p.encode(s))
}

func (p *PDF) Fill(x, y, w, h float64, c colorful.Color) {
	r, g, b := c.RGB255()
	p.pdf.SetFillColor(int(r), int(g), int(b))
	p.pdf.Rect(x, y, w, h, "F")
}

func (p *PDF) Line(x1, y1, x2, y2, width float64, c colorful.Color) {
	r, g, b := c.RGB255()
	p.pdf.SetDrawColor(int(r), int(g), int(b))
	p.pdf.SetLineWidth(width)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *PDF) Image(pic *Picture, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: pic.Type, ReadDpi: true}
	if !p.images[pic.Name] {
		p.pdf.RegisterImageOptionsReader(pic.Name, opts, bytes.NewReader(pic.Data))
		p.images[pic.Name] = true
	}
	p.pdf.ImageOptions(pic.Name, x, y, w, h, false, opts, 0, "")
}

func (p *PDF) Output(w io.Writer) error {
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("pdf generation failed: %w", err)
	}
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("unable to write pdf: %w", err)
	}
	return nil
}

var winAnsi = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// toWinAnsi transcodes text for core fonts which only know Windows-1252,
// unsupported characters are replaced.
func toWinAnsi(s string) string {
	out, err := winAnsi.String(s)
	if err != nil {
		return s
	}
	return out
}

type resolvedFace struct {
	family string
	style  string
	utf8   bool
}

// fontSet maps requested families onto TrueType files from fonts
// directory or PDF core fonts.
type fontSet struct {
	log   *zap.Logger
	files map[string]string // normalized name -> path
}

func newFontSet(dir string, log *zap.Logger) *fontSet {
	fs := &fontSet{log: log, files: make(map[string]string)}
	if len(dir) == 0 {
		return fs
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("Unable to read fonts directory, using core fonts", zap.String("dir", dir), zap.Error(err))
		return fs
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		fs.files[normalizeFontName(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))] = filepath.Join(dir, e.Name())
	}
	log.Debug("Fonts directory scanned", zap.String("dir", dir), zap.Int("fonts", len(fs.files)))
	return fs
}

func normalizeFontName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name)
}

func styleString(bold, italic bool) string {
	switch {
	case bold && italic:
		return "BI"
	case bold:
		return "B"
	case italic:
		return "I"
	}
	return ""
}

// resolve registers TrueType font with the document, callers cache the
// result per document.
func (fs *fontSet) resolve(pdf *gofpdf.Fpdf, f Font) resolvedFace {
	style := styleString(f.Bold, f.Italic)
	core := resolvedFace{family: coreFamily(f.Family), style: style}

	path, ok := fs.lookup(f.Family, style)
	if !ok {
		return core
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fs.log.Warn("Unable to read font, using core font", zap.String("file", path), zap.Error(err))
		return core
	}
	family := "ttf-" + normalizeFontName(f.Family)
	pdf.AddUTF8FontFromBytes(family, style, data)
	// gofpdf silently skips fonts it cannot parse
	if err := pdf.Error(); err != nil || pdf.GetFontDesc(family, style).Ascent == 0 {
		fs.log.Warn("Unable to load font, using core font", zap.String("file", path), zap.Error(err))
		pdf.ClearError()
		return core
	}
	return resolvedFace{family: family, style: style, utf8: true}
}

func (fs *fontSet) lookup(family, style string) (string, bool) {
	base := normalizeFontName(family)
	if len(base) == 0 {
		return "", false
	}
	var suffixes []string
	switch style {
	case "BI":
		suffixes = []string{"bolditalic", "boldoblique", "bi", "z"}
	case "B":
		suffixes = []string{"bold", "b", "bd"}
	case "I":
		suffixes = []string{"italic", "oblique", "i"}
	default:
		suffixes = []string{"", "regular", "r"}
	}
	for _, s := range suffixes {
		if path, ok := fs.files[base+s]; ok {
			return path, true
		}
	}
	return "", false
}

// coreFamily picks closest of the standard PDF fonts.
func coreFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"), strings.Contains(f, "consol"):
		return "Courier"
	case strings.Contains(f, "sans"), strings.Contains(f, "arial"), strings.Contains(f, "helvetica"),
		strings.Contains(f, "verdana"), strings.Contains(f, "calibri"):
		return "Helvetica"
	case strings.Contains(f, "serif"), strings.Contains(f, "times"), strings.Contains(f, "georgia"),
		strings.Contains(f, "cambria"), strings.Contains(f, "roman"):
		return "Times"
	}
	return "Helvetica"
}

// xmpPacket builds PDF/A identification metadata.
func xmpPacket(opts PDFOptions) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xpacket", "begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"")

	meta := doc.CreateElement("x:xmpmeta")
	meta.CreateAttr("xmlns:x", "adobe:ns:meta/")
	rdf := meta.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#")

	description := func(prefix, ns string) *etree.Element {
		d := rdf.CreateElement("rdf:Description")
		d.CreateAttr("rdf:about", "")
		d.CreateAttr("xmlns:"+prefix, ns)
		return d
	}

	id := description("pdfaid", "http://www.aiim.org/pdfa/ns/id/")
	id.CreateElement("pdfaid:part").SetText("1")
	id.CreateElement("pdfaid:conformance").SetText("B")

	description("xmpMM", "http://ns.adobe.com/xap/1.0/mm/").
		CreateElement("xmpMM:DocumentID").SetText("uuid:" + opts.DocumentID)

	basic := description("xmp", "http://ns.adobe.com/xap/1.0/")
	basic.CreateElement("xmp:CreateDate").SetText(opts.Created.Format(time.RFC3339))
	if len(opts.Creator) > 0 {
		basic.CreateElement("xmp:CreatorTool").SetText(opts.Creator)
	}

	if len(opts.Title) > 0 {
		li := description("dc", "http://purl.org/dc/elements/1.1/").
			CreateElement("dc:title").CreateElement("rdf:Alt").CreateElement("rdf:li")
		li.CreateAttr("xml:lang", "x-default")
		li.SetText(opts.Title)
	}

	doc.CreateProcInst("xpacket", `end="w"`)
	doc.Indent(1)
	return doc.WriteToBytes()
}
