// Package odf loads OpenDocument text documents (zip packages and flat XML)
// and converts content into typed node tree consumed by renderer.
package odf

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Media types of supported documents.
const (
	MimeText         = "application/vnd.oasis.opendocument.text"
	MimeTextTemplate = "application/vnd.oasis.opendocument.text-template"
)

// ErrNotDocument is returned when input is neither ODF package nor flat ODF.
var ErrNotDocument = errors.New("not an OpenDocument text")

// Document is loaded ODF text document. For flat documents Content holds
// everything and Styles and MetaDoc are nil.
type Document struct {
	Name     string
	Flat     bool
	Content  *etree.Document
	Styles   *etree.Document
	MetaDoc  *etree.Document
	Pictures map[string][]byte
}

// Open reads document from file.
func Open(name string, fixZip bool, log *zap.Logger) (*Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	return Read(data, name, fixZip, log)
}

// Read parses document from memory, zip packages are recognized by
// signature, anything else is treated as flat XML.
func Read(data []byte, name string, fixZip bool, log *zap.Logger) (*Document, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return readPackage(data, name, fixZip, log)
	}
	return readFlat(data, name)
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	return doc
}

func readFlat(data []byte, name string) (*Document, error) {
	doc := newXMLDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse flat document: %w", err)
	}
	root := doc.Root()
	if root == nil || root.FullTag() != "office:document" {
		return nil, ErrNotDocument
	}
	if mt := root.SelectAttrValue("office:mimetype", MimeText); !isTextMime(mt) {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrNotDocument, mt)
	}
	return &Document{
		Name:     name,
		Flat:     true,
		Content:  doc,
		Pictures: flatPictures(root),
	}, nil
}

func isTextMime(mt string) bool {
	return mt == MimeText || mt == MimeTextTemplate
}

func readPackage(data []byte, name string, fixZip bool, log *zap.Logger) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if !fixZip {
			return nil, fmt.Errorf("unable to open document package: %w", err)
		}
		log.Debug("Attempting to repair document package", zap.String("file", name), zap.Error(err))
		if data, err = repairPackage(data); err != nil {
			return nil, fmt.Errorf("unable to repair document package: %w", err)
		}
		if zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, fmt.Errorf("unable to open repaired document package: %w", err)
		}
	}

	d := &Document{Name: name, Pictures: make(map[string][]byte)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case f.Name == "mimetype":
			mt, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			if !isTextMime(strings.TrimSpace(string(mt))) {
				return nil, fmt.Errorf("%w: unsupported media type %q", ErrNotDocument, mt)
			}
		case f.Name == "content.xml":
			if d.Content, err = readXMLEntry(f); err != nil {
				return nil, err
			}
		case f.Name == "styles.xml":
			if d.Styles, err = readXMLEntry(f); err != nil {
				return nil, err
			}
		case f.Name == "meta.xml":
			if d.MetaDoc, err = readXMLEntry(f); err != nil {
				// metadata is optional
				log.Warn("Unable to read document metadata", zap.String("file", name), zap.Error(err))
			}
		case strings.HasPrefix(f.Name, "Pictures/") || strings.HasPrefix(f.Name, "media/"):
			if !safeEntry(f.Name) {
				log.Warn("Skipping picture with unsafe name", zap.String("path", f.Name))
				continue
			}
			b, err := readEntry(f)
			if err != nil {
				log.Warn("Unable to read picture", zap.String("path", f.Name), zap.Error(err))
				continue
			}
			d.Pictures[f.Name] = b
		}
	}
	if d.Content == nil {
		return nil, fmt.Errorf("%w: content.xml is missing", ErrNotDocument)
	}
	return d, nil
}

func safeEntry(name string) bool {
	if path.IsAbs(name) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

func readEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", f.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", f.Name, err)
	}
	return data, nil
}

func readXMLEntry(f *zip.File) (*etree.Document, error) {
	data, err := readEntry(f)
	if err != nil {
		return nil, err
	}
	doc := newXMLDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", f.Name, err)
	}
	return doc, nil
}

// repairPackage rewrites zip package dropping data descriptors, some
// generators produce archives standard reader refuses.
func repairPackage(data []byte) ([]byte, error) {
	r, err := fixzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	w := fixzip.NewWriter(buf)
	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentRoot(doc *etree.Document) *etree.Element {
	if doc == nil {
		return nil
	}
	return doc.Root()
}

func section(doc *etree.Document, tag string) *etree.Element {
	root := contentRoot(doc)
	if root == nil {
		return nil
	}
	return root.SelectElement(tag)
}

// FontFaceDecls returns font declarations from styles and content.
func (d *Document) FontFaceDecls() []*etree.Element {
	var out []*etree.Element
	if el := section(d.Styles, "office:font-face-decls"); el != nil {
		out = append(out, el)
	}
	if el := section(d.Content, "office:font-face-decls"); el != nil {
		out = append(out, el)
	}
	return out
}

// OfficeStyles returns named styles section.
func (d *Document) OfficeStyles() *etree.Element {
	if d.Flat {
		return section(d.Content, "office:styles")
	}
	return section(d.Styles, "office:styles")
}

// StylesAutomatic returns automatic styles of styles.xml (page layouts and
// styles used by headers and footers). Flat documents have only one
// automatic styles section, it is returned by ContentAutomatic.
func (d *Document) StylesAutomatic() *etree.Element {
	if d.Flat {
		return nil
	}
	return section(d.Styles, "office:automatic-styles")
}

// MasterStyles returns master pages section.
func (d *Document) MasterStyles() *etree.Element {
	if d.Flat {
		return section(d.Content, "office:master-styles")
	}
	return section(d.Styles, "office:master-styles")
}

// ContentAutomatic returns automatic styles of content.xml.
func (d *Document) ContentAutomatic() *etree.Element {
	return section(d.Content, "office:automatic-styles")
}

// StyleSections returns every style related section in registration
// order: font faces, named styles, styles.xml automatic styles, master
// styles, content automatic styles.
func (d *Document) StyleSections() []*etree.Element {
	out := d.FontFaceDecls()
	return append(out, d.OfficeStyles(), d.StylesAutomatic(), d.MasterStyles(), d.ContentAutomatic())
}

// Body returns office:text element.
func (d *Document) Body() *etree.Element {
	body := section(d.Content, "office:body")
	if body == nil {
		return nil
	}
	return body.SelectElement("office:text")
}
