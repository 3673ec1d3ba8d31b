package odf

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Meta is document metadata from meta.xml (or office:meta of flat document).
type Meta struct {
	Title       string
	Subject     string
	Description string
	Creator     string
	Language    string
	Date        string
	Keywords    []string
	// PageCount is statistics value stored by the producing application.
	PageCount int
}

// Meta extracts document metadata, missing values are left empty.
func (d *Document) Meta() Meta {
	var m Meta

	src := d.MetaDoc
	if d.Flat {
		src = d.Content
	}
	meta := section(src, "office:meta")
	if meta == nil {
		return m
	}
	for _, el := range meta.ChildElements() {
		text := strings.TrimSpace(el.Text())
		switch el.FullTag() {
		case "dc:title":
			m.Title = text
		case "dc:subject":
			m.Subject = text
		case "dc:description":
			m.Description = text
		case "dc:creator":
			m.Creator = text
		case "meta:initial-creator":
			if len(m.Creator) == 0 {
				m.Creator = text
			}
		case "dc:language":
			m.Language = text
		case "dc:date":
			m.Date = text
		case "meta:creation-date":
			if len(m.Date) == 0 {
				m.Date = text
			}
		case "meta:keyword":
			m.Keywords = append(m.Keywords, text)
		case "meta:document-statistic":
			m.PageCount, _ = strconv.Atoi(el.SelectAttrValue("meta:page-count", "0"))
		}
	}
	return m
}

// flatPictures moves embedded binary pictures of flat document into
// pictures map and points draw:image elements to them.
func flatPictures(root *etree.Element) map[string][]byte {
	pictures := make(map[string][]byte)

	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		if el.FullTag() == "draw:image" {
			if bin := el.SelectElement("office:binary-data"); bin != nil {
				data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(bin.Text()), ""))
				if err == nil {
					name := fmt.Sprintf("Pictures/embedded-%d", len(pictures)+1)
					pictures[name] = data
					el.CreateAttr("xlink:href", name)
				}
				el.RemoveChild(bin)
			}
			return
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return pictures
}
