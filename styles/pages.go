package styles

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// A4 with 2cm margins, used when document does not say otherwise.
var defaultGeometry = Geometry{
	Width:  595.28,
	Height: 841.89,
	Margin: [4]float64{56.69, 56.69, 56.69, 56.69},
}

// Geometry is page size and margins in points.
type Geometry struct {
	Width, Height float64
	Margin        [4]float64 // top, right, bottom, left
}

// DefaultGeometry returns A4 geometry.
func DefaultGeometry() Geometry {
	return defaultGeometry
}

// Region describes header or footer area of page layout.
type Region struct {
	MinHeight float64
	Spacing   float64 // distance to body
}

// PageLayout is "style:page-layout".
type PageLayout struct {
	Name     string
	Geometry Geometry
	Header   Region
	Footer   Region
}

func parsePageLayout(el *etree.Element) *PageLayout {
	pl := &PageLayout{
		Name:     el.SelectAttrValue("style:name", ""),
		Geometry: defaultGeometry,
	}
	if p := el.SelectElement("style:page-layout-properties"); p != nil {
		g := &pl.Geometry
		setLength(p, "fo:page-width", &g.Width)
		setLength(p, "fo:page-height", &g.Height)
		if v, err := ParseLength(p.SelectAttrValue("fo:margin", "")); err == nil {
			g.Margin = [4]float64{v, v, v, v}
		}
		for i, side := range []string{"top", "right", "bottom", "left"} {
			setLength(p, "fo:margin-"+side, &g.Margin[i])
		}
	}
	for tag, r := range map[string]*Region{"style:header-style": &pl.Header, "style:footer-style": &pl.Footer} {
		hs := el.SelectElement(tag)
		if hs == nil {
			continue
		}
		if p := hs.SelectElement("style:header-footer-properties"); p != nil {
			setLength(p, "fo:min-height", &r.MinHeight)
			if tag == "style:header-style" {
				setLength(p, "fo:margin-bottom", &r.Spacing)
			} else {
				setLength(p, "fo:margin-top", &r.Spacing)
			}
		}
	}
	return pl
}

func setLength(el *etree.Element, attr string, dst *float64) {
	if a := el.SelectAttr(attr); a != nil {
		if v, err := ParseLength(a.Value); err == nil {
			*dst = v
		}
	}
}

// MasterPage is "style:master-page", header and footer are kept as
// document elements and laid out by renderer for every page.
type MasterPage struct {
	Name       string
	PageLayout string
	Next       string
	Header     *etree.Element
	Footer     *etree.Element
}

func parseMasterPage(el *etree.Element) *MasterPage {
	mp := &MasterPage{
		Name:       el.SelectAttrValue("style:name", ""),
		PageLayout: el.SelectAttrValue("style:page-layout-name", ""),
		Next:       el.SelectAttrValue("style:next-style-name", ""),
	}
	if h := el.SelectElement("style:header"); h != nil && h.SelectAttrValue("style:display", "true") != "false" {
		mp.Header = h
	}
	if f := el.SelectElement("style:footer"); f != nil && f.SelectAttrValue("style:display", "true") != "false" {
		mp.Footer = f
	}
	return mp
}

// ListLevel describes single level of list style.
type ListLevel struct {
	Bullet     string // bullet character, empty for numbered levels
	NumFormat  string // "1", "a", "A", "i", "I" or empty
	NumPrefix  string
	NumSuffix  string
	StartValue int
	Indent     float64 // distance from list start to text
	LabelWidth float64
}

// ListStyle is "text:list-style".
type ListStyle struct {
	Name   string
	Levels map[int]*ListLevel
}

// Level returns list level settings, levels are 1 based. Missing levels
// get bullet with indent proportional to level.
func (ls *ListStyle) Level(n int) *ListLevel {
	if ls != nil {
		if l, ok := ls.Levels[n]; ok {
			return l
		}
	}
	return &ListLevel{Bullet: "•", Indent: 18 * float64(n), LabelWidth: 18, StartValue: 1}
}

func parseListStyle(el *etree.Element) *ListStyle {
	ls := &ListStyle{
		Name:   el.SelectAttrValue("style:name", ""),
		Levels: make(map[int]*ListLevel),
	}
	for _, child := range el.ChildElements() {
		n, err := strconv.Atoi(child.SelectAttrValue("text:level", ""))
		if err != nil || n < 1 {
			continue
		}
		l := &ListLevel{Indent: 18 * float64(n), LabelWidth: 18, StartValue: 1}
		switch child.FullTag() {
		case "text:list-level-style-bullet":
			l.Bullet = child.SelectAttrValue("text:bullet-char", "•")
		case "text:list-level-style-number":
			l.NumFormat = child.SelectAttrValue("style:num-format", "1")
			l.NumPrefix = child.SelectAttrValue("style:num-prefix", "")
			l.NumSuffix = child.SelectAttrValue("style:num-suffix", ".")
			if v, err := strconv.Atoi(child.SelectAttrValue("text:start-value", "1")); err == nil {
				l.StartValue = v
			}
		default:
			continue
		}
		if p := child.SelectElement("style:list-level-properties"); p != nil {
			var indent, minLabel float64
			setLength(p, "text:space-before", &indent)
			setLength(p, "text:min-label-width", &minLabel)
			if a := p.SelectElement("style:list-level-label-alignment"); a != nil {
				// newer documents keep positions here
				var margin, textIndent float64
				setLength(a, "fo:margin-left", &margin)
				setLength(a, "fo:text-indent", &textIndent)
				if margin > 0 {
					indent, minLabel = margin+textIndent, -textIndent
				}
			}
			if minLabel > 0 {
				l.LabelWidth = minLabel
			}
			l.Indent = indent + l.LabelWidth
		}
		ls.Levels[n] = l
	}
	return ls
}

// Label formats list label for item number n (1 based counter already
// offset by start value).
func (l *ListLevel) Label(n int) string {
	if len(l.NumFormat) == 0 {
		return l.Bullet
	}
	return l.NumPrefix + formatNumber(n, l.NumFormat) + l.NumSuffix
}

func formatNumber(n int, format string) string {
	switch format {
	case "a", "A":
		s := ""
		for n > 0 {
			n--
			s = string(rune('a'+n%26)) + s
			n /= 26
		}
		if format == "A" {
			s = strings.ToUpper(s)
		}
		return s
	case "i", "I":
		s := roman(n)
		if format == "i" {
			s = strings.ToLower(s)
		}
		return s
	case "":
		return ""
	default:
		return strconv.Itoa(n)
	}
}

func roman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}
