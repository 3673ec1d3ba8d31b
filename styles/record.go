package styles

import (
	"maps"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Default text metrics when nothing is specified anywhere.
const (
	DefaultFontSize   = 12.0
	DefaultLineHeight = 1.15
)

// Record is fully resolved style: inheritance chain flattened and attribute
// values decoded into render friendly form. Lengths are in points.
type Record struct {
	Name   string
	Family Family

	FontName    string
	FontSize    float64
	Bold        bool
	Italic      bool
	Underline   bool
	LineThrough bool
	Color       colorful.Color
	Background  *colorful.Color

	Align        string // start, end, left, right, center, justify
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	TextIndent   float64
	// LineHeight is multiplier of font size, LineHeightAbs when set wins.
	LineHeight    float64
	LineHeightAbs float64

	Borders [4]Border // top, right, bottom, left
	Padding [4]float64

	BreakBefore  bool
	BreakAfter   bool
	KeepTogether bool

	Width          float64 // tables, frames
	ColumnWidth    float64
	RelColumnWidth float64

	MasterPage string
	ListStyle  string

	props       map[string]string
	defaultFont string
	faces       map[string]string
}

// Sides order used by Borders and Padding.
const (
	Top = iota
	Right
	Bottom
	Left
)

// Prop returns raw merged attribute value.
func (r *Record) Prop(name string) (string, bool) {
	v, ok := r.props[name]
	return v, ok
}

// With returns new record which is r overridden by child properties, used
// to apply text (span) styles on top of enclosing paragraph.
func (r *Record) With(child *Record) *Record {
	if child == nil || len(child.props) == 0 {
		return r
	}
	merged := make(map[string]string, len(r.props)+len(child.props))
	maps.Copy(merged, r.props)
	mergeProps(merged, child.props)
	return decode(child.Name, r.Family, merged, r.defaultFont, r.faces)
}

// mergeProps copies src over dst resolving relative font sizes against the
// value already present in dst. Percentage without a base stays relative.
func mergeProps(dst, src map[string]string) {
	for k, v := range src {
		if k == "fo:font-size" {
			if pct, ok := ParsePercent(v); ok {
				if cur, err := ParseLength(dst[k]); err == nil {
					v = strconv.FormatFloat(cur*pct, 'f', -1, 64) + "pt"
				} else if curPct, ok := ParsePercent(dst[k]); ok {
					v = strconv.FormatFloat(curPct*pct*100, 'f', -1, 64) + "%"
				}
			}
		}
		dst[k] = v
	}
}

func decode(name string, family Family, props map[string]string, defaultFont string, faces map[string]string) *Record {
	r := &Record{
		Name:        name,
		Family:      family,
		FontName:    defaultFont,
		FontSize:    DefaultFontSize,
		LineHeight:  DefaultLineHeight,
		Align:       "start",
		props:       props,
		defaultFont: defaultFont,
		faces:       faces,
	}

	length := func(key string) float64 {
		v, err := ParseLength(props[key])
		if err != nil {
			return 0
		}
		return v
	}

	if v, ok := props["style:font-name"]; ok && len(v) > 0 {
		r.FontName = v
		if f, ok := faces[v]; ok {
			r.FontName = f
		}
	} else if v, ok := props["fo:font-family"]; ok && len(v) > 0 {
		r.FontName = strings.Trim(v, `'"`)
	}
	if v, err := ParseLength(props["fo:font-size"]); err == nil && v > 0 {
		r.FontSize = v
	} else if pct, ok := ParsePercent(props["fo:font-size"]); ok && pct > 0 {
		r.FontSize = DefaultFontSize * pct
	}
	switch w := props["fo:font-weight"]; w {
	case "bold", "bolder":
		r.Bold = true
	default:
		if n, err := strconv.Atoi(w); err == nil && n >= 600 {
			r.Bold = true
		}
	}
	switch props["fo:font-style"] {
	case "italic", "oblique":
		r.Italic = true
	}
	if v, ok := props["style:text-underline-style"]; ok && v != "none" {
		r.Underline = true
	}
	if v, ok := props["style:text-line-through-style"]; ok && v != "none" {
		r.LineThrough = true
	}
	if c, ok := ParseColor(props["fo:color"]); ok {
		r.Color = c
	}
	if c, ok := ParseColor(props["fo:background-color"]); ok {
		r.Background = &c
	}

	if v, ok := props["fo:text-align"]; ok && len(v) > 0 {
		r.Align = v
	}
	all := length("fo:margin")
	lengthOr := func(key string, def float64) float64 {
		if v, err := ParseLength(props[key]); err == nil {
			return v
		}
		return def
	}
	r.MarginTop = lengthOr("fo:margin-top", all)
	r.MarginBottom = lengthOr("fo:margin-bottom", all)
	r.MarginLeft = lengthOr("fo:margin-left", all)
	r.MarginRight = lengthOr("fo:margin-right", all)
	r.TextIndent = length("fo:text-indent")

	if v, ok := props["fo:line-height"]; ok {
		if pct, ok := ParsePercent(v); ok {
			r.LineHeight = pct
		} else if abs, err := ParseLength(v); err == nil {
			r.LineHeightAbs = abs
		}
	}

	sides := [4]string{"top", "right", "bottom", "left"}
	if v, ok := props["fo:border"]; ok {
		b := ParseBorder(v)
		for i := range r.Borders {
			r.Borders[i] = b
		}
	}
	if v, err := ParseLength(props["fo:padding"]); err == nil {
		for i := range r.Padding {
			r.Padding[i] = v
		}
	}
	for i, side := range sides {
		if v, ok := props["fo:border-"+side]; ok {
			r.Borders[i] = ParseBorder(v)
		}
		if v, err := ParseLength(props["fo:padding-"+side]); err == nil {
			r.Padding[i] = v
		}
	}

	r.BreakBefore = props["fo:break-before"] == "page"
	r.BreakAfter = props["fo:break-after"] == "page"
	r.KeepTogether = props["fo:keep-together"] == "always"

	r.Width = length("style:width")
	r.ColumnWidth = length("style:column-width")
	if v, ok := props["style:rel-column-width"]; ok {
		r.RelColumnWidth, _ = strconv.ParseFloat(strings.TrimSuffix(v, "*"), 64)
	}

	r.MasterPage = props["style:master-page-name"]
	r.ListStyle = props["style:list-style-name"]
	return r
}

// LineAdvance returns vertical distance between baselines for the record.
func (r *Record) LineAdvance() float64 {
	if r.LineHeightAbs > 0 {
		return r.LineHeightAbs
	}
	return r.FontSize * r.LineHeight
}
