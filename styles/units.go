package styles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// points per unit
var unitPoints = map[string]float64{
	"pt": 1,
	"pc": 12,
	"px": 0.75,
	"in": 72,
	"cm": 72 / 2.54,
	"mm": 72 / 25.4,
}

// Value is a single tokenized ODF attribute value: length, percentage,
// number, color or keyword.
type Value struct {
	Number  float64
	Unit    string // "%" for percentage, empty for plain number
	Keyword string
}

// tokens splits attribute value into non-whitespace CSS tokens, ODF
// borrows value syntax from XSL-FO which is close enough.
func tokens(s string) []Value {
	var (
		out []Value
		l   = css.NewLexer(parse.NewInputString(s))
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return out
		case css.WhitespaceToken:
			continue
		case css.DimensionToken:
			n, u := parse.Dimension(data)
			v, err := strconv.ParseFloat(string(data[:n]), 64)
			if err != nil {
				out = append(out, Value{Keyword: string(data)})
				continue
			}
			out = append(out, Value{Number: v, Unit: strings.ToLower(string(data[n : n+u]))})
		case css.PercentageToken:
			v, _ := strconv.ParseFloat(strings.TrimSuffix(string(data), "%"), 64)
			out = append(out, Value{Number: v, Unit: "%"})
		case css.NumberToken:
			v, _ := strconv.ParseFloat(string(data), 64)
			out = append(out, Value{Number: v})
		default:
			out = append(out, Value{Keyword: strings.ToLower(string(data))})
		}
	}
}

// ParseLength converts ODF length ("2cm", "12pt", "0.5in") to points. Plain
// numbers are treated as points.
func ParseLength(s string) (float64, error) {
	vals := tokens(s)
	if len(vals) != 1 || len(vals[0].Keyword) > 0 || vals[0].Unit == "%" {
		return 0, fmt.Errorf("not a length: %q", s)
	}
	return toPoints(vals[0])
}

func toPoints(v Value) (float64, error) {
	if v.Unit == "" {
		return v.Number, nil
	}
	k, ok := unitPoints[v.Unit]
	if !ok {
		return 0, fmt.Errorf("unsupported length unit %q", v.Unit)
	}
	return v.Number * k, nil
}

// ParsePercent returns fraction for values like "120%".
func ParsePercent(s string) (float64, bool) {
	vals := tokens(s)
	if len(vals) != 1 || vals[0].Unit != "%" {
		return 0, false
	}
	return vals[0].Number / 100, true
}

// ParseColor accepts "#rrggbb" (and short "#rgb"). Transparent or invalid
// values yield false.
func ParseColor(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || strings.EqualFold(s, "transparent") {
		return colorful.Color{}, false
	}
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// Border is single side of paragraph or cell border.
type Border struct {
	Width float64
	Style string
	Color colorful.Color
}

// Visible reports whether border should be drawn.
func (b Border) Visible() bool {
	return b.Width > 0 && b.Style != "none" && b.Style != "hidden"
}

// ParseBorder parses "0.06pt solid #000000" shorthand.
func ParseBorder(s string) Border {
	var b Border
	if strings.TrimSpace(s) == "none" {
		return b
	}
	b.Style = "solid"
	for _, v := range tokens(s) {
		switch {
		case len(v.Keyword) > 0 && v.Keyword[0] == '#':
			if c, ok := ParseColor(v.Keyword); ok {
				b.Color = c
			}
		case len(v.Keyword) > 0:
			switch v.Keyword {
			case "thin":
				b.Width = 0.5
			case "medium":
				b.Width = 1
			case "thick":
				b.Width = 2
			default:
				b.Style = v.Keyword
			}
		default:
			if w, err := toPoints(v); err == nil {
				b.Width = w
			}
		}
	}
	return b
}
