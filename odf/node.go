package odf

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"odfc/hidden"
)

// Kind is content node variant.
type Kind int

const (
	KindSection Kind = iota
	KindParagraph
	KindHeading
	KindSpan
	KindText
	KindSpace
	KindTab
	KindLineBreak
	KindPageBreak
	KindField
	KindList
	KindListItem
	KindTable
	KindTableRow
	KindTableCell
	KindFrame
	KindImage
	KindMarker
)

var kindNames = [...]string{
	"Section", "Paragraph", "Heading", "Span", "Text", "Space", "Tab", "LineBreak", "PageBreak",
	"Field", "List", "ListItem", "Table", "TableRow", "TableCell", "Frame", "Image", "Marker",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// FieldKind tells renderer how to fill field.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldPageNumber
	FieldPageCount
	FieldDate
	FieldTitle
)

func (f FieldKind) String() string {
	switch f {
	case FieldPageNumber:
		return "page-number"
	case FieldPageCount:
		return "page-count"
	case FieldDate:
		return "date"
	case FieldTitle:
		return "title"
	default:
		return "other"
	}
}

// Node is single element of typed content tree.
type Node struct {
	Kind  Kind
	Style string
	// Text for Text nodes, cached value for fields, condition for markers.
	Text  string
	Field FieldKind
	// Count of spaces for Space nodes.
	Count int
	// Level is heading outline level.
	Level int

	// tables
	Columns []string // column style per column
	ColSpan int
	RowSpan int

	// frames and images
	Width  string
	Height string
	Anchor string
	Href   string

	Children []*Node
}

// limits repetition of empty table rows and columns LibreOffice uses to fill
// whole sheet
const maxRepeat = 64

// maxSpaces caps text:c of a single text:s
const maxSpaces = 1024

// BuildTree converts element (office:text, header or footer) into typed
// tree rooted at Section node. Remaining conditional markers become Marker
// nodes.
func BuildTree(el *etree.Element) *Node {
	root := &Node{Kind: KindSection}
	if el == nil {
		return root
	}
	b := builder{}
	root.Children = b.blocks(el)
	return root
}

type builder struct{}

// blocks converts block level children.
func (b builder) blocks(el *etree.Element) []*Node {
	var out []*Node
	for _, child := range el.ChildElements() {
		out = append(out, b.block(child)...)
	}
	return out
}

func (b builder) block(el *etree.Element) []*Node {
	switch el.FullTag() {
	case "text:p":
		return []*Node{{Kind: KindParagraph, Style: el.SelectAttrValue("text:style-name", ""), Children: b.inlines(el)}}
	case "text:h":
		level, _ := strconv.Atoi(el.SelectAttrValue("text:outline-level", "1"))
		return []*Node{{Kind: KindHeading, Style: el.SelectAttrValue("text:style-name", ""), Level: max(level, 1), Children: b.inlines(el)}}
	case "text:list":
		n := &Node{Kind: KindList, Style: el.SelectAttrValue("text:style-name", "")}
		for _, item := range el.ChildElements() {
			switch item.FullTag() {
			case "text:list-item", "text:list-header":
				n.Children = append(n.Children, &Node{Kind: KindListItem, Children: b.blocks(item)})
			}
		}
		return []*Node{n}
	case "table:table":
		return []*Node{b.table(el)}
	case "text:section", "text:index-body":
		return []*Node{{Kind: KindSection, Style: el.SelectAttrValue("text:style-name", ""), Children: b.blocks(el)}}
	case "draw:frame":
		return []*Node{b.frame(el)}
	case "text:soft-page-break":
		// layout hint written by office application
		return nil
	case "text:sequence-decls", "text:variable-decls", "text:user-field-decls", "office:forms",
		"text:tracked-changes", "office:annotation", "text:index-title-template":
		return nil
	case hidden.TagHiddenParagraph:
		return []*Node{{Kind: KindMarker, Text: el.SelectAttrValue("text:condition", "")}}
	default:
		// unknown containers are transparent
		return b.blocks(el)
	}
}

func (b builder) table(el *etree.Element) *Node {
	t := &Node{Kind: KindTable, Style: el.SelectAttrValue("table:style-name", "")}

	var rows func(*etree.Element)
	rows = func(parent *etree.Element) {
		for _, child := range parent.ChildElements() {
			switch child.FullTag() {
			case "table:table-column":
				n := repeat(child, "table:number-columns-repeated", maxRepeat)
				for range n {
					t.Columns = append(t.Columns, child.SelectAttrValue("table:style-name", ""))
				}
			case "table:table-columns", "table:table-header-columns", "table:table-column-group",
				"table:table-header-rows", "table:table-rows", "table:table-row-group":
				rows(child)
			case "table:table-row":
				row := &Node{Kind: KindTableRow, Style: child.SelectAttrValue("table:style-name", "")}
				for _, cell := range child.ChildElements() {
					if cell.FullTag() != "table:table-cell" {
						// covered cells are drawn by spanning ones
						continue
					}
					c := &Node{
						Kind:     KindTableCell,
						Style:    cell.SelectAttrValue("table:style-name", ""),
						ColSpan:  max(atoi(cell.SelectAttrValue("table:number-columns-spanned", "1")), 1),
						RowSpan:  max(atoi(cell.SelectAttrValue("table:number-rows-spanned", "1")), 1),
						Children: b.blocks(cell),
					}
					for range repeat(cell, "table:number-columns-repeated", maxRepeat) {
						row.Children = append(row.Children, c)
					}
				}
				for range repeat(child, "table:number-rows-repeated", maxRepeat) {
					t.Children = append(t.Children, row)
				}
			}
		}
	}
	rows(el)
	return t
}

func repeat(el *etree.Element, attr string, limit int) int {
	n := atoi(el.SelectAttrValue(attr, "1"))
	return min(max(n, 1), limit)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (b builder) frame(el *etree.Element) *Node {
	f := &Node{
		Kind:   KindFrame,
		Style:  el.SelectAttrValue("draw:style-name", ""),
		Width:  el.SelectAttrValue("svg:width", ""),
		Height: el.SelectAttrValue("svg:height", ""),
		Anchor: el.SelectAttrValue("text:anchor-type", "paragraph"),
	}
	for _, child := range el.ChildElements() {
		switch child.FullTag() {
		case "draw:image":
			// frames may carry several renditions, first one wins
			if len(f.Children) == 0 {
				f.Children = append(f.Children, &Node{Kind: KindImage, Href: child.SelectAttrValue("xlink:href", "")})
			}
		case "draw:text-box":
			f.Children = append(f.Children, b.blocks(child)...)
		}
	}
	return f
}

// inlines converts paragraph content.
func (b builder) inlines(el *etree.Element) []*Node {
	var out []*Node
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if s := collapse(t.Data); len(s) > 0 {
				out = append(out, &Node{Kind: KindText, Text: s})
			}
		case *etree.Element:
			out = append(out, b.inline(t)...)
		}
	}
	return out
}

func (b builder) inline(el *etree.Element) []*Node {
	switch el.FullTag() {
	case "text:span":
		return []*Node{{Kind: KindSpan, Style: el.SelectAttrValue("text:style-name", ""), Children: b.inlines(el)}}
	case "text:a", "text:meta", "text:ruby-base":
		return b.inlines(el)
	case "text:s":
		return []*Node{{Kind: KindSpace, Count: repeat(el, "text:c", maxSpaces)}}
	case "text:tab":
		return []*Node{{Kind: KindTab}}
	case "text:line-break":
		return []*Node{{Kind: KindLineBreak}}
	case "text:soft-page-break", "text:bookmark", "text:bookmark-start", "text:bookmark-end",
		"text:reference-mark", "text:reference-mark-start", "text:reference-mark-end",
		"office:annotation", "office:annotation-end", "text:ruby-text", "text:change",
		"text:change-start", "text:change-end", "text:alphabetical-index-mark", "text:toc-mark":
		return nil
	case "text:page-number":
		return []*Node{{Kind: KindField, Field: FieldPageNumber, Text: el.Text()}}
	case "text:page-count":
		return []*Node{{Kind: KindField, Field: FieldPageCount, Text: el.Text()}}
	case "text:date", "text:time":
		return []*Node{{Kind: KindField, Field: FieldDate, Text: el.Text()}}
	case "text:title":
		return []*Node{{Kind: KindField, Field: FieldTitle, Text: el.Text()}}
	case "text:note":
		if c := el.SelectElement("text:note-citation"); c != nil {
			return []*Node{{Kind: KindField, Field: FieldOther, Text: c.Text()}}
		}
		return nil
	case "draw:frame":
		return []*Node{b.frame(el)}
	case hidden.TagHiddenParagraph, hidden.TagHiddenText:
		return []*Node{{Kind: KindMarker, Text: el.SelectAttrValue("text:condition", "")}}
	case hidden.TagConditionalText:
		// not resolved, show what application displayed last time
		return []*Node{{Kind: KindField, Field: FieldOther, Text: el.Text()}}
	default:
		if strings.HasPrefix(el.FullTag(), "text:") && len(el.ChildElements()) == 0 {
			// all other fields carry their last displayed value
			return []*Node{{Kind: KindField, Field: FieldOther, Text: el.Text()}}
		}
		return b.inlines(el)
	}
}

// collapse applies ODF white space processing: runs of white space
// characters become single space.
func collapse(s string) string {
	if len(strings.TrimSpace(s)) == 0 {
		if len(s) == 0 {
			return ""
		}
		return " "
	}
	var (
		sb    strings.Builder
		space bool
	)
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
