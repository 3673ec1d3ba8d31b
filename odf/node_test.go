package odf

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func parseBody(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(`<office:text xmlns:office="o" xmlns:text="t" xmlns:table="tb" xmlns:draw="d" xmlns:svg="s" xmlns:xlink="x">` + xml + `</office:text>`); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.Root()
}

func kinds(nodes []*Node) []Kind {
	out := make([]Kind, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind)
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildTree_Nil(t *testing.T) {
	root := BuildTree(nil)
	if root.Kind != KindSection || len(root.Children) != 0 {
		t.Errorf("BuildTree(nil) = %+v, want empty section", root)
	}
}

func TestBuildTree_Blocks(t *testing.T) {
	root := BuildTree(parseBody(t, `
		<text:sequence-decls/>
		<text:h text:style-name="H1" text:outline-level="2">Title</text:h>
		<text:p text:style-name="P1">Body</text:p>
		<text:soft-page-break/>
		<text:section text:style-name="Sect1"><text:p>Inside</text:p></text:section>
		<text:list text:style-name="L1">
			<text:list-item><text:p>One</text:p></text:list-item>
			<text:list-header><text:p>Head</text:p></text:list-header>
		</text:list>
		<text:unknown-wrapper><text:p>Wrapped</text:p></text:unknown-wrapper>`))

	want := []Kind{KindHeading, KindParagraph, KindSection, KindList, KindParagraph}
	if got := kinds(root.Children); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	h := root.Children[0]
	if h.Level != 2 || h.Style != "H1" {
		t.Errorf("heading = level %d style %q", h.Level, h.Style)
	}
	if p := root.Children[1]; p.Style != "P1" || len(p.Children) != 1 || p.Children[0].Text != "Body" {
		t.Errorf("paragraph = %+v", p)
	}
	if s := root.Children[2]; s.Style != "Sect1" || len(s.Children) != 1 {
		t.Errorf("section = %+v", s)
	}
	list := root.Children[3]
	if list.Style != "L1" || len(list.Children) != 2 || list.Children[0].Kind != KindListItem {
		t.Errorf("list = %+v", list)
	}
}

func TestBuildTree_HeadingLevelDefault(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:h text:outline-level="0">x</text:h><text:h>y</text:h>`))
	for i, h := range root.Children {
		if h.Level != 1 {
			t.Errorf("heading %d level = %d, want 1", i, h.Level)
		}
	}
}

func TestBuildTree_Inlines(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:p>A  <text:span text:style-name="T1">bold</text:span><text:s text:c="3"/><text:tab/>`+
		`<text:line-break/><text:a>link</text:a><text:bookmark/>`+
		`<text:page-number>1</text:page-number> of <text:page-count>12</text:page-count>`+
		`<text:date>2024-01-01</text:date><text:title>Doc</text:title><text:author-name>Bob</text:author-name></text:p>`))

	p := root.Children[0]
	want := []Kind{KindText, KindSpan, KindSpace, KindTab, KindLineBreak, KindText, KindField, KindText, KindField, KindField, KindField, KindField}
	if got := kinds(p.Children); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if p.Children[0].Text != "A " {
		t.Errorf("collapsed text = %q, want %q", p.Children[0].Text, "A ")
	}
	if span := p.Children[1]; span.Style != "T1" || span.Children[0].Text != "bold" {
		t.Errorf("span = %+v", span)
	}
	if p.Children[2].Count != 3 {
		t.Errorf("space count = %d, want 3", p.Children[2].Count)
	}
	fields := []struct {
		idx  int
		kind FieldKind
		text string
	}{
		{6, FieldPageNumber, "1"},
		{8, FieldPageCount, "12"},
		{9, FieldDate, "2024-01-01"},
		{10, FieldTitle, "Doc"},
		{11, FieldOther, "Bob"},
	}
	for _, f := range fields {
		n := p.Children[f.idx]
		if n.Field != f.kind || n.Text != f.text {
			t.Errorf("field %d = %s %q, want %s %q", f.idx, n.Field, n.Text, f.kind, f.text)
		}
	}
}

func TestBuildTree_Markers(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:p>x<text:hidden-paragraph text:condition="ooow:a"/>`+
		`<text:hidden-text text:condition="ooow:b" text:string-value="hid"/>`+
		`<text:conditional-text text:condition="ooow:c" text:string-value-if-true="T" text:string-value-if-false="F">F</text:conditional-text></text:p>`+
		`<text:hidden-paragraph text:condition="ooow:d"/>`))

	p := root.Children[0]
	want := []Kind{KindText, KindMarker, KindMarker, KindField}
	if got := kinds(p.Children); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if p.Children[1].Text != "ooow:a" {
		t.Errorf("marker condition = %q", p.Children[1].Text)
	}
	if p.Children[3].Text != "F" {
		t.Errorf("conditional text = %q, want last displayed value", p.Children[3].Text)
	}
	if root.Children[1].Kind != KindMarker || root.Children[1].Text != "ooow:d" {
		t.Errorf("block marker = %+v", root.Children[1])
	}
}

func TestBuildTree_SpaceCount(t *testing.T) {
	tests := []struct {
		attr string
		want int
	}{
		{``, 1},
		{` text:c="5"`, 5},
		{` text:c="0"`, 1},
		{` text:c="-7"`, 1},
		{` text:c="many"`, 1},
		{` text:c="2000000000"`, maxSpaces},
		{` text:c="99999999999999999999"`, maxSpaces},
	}
	for _, tt := range tests {
		root := BuildTree(parseBody(t, `<text:p>a<text:s`+tt.attr+`/>b</text:p>`))
		sp := root.Children[0].Children[1]
		if sp.Kind != KindSpace || sp.Count != tt.want {
			t.Errorf("text:s%s = %s x%d, want space x%d", tt.attr, sp.Kind, sp.Count, tt.want)
		}
	}
}

func TestBuildTree_Table(t *testing.T) {
	root := BuildTree(parseBody(t, `<table:table table:style-name="Tbl">
		<table:table-column table:style-name="C1" table:number-columns-repeated="2"/>
		<table:table-column table:style-name="C2"/>
		<table:table-header-rows>
			<table:table-row><table:table-cell table:number-columns-spanned="2"><text:p>H</text:p></table:table-cell><table:covered-table-cell/><table:table-cell/></table:table-row>
		</table:table-header-rows>
		<table:table-row table:number-rows-repeated="3"><table:table-cell table:number-columns-repeated="3"><text:p>c</text:p></table:table-cell></table:table-row>
		<table:table-row table:number-rows-repeated="100000"><table:table-cell/></table:table-row>
	</table:table>`))

	tbl := root.Children[0]
	if tbl.Kind != KindTable || tbl.Style != "Tbl" {
		t.Fatalf("table = %+v", tbl)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[0] != "C1" || tbl.Columns[1] != "C1" || tbl.Columns[2] != "C2" {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if got, want := len(tbl.Children), 1+3+maxRepeat; got != want {
		t.Fatalf("rows = %d, want %d", got, want)
	}
	head := tbl.Children[0]
	if len(head.Children) != 2 {
		t.Fatalf("header cells = %d, want 2 (covered cell skipped)", len(head.Children))
	}
	if head.Children[0].ColSpan != 2 || head.Children[0].RowSpan != 1 {
		t.Errorf("span = %dx%d", head.Children[0].ColSpan, head.Children[0].RowSpan)
	}
	if got := len(tbl.Children[1].Children); got != 3 {
		t.Errorf("repeated cells = %d, want 3", got)
	}
}

func TestBuildTree_Frame(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:p><draw:frame draw:style-name="fr1" svg:width="2cm" svg:height="1cm" text:anchor-type="as-char">`+
		`<draw:image xlink:href="Pictures/a.png"/><draw:image xlink:href="Pictures/a.svm"/></draw:frame></text:p>`+
		`<draw:frame><draw:text-box><text:p>boxed</text:p></draw:text-box></draw:frame>`))

	f := root.Children[0].Children[0]
	if f.Kind != KindFrame || f.Width != "2cm" || f.Height != "1cm" || f.Anchor != "as-char" || f.Style != "fr1" {
		t.Errorf("frame = %+v", f)
	}
	if len(f.Children) != 1 || f.Children[0].Href != "Pictures/a.png" {
		t.Errorf("frame should keep first image only, got %d children", len(f.Children))
	}
	box := root.Children[1]
	if box.Anchor != "paragraph" {
		t.Errorf("default anchor = %q", box.Anchor)
	}
	if len(box.Children) != 1 || box.Children[0].Kind != KindParagraph {
		t.Errorf("text box content = %v", kinds(box.Children))
	}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", " "},
		{"a\n\t b", "a b"},
		{" lead", " lead"},
		{"trail  ", "trail "},
	}
	for _, tt := range tests {
		if got := collapse(tt.in); got != tt.want {
			t.Errorf("collapse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyBreaks(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:p text:style-name="A">a</text:p><text:p text:style-name="Before">b</text:p>`+
		`<text:p text:style-name="After">c</text:p><text:p text:style-name="Landscape">d</text:p>`+
		`<text:list><text:list-item><text:p text:style-name="Before">e</text:p></text:list-item></text:list>`))

	ApplyBreaks(root, func(n *Node) (bool, bool, string) {
		switch n.Style {
		case "Before":
			return true, false, ""
		case "After":
			return false, true, ""
		case "Landscape":
			return false, false, "Landscape"
		}
		return false, false, ""
	})

	want := []Kind{KindParagraph, KindPageBreak, KindParagraph, KindParagraph, KindPageBreak, KindPageBreak, KindParagraph, KindList}
	if got := kinds(root.Children); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if root.Children[5].Style != "Landscape" {
		t.Errorf("master page switch = %q, want Landscape", root.Children[5].Style)
	}
	item := root.Children[7].Children[0]
	if got := kinds(item.Children); !equalKinds(got, []Kind{KindPageBreak, KindParagraph}) {
		t.Errorf("list item kinds = %v", got)
	}

	// nil arguments are ignored
	ApplyBreaks(nil, nil)
	ApplyBreaks(root, nil)
}

func TestNode_String(t *testing.T) {
	root := BuildTree(parseBody(t, `<text:p text:style-name="P1">Hi<text:page-count>3</text:page-count></text:p>`))
	out := root.String()
	for _, want := range []string{"Section", `Paragraph style="P1"`, "Text", `Field kind=page-count cached="3"`} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
	var n *Node
	if n.String() != "<nil Node>" {
		t.Error("nil node String()")
	}
}

func TestSafeEntry(t *testing.T) {
	tests := map[string]bool{
		"Pictures/a.png":     true,
		"Pictures/../evil":   false,
		"/abs/path":          false,
		"media/sub/../x.png": false,
		"Pictures/a..b.png":  true,
	}
	for name, want := range tests {
		if got := safeEntry(name); got != want {
			t.Errorf("safeEntry(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindMarker.String() != "Marker" {
		t.Errorf("KindMarker = %q", KindMarker.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("Kind(99) = %q", Kind(99).String())
	}
}
