package odf

import (
	"odfc/utils/debug"
)

type treeWriter struct {
	*debug.TreeWriter
}

// String returns a readable dump of the tree for debugging.
func (n *Node) String() string {
	if n == nil {
		return "<nil Node>"
	}
	tw := treeWriter{debug.NewTreeWriter()}
	tw.node(0, n)
	return tw.String()
}

func (tw treeWriter) node(depth int, n *Node) {
	switch n.Kind {
	case KindText:
		tw.TextBlock(depth, "Text", n.Text)
	case KindSpace:
		tw.Line(depth, "Space count=%d", n.Count)
	case KindField:
		tw.Line(depth, "Field kind=%s cached=%q", n.Field, n.Text)
	case KindMarker:
		tw.Line(depth, "Marker condition=%q", n.Text)
	case KindHeading:
		tw.Line(depth, "Heading style=%q level=%d", n.Style, n.Level)
	case KindTable:
		tw.Line(depth, "Table style=%q columns=%q", n.Style, n.Columns)
	case KindTableCell:
		tw.Line(depth, "TableCell style=%q span=%dx%d", n.Style, n.ColSpan, n.RowSpan)
	case KindFrame:
		tw.Line(depth, "Frame style=%q size=%sx%s anchor=%s", n.Style, n.Width, n.Height, n.Anchor)
	case KindImage:
		tw.Line(depth, "Image href=%q", n.Href)
	default:
		if len(n.Style) > 0 {
			tw.Line(depth, "%s style=%q", n.Kind, n.Style)
		} else {
			tw.Line(depth, "%s", n.Kind)
		}
	}
	for _, c := range n.Children {
		tw.node(depth+1, c)
	}
}
