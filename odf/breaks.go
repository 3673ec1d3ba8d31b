package odf

// BreakFunc reports page breaks requested by style of a block node. Master
// is name of master page to switch to, empty when unchanged.
type BreakFunc func(n *Node) (before, after bool, master string)

// ApplyBreaks turns style driven page breaks into explicit PageBreak nodes
// placed between blocks. Page break node carries master page name in Style.
// Breaks inside table cells and frames are ignored.
func ApplyBreaks(root *Node, breaks BreakFunc) {
	if root == nil || breaks == nil {
		return
	}
	root.Children = applyBreaks(root.Children, breaks)
}

func applyBreaks(blocks []*Node, breaks BreakFunc) []*Node {
	out := make([]*Node, 0, len(blocks))
	for _, n := range blocks {
		switch n.Kind {
		case KindSection:
			n.Children = applyBreaks(n.Children, breaks)
		case KindList:
			for _, item := range n.Children {
				item.Children = applyBreaks(item.Children, breaks)
			}
		}
		before, after, master := breaks(n)
		if before || len(master) > 0 {
			out = append(out, &Node{Kind: KindPageBreak, Style: master})
		}
		out = append(out, n)
		if after {
			out = append(out, &Node{Kind: KindPageBreak})
		}
	}
	return out
}
