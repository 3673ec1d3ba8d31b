package content

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"odfc/utils/debug"
)

type treeWriter struct {
	*debug.TreeWriter
}

// String returns a readable tree of the whole Content starting with typed
// body. It exists solely for manual inspection during debugging.
func (c *Content) String() string {
	if c == nil {
		return "<nil Content>"
	}

	tw := treeWriter{debug.NewTreeWriter()}
	tw.Line(0, "Document %q id=%s format=%s", c.SrcName, c.ID, c.OutputFormat)
	tw.Line(1, "Title: %q", c.Meta.Title)
	tw.Line(1, "Creator: %q", c.Meta.Creator)
	if c.Meta.PageCount > 0 {
		tw.Line(1, "Stored page count: %d", c.Meta.PageCount)
	}
	tw.Line(0, "Conditional markers: removed=%d paragraphs=%d failed=%d skipped=%d",
		c.Pruned.Removed, c.Pruned.Paragraphs, c.Pruned.Failed, c.Pruned.Skipped)

	if c.Catalog != nil {
		masters := c.Catalog.MasterPages()
		tw.Section(0, "Master pages", len(masters))
		for _, mp := range masters {
			tw.Line(1, "Master[%q] layout=%q next=%q", mp.Name, mp.PageLayout, mp.Next)
		}
	}

	out := tw.String() + "\n" + c.Body.String()

	if len(c.Pictures) > 0 {
		tw := treeWriter{debug.NewTreeWriter()}

		tw.Section(0, "Pictures index", len(c.Pictures))
		keys := slices.Collect(maps.Keys(c.Pictures))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			pic := c.Pictures[k]
			tw.Line(1, "Picture[%q] type[%s] size[%d] dim[%dx%d] dpi[%d]", k, pic.Type, len(pic.Data), pic.Width, pic.Height, pic.DPI)
		}
		out += "\n" + tw.String()
	}

	return out
}
