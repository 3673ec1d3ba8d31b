// Package debug has helpers producing human readable dumps of internal
// structures. Dumps go into debug report and are never parsed back.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines, depth is number of indentation
// steps.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) prefix(depth int) {
	tw.w.WriteString(strings.Repeat(indent, max(depth, 0)))
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.prefix(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Section writes header for the group of count entries which follow on
// deeper level.
func (tw *TreeWriter) Section(depth int, label string, count int) {
	tw.Line(depth, "%s: %d", label, count)
}

// TextBlock writes quoted text, so whitespace and control characters are
// visible. Empty text stays empty.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.prefix(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(":")
	if value != "" {
		tw.w.WriteByte(' ')
		tw.w.WriteString(strconv.Quote(value))
	}
	tw.w.WriteByte('\n')
}
