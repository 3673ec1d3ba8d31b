package hidden

import (
	"fmt"
	"slices"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Marker tags resolved by Prune.
const (
	TagHiddenParagraph = "text:hidden-paragraph"
	TagHiddenText      = "text:hidden-text"
	TagConditionalText = "text:conditional-text"

	attrCondition    = "text:condition"
	attrStringValue  = "text:string-value"
	attrValueIfTrue  = "text:string-value-if-true"
	attrValueIfFalse = "text:string-value-if-false"
)

// Options controls which markers are eligible and what is suppressed when
// hidden paragraph condition holds.
type Options struct {
	// Prefix must be present in condition for marker to be resolved.
	Prefix string
	// ParagraphTags are paragraph level elements removed together with
	// hidden paragraph marker.
	ParagraphTags []string
}

// DefaultOptions returns LibreOffice defaults.
func DefaultOptions() Options {
	return Options{Prefix: DefaultPrefix, ParagraphTags: []string{"text:p", "text:h"}}
}

// Stats summarizes single Prune run.
type Stats struct {
	// markers detached from the tree
	Removed int
	// paragraphs suppressed by hidden paragraph markers
	Paragraphs int
	// markers replaced with diagnostics
	Failed int
	// markers without recognized prefix, left in place
	Skipped int
}

// Add sums statistics of several runs.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Removed:    s.Removed + o.Removed,
		Paragraphs: s.Paragraphs + o.Paragraphs,
		Failed:     s.Failed + o.Failed,
		Skipped:    s.Skipped + o.Skipped,
	}
}

// IsMarker reports whether element is one of the conditional markers.
func IsMarker(el *etree.Element) bool {
	switch el.FullTag() {
	case TagHiddenParagraph, TagHiddenText, TagConditionalText:
		return true
	}
	return false
}

// Prune resolves every conditional marker under root in document order and
// rewrites the tree in place. Expression failures never escape, offending
// marker is replaced with text describing the problem.
func Prune(root *etree.Element, opts Options, log *zap.Logger) Stats {
	var stats Stats
	if root == nil {
		return stats
	}

	// snapshot is finite, so is the loop
	worklist := collectMarkers(root)
	for _, marker := range worklist {
		if !attached(marker, root) {
			continue
		}

		condition, ok := StripPrefix(marker.SelectAttrValue(attrCondition, ""), opts.Prefix)
		if !ok {
			stats.Skipped++
			log.Debug("Leaving marker without recognized prefix",
				zap.String("marker", marker.FullTag()), zap.String("condition", condition))
			continue
		}

		verdict, err := Evaluate(condition)
		if err != nil {
			stats.Failed++
			log.Warn("Unable to evaluate condition, replacing marker with diagnostic",
				zap.String("marker", marker.FullTag()), zap.Error(err))
			replaceWithText(marker, fmt.Sprintf("%s: %v", condition, unwrapExpr(err)))
			continue
		}

		switch marker.FullTag() {
		case TagHiddenParagraph:
			if !verdict {
				detach(marker)
				stats.Removed++
				continue
			}
			if p := enclosingParagraph(marker, root, opts.ParagraphTags); p != nil {
				for len(p.Child) > 0 {
					p.RemoveChildAt(0)
				}
				detach(p)
				stats.Paragraphs++
			} else {
				detach(marker)
			}
			stats.Removed++

		case TagHiddenText:
			// condition describes when text is hidden
			if verdict {
				detach(marker)
			} else {
				replaceWithText(marker, marker.SelectAttrValue(attrStringValue, marker.Text()))
			}
			stats.Removed++

		case TagConditionalText:
			value := marker.SelectAttrValue(attrValueIfFalse, "")
			if verdict {
				value = marker.SelectAttrValue(attrValueIfTrue, "")
			}
			replaceWithText(marker, value)
			stats.Removed++
		}
	}
	return stats
}

// collectMarkers returns markers in document order (pre-order, depth first).
func collectMarkers(root *etree.Element) []*etree.Element {
	var (
		found []*etree.Element
		walk  func(*etree.Element)
	)
	walk = func(el *etree.Element) {
		if IsMarker(el) {
			found = append(found, el)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return found
}

// attached reports whether parent chain of el still reaches root.
func attached(el, root *etree.Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
	}
	return false
}

func enclosingParagraph(el, root *etree.Element, tags []string) *etree.Element {
	for cur := el.Parent(); cur != nil && cur != root; cur = cur.Parent() {
		if slices.Contains(tags, cur.FullTag()) {
			return cur
		}
	}
	return nil
}

func detach(el *etree.Element) {
	if parent := el.Parent(); parent != nil {
		parent.RemoveChildAt(el.Index())
	}
}

func replaceWithText(el *etree.Element, text string) {
	parent := el.Parent()
	if parent == nil {
		return
	}
	idx := el.Index()
	parent.RemoveChildAt(idx)
	if len(text) > 0 {
		parent.InsertChildAt(idx, etree.NewText(text))
	}
}

func unwrapExpr(err error) error {
	if e, ok := err.(*ExpressionError); ok {
		return e.Err
	}
	return err
}
