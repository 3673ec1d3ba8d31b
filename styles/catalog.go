// Package styles builds consolidated style catalog out of ODF style sections
// and resolves style inheritance.
package styles

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Family is ODF style family ("style:family" attribute).
type Family string

const (
	FamilyParagraph   Family = "paragraph"
	FamilyText        Family = "text"
	FamilyTable       Family = "table"
	FamilyTableColumn Family = "table-column"
	FamilyTableRow    Family = "table-row"
	FamilyTableCell   Family = "table-cell"
	FamilyGraphic     Family = "graphic"
	FamilySection     Family = "section"
)

// UnknownStyleError is returned when content references style which is not
// defined in any section.
type UnknownStyleError struct {
	Family Family
	Name   string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown %s style %q", e.Family, e.Name)
}

// Options controls catalog behavior.
type Options struct {
	// Fallback makes unknown styles resolve to family default instead of
	// failing.
	Fallback bool
	// DefaultFont is used when no style in chain names font.
	DefaultFont string
}

// Style is style definition as found in document: own attributes only.
type Style struct {
	Name   string
	Family Family
	Parent string
	// Section is index of the section style came from, later wins.
	Section int
	Props   map[string]string
}

type key struct {
	family Family
	name   string
}

// Catalog holds every style known to the document. It is built once and is
// read only afterwards, resolved records are cached.
type Catalog struct {
	opts Options
	log  *zap.Logger

	styles      map[key]*Style
	defaults    map[Family]*Style
	fontFaces   map[string]string
	pageLayouts map[string]*PageLayout
	masterPages []*MasterPage
	listStyles  map[string]*ListStyle

	mu       sync.Mutex
	resolved map[key]*Record
	warned   map[key]bool
}

// Build registers style sections in order given. For LibreOffice documents
// it is office:font-face-decls, office:styles, office:automatic-styles of
// styles.xml, office:master-styles and office:automatic-styles of
// content.xml. Definitions in later sections shadow earlier ones with the
// same family and name. Nil sections are ignored.
func Build(opts Options, log *zap.Logger, sections ...*etree.Element) *Catalog {
	if len(opts.DefaultFont) == 0 {
		opts.DefaultFont = "Helvetica"
	}
	c := &Catalog{
		opts:        opts,
		log:         log.Named("styles"),
		styles:      make(map[key]*Style),
		defaults:    make(map[Family]*Style),
		fontFaces:   make(map[string]string),
		pageLayouts: make(map[string]*PageLayout),
		listStyles:  make(map[string]*ListStyle),
		resolved:    make(map[key]*Record),
		warned:      make(map[key]bool),
	}
	for i, section := range sections {
		if section == nil {
			continue
		}
		c.register(i, section)
	}
	c.log.Debug("Style catalog built",
		zap.Int("styles", len(c.styles)), zap.Int("defaults", len(c.defaults)),
		zap.Int("page-layouts", len(c.pageLayouts)), zap.Int("master-pages", len(c.masterPages)),
		zap.Int("list-styles", len(c.listStyles)))
	return c
}

func (c *Catalog) register(section int, el *etree.Element) {
	for _, child := range el.ChildElements() {
		switch child.FullTag() {
		case "style:style":
			s := parseStyle(child)
			s.Section = section
			if len(s.Name) == 0 {
				c.log.Debug("Skipping style without name", zap.String("family", string(s.Family)))
				continue
			}
			c.styles[key{s.Family, s.Name}] = s
		case "style:default-style":
			s := parseStyle(child)
			s.Section = section
			c.defaults[s.Family] = s
		case "style:font-face":
			name := child.SelectAttrValue("style:name", "")
			family := strings.Trim(child.SelectAttrValue("svg:font-family", name), `'"`)
			c.fontFaces[name] = family
		case "style:page-layout":
			pl := parsePageLayout(child)
			c.pageLayouts[pl.Name] = pl
		case "style:master-page":
			mp := parseMasterPage(child)
			// shadowing for master pages too
			c.masterPages = removeMaster(c.masterPages, mp.Name)
			c.masterPages = append(c.masterPages, mp)
		case "text:list-style":
			ls := parseListStyle(child)
			c.listStyles[ls.Name] = ls
		}
	}
}

func parseStyle(el *etree.Element) *Style {
	s := &Style{
		Name:   el.SelectAttrValue("style:name", ""),
		Family: Family(el.SelectAttrValue("style:family", "")),
		Parent: el.SelectAttrValue("style:parent-style-name", ""),
		Props:  make(map[string]string),
	}
	// style level attributes which matter for rendering
	for _, a := range []string{"style:master-page-name", "style:list-style-name"} {
		if v := el.SelectAttr(a); v != nil {
			s.Props[a] = v.Value
		}
	}
	for _, p := range el.ChildElements() {
		if !strings.HasSuffix(p.Tag, "-properties") {
			continue
		}
		for _, a := range p.Attr {
			s.Props[a.FullKey()] = a.Value
		}
	}
	return s
}

// Lookup returns style definition as registered, without inheritance.
func (c *Catalog) Lookup(family Family, name string) (*Style, bool) {
	s, ok := c.styles[key{family, name}]
	return s, ok
}

// Resolve flattens style inheritance chain (child overrides parent) rooted
// at the family default style and returns decoded record. Empty name
// resolves to family default. Unknown name results in *UnknownStyleError
// unless catalog was built with Fallback.
func (c *Catalog) Resolve(family Family, name string) (*Record, error) {
	k := key{family, name}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.resolved[k]; ok {
		return r, nil
	}

	if len(name) > 0 {
		if _, ok := c.styles[k]; !ok {
			if !c.opts.Fallback {
				return nil, &UnknownStyleError{Family: family, Name: name}
			}
			if !c.warned[k] {
				c.warned[k] = true
				c.log.Warn("Unknown style, using family default", zap.String("family", string(family)), zap.String("name", name))
			}
		}
	}

	r := decode(name, family, c.flatten(family, name), c.opts.DefaultFont, c.fontFaces)
	c.resolved[k] = r
	return r, nil
}

// flatten merges properties from the family default down to the named style.
func (c *Catalog) flatten(family Family, name string) map[string]string {
	var chain []*Style

	visited := make(map[string]bool)
	for cur := name; len(cur) > 0; {
		if visited[cur] {
			c.log.Warn("Circular style inheritance", zap.String("family", string(family)), zap.String("name", cur))
			break
		}
		visited[cur] = true
		s, ok := c.styles[key{family, cur}]
		if !ok {
			if cur != name {
				c.log.Debug("Parent style not found", zap.String("family", string(family)), zap.String("name", cur))
			}
			break
		}
		chain = append(chain, s)
		cur = s.Parent
	}

	merged := make(map[string]string)
	// text spans inherit from enclosing paragraph, not from defaults
	if family != FamilyText {
		if d, ok := c.defaults[family]; ok {
			maps.Copy(merged, d.Props)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		mergeProps(merged, chain[i].Props)
	}
	// style-level attributes are not inherited
	if len(chain) > 0 {
		for _, a := range []string{"style:master-page-name"} {
			if v, ok := chain[0].Props[a]; ok {
				merged[a] = v
			} else {
				delete(merged, a)
			}
		}
	}
	return merged
}

// FontFamily maps style:font-name declaration to font family name.
func (c *Catalog) FontFamily(name string) string {
	if f, ok := c.fontFaces[name]; ok {
		return f
	}
	return name
}

// ListStyle returns list style by name.
func (c *Catalog) ListStyle(name string) (*ListStyle, bool) {
	ls, ok := c.listStyles[name]
	return ls, ok
}

// MasterPages returns master pages in registration order.
func (c *Catalog) MasterPages() []*MasterPage {
	return c.masterPages
}

// MasterPage returns master page with given name. Empty name selects the
// default master page: "Standard", then "Default", then the first one.
func (c *Catalog) MasterPage(name string) (*MasterPage, bool) {
	find := func(n string) *MasterPage {
		for _, mp := range c.masterPages {
			if mp.Name == n {
				return mp
			}
		}
		return nil
	}
	if len(name) > 0 {
		mp := find(name)
		return mp, mp != nil
	}
	for _, n := range []string{"Standard", "Default"} {
		if mp := find(n); mp != nil {
			return mp, true
		}
	}
	if len(c.masterPages) > 0 {
		return c.masterPages[0], true
	}
	return nil, false
}

// PageLayout returns page layout by name.
func (c *Catalog) PageLayout(name string) (*PageLayout, bool) {
	pl, ok := c.pageLayouts[name]
	return pl, ok
}

func removeMaster(list []*MasterPage, name string) []*MasterPage {
	out := list[:0]
	for _, mp := range list {
		if mp.Name != name {
			out = append(out, mp)
		}
	}
	return out
}
