package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"odfc/config"
	"odfc/content"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Subject    string
	Creator    string
	Language   string
	Date       string
	Keywords   []string
	Pages      int
	Format     string
	SourceFile string
	DocumentID string
}

// buildDate keeps only day part of ISO timestamp document stores.
func buildDate(date string) string {
	if i := strings.IndexByte(date, 'T'); i > 0 {
		return date[:i]
	}
	return date
}

func expandTemplate(c *content.Content, name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Title:      c.Meta.Title,
		Subject:    c.Meta.Subject,
		Creator:    c.Meta.Creator,
		Language:   c.Meta.Language,
		Date:       buildDate(c.Meta.Date),
		Keywords:   c.Meta.Keywords,
		Pages:      c.Meta.PageCount,
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName)),
		DocumentID: c.ID,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
