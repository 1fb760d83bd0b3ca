// Package web holds the page templates and static assets, compiled into the
// binary with embed.
//
// TEMPLATE COMPOSITION:
// Every page is parsed together with base.html. base.html defines the
// document shell and calls {{template "content" .}}; each page file defines
// its own "content". Pages are parsed once, at startup.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageIndex = "index.html"
	PageDay   = "day.html"
)

// Pages is the set of parsed page templates.
type Pages struct {
	pages map[string]*template.Template
}

// ParsePages parses every page with the base layout.
func ParsePages() (*Pages, error) {
	p := &Pages{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageDay} {
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("web: parsing %s: %w", name, err)
		}
		p.pages[name] = tmpl
	}
	return p, nil
}

// Render writes page name with data.
func (p *Pages) Render(w io.Writer, name string, data any) error {
	tmpl, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// Static returns the asset tree rooted at static/ (app.js, style.css).
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
