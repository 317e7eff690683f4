// Package views renders the catalog's HTML pages.
package views

import (
	"embed"
	"html"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	// Form input is stored escaped; display undoes that so the template's own
	// escaping applies exactly once.
	"display": html.UnescapeString,
	"prevOffset": func(offset, limit int) int {
		if offset-limit < 0 {
			return 0
		}
		return offset - limit
	},
	"add": func(a, b int) int {
		return a + b
	},
}

// Renderer implements echo.Renderer. Every page is parsed together with the
// shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

func New() (*Renderer, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		if page == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(page), ".html")
		tmpl, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile, page)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	return errors.WithStack(tmpl.ExecuteTemplate(w, "layout", data))
}
