// Package render executes HTML templates from an embedded filesystem.
package render

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// Renderer holds one parsed template set per page, each combined with the
// base layout and partials.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all page templates from the given filesystem.
func NewRenderer(fsys fs.FS) *Renderer {
	r := &Renderer{
		templates: make(map[string]*template.Template),
	}

	partials, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		slog.Error("failed to glob partials", "error", err)
	}

	pages, err := fs.Glob(fsys, "*.html")
	if err != nil {
		slog.Error("failed to glob pages", "error", err)
		return r
	}

	for _, page := range pages {
		name := filepath.Base(page)
		if name == "base.html" {
			continue
		}

		files := []string{"base.html"}
		files = append(files, partials...)
		files = append(files, page)

		tmpl, err := template.New("").ParseFS(fsys, files...)
		if err != nil {
			slog.Error("failed to parse template", "page", name, "error", err)
			continue
		}
		r.templates[name] = tmpl
	}

	return r
}

// Render executes the named page template. HTMX partial requests (HX-Request
// header) get just the "content" block; full requests get the "base"
// template. The CSRF token cookie is injected so forms can reference
// {{.CSRFToken}}.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, tmpl string, data map[string]interface{}) {
	t, ok := r.templates[tmpl]
	if !ok {
		slog.Error("template not found", "name", tmpl)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	if cookie, err := req.Cookie("csrf_token"); err == nil {
		data["CSRFToken"] = cookie.Value
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	blockName := "base"
	if strings.ToLower(req.Header.Get("HX-Request")) == "true" {
		blockName = "content"
	}

	if err := t.ExecuteTemplate(w, blockName, data); err != nil {
		slog.Error("failed to execute template", "name", tmpl, "block", blockName, "error", err)
	}
}
