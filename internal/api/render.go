package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"dashboard", "add_patient", "search", "login", "error"}

// page is the data every view is rendered with.
type page struct {
	Title string
	// Nav marks the active navigation entry.
	Nav         string
	AuthEnabled bool
	Flash       string
	Error       string
	Data        any
}

func parseViews() (map[string]*template.Template, error) {
	views := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s view: %w", name, err)
		}
		views[name] = t
	}
	return views, nil
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, p page) {
	t, ok := h.views[name]
	if !ok {
		http.Error(w, "unknown view "+name, http.StatusInternalServerError)
		return
	}
	p.AuthEnabled = h.cfg.AuthEnabled()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		http.Error(w, "unable to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
