package web

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/glance/internal/logging"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// DayItem is one row on the days index.
type DayItem struct {
	Date  string
	Count int
}

// DaysPageData is the template data for the days index.
type DaysPageData struct {
	PageData
	Days []DayItem
}

// RecordView is one record prepared for display.
type RecordView struct {
	Time         string
	Frontmost    string
	AppCount     int
	AnalysisHTML template.HTML
}

// DayPageData is the template data for a single day.
type DayPageData struct {
	PageData
	Date    string
	Records []RecordView
}

// SummaryPageData is the template data for the on-demand summary page.
type SummaryPageData struct {
	PageData
	Available   bool
	SummaryHTML template.HTML
	RecordCount int
	Hours       int
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates *template.Template
	version   string
}

// NewRenderer parses all templates from the given FS.
func NewRenderer(fsys fs.FS, version string) *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(fsys, "*.html")),
		version:   version,
	}
}

// Render writes the named template with data, falling back to a bare 500 when
// the template itself fails.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Logger.Errorf("template %s failed: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// RenderError writes the error page with the given status.
func (r *Renderer) RenderError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	r.Render(w, "error.html", ErrorPageData{
		PageData:   PageData{Title: "Error", Version: r.version},
		StatusCode: status,
		Message:    message,
	})
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
