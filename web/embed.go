package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates. Each page is registered under its file name
// (for example "dashboard.html") and shares the "header" and "footer" blocks from layout.html.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
	}).ParseFS(templatesFS, "templates/*.html")
}
