// Package web holds the HTML pages served by both apps.
package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page with the helpers they use.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"comma": comma,
		"pct":   func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"bar":   func(f float64) float64 { return min(f, 100) },
		"inc":   func(i int) int { return i + 1 },
	}).ParseFS(files, "templates/*.html"))
}

// comma formats counts with thousands separators.
func comma(n any) string {
	switch v := n.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	}
	return fmt.Sprint(n)
}
