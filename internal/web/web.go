// Package web holds the server-rendered pages' templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses every page and partial into one set. Pages are addressed by file name,
// e.g. "home.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templatesFS, "templates/*.html")
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": Money,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("Jan 2, 2006 15:04 UTC")
		},
		"title": func(s any) string {
			v := strings.ReplaceAll(fmt.Sprint(s), "_", " ")
			if v == "" {
				return v
			}
			return strings.ToUpper(v[:1]) + v[1:]
		},
	}
}

// Money formats cents as dollars, e.g. 1250 -> "$12.50".
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
