package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"qrmarket/internal/logs"
	"qrmarket/internal/models"
)

//go:embed templates/*.tmpl
var tplFS embed.FS

// one parsed set per page: layout.tmpl + the page file, keyed by file name
type pageTemplates map[string]*template.Template

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"expiry": func(t *time.Time) string {
		if t == nil {
			return "Never"
		}
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"typeLabel": func(t models.QRCodeType) string { return t.Label() },
	"shortID": func(id string) string {
		if len(id) <= 8 {
			return id
		}
		return id[len(id)-8:]
	},
	"lower": strings.ToLower,
	// imgSrc lets generated PNG data URLs through the URL sanitizer.
	"imgSrc": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/png;base64,") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
			return template.URL(s)
		}
		return ""
	},
}

func parseTemplates() pageTemplates {
	all, err := fs.Glob(tplFS, "templates/*.tmpl")
	if err != nil {
		logs.Logger.Fatalf("web: glob templates failed: %v", err)
	}
	if len(all) == 0 {
		logs.Logger.Fatalf("web: no templates found in embed FS")
	}

	out := make(pageTemplates)
	for _, f := range all {
		if path.Base(f) == "layout.tmpl" {
			continue
		}
		t := template.New("layout").Funcs(funcs)
		if _, err := t.ParseFS(tplFS, "templates/layout.tmpl", f); err != nil {
			logs.Logger.Fatalf("web: parse %s: %v", f, err)
		}
		out[path.Base(f)] = t
	}
	return out
}
