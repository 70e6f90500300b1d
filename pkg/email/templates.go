package email

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// The HTML templates are parsed with text/template and escape user input
// explicitly through the "escape" func, which keeps the entity set fixed.
var (
	htmlTemplates *template.Template
	textTemplates *template.Template
)

func init() {
	funcs := template.FuncMap{"escape": EscapeHTML}
	htmlTemplates = template.Must(template.New("html").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	textTemplates = template.Must(template.New("text").ParseFS(templateFS, "templates/*.txt"))
}

// Render executes the named template pair and returns HTML and plain text bodies.
func Render(name string, data interface{}) (html string, text string, err error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render html %s: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&textBuf, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("render text %s: %w", name, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}
