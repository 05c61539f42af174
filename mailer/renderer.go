package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

// ErrTemplateNotFound indicates neither an html nor a txt body exists for a name.
var ErrTemplateNotFound = errors.New("mailer: template not found")

// Renderer executes named mail templates. A template name such as
// "email.credential.register" resolves to email.credential.register.html and
// email.credential.register.txt; either may be absent but not both.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// DefaultTemplates returns the embedded template directory.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewRenderer parses every *.html and *.txt file at the root of fsys. A nil
// fsys uses DefaultTemplates.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	if fsys == nil {
		fsys = DefaultTemplates()
	}
	r := &Renderer{}
	if matches, _ := fs.Glob(fsys, "*.html"); len(matches) > 0 {
		tmpl, err := htmltemplate.New("html").Option("missingkey=zero").ParseFS(fsys, "*.html")
		if err != nil {
			return nil, fmt.Errorf("mailer: parse html templates: %w", err)
		}
		r.html = tmpl
	}
	if matches, _ := fs.Glob(fsys, "*.txt"); len(matches) > 0 {
		tmpl, err := texttemplate.New("text").Option("missingkey=zero").ParseFS(fsys, "*.txt")
		if err != nil {
			return nil, fmt.Errorf("mailer: parse text templates: %w", err)
		}
		r.text = tmpl
	}
	return r, nil
}

// Render executes the html and text variants of name with data.
func (r *Renderer) Render(name string, data any) (html, text string, err error) {
	found := false
	if r.html != nil {
		if tmpl := r.html.Lookup(name + ".html"); tmpl != nil {
			found = true
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return "", "", fmt.Errorf("mailer: render %s.html: %w", name, err)
			}
			html = buf.String()
		}
	}
	if r.text != nil {
		if tmpl := r.text.Lookup(name + ".txt"); tmpl != nil {
			found = true
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return "", "", fmt.Errorf("mailer: render %s.txt: %w", name, err)
			}
			text = buf.String()
		}
	}
	if !found {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return html, text, nil
}
