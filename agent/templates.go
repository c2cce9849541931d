package agent

import (
	"embed"
	"fmt"
	"maps"
	"path"
	"strings"

	pongo2 "github.com/flosch/pongo2/v6"

	"github.com/awantoch/flowbridge/utils"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templater renders the embedded pongo2 reply and prompt templates.
type Templater struct {
	templates map[string]*pongo2.Template
}

// NewTemplater compiles every embedded template.
func NewTemplater() (*Templater, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	t := &Templater{templates: make(map[string]*pongo2.Template, len(entries))}
	for _, e := range entries {
		src, err := templateFS.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return nil, err
		}
		tpl, err := pongo2.FromBytes(src)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		t.templates[strings.TrimSuffix(e.Name(), ".tmpl")] = tpl
	}
	return t, nil
}

var defaultTemplater = mustTemplater()

func mustTemplater() *Templater {
	t, err := NewTemplater()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the named template. Surrounding whitespace is trimmed.
func (t *Templater) Render(name string, data map[string]any) (string, error) {
	tpl, ok := t.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	ctx := make(pongo2.Context, len(data))
	maps.Copy(ctx, data)
	utils.Debug("rendering template %s", name)
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

func render(name string, data map[string]any) (string, error) {
	return defaultTemplater.Render(name, data)
}
