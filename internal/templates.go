package internal

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/Masterminds/sprig"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

const (
	templatesPath = "templates"
	baseTemplate  = "base.html"
	baseName      = "base"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// TemplateManager ...
type TemplateManager struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// NewTemplateManager ...
func NewTemplateManager(conf *Config) (*TemplateManager, error) {
	funcMap := sprig.FuncMap()

	funcMap["time"] = humanize.Time
	funcMap["isAdminUser"] = conf.IsAdminUser

	m := &TemplateManager{templates: make(map[string]*template.Template), funcMap: funcMap}

	if err := m.LoadTemplates(); err != nil {
		log.WithError(err).Error("error loading templates")
		return nil, fmt.Errorf("error loading templates: %w", err)
	}

	return m, nil
}

// LoadTemplates parses every page template together with the base layout
func (m *TemplateManager) LoadTemplates() error {
	base, err := fs.ReadFile(templatesFS, path.Join(templatesPath, baseTemplate))
	if err != nil {
		return fmt.Errorf("error reading base template: %w", err)
	}

	names, err := fs.Glob(templatesFS, path.Join(templatesPath, "*.html"))
	if err != nil {
		return fmt.Errorf("error finding templates: %w", err)
	}

	for _, fn := range names {
		fname := path.Base(fn)
		if fname == baseTemplate {
			continue
		}

		page, err := fs.ReadFile(templatesFS, fn)
		if err != nil {
			return fmt.Errorf("error reading template %s: %w", fname, err)
		}

		name := strings.TrimSuffix(fname, path.Ext(fname))
		t := template.New(name).Option("missingkey=zero").Funcs(m.funcMap)

		if _, err := t.Parse(string(page)); err != nil {
			return fmt.Errorf("error parsing template %s: %w", fname, err)
		}
		if _, err := t.Parse(string(base)); err != nil {
			return fmt.Errorf("error parsing base template for %s: %w", fname, err)
		}

		m.templates[name] = t
	}

	return nil
}

// Exec renders the named page into a buffer
func (m *TemplateManager) Exec(name string, ctx *Context) (io.WriterTo, error) {
	template, ok := m.templates[name]
	if !ok {
		log.WithField("name", name).Errorf("template not found")
		return nil, fmt.Errorf("no such template: %s", name)
	}

	if ctx == nil {
		ctx = &Context{}
	}

	buf := bytes.NewBuffer([]byte{})
	err := template.ExecuteTemplate(buf, baseName, ctx)
	if err != nil {
		log.WithError(err).WithField("name", name).Errorf("error executing template")
		return nil, fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf, nil
}

// StaticFS returns the embedded static assets rooted at the static directory
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.WithError(err).Fatal("error opening static assets")
	}
	return sub
}
