package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/samber/do"
)

//go:embed assets/latest.html
var latestTmpl string

type Params struct {
	Title          string
	Date           string
	Image          string
	Prompt         string
	NegativePrompt string
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(*do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("latest").Parse(latestTmpl))
	})
	if params.Title == "" {
		params.Title = "webuibot"
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("templator")
	log.Info("generating page", "image", params.Image)

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
