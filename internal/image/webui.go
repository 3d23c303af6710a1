package image

import (
	"context"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/predict"
	"github.com/samber/do"
)

// WebUIGenerator generates images through a web ui's predict endpoint. Args
// is the argument list of the web ui's txt2img function as copied from a
// browser; its first two entries are replaced by the prompts.
type WebUIGenerator struct {
	Client *predict.Client
	Args   string
}

func NewWebUIGenerator(i *do.Injector) (Generator, error) {
	return &WebUIGenerator{
		Client: do.MustInvoke[*predict.Client](i),
		Args:   do.MustInvokeNamed[string](i, "webui_args"),
	}, nil
}

func (g *WebUIGenerator) Generate(ctx context.Context, params Params) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("webui").With("params", params, "host", g.Client.Host())
	log.Info("generating image via web ui")

	data, err := g.Client.InvokeWithPrompts(ctx, g.Args, params.Prompt, params.NegativePrompt)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoImage
	}

	log.Info("received image via web ui", "bytes", len(data))
	return data, nil
}
