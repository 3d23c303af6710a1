package post

import (
	"context"

	"github.com/dmorgan81/webuibot/internal/log"
)

type Params struct {
	Date           string
	Prompt         string
	NegativePrompt string
	URL            string
}

type Poster interface {
	Post(context.Context, Params) error
}

type NopPoster struct{}

func (NopPoster) Post(ctx context.Context, params Params) error {
	log.FromContextOrDiscard(ctx).Debug("skipping post", "url", params.URL)
	return nil
}
