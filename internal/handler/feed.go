package handler

import (
	"context"

	"github.com/dmorgan81/webuibot/internal/feed"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/store"
	"github.com/samber/do"
)

type FeedHandler struct {
	generator   *feed.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
}

func NewFeedHandler(i *do.Injector) (*FeedHandler, error) {
	return &FeedHandler{
		generator:   do.MustInvoke[*feed.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
	}, nil
}

func (h *FeedHandler) Handle(ctx context.Context) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("FeedHandler")
	log.Info("handling lambda invocation")

	rss, err := h.generator.Generate(ctx)
	if err != nil {
		return err
	}

	err = h.uploader.Upload(ctx, store.UploadParams{
		Name:        "feed.xml",
		Data:        rss,
		ContentType: "application/rss+xml",
	})
	if err != nil {
		return err
	}
	return h.invalidator.Invalidate(ctx, []string{"/feed.xml"})
}
