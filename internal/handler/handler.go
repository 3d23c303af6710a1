package handler

import (
	"context"
	"strings"
	"time"

	"github.com/dmorgan81/webuibot/internal/image"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/page"
	"github.com/dmorgan81/webuibot/internal/post"
	"github.com/dmorgan81/webuibot/internal/prompt"
	"github.com/dmorgan81/webuibot/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Input struct {
	Date           string `json:"date,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

func (i Input) toImageParams() image.Params {
	return image.Params{
		Prompt:         i.Prompt,
		NegativePrompt: i.NegativePrompt,
	}
}

func (i Input) toPageParams(img string) page.Params {
	return page.Params{
		Date:           i.Date,
		Image:          img,
		Prompt:         i.Prompt,
		NegativePrompt: i.NegativePrompt,
	}
}

func (i Input) toMetadata(img string) map[string]string {
	return map[string]string{
		"date":            i.Date,
		"image":           img,
		"prompt":          i.Prompt,
		"negative_prompt": i.NegativePrompt,
	}
}

type Output struct {
	Input
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
	Page        string `json:"page"`
}

type Handler struct {
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
	templator   *page.Templator
	poster      post.Poster
	siteURL     string
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		randomizer:  do.MustInvoke[*prompt.Randomizer](i),
		generator:   do.MustInvoke[image.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
		templator:   do.MustInvoke[*page.Templator](i),
		poster:      do.MustInvoke[post.Poster](i),
		siteURL:     strings.TrimSuffix(do.MustInvokeNamed[string](i, "site_url"), "/"),
	}, nil
}

// Handle generates one image and publishes it with its page. Without a date
// the image is today's and also replaces the latest image and page.
func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling lambda invocation")

	if input.Prompt == "" {
		prompt, negative, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return Output{}, err
		}
		input.Prompt = prompt
		input.NegativePrompt = lo.Ternary(input.NegativePrompt != "", input.NegativePrompt, negative)
	}

	latest := false
	if input.Date == "" {
		input.Date = time.Now().UTC().Format("20060102")
		latest = true
	}

	img, err := h.generator.Generate(ctx, input.toImageParams())
	if err != nil {
		return Output{}, err
	}
	contentType, ext := image.DetectContentType(img)
	name := input.Date + ext
	log.Info("generated image", "name", name, "content-type", contentType, "bytes", len(img))

	html, err := h.templator.Template(ctx, input.toPageParams(name))
	if err != nil {
		return Output{}, err
	}

	metadata := input.toMetadata(name)
	uploads := []store.UploadParams{
		{
			Name:        name,
			Data:        img,
			ContentType: contentType,
			Metadata:    metadata,
		},
		{
			Name:        input.Date + ".html",
			Data:        html,
			ContentType: "text/html",
			Metadata:    metadata,
		},
	}
	if latest {
		uploads = append(uploads,
			store.UploadParams{
				Name:        "latest" + ext,
				Data:        img,
				ContentType: contentType,
				Metadata:    metadata,
			},
			store.UploadParams{
				Name:        "latest.html",
				Data:        html,
				ContentType: "text/html",
				Metadata:    metadata,
			},
		)
	}
	for _, u := range uploads {
		if err := h.uploader.Upload(ctx, u); err != nil {
			return Output{}, err
		}
	}

	paths := lo.Map(uploads, func(u store.UploadParams, _ int) string {
		return "/" + u.Name
	})
	if err := h.invalidator.Invalidate(ctx, paths); err != nil {
		return Output{}, err
	}

	output := Output{
		Input:       input,
		Image:       name,
		ContentType: contentType,
		Page:        h.siteURL + "/" + input.Date + ".html",
	}
	if latest {
		err := h.poster.Post(ctx, post.Params{
			Date:           input.Date,
			Prompt:         input.Prompt,
			NegativePrompt: input.NegativePrompt,
			URL:            output.Page,
		})
		if err != nil {
			return Output{}, err
		}
	}

	return output, nil
}
