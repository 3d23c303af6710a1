package inject

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/webuibot/internal/feed"
	"github.com/dmorgan81/webuibot/internal/handler"
	"github.com/dmorgan81/webuibot/internal/image"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/page"
	"github.com/dmorgan81/webuibot/internal/param"
	"github.com/dmorgan81/webuibot/internal/post"
	"github.com/dmorgan81/webuibot/internal/predict"
	"github.com/dmorgan81/webuibot/internal/prompt"
	"github.com/dmorgan81/webuibot/internal/store"
	"github.com/samber/do"
)

// Setup wires every component from the environment. Nothing is resolved
// until first invoked, so a binary only touches the services it uses.
func Setup(ctx context.Context) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	// Generation may run for as long as the web ui needs; no client timeout.
	do.ProvideValue[*http.Client](injector, &http.Client{})
	do.Provide[*predict.Client](injector, func(i *do.Injector) (*predict.Client, error) {
		return predict.NewClient(
			do.MustInvokeNamed[string](i, "webui_host"),
			do.MustInvokeNamed[int](i, "webui_fn_index"),
			predict.WithHTTPClient(do.MustInvoke[*http.Client](i)),
		), nil
	})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[image.Generator](injector, image.NewWebUIGenerator)
	do.Provide[store.Uploader](injector, func(i *do.Injector) (store.Uploader, error) {
		if do.MustInvokeNamed[string](i, "bucket") == "" {
			return &store.FileUploader{Dir: os.Getenv("OUTPUT_DIR")}, nil
		}
		return store.NewS3Uploader(i)
	})
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if do.MustInvokeNamed[string](i, "distribution") == "" {
			return store.NopInvalidator{}, nil
		}
		return store.NewCloudFrontInvalidator(i)
	})
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*feed.Generator](injector, feed.NewS3Generator)
	do.Provide[post.Poster](injector, post.NewPoster)

	do.ProvideNamedValue[string](injector, "webui_host", os.Getenv("WEBUI_HOST"))
	do.ProvideNamed[int](injector, "webui_fn_index", func(i *do.Injector) (int, error) {
		idx, err := strconv.Atoi(os.Getenv("WEBUI_FN_INDEX"))
		if err != nil {
			return 0, fmt.Errorf("WEBUI_FN_INDEX: %w", err)
		}
		return idx, nil
	})
	do.ProvideNamed[string](injector, "webui_args", func(i *do.Injector) (string, error) {
		return fetchOr(ctx, i, "WEBUI_ARGS_PARAM", "WEBUI_ARGS")
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		if path := os.Getenv("PROMPTS_PARAM"); path != "" {
			return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, path)
		}
		return param.Lines(os.Getenv("PROMPTS")), nil
	})
	do.ProvideNamed[string](injector, "reddit_client_id", func(i *do.Injector) (string, error) {
		return fetchOr(ctx, i, "REDDIT_CLIENT_ID_PARAM", "REDDIT_CLIENT_ID")
	})
	do.ProvideNamed[string](injector, "reddit_client_secret", func(i *do.Injector) (string, error) {
		return fetchOr(ctx, i, "REDDIT_CLIENT_SECRET_PARAM", "REDDIT_CLIENT_SECRET")
	})
	do.ProvideNamed[string](injector, "reddit_password", func(i *do.Injector) (string, error) {
		return fetchOr(ctx, i, "REDDIT_PASSWORD_PARAM", "REDDIT_PASSWORD")
	})
	do.ProvideNamedValue[string](injector, "reddit_username", os.Getenv("REDDIT_USERNAME"))
	do.ProvideNamedValue[string](injector, "bucket", os.Getenv("BUCKET"))
	do.ProvideNamedValue[string](injector, "distribution", os.Getenv("DISTRIBUTION"))
	do.ProvideNamedValue[string](injector, "subreddit", os.Getenv("SUBREDDIT"))
	do.ProvideNamedValue[string](injector, "site_url", os.Getenv("SITE_URL"))

	do.Provide[*handler.Handler](injector, handler.NewHandler)
	do.Provide[*handler.PageHandler](injector, handler.NewPageHandler)
	do.Provide[*handler.FeedHandler](injector, handler.NewFeedHandler)

	return injector
}

// fetchOr reads the parameter named by paramEnv, falling back to the plain
// value of fallbackEnv when no parameter is configured.
func fetchOr(ctx context.Context, i *do.Injector, paramEnv, fallbackEnv string) (string, error) {
	path := os.Getenv(paramEnv)
	if path == "" {
		return os.Getenv(fallbackEnv), nil
	}
	return do.MustInvoke[param.Fetcher](i).Fetch(ctx, path)
}
