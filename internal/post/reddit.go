package post

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

type RedditPoster struct {
	client    *reddit.Client
	subreddit string
}

// NewPoster returns a RedditPoster, or a NopPoster when no subreddit is
// configured.
func NewPoster(i *do.Injector) (Poster, error) {
	subreddit := do.MustInvokeNamed[string](i, "subreddit")
	if subreddit == "" {
		return NopPoster{}, nil
	}

	creds := reddit.Credentials{
		ID:       do.MustInvokeNamed[string](i, "reddit_client_id"),
		Secret:   do.MustInvokeNamed[string](i, "reddit_client_secret"),
		Username: do.MustInvokeNamed[string](i, "reddit_username"),
		Password: do.MustInvokeNamed[string](i, "reddit_password"),
	}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent(creds.Username)))
	if err != nil {
		return nil, err
	}
	return &RedditPoster{client, subreddit}, nil
}

func userAgent(username string) string {
	revision := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		revision = lo.FindOrElse(info.Settings, debug.BuildSetting{Value: "unknown"}, func(s debug.BuildSetting) bool {
			return s.Key == "vcs.revision"
		}).Value
	}
	return fmt.Sprintf("web:webuibot:%s (by /u/%s)", revision, username)
}

func (p *RedditPoster) Post(ctx context.Context, params Params) error {
	log.FromContextOrDiscard(ctx).Info("posting to reddit", "subreddit", p.subreddit, "url", params.URL)
	_, _, err := p.client.Post.SubmitLink(ctx, reddit.SubmitLinkRequest{
		Subreddit:   p.subreddit,
		Title:       Title(params),
		URL:         params.URL,
		SendReplies: lo.ToPtr(false),
	})
	return err
}

// Title is the headline a generated image is announced with. Reddit caps
// titles at 300 characters.
func Title(params Params) string {
	title := fmt.Sprintf("%s - %s", params.Date, params.Prompt)
	if runes := []rune(title); len(runes) > 300 {
		title = string(runes[:297]) + "..."
	}
	return title
}
