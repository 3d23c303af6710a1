package feed

import (
	"context"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/webuibot/internal/image"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ObjectClient is the part of *s3.Client the feed reads from.
type ObjectClient interface {
	s3.ListObjectsV2APIClient
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Generator struct {
	client  ObjectClient
	bucket  string
	siteURL string
}

func NewGenerator(client ObjectClient, bucket, siteURL string) *Generator {
	return &Generator{client, bucket, strings.TrimSuffix(siteURL, "/")}
}

func NewS3Generator(i *do.Injector) (*Generator, error) {
	return NewGenerator(
		do.MustInvoke[*s3.Client](i),
		do.MustInvokeNamed[string](i, "bucket"),
		do.MustInvokeNamed[string](i, "site_url"),
	), nil
}

// IsImage reports whether key is a dated image uploaded by the handler.
func IsImage(key string) bool {
	return lo.Contains(image.Extensions(), path.Ext(key)) && !strings.HasPrefix(key, "latest")
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed").With("bucket", g.bucket)
	log.Info("generating rss feed")

	feed := feeds.Feed{
		Title:       "webuibot",
		Description: "Images generated by a self-hosted web ui",
		Link:        &feeds.Link{Href: g.siteURL},
		Updated:     time.Now(),
	}

	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
	})

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			_ = group.Wait()
			return nil, err
		}

		objs := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			return IsImage(aws.ToString(o.Key))
		})

		for _, obj := range objs {
			key := aws.ToString(obj.Key)
			group.Go(func() error {
				out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
					Bucket: aws.String(g.bucket),
					Key:    aws.String(key),
				})
				if err != nil {
					return err
				}

				item := g.item(key, out)
				mu.Lock()
				feed.Add(item)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	log.Info("collected feed items", "count", len(feed.Items))

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.After(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}

func (g *Generator) item(key string, out *s3.HeadObjectOutput) *feeds.Item {
	meta := out.Metadata
	date := lo.Ternary(meta["date"] != "", meta["date"], strings.TrimSuffix(key, path.Ext(key)))
	return &feeds.Item{
		Id:          key,
		Title:       date + " - " + meta["prompt"],
		Description: meta["negative_prompt"],
		Link:        &feeds.Link{Href: g.siteURL + "/" + date + ".html"},
		Enclosure: &feeds.Enclosure{
			Url:    g.siteURL + "/" + key,
			Type:   aws.ToString(out.ContentType),
			Length: strconv.FormatInt(aws.ToInt64(out.ContentLength), 10),
		},
		Updated: lo.FromPtr(out.LastModified),
	}
}
