package handler

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/webuibot/internal/feed"
	"github.com/dmorgan81/webuibot/internal/image"
	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/page"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var urlRegexp = regexp.MustCompile(`^https://.+\.amazonaws\.com/(?P<key>.+?)\.html(?:\?.*)?$`)

type objectContext struct {
	Url   string `json:"inputS3Url"`
	Route string `json:"outputRoute"`
	Token string `json:"outputToken"`
}

// PageRequest is the event S3 Object Lambda sends for a GET of a page.
type PageRequest struct {
	Id         string        `json:"xAmzRequestId"`
	GetContext objectContext `json:"getObjectContext"`
}

type PageClient interface {
	feed.ObjectClient
	WriteGetObjectResponse(context.Context, *s3.WriteGetObjectResponseInput, ...func(*s3.Options)) (*s3.WriteGetObjectResponseOutput, error)
}

// PageHandler renders pages on request from the metadata of their image, so
// template changes apply to every page already published.
type PageHandler struct {
	client    PageClient
	bucket    string
	templator *page.Templator
}

func NewPageHandler(i *do.Injector) (*PageHandler, error) {
	return &PageHandler{
		client:    do.MustInvoke[*s3.Client](i),
		bucket:    do.MustInvokeNamed[string](i, "bucket"),
		templator: do.MustInvoke[*page.Templator](i),
	}, nil
}

func (h *PageHandler) Handle(ctx context.Context, request PageRequest) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("PageHandler").With("request", request)
	matches := urlRegexp.FindStringSubmatch(request.GetContext.Url)
	if matches == nil {
		return fmt.Errorf("unexpected object url %q", request.GetContext.Url)
	}
	key := matches[urlRegexp.SubexpIndex("key")]
	log.Info("handling lambda request", "key", key)

	img, err := h.findImage(ctx, key)
	if err != nil {
		return err
	}

	out, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(img),
	})
	if err != nil {
		return err
	}

	html, err := h.templator.Template(ctx, page.Params{
		Date:           out.Metadata["date"],
		Image:          img,
		Prompt:         out.Metadata["prompt"],
		NegativePrompt: out.Metadata["negative_prompt"],
	})
	if err != nil {
		return err
	}

	_, err = h.client.WriteGetObjectResponse(ctx, &s3.WriteGetObjectResponseInput{
		RequestRoute: aws.String(request.GetContext.Route),
		RequestToken: aws.String(request.GetContext.Token),

		Body:          bytes.NewReader(html),
		ContentLength: aws.Int64(int64(len(html))),
		ContentType:   aws.String("text/html"),
		ETag:          out.ETag,
		Expires:       out.Expires,
		LastModified:  out.LastModified,
		Metadata:      out.Metadata,
		StatusCode:    aws.Int32(200),
	})
	return err
}

func (h *PageHandler) findImage(ctx context.Context, key string) (string, error) {
	out, err := h.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(h.bucket),
		Prefix: aws.String(key + "."),
	})
	if err != nil {
		return "", err
	}

	obj, ok := lo.Find(out.Contents, func(o s3types.Object) bool {
		return lo.Contains(image.Extensions(), path.Ext(aws.ToString(o.Key)))
	})
	if !ok {
		return "", fmt.Errorf("no image for page %s", key)
	}
	return aws.ToString(obj.Key), nil
}
