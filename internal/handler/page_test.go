package handler

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/webuibot/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePageClient struct {
	keys     []string
	prefix   string
	headed   string
	response *s3.WriteGetObjectResponseInput
	body     []byte
}

func (c *fakePageClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.prefix = aws.ToString(in.Prefix)
	out := &s3.ListObjectsV2Output{}
	for _, key := range c.keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (c *fakePageClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.headed = aws.ToString(in.Key)
	return &s3.HeadObjectOutput{
		ETag:     aws.String(`"abc"`),
		Metadata: map[string]string{"date": "20240102", "prompt": "a cat", "negative_prompt": "dogs"},
	}, nil
}

func (c *fakePageClient) WriteGetObjectResponse(_ context.Context, in *s3.WriteGetObjectResponseInput, _ ...func(*s3.Options)) (*s3.WriteGetObjectResponseOutput, error) {
	c.response = in
	c.body, _ = io.ReadAll(in.Body)
	return &s3.WriteGetObjectResponseOutput{}, nil
}

func pageRequest(url string) PageRequest {
	return PageRequest{
		Id: "req",
		GetContext: objectContext{
			Url:   url,
			Route: "route",
			Token: "token",
		},
	}
}

func TestPageHandler(t *testing.T) {
	client := &fakePageClient{keys: []string{"20240102.html", "20240102.webp"}}
	h := &PageHandler{client: client, bucket: "bucket", templator: &page.Templator{}}

	err := h.Handle(context.Background(), pageRequest("https://bucket.s3.us-east-1.amazonaws.com/20240102.html?X-Amz-Signature=x"))
	require.NoError(t, err)

	assert.Equal(t, "20240102.", client.prefix)
	assert.Equal(t, "20240102.webp", client.headed)
	assert.Equal(t, "route", aws.ToString(client.response.RequestRoute))
	assert.Equal(t, "token", aws.ToString(client.response.RequestToken))
	assert.Equal(t, `"abc"`, aws.ToString(client.response.ETag))
	assert.Equal(t, int32(200), aws.ToInt32(client.response.StatusCode))
	assert.Equal(t, int64(len(client.body)), aws.ToInt64(client.response.ContentLength))
	assert.Contains(t, string(client.body), `src="/20240102.webp"`)
	assert.Contains(t, string(client.body), "a cat")
}

func TestPageHandlerLatest(t *testing.T) {
	client := &fakePageClient{keys: []string{"latest.html", "latest.png"}}
	h := &PageHandler{client: client, bucket: "bucket", templator: &page.Templator{}}

	require.NoError(t, h.Handle(context.Background(), pageRequest("https://bucket.s3.amazonaws.com/latest.html")))
	assert.Equal(t, "latest.png", client.headed)
}

func TestPageHandlerNoImage(t *testing.T) {
	client := &fakePageClient{keys: []string{"20240102.html"}}
	h := &PageHandler{client: client, bucket: "bucket", templator: &page.Templator{}}

	err := h.Handle(context.Background(), pageRequest("https://bucket.s3.amazonaws.com/20240102.html"))
	assert.ErrorContains(t, err, "no image for page 20240102")
	assert.Nil(t, client.response)
}

func TestPageHandlerBadURL(t *testing.T) {
	h := &PageHandler{client: &fakePageClient{}, bucket: "bucket", templator: &page.Templator{}}

	err := h.Handle(context.Background(), pageRequest("https://example.com/20240102.png"))
	assert.Error(t, err)
}
