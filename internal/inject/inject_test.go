package inject

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmorgan81/webuibot/internal/handler"
	"github.com/dmorgan81/webuibot/internal/post"
	"github.com/dmorgan81/webuibot/internal/predict"
	"github.com/dmorgan81/webuibot/internal/store"
	"github.com/goccy/go-json"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setenv(t *testing.T, url, dir string) {
	for _, key := range []string{"BUCKET", "DISTRIBUTION", "SUBREDDIT", "WEBUI_ARGS_PARAM", "PROMPTS_PARAM"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("WEBUI_HOST", url)
	t.Setenv("WEBUI_FN_INDEX", "12")
	t.Setenv("WEBUI_ARGS", `["", "", 20, 7.5]`)
	t.Setenv("PROMPTS", "a kitten|dogs")
	t.Setenv("SITE_URL", "https://example.com")
	t.Setenv("OUTPUT_DIR", dir)
}

func TestSetupLocal(t *testing.T) {
	var env predict.Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &env))
		_, _ = io.WriteString(w, `{"data":[[{"is_file":false,"data":"`+base64.StdEncoding.EncodeToString(png)+`"}]]}`)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	setenv(t, srv.URL, dir)

	injector := Setup(context.Background())
	t.Cleanup(func() { _ = injector.Shutdown() })

	assert.IsType(t, &store.FileUploader{}, do.MustInvoke[store.Uploader](injector))
	assert.IsType(t, store.NopInvalidator{}, do.MustInvoke[store.Invalidator](injector))
	assert.IsType(t, post.NopPoster{}, do.MustInvoke[post.Poster](injector))

	h := do.MustInvoke[*handler.Handler](injector)
	out, err := h.Handle(context.Background(), handler.Input{Date: "20240102"})
	require.NoError(t, err)
	assert.Equal(t, "a kitten", out.Prompt)
	assert.Equal(t, "https://example.com/20240102.html", out.Page)

	assert.Equal(t, 12, env.FnIndex)
	assert.Equal(t, predict.Args{predict.StringArg("a kitten"), predict.StringArg("dogs"), predict.IntArg(20), predict.FloatArg(7.5)}, env.Data)

	data, err := os.ReadFile(filepath.Join(dir, "20240102.png"))
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.FileExists(t, filepath.Join(dir, "20240102.html"))
}

func TestSetupBadFnIndex(t *testing.T) {
	setenv(t, "http://127.0.0.1:7860", t.TempDir())
	t.Setenv("WEBUI_FN_INDEX", "txt2img")

	_, err := do.InvokeNamed[int](Setup(context.Background()), "webui_fn_index")
	assert.ErrorContains(t, err, "WEBUI_FN_INDEX")
}
