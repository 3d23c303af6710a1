package predict

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webui struct {
	t        *testing.T
	predict  func(w http.ResponseWriter, env Envelope)
	files    map[string][]byte
	envelope Envelope
	posts    atomic.Int32
	gets     atomic.Int32
	gotPaths []string
}

func (u *webui) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.gotPaths = append(u.gotPaths, r.URL.Path)
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/predict":
		u.posts.Add(1)
		assert.Equal(u.t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(u.t, err)
		require.NoError(u.t, json.Unmarshal(body, &u.envelope))
		u.predict(w, u.envelope)
	case r.Method == http.MethodGet && len(r.URL.Path) > len("/file=") && r.URL.Path[:6] == "/file=":
		u.gets.Add(1)
		data, ok := u.files[r.URL.Path[6:]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

func reply(body string) func(http.ResponseWriter, Envelope) {
	return func(w http.ResponseWriter, _ Envelope) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func newWebUI(t *testing.T, predict func(http.ResponseWriter, Envelope)) (*webui, *Client) {
	u := &webui{t: t, predict: predict, files: map[string][]byte{}}
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)
	return u, NewClient(srv.URL, 7)
}

func TestInvokeSendsEnvelope(t *testing.T) {
	u, c := newWebUI(t, reply(`{"data":[[{"is_file":false,"data":"aGk="}]]}`))

	_, err := c.InvokeRaw(context.Background(), `["a prompt", null, 20, true, 7.5]`)
	require.NoError(t, err)

	assert.Equal(t, 7, u.envelope.FnIndex)
	assert.Equal(t, Args{StringArg("a prompt"), NullArg(), IntArg(20), BoolArg(true), FloatArg(7.5)}, u.envelope.Data)
}

func TestInvokeWithPrompts(t *testing.T) {
	u, c := newWebUI(t, reply(`{"data":[[{"is_file":false,"data":"aGk="}]]}`))

	_, err := c.InvokeWithPrompts(context.Background(), `"", "", 30`, "a kitten", "dogs")
	require.NoError(t, err)
	assert.Equal(t, Args{StringArg("a kitten"), StringArg("dogs"), IntArg(30)}, u.envelope.Data)

	_, err = c.InvokeWithPrompts(context.Background(), `30`, "a kitten", "dogs")
	assert.ErrorIs(t, err, ErrTooFewArgs)
	assert.EqualValues(t, 1, u.posts.Load())
}

func TestInvokeInline(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	body := `{"data":[[{"is_file":false,"data":"` + base64.StdEncoding.EncodeToString(payload) + `"}]]}`
	_, c := newWebUI(t, reply(body))

	data, err := c.Invoke(context.Background(), Args{StringArg("x"), StringArg("")})
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestInvokeLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "00001.png")
	require.NoError(t, os.WriteFile(path, []byte("local image"), 0600))

	name, err := json.Marshal(path)
	require.NoError(t, err)
	u, c := newWebUI(t, reply(`{"data":[[{"is_file":true,"name":`+string(name)+`,"data":null}]]}`))

	data, err := c.Invoke(context.Background(), Args{NullArg()})
	require.NoError(t, err)
	assert.Equal(t, []byte("local image"), data)
	assert.EqualValues(t, 0, u.gets.Load())
}

func TestInvokeRemoteFile(t *testing.T) {
	u, c := newWebUI(t, reply(`{"data":[[{"is_file":true,"name":"tmp/abc123.png","data":null}]],"error":null}`))
	u.files["tmp/abc123.png"] = []byte("remote image")

	data, err := c.Invoke(context.Background(), Args{NullArg()})
	require.NoError(t, err)
	assert.Equal(t, []byte("remote image"), data)
	assert.EqualValues(t, 1, u.gets.Load())
	assert.Equal(t, []string{"/api/predict", "/file=tmp/abc123.png"}, u.gotPaths)
}

func TestInvokeRemoteFileMissing(t *testing.T) {
	_, c := newWebUI(t, reply(`{"data":[[{"is_file":true,"name":"tmp/gone.png"}]]}`))

	_, err := c.Invoke(context.Background(), Args{NullArg()})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestInvokeDirectoryIsNotLocal(t *testing.T) {
	dir := t.TempDir()
	name, err := json.Marshal(dir)
	require.NoError(t, err)
	u, c := newWebUI(t, reply(`{"data":[[{"is_file":true,"name":`+string(name)+`}]]}`))

	_, err = c.Invoke(context.Background(), Args{NullArg()})
	assert.ErrorIs(t, err, ErrTransport)
	assert.EqualValues(t, 1, u.gets.Load())
}

func TestInvokeRemoteError(t *testing.T) {
	_, c := newWebUI(t, reply(`{"error":"IndexError: list index out of range","data":[[{"is_file":true,"name":"x"}]]}`))

	_, err := c.Invoke(context.Background(), Args{NullArg()})
	require.ErrorIs(t, err, ErrRemote)

	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 7, re.FnIndex)
	assert.NotContains(t, err.Error(), "IndexError")
	assert.Contains(t, err.Error(), "check your arguments")
}

func TestInvokeNoResult(t *testing.T) {
	for _, body := range []string{"", "Internal Server Error", "null", "{"} {
		t.Run(body, func(t *testing.T) {
			_, c := newWebUI(t, func(w http.ResponseWriter, _ Envelope) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, body)
			})

			data, err := c.Invoke(context.Background(), Args{NullArg()})
			assert.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestInvokeProtocolError(t *testing.T) {
	_, c := newWebUI(t, reply(`{"data":[]}`))

	_, err := c.Invoke(context.Background(), Args{NullArg()})
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestInvokeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, 0).Invoke(context.Background(), Args{NullArg()})
	require.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.MethodPost, te.Method)
	assert.Equal(t, srv.URL+"/api/predict", te.URL)
}

func TestInvokeCancelled(t *testing.T) {
	block := make(chan struct{})
	_, c := newWebUI(t, func(w http.ResponseWriter, _ Envelope) {
		<-block
	})
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Invoke(ctx, Args{NullArg()})
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient(t *testing.T) {
	assert.Equal(t, DefaultHost, NewClient("", 0).Host())
	assert.Equal(t, "http://webui:7860/", NewClient("http://webui:7860", 0).Host())
	assert.Equal(t, "http://webui:7860/", NewClient("http://webui:7860/", 3).Host())
	assert.Equal(t, 3, NewClient("", 3).FnIndex())
	assert.Zero(t, NewClient("", 0).client.Timeout)
}
