package predict

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/goccy/go-json"
)

// DefaultHost is where a web ui listens when started with default flags.
const DefaultHost = "http://127.0.0.1:7860/"

// FileSystem is the local disk as seen by a Client resolving file results.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
}

type OSFileSystem struct{}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (OSFileSystem) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

// Client calls a single function of a web ui through api/predict.
//
// A Client holds no per-call state and may be shared between goroutines.
// Calls carry no deadline of their own; generation of large batches can take
// many minutes, so cancel through ctx if a bound is needed.
type Client struct {
	client  *http.Client
	fs      FileSystem
	host    string
	fnIndex int
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

func WithFileSystem(fs FileSystem) Option {
	return func(c *Client) { c.fs = fs }
}

// NewClient returns a client for the function at fnIndex, the index shown in
// the fn_index field of any request the web ui's own page sends.
func NewClient(host string, fnIndex int, opts ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}

	c := &Client{
		client:  &http.Client{Timeout: 0},
		fs:      OSFileSystem{},
		host:    host,
		fnIndex: fnIndex,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Host() string { return c.host }
func (c *Client) FnIndex() int { return c.fnIndex }

// InvokeRaw tokenizes raw and invokes the function with the result.
func (c *Client) InvokeRaw(ctx context.Context, raw string) ([]byte, error) {
	return c.Invoke(ctx, Tokenize(raw))
}

// InvokeWithPrompts is InvokeRaw with the first two arguments replaced by
// prompt and negativePrompt.
func (c *Client) InvokeWithPrompts(ctx context.Context, raw, prompt, negativePrompt string) ([]byte, error) {
	args, err := TokenizeWithPrompts(raw, prompt, negativePrompt)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, args)
}

// Invoke posts args to api/predict and returns the bytes of the first output.
//
// A nil slice with a nil error means the web ui answered with something that
// is not JSON. Failures are a *TransportError, a *RemoteError or a
// *ProtocolError, matching ErrTransport, ErrRemote and ErrProtocol.
func (c *Client) Invoke(ctx context.Context, args Args) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("predict").With("host", c.host, "fn_index", c.fnIndex)
	log.Info("invoking predict", "args", len(args))

	body, err := json.Marshal(Envelope{FnIndex: c.fnIndex, Data: args})
	if err != nil {
		return nil, fmt.Errorf("encode fn_index %d arguments: %w", c.fnIndex, err)
	}

	url := c.host + "api/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	log.Debug("received predict response", "status", status, "bytes", len(data))

	result, err := DecodeResponse(data)
	if err != nil {
		if re, ok := err.(*RemoteError); ok {
			re.FnIndex = c.fnIndex
			log.Warn("web ui rejected arguments", "error", string(re.payload))
		}
		return nil, err
	}

	switch r := result.(type) {
	case FileResult:
		return c.readFile(ctx, r.Name)
	case InlineResult:
		log.Info("received inline result", "bytes", len(r.Data))
		return r.Data, nil
	}

	log.Warn("predict response was not json", "status", status)
	return nil, nil
}

func (c *Client) readFile(ctx context.Context, name string) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("predict").With("file", name)

	if info, err := c.fs.Stat(name); err == nil && !info.IsDir() {
		log.Info("reading result from local disk")
		f, err := c.fs.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open result %s: %w", name, err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read result %s: %w", name, err)
		}
		return data, nil
	}

	url := c.host + "file=" + name
	log.Info("fetching result from web ui", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: url, Err: err}
	}

	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &TransportError{Method: http.MethodGet, URL: url, Err: fmt.Errorf("unexpected status %d", status)}
	}
	return data, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	return data, resp.StatusCode, nil
}
