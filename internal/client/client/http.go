package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/client/blobsrc"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

const countsPath = "/stats/total-counts"

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	files   blobsrc.Opener
	log     logging.Logger
}

// NewHTTPClient returns a client for the API at opts.BaseURL. files opens
// attachments for multipart bodies and may be nil when no resource uploads.
func NewHTTPClient(opts Options, files blobsrc.Opener, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.Nop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    &http.Client{Timeout: opts.Timeout},
		files:   files,
		log:     log,
	}
}

// Resource returns the API collaborator for one resource kind.
func (c *HTTPClient) Resource(s resources.Schema) *Resource {
	return &Resource{c: c, schema: s}
}

// envelope is a decoded response body.
type envelope struct {
	fields  map[string]json.RawMessage
	Message string
}

// payload returns the "data" member, or the first of keys present.
func (e envelope) payload(keys ...string) (json.RawMessage, bool) {
	for _, k := range append([]string{"data"}, keys...) {
		if k == "" {
			continue
		}
		if raw, ok := e.fields[k]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func decodeEnvelope(b []byte) envelope {
	var env envelope
	if len(bytes.TrimSpace(b)) == 0 {
		return env
	}
	if err := json.Unmarshal(b, &env.fields); err != nil {
		return env
	}
	if raw, ok := env.fields["message"]; ok {
		_ = json.Unmarshal(raw, &env.Message)
	}
	return env
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return envelope{}, common.NetworkFailure(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, common.NetworkFailure(err)
	}
	c.log.Debug(ctx, "request done", "method", method, "path", path, "status", resp.StatusCode)

	env := decodeEnvelope(b)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, &common.RemoteError{Status: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, v any) (envelope, error) {
	if v == nil {
		return c.do(ctx, method, path, nil, "")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return envelope{}, fmt.Errorf("encode body: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(b), "application/json")
}

// Counts returns the navigation counters keyed "<group>.<counter>", e.g.
// "messages.unread". Groups reported as a bare number are keyed by name.
func (c *HTTPClient) Counts(ctx context.Context) (map[string]int, error) {
	env, err := c.do(ctx, http.MethodGet, countsPath, nil, "")
	if err != nil {
		return nil, err
	}
	raw, ok := env.fields["counts"]
	if !ok {
		raw, ok = env.payload("")
	}
	if !ok {
		return map[string]int{}, nil
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}

	out := make(map[string]int)
	for name, g := range groups {
		var n int
		if json.Unmarshal(g, &n) == nil {
			out[name] = n
			continue
		}
		var sub map[string]int
		if err := json.Unmarshal(g, &sub); err != nil {
			return nil, fmt.Errorf("decode counts %s: %w", name, err)
		}
		for k, v := range sub {
			out[name+"."+k] = v
		}
	}
	return out, nil
}
