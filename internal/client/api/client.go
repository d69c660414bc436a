package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/common"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "token/refresh/"

// TokenSource supplies the current access token. An empty string means
// unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// RefreshFunc obtains a new access token and stores it where the client's
// TokenSource can see it. A non-nil error means the session is gone.
type RefreshFunc func(ctx context.Context) error

type noToken struct{}

func (noToken) AccessToken() string { return "" }

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
	timeout time.Duration

	mu      sync.RWMutex
	refresh RefreshFunc
	group   singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A client without a
// cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout bounds every single HTTP exchange. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a client for the API rooted at baseURL. A missing trailing
// slash is added so relative endpoint paths resolve under it.
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: u,
		tokens:  noToken{},
		log:     logging.Discard(),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	c.log = c.log.With("component", "api")

	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetRefreshHandler registers the function run on a 401. Without one a 401
// is returned as is.
func (c *Client) SetRefreshHandler(fn RefreshFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = fn
}

func (c *Client) refreshHandler() RefreshFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// noRefresh marks endpoints where a 401 means bad credentials rather
	// than an expired token.
	noRefresh bool
}

// do sends r and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = b
	}

	requestID := uuid.NewString()
	log := c.log.With("request_id", requestID, "method", r.method, "path", r.path)

	data, err := c.send(ctx, log, r, payload, requestID)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return data, err
	}

	refresh := c.refreshHandler()
	if r.noRefresh || r.path == refreshPath || refresh == nil {
		return nil, err
	}

	if rerr := c.refreshShared(ctx, refresh); rerr != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		log.Warn(ctx, "token refresh failed", "error", rerr)
		return nil, err
	}

	log.Info(ctx, "token refreshed, replaying request")
	return c.send(ctx, log, r, payload, requestID)
}

// refreshShared runs fn so that callers hitting a 401 at the same time share
// one refresh call and its outcome. The refresh is detached from the
// cancellation of the caller that started it; its HTTP call is still bounded
// by the client timeout. A caller whose own ctx ends stops waiting and gets
// ctx.Err().
func (c *Client) refreshShared(ctx context.Context, fn RefreshFunc) error {
	ch := c.group.DoChan("refresh", func() (any, error) {
		return nil, fn(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, log logging.Logger, r request, payload []byte, requestID string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: r.path})
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug(ctx, "request failed", "error", err, "duration", time.Since(start))
		if cerr := ctx.Err(); errors.Is(cerr, context.Canceled) {
			return nil, cerr
		}
		return nil, &ConnectionError{BaseURL: c.BaseURL(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{BaseURL: c.BaseURL(), Err: err}
	}
	log.Debug(ctx, "request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeList accepts a bare array or a paginated {"results": [...]} object.
// An empty body decodes to an empty slice.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := decodeJSON(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}
