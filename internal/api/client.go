package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Doer is the subset of *http.Client the Client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the bookkeeping REST API and unwraps its response envelope.
type Client struct {
	baseURL *url.URL
	http    Doer
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	token   string
	timeout time.Duration
	doer    Doer
	log     zerolog.Logger
}

// WithToken sends the bearer token on every request.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithTimeout bounds every request. Zero leaves requests bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithDoer replaces the underlying HTTP client entirely; transports are not installed.
func WithDoer(d Doer) Option {
	return func(o *clientOptions) { o.doer = d }
}

// WithLogger sets the logger used for request logging.
func WithLogger(log zerolog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// NewClient creates a client rooted at baseURL, e.g. "https://api.example.com/v1".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := clientOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("NewClient: parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("NewClient: base url %q must be http or https", baseURL)
	}

	doer := o.doer
	if doer == nil {
		doer = &http.Client{
			Timeout:   o.timeout,
			Transport: Chain(http.DefaultTransport, RequestID, Logging(o.log), Bearer(o.token)),
		}
	}

	return &Client{baseURL: u, http: doer, log: o.log}, nil
}

// BaseURL returns the root every path is resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Get issues a GET and decodes data into out. The pagination block is returned when present.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if err := decodeData(http.MethodGet, path, env, out); err != nil {
		return nil, err
	}
	return env.Pagination, nil
}

// Post issues a POST with a JSON body and decodes data into out (out may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	env, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decodeData(http.MethodPost, path, env, out)
}

// Put issues a PUT with a JSON body and decodes data into out (out may be nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	env, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return decodeData(http.MethodPut, path, env, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	op := method + " " + path

	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Op: op, Message: "request could not be encoded", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		kind := KindTransport
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindUnauthorized
		}
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decoding envelope: %w", err)}
	}

	if !env.Success {
		kind := KindServer
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindUnauthorized
		}
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: env.Message}
	}

	return &env, nil
}

func decodeData(method, path string, env *Envelope, out any) error {
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Op: method + " " + path, Err: fmt.Errorf("decoding data: %w", err)}
	}
	return nil
}

// ErrNoCompany is returned when an operation needs a company and none is selected.
var ErrNoCompany = errors.New("no company selected")

// RequireCompany turns an empty company id into an authorization-gap error.
func RequireCompany(companyID string) error {
	if companyID == "" {
		return &Error{Kind: KindUnauthorized, Message: "Select a company first.", Err: ErrNoCompany}
	}
	return nil
}
