package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comptes-dev/comptes/internal/model"
)

// RequestIDHeader carries a per-request identifier for tracing.
const RequestIDHeader = "X-Request-ID"

const (
	collectionPath = "comptes"
	maxErrorBody   = 512
)

// Client talks to the comptes REST collection.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    *slog.Logger
	userAgent string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. When hc has no Timeout
// of its own, the one given to NewClient applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient builds a client for the collection under baseURL, e.g.
// "http://localhost:8080/api". A zero timeout means no client-side bound.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout == 0 && timeout > 0 {
		hc := *c.http
		hc.Timeout = timeout
		c.http = &hc
	}
	return c, nil
}

// List fetches the full collection in server order.
func (c *Client) List(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := c.do(ctx, OpList, http.MethodGet, c.collectionURL(), nil, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// Create posts a new account. The response body is decoded when present but
// only the success signal matters to callers.
func (c *Client) Create(ctx context.Context, p model.Payload) (model.Account, error) {
	var created model.Account
	err := c.do(ctx, OpCreate, http.MethodPost, c.collectionURL(), p, &created)
	return created, err
}

// Update replaces the editable fields of account id.
func (c *Client) Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error) {
	var updated model.Account
	err := c.do(ctx, OpUpdate, http.MethodPut, c.itemURL(id), p, &updated)
	return updated, err
}

// Delete removes account id.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	return c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) collectionURL() string {
	return c.baseURL.JoinPath(collectionPath).String()
}

func (c *Client) itemURL(id model.ID) string {
	return c.baseURL.JoinPath(collectionPath, id.String()).String()
}

func (c *Client) do(ctx context.Context, op Op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("building request: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "method", method, "url", target, "request_id", requestID, "error", err)
		return &Error{Op: op, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("request rejected", "op", op, "method", method, "url", target, "request_id", requestID, "status", resp.StatusCode)
		return &Error{Op: op, RequestID: requestID, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, RequestID: requestID, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if op == OpList {
			return &Error{Op: op, RequestID: requestID, Err: errors.New("empty response body")}
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		if op != OpList {
			// Create and update only need the success signal.
			c.logger.Debug("ignoring undecodable response", "op", op, "request_id", requestID, "error", err)
			return nil
		}
		return &Error{Op: op, RequestID: requestID, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
