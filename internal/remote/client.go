// Package remote is the HTTP client for the remote product store.
//
// The store is the single source of truth for products. The client reads the
// full product collection and issues the three mutations the board supports:
// stage changes, observation updates and product creation.
//
// Stage changes are tolerant of deployments that expose the endpoint under a
// different path or method: the client walks an ordered list of
// [Candidate] requests and moves to the next one only while the store answers
// "not found". Any other outcome, success or failure, ends the sequence.
package remote

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

	"maturity/internal/product"
	"maturity/internal/stage"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 15 * time.Second

// RequestIDHeader carries a per-request identifier for correlating logs.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

var (
	// ErrNotFound indicates the store answered 404 for a request.
	ErrNotFound = errors.New("remote resource not found")

	// ErrMalformedResponse indicates a 2xx response whose body does not have
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed response from product store")
)

// APIError is a non-2xx, non-404 response from the store.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: product store error (status=%d)", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: product store error (status=%d): %s", e.Method, e.Path, e.StatusCode, body)
}

// Client talks to the remote product store over HTTP.
//
// Create instances with [New]. A Client is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	observer func(Attempt)
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAttemptObserver registers a callback invoked after every stage-change
// candidate request with its classified outcome.
func WithAttemptObserver(fn func(Attempt)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// New creates a [Client] for the store at baseURL (e.g., "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the store address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// listResponse keeps products raw so a non-array value can be rejected.
type listResponse struct {
	Products json.RawMessage `json:"products"`
}

// ListProducts reads the full product collection.
//
// A response whose products field is missing or not an array fails with
// [ErrMalformedResponse].
func (c *Client) ListProducts(ctx context.Context) ([]product.Record, error) {
	body, err := c.do(ctx, http.MethodGet, "/maturity/products", nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw := bytes.TrimSpace(resp.Products)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: products is not an array", ErrMalformedResponse)
	}

	var records []product.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return records, nil
}

// ChangeStage moves product id to the given stage.
//
// The candidates from [StageChangeCandidates] are tried in order. A "not
// found" answer moves on to the next candidate; the first other outcome is
// returned. If every candidate answers "not found" the last error, wrapping
// [ErrNotFound], is returned.
func (c *Client) ChangeStage(ctx context.Context, id string, to stage.Stage) error {
	payload := map[string]string{"stage": string(to)}

	var lastErr error
	for _, cand := range StageChangeCandidates(id) {
		_, err := c.do(ctx, cand.Method, cand.Path, payload)
		outcome := Classify(err)
		c.notify(Attempt{Candidate: cand, Outcome: outcome, Err: err})

		switch outcome {
		case OutcomeSuccess:
			return nil
		case OutcomeNotFound:
			c.logger.Info("stage change endpoint not found, trying next candidate",
				"product", id, "method", cand.Method, "path", cand.Path)
			lastErr = err
		default:
			return err
		}
	}
	return lastErr
}

// UpdateObservations replaces the observations text of product id.
func (c *Client) UpdateObservations(ctx context.Context, id string, observations string) error {
	payload := map[string]string{"observations": observations}
	_, err := c.do(ctx, http.MethodPatch, productPath(id), payload)
	return err
}

// CreateProduct creates a new product. The payload is expected to be
// validated by the caller.
func (c *Client) CreateProduct(ctx context.Context, np product.NewProduct) error {
	_, err := c.do(ctx, http.MethodPost, "/products", np)
	return err
}

func (c *Client) notify(a Attempt) {
	if c.observer != nil {
		c.observer(a)
	}
}

func productPath(id string) string {
	return "/maturity/products/" + url.PathEscape(id)
}

// do performs a request and returns the response body for 2xx answers.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("product store request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	c.logger.Debug("product store request",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	default:
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}
}
