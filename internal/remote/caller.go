// Package remote performs backend calls with a per-attempt timeout, bounded
// linear-backoff retries and failure classification.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20 // 4MB

var errServerStatus = errors.New("server error status")

// Request describes one logical call. Body is resent unchanged on every
// attempt.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Token       string
	Mode        Mode
}

// JSON builds a request with a JSON-encoded body.
func JSON(method, path string, v any) (Request, error) {
	req := Request{Method: method, Path: path}
	if v == nil {
		return req, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return req, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}
	req.Body = b
	req.ContentType = "application/json"
	return req, nil
}

type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Attempts int
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Caller struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *zap.Logger
}

type Option func(*Caller)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Caller) { c.client = client }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Caller) { c.logger = l }
}

// WithBreaker opens the circuit after threshold consecutive failed attempts
// and keeps it open for openFor. A threshold of zero disables the breaker.
func WithBreaker(threshold uint32, openFor time.Duration) Option {
	return func(c *Caller) {
		if threshold == 0 {
			c.breaker = nil
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    "backend",
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
}

func New(baseURL string, opts ...Option) *Caller {
	c := &Caller{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Caller) BaseURL() string {
	return c.baseURL
}

// Do runs req under p. It returns the first 2xx response, or the failure of
// the last attempt as a *domain.Failure. Attempts never overlap.
func (c *Caller) Do(ctx context.Context, req Request, p Policy) (*Response, error) {
	requestID := uuid.NewString()
	log := logger.FromContextOr(ctx, c.logger).With(
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
		zap.Stringer("mode", req.Mode),
	)

	var last *domain.Failure
	attempts := p.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, p.Delay(attempt-1)); err != nil {
				break
			}
		}

		resp, failure := c.attempt(ctx, req, requestID, p.Timeout)
		if failure == nil {
			resp.Attempts = attempt
			return resp, nil
		}
		failure.Attempts = attempt
		last = failure

		fields := []zap.Field{zap.Int("attempt", attempt), zap.Error(failure)}
		if req.Mode == Silent {
			log.Debug("remote call attempt failed", fields...)
		} else {
			log.Warn("remote call attempt failed", fields...)
		}

		if !failure.Retryable() || ctx.Err() != nil {
			break
		}
	}

	if last == nil {
		last = classify(ctx, ctx.Err())
	}
	return nil, last
}

func (c *Caller) attempt(ctx context.Context, req Request, requestID string, timeout time.Duration) (*Response, *domain.Failure) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(actx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, &domain.Failure{Kind: domain.KindApplication, Message: "invalid request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	res, err := c.send(httpReq)
	if err != nil {
		return nil, classify(actx, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(actx, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &domain.Failure{
			Kind:    domain.KindApplication,
			Status:  res.StatusCode,
			Message: serverMessage(data),
		}
	}

	return &Response{Status: res.StatusCode, Header: res.Header, Body: data}, nil
}

func (c *Caller) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.client.Do(req)
	}
	res, err := c.breaker.Execute(func() (*http.Response, error) {
		res, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return res, errServerStatus
		}
		return res, nil
	})
	if errors.Is(err, errServerStatus) {
		return res, nil
	}
	return res, err
}

func classify(ctx context.Context, err error) *domain.Failure {
	if err == nil {
		err = context.Canceled
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &domain.Failure{Kind: domain.KindTimeout, Err: err}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.Failure{Kind: domain.KindConnectivity, Message: "backend temporarily unavailable", Err: err}
	default:
		return &domain.Failure{Kind: domain.KindConnectivity, Err: err}
	}
}

// serverMessage pulls a human-readable message out of an error payload. Both
// {"message": "..."} and {"error": "..."} shapes are used by the backend.
func serverMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
