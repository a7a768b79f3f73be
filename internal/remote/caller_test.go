package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestCaller(url string, opts ...Option) (*Caller, *http.Transport) {
	tr := &http.Transport{}
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: tr})}, opts...)
	return New(url, opts...), tr
}

func asFailure(t *testing.T, err error) *domain.Failure {
	t.Helper()
	var f *domain.Failure
	require.True(t, errors.As(err, &f), "expected *domain.Failure, got %T", err)
	return f
}

func TestDo_Success(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"total":0}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller(srv.URL + "/api/")
	req, err := JSON(http.MethodPost, "/cart/s1/items", map[string]any{"productId": "p1", "quantity": 1})
	require.NoError(t, err)
	req.Token = "tok"

	resp, err := caller.Do(context.Background(), req, Policy{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, resp.Attempts)

	assert.Equal(t, "/api/cart/s1/items", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `{"productId":"p1","quantity":1}`, string(gotBody))

	var cart domain.Cart
	require.NoError(t, resp.Decode(&cart))
	assert.Empty(t, cart.Items)
}

func TestDo_RetriesTransientStatusWithLinearBackoff(t *testing.T) {
	var hits atomic.Int32
	var mu sync.Mutex
	var stamps []time.Time
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		ids = append(ids, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller(srv.URL)
	backoff := 30 * time.Millisecond
	resp, err := caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/cart/s1"},
		Policy{Timeout: time.Second, MaxRetries: 2, Backoff: backoff})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)

	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), backoff)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*backoff)
	assert.Equal(t, ids[0], ids[1], "retries keep the request id")
	assert.Equal(t, ids[0], ids[2])
}

func TestDo_ApplicationErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller(srv.URL)
	_, err := caller.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"},
		Policy{Timeout: time.Second, MaxRetries: 3, Backoff: time.Millisecond})

	f := asFailure(t, err)
	assert.Equal(t, domain.KindApplication, f.Kind)
	assert.Equal(t, http.StatusUnauthorized, f.Status)
	assert.Equal(t, "Invalid credentials", f.Message)
	assert.Equal(t, 1, f.Attempts)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_TimeoutIsRetriedThenReported(t *testing.T) {
	leaks := goleak.IgnoreCurrent()

	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))

	caller, tr := newTestCaller(srv.URL)
	p := Policy{Timeout: 40 * time.Millisecond, MaxRetries: 2, Backoff: 5 * time.Millisecond}
	_, err := caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/cart/s1"}, p)

	f := asFailure(t, err)
	assert.Equal(t, domain.KindTimeout, f.Kind)
	assert.Equal(t, p.Attempts(), f.Attempts)
	assert.LessOrEqual(t, int(hits.Load()), p.Attempts())
	assert.Equal(t, domain.TimeoutMessage, f.UserMessage("ignored"))

	close(release)
	srv.Close()
	tr.CloseIdleConnections()
	goleak.VerifyNone(t, leaks,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"))
}

func TestDo_ConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	caller, _ := newTestCaller(url)
	_, err := caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/products"},
		Policy{Timeout: time.Second, MaxRetries: 1, Backoff: time.Millisecond})

	f := asFailure(t, err)
	assert.Equal(t, domain.KindConnectivity, f.Kind)
	assert.Equal(t, 2, f.Attempts)
	assert.Equal(t, domain.ConnectivityMessage, f.UserMessage(""))
}

func TestDo_CanceledContextStopsRetrying(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	caller, _ := newTestCaller(srv.URL)
	_, err := caller.Do(ctx, Request{Method: http.MethodGet, Path: "/cart/s1"},
		Policy{Timeout: time.Second, MaxRetries: 5, Backoff: time.Second})

	f := asFailure(t, err)
	assert.Equal(t, http.StatusBadGateway, f.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_BreakerFailsFastWhenOpen(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database down"}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller(srv.URL, WithBreaker(2, time.Minute))
	p := Policy{Timeout: time.Second, MaxRetries: 1, Backoff: time.Millisecond}

	_, err := caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/products"}, p)
	f := asFailure(t, err)
	assert.Equal(t, domain.KindApplication, f.Kind)
	assert.Equal(t, "database down", f.Message)
	assert.Equal(t, int32(2), hits.Load())

	_, err = caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/products"}, p)
	f = asFailure(t, err)
	assert.Equal(t, domain.KindConnectivity, f.Kind)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the backend")
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Email already exists"}`, "Email already exists"},
		{"error string", `{"error":"Item not found"}`, "Item not found"},
		{"nested error", `{"error":{"message":"bad token"}}`, "bad token"},
		{"message wins", `{"message":"a","error":"b"}`, "a"},
		{"not json", `<html>502</html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serverMessage([]byte(tt.body)))
		})
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{Backoff: 2 * time.Second}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 6*time.Second, p.Delay(3))
	assert.Equal(t, 1, Policy{MaxRetries: -1}.Attempts())
}

func TestJSON_NilBody(t *testing.T) {
	req, err := JSON(http.MethodDelete, "/cart/s1/items/i1", nil)
	require.NoError(t, err)
	assert.Nil(t, req.Body)
	assert.Empty(t, req.ContentType)

	_, err = JSON(http.MethodPost, "/x", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	var typeErr *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
}

// Property: a call that never gets a response is reported as a timeout and
// makes no more network attempts than the policy allows.
func TestDo_TimeoutAttemptsProperty(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-r.Context().Done()
	}))
	defer srv.Close()
	caller, _ := newTestCaller(srv.URL)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 8
	properties := gopter.NewProperties(parameters)

	properties.Property("timeouts respect the attempt bound", prop.ForAll(
		func(retries int) bool {
			hits.Store(0)
			p := Policy{Timeout: 15 * time.Millisecond, MaxRetries: retries, Backoff: time.Millisecond}
			_, err := caller.Do(context.Background(), Request{Method: http.MethodGet, Path: "/cart/s"}, p)
			var f *domain.Failure
			if !errors.As(err, &f) {
				return false
			}
			return f.Kind == domain.KindTimeout &&
				f.Attempts == p.Attempts() &&
				int(hits.Load()) <= p.Attempts()
		},
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
