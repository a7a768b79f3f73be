package backendtest

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

// Policies are short budgets for tests. Cart loads retry once.
func Policies() config.Policies {
	return config.Policies{
		Badge:    remote.Policy{Timeout: 500 * time.Millisecond},
		CartLoad: remote.Policy{Timeout: 500 * time.Millisecond, MaxRetries: 1, Backoff: 10 * time.Millisecond},
		Mutation: remote.Policy{Timeout: 500 * time.Millisecond},
		Default:  remote.Policy{Timeout: 500 * time.Millisecond, MaxRetries: 1, Backoff: 10 * time.Millisecond},
	}
}

// Backend returns a client for the fake using p.
func (s *Server) Backend(p config.Policies) *backend.Client {
	return backend.New(remote.New(s.URL, remote.WithHTTPClient(s.Server.Client())), p)
}
