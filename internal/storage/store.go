// Package storage holds the per-browser key-value state: the cart session id
// and the signed-in user's token and profile.
package storage

import (
	"context"
	"errors"
)

// Keys persisted for a browser.
const (
	KeySessionID = "sessionId"
	KeyToken     = "token"
	KeyUserRole  = "userRole"
	KeyUserName  = "userName"
	KeyUserEmail = "userEmail"
)

var ErrNotFound = errors.New("key not found")

// Store is unstructured key-value storage scoped to one browser.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// SetIfAbsent stores value only when key has no value yet and returns
	// whichever value key holds afterwards.
	SetIfAbsent(ctx context.Context, key, value string) (string, error)

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Scoped prefixes every key with scope, letting many browsers share one
// backing store.
func Scoped(s Store, scope string) Store {
	return scopedStore{inner: s, prefix: scope + ":"}
}

type scopedStore struct {
	inner  Store
	prefix string
}

func (s scopedStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s scopedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s scopedStore) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	return s.inner.SetIfAbsent(ctx, s.prefix+key, value)
}

func (s scopedStore) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.prefix + k
	}
	return s.inner.Delete(ctx, scoped...)
}
