package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Auth is the signed-in user as remembered by the browser.
type Auth struct {
	Token string
	Role  domain.Role
	Name  string
	Email string
}

func (a Auth) SignedIn() bool {
	return a.Token != ""
}

func (a Auth) IsAdmin() bool {
	return a.SignedIn() && a.Role == domain.RoleAdmin
}

// Expired reports whether the token carries an exp claim in the past. The
// signature is not checked; only the backend can do that. Opaque tokens
// never expire from the client's point of view.
func (a Auth) Expired(now time.Time) bool {
	if a.Token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(a.Token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// Context is the explicit per-browser state threaded through storefront
// operations: where the browser's keys live, its cart session and its user.
type Context struct {
	store    storage.Store
	sessions *Provider
	Auth     Auth
}

// Load reads the signed-in user from store. The cart session id is resolved
// lazily on first use.
func Load(ctx context.Context, store storage.Store, logger *zap.Logger) (*Context, error) {
	c := &Context{
		store:    store,
		sessions: NewProvider(store, logger),
	}

	var err error
	if c.Auth.Token, err = get(ctx, store, storage.KeyToken); err != nil {
		return nil, err
	}
	role, err := get(ctx, store, storage.KeyUserRole)
	if err != nil {
		return nil, err
	}
	c.Auth.Role = domain.Role(role)
	if c.Auth.Name, err = get(ctx, store, storage.KeyUserName); err != nil {
		return nil, err
	}
	if c.Auth.Email, err = get(ctx, store, storage.KeyUserEmail); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) SessionID(ctx context.Context) domain.SessionID {
	return c.sessions.SessionID(ctx)
}

// SignIn remembers auth for later visits.
func (c *Context) SignIn(ctx context.Context, auth Auth) error {
	values := map[string]string{
		storage.KeyToken:     auth.Token,
		storage.KeyUserRole:  auth.Role.String(),
		storage.KeyUserName:  auth.Name,
		storage.KeyUserEmail: auth.Email,
	}
	for k, v := range values {
		if err := c.store.Set(ctx, k, v); err != nil {
			return fmt.Errorf("store %s: %w", k, err)
		}
	}
	c.Auth = auth
	return nil
}

// SignOut forgets the user entirely. The cart session survives.
func (c *Context) SignOut(ctx context.Context) error {
	if err := c.store.Delete(ctx, storage.KeyToken, storage.KeyUserRole, storage.KeyUserName, storage.KeyUserEmail); err != nil {
		return fmt.Errorf("clear auth: %w", err)
	}
	c.Auth = Auth{}
	return nil
}

// DropToken forgets the credentials but keeps the profile used to prefill
// checkout.
func (c *Context) DropToken(ctx context.Context) error {
	if err := c.store.Delete(ctx, storage.KeyToken, storage.KeyUserRole); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	c.Auth.Token = ""
	c.Auth.Role = ""
	return nil
}

func get(ctx context.Context, store storage.Store, key string) (string, error) {
	v, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}
