package session

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var idPattern = regexp.MustCompile(`^session_\d+_[0-9a-z]{9}$`)

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (brokenStore) Set(context.Context, string, string) error   { return errors.New("disk gone") }
func (brokenStore) Delete(context.Context, ...string) error     { return errors.New("disk gone") }
func (brokenStore) SetIfAbsent(context.Context, string, string) (string, error) {
	return "", errors.New("disk gone")
}

func TestNewSessionID_Format(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewSessionID(now)

	assert.Regexp(t, idPattern, id.String())
	assert.Contains(t, id.String(), "_1700000000123_")
}

func TestProvider_CreatesAndPersists(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProvider(store, nil)
	ctx := context.Background()

	first := p.SessionID(ctx)
	require.Regexp(t, idPattern, first.String())

	stored, err := store.Get(ctx, storage.KeySessionID)
	require.NoError(t, err)
	assert.Equal(t, first.String(), stored)

	assert.Equal(t, first, p.SessionID(ctx))
	assert.Equal(t, first, NewProvider(store, nil).SessionID(ctx), "a new provider reuses the stored id")
}

func TestProvider_ReusesExistingID(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, storage.KeySessionID, "session_42_abcdefghi"))

	assert.Equal(t, domain.SessionID("session_42_abcdefghi"), NewProvider(store, nil).SessionID(ctx))
}

func TestProvider_RegeneratesAfterClear(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProvider(store, nil)
	ctx := context.Background()

	first := p.SessionID(ctx)
	require.NoError(t, store.Delete(ctx, storage.KeySessionID))

	second := p.SessionID(ctx)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestProvider_StorageUnavailable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProvider(brokenStore{}, zap.New(core))
	ctx := context.Background()

	first := p.SessionID(ctx)
	assert.Regexp(t, idPattern, first.String())
	assert.Equal(t, first, p.SessionID(ctx), "id stays stable while storage is down")
	assert.NotZero(t, logs.FilterMessage("persist session id").Len())
	assert.NotZero(t, logs.FilterMessage("read session id").Len())
}

func TestProvider_ConcurrentFirstUse(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProvider(store, nil)
	ctx := context.Background()

	ids := make([]domain.SessionID, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = p.SessionID(ctx)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestAuth_Expired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"no token", "", false},
		{"opaque token", "abc123", false},
		{"future exp", signToken(t, now.Add(time.Hour)), false},
		{"past exp", signToken(t, now.Add(-time.Hour)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Auth{Token: tt.token}.Expired(now))
		})
	}
}

func TestAuth_Roles(t *testing.T) {
	assert.False(t, Auth{}.SignedIn())
	assert.False(t, Auth{Role: domain.RoleAdmin}.IsAdmin(), "role without token is not admin")
	assert.True(t, Auth{Token: "t", Role: domain.RoleAdmin}.IsAdmin())
	assert.False(t, Auth{Token: "t", Role: domain.RoleUser}.IsAdmin())
}

func TestContext_SignInSignOut(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	sc, err := Load(ctx, store, nil)
	require.NoError(t, err)
	assert.False(t, sc.Auth.SignedIn())
	sessionID := sc.SessionID(ctx)

	auth := Auth{Token: "tok", Role: domain.RoleAdmin, Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, sc.SignIn(ctx, auth))

	reloaded, err := Load(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal(t, auth, reloaded.Auth)
	assert.Equal(t, sessionID, reloaded.SessionID(ctx))

	require.NoError(t, reloaded.DropToken(ctx))
	assert.Equal(t, Auth{Name: "Ana", Email: "ana@example.com"}, reloaded.Auth)

	require.NoError(t, reloaded.SignOut(ctx))
	assert.Equal(t, Auth{}, reloaded.Auth)
	assert.Equal(t, sessionID, reloaded.SessionID(ctx), "signing out keeps the cart session")
}

func TestLoad_StorageError(t *testing.T) {
	_, err := Load(context.Background(), brokenStore{}, nil)
	require.ErrorContains(t, err, "load token")
}

// lockstepStore holds every session id read until n of them have happened,
// so overlapping requests all miss before any of them writes.
type lockstepStore struct {
	storage.Store
	reads sync.WaitGroup
}

func (s *lockstepStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Store.Get(ctx, key)
	if key == storage.KeySessionID {
		s.reads.Done()
		s.reads.Wait()
	}
	return v, err
}

func TestProvider_OverlappingRequestsShareOneID(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	first, err := Load(ctx, mem, nil)
	require.NoError(t, err)
	second, err := Load(ctx, mem, nil)
	require.NoError(t, err)

	store := &lockstepStore{Store: mem}
	store.reads.Add(2)
	first.sessions.store = store
	second.sessions.store = store

	var ids [2]domain.SessionID
	var wg sync.WaitGroup
	for i, sc := range []*Context{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = sc.SessionID(ctx)
		}()
	}
	wg.Wait()

	stored, err := mem.Get(ctx, storage.KeySessionID)
	require.NoError(t, err)
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, stored, ids[0].String())
}
