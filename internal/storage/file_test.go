package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "nested", "state.yaml"))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "state.yaml")
	ctx := context.Background()

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeySessionID, "session_1_abc"))
	require.NoError(t, s.Set(ctx, KeyUserName, "Ana"))
	require.NoError(t, s.Delete(ctx, KeyUserName))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, KeySessionID)
	require.NoError(t, err)
	assert.Equal(t, "session_1_abc", v)

	_, err = reopened.Get(ctx, KeyUserName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	_, err := OpenFileStore(path)
	require.ErrorContains(t, err, "parse state file")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "a", "b"))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v, err := s.SetIfAbsent(ctx, "a", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = s.SetIfAbsent(ctx, "a", "2")
	require.NoError(t, err)
	assert.Equal(t, "1", v, "first value wins")
}

func TestFileStore_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")
	s, err := OpenFileStore(path)
	require.NoError(t, err)

	v, err := s.SetIfAbsent(ctx, "sessionId", "session_1_aaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "session_1_aaaaaaaaa", v)

	v, err = s.SetIfAbsent(ctx, "sessionId", "session_2_bbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, "session_1_aaaaaaaaa", v)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "sessionId")
	require.NoError(t, err)
	assert.Equal(t, "session_1_aaaaaaaaa", got)
}

func TestScoped_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	a, b := Scoped(mem, "browser:a"), Scoped(mem, "browser:b")

	va, err := a.SetIfAbsent(ctx, "sessionId", "one")
	require.NoError(t, err)
	vb, err := b.SetIfAbsent(ctx, "sessionId", "two")
	require.NoError(t, err)

	assert.Equal(t, "one", va)
	assert.Equal(t, "two", vb)
}
