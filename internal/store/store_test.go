package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "linkloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKV(t *testing.T) {
	stores := map[string]kv{
		"sqlite": openSQLite(t),
		"memory": NewMemory(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("a", "1"))
			require.NoError(t, s.Set("a", "2"))
			require.NoError(t, s.Set("b", "3"))

			v, ok, err := s.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)

			v, ok, err = s.Get("b")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "3", v)

			require.NoError(t, s.Remove("a"))
			require.NoError(t, s.Remove("a"))
			_, ok, err = s.Get("a")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLite_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkloom.db")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("linkloom:v2", `{"briefings":[]}`))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("linkloom:v2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"briefings":[]}`, v)
}
