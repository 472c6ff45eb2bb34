package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempStore(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	if opts.FilePath == "" {
		opts.FilePath = filepath.Join(t.TempDir(), "store.json")
	}
	s := New(opts)
	t.Cleanup(func() { s.Close() })
	return s, opts.FilePath
}

func TestSetGetRemove(t *testing.T) {
	s, _ := newTempStore(t, Options{SaveInterval: 0})

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("alpha", "one"))
	v, ok := s.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	require.NoError(t, s.Set("alpha", "two"))
	v, _ = s.Get("alpha")
	assert.Equal(t, "two", v)

	s.Remove("alpha")
	_, ok = s.Get("alpha")
	assert.False(t, ok)

	s.Remove("alpha") // absent key is a no-op
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s := New(Options{FilePath: path, SaveInterval: 0})
	require.NoError(t, s.Set("key", "value"))
	require.NoError(t, s.Close())

	// On-disk layout carries entries plus write timestamps.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var state fileState
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, "value", state.Entries["key"])
	assert.False(t, state.Written["key"].IsZero())

	s2 := New(Options{FilePath: path, SaveInterval: 0})
	defer s2.Close()
	v, ok := s2.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	ts, ok := s2.LastWritten("key")
	require.True(t, ok)
	assert.False(t, ts.IsZero())
}

func TestDebouncedSaveFlushedOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s := New(Options{FilePath: path, SaveInterval: time.Hour})
	require.NoError(t, s.Set("pending", "data"))

	// Nothing on disk yet: the debounce window is still open.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestBackupRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s := New(Options{FilePath: path, SaveInterval: 0, EnableBackup: true})
	require.NoError(t, s.Set("gen", "1"))
	require.NoError(t, s.Set("gen", "2"))
	require.NoError(t, s.Close())

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	var state fileState
	require.NoError(t, json.Unmarshal(backup, &state))
	assert.Equal(t, "1", state.Entries["gen"])
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{definitely not json"), 0644))

	s := New(Options{FilePath: path, SaveInterval: 0})
	defer s.Close()
	assert.Empty(t, s.Keys())
}

func TestInMemoryWhenNoPath(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	require.NoError(t, s.Set("mem", "only"))
	v, ok := s.Get("mem")
	require.True(t, ok)
	assert.Equal(t, "only", v)
}

func TestDegradesWhenPathUnwritable(t *testing.T) {
	// A path whose parent is a regular file can never be written.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := New(Options{FilePath: filepath.Join(blocker, "store.json"), SaveInterval: 0})
	defer s.Close()

	// Writes still work, they just stay in memory.
	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestQuota(t *testing.T) {
	s, _ := newTempStore(t, Options{SaveInterval: 0, MaxBytes: 64})

	require.NoError(t, s.Set("a", strings.Repeat("x", 30)))

	err := s.Set("b", strings.Repeat("y", 40))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	_, ok := s.Get("b")
	assert.False(t, ok, "failed write must not leave partial state")

	// Overwriting an existing key only counts the new value.
	require.NoError(t, s.Set("a", strings.Repeat("z", 60)))
}

func TestKeysByAge(t *testing.T) {
	s, _ := newTempStore(t, Options{SaveInterval: 0})

	require.NoError(t, s.Set("first", "1"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.Set("second", "2"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.Set("first", "1b")) // rewrite refreshes age

	keys := s.KeysByAge()
	require.Len(t, keys, 2)
	assert.Equal(t, "second", keys[0])
	assert.Equal(t, "first", keys[1])
}

func TestObserverNotifications(t *testing.T) {
	s, _ := newTempStore(t, Options{SaveInterval: 0})

	var seen []string
	s.Subscribe(func(key string) { seen = append(seen, key) })

	require.NoError(t, s.Set("loud", "1"))
	require.NoError(t, s.SetQuiet("quiet", "2"))
	s.Remove("loud")
	s.Remove("never-existed")

	assert.Equal(t, []string{"loud", "loud"}, seen)
}
