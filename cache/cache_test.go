package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHash(t *testing.T) {
	a := Key{Source: "1", Signature: "(): real", Settings: []string{"double"}}
	short, full := a.Hash()
	assert.Len(t, short, 8)
	assert.Len(t, full, 64)
	assert.True(t, isHashDir(short))

	again, _ := a.Hash()
	assert.Equal(t, short, again)

	b := Key{Source: "1", Signature: "(): real", Settings: []string{"float"}}
	other, _ := b.Hash()
	assert.NotEqual(t, short, other)

	split1, _ := Key{Source: "ab", Signature: "c"}.Hash()
	split2, _ := Key{Source: "a", Signature: "bc"}.Hash()
	assert.NotEqual(t, split1, split2)
}

func TestIsHashDir(t *testing.T) {
	assert.True(t, isHashDir("0a1b2c3d"))
	assert.False(t, isHashDir("0a1b2c3"))
	assert.False(t, isHashDir("zzzzzzzz"))
}

func TestPutIR(t *testing.T) {
	s := New(t.TempDir())
	k := Key{Source: "return r = 1", Signature: "(): (r)"}

	calls := 0
	gen := func() (string, error) {
		calls++
		return "; ModuleID = 'x'\n", nil
	}

	first, err := s.PutIR(k, gen)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "; ModuleID = 'x'\n", string(data))

	second, err := s.PutIR(k, gen)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, 1, calls)
}

func TestPutIRRebuildsOnBadMarker(t *testing.T) {
	s := New(t.TempDir())
	k := Key{Source: "1"}
	entry, err := s.PutIR(k, func() (string, error) { return "a", nil })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(entry.Path), hashFile), []byte("bogus"), 0644))
	entry, err = s.PutIR(k, func() (string, error) { return "b", nil })
	require.NoError(t, err)
	assert.False(t, entry.Cached)
	data, _ := os.ReadFile(entry.Path)
	assert.Equal(t, "b", string(data))
}

func TestPutIRGenerateError(t *testing.T) {
	s := New(t.TempDir())
	boom := errors.New("boom")
	_, err := s.PutIR(Key{Source: "1"}, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	short, _ := Key{Source: "1"}.Hash()
	_, statErr := os.Stat(filepath.Join(s.Root, IRDir, short))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	s := &Store{Root: root, Keep: 2, MinAge: time.Hour}
	dir := filepath.Join(root, IRDir)

	old := time.Now().Add(-2 * time.Hour)
	names := []string{"00000001", "00000002", "00000003", "00000004"}
	for i, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(p, 0755))
		mtime := old.Add(time.Duration(i) * time.Minute)
		if i == 1 {
			mtime = time.Now()
		}
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keepme"), 0755))

	s.prune(dir)

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	// 00000002 is recent and 00000004 is among the two newest
	assert.False(t, exists("00000001"))
	assert.True(t, exists("00000002"))
	assert.False(t, exists("00000003"))
	assert.True(t, exists("00000004"))
	assert.True(t, exists("keepme"))
}

func stubFS(t *testing.T, remove func(string) error, touch func(string, time.Time, time.Time) error) {
	t.Helper()
	oldRemove, oldTouch := removeAll, chtimes
	t.Cleanup(func() { removeAll, chtimes = oldRemove, oldTouch })
	if remove != nil {
		removeAll = remove
	}
	if touch != nil {
		chtimes = touch
	}
}

func TestPruneReportsRemoveFailure(t *testing.T) {
	root := t.TempDir()
	var warnings []string
	s := &Store{Root: root, Keep: 0, MinAge: time.Hour, Warn: func(msg string) { warnings = append(warnings, msg) }}
	dir := filepath.Join(root, IRDir)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "0000000a"), 0755))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "0000000a"), old, old))

	stubFS(t, func(string) error { return errors.New("busy") }, nil)
	s.prune(dir)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "0000000a")
	assert.Contains(t, warnings[0], "busy")
}

func TestPutIRReportsRefreshFailure(t *testing.T) {
	var warnings []string
	s := New(t.TempDir())
	s.Warn = func(msg string) { warnings = append(warnings, msg) }
	k := Key{Source: "1"}
	_, err := s.PutIR(k, func() (string, error) { return "a", nil })
	require.NoError(t, err)

	stubFS(t, nil, func(string, time.Time, time.Time) error { return errors.New("read-only") })
	entry, err := s.PutIR(k, func() (string, error) { return "a", nil })
	require.NoError(t, err)
	assert.True(t, entry.Cached)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "read-only")
}

func TestPutIRStaleRemoveFailure(t *testing.T) {
	s := New(t.TempDir())
	k := Key{Source: "1"}
	entry, err := s.PutIR(k, func() (string, error) { return "a", nil })
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(entry.Path), hashFile), []byte("bogus"), 0644))

	busy := errors.New("busy")
	stubFS(t, func(string) error { return busy }, nil)
	_, err = s.PutIR(k, func() (string, error) { return "b", nil })
	assert.ErrorIs(t, err, busy)
}
