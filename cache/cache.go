// Package cache stores compiled artefacts in hash-named directories under a
// cache root, shared safely between concurrent processes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

const (
	IRDir    = "ir"
	IRFile   = "program.ll"
	hashFile = ".hash"
	lockFile = ".lock"

	// DefaultKeep entries survive pruning regardless of age.
	DefaultKeep = 5
	// DefaultMinAge is the age an entry must reach before it can be pruned.
	DefaultMinAge = 7 * 24 * time.Hour
)

var (
	removeAll = os.RemoveAll
	chtimes   = os.Chtimes
)

// Store is a cache root such as $XDG_CACHE_HOME/calculon.
type Store struct {
	Root   string
	Keep   int
	MinAge time.Duration
	// Warn receives failures that do not stop a Put.
	Warn func(msg string)
}

func New(root string) *Store {
	return &Store{
		Root:   root,
		Keep:   DefaultKeep,
		MinAge: DefaultMinAge,
		Warn: func(msg string) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		},
	}
}

func (s *Store) warnf(format string, args ...any) {
	if s.Warn != nil {
		s.Warn(fmt.Sprintf(format, args...))
	}
}

// Key identifies an artefact by its inputs and the settings that affect it.
type Key struct {
	Source    string
	Signature string
	Settings  []string
}

// metadataHash hashes the platform that affects generated code.
func metadataHash(h hash.Hash) {
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
}

// Hash returns the short hash (8 chars for the directory name) and the full
// hash (for the collision check).
func (k Key) Hash() (shortHash, fullHash string) {
	h := sha256.New()
	metadataHash(h)
	for _, part := range append([]string{k.Source, k.Signature}, k.Settings...) {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:8], fullHash
}

// isHashDir returns true if name is an 8-char hex string (matches shortHash format).
func isHashDir(name string) bool {
	if len(name) != 8 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// Entry is the result of a Put.
type Entry struct {
	Path   string
	Cached bool
}

// PutIR stores the IR text produced for k and returns its file path. An
// existing complete entry is reused. A file lock ensures concurrent
// processes see either a complete entry or build it.
func (s *Store) PutIR(k Key, generate func() (string, error)) (Entry, error) {
	irDir := filepath.Join(s.Root, IRDir)
	if err := os.MkdirAll(irDir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create ir dir: %w", err)
	}

	// Lock the entire operation
	lock := flock.New(filepath.Join(irDir, lockFile))
	if err := lock.Lock(); err != nil {
		return Entry{}, fmt.Errorf("acquire cache lock: %w", err)
	}
	defer lock.Unlock()

	shortHash, fullHash := k.Hash()
	dir := filepath.Join(irDir, shortHash)
	path := filepath.Join(dir, IRFile)
	marker := filepath.Join(dir, hashFile)

	if _, err := os.Stat(path); err == nil {
		// Verify full hash to detect collisions
		if stored, err := os.ReadFile(marker); err == nil && string(stored) == fullHash {
			now := time.Now()
			if err := chtimes(dir, now, now); err != nil {
				s.warnf("failed to refresh cache entry %s: %v", dir, err)
			}
			return Entry{Path: path, Cached: true}, nil
		}
		if err := removeAll(dir); err != nil {
			return Entry{}, fmt.Errorf("remove stale entry: %w", err)
		}
	}

	s.prune(irDir)

	ir, err := generate()
	if err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create entry dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(ir), 0644); err != nil {
		return Entry{}, fmt.Errorf("write ir: %w", err)
	}
	// Store full hash last (acts as completion marker)
	if err := os.WriteFile(marker, []byte(fullHash), 0644); err != nil {
		return Entry{}, fmt.Errorf("write hash file: %w", err)
	}
	return Entry{Path: path}, nil
}

// prune removes old hash directories.
// Only deletes directories older than MinAge AND keeps at least Keep most recent.
func (s *Store) prune(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) <= s.Keep {
		return
	}

	type dirInfo struct {
		name  string
		mtime time.Time
	}
	var dirs []dirInfo
	for _, e := range entries {
		if e.IsDir() && isHashDir(e.Name()) {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, dirInfo{e.Name(), info.ModTime()})
			}
		}
	}
	if len(dirs) <= s.Keep {
		return
	}

	// oldest first
	cutoff := time.Now().Add(-s.MinAge)
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.Before(dirs[j].mtime) })
	for i := 0; i < len(dirs)-s.Keep; i++ {
		if dirs[i].mtime.Before(cutoff) {
			path := filepath.Join(dir, dirs[i].name)
			if err := removeAll(path); err != nil {
				s.warnf("failed to remove old cache entry %s: %v", path, err)
			}
		}
	}
}
