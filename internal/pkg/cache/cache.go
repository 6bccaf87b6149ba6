// Package cache is the on-disk response cache: one JSON blob per key under a
// root directory, no eviction and no expiry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/gommon/bytes"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
)

// canonicalJSON sorts map keys, which keeps keys stable across runs.
var canonicalJSON = sonic.ConfigStd

type blob struct {
	Meta      domain.CacheMeta `json:"meta"`
	CreatedAt time.Time        `json:"created_at"`
	Payload   json.RawMessage  `json:"payload"`
}

type header struct {
	Meta domain.CacheMeta `json:"meta"`
}

type Store interface {
	Get(ctx context.Context, key string, v any) bool
	Put(ctx context.Context, key string, meta domain.CacheMeta, v any) error
	List(ctx context.Context) ([]domain.CacheEntry, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) (int, error)
}

// RootFunc resolves the cache directory at call time so a changed cache path
// takes effect without rebuilding the store.
type RootFunc func() string

type store struct {
	root RootFunc
}

func NewStore(root RootFunc) Store {
	return &store{root: root}
}

// NewDirStore is a store fixed to one directory.
func NewDirStore(dir string) Store {
	return &store{root: func() string { return dir }}
}

// Key hashes the canonical JSON form of parts. Callers are expected to sort
// any slices whose order carries no meaning before calling.
func Key(parts any) (string, error) {
	data, err := canonicalJSON.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.root(), key+constants.CacheFileExt), nil
}

// Get decodes the entry for key into v. Any failure is a miss.
func (s *store) Get(ctx context.Context, key string, v any) bool {
	p, err := s.path(key)
	if err != nil {
		logger.Warnf(ctx, "cache lookup: %s", err.Error())
		return false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf(ctx, "cache read %s: %s", key, err.Error())
		}
		return false
	}

	var b blob
	if err := sonic.Unmarshal(data, &b); err != nil {
		logger.Warnf(ctx, "cache entry %s is corrupt: %s", key, err.Error())
		return false
	}
	if len(b.Payload) == 0 {
		logger.Warnf(ctx, "cache entry %s has no payload", key)
		return false
	}
	if err := sonic.Unmarshal(b.Payload, v); err != nil {
		logger.Warnf(ctx, "cache entry %s payload: %s", key, err.Error())
		return false
	}

	return true
}

// Put replaces the entry for key as a whole file, so concurrent readers see
// either the old or the new blob. The last writer wins.
func (s *store) Put(ctx context.Context, key string, meta domain.CacheMeta, v any) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	payload, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}
	data, err := sonic.Marshal(blob{Meta: meta, CreatedAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal cache blob: %w", err)
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename cache entry: %w", err)
	}

	logger.Debugf(ctx, "cached %s (%s)", key, bytes.Format(int64(len(data))))
	return nil
}

// List reports every entry, newest first.
func (s *store) List(ctx context.Context) ([]domain.CacheEntry, error) {
	dirEntries, err := os.ReadDir(s.root())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.CacheEntry{}, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	entries := make([]domain.CacheEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, constants.CacheFileExt) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entry := domain.CacheEntry{
			Key:       strings.TrimSuffix(name, constants.CacheFileExt),
			SizeBytes: info.Size(),
			SizeHuman: bytes.Format(info.Size()),
			ModTime:   info.ModTime(),
		}

		if data, err := os.ReadFile(filepath.Join(s.root(), name)); err == nil {
			var h header
			if err := sonic.Unmarshal(data, &h); err == nil {
				entry.Request = h.Meta
			} else {
				logger.Debugf(ctx, "cache entry %s header: %s", entry.Key, err.Error())
			}
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].ModTime.After(entries[j].ModTime)
	})

	return entries, nil
}

func (s *store) Remove(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", constants.ErrCacheNotFound, key)
		}
		return fmt.Errorf("remove cache entry: %w", err)
	}
	logger.Infof(ctx, "removed cache entry %s", key)
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *store) Clear(ctx context.Context) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := s.Remove(ctx, e.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Load returns the entry for key, or calls fetch and stores its result. The
// bool reports a cache hit. noCache skips both the read and the write.
func Load[T any](ctx context.Context, s Store, key string, meta domain.CacheMeta, noCache bool, m *metrics.Collector, fetch func(context.Context) (T, error)) (T, bool, error) {
	if !noCache {
		var cached T
		hit := s.Get(ctx, key, &cached)
		m.CacheLookup(meta.Kind, hit)
		if hit {
			return cached, true, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if !noCache {
		if err := s.Put(ctx, key, meta, v); err != nil {
			m.CacheWriteError()
			logger.Warnf(ctx, "cache write %s: %s", key, err.Error())
		}
	}
	return v, false, nil
}
