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
	"time"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

const (
	metaFile = "meta.json"
	bodyFile = "body.json"
)

// diskMeta is the metadata written next to each cached body.
type diskMeta struct {
	Key       string    `json:"key"`
	FetchedAt time.Time `json:"fetched_at"`
}

// DiskCache stores each response in its own directory under dir, named by a
// hash of the key. The body is written before the metadata so a readable
// meta.json always has its body.
type DiskCache struct {
	dir string
}

// NewDiskCache creates dir if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Get loads the response stored for key. Missing files are a miss, not an error.
func (c *DiskCache) Get(_ context.Context, key string) (domain.CachedResponse, bool, error) {
	path := c.pathFor(key)

	data, err := os.ReadFile(filepath.Join(path, metaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.CachedResponse{}, false, nil
	}
	if err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("read cache meta: %w", err)
	}

	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("decode cache meta: %w", err)
	}
	if meta.Key != key {
		return domain.CachedResponse{}, false, nil
	}

	body, err := os.ReadFile(filepath.Join(path, bodyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.CachedResponse{}, false, nil
	}
	if err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("read cache body: %w", err)
	}

	return domain.CachedResponse{Body: body, FetchedAt: meta.FetchedAt}, true, nil
}

// Put writes the body, then the metadata.
func (c *DiskCache) Put(_ context.Context, key string, resp domain.CachedResponse) error {
	path := c.pathFor(key)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(path, bodyFile), resp.Body); err != nil {
		return fmt.Errorf("write cache body: %w", err)
	}

	data, err := json.MarshalIndent(diskMeta{Key: key, FetchedAt: resp.FetchedAt.UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache meta: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(path, metaFile), data); err != nil {
		return fmt.Errorf("write cache meta: %w", err)
	}
	return nil
}

func (c *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

// writeFileAtomic replaces name via a temp file and rename so readers never
// see a partial write.
func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}
