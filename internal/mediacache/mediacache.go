// Package mediacache manages the two on-disk cache namespaces: raw downloads
// named {source_index}_{registration_key}.{ext} and converted assets named
// {registration_key}.mp3. Both are partitioned by registration key, so
// writers touching different registrations never collide.
package mediacache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"medley/internal/config"
	"medley/internal/logging"
)

// ConvertedExt is the extension of materialized assets.
const ConvertedExt = ".mp3"

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Cache locates and names entries in the raw and converted namespaces.
type Cache struct {
	rawDir       string
	convertedDir string
	minFreeRatio float64
	statfs       statfsFunc
	logger       *slog.Logger
}

// New builds a cache over the configured directories.
func New(cfg *config.Config, logger *slog.Logger) *Cache {
	return &Cache{
		rawDir:       cfg.Paths.RawDir,
		convertedDir: cfg.Paths.ConvertedDir,
		minFreeRatio: cfg.Fetch.MinFreeRatio,
		statfs:       realStatfs,
		logger:       logging.NewComponentLogger(logger, "mediacache"),
	}
}

// RawDir returns the raw namespace directory.
func (c *Cache) RawDir() string {
	return c.rawDir
}

// ConvertedDir returns the converted namespace directory.
func (c *Cache) ConvertedDir() string {
	return c.convertedDir
}

// RawPath names the raw cache entry for a submission and registration key.
func (c *Cache) RawPath(sourceIndex int, key, ext string) string {
	return filepath.Join(c.rawDir, rawStem(sourceIndex, key)+ext)
}

// LocateRaw finds the raw cache entry for a submission regardless of its
// extension. Returns the path and whether it exists.
func (c *Cache) LocateRaw(sourceIndex int, key string) (string, bool, error) {
	stem := rawStem(sourceIndex, key)
	entries, err := os.ReadDir(c.rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("scan raw cache: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return filepath.Join(c.rawDir, name), true, nil
		}
	}
	return "", false, nil
}

// ConvertedPath names the converted asset for a registration key.
func (c *Cache) ConvertedPath(key string) string {
	return filepath.Join(c.convertedDir, key+ConvertedExt)
}

// LocateConverted reports the converted asset path and whether it exists.
func (c *Cache) LocateConverted(key string) (string, bool) {
	path := c.ConvertedPath(key)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// EnsureCapacity refuses new downloads when the raw cache filesystem drops
// below the configured free-space floor.
func (c *Cache) EnsureCapacity() error {
	if c.minFreeRatio <= 0 {
		return nil
	}
	total, free, err := c.statfs(c.rawDir)
	if err != nil {
		// Capacity checks are advisory; a failed statfs should not block
		// the batch.
		c.logger.Warn("cache capacity check failed", logging.Error(err))
		return nil
	}
	if total == 0 {
		return nil
	}
	ratio := float64(free) / float64(total)
	if ratio < c.minFreeRatio {
		return fmt.Errorf("raw cache filesystem %.1f%% free, below floor %.1f%%",
			ratio*100, c.minFreeRatio*100)
	}
	return nil
}

func rawStem(sourceIndex int, key string) string {
	return strconv.Itoa(sourceIndex) + "_" + key
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
