package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/source"
	"github.com/theirongolddev/cbudget/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache discovers, diffs against cache, decodes only changed files,
// and returns the merged ledger. Files are merged in path order whether they
// came from the cache or were decoded again.
func LoadWithCache(ctx context.Context, dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	type stamp struct{ mtime, size int64 }
	stamps := make(map[string]stamp, len(files))
	unchanged := make(map[string]struct{})
	var toReparse []source.DiscoveredFile

	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		stamps[f.Path] = stamp{info.ModTime().UnixNano(), info.Size()}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged[f.Path] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
		}
	}

	byPath := make(map[string]model.Ledger, len(files))

	if len(unchanged) > 0 {
		cachedFiles, err := cache.LoadLedgerFiles()
		if err != nil {
			return nil, fmt.Errorf("loading cached ledgers: %w", err)
		}
		for path := range unchanged {
			cf, ok := cachedFiles[path]
			if !ok {
				// Tracked but empty; decode it again.
				toReparse = append(toReparse, source.DiscoveredFile{Path: path})
				continue
			}
			byPath[path] = cf.Ledger
			result.ParsedFiles++
			result.ParseErrors += cf.ParseErrors
			result.CacheHits++
		}
	}

	result.Reparsed = len(toReparse)

	if len(toReparse) > 0 {
		results, err := parseAll(ctx, toReparse, result.CacheHits, result.TotalFiles, progressFn)
		if err != nil {
			return nil, err
		}

		for i, pr := range results {
			path := toReparse[i].Path
			if pr.Err != nil {
				result.FileErrors++
				continue
			}
			result.ParsedFiles++
			result.ParseErrors += pr.ParseErrors
			byPath[path] = pr.Ledger

			st := stamps[path]
			cf := store.CachedFile{Ledger: pr.Ledger, ParseErrors: pr.ParseErrors}
			if err := cache.SaveLedgerFile(path, cf, st.mtime, st.size); err != nil {
				log.Warn().Err(err).Str("file", path).Msg("caching ledger file")
			}
		}
	}

	// Forget files that disappeared from the data dir.
	for path := range tracked {
		if _, ok := stamps[path]; !ok {
			_ = cache.DeleteLedgerFile(path)
		}
	}

	ledgers := make([]model.Ledger, 0, len(byPath))
	for _, f := range files {
		if l, ok := byPath[f.Path]; ok {
			ledgers = append(ledgers, l)
		}
	}
	result.Ledger = MergeLedgers(ledgers...)

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "cbudget")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "ledger.db")
}
