package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/cbudget/internal/model"
	"github.com/theirongolddev/cbudget/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Ledger      model.Ledger
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and decodes every snapshot in dataDir with a bounded
// worker pool, then merges them into one ledger.
func Load(ctx context.Context, dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results, err := parseAll(ctx, files, 0, len(files), progressFn)
	if err != nil {
		return nil, err
	}

	ledgers := make([]model.Ledger, 0, len(results))
	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		ledgers = append(ledgers, pr.Ledger)
	}
	result.Ledger = MergeLedgers(ledgers...)

	return result, nil
}

// parseAll decodes files in parallel. Results keep the order of files.
// offset is added to the progress count so cached files can be reported
// as already done.
func parseAll(ctx context.Context, files []source.DiscoveredFile, offset, total int, progressFn ProgressFunc) ([]source.ParseResult, error) {
	results := make([]source.ParseResult, len(files))
	var processed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.GOMAXPROCS(0), 1))

	for i := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = source.ParseFile(files[i])
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(offset+int(n), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MergeLedgers concatenates ledgers, deduplicating records by id. A record
// from a later ledger replaces an earlier one with the same id in place.
// Records without an id are always kept.
func MergeLedgers(ledgers ...model.Ledger) model.Ledger {
	var out model.Ledger
	txIndex := make(map[string]int)
	objIndex := make(map[string]int)

	for _, l := range ledgers {
		for _, tx := range l.Transactions {
			if tx.ID != "" {
				if i, ok := txIndex[tx.ID]; ok {
					out.Transactions[i] = tx
					continue
				}
				txIndex[tx.ID] = len(out.Transactions)
			}
			out.Transactions = append(out.Transactions, tx)
		}
		for _, o := range l.Objectives {
			if o.ID != "" {
				if i, ok := objIndex[o.ID]; ok {
					out.Objectives[i] = o
					continue
				}
				objIndex[o.ID] = len(out.Objectives)
			}
			out.Objectives = append(out.Objectives, o)
		}
	}

	return out
}
