package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cognimed/cogimport/internal/report"
)

// BatchResult collects the outcomes of a directory import. Failed documents
// do not stop the batch; the caller decides whether to re-run them.
type BatchResult struct {
	Results []*report.ImportResult
	Failed  map[string]error
}

// ImportDirectory imports every PDF in dir. Documents share no mutable
// state, so up to workers of them run concurrently; the store's per-document
// transaction and patient uniqueness guard keep that safe.
func (imp *Importer) ImportDirectory(ctx context.Context, dir string, workers int) (*BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if workers < 1 {
		workers = 1
	}

	batch := &BatchResult{Failed: make(map[string]error)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := imp.ImportFile(ctx, path)
				mu.Lock()
				if err != nil {
					batch.Failed[path] = err
				} else {
					batch.Results = append(batch.Results, result)
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}
