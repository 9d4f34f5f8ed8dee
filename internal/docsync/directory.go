package docsync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SyncError pairs a failed document path with its error.
type SyncError struct {
	Path string
	Err  error
}

// Report aggregates the outcome of a directory sync. A document failure is
// recorded here, never propagated: one bad file must not stop the batch.
type Report struct {
	Processed int
	Created   int
	Updated   int
	Unchanged int
	Errors    []SyncError
}

// SyncDirectory syncs every .md document under root. With recursive false
// only root's immediate children are considered. Documents are processed
// with bounded parallelism; the returned error covers only directory
// traversal, per-document failures land in the report.
func (e *Engine) SyncDirectory(ctx context.Context, root string, recursive bool) (*Report, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		g.Go(func() error {
			result, err := e.syncFile(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			report.Processed++
			if err != nil {
				e.logger.Warn("document sync failed", "path", path, "error", err)
				report.Errors = append(report.Errors, SyncError{Path: path, Err: err})
				return nil
			}
			switch result.Outcome {
			case Created:
				report.Created++
			case Updated:
				report.Updated++
			case Unchanged:
				report.Unchanged++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Engine) syncFile(ctx context.Context, path string) (*Result, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.SyncFromDocument(ctx, doc, path)
}
