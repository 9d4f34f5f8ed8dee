package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/configfile"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage/sqlite"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/txn"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/vcs"
)

// Initialization must leave a clean tree, and store writes against the
// file-backed database must keep it clean, or the transaction runner's
// precondition would reject every command that follows.
func TestInitProducesRunnableProject(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg, err := initProject(ctx, dir)
	if err != nil {
		t.Fatalf("failed to init project: %v", err)
	}

	g, err := vcs.Open(dir)
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	clean, err := g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if !clean {
		t.Fatal("tree must be clean right after init")
	}

	store, err := sqlite.New(ctx, filepath.Join(dir, configfile.ConfigDirName, cfg.Database))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	runner := txn.NewRunner(store, g, dir)
	err = runner.Run(ctx, "create epic", func(tx *txn.Tx) error {
		doc := []byte("---\nid: epic-1\ntype: epic\nstatus: pending\n---\nbody\n")
		if err := tx.WriteDocument(filepath.Join(cfg.DocsDir, "epic-1.md"), doc); err != nil {
			return err
		}
		return tx.CreateItem(&types.WorkItem{
			ID: "epic-1", ItemType: types.TypeEpic, Title: "Epic",
		})
	})
	if err != nil {
		t.Fatalf("first transaction must succeed on a fresh project: %v", err)
	}

	clean, err = g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if !clean {
		t.Fatal("database and WAL churn must not dirty the tree")
	}

	if _, err := initProject(ctx, dir); err == nil {
		t.Error("re-initializing an existing project must fail")
	}
}
