package agiledev

import (
	"context"
	"testing"
)

func TestPublicAPIStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	epic := &WorkItem{ID: "epic-1", ItemType: TypeEpic, Title: "Public API epic"}
	if err := store.CreateItem(ctx, epic, "api"); err != nil {
		t.Fatalf("failed to create epic: %v", err)
	}

	got, err := store.GetItem(ctx, TypeEpic, "epic-1")
	if err != nil {
		t.Fatalf("failed to get epic: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}

	items, err := store.ListItems(ctx, TypeEpic, ItemFilter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("listed %d items, want 1", len(items))
	}
}

func TestPublicAPISyncEngine(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	engine := NewSyncEngine(store)
	doc := []byte("---\nid: epic-1\ntype: epic\nstatus: pending\n---\n\n# Epic\n")
	result, err := engine.SyncFromDocument(ctx, doc, "docs/epic-1.md")
	if err != nil {
		t.Fatalf("failed to sync: %v", err)
	}
	if result.ID != "epic-1" {
		t.Errorf("synced id = %q, want epic-1", result.ID)
	}
	if _, err := store.GetItem(ctx, TypeEpic, "epic-1"); err != nil {
		t.Errorf("item should exist after sync: %v", err)
	}
}
