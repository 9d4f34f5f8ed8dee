package sqlite

import (
	"context"
	"testing"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// newTestStore creates an in-memory store that is torn down with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return store
}

// mustCreate inserts an item or fails the test.
func mustCreate(t *testing.T, store *Store, item *types.WorkItem) {
	t.Helper()
	if err := store.CreateItem(context.Background(), item, "test"); err != nil {
		t.Fatalf("failed to create %s: %v", item.ID, err)
	}
}

func testEpic(id string) *types.WorkItem {
	return &types.WorkItem{ID: id, ItemType: types.TypeEpic, Title: "Epic " + id}
}

func testStory(id, epicID string, points int) *types.WorkItem {
	return &types.WorkItem{
		ID: id, ItemType: types.TypeStory, Title: "Story " + id,
		ParentID: epicID, Points: points,
	}
}
