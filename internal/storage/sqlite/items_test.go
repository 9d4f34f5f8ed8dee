package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

func TestCreateAndGetItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	epic := testEpic("epic-1")
	epic.Owner = "alice"
	epic.Metadata = map[string]string{"quarter": "Q3"}
	mustCreate(t, store, epic)

	got, err := store.GetItem(ctx, types.TypeEpic, "epic-1")
	if err != nil {
		t.Fatalf("failed to get epic: %v", err)
	}
	if got.Title != "Epic epic-1" {
		t.Errorf("title = %q, want %q", got.Title, "Epic epic-1")
	}
	if got.Status != types.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Owner != "alice" {
		t.Errorf("owner = %q, want alice", got.Owner)
	}
	if got.Metadata["quarter"] != "Q3" {
		t.Errorf("metadata = %v, want quarter=Q3", got.Metadata)
	}
	if got.StartedAt != nil || got.CompletedAt != nil {
		t.Error("new item should have no started/completed timestamps")
	}
}

func TestCreateDuplicateID(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, testEpic("epic-1"))
	err := store.CreateItem(context.Background(), testEpic("epic-1"), "test")
	if !errors.Is(err, storage.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestCreateStoryRequiresEpic(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateItem(context.Background(), testStory("story-1", "no-such-epic", 3), "test")
	if !errors.Is(err, storage.ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}
}

func TestGetItemNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetItem(context.Background(), types.TypeEpic, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItemFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	updated, err := store.UpdateItem(ctx, types.TypeStory, "story-1", map[string]interface{}{
		"title": "Renamed",
		"owner": "bob",
	}, "test")
	if err != nil {
		t.Fatalf("failed to update story: %v", err)
	}
	if updated.Title != "Renamed" || updated.Owner != "bob" {
		t.Errorf("got title=%q owner=%q", updated.Title, updated.Owner)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Error("updated_at should not precede created_at")
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	// pending -> done is not a legal edge
	_, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "done"}, "test")
	if !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	updated, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "in_progress"}, "test")
	if err != nil {
		t.Fatalf("failed to start story: %v", err)
	}
	if updated.StartedAt == nil {
		t.Error("StartedAt should be set on leaving the initial state")
	}
	if updated.CompletedAt != nil {
		t.Error("CompletedAt should not be set yet")
	}

	updated, err = store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "done"}, "test")
	if err != nil {
		t.Fatalf("failed to complete story: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Error("CompletedAt should be set on reaching a terminal state")
	}

	// done is terminal
	_, err = store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "in_progress"}, "test")
	if !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition out of done, got %v", err)
	}
}

func TestUpdatePointsRejectsFractions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	_, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"points": 4.7}, "test")
	if err == nil {
		t.Fatal("expected error for fractional points")
	}

	updated, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"points": 4.0}, "test")
	if err != nil {
		t.Fatalf("whole-valued float should be accepted: %v", err)
	}
	if updated.Points != 4 {
		t.Errorf("points = %d, want 4", updated.Points)
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, testEpic("epic-1"))

	_, err := store.UpdateItem(context.Background(), types.TypeEpic, "epic-1",
		map[string]interface{}{"priority": "high"}, "test")
	if err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestUpdateReparentValidatesTarget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	_, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"parent": "no-such-epic"}, "test")
	if !errors.Is(err, storage.ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}

	mustCreate(t, store, testEpic("epic-2"))
	updated, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"parent": "epic-2"}, "test")
	if err != nil {
		t.Fatalf("failed to reparent: %v", err)
	}
	if updated.ParentID != "epic-2" {
		t.Errorf("parent = %q, want epic-2", updated.ParentID)
	}
}

func TestDeleteWithDependents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	err := store.DeleteItem(ctx, types.TypeEpic, "epic-1", false)
	if !errors.Is(err, storage.ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}

	if err := store.DeleteItem(ctx, types.TypeEpic, "epic-1", true); err != nil {
		t.Fatalf("cascade delete failed: %v", err)
	}
	if _, err := store.GetItem(ctx, types.TypeStory, "story-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("story should be gone, got %v", err)
	}
}

func TestDeleteRetainsAuditHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))

	if err := store.DeleteItem(ctx, types.TypeEpic, "epic-1", false); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	entries, err := store.AuditLog(ctx, types.TypeEpic, "epic-1", 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries (created, deleted), got %d", len(entries))
	}
	if entries[0].Field != "deleted" {
		t.Errorf("newest entry field = %q, want deleted", entries[0].Field)
	}
	if entries[1].Reason != "created" {
		t.Errorf("oldest entry reason = %q, want created", entries[1].Reason)
	}
}

func TestRestoreItemBypassesTransitionChecks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 5))

	if _, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "in_progress"}, "test"); err != nil {
		t.Fatalf("failed to start story: %v", err)
	}
	image, err := store.GetItem(ctx, types.TypeStory, "story-1")
	if err != nil {
		t.Fatalf("failed to capture image: %v", err)
	}
	if _, err := store.UpdateItem(ctx, types.TypeStory, "story-1",
		map[string]interface{}{"status": "done"}, "test"); err != nil {
		t.Fatalf("failed to complete story: %v", err)
	}
	auditBefore, err := store.AuditLog(ctx, types.TypeStory, "story-1", 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}

	// done has no outgoing edge, so this only works as a raw restore.
	if err := store.RestoreItem(ctx, image); err != nil {
		t.Fatalf("failed to restore: %v", err)
	}

	story, err := store.GetItem(ctx, types.TypeStory, "story-1")
	if err != nil {
		t.Fatalf("failed to get story: %v", err)
	}
	if story.Status != types.StatusInProgress {
		t.Errorf("status = %s, want in_progress", story.Status)
	}
	if story.CompletedAt != nil {
		t.Error("CompletedAt should be cleared by the restore")
	}

	epic, err := store.GetItem(ctx, types.TypeEpic, "epic-1")
	if err != nil {
		t.Fatalf("failed to get epic: %v", err)
	}
	if epic.CompletedPoints != 0 {
		t.Errorf("completed_points = %d, want 0 after restore", epic.CompletedPoints)
	}

	auditAfter, err := store.AuditLog(ctx, types.TypeStory, "story-1", 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(auditAfter) != len(auditBefore) {
		t.Errorf("restore wrote %d audit entries, want 0", len(auditAfter)-len(auditBefore))
	}
}

func TestRestoreItemReinsertsDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))
	completeStory(t, store, "story-1")

	image, err := store.GetItem(ctx, types.TypeStory, "story-1")
	if err != nil {
		t.Fatalf("failed to capture image: %v", err)
	}
	if err := store.DeleteItem(ctx, types.TypeStory, "story-1", false); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	if err := store.RestoreItem(ctx, image); err != nil {
		t.Fatalf("failed to restore: %v", err)
	}
	story, err := store.GetItem(ctx, types.TypeStory, "story-1")
	if err != nil {
		t.Fatalf("story should be back: %v", err)
	}
	if story.Status != types.StatusDone || story.Points != 3 {
		t.Errorf("restored story = %s/%d points, want done/3", story.Status, story.Points)
	}
	epic, err := store.GetItem(ctx, types.TypeEpic, "epic-1")
	if err != nil {
		t.Fatalf("failed to get epic: %v", err)
	}
	if epic.CompletedPoints != 3 {
		t.Errorf("completed_points = %d, want 3 after restore", epic.CompletedPoints)
	}
}

func TestAuditEntriesPerChangedField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))
	mustCreate(t, store, testStory("story-1", "epic-1", 3))

	_, err := store.UpdateItem(ctx, types.TypeStory, "story-1", map[string]interface{}{
		"owner":  "bob",
		"points": 5,
	}, "carol")
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	entries, err := store.AuditLog(ctx, types.TypeStory, "story-1", 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	// created + owner + points
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	fields := map[string]bool{}
	for _, e := range entries {
		fields[e.Field] = true
		if e.Field == "points" && (e.OldValue != "3" || e.NewValue != "5") {
			t.Errorf("points audit %q -> %q, want 3 -> 5", e.OldValue, e.NewValue)
		}
		if e.Field == "owner" && e.Actor != "carol" {
			t.Errorf("owner audit actor = %q, want carol", e.Actor)
		}
	}
	if !fields["owner"] || !fields["points"] {
		t.Errorf("missing audit fields: %v", fields)
	}
}

func TestNoAuditForUnchangedValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, store, testEpic("epic-1"))

	_, err := store.UpdateItem(ctx, types.TypeEpic, "epic-1",
		map[string]interface{}{"title": "Epic epic-1"}, "test")
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	entries, err := store.AuditLog(ctx, types.TypeEpic, "epic-1", 0)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("writing the same title should not add audit entries, got %d", len(entries))
	}
}
