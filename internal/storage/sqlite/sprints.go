package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// AssignToSprint adds a story to a sprint. Both must exist; assigning an
// already-assigned story is an error.
func (s *Store) AssignToSprint(ctx context.Context, sprintID, storyID, actor string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireRow(ctx, tx, "sprints", sprintID); err != nil {
			return err
		}
		if err := s.requireRow(ctx, tx, "stories", storyID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO sprint_items (sprint_id, story_id) VALUES (?, ?)",
			sprintID, storyID)
		if err != nil {
			return wrapDBError(fmt.Sprintf("assign %s to %s", storyID, sprintID), err)
		}
		return s.insertAudit(ctx, tx, &types.AuditEntry{
			ItemType: types.TypeStory,
			ItemID:   storyID,
			Field:    "sprint",
			NewValue: sprintID,
			Actor:    actor,
			Reason:   "assigned",
		})
	})
}

// RemoveFromSprint removes a story from a sprint.
func (s *Store) RemoveFromSprint(ctx context.Context, sprintID, storyID, actor string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM sprint_items WHERE sprint_id = ? AND story_id = ?",
			sprintID, storyID)
		if err != nil {
			return wrapDBError(fmt.Sprintf("remove %s from %s", storyID, sprintID), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("remove %s from %s: %w", storyID, sprintID, storage.ErrNotFound)
		}
		return s.insertAudit(ctx, tx, &types.AuditEntry{
			ItemType: types.TypeStory,
			ItemID:   storyID,
			Field:    "sprint",
			OldValue: sprintID,
			Actor:    actor,
			Reason:   "removed",
		})
	})
}

// SprintStories returns the stories assigned to a sprint in assignment order.
func (s *Store) SprintStories(ctx context.Context, sprintID string) ([]*types.WorkItem, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM sprints WHERE id = ?", sprintID).Scan(&exists)
	if err != nil {
		return nil, wrapDBError("sprint "+sprintID, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM stories
		JOIN sprint_items ON sprint_items.story_id = stories.id
		WHERE sprint_items.sprint_id = ?
		ORDER BY sprint_items.added_at, stories.id`, qualifiedStoryCols())
	rows, err := s.db.QueryContext(ctx, query, sprintID)
	if err != nil {
		return nil, wrapDBError("sprint stories "+sprintID, err)
	}
	defer rows.Close()

	var items []*types.WorkItem
	for rows.Next() {
		item, err := scanItem(rows, types.TypeStory)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func qualifiedStoryCols() string {
	return `stories.id, stories.title, stories.status, stories.points, 0,
		stories.owner, COALESCE(stories.epic_id, ''), stories.metadata,
		stories.source_path, stories.content_fingerprint,
		stories.created_at, stories.updated_at, stories.started_at, stories.completed_at`
}

func (s *Store) requireRow(ctx context.Context, tx *sql.Tx, table, id string) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table), id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", table, id, storage.ErrNotFound)
	}
	return err
}
