package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// recomputeEpic recomputes an epic's completed_points from its stories in
// the current transaction. Runs inside the same transaction as the story
// mutation so readers never observe a stale rollup.
func (s *Store) recomputeEpic(ctx context.Context, tx *sql.Tx, epicID string) error {
	machine := types.Transitions(types.TypeStory)
	placeholders, args := statusPlaceholders(machine.DoneClass)

	query := fmt.Sprintf(`UPDATE epics SET
		completed_points = COALESCE(
			(SELECT SUM(points) FROM stories
			 WHERE epic_id = epics.id AND status IN (%s)), 0),
		updated_at = ?
		WHERE id = ?`, placeholders)

	args = append(args, time.Now().UTC(), epicID)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBError("recompute epic "+epicID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recompute epic %s: %w", epicID, storage.ErrNotFound)
	}
	return nil
}

// EpicProgress reports the children rollup for an epic: story counts and
// point totals, with done-class stories counted as completed.
func (s *Store) EpicProgress(ctx context.Context, epicID string) (*types.EpicProgress, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM epics WHERE id = ?", epicID).Scan(&exists)
	if err != nil {
		return nil, wrapDBError("epic "+epicID, err)
	}

	machine := types.Transitions(types.TypeStory)
	placeholders, args := statusPlaceholders(machine.DoneClass)

	query := fmt.Sprintf(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status IN (%s) THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(points), 0),
		COALESCE(SUM(CASE WHEN status IN (%s) THEN points ELSE 0 END), 0)
		FROM stories WHERE epic_id = ?`, placeholders, placeholders)

	allArgs := append(args, args...)
	allArgs = append(allArgs, epicID)

	var p types.EpicProgress
	err = s.db.QueryRowContext(ctx, query, allArgs...).Scan(
		&p.TotalChildren, &p.DoneChildren, &p.TotalPoints, &p.CompletedPoints)
	if err != nil {
		return nil, wrapDBError("epic progress "+epicID, err)
	}
	return &p, nil
}

func statusPlaceholders(statuses []types.Status) (string, []interface{}) {
	marks := make([]byte, 0, len(statuses)*2)
	args := make([]interface{}, 0, len(statuses))
	for i, st := range statuses {
		if i > 0 {
			marks = append(marks, ',')
		}
		marks = append(marks, '?')
		args = append(args, string(st))
	}
	return string(marks), args
}
