package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

func (s *Store) insertAudit(ctx context.Context, tx *sql.Tx, entry *types.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO audit_log
		(item_type, item_id, field, old_value, new_value, actor, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(entry.ItemType), entry.ItemID, entry.Field,
		entry.OldValue, entry.NewValue, entry.Actor, entry.Reason, entry.CreatedAt)
	if err != nil {
		return wrapDBError("audit "+entry.ItemID, err)
	}
	return nil
}

// AuditLog returns the change history for an item, newest first. A limit of
// zero or less returns the full history. Entries survive deletion of the
// item they describe.
func (s *Store) AuditLog(ctx context.Context, itemType types.ItemType, id string, limit int) ([]*types.AuditEntry, error) {
	query := `SELECT id, item_type, item_id, field, old_value, new_value, actor, reason, created_at
		FROM audit_log WHERE item_type = ? AND item_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{string(itemType), id}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("audit log "+id, err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		if err := rows.Scan(&e.ID, &e.ItemType, &e.ItemID, &e.Field,
			&e.OldValue, &e.NewValue, &e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
