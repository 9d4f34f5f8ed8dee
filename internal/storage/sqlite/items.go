package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// tableFor maps an item type to its backing table.
func tableFor(t types.ItemType) (string, error) {
	switch t {
	case types.TypeEpic:
		return "epics", nil
	case types.TypeStory:
		return "stories", nil
	case types.TypeSprint:
		return "sprints", nil
	case types.TypeRun:
		return "runs", nil
	default:
		return "", fmt.Errorf("unknown item type: %s", t)
	}
}

// parentColumn returns the parent foreign-key column for types that have one.
func parentColumn(t types.ItemType) (string, bool) {
	switch t {
	case types.TypeStory:
		return "epic_id", true
	case types.TypeRun:
		return "story_id", true
	default:
		return "", false
	}
}

// selectCols builds the column list for reading a work item out of its table.
// Tables without a parent column select an empty string in its place so every
// row scans identically.
func selectCols(t types.ItemType) string {
	parent := "''"
	if col, ok := parentColumn(t); ok {
		parent = "COALESCE(" + col + ", '')"
	}
	completed := "0"
	if t == types.TypeEpic {
		completed = "completed_points"
	}
	return fmt.Sprintf(`id, title, status, points, %s, owner, %s, metadata,
		source_path, content_fingerprint, created_at, updated_at, started_at, completed_at`,
		completed, parent)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner, t types.ItemType) (*types.WorkItem, error) {
	var (
		item      types.WorkItem
		metaJSON  string
		started   sql.NullTime
		completed sql.NullTime
	)
	err := row.Scan(&item.ID, &item.Title, &item.Status, &item.Points,
		&item.CompletedPoints, &item.Owner, &item.ParentID, &metaJSON,
		&item.SourcePath, &item.ContentFingerprint,
		&item.CreatedAt, &item.UpdatedAt, &started, &completed)
	if err != nil {
		return nil, err
	}
	item.ItemType = t
	if started.Valid {
		st := started.Time
		item.StartedAt = &st
	}
	if completed.Valid {
		ct := completed.Time
		item.CompletedAt = &ct
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata for %s: %w", item.ID, err)
		}
	}
	return &item, nil
}

func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(b), nil
}

// CreateItem inserts a new work item and records a creation audit entry.
// The parent reference, when the type requires one, must already exist.
func (s *Store) CreateItem(ctx context.Context, item *types.WorkItem, actor string) error {
	item.SetDefaults()
	if err := item.Validate(); err != nil {
		return err
	}
	table, err := tableFor(item.ItemType)
	if err != nil {
		return err
	}
	metaJSON, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, ok := parentColumn(item.ItemType); ok {
			parentTable, _ := tableFor(item.ItemType.ParentType())
			var exists int
			err := tx.QueryRowContext(ctx,
				fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", parentTable),
				item.ParentID).Scan(&exists)
			if err == sql.ErrNoRows {
				return fmt.Errorf("create %s %s: parent %s: %w",
					item.ItemType, item.ID, item.ParentID, storage.ErrDanglingReference)
			}
			if err != nil {
				return wrapDBError("create "+item.ID, err)
			}
		}

		query := fmt.Sprintf(`INSERT INTO %s (id, title, status, points, owner, metadata,
			source_path, content_fingerprint, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)
		args := []interface{}{item.ID, item.Title, string(item.Status), item.Points,
			item.Owner, metaJSON, item.SourcePath, item.ContentFingerprint,
			item.CreatedAt, item.UpdatedAt}
		if col, ok := parentColumn(item.ItemType); ok {
			query = fmt.Sprintf(`INSERT INTO %s (id, title, status, points, owner, %s, metadata,
				source_path, content_fingerprint, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, col)
			args = []interface{}{item.ID, item.Title, string(item.Status), item.Points,
				item.Owner, item.ParentID, metaJSON, item.SourcePath,
				item.ContentFingerprint, item.CreatedAt, item.UpdatedAt}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("create "+item.ID, err)
		}

		if err := s.insertAudit(ctx, tx, &types.AuditEntry{
			ItemType: item.ItemType,
			ItemID:   item.ID,
			Field:    "status",
			NewValue: string(item.Status),
			Actor:    actor,
			Reason:   "created",
		}); err != nil {
			return err
		}

		if item.ItemType == types.TypeStory && item.ParentID != "" {
			return s.recomputeEpic(ctx, tx, item.ParentID)
		}
		return nil
	})
}

// GetItem fetches a single work item by type and id.
func (s *Store) GetItem(ctx context.Context, itemType types.ItemType, id string) (*types.WorkItem, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectCols(itemType), table), id)
	item, err := scanItem(row, itemType)
	if err != nil {
		return nil, wrapDBError("get "+id, err)
	}
	return item, nil
}

func (s *Store) getItemTx(ctx context.Context, tx *sql.Tx, itemType types.ItemType, id string) (*types.WorkItem, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectCols(itemType), table), id)
	item, err := scanItem(row, itemType)
	if err != nil {
		return nil, wrapDBError("get "+id, err)
	}
	return item, nil
}

// updatableFields is the set of columns UpdateItem accepts, keyed by the
// public field name callers use in the changes map.
var updatableFields = map[string]string{
	"title":               "title",
	"status":              "status",
	"owner":               "owner",
	"points":              "points",
	"parent":              "", // resolved per type
	"metadata":            "metadata",
	"source_path":         "source_path",
	"content_fingerprint": "content_fingerprint",
}

// auditedFields are the subset of fields whose changes produce audit entries.
var auditedFields = map[string]bool{
	"title":  true,
	"status": true,
	"owner":  true,
	"points": true,
	"parent": true,
}

// UpdateItem applies a set of field changes to an existing item. Status
// changes are checked against the item type's transition machine, timestamps
// are maintained, audit entries are written for tracked fields, and epic
// aggregates are recomputed in the same transaction when the change affects
// them. Returns the updated item.
func (s *Store) UpdateItem(ctx context.Context, itemType types.ItemType, id string, changes map[string]interface{}, actor string) (*types.WorkItem, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return nil, err
	}
	for field := range changes {
		if _, ok := updatableFields[field]; !ok {
			return nil, fmt.Errorf("field %q is not updatable", field)
		}
	}

	var updated *types.WorkItem
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		before, err := s.getItemTx(ctx, tx, itemType, id)
		if err != nil {
			return err
		}

		machine := types.Transitions(itemType)
		setClauses := []string{"updated_at = ?"}
		now := time.Now().UTC()
		args := []interface{}{now}
		var audits []*types.AuditEntry

		statusChanged := false
		var newStatus types.Status
		pointsChanged := false
		parentChanged := false
		oldParent := before.ParentID

		for field, raw := range changes {
			switch field {
			case "status":
				str, ok := raw.(string)
				if !ok {
					return fmt.Errorf("status must be a string")
				}
				ns := types.Status(str)
				if ns == before.Status {
					continue
				}
				if !machine.CanTransition(before.Status, ns) {
					return fmt.Errorf("update %s: %s -> %s: %w",
						id, before.Status, ns, storage.ErrInvalidTransition)
				}
				statusChanged = true
				newStatus = ns
				setClauses = append(setClauses, "status = ?")
				args = append(args, str)
				audits = append(audits, &types.AuditEntry{
					ItemType: itemType, ItemID: id, Field: "status",
					OldValue: string(before.Status), NewValue: str, Actor: actor,
				})
				if before.StartedAt == nil && !machine.IsTerminal(ns) && ns != machine.Initial {
					setClauses = append(setClauses, "started_at = ?")
					args = append(args, now)
				}
				if machine.IsTerminal(ns) {
					setClauses = append(setClauses, "completed_at = ?")
					args = append(args, now)
				}
			case "points":
				pts, err := toInt(raw)
				if err != nil {
					return fmt.Errorf("points: %w", err)
				}
				if pts < 0 {
					return fmt.Errorf("points must be non-negative")
				}
				if pts == before.Points {
					continue
				}
				pointsChanged = true
				setClauses = append(setClauses, "points = ?")
				args = append(args, pts)
				audits = append(audits, &types.AuditEntry{
					ItemType: itemType, ItemID: id, Field: "points",
					OldValue: strconv.Itoa(before.Points), NewValue: strconv.Itoa(pts), Actor: actor,
				})
			case "parent":
				col, ok := parentColumn(itemType)
				if !ok {
					return fmt.Errorf("%s items have no parent", itemType)
				}
				np, ok := raw.(string)
				if !ok {
					return fmt.Errorf("parent must be a string")
				}
				if np == before.ParentID {
					continue
				}
				parentTable, _ := tableFor(itemType.ParentType())
				var exists int
				err := tx.QueryRowContext(ctx,
					fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", parentTable), np).Scan(&exists)
				if err == sql.ErrNoRows {
					return fmt.Errorf("update %s: parent %s: %w", id, np, storage.ErrDanglingReference)
				}
				if err != nil {
					return wrapDBError("update "+id, err)
				}
				parentChanged = true
				setClauses = append(setClauses, col+" = ?")
				args = append(args, np)
				audits = append(audits, &types.AuditEntry{
					ItemType: itemType, ItemID: id, Field: "parent",
					OldValue: before.ParentID, NewValue: np, Actor: actor,
				})
			case "metadata":
				m, ok := raw.(map[string]string)
				if !ok {
					return fmt.Errorf("metadata must be a map[string]string")
				}
				metaJSON, err := marshalMetadata(m)
				if err != nil {
					return err
				}
				setClauses = append(setClauses, "metadata = ?")
				args = append(args, metaJSON)
			default:
				str, ok := raw.(string)
				if !ok {
					return fmt.Errorf("%s must be a string", field)
				}
				col := updatableFields[field]
				old := ""
				switch field {
				case "title":
					old = before.Title
				case "owner":
					old = before.Owner
				}
				if auditedFields[field] && str != old {
					audits = append(audits, &types.AuditEntry{
						ItemType: itemType, ItemID: id, Field: field,
						OldValue: old, NewValue: str, Actor: actor,
					})
				}
				setClauses = append(setClauses, col+" = ?")
				args = append(args, str)
			}
		}

		if len(setClauses) > 1 {
			args = append(args, id)
			query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
				table, joinClauses(setClauses))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return wrapDBError("update "+id, err)
			}
		}

		for _, a := range audits {
			if err := s.insertAudit(ctx, tx, a); err != nil {
				return err
			}
		}

		// A story moving into or out of the done class, changing points, or
		// moving between epics changes its epic's rollup.
		if itemType == types.TypeStory {
			crossedDone := statusChanged &&
				machine.InDoneClass(before.Status) != machine.InDoneClass(newStatus)
			if crossedDone || pointsChanged || parentChanged {
				if oldParent != "" {
					if err := s.recomputeEpic(ctx, tx, oldParent); err != nil {
						return err
					}
				}
				if parentChanged {
					np := changes["parent"].(string)
					if np != "" && np != oldParent {
						if err := s.recomputeEpic(ctx, tx, np); err != nil {
							return err
						}
					}
				}
			}
		}

		updated, err = s.getItemTx(ctx, tx, itemType, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RestoreItem writes back a previously read item verbatim, bypassing the
// transition machine and the audit trail. Rollback support: a compensation
// undoing a transition into a terminal state has no legal edge to replay,
// so it must restore the recorded pre-image directly. Normal mutation goes
// through CreateItem and UpdateItem.
func (s *Store) RestoreItem(ctx context.Context, item *types.WorkItem) error {
	table, err := tableFor(item.ItemType)
	if err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	metaJSON, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		previousParent := ""
		current, err := s.getItemTx(ctx, tx, item.ItemType, item.ID)
		switch {
		case err == nil:
			previousParent = current.ParentID
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		cols := []string{"id", "title", "status", "points", "owner", "metadata",
			"source_path", "content_fingerprint", "created_at", "updated_at",
			"started_at", "completed_at"}
		args := []interface{}{item.ID, item.Title, string(item.Status), item.Points,
			item.Owner, metaJSON, item.SourcePath, item.ContentFingerprint,
			item.CreatedAt, item.UpdatedAt,
			nullableTime(item.StartedAt), nullableTime(item.CompletedAt)}
		if col, ok := parentColumn(item.ItemType); ok {
			cols = append(cols, col)
			args = append(args, item.ParentID)
		}

		// Upsert rather than REPLACE: a REPLACE is a delete plus insert and
		// would cascade away sprint memberships.
		marks := "?"
		set := ""
		for _, c := range cols[1:] {
			marks += ", ?"
			if set != "" {
				set += ", "
			}
			set += c + " = excluded." + c
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
			table, joinClauses(cols), marks, set)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("restore "+item.ID, err)
		}

		switch item.ItemType {
		case types.TypeEpic:
			return s.recomputeEpic(ctx, tx, item.ID)
		case types.TypeStory:
			if previousParent != "" && previousParent != item.ParentID {
				if err := s.recomputeEpic(ctx, tx, previousParent); err != nil {
					return err
				}
			}
			if item.ParentID != "" {
				return s.recomputeEpic(ctx, tx, item.ParentID)
			}
		}
		return nil
	})
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// DeleteItem removes an item. With cascade true, children (an epic's stories,
// a story's runs) and their descendants are removed first; with cascade false
// the delete fails with ErrHasDependents if any children exist. Audit history
// is retained.
func (s *Store) DeleteItem(ctx context.Context, itemType types.ItemType, id string, cascade bool) error {
	if _, err := tableFor(itemType); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.deleteItemTx(ctx, tx, itemType, id, cascade)
	})
}

func (s *Store) deleteItemTx(ctx context.Context, tx *sql.Tx, itemType types.ItemType, id string, cascade bool) error {
	item, err := s.getItemTx(ctx, tx, itemType, id)
	if err != nil {
		return err
	}

	childType, childIDs, err := s.childIDs(ctx, tx, itemType, id)
	if err != nil {
		return err
	}
	if len(childIDs) > 0 {
		if !cascade {
			return fmt.Errorf("delete %s: %d dependent %s items: %w",
				id, len(childIDs), childType, storage.ErrHasDependents)
		}
		for _, cid := range childIDs {
			if err := s.deleteItemTx(ctx, tx, childType, cid, true); err != nil {
				return err
			}
		}
	}

	table, _ := tableFor(itemType)
	res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return wrapDBError("delete "+id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s: %w", id, storage.ErrNotFound)
	}

	if err := s.insertAudit(ctx, tx, &types.AuditEntry{
		ItemType: itemType,
		ItemID:   id,
		Field:    "deleted",
		OldValue: string(item.Status),
		Reason:   "deleted",
	}); err != nil {
		return err
	}

	if itemType == types.TypeStory && item.ParentID != "" {
		return s.recomputeEpic(ctx, tx, item.ParentID)
	}
	return nil
}

// childIDs returns the ids of direct children of the given item.
func (s *Store) childIDs(ctx context.Context, tx *sql.Tx, itemType types.ItemType, id string) (types.ItemType, []string, error) {
	var childType types.ItemType
	var query string
	switch itemType {
	case types.TypeEpic:
		childType = types.TypeStory
		query = "SELECT id FROM stories WHERE epic_id = ?"
	case types.TypeStory:
		childType = types.TypeRun
		query = "SELECT id FROM runs WHERE story_id = ?"
	default:
		return "", nil, nil
	}
	rows, err := tx.QueryContext(ctx, query, id)
	if err != nil {
		return "", nil, wrapDBError("children of "+id, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return "", nil, err
		}
		ids = append(ids, cid)
	}
	return childType, ids, rows.Err()
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

func joinClauses(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += ", " + c
	}
	return out
}
