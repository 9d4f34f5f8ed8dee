package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// GetSyncState loads the merge baseline recorded for a document path.
func (s *Store) GetSyncState(ctx context.Context, path string) (*types.SyncState, error) {
	var (
		state      types.SyncState
		fieldsJSON string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT path, fingerprint, fields, synced_at FROM sync_state WHERE path = ?",
		path).Scan(&state.Path, &state.Fingerprint, &fieldsJSON, &state.SyncedAt)
	if err != nil {
		return nil, wrapDBError("sync state "+path, err)
	}
	if fieldsJSON != "" && fieldsJSON != "{}" {
		if err := json.Unmarshal([]byte(fieldsJSON), &state.Fields); err != nil {
			return nil, fmt.Errorf("failed to parse sync state fields for %s: %w", path, err)
		}
	}
	return &state, nil
}

// PutSyncState records the merge baseline for a document path, replacing any
// previous baseline.
func (s *Store) PutSyncState(ctx context.Context, state *types.SyncState) error {
	if state.Path == "" {
		return fmt.Errorf("sync state path is required")
	}
	fieldsJSON := "{}"
	if len(state.Fields) > 0 {
		b, err := json.Marshal(state.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal sync state fields: %w", err)
		}
		fieldsJSON = string(b)
	}
	if state.SyncedAt.IsZero() {
		state.SyncedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_state (path, fingerprint, fields, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			fields = excluded.fields,
			synced_at = excluded.synced_at`,
		state.Path, state.Fingerprint, fieldsJSON, state.SyncedAt)
	if err != nil {
		return wrapDBError("put sync state "+state.Path, err)
	}
	return nil
}

// DeleteSyncState removes the baseline for a path. Deleting a missing
// baseline is not an error.
func (s *Store) DeleteSyncState(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sync_state WHERE path = ?", path)
	if err != nil {
		return wrapDBError("delete sync state "+path, err)
	}
	return nil
}
