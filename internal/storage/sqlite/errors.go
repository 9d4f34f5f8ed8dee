package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
)

// wrapDBError translates driver-level errors into the storage package's
// sentinel errors so callers can branch with errors.Is.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%s: %w", op, storage.ErrDuplicateID)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w", op, storage.ErrDanglingReference)
	}
	return fmt.Errorf("%s: %w", op, err)
}
