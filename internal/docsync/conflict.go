package docsync

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedConflict indicates both sides changed the same field and the
// manual policy refused to pick a winner.
var ErrUnresolvedConflict = errors.New("unresolved sync conflict")

// Policy selects how conflicting field edits are resolved.
type Policy string

const (
	// PolicyDatabaseWins discards the document's value for conflicting
	// fields; non-conflicting document changes still apply.
	PolicyDatabaseWins Policy = "database_wins"
	// PolicyDocumentWins applies the document's value for conflicting fields.
	PolicyDocumentWins Policy = "document_wins"
	// PolicyManual refuses to resolve: conflicts surface as a ConflictError
	// and nothing is mutated.
	PolicyManual Policy = "manual"
)

// IsValid reports whether p names a known policy.
func (p Policy) IsValid() bool {
	switch p {
	case PolicyDatabaseWins, PolicyDocumentWins, PolicyManual:
		return true
	}
	return false
}

// FieldConflict records both sides of one conflicting field, plus the
// baseline value they diverged from.
type FieldConflict struct {
	Field    string
	Base     string
	Database string
	Document string
}

// ConflictError reports every conflicting field of a document sync under the
// manual policy. No mutation has happened when it is returned.
type ConflictError struct {
	ID        string
	Path      string
	Conflicts []FieldConflict
}

func (e *ConflictError) Error() string {
	fields := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		fields[i] = fmt.Sprintf("%s (db=%q doc=%q)", c.Field, c.Database, c.Document)
	}
	return fmt.Sprintf("sync conflict on %s: %s", e.ID, strings.Join(fields, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrUnresolvedConflict }

// fieldDecision is the outcome of the three-way comparison for one field.
type fieldDecision int

const (
	keepDatabase fieldDecision = iota
	applyDocument
	conflicted
)

// decideField runs the three-way comparison for a single tracked field.
// A field conflicts only when both sides moved away from the baseline and
// disagree with each other; a one-sided change applies cleanly. With no
// baseline recorded, any disagreement is treated as a conflict because
// there is no way to tell which side moved.
func decideField(dbVal, docVal, baseVal string, hasBase bool) fieldDecision {
	if dbVal == docVal {
		return keepDatabase
	}
	if !hasBase {
		return conflicted
	}
	dbChanged := dbVal != baseVal
	docChanged := docVal != baseVal
	switch {
	case dbChanged && docChanged:
		return conflicted
	case docChanged:
		return applyDocument
	default:
		return keepDatabase
	}
}
