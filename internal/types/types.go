// Package types defines core data structures for the agiledev tracking core.
package types

import (
	"fmt"
	"time"
)

// WorkItem represents a tracked unit of work (epic, story, sprint, or run).
type WorkItem struct {
	ID                 string            `json:"id"`
	ItemType           ItemType          `json:"item_type"`
	Title              string            `json:"title"`
	Status             Status            `json:"status,omitempty"`
	Points             int               `json:"points"` // No omitempty: 0 is a valid estimate
	Owner              string            `json:"owner,omitempty"`
	ParentID           string            `json:"parent_id,omitempty"` // story→epic, run→story
	CreatedAt          time.Time         `json:"created_at"`
	StartedAt          *time.Time        `json:"started_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	SourcePath         string            `json:"source_path,omitempty"`         // paired document, if any
	ContentFingerprint string            `json:"content_fingerprint,omitempty"` // hash at last successful sync

	// CompletedPoints is derived for epics: sum of points over children in the
	// done class. Maintained synchronously by the store, never set by callers.
	CompletedPoints int `json:"completed_points,omitempty"`
}

// ItemType categorizes the kind of work item.
type ItemType string

// Item type constants
const (
	TypeEpic   ItemType = "epic"
	TypeStory  ItemType = "story"
	TypeSprint ItemType = "sprint"
	TypeRun    ItemType = "run" // execution record for a story
)

// IsValid checks if the item type value is valid
func (t ItemType) IsValid() bool {
	switch t {
	case TypeEpic, TypeStory, TypeSprint, TypeRun:
		return true
	}
	return false
}

// ParentType returns the item type a given type's ParentID refers to,
// or "" for types without a parent.
func (t ItemType) ParentType() ItemType {
	switch t {
	case TypeStory:
		return TypeEpic
	case TypeRun:
		return TypeStory
	}
	return ""
}

// HasParent reports whether items of this type declare a parent reference.
func (t ItemType) HasParent() bool {
	return t.ParentType() != ""
}

// ChildType returns the item type whose ParentID points at this type,
// or "" for types without children.
func (t ItemType) ChildType() ItemType {
	switch t {
	case TypeEpic:
		return TypeStory
	case TypeStory:
		return TypeRun
	}
	return ""
}

// Status represents the current state of a work item.
type Status string

// Status constants across all item types. Each type admits a subset;
// see Transitions.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"

	// Sprint lifecycle
	StatusPlanned Status = "planned"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"

	// Run lifecycle
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Validate checks that the item has valid field values for its type.
func (w *WorkItem) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(w.ID) > 100 {
		return fmt.Errorf("id must be 100 characters or less (got %d)", len(w.ID))
	}
	if !w.ItemType.IsValid() {
		return fmt.Errorf("invalid item type: %s", w.ItemType)
	}
	if len(w.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(w.Title))
	}
	if w.Points < 0 {
		return fmt.Errorf("points cannot be negative (got %d)", w.Points)
	}
	machine := Transitions(w.ItemType)
	if !machine.IsKnown(w.Status) {
		return fmt.Errorf("invalid status for %s: %s", w.ItemType, w.Status)
	}
	if w.ItemType.HasParent() && w.ParentID == "" {
		return fmt.Errorf("%s requires a parent %s id", w.ItemType, w.ItemType.ParentType())
	}
	if !w.ItemType.HasParent() && w.ParentID != "" {
		return fmt.Errorf("%s cannot declare a parent", w.ItemType)
	}
	return nil
}

// SetDefaults applies default values for fields omitted at construction:
// Status defaults to the type's initial state.
func (w *WorkItem) SetDefaults() {
	if w.Status == "" {
		w.Status = Transitions(w.ItemType).Initial
	}
}

// AuditEntry is an immutable record of one field-level change.
// Entries are written in the same store transaction as the mutation they
// describe and are never updated or deleted.
type AuditEntry struct {
	ID        int64     `json:"id"`
	ItemType  ItemType  `json:"item_type"`
	ItemID    string    `json:"item_id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SyncState is the per-document three-way merge baseline: the fingerprint of
// the last successfully reconciled document plus a snapshot of the tracked
// field values at that point. Distinct from both the current database value
// and the current document value.
type SyncState struct {
	Path        string            `json:"path"`
	Fingerprint string            `json:"fingerprint"`
	Fields      map[string]string `json:"fields"`
	SyncedAt    time.Time         `json:"synced_at"`
}

// EpicProgress reports an epic's children rollup.
type EpicProgress struct {
	TotalChildren   int `json:"total_children"`
	DoneChildren    int `json:"done_children"`
	TotalPoints     int `json:"total_points"`
	CompletedPoints int `json:"completed_points"`
}

// ItemFilter narrows item queries. Nil fields match everything. All
// filterable columns are indexed; equality and range filters never scan.
type ItemFilter struct {
	Status        *Status
	ParentID      *string
	Owner         *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	PointsMin     *int
	PointsMax     *int

	OrderBy OrderBy
	Limit   int
	Offset  int
}

// OrderBy determines result ordering for item queries.
type OrderBy string

// Ordering constants
const (
	OrderByCreated OrderBy = "created" // default: oldest first
	OrderByUpdated OrderBy = "updated"
	OrderByID      OrderBy = "id"
)

// IsValid checks if the ordering value is valid
func (o OrderBy) IsValid() bool {
	switch o {
	case OrderByCreated, OrderByUpdated, OrderByID, "":
		return true
	}
	return false
}
