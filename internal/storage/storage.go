// Package storage provides shared types for work item storage.
//
// The concrete implementation lives in the sqlite sub-package. This package
// holds the interface and sentinel errors referenced by both the
// implementation and its consumers (docsync, txn, cmd/agiledev).
package storage

import (
	"context"
	"errors"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when creating an item whose business identifier
// already exists for its type.
var ErrDuplicateID = errors.New("duplicate identifier")

// ErrDanglingReference is returned when a declared parent does not exist.
var ErrDanglingReference = errors.New("dangling parent reference")

// ErrInvalidTransition is returned when a status change is not an edge of the
// item type's state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrHasDependents is returned by a non-cascading delete when dependents exist.
var ErrHasDependents = errors.New("item has dependents")

// Store is the interface satisfied by *sqlite.Store.
//
// Every mutation is transactional with respect to the embedded database:
// field changes, audit entries, and aggregate recomputation either all apply
// or none do. Mutations on the same item are serialized; mutations on
// distinct items proceed independently.
type Store interface {
	// Item CRUD
	CreateItem(ctx context.Context, item *types.WorkItem, actor string) error
	GetItem(ctx context.Context, itemType types.ItemType, id string) (*types.WorkItem, error)
	UpdateItem(ctx context.Context, itemType types.ItemType, id string, changes map[string]interface{}, actor string) (*types.WorkItem, error)
	DeleteItem(ctx context.Context, itemType types.ItemType, id string, cascade bool) error

	// RestoreItem writes back a previously read item verbatim, bypassing
	// transition checks and the audit trail. Rollback support only; regular
	// mutation goes through CreateItem and UpdateItem.
	RestoreItem(ctx context.Context, item *types.WorkItem) error

	// Queries. ListItems materializes results; EachItem streams rows lazily
	// and re-executes the underlying query on every call, so a filter value
	// is a restartable sequence.
	ListItems(ctx context.Context, itemType types.ItemType, filter types.ItemFilter) ([]*types.WorkItem, error)
	EachItem(ctx context.Context, itemType types.ItemType, filter types.ItemFilter, fn func(*types.WorkItem) error) error

	// Sprint assignment (story ↔ sprint many-to-many)
	AssignToSprint(ctx context.Context, sprintID, storyID, actor string) error
	RemoveFromSprint(ctx context.Context, sprintID, storyID, actor string) error
	SprintStories(ctx context.Context, sprintID string) ([]*types.WorkItem, error)

	// Aggregates
	EpicProgress(ctx context.Context, epicID string) (*types.EpicProgress, error)

	// Audit trail (append-only; newest first)
	AuditLog(ctx context.Context, itemType types.ItemType, id string, limit int) ([]*types.AuditEntry, error)

	// Sync baselines
	GetSyncState(ctx context.Context, path string) (*types.SyncState, error)
	PutSyncState(ctx context.Context, state *types.SyncState) error
	DeleteSyncState(ctx context.Context, path string) error

	// Configuration
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	// Lifecycle
	Close() error
}
