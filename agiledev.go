// Package agiledev provides a minimal public API for embedding the tracker
// in other Go programs.
//
// Most integrations should drive the agiledev CLI; this package exports only
// the types and constructors needed to use the storage layer and sync engine
// programmatically.
package agiledev

import (
	"context"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/docsync"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage/sqlite"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// Core types for working with items
type (
	WorkItem   = types.WorkItem
	ItemType   = types.ItemType
	Status     = types.Status
	ItemFilter = types.ItemFilter
	AuditEntry = types.AuditEntry
)

// ItemType constants
const (
	TypeEpic   = types.TypeEpic
	TypeStory  = types.TypeStory
	TypeSprint = types.TypeSprint
	TypeRun    = types.TypeRun
)

// Common status constants
const (
	StatusPending    = types.StatusPending
	StatusInProgress = types.StatusInProgress
	StatusBlocked    = types.StatusBlocked
	StatusDone       = types.StatusDone
	StatusCancelled  = types.StatusCancelled
)

// Store is the typed storage interface backing all item operations.
type Store = storage.Store

// Sync engine types
type (
	SyncEngine = docsync.Engine
	SyncPolicy = docsync.Policy
)

// NewSQLiteStore opens (creating if necessary) an agiledev SQLite database.
func NewSQLiteStore(ctx context.Context, dbPath string) (Store, error) {
	return sqlite.New(ctx, dbPath)
}

// NewSyncEngine creates a document sync engine over a store.
func NewSyncEngine(store Store, opts ...docsync.Option) *SyncEngine {
	return docsync.New(store, opts...)
}
