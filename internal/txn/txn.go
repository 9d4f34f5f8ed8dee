// Package txn coordinates mutations that span the filesystem, the store and
// version control. There is no shared coordinator: filesystem and store steps
// are staged in order, and on failure each applied step is undone by its
// compensation before the working tree is reset to the pre-transaction
// checkpoint.
package txn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/vcs"
)

// ErrDirtyWorkingTree rejects a transaction before anything runs: the
// working tree must be clean so a hard reset restores exactly the
// pre-transaction state.
var ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

// ErrTransactionFailed is the class every failed transaction wraps.
var ErrTransactionFailed = errors.New("transaction failed")

// TransactionError reports a failed transaction. Err is the original
// failure; RollbackErr is set when rollback itself also failed, in which
// case the repository may need manual reconciliation.
type TransactionError struct {
	Op          string
	Err         error
	RollbackErr error
}

func (e *TransactionError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("transaction %q failed: %v (rollback also failed: %v; manual reconciliation required)",
			e.Op, e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("transaction %q failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool { return target == ErrTransactionFailed }

// RequiresManualRecovery reports whether rollback failed and the
// store/worktree may disagree.
func (e *TransactionError) RequiresManualRecovery() bool { return e.RollbackErr != nil }

// Runner executes atomic filesystem+store+commit transactions against one
// project root.
type Runner struct {
	store  storage.Store
	vc     vcs.VersionControl
	root   string
	actor  string
	logger *log.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithActor sets the actor recorded on store mutations.
func WithActor(actor string) RunnerOption {
	return func(r *Runner) { r.actor = actor }
}

// WithLogger sets the runner logger.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a transaction runner. root is the directory document
// paths are resolved against; it must live inside the version-controlled
// tree.
func NewRunner(store storage.Store, vc vcs.VersionControl, root string, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:  store,
		vc:     vc,
		root:   root,
		actor:  "txn",
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tx is the transaction context handed to the Run callback. It exposes only
// staging operations; committing and resetting stay with the runner.
type Tx struct {
	ctx    context.Context
	runner *Runner

	createdFiles  []string
	compensations []compensation
}

type compensation struct {
	desc string
	undo func(ctx context.Context) error
}

// Run executes fn as one atomic unit: precondition clean tree, checkpoint,
// let fn stage filesystem and store changes, then stage and commit everything
// as a single commit. Any failure rolls the filesystem back to the checkpoint
// and undoes the store changes in reverse order.
func (r *Runner) Run(ctx context.Context, op string, fn func(*Tx) error) error {
	clean, err := r.vc.IsClean()
	if err != nil {
		return fmt.Errorf("failed to check working tree: %w", err)
	}
	if !clean {
		return fmt.Errorf("cannot run %q: %w", op, ErrDirtyWorkingTree)
	}

	checkpoint, err := r.vc.Checkpoint()
	if err != nil {
		return fmt.Errorf("failed to record checkpoint: %w", err)
	}

	tx := &Tx{ctx: ctx, runner: r}
	txID := uuid.NewString()
	r.logger.Debug("transaction started", "op", op, "tx_id", txID, "checkpoint", checkpoint)

	if err := fn(tx); err != nil {
		return r.rollback(ctx, op, tx, checkpoint, err)
	}

	if err := r.vc.StageAll(); err != nil {
		return r.rollback(ctx, op, tx, checkpoint, err)
	}
	message := fmt.Sprintf("agiledev: %s\n\nTx-ID: %s", op, txID)
	rev, err := r.vc.Commit(message)
	if err != nil {
		return r.rollback(ctx, op, tx, checkpoint, err)
	}

	r.logger.Info("transaction committed", "op", op, "tx_id", txID, "revision", rev)
	return nil
}

// rollback restores the pre-transaction state: remove files this transaction
// created (a hard reset leaves untracked files behind), reset the tree to
// the checkpoint, then undo store mutations newest first.
func (r *Runner) rollback(ctx context.Context, op string, tx *Tx, checkpoint vcs.Revision, cause error) error {
	r.logger.Warn("transaction rolling back", "op", op, "error", cause)
	var rollbackErrs []error

	for i := len(tx.createdFiles) - 1; i >= 0; i-- {
		if err := os.Remove(tx.createdFiles[i]); err != nil && !os.IsNotExist(err) {
			rollbackErrs = append(rollbackErrs,
				fmt.Errorf("failed to remove %s: %w", tx.createdFiles[i], err))
		}
	}
	if err := r.vc.ResetHard(checkpoint); err != nil {
		rollbackErrs = append(rollbackErrs, fmt.Errorf("failed to reset worktree: %w", err))
	}
	for i := len(tx.compensations) - 1; i >= 0; i-- {
		c := tx.compensations[i]
		if err := c.undo(ctx); err != nil {
			rollbackErrs = append(rollbackErrs,
				fmt.Errorf("compensation %q failed: %w", c.desc, err))
		}
	}

	txErr := &TransactionError{Op: op, Err: cause}
	if len(rollbackErrs) > 0 {
		txErr.RollbackErr = errors.Join(rollbackErrs...)
		r.logger.Error("rollback incomplete, manual reconciliation required",
			"op", op, "error", txErr.RollbackErr)
	}
	return txErr
}

// WriteDocument writes a file relative to the project root, creating parent
// directories as needed. Files that did not exist before are removed again
// on rollback.
func (tx *Tx) WriteDocument(relPath string, data []byte) error {
	path := filepath.Join(tx.runner.root, relPath)
	existed := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		existed = false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	if !existed {
		tx.createdFiles = append(tx.createdFiles, path)
	}
	return nil
}

// RemoveDocument deletes a file under the project root. Tracked files come
// back automatically on rollback through the checkpoint reset; removing a
// missing file is a no-op.
func (tx *Tx) RemoveDocument(relPath string) error {
	if err := os.Remove(filepath.Join(tx.runner.root, relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", relPath, err)
	}
	return nil
}

// CreateItem creates a work item in the store. On rollback the item is
// deleted again.
func (tx *Tx) CreateItem(item *types.WorkItem) error {
	if err := tx.runner.store.CreateItem(tx.ctx, item, tx.runner.actor); err != nil {
		return err
	}
	itemType, id := item.ItemType, item.ID
	tx.compensations = append(tx.compensations, compensation{
		desc: "delete " + id,
		undo: func(ctx context.Context) error {
			return tx.runner.store.DeleteItem(ctx, itemType, id, false)
		},
	})
	return nil
}

// UpdateItem updates a work item in the store. On rollback the full
// pre-update image is written back, so even transitions into terminal
// states are undone.
func (tx *Tx) UpdateItem(itemType types.ItemType, id string, changes map[string]interface{}) (*types.WorkItem, error) {
	before, err := tx.runner.store.GetItem(tx.ctx, itemType, id)
	if err != nil {
		return nil, err
	}
	updated, err := tx.runner.store.UpdateItem(tx.ctx, itemType, id, changes, tx.runner.actor)
	if err != nil {
		return nil, err
	}
	tx.compensations = append(tx.compensations, compensation{
		desc: "restore " + id,
		undo: func(ctx context.Context) error {
			return tx.runner.store.RestoreItem(ctx, before)
		},
	})
	return updated, nil
}

// DeleteItem deletes a work item, cascading over descendants when asked, and
// drops the sync baseline of every removed document pairing. The deleted
// items are returned parents first so the caller can remove their documents.
// On rollback the recorded pre-images and baselines are written back.
func (tx *Tx) DeleteItem(itemType types.ItemType, id string, cascade bool) ([]*types.WorkItem, error) {
	images, err := tx.subtreeImages(itemType, id)
	if err != nil {
		return nil, err
	}
	if err := tx.runner.store.DeleteItem(tx.ctx, itemType, id, cascade); err != nil {
		return nil, err
	}

	var baselines []*types.SyncState
	for _, img := range images {
		if img.SourcePath == "" {
			continue
		}
		state, err := tx.runner.store.GetSyncState(tx.ctx, img.SourcePath)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if state != nil {
			baselines = append(baselines, state)
		}
		if err := tx.runner.store.DeleteSyncState(tx.ctx, img.SourcePath); err != nil {
			return nil, err
		}
	}

	tx.compensations = append(tx.compensations, compensation{
		desc: "restore " + id,
		undo: func(ctx context.Context) error {
			var errs []error
			for _, img := range images {
				if err := tx.runner.store.RestoreItem(ctx, img); err != nil {
					errs = append(errs, fmt.Errorf("failed to restore %s: %w", img.ID, err))
				}
			}
			for _, state := range baselines {
				if err := tx.runner.store.PutSyncState(ctx, state); err != nil {
					errs = append(errs, fmt.Errorf("failed to restore baseline %s: %w", state.Path, err))
				}
			}
			return errors.Join(errs...)
		},
	})
	return images, nil
}

// subtreeImages reads the item and its descendants, parents first.
func (tx *Tx) subtreeImages(itemType types.ItemType, id string) ([]*types.WorkItem, error) {
	item, err := tx.runner.store.GetItem(tx.ctx, itemType, id)
	if err != nil {
		return nil, err
	}
	images := []*types.WorkItem{item}
	childType := itemType.ChildType()
	if childType == "" {
		return images, nil
	}
	children, err := tx.runner.store.ListItems(tx.ctx, childType, types.ItemFilter{ParentID: &id})
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		sub, err := tx.subtreeImages(childType, child.ID)
		if err != nil {
			return nil, err
		}
		images = append(images, sub...)
	}
	return images, nil
}
