// Package vcs abstracts the version-control operations the transaction
// runner needs: working-tree status, checkpointing, staging, committing and
// hard reset.
package vcs

// Revision is an opaque pointer to a version-control state, suitable for
// resetting back to.
type Revision string

// VersionControl is the narrow surface the transaction runner drives.
type VersionControl interface {
	// IsClean reports whether the working tree has no uncommitted changes.
	IsClean() (bool, error)
	// Checkpoint returns the current revision pointer.
	Checkpoint() (Revision, error)
	// Stage adds specific worktree-relative paths to the index.
	Stage(paths ...string) error
	// StageAll stages every change in the working tree.
	StageAll() error
	// Commit records the staged changes and returns the new revision.
	Commit(message string) (Revision, error)
	// ResetHard discards all uncommitted state and moves back to rev.
	ResetHard(rev Revision) error
}
