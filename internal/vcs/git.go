package vcs

import (
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git implements VersionControl over a local repository using go-git.
type Git struct {
	repo       *git.Repository
	authorName string
	authorMail string
}

// Open opens the repository containing path.
func Open(path string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Git{
		repo:       repo,
		authorName: "agiledev",
		authorMail: "agiledev@localhost",
	}, nil
}

// Init creates a new repository at path.
func Init(path string) (*Git, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository at %s: %w", path, err)
	}
	return &Git{
		repo:       repo,
		authorName: "agiledev",
		authorMail: "agiledev@localhost",
	}, nil
}

// SetAuthor overrides the commit author identity.
func (g *Git) SetAuthor(name, email string) {
	g.authorName = name
	g.authorMail = email
}

func (g *Git) worktree() (*git.Worktree, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return wt, nil
}

// IsClean reports whether the working tree has no staged or unstaged changes.
func (g *Git) IsClean() (bool, error) {
	wt, err := g.worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

// Checkpoint returns the current HEAD commit hash.
func (g *Git) Checkpoint() (Revision, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return Revision(head.Hash().String()), nil
}

// StageAll stages every working-tree change, deletions included.
func (g *Git) StageAll() error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Stage adds specific paths to the index. Paths are slash-separated and
// relative to the worktree root.
func (g *Git) Stage(paths ...string) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return nil
}

// Commit records the staged changes. Empty commits are allowed: a
// transaction that only touches the database still gets its marker commit.
func (g *Git) Commit(message string) (Revision, error) {
	wt, err := g.worktree()
	if err != nil {
		return "", err
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  g.authorName,
			Email: g.authorMail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return Revision(hash.String()), nil
}

// ResetHard discards all uncommitted changes and moves HEAD to rev.
func (g *Git) ResetHard(rev Revision) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: plumbing.NewHash(string(rev)),
	}); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", rev, err)
	}
	return nil
}
