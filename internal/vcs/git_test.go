package vcs

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) (*Git, string) {
	t.Helper()
	dir := t.TempDir()
	g, err := Init(dir)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	// An initial commit so HEAD resolves.
	writeFile(t, dir, "README.md", "# test\n")
	if err := g.StageAll(); err != nil {
		t.Fatalf("failed to stage: %v", err)
	}
	if _, err := g.Commit("initial"); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return g, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestIsClean(t *testing.T) {
	g, dir := newTestRepo(t)

	clean, err := g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if !clean {
		t.Error("fresh repo should be clean")
	}

	writeFile(t, dir, "dirty.md", "uncommitted\n")
	clean, err = g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if clean {
		t.Error("repo with an untracked file should be dirty")
	}
}

func TestCheckpointAndResetHard(t *testing.T) {
	g, dir := newTestRepo(t)

	checkpoint, err := g.Checkpoint()
	if err != nil {
		t.Fatalf("failed to checkpoint: %v", err)
	}

	writeFile(t, dir, "doc.md", "content\n")
	if err := g.StageAll(); err != nil {
		t.Fatalf("failed to stage: %v", err)
	}
	rev, err := g.Commit("add doc")
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if rev == checkpoint {
		t.Fatal("commit should produce a new revision")
	}

	if err := g.ResetHard(checkpoint); err != nil {
		t.Fatalf("failed to reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.md")); !os.IsNotExist(err) {
		t.Error("hard reset should remove the committed file")
	}
	head, err := g.Checkpoint()
	if err != nil {
		t.Fatalf("failed to read HEAD: %v", err)
	}
	if head != checkpoint {
		t.Errorf("HEAD = %s, want %s", head, checkpoint)
	}
}

func TestStageOnlyAddsNamedPaths(t *testing.T) {
	g, dir := newTestRepo(t)

	writeFile(t, dir, "wanted.md", "yes\n")
	writeFile(t, dir, "unrelated.md", "no\n")
	if err := g.Stage("wanted.md"); err != nil {
		t.Fatalf("failed to stage: %v", err)
	}
	if _, err := g.Commit("add wanted"); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	clean, err := g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if clean {
		t.Error("the unrelated file should still be uncommitted")
	}
}

func TestCommitAllowsEmpty(t *testing.T) {
	g, _ := newTestRepo(t)

	before, err := g.Checkpoint()
	if err != nil {
		t.Fatalf("failed to checkpoint: %v", err)
	}
	rev, err := g.Commit("marker only")
	if err != nil {
		t.Fatalf("an empty commit should be allowed: %v", err)
	}
	if rev == before {
		t.Error("empty commit should still move HEAD")
	}
}

func TestCommitRecordsStagedChanges(t *testing.T) {
	g, dir := newTestRepo(t)

	writeFile(t, dir, "doc.md", "content\n")
	if err := g.StageAll(); err != nil {
		t.Fatalf("failed to stage: %v", err)
	}
	if _, err := g.Commit("add doc"); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	clean, err := g.IsClean()
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if !clean {
		t.Error("tree should be clean after committing everything")
	}
}
