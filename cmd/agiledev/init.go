package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/configfile"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage/sqlite"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/vcs"
)

// gitignoreTemplate keeps the database and its write-ahead log out of
// version control; otherwise every store write would dirty the working tree
// and the clean-tree precondition would reject all transactions.
const gitignoreTemplate = `*.db
*.db-wal
*.db-shm
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a project in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := initProject(cmd.Context(), cwd)
		if err != nil {
			return err
		}
		logger.Info("project initialized", "root", cwd, "database", cfg.Database)
		return nil
	},
}

// initProject scaffolds a project at root: a git repository, the config
// directory with its gitignore, the docs directory and an empty database.
// The scaffold is committed so the first transaction starts from a clean
// tree.
func initProject(ctx context.Context, root string) (*configfile.Config, error) {
	configDir := filepath.Join(root, configfile.ConfigDirName)
	if existing, err := configfile.Load(configDir); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("project already initialized at %s", root)
	}

	// The transaction runner needs a repository to commit into.
	git, err := vcs.Open(root)
	if err != nil {
		if git, err = vcs.Init(root); err != nil {
			return nil, err
		}
		logger.Info("initialized git repository", "path", root)
	}

	// The gitignore must exist before the database does.
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(configDir, ".gitignore"),
		[]byte(gitignoreTemplate), 0o644); err != nil {
		return nil, err
	}

	cfg := configfile.DefaultConfig()
	if err := cfg.Save(configDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, cfg.DocsDir), 0o755); err != nil {
		return nil, err
	}

	// Open once so the schema exists before the first command.
	store, err := sqlite.New(ctx, filepath.Join(configDir, cfg.Database))
	if err != nil {
		return nil, err
	}
	if err := store.Close(); err != nil {
		return nil, err
	}

	// Commit the scaffold; only the named paths are staged so pre-existing
	// uncommitted work in the repository is left alone.
	scaffold := []string{
		configfile.ConfigDirName + "/.gitignore",
		configfile.ConfigDirName + "/" + configfile.ConfigFileName,
	}
	if err := git.Stage(scaffold...); err != nil {
		return nil, err
	}
	if _, err := git.Commit("agiledev: initialize project"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
