// Command agiledev is the project-tracking CLI: epics, stories, sprints and
// execution records backed by SQLite, with markdown documents kept in sync
// and mutations committed atomically to git.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/configfile"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/docsync"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage/sqlite"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/txn"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/vcs"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

var rootCmd = &cobra.Command{
	Use:           "agiledev",
	Short:         "Track epics, stories and sprints with documents and git",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("actor", "", "actor recorded on audit entries")
	pf.String("policy", "", "sync conflict policy: database_wins, document_wins, manual")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("AGILEDEV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("actor", pf.Lookup("actor"))
	_ = viper.BindPFlag("policy", pf.Lookup("policy"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
}

// project bundles everything an opened project gives a command.
type project struct {
	root   string
	cfg    *configfile.Config
	actor  string
	store  storage.Store
	git    *vcs.Git
	engine *docsync.Engine
	runner *txn.Runner
}

func (p *project) Close() {
	if err := p.store.Close(); err != nil {
		logger.Warn("failed to close store", "error", err)
	}
}

func (p *project) docsDir() string {
	return filepath.Join(p.root, p.cfg.DocsDir)
}

// openProject locates the project above the working directory and wires up
// the store, sync engine and transaction runner. Flag and environment values
// override the config file.
func openProject(ctx context.Context) (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := configfile.FindProjectRoot(cwd)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'agiledev init' first)", err)
	}
	cfg, err := configfile.Load(filepath.Join(root, configfile.ConfigDirName))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = configfile.DefaultConfig()
	}

	actor := cfg.Actor
	if v := viper.GetString("actor"); v != "" {
		actor = v
	}
	if actor == "" {
		actor = "agiledev"
	}
	policy := docsync.Policy(cfg.Policy)
	if v := viper.GetString("policy"); v != "" {
		policy = docsync.Policy(v)
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("unknown sync policy %q", policy)
	}

	store, err := sqlite.New(ctx, filepath.Join(root, configfile.ConfigDirName, cfg.Database))
	if err != nil {
		return nil, err
	}
	git, err := vcs.Open(root)
	if err != nil {
		store.Close()
		return nil, err
	}

	engine := docsync.New(store,
		docsync.WithPolicy(policy),
		docsync.WithActor(actor),
		docsync.WithLogger(logger))
	runner := txn.NewRunner(store, git, root,
		txn.WithActor(actor),
		txn.WithLogger(logger))

	return &project{
		root:   root,
		cfg:    cfg,
		actor:  actor,
		store:  store,
		git:    git,
		engine: engine,
		runner: runner,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
