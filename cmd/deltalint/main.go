package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"deltalint/internal/adapter/cli"
	"deltalint/internal/adapter/git"
	"deltalint/internal/adapter/lint"
	"deltalint/internal/adapter/observability"
	jsonwriter "deltalint/internal/adapter/output/json"
	"deltalint/internal/adapter/output/markdown"
	"deltalint/internal/adapter/output/sarif"
	"deltalint/internal/adapter/output/text"
	"deltalint/internal/adapter/store/sqlite"
	"deltalint/internal/config"
	"deltalint/internal/usecase/correlate"
	"deltalint/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "deltalint",
		EnvPrefix:   "DELTALINT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}

	gitEngine := git.NewEngine(repoDir)
	lintRunner := lint.NewRunner(gitEngine, cfg.Lint.Tool, cfg.Lint.Args)

	var logger correlate.Logger
	if cfg.Observability.Logging.Enabled {
		logger = observability.NewLogger(
			observability.ParseLevel(cfg.Observability.Logging.Level),
			observability.ParseFormat(cfg.Observability.Logging.Format),
		)
	}

	// Initialize store if enabled
	var runStore correlate.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				runStore = sqliteStore
				defer runStore.Close()
			}
		}
	}

	engine := correlate.NewEngine(correlate.EngineDeps{
		VCS:               gitEngine,
		Linter:            lintRunner,
		Store:             runStore,
		Logger:            logger,
		Repository:        repositoryName(repoDir),
		MaxDiffBytes:      cfg.Engine.MaxDiffBytes,
		Concurrency:       cfg.Engine.Concurrency,
		AllowedExtensions: cfg.Lint.Extensions,
	})

	renderers := map[string]cli.Renderer{
		"text":     text.NewWriter(text.IsOutputTerminal()),
		"markdown": markdown.NewWriter(),
		"json":     jsonwriter.NewWriter(),
		"sarif":    sarif.NewWriter("deltalint", version.Value()),
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Checker:       engine,
		Renderers:     renderers,
		DefaultFormat: cfg.Output.Format,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deltalint"))
	}
	return paths
}

// Compile-time interface compliance checks
var _ correlate.VCS = (*git.Engine)(nil)
var _ correlate.LintRunner = (*lint.Runner)(nil)
var _ correlate.Store = (*sqlite.Store)(nil)
var _ correlate.Logger = (*observability.Logger)(nil)
var _ cli.Checker = (*correlate.Engine)(nil)
var _ cli.Renderer = (*text.Writer)(nil)
var _ cli.Renderer = (*markdown.Writer)(nil)
var _ cli.Renderer = (*jsonwriter.Writer)(nil)
var _ cli.Renderer = (*sarif.Writer)(nil)
var _ lint.FileSource = (*git.Engine)(nil)
