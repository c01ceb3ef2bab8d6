// Package query coordinates a pysemver run: it materialises both revisions, builds their API
// graphs and turns the differences into a report.
package query

import (
	"log/slog"

	"pysemver/internal/backends/git"
	"pysemver/internal/breaking"
	"pysemver/internal/config"
	"pysemver/internal/output"
	"pysemver/internal/slogutil"
	"pysemver/internal/version"
)

// ToolName is reported in every report.
const ToolName = "pysemver"

// Engine is the central coordinator for pysemver.
type Engine struct {
	logger   *slog.Logger
	config   *config.Config
	repoRoot string

	// gitAdapter is nil outside a git repository.
	gitAdapter *git.GitAdapter
}

// NewEngine creates a new engine for the repository at repoRoot. A missing git repository is
// not an error here; only revision sources that need git fail later.
func NewEngine(repoRoot string, logger *slog.Logger, cfg *config.Config) (*Engine, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	engine := &Engine{
		logger:   logger,
		config:   cfg,
		repoRoot: repoRoot,
	}

	gitAdapter, err := git.NewGitAdapter(repoRoot, logger)
	if err != nil {
		logger.Debug("Git backend unavailable", "error", err.Error())
	} else {
		logger.Debug("Backend ready", "backend", gitAdapter.ID(), "root", gitAdapter.RepoRoot())
		engine.gitAdapter = gitAdapter
	}

	return engine, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Git returns the git backend, or nil when repoRoot is not a git repository.
func (e *Engine) Git() *git.GitAdapter {
	return e.gitAdapter
}

// CompareOptions tunes one comparison. Zero values fall back to the engine configuration.
type CompareOptions struct {
	Packages      []string
	Rules         []breaking.IgnoreRule
	DetectRenames bool
	Workers       int
}

func (e *Engine) compareOptions(opts CompareOptions) CompareOptions {
	if len(opts.Packages) == 0 {
		opts.Packages = e.config.Packages
	}
	if opts.Workers <= 0 {
		opts.Workers = e.config.Workers
	}
	if !opts.DetectRenames {
		opts.DetectRenames = e.config.DetectRenames
	}
	return opts
}

func (e *Engine) tool() output.Tool {
	return output.Tool{Name: ToolName, Version: version.Info()}
}
