package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pysemver/internal/config"
	"pysemver/internal/errors"
	"pysemver/internal/repostate"
	"pysemver/internal/slogutil"
	"pysemver/internal/version"
)

// Exit statuses.
const (
	exitOK       = 0
	exitBreaking = 1
	exitFailure  = 2
)

var (
	verbosity  int
	quiet      bool
	logFile    string
	configFile string
	repoFlag   string

	// exitStatus is set by commands that finish without an error.
	exitStatus = exitOK

	// Set up by PersistentPreRunE for every subcommand.
	logger   *slog.Logger
	cfg      *config.Config
	repoRoot string
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "pysemver",
	Short: "Detect breaking changes in the public API of a Python library",
	Long: `pysemver compares the public interface of a Python library between two revisions
without running any code, reports every change that can break existing callers and
suggests the semantic version bump the change set needs.

Exit status: 0 no breaking change, 1 breaking changes found, 2 the analysis failed.`,
	Version:           version.Info(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate("pysemver version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Silence all log output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write debug logs to this file")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: pysemver.toml or [tool.pysemver] in pyproject.toml)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", "", "Repository root (default: the enclosing git repository)")
}

// setup resolves the repository root, loads the configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}
	repoRoot = root

	if configFile != "" {
		cfg, err = config.LoadConfigFromPath(repoRoot, configFile)
	} else {
		cfg, err = config.LoadConfig(repoRoot)
	}
	if err != nil {
		return configError(err)
	}
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	handler := slogutil.NewTextHandler(os.Stderr, &slogutil.Options{Level: level, OmitTime: true})

	if logFile != "" {
		fileHandler, f, err := slogutil.OpenLogFile(logFile, slog.LevelDebug)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		closeLog = func() { _ = f.Close() }
		logger = slog.New(slogutil.NewTeeHandler(handler, fileHandler))
	} else {
		logger = slog.New(handler)
	}

	logger.Debug("Configuration loaded", "repoRoot", repoRoot, "sources", cfg.Sources)
	return nil
}

// resolveRepoRoot prefers --repo, then the enclosing git repository, then the working directory.
func resolveRepoRoot() (string, error) {
	if repoFlag != "" {
		info, err := os.Stat(repoFlag)
		if err != nil || !info.IsDir() {
			return "", errors.New(errors.TreeUnavailable, "repository root "+repoFlag+" is not a directory", err, nil)
		}
		return repoFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.New(errors.InternalError, "cannot determine working directory", err, nil)
	}
	if root, err := repostate.GetRepoRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

func configError(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.New(errors.ConfigInvalid, err.Error(), err, nil)
}
