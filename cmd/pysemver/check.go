package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"pysemver/internal/errors"
	"pysemver/internal/explain"
	"pysemver/internal/output"
	"pysemver/internal/query"
)

var (
	checkBaseline        string
	checkHead            string
	checkWorktree        bool
	checkBaselineDir     string
	checkHeadDir         string
	checkBaselineArchive string
	checkHeadArchive     string
	checkPackages        []string
	checkStyle           string
	checkFormat          string
	checkAll             bool
	checkColor           string
	checkDetectRenames   bool
	checkWorkers         int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report API changes between two revisions",
	Long: `Compare the public API of one or more packages between a baseline and a head
revision and classify every change as breaking or compatible.

The baseline is a git ref, an unpacked directory or an sdist/wheel archive. The head
defaults to the working tree, uncommitted changes included.

Examples:
  pysemver check --baseline v1.4.0
  pysemver check --baseline v1.4.0 --head main --packages mylib
  pysemver check --baseline-archive dist/mylib-1.4.0.tar.gz
  pysemver check --baseline v1.4.0 --style verbose --all
  pysemver check --baseline v1.4.0 --format json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkBaseline, "baseline", "", "Baseline git ref")
	checkCmd.Flags().StringVar(&checkHead, "head", "", "Head git ref (default: the working tree)")
	checkCmd.Flags().BoolVar(&checkWorktree, "worktree", false, "Use the working tree as head even if a head ref is configured")
	checkCmd.Flags().StringVar(&checkBaselineDir, "baseline-dir", "", "Read the baseline from a directory")
	checkCmd.Flags().StringVar(&checkHeadDir, "head-dir", "", "Read the head from a directory")
	checkCmd.Flags().StringVar(&checkBaselineArchive, "baseline-archive", "", "Read the baseline from an sdist, wheel, tar or zip archive")
	checkCmd.Flags().StringVar(&checkHeadArchive, "head-archive", "", "Read the head from an sdist, wheel, tar or zip archive")
	checkCmd.Flags().StringSliceVar(&checkPackages, "packages", nil, "Top-level packages to analyze (default: from config or pyproject.toml)")
	checkCmd.Flags().StringVar(&checkStyle, "style", "", "Explanation style: oneline or verbose")
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "Output format: human, json or yaml")
	checkCmd.Flags().BoolVar(&checkAll, "all", false, "Also list compatible changes")
	checkCmd.Flags().StringVar(&checkColor, "color", "", "Colour output: auto, always or never")
	checkCmd.Flags().BoolVar(&checkDetectRenames, "detect-renames", false, "Hint at likely renames for removed objects")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "Parallel parse workers (default: number of CPUs)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("baseline") {
		cfg.Baseline = checkBaseline
	}
	if flags.Changed("head") {
		cfg.Head = checkHead
	}
	if checkWorktree {
		cfg.Head = ""
	}
	if flags.Changed("packages") {
		cfg.Packages = checkPackages
	}
	if flags.Changed("style") {
		cfg.Style = checkStyle
	}
	if flags.Changed("format") {
		cfg.Format = checkFormat
	}
	if flags.Changed("all") {
		cfg.ShowAll = checkAll
	}
	if flags.Changed("color") {
		cfg.Color = checkColor
	}
	if flags.Changed("detect-renames") {
		cfg.DetectRenames = checkDetectRenames
	}
	if flags.Changed("workers") {
		cfg.Workers = checkWorkers
	}
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	style, err := explain.ParseStyle(cfg.Style)
	if err != nil {
		return configError(err)
	}
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return configError(err)
	}
	rules, err := cfg.LoadIgnoreRules(repoRoot)
	if err != nil {
		return configError(err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	baseline, err := baselineSource(engine, revisionInput{
		ref:     cfg.Baseline,
		dir:     checkBaselineDir,
		archive: checkBaselineArchive,
	})
	if err != nil {
		return err
	}
	head := headSource(ctx, engine, revisionInput{
		ref:     cfg.Head,
		dir:     checkHeadDir,
		archive: checkHeadArchive,
	})

	report, err := engine.Compare(ctx, baseline, head, query.CompareOptions{
		Packages:      cfg.Packages,
		Rules:         rules,
		DetectRenames: cfg.DetectRenames,
		Workers:       cfg.Workers,
	})
	if err != nil {
		return err
	}

	opts := output.HumanOptions{
		Style:   style,
		ShowAll: cfg.ShowAll,
		Color:   output.ColorEnabled(cfg.Color, os.Stdout),
	}
	if err := output.Write(cmd.OutOrStdout(), format, report, opts); err != nil {
		return errors.New(errors.InternalError, "failed to write report", err, nil)
	}

	exitStatus = report.ExitCode()
	return nil
}

// revisionInput names one side of the comparison. An archive wins over a directory, which
// wins over a git ref.
type revisionInput struct {
	ref     string
	dir     string
	archive string
}

func baselineSource(engine *query.Engine, in revisionInput) (query.TreeSource, error) {
	switch {
	case in.archive != "":
		return query.ArchiveSource{Path: in.archive}, nil
	case in.dir != "":
		return query.DirSource{Root: in.dir}, nil
	case in.ref != "":
		return query.GitSource{Adapter: engine.Git(), Ref: in.ref}, nil
	}
	return nil, errors.New(errors.ConfigInvalid, "no baseline given", nil, []errors.FixAction{
		{
			Type:        errors.RunCommand,
			Command:     "pysemver check --baseline <tag>",
			Safe:        true,
			Description: "Compare against the last released tag",
		},
		{
			Type:        errors.EditFile,
			Description: "Set baseline under [tool.pysemver] in pyproject.toml",
		},
	})
}

func headSource(ctx context.Context, engine *query.Engine, in revisionInput) query.TreeSource {
	switch {
	case in.archive != "":
		return query.ArchiveSource{Path: in.archive}
	case in.dir != "":
		return query.DirSource{Root: in.dir}
	case in.ref != "":
		return query.GitSource{Adapter: engine.Git(), Ref: in.ref}
	}

	src := query.DirSource{Root: repoRoot, Worktree: true}
	if g := engine.Git(); g != nil {
		if state, err := g.GetRepoState(ctx); err == nil {
			src.Commit = state.HeadCommit
			src.Dirty = state.Dirty
		} else {
			logger.Debug("Could not read repository state", "error", err.Error())
		}
	}
	return src
}
