package main

import (
	"github.com/spf13/cobra"

	"pysemver/internal/diff"
	"pysemver/internal/errors"
	"pysemver/internal/output"
	"pysemver/internal/query"
	"pysemver/internal/version"
)

var (
	graphRef      string
	graphPackage  string
	graphWorktree bool
	graphDir      string
	graphArchive  string
	graphFormat   string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the API graph of a package",
	Long: `Build the API graph of one package at one revision and print it. Useful to see
what pysemver considers public before comparing revisions.

Examples:
  pysemver graph --package mylib
  pysemver graph --package mylib --ref v1.4.0 --format json
  pysemver graph --package mylib --archive dist/mylib-1.4.0-py3-none-any.whl`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphRef, "ref", "", "Git ref to read (default: the working tree)")
	graphCmd.Flags().StringVar(&graphPackage, "package", "", "Top-level package (default: the first configured package)")
	graphCmd.Flags().BoolVar(&graphWorktree, "worktree", false, "Read the working tree")
	graphCmd.Flags().StringVar(&graphDir, "dir", "", "Read from a directory")
	graphCmd.Flags().StringVar(&graphArchive, "archive", "", "Read from an sdist, wheel, tar or zip archive")
	graphCmd.Flags().StringVar(&graphFormat, "format", "human", "Output format: human, json or yaml")

	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(graphFormat)
	if err != nil {
		return configError(err)
	}

	pkg := graphPackage
	if pkg == "" && len(cfg.Packages) > 0 {
		pkg = cfg.Packages[0]
	}
	if pkg == "" {
		return errors.New(errors.ConfigInvalid, "no package given", nil, []errors.FixAction{
			{Type: errors.RunCommand, Command: "pysemver graph --package <name>", Safe: true, Description: "Name the package to print"},
		})
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	var src query.TreeSource
	switch {
	case graphArchive != "":
		src = query.ArchiveSource{Path: graphArchive}
	case graphDir != "":
		src = query.DirSource{Root: graphDir}
	case graphRef != "" && !graphWorktree:
		src = query.GitSource{Adapter: engine.Git(), Ref: graphRef}
	default:
		src = query.DirSource{Root: repoRoot, Worktree: true}
	}

	g, rev, err := engine.BuildGraph(ctx, src, pkg)
	if err != nil {
		return err
	}

	tool := output.Tool{Name: query.ToolName, Version: version.Info()}
	dump := output.NewGraphDump(tool, pkg, rev, diff.NewHasher().SnapshotID(g), g)
	if err := output.Write(cmd.OutOrStdout(), format, dump, output.HumanOptions{}); err != nil {
		return errors.New(errors.InternalError, "failed to write graph", err, nil)
	}
	return nil
}
