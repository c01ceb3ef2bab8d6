package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"pysemver/internal/apigraph"
	"pysemver/internal/breaking"
	"pysemver/internal/diff"
	"pysemver/internal/errors"
	"pysemver/internal/filetree"
	"pysemver/internal/model"
	"pysemver/internal/output"
)

// Compare loads both revisions and compares every requested package. Failures that only
// affect one package are recorded in that package's report entry; the returned error is
// reserved for cancellation and invalid input.
func (e *Engine) Compare(ctx context.Context, baseline, head TreeSource, opts CompareOptions) (*output.Report, error) {
	start := time.Now()
	opts = e.compareOptions(opts)
	if len(opts.Packages) == 0 {
		return nil, errors.New(errors.ConfigInvalid, "no packages to analyze", nil, []errors.FixAction{
			{
				Type:        errors.EditFile,
				Description: "Set packages under [tool.pysemver] in pyproject.toml or pass --packages",
			},
		})
	}

	var (
		baseTree, headTree *filetree.Tree
		baseRev, headRev   output.Revision
		baseErr, headErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseTree, baseRev, baseErr = baseline.Load(gctx)
		return nil
	})
	g.Go(func() error {
		headTree, headRev, headErr = head.Load(gctx)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if baseErr != nil {
		e.logger.Warn("Failed to load baseline", "ref", baseRev.Ref, "error", baseErr.Error())
	}
	if headErr != nil {
		e.logger.Warn("Failed to load head", "ref", headRev.Ref, "error", headErr.Error())
	}

	results := make([]output.PackageResult, 0, len(opts.Packages))
	for _, name := range opts.Packages {
		var res output.PackageResult
		switch {
		case baseErr != nil:
			res = output.PackageResult{Name: name, Err: baseErr}
		case headErr != nil:
			res = output.PackageResult{Name: name, Err: headErr}
		default:
			res = e.comparePackage(ctx, name, baseTree, headTree, opts)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	report := output.NewReport(e.tool(), baseRev, headRev, results)
	e.logger.Info("Comparison complete",
		"packages", len(results),
		"breaking", report.Summary.Breaking,
		"advice", report.SemverAdvice,
		"duration", time.Since(start).String(),
	)
	return report, nil
}

// comparePackage runs the pipeline for one package. Both graphs are built in parallel.
func (e *Engine) comparePackage(ctx context.Context, name string, baseTree, headTree *filetree.Tree, opts CompareOptions) output.PackageResult {
	res := output.PackageResult{Name: name}
	log := e.logger.With("package", name)

	var baseGraph, headGraph *apigraph.Graph
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseGraph, err = e.buildPackageGraph(gctx, baseTree, name, opts.Workers)
		return err
	})
	g.Go(func() error {
		var err error
		headGraph, err = e.buildPackageGraph(gctx, headTree, name, opts.Workers)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn("Package analysis failed", "error", err.Error())
		res.Err = err
		return res
	}

	hasher := diff.NewHasher()
	res.BaselineSnapshot = hasher.SnapshotID(baseGraph)
	res.HeadSnapshot = hasher.SnapshotID(headGraph)
	res.Warnings = headGraph.Warnings()

	changes := diff.Diff(baseGraph, headGraph)
	result := breaking.Classify(changes)
	if opts.DetectRenames {
		result = breaking.SuggestRenames(result, changes)
	}
	result = breaking.ApplyIgnores(result, opts.Rules)
	res.Result = result

	log.Debug("Package compared",
		"baselineObjects", baseGraph.Len(),
		"headObjects", headGraph.Len(),
		"changes", len(changes),
		"findings", len(result.Findings),
	)
	return res
}

// buildPackageGraph selects a package from tree and builds its graph.
func (e *Engine) buildPackageGraph(ctx context.Context, tree *filetree.Tree, name string, workers int) (*apigraph.Graph, error) {
	pkg, err := locatePackage(tree, name)
	if err != nil {
		return nil, err
	}
	return model.BuildGraph(ctx, pkg, model.Options{
		Workers: workers,
		Logger:  e.logger,
	})
}

// BuildGraph loads src and builds the API graph of one package.
func (e *Engine) BuildGraph(ctx context.Context, src TreeSource, name string) (*apigraph.Graph, output.Revision, error) {
	tree, rev, err := src.Load(ctx)
	if err != nil {
		return nil, rev, err
	}
	graph, err := e.buildPackageGraph(ctx, tree, name, e.config.Workers)
	if err != nil {
		return nil, rev, err
	}
	return graph, rev, nil
}
