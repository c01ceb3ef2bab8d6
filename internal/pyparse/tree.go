package pyparse

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"pysemver/internal/filetree"
)

// ParseTree parses every Python source in tree with up to workers goroutines.
// Each file is written to its own slot, so the result order matches tree.Paths().
// When several files fail, the error of the first failing path is returned so the
// outcome does not depend on scheduling. A .pyi stub shadows the .py file of the
// same module, which is then not parsed.
func ParseTree(ctx context.Context, tree *filetree.Tree, workers int) ([]*Module, error) {
	paths := sourcePaths(tree)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	modules := make([]*Module, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	next := make(chan int, len(paths))
	for i := range paths {
		next <- i
	}
	close(next)

	n := workers
	if n > len(paths) {
		n = len(paths)
	}
	for w := 0; w < n; w++ {
		g.Go(func() error {
			parser := NewParser()
			for i := range next {
				if err := gctx.Err(); err != nil {
					return err
				}
				src, _ := tree.Read(paths[i])
				modules[i], errs[i] = parser.Parse(gctx, paths[i], src)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return modules, nil
}

// sourcePaths returns the files to parse, dropping .py files shadowed by a .pyi stub.
func sourcePaths(tree *filetree.Tree) []string {
	var paths []string
	for _, p := range tree.Paths() {
		if !filetree.IsSource(p) {
			continue
		}
		if strings.HasSuffix(p, ".py") {
			if _, shadowed := tree.Read(p + "i"); shadowed {
				continue
			}
		}
		paths = append(paths, p)
	}
	return paths
}
