// Package git materialises revisions of a git repository as in-memory file trees.
package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"pysemver/internal/errors"
	"pysemver/internal/filetree"
	"pysemver/internal/repostate"
)

const (
	// BackendID is the unique identifier for the Git backend
	BackendID = "git"

	// DefaultQueryTimeout bounds short git queries such as rev-parse
	DefaultQueryTimeout = 5000 * time.Millisecond

	// DefaultArchiveTimeout bounds reading a whole revision
	DefaultArchiveTimeout = 60 * time.Second
)

// GitAdapter reads revisions out of a local git repository
type GitAdapter struct {
	repoRoot       string
	queryTimeout   time.Duration
	archiveTimeout time.Duration
	logger         *slog.Logger
}

// NewGitAdapter creates a new Git backend adapter for repoRoot
func NewGitAdapter(repoRoot string, logger *slog.Logger) (*GitAdapter, error) {
	if logger == nil {
		return nil, errors.New(errors.InternalError, "logger is required for GitAdapter", nil, nil)
	}

	if !repostate.IsGitRepository(repoRoot) {
		return nil, errors.New(
			errors.TreeUnavailable,
			"not a git repository: "+repoRoot,
			nil,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "git status",
					Safe:        true,
					Description: "Verify you're in a git repository",
				},
				{
					Type:        errors.RunCommand,
					Command:     "pysemver check --baseline-dir <dir>",
					Safe:        true,
					Description: "Compare against an unpacked directory instead of a git revision",
				},
			},
		)
	}

	logger.Debug("Git adapter initialized",
		"backend", BackendID,
		"repoRoot", repoRoot,
		"timeout", DefaultQueryTimeout.String(),
	)

	return &GitAdapter{
		repoRoot:       repoRoot,
		queryTimeout:   DefaultQueryTimeout,
		archiveTimeout: DefaultArchiveTimeout,
		logger:         logger,
	}, nil
}

// ID returns the backend identifier
func (g *GitAdapter) ID() string {
	return BackendID
}

// RepoRoot returns the repository the adapter reads from
func (g *GitAdapter) RepoRoot() string {
	return g.repoRoot
}

// ResolveCommit resolves ref to a full commit hash
func (g *GitAdapter) ResolveCommit(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "-") {
		return "", errors.New(errors.TreeUnavailable, "invalid git ref '"+ref+"'", nil, nil)
	}
	out, err := g.executeGitCommand(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", errors.New(errors.TreeUnavailable, "unknown git ref '"+ref+"'", err,
			errors.GetSuggestedFixes(errors.TreeUnavailable))
	}
	return out, nil
}

// Archive reads the files of ref, limited to paths when any are given, into a tree.
func (g *GitAdapter) Archive(ctx context.Context, ref string, paths ...string) (*filetree.Tree, error) {
	commit, err := g.ResolveCommit(ctx, ref)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.archiveTimeout)
	defer cancel()

	args := []string{"archive", "--format=tar", commit}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to open git archive output", err, nil)
	}

	g.logger.Debug("Reading revision", "ref", ref, "commit", commit, "paths", paths)

	if err := cmd.Start(); err != nil {
		return nil, errors.New(errors.TreeUnavailable, "failed to start git archive", err, nil)
	}
	tree, readErr := filetree.FromTar(stdout, filetree.FormatTar)
	if readErr != nil {
		cancel()
	}
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return nil, errors.New(errors.TreeUnavailable, "git archive of '"+ref+"' timed out", ctx.Err(), nil)
	case readErr != nil:
		return nil, errors.New(errors.TreeUnavailable, "failed to read archive of '"+ref+"'", readErr, nil)
	case waitErr != nil:
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return nil, errors.New(errors.TreeUnavailable, "git archive of '"+ref+"' failed: "+msg, waitErr, nil)
	}

	g.logger.Debug("Revision read", "ref", ref, "files", tree.Len())
	return tree, nil
}

// executeGitCommand runs a git command with timeout and returns the trimmed output
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command", "args", args)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.TreeUnavailable, "git command timed out", err, nil)
		}
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			g.logger.Debug("Git command failed", "args", args, "stderr", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}
