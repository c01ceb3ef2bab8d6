package git

import (
	"context"

	"pysemver/internal/repostate"
)

// GetRepoState returns the current repository state
func (g *GitAdapter) GetRepoState(ctx context.Context) (*repostate.RepoState, error) {
	state, err := repostate.ComputeRepoState(ctx, g.repoRoot)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Repository state computed",
		"repoStateId", state.RepoStateID,
		"headCommit", state.HeadCommit,
		"dirty", state.Dirty,
	)
	return state, nil
}

// GetHeadCommit returns the current HEAD commit hash
func (g *GitAdapter) GetHeadCommit(ctx context.Context) (string, error) {
	return g.ResolveCommit(ctx, "HEAD")
}

// ShortCommit abbreviates a commit hash for display
func ShortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
