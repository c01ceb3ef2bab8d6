// Package repostate fingerprints the state of a git working tree.
package repostate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os/exec"
	"strings"

	"pysemver/internal/errors"
)

const (
	// EmptyHash represents an empty diff/list hash
	EmptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// RepoState identifies the exact content of a working tree: the HEAD commit plus hashes of
// staged, unstaged and untracked changes.
type RepoState struct {
	RepoStateID         string `json:"repoStateId"`
	HeadCommit          string `json:"headCommit"`
	StagedDiffHash      string `json:"stagedDiffHash"`
	WorkingTreeDiffHash string `json:"workingTreeDiffHash"`
	UntrackedListHash   string `json:"untrackedListHash"`
	Dirty               bool   `json:"dirty"`
}

// ComputeRepoState computes the current repository state using git commands
func ComputeRepoState(ctx context.Context, repoRoot string) (*RepoState, error) {
	headCommit, err := runGit(ctx, repoRoot, "rev-parse", "HEAD")
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "failed to get HEAD commit", err,
			errors.GetSuggestedFixes(errors.TreeUnavailable))
	}
	headCommit = strings.TrimSpace(headCommit)

	stagedDiff, err := runGit(ctx, repoRoot, "diff", "--cached")
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "failed to get staged diff", err, nil)
	}
	workingDiff, err := runGit(ctx, repoRoot, "diff", "HEAD")
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "failed to get working tree diff", err, nil)
	}
	untracked, err := runGit(ctx, repoRoot, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "failed to list untracked files", err, nil)
	}

	state := &RepoState{
		HeadCommit:          headCommit,
		StagedDiffHash:      hashString(stagedDiff),
		WorkingTreeDiffHash: hashString(workingDiff),
		UntrackedListHash:   hashString(untracked),
	}
	state.Dirty = state.StagedDiffHash != EmptyHash ||
		state.WorkingTreeDiffHash != EmptyHash ||
		state.UntrackedListHash != EmptyHash
	state.RepoStateID = computeRepoStateID(headCommit, state.StagedDiffHash, state.WorkingTreeDiffHash, state.UntrackedListHash)
	return state, nil
}

func runGit(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// hashString computes SHA256 hash of a string
func hashString(s string) string {
	if s == "" {
		return EmptyHash
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}

// computeRepoStateID computes the composite repoStateId from all components
func computeRepoStateID(headCommit, stagedHash, workingHash, untrackedHash string) string {
	return hashString(fmt.Sprintf("%s:%s:%s:%s", headCommit, stagedHash, workingHash, untrackedHash))
}

// IsGitRepository checks if the given path is inside a git repository
func IsGitRepository(repoRoot string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

// GetRepoRoot finds the git repository root from the given directory
func GetRepoRoot(startPath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = startPath

	output, err := cmd.Output()
	if err != nil {
		return "", errors.New(errors.TreeUnavailable, "not a git repository: "+startPath, err,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "git rev-parse --show-toplevel",
					Safe:        true,
					Description: "Run pysemver from inside the project's git repository",
				},
			})
	}
	return strings.TrimSpace(string(output)), nil
}
