// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireGit skips the test when no git binary is available in this
// environment, rather than failing a suite that can't exercise the CLI.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.name", "test")
	run("config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	run("add", "-A")
	run("commit", "-m", "initial commit")
	return dir
}

func TestPoolCreateAndCommit(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir()})
	ctx := context.Background()

	wt, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)
	require.DirExists(t, wt.Path)

	require.NoError(t, os.WriteFile(filepath.Join(wt.Path, "scout.txt"), []byte("work\n"), 0o644))

	hash, err := pool.Commit(ctx, wt, "scout work")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
}

func TestPoolCommitNothingToCommit(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir()})
	ctx := context.Background()

	wt, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)

	_, err = pool.Commit(ctx, wt, "nothing changed")
	require.ErrorIs(t, err, ErrNothingToCommit)
}

func TestPoolMergeCleanBranch(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir()})
	ctx := context.Background()

	wt, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(wt.Path, "scout.txt"), []byte("work\n"), 0o644))
	_, err = pool.Commit(ctx, wt, "scout work")
	require.NoError(t, err)

	result, err := pool.Merge(ctx, []string{wt.ID}, "main", StrategyAutoMerge)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.ModifiedFiles, "scout.txt")
	require.NotEmpty(t, result.FinalCommit)
}

// TestPoolMergeTwoWorktreesDisjointFiles merges two worktrees that each
// committed a different file: the merge must succeed with the union of
// both change sets and no conflicts, and neither file may appear in the
// base checkout before the merge runs.
func TestPoolMergeTwoWorktreesDisjointFiles(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir()})
	ctx := context.Background()

	w1, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)
	w2, err := pool.Create(ctx, "reviewer", "main")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(w1.Path, "scout.txt"), []byte("scout\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(w2.Path, "review.txt"), []byte("review\n"), 0o644))
	_, err = pool.Commit(ctx, w1, "scout work")
	require.NoError(t, err)
	_, err = pool.Commit(ctx, w2, "review work")
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(repo, "scout.txt"))
	require.NoFileExists(t, filepath.Join(repo, "review.txt"))

	result, err := pool.Merge(ctx, []string{w1.ID, w2.ID}, "main", StrategyAutoMerge)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Conflicts)
	require.ElementsMatch(t, []string{"scout.txt", "review.txt"}, result.ModifiedFiles)
	require.NotEmpty(t, result.FinalCommit)

	require.FileExists(t, filepath.Join(repo, "scout.txt"))
	require.FileExists(t, filepath.Join(repo, "review.txt"))
}

func TestPoolRemove(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir()})
	ctx := context.Background()

	wt, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)

	require.NoError(t, pool.Remove(ctx, wt))
	require.NoDirExists(t, wt.Path)
}

func TestPoolCapExhaustionWithoutReleasedWorktrees(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir(), Cap: 1})
	ctx := context.Background()

	_, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)

	_, err = pool.Create(ctx, "reviewer", "main")
	require.Error(t, err)
	var gitErr *GitError
	require.ErrorAs(t, err, &gitErr)
	require.Equal(t, KindPoolExhausted, gitErr.Kind)
}

func TestPoolReleaseAndReuse(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	pool := NewPool(PoolOptions{BaseRepo: repo, WorktreeDir: t.TempDir(), Cap: 1})
	ctx := context.Background()

	wt, err := pool.Create(ctx, "scout", "main")
	require.NoError(t, err)
	pool.Release(wt)

	reused, err := pool.Create(ctx, "reviewer", "main")
	require.NoError(t, err)
	require.Equal(t, wt.ID, reused.ID)
	require.Equal(t, "reviewer", reused.AgentName)
}
