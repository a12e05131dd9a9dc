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
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/codeweave/internal/gitcli"
	"github.com/teradata-labs/codeweave/internal/log"
)

// PoolOptions configures a Pool.
type PoolOptions struct {
	BaseRepo    string
	WorktreeDir string
	GitBinary   string // "" resolves to "git" on PATH
	Cap         int    // 0 disables the concurrent-worktree cap
	Logger      *zap.Logger
}

// Pool holds a base repository and a directory of per-agent worktree
// checkouts. All git mutations are serialized by internal/gitcli.Runner.
type Pool struct {
	mu sync.Mutex

	baseRepo    string
	worktreeDir string
	cap         int
	runner      *gitcli.Runner
	log         *zap.Logger

	active   map[string]*Worktree
	released []*Worktree
}

// NewPool constructs a Pool. It does not itself create any worktrees.
func NewPool(opts PoolOptions) *Pool {
	return &Pool{
		baseRepo:    opts.BaseRepo,
		worktreeDir: opts.WorktreeDir,
		cap:         opts.Cap,
		runner:      gitcli.NewRunner(opts.GitBinary),
		log:         log.OrNop(opts.Logger).Named("worktree"),
		active:      make(map[string]*Worktree),
	}
}

// Create allocates a worktree for agentName, branched from baseBranch
// (defaulting to "main"). When the pool is at capacity, a released
// worktree is reused after being reset to a clean state; if none is
// available, Create fails with GitError{Kind: KindPoolExhausted}.
func (p *Pool) Create(ctx context.Context, agentName, baseBranch string) (*Worktree, error) {
	if baseBranch == "" {
		baseBranch = "main"
	}

	p.mu.Lock()
	atCap := p.cap > 0 && len(p.active)+len(p.released) >= p.cap
	var reuse *Worktree
	if atCap && len(p.released) > 0 {
		reuse = p.released[0]
		p.released = p.released[1:]
	}
	p.mu.Unlock()

	if atCap && reuse == nil {
		return nil, &GitError{Kind: KindPoolExhausted, Msg: "worktree pool exhausted"}
	}

	if reuse != nil {
		if _, err := p.runner.Run(ctx, reuse.Path, "clean", "-fd"); err != nil {
			return nil, &GitError{Kind: KindCommandFailed, Msg: "reset reused worktree", Cause: err}
		}
		if _, err := p.runner.Run(ctx, reuse.Path, "checkout", "."); err != nil {
			return nil, &GitError{Kind: KindCommandFailed, Msg: "reset reused worktree", Cause: err}
		}
		reuse.AgentName = agentName
		reuse.ReleasedAt = time.Time{}
		p.mu.Lock()
		p.active[reuse.ID] = reuse
		p.mu.Unlock()
		return reuse, nil
	}

	id := uuid.NewString()[:8]
	branch := fmt.Sprintf("agent/%s/%s", agentName, id)
	path := filepath.Join(p.worktreeDir, id)

	if _, err := p.runner.Run(ctx, p.baseRepo, "worktree", "add", "-b", branch, path, baseBranch); err != nil {
		return nil, &GitError{Kind: KindCommandFailed, Msg: "create worktree", Cause: err}
	}

	wt := &Worktree{
		ID:         id,
		AgentName:  agentName,
		Branch:     branch,
		BaseBranch: baseBranch,
		Path:       path,
		CreatedAt:  time.Now(),
	}

	p.mu.Lock()
	p.active[id] = wt
	p.mu.Unlock()

	return wt, nil
}

// Release returns a worktree to the pool for reuse without destroying
// it; Create will hand it back out after resetting it to a clean state.
func (p *Pool) Release(wt *Worktree) {
	wt.ReleasedAt = time.Now()
	p.mu.Lock()
	delete(p.active, wt.ID)
	p.released = append(p.released, wt)
	p.mu.Unlock()
}

// Commit stages every change in wt and commits it. A clean worktree
// (nothing staged) returns ErrNothingToCommit, not an error.
func (p *Pool) Commit(ctx context.Context, wt *Worktree, message string) (string, error) {
	if _, err := p.runner.Run(ctx, wt.Path, "add", "-A"); err != nil {
		return "", &GitError{Kind: KindCommandFailed, Msg: "stage changes", Cause: err}
	}

	_, diffErr := p.runner.Run(ctx, wt.Path, "diff", "--cached", "--quiet")
	if diffErr == nil {
		return "", ErrNothingToCommit
	}
	if gitErr, ok := diffErr.(*gitcli.Error); !ok || gitErr.ExitCode != 1 {
		return "", &GitError{Kind: KindCommandFailed, Msg: "check staged changes", Cause: diffErr}
	}

	if _, err := p.runner.Run(ctx, wt.Path, "commit", "-m", message); err != nil {
		return "", &GitError{Kind: KindCommandFailed, Msg: "commit", Cause: err}
	}

	res, err := p.runner.Run(ctx, wt.Path, "rev-parse", "HEAD")
	if err != nil {
		return "", &GitError{Kind: KindCommandFailed, Msg: "resolve commit hash", Cause: err}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Remove tears down a worktree: `git worktree remove`, retried with
// --force on first failure, then deletes its branch.
func (p *Pool) Remove(ctx context.Context, wt *Worktree) error {
	if _, err := p.runner.Run(ctx, p.baseRepo, "worktree", "remove", wt.Path); err != nil {
		if _, err2 := p.runner.Run(ctx, p.baseRepo, "worktree", "remove", "--force", wt.Path); err2 != nil {
			return &GitError{Kind: KindCommandFailed, Msg: "remove worktree", Cause: err2}
		}
	}
	if _, err := p.runner.Run(ctx, p.baseRepo, "branch", "-D", wt.Branch); err != nil {
		p.log.Warn("worktree: failed to delete branch after removal", zap.String("branch", wt.Branch), zap.Error(err))
	}

	p.mu.Lock()
	delete(p.active, wt.ID)
	for i, r := range p.released {
		if r.ID == wt.ID {
			p.released = append(p.released[:i], p.released[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	return nil
}

// CleanupOlderThan removes every released (non-active) worktree whose
// ReleasedAt is older than age.
func (p *Pool) CleanupOlderThan(ctx context.Context, age time.Duration) error {
	cutoff := time.Now().Add(-age)

	p.mu.Lock()
	var stale []*Worktree
	for _, wt := range p.released {
		if wt.ReleasedAt.Before(cutoff) {
			stale = append(stale, wt)
		}
	}
	p.mu.Unlock()

	for _, wt := range stale {
		if err := p.Remove(ctx, wt); err != nil {
			return err
		}
	}
	return nil
}

// Merge checks out targetBranch in the base repository, then merges
// each named worktree's branch in order under the given strategy.
func (p *Pool) Merge(ctx context.Context, worktreeIDs []string, targetBranch string, strategy ConflictStrategy) (*MergeResult, error) {
	if _, err := p.runner.Run(ctx, p.baseRepo, "checkout", targetBranch); err != nil {
		return nil, &GitError{Kind: KindCommandFailed, Msg: "checkout target branch", Cause: err}
	}

	result := &MergeResult{Success: true}

	for _, id := range worktreeIDs {
		wt, err := p.lookup(id)
		if err != nil {
			return result, err
		}

		args := []string{"merge", wt.Branch}
		switch strategy {
		case StrategyKeepTheirs:
			args = append(args, "-X", "theirs")
		case StrategyKeepOurs:
			args = append(args, "-X", "ours")
		case StrategyManual:
			args = append(args, "--no-commit")
		}

		if _, err := p.runner.Run(ctx, p.baseRepo, args...); err != nil {
			result.Conflicts = append(result.Conflicts, p.detectConflicts(ctx)...)
			result.Success = false

			if strategy == StrategyManual {
				continue // leave conflict markers for the caller
			}
			if _, abortErr := p.runner.Run(ctx, p.baseRepo, "merge", "--abort"); abortErr != nil {
				p.log.Warn("worktree: merge --abort failed", zap.Error(abortErr))
			}
			if strategy == StrategyFail {
				return result, &GitError{Kind: KindCommandFailed, Msg: fmt.Sprintf("merge conflict in branch %s", wt.Branch), Cause: err}
			}
			continue
		}

		result.ModifiedFiles = append(result.ModifiedFiles, changedFilesFromMerge(ctx, p.runner, p.baseRepo)...)
	}

	if result.Success {
		if res, err := p.runner.Run(ctx, p.baseRepo, "rev-parse", "HEAD"); err == nil {
			result.FinalCommit = strings.TrimSpace(res.Stdout)
		}
	}

	return result, nil
}

func (p *Pool) lookup(id string) (*Worktree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wt, ok := p.active[id]; ok {
		return wt, nil
	}
	for _, wt := range p.released {
		if wt.ID == id {
			return wt, nil
		}
	}
	return nil, &GitError{Kind: KindWorktreeNotFound, Msg: fmt.Sprintf("worktree %s not found", id)}
}
