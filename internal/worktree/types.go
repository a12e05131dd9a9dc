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

// Package worktree manages per-agent git worktrees (C7): one checkout
// per spawned agent, isolated on its own branch, mergeable back into a
// target branch under a choice of conflict strategies.
package worktree

import "time"

// Worktree is one checked-out git worktree assigned to an agent.
type Worktree struct {
	ID         string
	AgentName  string
	Branch     string
	BaseBranch string
	Path       string
	CreatedAt  time.Time
	ReleasedAt time.Time // zero while still assigned to an agent
}

// Released reports whether this worktree has been returned to the pool
// (and is therefore eligible for reuse or age-based cleanup).
func (w *Worktree) Released() bool {
	return !w.ReleasedAt.IsZero()
}

// ConflictStrategy selects how Merge resolves a conflicting branch.
type ConflictStrategy int

const (
	// StrategyFail aborts the whole merge on the first conflict.
	StrategyFail ConflictStrategy = iota
	// StrategyKeepTheirs resolves every conflict in favor of the
	// worktree branch being merged in (`-X theirs`).
	StrategyKeepTheirs
	// StrategyKeepOurs resolves every conflict in favor of the target
	// branch (`-X ours`).
	StrategyKeepOurs
	// StrategyAutoMerge uses git's default merge strategy and reports
	// any conflict as a failure with a conflict list, aborting that
	// branch's merge but continuing with the rest.
	StrategyAutoMerge
	// StrategyManual merges with --no-commit, leaving conflict markers
	// in the base repository's checkout (where Merge runs) for the
	// caller to resolve by hand.
	StrategyManual
)

// Conflict is one file git could not merge automatically.
type Conflict struct {
	File string
	Diff string // unified-ish diff between "ours" and "theirs", best effort
}

// MergeResult is the outcome of merging one or more worktree branches
// into a target branch.
type MergeResult struct {
	Success       bool
	ModifiedFiles []string
	Conflicts     []Conflict
	FinalCommit   string
}
