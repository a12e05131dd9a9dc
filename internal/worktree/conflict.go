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
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/teradata-labs/codeweave/internal/gitcli"
)

// detectConflicts inspects git status for unmerged ("UU") paths and
// builds a best-effort diff between "ours" and "theirs" for each.
func (p *Pool) detectConflicts(ctx context.Context) []Conflict {
	res, err := p.runner.Run(ctx, p.baseRepo, "status", "--porcelain")
	if err != nil {
		return nil
	}

	var conflicts []Conflict
	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.HasPrefix(line, "UU ") {
			continue
		}
		file := strings.TrimSpace(strings.TrimPrefix(line, "UU "))
		conflicts = append(conflicts, Conflict{
			File: file,
			Diff: p.diffOursTheirs(ctx, file),
		})
	}
	return conflicts
}

func (p *Pool) diffOursTheirs(ctx context.Context, file string) string {
	ours, errOurs := p.runner.Run(ctx, p.baseRepo, "show", ":2:"+file)
	theirs, errTheirs := p.runner.Run(ctx, p.baseRepo, "show", ":3:"+file)
	if errOurs != nil || errTheirs != nil {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(ours.Stdout, theirs.Stdout, false)
	return dmp.DiffPrettyText(diffs)
}

// changedFilesFromMerge lists the files that differ between HEAD and its
// first parent, i.e. what the merge that just ran brought in.
func changedFilesFromMerge(ctx context.Context, runner *gitcli.Runner, repo string) []string {
	res, err := runner.Run(ctx, repo, "diff", "--name-only", "HEAD^", "HEAD")
	if err != nil {
		return nil
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}
