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
	"errors"
	"fmt"
)

// ErrNothingToCommit is returned by Pool.Commit when staging produced
// no changes; it is a sentinel, not an error condition for callers.
var ErrNothingToCommit = errors.New("worktree: nothing to commit")

// GitErrorKind discriminates GitError's failure modes.
type GitErrorKind int

const (
	KindCommandFailed GitErrorKind = iota
	KindPoolExhausted
	KindWorktreeNotFound
)

// GitError is worktree's single exported error type.
type GitError struct {
	Kind  GitErrorKind
	Msg   string
	Cause error
}

func (e *GitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("worktree: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("worktree: %s", e.Msg)
}

func (e *GitError) Unwrap() error { return e.Cause }
