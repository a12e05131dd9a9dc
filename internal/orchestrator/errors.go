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

package orchestrator

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by Await and chain execution when an agent
// (or the whole manager) was cancelled before completion.
var ErrCancelled = errors.New("orchestrator: cancelled")

// ExecutionErrorKind discriminates ExecutionError's failure modes.
type ExecutionErrorKind int

const (
	KindHandleNotFound ExecutionErrorKind = iota
)

// ExecutionError is orchestrator's single exported error type for
// failures that are about the manager's own bookkeeping rather than an
// agent's own execution failure (which becomes Status{Kind: StatusFailed}).
type ExecutionError struct {
	Kind ExecutionErrorKind
	ID   string
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case KindHandleNotFound:
		return fmt.Sprintf("orchestrator: no such agent run: %s", e.ID)
	default:
		return "orchestrator: execution error"
	}
}

// ToolPermissionDeniedError reports an agent reaching for a tool its
// configuration does not grant at the needed access level.
type ToolPermissionDeniedError struct {
	Tool  string
	Agent string
}

func (e *ToolPermissionDeniedError) Error() string {
	return fmt.Sprintf("orchestrator: tool permission denied: %s for agent %s", e.Tool, e.Agent)
}

// ModeRestrictionError reports an operation blocked by the agent's
// operating mode: Plan and Review are read-only postures, so a write-
// or execute-level tool use is refused even when the tool itself is
// granted.
type ModeRestrictionError struct {
	Mode string
	Op   string
}

func (e *ModeRestrictionError) Error() string {
	return fmt.Sprintf("orchestrator: mode %s forbids %s", e.Mode, e.Op)
}
