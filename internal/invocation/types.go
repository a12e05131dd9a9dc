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

// Package invocation parses the `@name params` mini-language used to
// address one or more subagents in a single free-form line (C6): calls
// joined by "→" run in sequence, calls joined by "+" run in parallel,
// and text outside any "@…" call is preserved as shared context.
package invocation

import "github.com/teradata-labs/codeweave/internal/agentcfg"

// Call is one "@name params" invocation. Params holds key=value pairs
// verbatim; leftover positional tokens are recorded under synthetic
// keys arg0, arg1, ….
type Call struct {
	Name   string
	Params map[string]string
}

// Step is one slot in an ExecutionPlan's ordered list: either a single
// call, or a set of calls joined by "+" that run concurrently against
// the same input. Steps are joined by "→" (or "->"): a step's combined
// output feeds into the context of the next step.
type Step struct {
	Calls []Call
}

// PlanKind classifies the shape of an ExecutionPlan for callers that
// want to branch on the coarse execution strategy rather than walk
// Steps themselves.
type PlanKind string

const (
	PlanSingle     PlanKind = "single"
	PlanSequential PlanKind = "sequential"
	PlanParallel   PlanKind = "parallel"
	PlanMixed      PlanKind = "mixed"
)

// ExecutionPlan is always, structurally, an ordered list of steps run
// one after another (each step internally either one call or a
// concurrent set). Kind is a derived classification: Single (one step,
// one call), Sequential (multiple steps, each a single call), Parallel
// (one step, multiple calls), or Mixed (multiple steps where at least
// one has more than one call).
type ExecutionPlan struct {
	Kind  PlanKind
	Steps []Step
}

func classify(steps []Step) PlanKind {
	if len(steps) == 1 {
		if len(steps[0].Calls) <= 1 {
			return PlanSingle
		}
		return PlanParallel
	}
	for _, s := range steps {
		if len(s.Calls) > 1 {
			return PlanMixed
		}
	}
	return PlanSequential
}

// ParsedInvocation is the immutable result of parsing one invocation
// line.
type ParsedInvocation struct {
	ID            string
	OriginalInput string
	ExecutionPlan ExecutionPlan
	Context       string
	ModeOverride  agentcfg.Mode
}
