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

// Package orchestrator is the agent manager and orchestrator (C8): it
// spawns subagents by name, runs them single/sequentially/in
// parallel/mixed, and tracks their status, stats, and a message bus.
package orchestrator

import "time"

// AgentContext is the per-invocation context threaded into a spawned
// agent: its working directory, any prior output from an earlier step
// in its chain, free-form text carried from the invocation, and a
// handle onto the shared AST-tools facade (left untyped here — C1-C4
// are wired in by the caller that constructs the Executor).
type AgentContext struct {
	WorkingDir  string
	PriorOutput string
	FreeText    string
	Tools       any
}

// StatusKind enumerates an agent run's lifecycle states.
type StatusKind int

const (
	StatusPending StatusKind = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status is an agent run's current state; Msg carries the failure
// reason when Kind is StatusFailed.
type Status struct {
	Kind StatusKind
	Msg  string
}

// AgentStats is the running tally and average duration for every agent
// spawned under one name.
type AgentStats struct {
	TotalSpawned  int
	Succeeded     int
	Failed        int
	Cancelled     int
	AvgDurationMs float64
}

func (s *AgentStats) recordDuration(d time.Duration) {
	n := float64(s.Succeeded + s.Failed)
	if n <= 1 {
		s.AvgDurationMs = float64(d.Milliseconds())
		return
	}
	s.AvgDurationMs = s.AvgDurationMs + (float64(d.Milliseconds())-s.AvgDurationMs)/n
}

// ActiveEntry is one row of Manager.ListActive's result.
type ActiveEntry struct {
	ID     string
	Name   string
	Status Status
}

// ChainResult is the outcome of running one invocation chain
// (sequence) to completion or failure.
type ChainResult struct {
	Outputs []string
	Err     error
}

// StepResult is the outcome of running one step of a Mixed execution
// plan: a single output for a singleton step, or one output per call
// for a parallel step run concurrently against the same input.
type StepResult struct {
	Outputs []string
	Err     error
}
