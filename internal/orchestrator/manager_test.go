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
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/codeweave/internal/agentcfg"
	"github.com/teradata-labs/codeweave/internal/invocation"
)

type fakeRegistry struct {
	agents map[string]*agentcfg.Config
}

func newFakeRegistry(names ...string) *fakeRegistry {
	agents := make(map[string]*agentcfg.Config, len(names))
	for _, n := range names {
		agents[n] = &agentcfg.Config{Name: n}
	}
	return &fakeRegistry{agents: agents}
}

func (f *fakeRegistry) GetAgent(name string) (*agentcfg.Config, error) {
	if cfg, ok := f.agents[name]; ok {
		return cfg, nil
	}
	return nil, &agentcfg.AgentNotFoundError{Name: name}
}

type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	fn    func(cfg *agentcfg.Config, actx AgentContext) (string, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, cfg *agentcfg.Config, actx AgentContext) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg.Name)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(cfg, actx)
	}
	return "ok:" + cfg.Name, nil
}

func TestManagerSpawnAndAwaitSuccess(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewManager(Config{Registry: newFakeRegistry("scout"), Executor: exec})

	id, err := m.Spawn(context.Background(), "scout", AgentContext{})
	require.NoError(t, err)

	out, err := m.Await(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ok:scout", out)

	status, err := m.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status.Kind)

	stats := m.Stats("scout")
	assert.Equal(t, 1, stats["scout"].TotalSpawned)
	assert.Equal(t, 1, stats["scout"].Succeeded)
}

func TestManagerSpawnUnknownAgentFails(t *testing.T) {
	m := NewManager(Config{Registry: newFakeRegistry(), Executor: &fakeExecutor{}})
	_, err := m.Spawn(context.Background(), "ghost", AgentContext{})
	require.Error(t, err)
	var notFound *agentcfg.AgentNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestManagerExecutorFailureBecomesFailedStatus(t *testing.T) {
	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		return "", fmt.Errorf("boom")
	}}
	m := NewManager(Config{Registry: newFakeRegistry("scout"), Executor: exec})

	id, err := m.Spawn(context.Background(), "scout", AgentContext{})
	require.NoError(t, err)

	_, err = m.Await(context.Background(), id)
	require.Error(t, err)

	status, err := m.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status.Kind)
	assert.Contains(t, status.Msg, "boom")

	stats := m.Stats("scout")
	assert.Equal(t, 1, stats["scout"].Failed)
}

func TestManagerExecutorPanicBecomesFailedStatusNotCrash(t *testing.T) {
	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		panic("unexpected")
	}}
	m := NewManager(Config{Registry: newFakeRegistry("scout"), Executor: exec})

	id, err := m.Spawn(context.Background(), "scout", AgentContext{})
	require.NoError(t, err)

	_, err = m.Await(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestManagerRunSequentialFeedsResultForward(t *testing.T) {
	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		return cfg.Name + "(" + actx.PriorOutput + ")", nil
	}}
	m := NewManager(Config{Registry: newFakeRegistry("scout", "reviewer"), Executor: exec})

	calls := []invocation.Call{{Name: "scout"}, {Name: "reviewer"}}
	result := m.RunSequential(context.Background(), calls, AgentContext{})
	require.NoError(t, result.Err)
	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "scout()", result.Outputs[0])
	assert.Equal(t, "reviewer(scout())", result.Outputs[1])
}

func TestManagerRunParallelDoesNotCancelSiblingsOnFailure(t *testing.T) {
	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		if cfg.Name == "flaky" {
			return "", fmt.Errorf("flaky failed")
		}
		return "ok:" + cfg.Name, nil
	}}
	m := NewManager(Config{Registry: newFakeRegistry("flaky", "steady"), Executor: exec})

	results := m.RunParallel(context.Background(), []invocation.Call{{Name: "flaky"}, {Name: "steady"}}, AgentContext{})
	require.Len(t, results, 2)

	var sawFailure, sawSuccess bool
	for _, r := range results {
		if r.Err != nil {
			sawFailure = true
		} else {
			sawSuccess = true
		}
	}
	assert.True(t, sawFailure)
	assert.True(t, sawSuccess)
}

// TestManagerRunMixedAwaitsStepsInOrder is spec.md §8 scenario 3's
// literal fixture run end to end: the first step must finish before
// the parallel step's calls are spawned at all.
func TestManagerRunMixedAwaitsStepsInOrder(t *testing.T) {
	reviewStarted := make(chan struct{})
	releaseReview := make(chan struct{})

	var mu sync.Mutex
	var started []string

	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		mu.Lock()
		started = append(started, cfg.Name)
		mu.Unlock()

		if cfg.Name == "code-reviewer" {
			close(reviewStarted)
			<-releaseReview
		}
		return "ok:" + cfg.Name, nil
	}}
	m := NewManager(Config{
		Registry: newFakeRegistry("code-reviewer", "refactorer", "test-writer"),
		Executor: exec,
	})

	plan := invocation.ExecutionPlan{
		Kind: invocation.PlanMixed,
		Steps: []invocation.Step{
			{Calls: []invocation.Call{{Name: "code-reviewer"}}},
			{Calls: []invocation.Call{{Name: "refactorer"}, {Name: "test-writer"}}},
		},
	}

	done := make(chan []StepResult, 1)
	go func() { done <- m.RunMixed(context.Background(), plan, AgentContext{}) }()

	<-reviewStarted
	mu.Lock()
	assert.Equal(t, []string{"code-reviewer"}, started, "refactorer/test-writer must not start before code-reviewer finishes")
	mu.Unlock()

	close(releaseReview)
	results := <-done

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Len(t, results[1].Outputs, 2)
	assert.ElementsMatch(t, []string{"code-reviewer", "refactorer", "test-writer"}, started)
}

func TestManagerCancelMarksStatusCancelled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &fakeExecutor{fn: func(cfg *agentcfg.Config, actx AgentContext) (string, error) {
		close(started)
		<-release
		return "done", nil
	}}
	m := NewManager(Config{Registry: newFakeRegistry("scout"), Executor: exec})

	id, err := m.Spawn(context.Background(), "scout", AgentContext{})
	require.NoError(t, err)

	<-started
	require.NoError(t, m.Cancel(id))

	status, err := m.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status.Kind)

	close(release)
	time.Sleep(10 * time.Millisecond)

	stats := m.Stats("scout")
	assert.Equal(t, 1, stats["scout"].Cancelled)
	assert.Equal(t, 0, stats["scout"].Succeeded)
}

func TestManagerMessageBusBroadcastReachesAllMailboxes(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewManager(Config{Registry: newFakeRegistry("scout", "reviewer"), Executor: exec})

	id1, err := m.Spawn(context.Background(), "scout", AgentContext{})
	require.NoError(t, err)
	_, err = m.Await(context.Background(), id1)
	require.NoError(t, err)

	id2, err := m.Spawn(context.Background(), "reviewer", AgentContext{})
	require.NoError(t, err)
	_, err = m.Await(context.Background(), id2)
	require.NoError(t, err)

	inbox := m.Bus().Inbox("reviewer", 0)
	assert.NotEmpty(t, inbox)
}

func TestToolAccessPermissionAndModeGates(t *testing.T) {
	cfg := &agentcfg.Config{
		Name:  "scout",
		Tools: map[string]agentcfg.ToolPermission{"grep": agentcfg.PermissionRead, "edit": agentcfg.PermissionWrite},
	}

	require.NoError(t, ToolAccess(cfg, "grep", agentcfg.PermissionRead))
	require.NoError(t, ToolAccess(cfg, "edit", agentcfg.PermissionWrite))
	require.NoError(t, ToolAccess(cfg, "edit", agentcfg.PermissionRead), "write grant covers read access")

	var denied *ToolPermissionDeniedError
	err := ToolAccess(cfg, "shell", agentcfg.PermissionExecute)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "shell", denied.Tool)

	err = ToolAccess(cfg, "grep", agentcfg.PermissionWrite)
	require.ErrorAs(t, err, &denied, "read grant does not cover write access")

	cfg.ModeOverride = agentcfg.ModeReview
	var restricted *ModeRestrictionError
	err = ToolAccess(cfg, "edit", agentcfg.PermissionWrite)
	require.ErrorAs(t, err, &restricted, "review mode refuses writes even when granted")
	require.NoError(t, ToolAccess(cfg, "edit", agentcfg.PermissionRead))
}

func TestManagerStatusUnknownIDIsExecutionError(t *testing.T) {
	m := NewManager(Config{Registry: newFakeRegistry(), Executor: &fakeExecutor{}})
	_, err := m.Status("does-not-exist")
	require.Error(t, err)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindHandleNotFound, execErr.Kind)
}
