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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teradata-labs/codeweave/internal/agentcfg"
	"github.com/teradata-labs/codeweave/internal/invocation"
	"github.com/teradata-labs/codeweave/internal/log"
)

// Executor actually runs one agent: given its resolved configuration
// and invocation context, it returns the agent's textual output. The
// model/LLM client itself is out of scope here (non-goal); callers
// supply an Executor that wraps whatever client they use.
type Executor interface {
	Execute(ctx context.Context, cfg *agentcfg.Config, actx AgentContext) (string, error)
}

type handle struct {
	mu sync.Mutex

	id     string
	name   string
	status Status

	startedAt  time.Time
	finishedAt time.Time

	result string
	err    error
	done   chan struct{}

	cancel context.CancelFunc
}

func (h *handle) snapshot() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Registry is the subset of agentcfg.Registry the Manager depends on.
type Registry interface {
	GetAgent(name string) (*agentcfg.Config, error)
}

// Config configures a Manager.
type Config struct {
	Registry Registry
	Executor Executor
	Logger   *zap.Logger

	// HistoryCap bounds the message bus's retained global history.
	// 0 uses a reasonable default (256).
	HistoryCap int
}

// Manager is the agent manager and orchestrator (C8): it owns the
// registry (read-only), spawns agents by name, and tracks their
// status, running stats, and a shared message bus.
type Manager struct {
	registry       Registry
	executor       Executor
	log            *zap.Logger
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	metrics        *metrics

	bus *Bus

	mu      sync.Mutex
	handles map[string]*handle
	stats   map[string]*AgentStats

	cancelAll atomic.Bool
}

// NewManager constructs a Manager. It owns a private OTel TracerProvider
// (no exporter wired by default) so agent-run spans exist even when the
// host process never calls otel.SetTracerProvider; callers that do run a
// real collector can pull spans via Manager.TracerProvider and register
// their own span processor/exporter on it.
func NewManager(cfg Config) *Manager {
	historyCap := cfg.HistoryCap
	if historyCap <= 0 {
		historyCap = 256
	}
	tp := sdktrace.NewTracerProvider()
	return &Manager{
		registry:       cfg.Registry,
		executor:       cfg.Executor,
		log:            log.OrNop(cfg.Logger).Named("orchestrator"),
		tracerProvider: tp,
		tracer:         tp.Tracer("github.com/teradata-labs/codeweave/internal/orchestrator"),
		metrics:        newMetrics(),
		bus:            NewBus(historyCap),
		handles:        make(map[string]*handle),
		stats:          make(map[string]*AgentStats),
	}
}

// Bus returns the manager's message bus.
func (m *Manager) Bus() *Bus { return m.bus }

// TracerProvider exposes the Manager's private OTel TracerProvider so
// callers can attach their own span processor/exporter.
func (m *Manager) TracerProvider() *sdktrace.TracerProvider {
	return m.tracerProvider
}

// Shutdown releases the Manager's OTel providers. Safe to call once the
// Manager is no longer in use; it does not affect in-flight agent runs.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return m.metrics.meterProvider.Shutdown(ctx)
}

func (m *Manager) statsFor(name string) *AgentStats {
	s, ok := m.stats[name]
	if !ok {
		s = &AgentStats{}
		m.stats[name] = s
	}
	return s
}

// Spawn looks up name, allocates a fresh run id in Pending status, and
// schedules its execution. It returns immediately with the id.
func (m *Manager) Spawn(ctx context.Context, name string, actx AgentContext) (string, error) {
	cfg, err := m.registry.GetAgent(name)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:     id,
		name:   name,
		status: Status{Kind: StatusPending},
		done:   make(chan struct{}),
		cancel: cancel,
	}

	m.mu.Lock()
	m.handles[id] = h
	m.statsFor(name).TotalSpawned++
	m.mu.Unlock()

	m.bus.EnsureMailbox(name)
	m.metrics.spawned.WithLabelValues(name).Inc()

	go m.run(runCtx, h, cfg, actx)

	return id, nil
}

func (m *Manager) run(ctx context.Context, h *handle, cfg *agentcfg.Config, actx AgentContext) {
	defer close(h.done)

	h.mu.Lock()
	h.status = Status{Kind: StatusRunning}
	h.startedAt = time.Now()
	h.mu.Unlock()

	m.bus.Send(Message{
		From: h.name, To: ToBroadcast(), Kind: MessageInfo, Priority: PriorityNormal,
		Payload: fmt.Sprintf("%s started", h.name),
	})

	ctx, span := m.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("agent.name", h.name),
		attribute.String("agent.run_id", h.id),
	))
	defer span.End()

	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout())
	defer cancelTimeout()

	output, err := m.invoke(ctx, cfg, actx)

	duration := time.Since(h.startedAt)

	// Cancel already recorded the Cancelled status/stat synchronously;
	// don't double-count it once the goroutine observes ctx.Done().
	if h.snapshot().Kind != StatusCancelled {
		m.mu.Lock()
		stats := m.statsFor(h.name)
		switch {
		case ctx.Err() == context.Canceled:
			h.mu.Lock()
			h.status = Status{Kind: StatusCancelled}
			h.mu.Unlock()
			stats.Cancelled++
			m.metrics.cancelled.WithLabelValues(h.name).Inc()
			m.metrics.recordDuration(ctx, h.name, "cancelled", duration.Seconds())
		case ctx.Err() == context.DeadlineExceeded && err != nil:
			h.mu.Lock()
			h.status = Status{Kind: StatusFailed, Msg: fmt.Sprintf("%s timed out after %s", h.name, cfg.Timeout())}
			h.mu.Unlock()
			stats.Failed++
			stats.recordDuration(duration)
			m.metrics.failed.WithLabelValues(h.name).Inc()
			m.metrics.recordDuration(ctx, h.name, "timeout", duration.Seconds())
		case err != nil:
			h.mu.Lock()
			h.status = Status{Kind: StatusFailed, Msg: err.Error()}
			h.mu.Unlock()
			stats.Failed++
			stats.recordDuration(duration)
			m.metrics.failed.WithLabelValues(h.name).Inc()
			m.metrics.recordDuration(ctx, h.name, "failed", duration.Seconds())
		default:
			h.mu.Lock()
			h.status = Status{Kind: StatusSucceeded}
			h.mu.Unlock()
			stats.Succeeded++
			stats.recordDuration(duration)
			m.metrics.succeeded.WithLabelValues(h.name).Inc()
			m.metrics.recordDuration(ctx, h.name, "succeeded", duration.Seconds())
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	h.result = output
	h.err = err
	h.finishedAt = time.Now()
	h.mu.Unlock()

	outcome := h.snapshot()
	m.bus.Send(Message{
		From: h.name, To: ToBroadcast(), Kind: MessageResult, Priority: PriorityNormal,
		Payload: fmt.Sprintf("%s finished: %s", h.name, outcome.Kind),
	})
}

// ToolAccess is the gate an Executor calls before using a tool on an
// agent's behalf: it checks both the configuration's permission grant
// and the agent's operating mode (Plan/Review refuse anything beyond
// read access regardless of grants).
func ToolAccess(cfg *agentcfg.Config, tool string, perm agentcfg.ToolPermission) error {
	granted, ok := cfg.Tools[tool]
	if !ok || !permissionAllows(granted, perm) {
		return &ToolPermissionDeniedError{Tool: tool, Agent: cfg.Name}
	}
	if perm != agentcfg.PermissionRead &&
		(cfg.ModeOverride == agentcfg.ModePlan || cfg.ModeOverride == agentcfg.ModeReview) {
		return &ModeRestrictionError{Mode: string(cfg.ModeOverride), Op: tool}
	}
	return nil
}

// permissionAllows reports whether a granted level covers the needed
// one: execute implies write implies read.
func permissionAllows(granted, needed agentcfg.ToolPermission) bool {
	rank := func(p agentcfg.ToolPermission) int {
		switch p {
		case agentcfg.PermissionRead:
			return 1
		case agentcfg.PermissionWrite:
			return 2
		case agentcfg.PermissionExecute:
			return 3
		}
		return 0
	}
	return rank(granted) >= rank(needed)
}

// invoke calls the executor, translating a panic crossing the call
// boundary into a Failed outcome instead of crashing the manager.
func (m *Manager) invoke(ctx context.Context, cfg *agentcfg.Config, actx AgentContext) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()
	return m.executor.Execute(ctx, cfg, actx)
}

// Await blocks until run id completes (or ctx is done) and returns its
// output.
func (m *Manager) Await(ctx context.Context, id string) (string, error) {
	h, err := m.lookup(id)
	if err != nil {
		return "", err
	}

	select {
	case <-h.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status.Kind == StatusCancelled {
		return h.result, ErrCancelled
	}
	return h.result, h.err
}

// Status returns run id's current status.
func (m *Manager) Status(id string) (Status, error) {
	h, err := m.lookup(id)
	if err != nil {
		return Status{}, err
	}
	return h.snapshot(), nil
}

// ListActive returns every run the manager still has a handle for.
func (m *Manager) ListActive() []ActiveEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ActiveEntry, 0, len(m.handles))
	for id, h := range m.handles {
		out = append(out, ActiveEntry{ID: id, Name: h.name, Status: h.snapshot()})
	}
	return out
}

// Stats returns the running stats for name, or every name's stats when
// name is empty.
func (m *Manager) Stats(name string) map[string]AgentStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]AgentStats)
	if name != "" {
		if s, ok := m.stats[name]; ok {
			out[name] = *s
		}
		return out
	}
	for n, s := range m.stats {
		out[n] = *s
	}
	return out
}

// Cancel requests cancellation of run id: its context is cancelled and
// its status is marked Cancelled immediately. The agent itself is
// expected to observe ctx.Done() at its own checkpoints.
func (m *Manager) Cancel(id string) error {
	h, err := m.lookup(id)
	if err != nil {
		return err
	}
	h.cancel()

	h.mu.Lock()
	wasLive := h.status.Kind == StatusPending || h.status.Kind == StatusRunning
	if wasLive {
		h.status = Status{Kind: StatusCancelled}
	}
	h.mu.Unlock()

	// A run that already reached a terminal state keeps its outcome;
	// only a live run counts as a cancellation.
	if wasLive {
		m.mu.Lock()
		m.statsFor(h.name).Cancelled++
		m.mu.Unlock()
		m.metrics.cancelled.WithLabelValues(h.name).Inc()
	}

	return nil
}

// CancelAll sets the process-wide cancellation flag and cancels every
// tracked run.
func (m *Manager) CancelAll() {
	m.cancelAll.Store(true)

	m.mu.Lock()
	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Cancel(id)
	}
}

func (m *Manager) lookup(id string) (*handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[id]
	if !ok {
		return nil, &ExecutionError{Kind: KindHandleNotFound, ID: id}
	}
	return h, nil
}

// RunSingle spawns name and awaits its completion.
func (m *Manager) RunSingle(ctx context.Context, name string, actx AgentContext) (string, error) {
	id, err := m.Spawn(ctx, name, actx)
	if err != nil {
		return "", err
	}
	return m.Await(ctx, id)
}

// runSequentialCalls spawns each call in sequence, feeding each
// result into the next call's context, stopping at the first failure.
func (m *Manager) runSequentialCalls(ctx context.Context, calls []invocation.Call, actx AgentContext) ChainResult {
	var outputs []string
	current := actx

	for _, call := range calls {
		if m.cancelAll.Load() {
			return ChainResult{Outputs: outputs, Err: ErrCancelled}
		}

		id, err := m.Spawn(ctx, call.Name, current)
		if err != nil {
			return ChainResult{Outputs: outputs, Err: err}
		}
		out, err := m.Await(ctx, id)
		if err != nil {
			return ChainResult{Outputs: outputs, Err: err}
		}
		outputs = append(outputs, out)
		current.PriorOutput = out
	}

	return ChainResult{Outputs: outputs}
}

// RunSequential runs calls one after another, feeding each result
// forward, to completion or first failure.
func (m *Manager) RunSequential(ctx context.Context, calls []invocation.Call, actx AgentContext) ChainResult {
	return m.runSequentialCalls(ctx, calls, actx)
}

// RunParallel runs every call concurrently against the same actx, each
// tracked independently. A failure in one does not stop the others
// unless CancelAll was called.
func (m *Manager) RunParallel(ctx context.Context, calls []invocation.Call, actx AgentContext) []ChainResult {
	results := make([]ChainResult, len(calls))

	var eg errgroup.Group
	for i, call := range calls {
		i, call := i, call
		eg.Go(func() error {
			results[i] = m.runSequentialCalls(ctx, []invocation.Call{call}, actx)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// runStep runs one plan step: a singleton step spawns and awaits its
// one call; a parallel step spawns every call concurrently against
// the same actx and awaits them all, a failure in one call not
// stopping its siblings within the step.
func (m *Manager) runStep(ctx context.Context, step invocation.Step, actx AgentContext) StepResult {
	if len(step.Calls) == 1 {
		cr := m.runSequentialCalls(ctx, step.Calls, actx)
		return StepResult{Outputs: cr.Outputs, Err: cr.Err}
	}

	outputs := make([]string, len(step.Calls))
	errs := make([]error, len(step.Calls))

	var eg errgroup.Group
	for i, call := range step.Calls {
		i, call := i, call
		eg.Go(func() error {
			if m.cancelAll.Load() {
				errs[i] = ErrCancelled
				return nil
			}
			id, err := m.Spawn(ctx, call.Name, actx)
			if err != nil {
				errs[i] = err
				return nil
			}
			out, err := m.Await(ctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	_ = eg.Wait()

	for _, err := range errs {
		if err != nil {
			return StepResult{Outputs: outputs, Err: err}
		}
	}
	return StepResult{Outputs: outputs}
}

// RunMixed folds left over plan's steps (spec.md §4.8): each step is
// spawned and awaited to completion before the next one starts, and
// its combined output feeds into the next step's PriorOutput. Only
// the calls within a single parallel step fan out concurrently; the
// fold itself always stops at the first step that fails.
func (m *Manager) RunMixed(ctx context.Context, plan invocation.ExecutionPlan, actx AgentContext) []StepResult {
	results := make([]StepResult, 0, len(plan.Steps))
	current := actx

	for _, step := range plan.Steps {
		if m.cancelAll.Load() {
			results = append(results, StepResult{Err: ErrCancelled})
			break
		}

		res := m.runStep(ctx, step, current)
		results = append(results, res)
		if res.Err != nil {
			break
		}
		current.PriorOutput = strings.Join(res.Outputs, "\n")
	}

	return results
}
