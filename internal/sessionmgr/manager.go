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

package sessionmgr

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/codeweave/internal/clock"
	"github.com/teradata-labs/codeweave/internal/csync"
	"github.com/teradata-labs/codeweave/internal/log"
	"github.com/teradata-labs/codeweave/internal/sessionstore"
)

// Config configures a Manager.
type Config struct {
	Store *sessionstore.Store
	Clock clock.Clock // nil defaults to clock.Real

	// AutoSaveInterval is how often StartAutoSave flushes dirty active
	// sessions. Zero disables the recurring tick (StartAutoSave becomes
	// a no-op); callers can still Save explicitly.
	AutoSaveInterval time.Duration

	// CheckpointCap bounds how many checkpoints CreateCheckpoint keeps
	// per session; 0 disables eviction (unbounded, per SPEC_FULL's
	// decision on the spec's open question).
	CheckpointCap int

	Cleanup CleanupPolicy

	Logger *zap.Logger
}

// Manager is the session manager (C10).
type Manager struct {
	store         *sessionstore.Store
	clock         clock.Clock
	autoSaveEvery time.Duration
	checkpointCap int
	cleanup       CleanupPolicy
	log           *zap.Logger

	active *csync.Map[string, *activeSession]

	ticker clock.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Manager over store.
func New(cfg Config) *Manager {
	c := cfg.Clock
	if c == nil {
		c = clock.Real
	}
	return &Manager{
		store:         cfg.Store,
		clock:         c,
		autoSaveEvery: cfg.AutoSaveInterval,
		checkpointCap: cfg.CheckpointCap,
		cleanup:       cfg.Cleanup,
		log:           log.OrNop(cfg.Logger).Named("sessionmgr"),
		active:        csync.NewMap[string, *activeSession](),
	}
}

// CreateSession starts a new session titled title, saves it immediately
// so it is durable even if the process exits before the first mutation,
// and holds it active.
func (m *Manager) CreateSession(title string) (sessionstore.Metadata, error) {
	now := m.clock.Now()
	id := uuid.NewString()
	meta := sessionstore.Metadata{
		ID:             id,
		Title:          title,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		Mode:           sessionstore.ModePlan,
	}
	conv := sessionstore.Conversation{SessionID: id}
	state := sessionstore.State{}

	if err := m.store.SaveSession(id, meta, conv, state); err != nil {
		return sessionstore.Metadata{}, err
	}

	m.active.Set(id, &activeSession{metadata: meta, conversation: conv, state: state})
	return meta, nil
}

// LoadSession returns id's conversation and state, serving from the
// active-session map when already held, otherwise loading from the
// store and bumping LastAccessedAt.
func (m *Manager) LoadSession(id string) (sessionstore.Metadata, sessionstore.Conversation, sessionstore.State, error) {
	if as, ok := m.active.Get(id); ok {
		as.mu.Lock()
		defer as.mu.Unlock()
		return as.metadata, as.conversation, as.state, nil
	}

	meta, conv, state, err := m.store.LoadSession(id)
	if err != nil {
		return sessionstore.Metadata{}, sessionstore.Conversation{}, sessionstore.State{}, err
	}

	meta.LastAccessedAt = m.clock.Now()
	if err := m.store.TouchAccessed(id, meta.LastAccessedAt); err != nil {
		return sessionstore.Metadata{}, sessionstore.Conversation{}, sessionstore.State{}, err
	}

	m.active.Set(id, &activeSession{metadata: meta, conversation: conv, state: state})
	return meta, conv, state, nil
}

// Mutate replaces id's in-memory conversation and state and marks it
// dirty for the next Save/auto-save tick. id must already be active
// (via CreateSession or LoadSession).
func (m *Manager) Mutate(id string, conv sessionstore.Conversation, state sessionstore.State) error {
	as, ok := m.active.Get(id)
	if !ok {
		return &NotActiveError{ID: id}
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	as.conversation = conv
	as.state = state
	as.metadata.UpdatedAt = m.clock.Now()
	as.metadata.MessageCount = len(conv.Messages)
	as.dirty = true
	return nil
}

// Snapshot returns id's current in-memory conversation and state
// without touching the store.
func (m *Manager) Snapshot(id string) (sessionstore.Conversation, sessionstore.State, error) {
	as, ok := m.active.Get(id)
	if !ok {
		return sessionstore.Conversation{}, sessionstore.State{}, &NotActiveError{ID: id}
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.conversation, as.state, nil
}

// Save flushes id's in-memory session to the store if dirty.
func (m *Manager) Save(id string) error {
	as, ok := m.active.Get(id)
	if !ok {
		return &NotActiveError{ID: id}
	}

	as.mu.Lock()
	if !as.dirty {
		as.mu.Unlock()
		return nil
	}
	meta, conv, state := as.metadata, as.conversation, as.state
	as.dirty = false
	as.mu.Unlock()

	return m.store.SaveSession(id, meta, conv, state)
}

// Delete removes id from the active-session map and deletes it from
// the store.
func (m *Manager) Delete(id string) error {
	m.active.Delete(id)
	return m.store.DeleteSession(id)
}

// CreateCheckpoint snapshots id's current in-memory conversation/state
// under a fresh checkpoint id, evicting the oldest checkpoint first
// (FIFO) if the manager's CheckpointCap would otherwise be exceeded.
func (m *Manager) CreateCheckpoint(id, name, description string) (string, error) {
	as, ok := m.active.Get(id)
	if !ok {
		return "", &NotActiveError{ID: id}
	}

	as.mu.Lock()
	conv, state := as.conversation, as.state
	existing := append([]sessionstore.CheckpointMeta(nil), as.metadata.Checkpoints...)
	as.mu.Unlock()

	if m.checkpointCap > 0 && len(existing) >= m.checkpointCap {
		oldest := existing[0]
		if err := m.store.DeleteCheckpoint(id, oldest.ID); err != nil {
			return "", err
		}
	}

	ckptID := uuid.NewString()
	if err := m.store.CreateCheckpoint(id, ckptID, name, description, conv, state); err != nil {
		return "", err
	}

	meta, _, _, err := m.store.LoadSession(id)
	if err != nil {
		return "", err
	}
	as.mu.Lock()
	as.metadata = meta
	as.mu.Unlock()

	return ckptID, nil
}

// LoadCheckpoint returns a checkpoint's conversation and state without
// making it the active session.
func (m *Manager) LoadCheckpoint(id, checkpointID string) (sessionstore.Conversation, sessionstore.State, error) {
	return m.store.LoadCheckpoint(id, checkpointID)
}

// ListSessions and Search delegate directly to the store; both read
// denormalised metadata only, never the active-session map.
func (m *Manager) ListSessions() []sessionstore.Metadata { return m.store.ListSessions() }
func (m *Manager) Search(query string) []sessionstore.Metadata { return m.store.Search(query) }

// Cleanup applies the manager's configured CleanupPolicy.
func (m *Manager) Cleanup() error {
	return m.store.Cleanup(m.cleanup.MaxAgeDays, m.cleanup.MaxCount)
}

// collectDirty gathers a point-in-time snapshot of every dirty active
// session, clearing each one's dirty flag as it is collected. Disk I/O
// happens only after this returns, with no session lock held (spec §9).
func (m *Manager) collectDirty() []dirtySnapshot {
	var out []dirtySnapshot
	m.active.Seq(func(id string, as *activeSession) bool {
		as.mu.Lock()
		if as.dirty {
			out = append(out, dirtySnapshot{id: id, metadata: as.metadata, conversation: as.conversation, state: as.state})
			as.dirty = false
		}
		as.mu.Unlock()
		return true
	})
	return out
}

// flushDirty writes every currently-dirty active session to the store,
// re-marking a session dirty if its own save fails so the next tick
// retries it.
func (m *Manager) flushDirty() {
	for _, snap := range m.collectDirty() {
		if err := m.store.SaveSession(snap.id, snap.metadata, snap.conversation, snap.state); err != nil {
			m.log.Error("auto-save failed", zap.String("session_id", snap.id), zap.Error(err))
			if as, ok := m.active.Get(snap.id); ok {
				as.mu.Lock()
				as.dirty = true
				as.mu.Unlock()
			}
		}
	}
}

// StartAutoSave launches the recurring auto-save tick in its own
// goroutine; it returns immediately. A zero AutoSaveInterval makes this
// a no-op. Stop it with Shutdown.
func (m *Manager) StartAutoSave(ctx context.Context) {
	if m.autoSaveEvery <= 0 {
		return
	}
	m.ticker = m.clock.NewTicker(m.autoSaveEvery)
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go func() {
		defer close(m.doneCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-m.ticker.C():
				m.flushDirty()
			}
		}
	}()
}

// Shutdown stops the auto-save tick (if running) and flushes every
// dirty active session synchronously.
func (m *Manager) Shutdown() {
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stopCh)
		<-m.doneCh
	}
	m.flushDirty()
}
