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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/codeweave/internal/clock"
	"github.com/teradata-labs/codeweave/internal/sessionstore"
)

func newTestManager(t *testing.T) (*Manager, *sessionstore.Store) {
	t.Helper()
	store, err := sessionstore.NewStore(sessionstore.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return New(Config{Store: store, CheckpointCap: 2}), store
}

func withMessage(conv sessionstore.Conversation, text string) sessionstore.Conversation {
	conv.Messages = append(conv.Messages, sessionstore.MessageSnapshot{
		Index: len(conv.Messages),
		Item:  json.RawMessage(`"` + text + `"`),
	})
	return conv
}

func TestManager_CreateLoadMutateSave(t *testing.T) {
	mgr, store := newTestManager(t)

	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	conv, state, err := mgr.Snapshot(meta.ID)
	require.NoError(t, err)
	conv = withMessage(conv, "hi")
	require.NoError(t, mgr.Mutate(meta.ID, conv, state))

	require.NoError(t, mgr.Save(meta.ID))

	_, gotConv, _, err := store.LoadSession(meta.ID)
	require.NoError(t, err)
	require.Len(t, gotConv.Messages, 1)
}

func TestManager_LoadBumpsLastAccessed(t *testing.T) {
	mgr, store := newTestManager(t)
	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	// Evict from the active map to force a store reload.
	mgr.active.Delete(meta.ID)

	before, _, _, err := store.LoadSession(meta.ID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	gotMeta, _, _, err := mgr.LoadSession(meta.ID)
	require.NoError(t, err)
	assert.True(t, gotMeta.LastAccessedAt.After(before.LastAccessedAt) || gotMeta.LastAccessedAt.Equal(before.LastAccessedAt))
}

func TestManager_AutoSaveFlushesDirtySessions(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	store, err := sessionstore.NewStore(sessionstore.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	mgr := New(Config{Store: store, Clock: fake, AutoSaveInterval: 10 * time.Millisecond})

	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	conv, state, err := mgr.Snapshot(meta.ID)
	require.NoError(t, err)
	require.NoError(t, mgr.Mutate(meta.ID, withMessage(conv, "auto"), state))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.StartAutoSave(ctx)
	fake.Advance(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		_, conv, _, err := store.LoadSession(meta.ID)
		return err == nil && len(conv.Messages) == 1
	}, time.Second, time.Millisecond)

	mgr.Shutdown()
}

func TestManager_ShutdownFlushesDirtySessions(t *testing.T) {
	mgr, store := newTestManager(t)
	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	conv, state, err := mgr.Snapshot(meta.ID)
	require.NoError(t, err)
	require.NoError(t, mgr.Mutate(meta.ID, withMessage(conv, "bye"), state))

	mgr.Shutdown()

	_, gotConv, _, err := store.LoadSession(meta.ID)
	require.NoError(t, err)
	require.Len(t, gotConv.Messages, 1)
}

func TestManager_CheckpointCapEvictsOldestFIFO(t *testing.T) {
	mgr, _ := newTestManager(t) // CheckpointCap: 2
	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	first, err := mgr.CreateCheckpoint(meta.ID, "c1", "")
	require.NoError(t, err)
	_, err = mgr.CreateCheckpoint(meta.ID, "c2", "")
	require.NoError(t, err)
	_, err = mgr.CreateCheckpoint(meta.ID, "c3", "")
	require.NoError(t, err)

	_, _, err = mgr.LoadCheckpoint(meta.ID, first)
	var notFound *sessionstore.CheckpointNotFoundError
	require.ErrorAs(t, err, &notFound)

	gotMeta, _, _, err := mgr.LoadSession(meta.ID)
	require.NoError(t, err)
	assert.Len(t, gotMeta.Checkpoints, 2)
}

func TestManager_DeleteRemovesFromActiveAndStore(t *testing.T) {
	mgr, store := newTestManager(t)
	meta, err := mgr.CreateSession("Demo")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(meta.ID))

	_, _, _, err = store.LoadSession(meta.ID)
	var notFound *sessionstore.SessionNotFoundError
	require.ErrorAs(t, err, &notFound)

	err = mgr.Save(meta.ID)
	var notActive *NotActiveError
	require.ErrorAs(t, err, &notActive)
}
