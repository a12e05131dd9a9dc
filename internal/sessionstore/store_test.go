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

package sessionstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func sampleConversation(id string) Conversation {
	return Conversation{
		SessionID: id,
		Messages: []MessageSnapshot{
			{Index: 0, Timestamp: time.Unix(1000, 0), Item: json.RawMessage(`{"role":"user","text":"hi"}`)},
			{Index: 1, Timestamp: time.Unix(1001, 0), Item: json.RawMessage(`{"role":"assistant","text":"hello"}`)},
		},
		Context: WorkingContext{WorkingDir: "/repo"},
	}
}

func sampleState() State {
	return State{CursorPosition: 2, ActivePanel: "chat"}
}

// Session round-trip: load(save(C,S)) == (C,S) by value (spec §8).
func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	conv := sampleConversation("sess-1")
	state := sampleState()
	meta := Metadata{Title: "Demo", Mode: ModeBuild, ModelID: "claude"}

	require.NoError(t, s.SaveSession("sess-1", meta, conv, state))

	gotMeta, gotConv, gotState, err := s.LoadSession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Demo", gotMeta.Title)
	assert.Equal(t, ModeBuild, gotMeta.Mode)
	assert.Equal(t, conv.Messages, gotConv.Messages)
	assert.Equal(t, state, gotState)
	assert.Greater(t, gotMeta.FileSizeBytes, int64(0))
}

func TestStore_LoadMissingSession(t *testing.T) {
	s := newTestStore(t)
	_, _, _, err := s.LoadSession("nope")
	var notFound *SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// Index consistency: after a successful save/delete, list_sessions()
// and the on-disk index agree in membership (spec §8).
func TestStore_IndexConsistencyAcrossSaveDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveSession("a", Metadata{Title: "A"}, sampleConversation("a"), State{}))
	require.NoError(t, s.SaveSession("b", Metadata{Title: "B"}, sampleConversation("b"), State{}))

	listed := s.ListSessions()
	require.Len(t, listed, 2)

	reopened, err := NewStore(Config{BaseDir: s.baseDir})
	require.NoError(t, err)
	assert.ElementsMatch(t, idsOf(listed), idsOf(reopened.ListSessions()))

	require.NoError(t, s.DeleteSession("a"))
	assert.Len(t, s.ListSessions(), 1)

	size, count := s.Aggregates()
	assert.Equal(t, 1, count)
	assert.Greater(t, size, int64(0))

	_, _, _, err = s.LoadSession("a")
	var notFound *SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func idsOf(metas []Metadata) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = m.ID
	}
	return out
}

// Corrupting sessions.idx must trigger a silent rebuild from the
// sessions directory on the next open (spec §7).
func TestStore_IndexRebuildAfterCorruption(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveSession("a", Metadata{Title: "A"}, sampleConversation("a"), State{}))
	require.NoError(t, os.WriteFile(filepath.Join(s.baseDir, "sessions.idx"), []byte("garbage"), 0o644))

	reopened, err := NewStore(Config{BaseDir: s.baseDir})
	require.NoError(t, err)
	listed := reopened.ListSessions()
	require.Len(t, listed, 1)
	assert.Equal(t, "a", listed[0].ID)
}

func TestStore_ListSessionsOrderedByLastAccessedDesc(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	require.NoError(t, s.SaveSession("old", Metadata{Title: "Old", LastAccessedAt: now.Add(-time.Hour)}, sampleConversation("old"), State{}))
	require.NoError(t, s.SaveSession("new", Metadata{Title: "New", LastAccessedAt: now}, sampleConversation("new"), State{}))

	listed := s.ListSessions()
	require.Len(t, listed, 2)
	assert.Equal(t, "new", listed[0].ID)
	assert.Equal(t, "old", listed[1].ID)
}

func TestStore_SearchCaseInsensitiveTitleAndTags(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveSession("a", Metadata{Title: "Refactor Auth"}, sampleConversation("a"), State{}))
	require.NoError(t, s.SaveSession("b", Metadata{Title: "Unrelated", Tags: []string{"Billing"}}, sampleConversation("b"), State{}))

	assert.Len(t, s.Search("auth"), 1)
	assert.Len(t, s.Search("BILLING"), 1)
	assert.Empty(t, s.Search("nonexistent"))
}

func TestStore_CheckpointCreateLoad(t *testing.T) {
	s := newTestStore(t)
	conv := sampleConversation("sess-1")
	require.NoError(t, s.SaveSession("sess-1", Metadata{Title: "Demo"}, conv, sampleState()))

	require.NoError(t, s.CreateCheckpoint("sess-1", "ckpt-1", "before refactor", "snapshot", conv, sampleState()))

	gotConv, gotState, err := s.LoadCheckpoint("sess-1", "ckpt-1")
	require.NoError(t, err)
	assert.Equal(t, conv.Messages, gotConv.Messages)
	assert.Equal(t, sampleState(), gotState)

	meta, _, _, err := s.LoadSession("sess-1")
	require.NoError(t, err)
	require.Len(t, meta.Checkpoints, 1)
	assert.Equal(t, "ckpt-1", meta.Checkpoints[0].ID)
}

func TestStore_CheckpointNotFound(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveSession("sess-1", Metadata{Title: "Demo"}, sampleConversation("sess-1"), State{}))
	_, _, err := s.LoadCheckpoint("sess-1", "missing")
	var notFound *CheckpointNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// Boundary: a checkpoint request on a session with no active record
// fails with SessionNotFound (spec §8).
func TestStore_CreateCheckpointOnMissingSession(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateCheckpoint("nope", "c1", "", "", sampleConversation("nope"), State{})
	var notFound *SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_CleanupNeverDeletesFavourites(t *testing.T) {
	s := newTestStore(t)
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, s.SaveSession("fav", Metadata{Title: "Fav", Favourite: true, LastAccessedAt: old}, sampleConversation("fav"), State{}))
	require.NoError(t, s.SaveSession("stale", Metadata{Title: "Stale", LastAccessedAt: old}, sampleConversation("stale"), State{}))

	require.NoError(t, s.Cleanup(7, 0))

	listed := s.ListSessions()
	require.Len(t, listed, 1)
	assert.Equal(t, "fav", listed[0].ID)
}

func TestStore_CompressionRatioWithinUnitRange(t *testing.T) {
	s := newTestStore(t)
	conv := sampleConversation("sess-1")
	require.NoError(t, s.SaveSession("sess-1", Metadata{Title: "Demo"}, conv, State{}))
	meta, _, _, err := s.LoadSession("sess-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, meta.CompressionRatio, 0.0)
	assert.Less(t, meta.CompressionRatio, 1.0)
}

// Search result parity: with a SQLite secondary index configured,
// Search returns the same hits as the in-memory scan (spec §6's
// optional secondary backend).
func TestStore_SearchWithSQLiteSecondaryIndex(t *testing.T) {
	dir := t.TempDir()
	sqlIdx, err := NewSQLiteIndex(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	defer sqlIdx.Close()

	s, err := NewStore(Config{BaseDir: dir, Index: sqlIdx})
	require.NoError(t, err)

	require.NoError(t, s.SaveSession("a", Metadata{Title: "Refactor Auth"}, sampleConversation("a"), State{}))
	require.NoError(t, s.SaveSession("b", Metadata{Title: "Unrelated", Tags: []string{"Billing"}}, sampleConversation("b"), State{}))

	hits := s.Search("auth")
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.Empty(t, s.Search("nonexistent"))

	require.NoError(t, s.DeleteSession("a"))
	assert.Empty(t, s.Search("auth"))
}

func TestStore_TruncatedHeaderIsInvalidFormat(t *testing.T) {
	_, err := decodeContainer([]byte("short"))
	var invalid *InvalidFormatError
	require.ErrorAs(t, err, &invalid)
}

func TestStore_VersionMismatchIsIncompatible(t *testing.T) {
	data := Data{Metadata: Metadata{ID: "x"}}
	container, _, _, err := encodeContainer(data, zstd.SpeedDefault)
	require.NoError(t, err)
	container[4] = 99 // corrupt the version byte

	_, err = decodeContainer(container)
	var incompatible *IncompatibleVersionError
	require.ErrorAs(t, err, &incompatible)
}

// A version mismatch with a registered migration plan for that exact
// pair is migrated instead of rejected.
func TestStore_VersionMismatchMigratesWhenPlanExists(t *testing.T) {
	pair := [2]uint32{0, FormatVersion}
	migrations[pair] = func(d Data) (Data, error) {
		d.Metadata.Title = d.Metadata.Title + " (migrated)"
		return d, nil
	}
	defer delete(migrations, pair)

	container, _, _, err := encodeContainer(Data{Metadata: Metadata{ID: "x", Title: "Old"}}, zstd.SpeedDefault)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(container[4:8], 0)

	got, err := decodeContainer(container)
	require.NoError(t, err)
	assert.Equal(t, "Old (migrated)", got.Metadata.Title)
	assert.Equal(t, FormatVersion, got.Metadata.FormatVersion)
}

func TestStore_LoadSessionServesFromDecodeCacheOnRepeatedLoad(t *testing.T) {
	s := newTestStore(t)
	conv := sampleConversation("sess-cache")
	state := sampleState()
	require.NoError(t, s.SaveSession("sess-cache", Metadata{Title: "Cached"}, conv, state))

	_, _, _, err := s.LoadSession("sess-cache")
	require.NoError(t, err)
	_, cached := s.decodeCacheGet("sess-cache")
	require.True(t, cached)

	// Corrupt the on-disk container; a cache hit must still succeed
	// because LoadSession doesn't re-read the file.
	require.NoError(t, os.WriteFile(s.sessionPath("sess-cache"), []byte("corrupt"), 0o644))

	gotMeta, gotConv, _, err := s.LoadSession("sess-cache")
	require.NoError(t, err)
	assert.Equal(t, "Cached", gotMeta.Title)
	assert.Equal(t, conv.Messages, gotConv.Messages)
}

func TestStore_SaveSessionInvalidatesDecodeCache(t *testing.T) {
	s := newTestStore(t)
	conv := sampleConversation("sess-invalidate")
	state := sampleState()
	require.NoError(t, s.SaveSession("sess-invalidate", Metadata{Title: "v1"}, conv, state))

	_, _, _, err := s.LoadSession("sess-invalidate")
	require.NoError(t, err)
	_, cached := s.decodeCacheGet("sess-invalidate")
	require.True(t, cached)

	conv.Messages = append(conv.Messages, MessageSnapshot{Index: 2, Timestamp: time.Unix(1002, 0)})
	require.NoError(t, s.SaveSession("sess-invalidate", Metadata{Title: "v2"}, conv, state))
	_, cached = s.decodeCacheGet("sess-invalidate")
	require.False(t, cached)

	gotMeta, gotConv, _, err := s.LoadSession("sess-invalidate")
	require.NoError(t, err)
	assert.Equal(t, "v2", gotMeta.Title)
	assert.Len(t, gotConv.Messages, 3)
}

func TestStore_DecodeCacheEvictsOldestBeyondCap(t *testing.T) {
	s := newTestStore(t)
	s.decodeCap = 2

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("sess-%d", i)
		require.NoError(t, s.SaveSession(id, Metadata{Title: id}, sampleConversation(id), sampleState()))
		_, _, _, err := s.LoadSession(id)
		require.NoError(t, err)
	}

	_, cached0 := s.decodeCacheGet("sess-0")
	assert.False(t, cached0, "oldest entry should have been evicted")
	_, cached2 := s.decodeCacheGet("sess-2")
	assert.True(t, cached2)
}
