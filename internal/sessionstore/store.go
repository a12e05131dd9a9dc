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
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/teradata-labs/codeweave/internal/csync"
	"github.com/teradata-labs/codeweave/internal/log"
)

const (
	sessionsDirName    = "sessions"
	checkpointsDirName = "checkpoints"
	metadataDirName    = "metadata"
	containerExt       = ".agcx"
	checkpointExt      = ".ckpt"
	metaExt            = ".meta"
)

// Config configures a Store.
type Config struct {
	// BaseDir is the root directory laid out per spec §6:
	// <BaseDir>/sessions, /checkpoints, /metadata, /sessions.idx.
	BaseDir string

	// SessionLevel is the zstd level used for session containers.
	// Zero defaults to zstd.SpeedDefault.
	SessionLevel zstd.EncoderLevel
	// CheckpointLevel is the zstd level used for checkpoint containers;
	// spec §4.9 calls for "a higher compression level" than sessions.
	// Zero defaults to zstd.SpeedBestCompression.
	CheckpointLevel zstd.EncoderLevel

	// Index is an optional secondary backend (e.g. SQLiteIndex) kept in
	// sync write-through alongside the gob index and used by Search
	// instead of the in-memory scan when set. Nil disables it; the gob
	// index remains authoritative either way.
	Index IndexBackend

	Logger *zap.Logger
}

// Store is the session store (C9).
type Store struct {
	baseDir   string
	level     zstd.EncoderLevel
	ckptLevel zstd.EncoderLevel
	log       *zap.Logger

	idx       *index
	secondary IndexBackend

	decodeMu    sync.Mutex
	decodeCache map[string]Data
	decodeOrder []string
	decodeCap   int

	locks *csync.Map[string, *sync.Mutex]
}

// decodeCacheCap bounds the number of fully-decoded session containers
// LoadSession keeps warm, to avoid re-decompressing on rapid repeated
// loads of the same session (e.g. a UI switching tabs back and forth).
// It is a cache, not persisted state: nothing in it survives a restart
// and it carries no on-disk representation.
const decodeCacheCap = 16

// NewStore constructs a Store rooted at cfg.BaseDir, creating the
// directory layout if absent, and loads (or rebuilds) the session
// index.
func NewStore(cfg Config) (*Store, error) {
	level := cfg.SessionLevel
	if level == 0 {
		level = zstd.SpeedDefault
	}
	ckptLevel := cfg.CheckpointLevel
	if ckptLevel == 0 {
		ckptLevel = zstd.SpeedBestCompression
	}

	s := &Store{
		baseDir:     cfg.BaseDir,
		level:       level,
		ckptLevel:   ckptLevel,
		log:         log.OrNop(cfg.Logger).Named("sessionstore"),
		idx:         newIndex(),
		secondary:   cfg.Index,
		decodeCache: make(map[string]Data),
		decodeCap:   decodeCacheCap,
		locks:       csync.NewMap[string, *sync.Mutex](),
	}

	for _, dir := range []string{sessionsDirName, checkpointsDirName, metadataDirName} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), 0o755); err != nil {
			return nil, &IOError{Op: "mkdir " + dir, Cause: err}
		}
	}

	loaded, err := s.idx.load(s.baseDir)
	if err != nil {
		return nil, err
	}
	if !loaded {
		s.log.Info("rebuilding session index")
		if err := s.idx.rebuild(s.baseDir); err != nil {
			return nil, err
		}
		if err := s.idx.save(s.baseDir); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// syncSecondary write-throughs meta to the optional secondary index
// backend, logging (not failing) on error: the backend only accelerates
// Search, it is never authoritative.
func (s *Store) syncSecondary(meta Metadata) {
	if s.secondary == nil {
		return
	}
	if err := s.secondary.Upsert(meta); err != nil {
		s.log.Warn("secondary index upsert failed", zap.String("session_id", meta.ID), zap.Error(err))
	}
}

func (s *Store) syncSecondaryRemove(id string) {
	if s.secondary == nil {
		return
	}
	if err := s.secondary.Remove(id); err != nil {
		s.log.Warn("secondary index remove failed", zap.String("session_id", id), zap.Error(err))
	}
}

// decodeCacheGet returns id's decoded container if still cached.
func (s *Store) decodeCacheGet(id string) (Data, bool) {
	s.decodeMu.Lock()
	defer s.decodeMu.Unlock()
	d, ok := s.decodeCache[id]
	return d, ok
}

// decodeCachePut stores id's freshly-decoded container, evicting the
// least-recently-inserted entry once decodeCap is exceeded.
func (s *Store) decodeCachePut(id string, data Data) {
	s.decodeMu.Lock()
	defer s.decodeMu.Unlock()

	if _, exists := s.decodeCache[id]; !exists {
		s.decodeOrder = append(s.decodeOrder, id)
	}
	s.decodeCache[id] = data

	for len(s.decodeOrder) > s.decodeCap {
		oldest := s.decodeOrder[0]
		s.decodeOrder = s.decodeOrder[1:]
		delete(s.decodeCache, oldest)
	}
}

// decodeCacheInvalidate drops id's cached entry, if any; called wherever
// a session's on-disk container changes so a stale decode is never
// served back.
func (s *Store) decodeCacheInvalidate(id string) {
	s.decodeMu.Lock()
	defer s.decodeMu.Unlock()
	delete(s.decodeCache, id)
	for i, o := range s.decodeOrder {
		if o == id {
			s.decodeOrder = append(s.decodeOrder[:i], s.decodeOrder[i+1:]...)
			break
		}
	}
}

func (s *Store) lockFor(id string) *sync.Mutex {
	l, _ := s.locks.GetOrSet(id, &sync.Mutex{})
	return l
}

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.baseDir, sessionsDirName, id+containerExt)
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.baseDir, metadataDirName, id+metaExt)
}

func (s *Store) checkpointPath(sessionID, ckptID string) string {
	return filepath.Join(s.baseDir, checkpointsDirName, sessionID+"_"+ckptID+checkpointExt)
}

// SaveSession writes id's full container to disk (whole-file
// replacement via a temp file), then updates the metadata sidecar and
// index. The index is written only after the session file succeeds, so
// a crash between the two never leaves the index pointing at a missing
// file.
func (s *Store) SaveSession(id string, metadata Metadata, conv Conversation, state State) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	metadata.ID = id
	metadata.FormatVersion = FormatVersion
	conv.SessionID = id

	data := Data{Metadata: metadata, Conversation: conv, State: state}
	data.Checksum = checksumOf(conv, state)

	container, rawSize, compressedSize, err := encodeContainer(data, s.level)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.sessionPath(id), container); err != nil {
		return err
	}

	metadata.FileSizeBytes = int64(len(container))
	metadata.CompressionRatio = compressionRatio(rawSize, compressedSize)

	if err := writeMetaFile(s.metaPath(id), metadata); err != nil {
		return err
	}

	s.idx.put(metadata)
	s.syncSecondary(metadata)
	s.decodeCacheInvalidate(id)
	return s.idx.save(s.baseDir)
}

// LoadSession decodes id's container and returns its three top-level
// parts. It does not bump LastAccessedAt; internal/sessionmgr owns that
// policy and calls TouchAccessed after a successful load.
func (s *Store) LoadSession(id string) (Metadata, Conversation, State, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if data, ok := s.decodeCacheGet(id); ok {
		return data.Metadata, data.Conversation, data.State, nil
	}

	raw, err := os.ReadFile(s.sessionPath(id))
	if os.IsNotExist(err) {
		return Metadata{}, Conversation{}, State{}, &SessionNotFoundError{ID: id}
	}
	if err != nil {
		return Metadata{}, Conversation{}, State{}, &IOError{Op: "read session", Cause: err}
	}

	data, err := decodeContainer(raw)
	if err != nil {
		return Metadata{}, Conversation{}, State{}, err
	}
	// The container is encoded before its own size is known, so the size
	// and ratio come from the index entry recorded when it was written.
	if m, ok := s.idx.get(id); ok {
		data.Metadata.FileSizeBytes = m.FileSizeBytes
		data.Metadata.CompressionRatio = m.CompressionRatio
	}
	s.decodeCachePut(id, data)
	return data.Metadata, data.Conversation, data.State, nil
}

// TouchAccessed updates id's LastAccessedAt without rewriting the
// session's (potentially large) conversation payload.
func (s *Store) TouchAccessed(id string, at time.Time) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	meta, ok := s.idx.get(id)
	if !ok {
		return &SessionNotFoundError{ID: id}
	}
	meta.LastAccessedAt = at
	if err := writeMetaFile(s.metaPath(id), meta); err != nil {
		return err
	}
	s.idx.put(meta)
	s.syncSecondary(meta)
	return s.idx.save(s.baseDir)
}

// DeleteSession removes id's container, metadata sidecar, every
// checkpoint belonging to it, and its index entry.
func (s *Store) DeleteSession(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := s.idx.get(id); !ok {
		if _, err := os.Stat(s.sessionPath(id)); os.IsNotExist(err) {
			return &SessionNotFoundError{ID: id}
		}
	}

	_ = os.Remove(s.sessionPath(id))
	_ = os.Remove(s.metaPath(id))

	entries, err := os.ReadDir(filepath.Join(s.baseDir, checkpointsDirName))
	if err == nil {
		prefix := id + "_"
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), prefix) {
				_ = os.Remove(filepath.Join(s.baseDir, checkpointsDirName, e.Name()))
			}
		}
	}

	s.idx.remove(id)
	s.syncSecondaryRemove(id)
	s.decodeCacheInvalidate(id)
	return s.idx.save(s.baseDir)
}

// ListSessions returns every known session's metadata, sorted by
// LastAccessedAt descending (ties broken by id ascending).
func (s *Store) ListSessions() []Metadata {
	return s.idx.list()
}

// Aggregates reports the index's totals: combined on-disk container
// size and session count.
func (s *Store) Aggregates() (totalSize int64, count int) {
	return s.idx.aggregates()
}

// Search returns sessions whose title or any tag contains query,
// case-insensitively, most-recently-accessed first. When a secondary
// IndexBackend is configured it serves the query (re-keyed against the
// authoritative gob index for full Metadata); otherwise it falls back
// to an in-memory scan.
func (s *Store) Search(query string) []Metadata {
	if s.secondary != nil {
		hits, err := s.secondary.Search(query)
		if err == nil {
			out := make([]Metadata, 0, len(hits))
			for _, h := range hits {
				if full, ok := s.idx.get(h.ID); ok {
					out = append(out, full)
				}
			}
			return out
		}
		s.log.Warn("secondary index search failed, falling back to scan", zap.Error(err))
	}

	q := strings.ToLower(query)
	var out []Metadata
	for _, m := range s.idx.list() {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
			continue
		}
		for _, tag := range m.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// CreateCheckpoint snapshots conv/state under a new checkpoint id and
// records its metadata against the owning session, re-saving the
// session's own container so Metadata.Checkpoints stays consistent
// with what's on disk under checkpoints/.
func (s *Store) CreateCheckpoint(sessionID, ckptID, name, description string, conv Conversation, state State) error {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	raw, err := os.ReadFile(s.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return &SessionNotFoundError{ID: sessionID}
	}
	if err != nil {
		return &IOError{Op: "read session", Cause: err}
	}
	session, err := decodeContainer(raw)
	if err != nil {
		return err
	}

	ckptMeta := CheckpointMeta{
		ID:           ckptID,
		Name:         name,
		CreatedAt:    time.Now(),
		MessageIndex: len(conv.Messages),
		Description:  description,
	}

	ckptData := Data{
		Metadata:     session.Metadata,
		Conversation: conv,
		State:        state,
	}
	ckptData.Metadata.Checkpoints = []CheckpointMeta{ckptMeta}
	ckptData.Checksum = checksumOf(conv, state)

	container, _, _, err := encodeContainer(ckptData, s.ckptLevel)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.checkpointPath(sessionID, ckptID), container); err != nil {
		return err
	}

	session.Metadata.Checkpoints = append(session.Metadata.Checkpoints, ckptMeta)
	fullContainer, rawSize, compressedSize, err := encodeContainer(session, s.level)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.sessionPath(sessionID), fullContainer); err != nil {
		return err
	}
	session.Metadata.FileSizeBytes = int64(len(fullContainer))
	session.Metadata.CompressionRatio = compressionRatio(rawSize, compressedSize)

	if err := writeMetaFile(s.metaPath(sessionID), session.Metadata); err != nil {
		return err
	}
	s.idx.put(session.Metadata)
	s.syncSecondary(session.Metadata)
	s.decodeCacheInvalidate(sessionID)
	return s.idx.save(s.baseDir)
}

// LoadCheckpoint decodes sessionID's ckptID checkpoint and returns its
// conversation and state.
func (s *Store) LoadCheckpoint(sessionID, ckptID string) (Conversation, State, error) {
	raw, err := os.ReadFile(s.checkpointPath(sessionID, ckptID))
	if os.IsNotExist(err) {
		return Conversation{}, State{}, &CheckpointNotFoundError{SessionID: sessionID, CheckpointID: ckptID}
	}
	if err != nil {
		return Conversation{}, State{}, &IOError{Op: "read checkpoint", Cause: err}
	}
	data, err := decodeContainer(raw)
	if err != nil {
		return Conversation{}, State{}, err
	}
	return data.Conversation, data.State, nil
}

// DeleteCheckpoint removes one checkpoint's on-disk container and its
// entry from the owning session's Metadata.Checkpoints. Used by
// internal/sessionmgr to enforce a per-session checkpoint cap (FIFO
// eviction of the oldest).
func (s *Store) DeleteCheckpoint(sessionID, ckptID string) error {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	_ = os.Remove(s.checkpointPath(sessionID, ckptID))

	raw, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		return nil // session already gone; nothing to reconcile
	}
	session, err := decodeContainer(raw)
	if err != nil {
		return err
	}
	kept := session.Metadata.Checkpoints[:0]
	for _, c := range session.Metadata.Checkpoints {
		if c.ID != ckptID {
			kept = append(kept, c)
		}
	}
	session.Metadata.Checkpoints = kept

	container, rawSize, compressedSize, err := encodeContainer(session, s.level)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.sessionPath(sessionID), container); err != nil {
		return err
	}
	session.Metadata.FileSizeBytes = int64(len(container))
	session.Metadata.CompressionRatio = compressionRatio(rawSize, compressedSize)
	if err := writeMetaFile(s.metaPath(sessionID), session.Metadata); err != nil {
		return err
	}
	s.idx.put(session.Metadata)
	s.syncSecondary(session.Metadata)
	s.decodeCacheInvalidate(sessionID)
	return s.idx.save(s.baseDir)
}

// Cleanup deletes sessions to enforce an optional age cap (maxAgeDays,
// <=0 disables) and an optional count cap (maxCount, <=0 disables).
// Favourited sessions are never deleted; when a count cap forces
// eviction, the oldest-by-LastAccessedAt non-favourite sessions go
// first.
func (s *Store) Cleanup(maxAgeDays, maxCount int) error {
	all := s.idx.list() // newest first

	if maxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
		for _, m := range all {
			if m.Favourite {
				continue
			}
			if m.LastAccessedAt.Before(cutoff) {
				if err := s.DeleteSession(m.ID); err != nil {
					return err
				}
			}
		}
	}

	if maxCount > 0 {
		remaining := s.idx.list()
		nonFav := make([]Metadata, 0, len(remaining))
		for _, m := range remaining {
			if !m.Favourite {
				nonFav = append(nonFav, m)
			}
		}
		// remaining is newest-first; oldest-first is what eviction wants.
		sort.SliceStable(nonFav, func(i, j int) bool {
			return nonFav[i].LastAccessedAt.Before(nonFav[j].LastAccessedAt)
		})

		over := len(remaining) - maxCount
		for i := 0; i < over && i < len(nonFav); i++ {
			if err := s.DeleteSession(nonFav[i].ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func checksumOf(conv Conversation, state State) uint32 {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(struct {
		Conversation
		State
	}{conv, state})
	return crc32.ChecksumIEEE(buf.Bytes())
}

func compressionRatio(rawSize, compressedSize int64) float64 {
	if rawSize == 0 {
		return 0
	}
	return 1 - float64(compressedSize)/float64(rawSize)
}

func writeMetaFile(path string, meta Metadata) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(meta); err != nil {
		return &SerializationError{Msg: "encode metadata", Cause: err}
	}
	return writeFileAtomic(path, buf.Bytes())
}

func readMetaFile(baseDir, id string) (Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(baseDir, metadataDirName, id+metaExt))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// writeFileAtomic writes data to a temp file in path's directory, then
// renames it over path, so a crash mid-write never leaves a partial
// file visible at the final name.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &IOError{Op: "create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &IOError{Op: "write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close temp file", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &IOError{Op: fmt.Sprintf("rename to %s", path), Cause: err}
	}
	return nil
}
