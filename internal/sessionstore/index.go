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
	"os"
	"path/filepath"
	"sort"

	"github.com/teradata-labs/codeweave/internal/csync"
)

// indexFileName is the name of the on-disk index record under the
// store's base directory (spec §6's `sessions.idx`).
const indexFileName = "sessions.idx"

// indexRecord is the gob-encoded shape written to sessions.idx.
type indexRecord struct {
	Entries map[string]Metadata
}

// index is the in-memory session index: a concurrent map from session
// id to its denormalised metadata, with its own lock independent of any
// individual session's lock (spec §5's lock ordering: ... session ->
// store -> index).
type index struct {
	entries *csync.Map[string, Metadata]
}

func newIndex() *index {
	return &index{entries: csync.NewMap[string, Metadata]()}
}

func (x *index) put(meta Metadata) {
	x.entries.Set(meta.ID, meta)
}

func (x *index) remove(id string) {
	x.entries.Delete(id)
}

func (x *index) get(id string) (Metadata, bool) {
	return x.entries.Get(id)
}

// list returns every entry sorted by LastAccessedAt descending, ties
// broken by id ascending (SPEC_FULL §7's decision on sort stability).
func (x *index) list() []Metadata {
	out := x.entries.Keys()
	metas := make([]Metadata, 0, len(out))
	for _, id := range out {
		if m, ok := x.entries.Get(id); ok {
			metas = append(metas, m)
		}
	}
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].LastAccessedAt.Equal(metas[j].LastAccessedAt) {
			return metas[i].LastAccessedAt.After(metas[j].LastAccessedAt)
		}
		return metas[i].ID < metas[j].ID
	})
	return metas
}

// aggregates reports the index's total on-disk size and entry count.
func (x *index) aggregates() (totalSize int64, count int) {
	for _, id := range x.entries.Keys() {
		if m, ok := x.entries.Get(id); ok {
			totalSize += m.FileSizeBytes
			count++
		}
	}
	return totalSize, count
}

// save writes the index to <baseDir>/sessions.idx via a temp file plus
// rename, matching the whole-file-replacement invariant used for
// session containers.
func (x *index) save(baseDir string) error {
	rec := indexRecord{Entries: make(map[string]Metadata)}
	for _, id := range x.entries.Keys() {
		if m, ok := x.entries.Get(id); ok {
			rec.Entries[id] = m
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return &SerializationError{Msg: "encode index", Cause: err}
	}
	return writeFileAtomic(filepath.Join(baseDir, indexFileName), buf.Bytes())
}

// load reads the index from disk, returning (false, nil) if it does
// not exist or does not decode, so the caller can fall back to rebuild.
func (x *index) load(baseDir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, indexFileName))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &IOError{Op: "read index", Cause: err}
	}

	var rec indexRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		// Corrupt index: the caller rebuilds from the sessions directory
		// rather than treating this as fatal (spec §7: "An index-file
		// corruption triggers an automatic rebuild on startup").
		return false, nil
	}

	for id, m := range rec.Entries {
		x.entries.Set(id, m)
	}
	return true, nil
}

// rebuild repopulates the index by scanning <baseDir>/sessions,
// verifying each container's header and reading its denormalised
// metadata from the .meta sidecar (falling back to decoding the full
// container when the sidecar is missing). Idempotent: safe to call
// whether or not an index already exists.
func (x *index) rebuild(baseDir string) error {
	entries, err := os.ReadDir(filepath.Join(baseDir, sessionsDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &IOError{Op: "scan sessions dir", Cause: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != containerExt {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(containerExt)]

		full, ferr := os.ReadFile(filepath.Join(baseDir, sessionsDirName, entry.Name()))
		if ferr != nil {
			continue
		}
		if _, _, herr := readHeader(bytes.NewReader(full)); herr != nil {
			continue // not a readable container; never index it
		}

		meta, err := readMetaFile(baseDir, id)
		if err != nil {
			// Sidecar missing: decode the full container for its
			// embedded metadata instead.
			data, derr := decodeContainer(full)
			if derr != nil {
				continue
			}
			meta = data.Metadata
		}
		x.entries.Set(id, meta)
	}
	return nil
}
