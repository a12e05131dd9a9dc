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
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// IndexBackend is a secondary, queryable store for session metadata.
// The gob-encoded sessions.idx file (see index.go) remains the
// authoritative index; a configured IndexBackend is kept in sync
// write-through and exists only to answer Search with a real query
// instead of an in-memory scan once a deployment's session count makes
// that worth it.
type IndexBackend interface {
	Upsert(meta Metadata) error
	Remove(id string) error
	Search(query string) ([]Metadata, error)
	Close() error
}

// SQLiteIndex is an IndexBackend backed by modernc.org/sqlite (pure Go,
// no cgo). It stores only the columns Search needs to filter on; the
// gob index remains the source of truth for full Metadata, so a lookup
// here is followed by an in-memory fetch from that index.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (creating if absent) a sqlite database at path
// and ensures its schema exists.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &IOError{Op: "open sqlite index", Cause: err}
	}
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	tags             TEXT NOT NULL,
	last_accessed_at INTEGER NOT NULL,
	favourite        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_last_accessed_idx ON sessions(last_accessed_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &IOError{Op: "create sqlite schema", Cause: err}
	}
	return &SQLiteIndex{db: db}, nil
}

// Upsert inserts or replaces meta's searchable columns.
func (s *SQLiteIndex) Upsert(meta Metadata) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, title, tags, last_accessed_at, favourite)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, tags=excluded.tags,
			last_accessed_at=excluded.last_accessed_at, favourite=excluded.favourite`,
		meta.ID, meta.Title, joinTags(meta.Tags), meta.LastAccessedAt.UnixNano(), boolToInt(meta.Favourite),
	)
	if err != nil {
		return &IOError{Op: "sqlite upsert", Cause: err}
	}
	return nil
}

// Remove deletes id's row, if any.
func (s *SQLiteIndex) Remove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return &IOError{Op: "sqlite delete", Cause: err}
	}
	return nil
}

// Search returns the ids (with a partially populated Metadata — just
// enough for the caller to re-key against the authoritative index)
// whose title or tags match query, most-recently-accessed first.
func (s *SQLiteIndex) Search(query string) ([]Metadata, error) {
	rows, err := s.db.Query(
		`SELECT id, title, tags, last_accessed_at, favourite FROM sessions
		 WHERE title LIKE '%' || ? || '%' OR tags LIKE '%' || ? || '%'
		 ORDER BY last_accessed_at DESC`,
		query, query,
	)
	if err != nil {
		return nil, &IOError{Op: "sqlite search", Cause: err}
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var (
			id, title, tags string
			lastAccessedNS  int64
			fav             int
		)
		if err := rows.Scan(&id, &title, &tags, &lastAccessedNS, &fav); err != nil {
			return nil, &IOError{Op: "sqlite scan", Cause: err}
		}
		out = append(out, Metadata{
			ID:             id,
			Title:          title,
			Tags:           splitTags(tags),
			LastAccessedAt: time.Unix(0, lastAccessedNS),
			Favourite:      fav != 0,
		})
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteIndex) Close() error { return s.db.Close() }

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += "\x1f"
		}
		out += t
	}
	return out
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(joined); i++ {
		if joined[i] == '\x1f' {
			out = append(out, joined[start:i])
			start = i + 1
		}
	}
	out = append(out, joined[start:])
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
