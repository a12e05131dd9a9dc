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

// Package sessionstore is the session store (C9): an on-disk binary
// container format with compression, an index for fast listing/search,
// and checkpointing. internal/sessionmgr layers lifecycle and auto-save
// policy on top of the operations this package provides.
package sessionstore

import (
	"encoding/json"
	"time"
)

// FormatVersion is the current on-disk container version written by
// this build. Readers compare it against the header's version before
// decoding the payload.
const FormatVersion uint32 = 1

// Mode is the assistant's operating posture recorded against a session
// and its mode-history.
type Mode string

const (
	ModePlan   Mode = "plan"
	ModeBuild  Mode = "build"
	ModeReview Mode = "review"
)

// Metadata is a session's denormalised summary: everything list_sessions
// and search need without decoding the full container.
type Metadata struct {
	ID               string
	Title            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastAccessedAt   time.Time
	MessageCount     int
	TurnCount        int
	Mode             Mode
	ModelID          string
	Tags             []string
	Favourite        bool
	FileSizeBytes    int64
	CompressionRatio float64
	FormatVersion    uint32
	Checkpoints      []CheckpointMeta
}

// MessageSnapshot is one recorded item in a conversation, in the order
// it was appended.
type MessageSnapshot struct {
	Index     int
	Timestamp time.Time
	Item      json.RawMessage
	Metadata  map[string]string
}

// WorkingContext is the per-session environment the conversation ran
// under: cwd, environment variables, open files, and the opaque
// serialized state of the AST cache / embedding cache at last save.
type WorkingContext struct {
	WorkingDir          string
	Env                 map[string]string
	OpenFiles           []string
	ASTIndexState       []byte
	EmbeddingCacheState []byte
}

// ModeChange is one entry in a session's mode history.
type ModeChange struct {
	Mode Mode
	At   time.Time
}

// Conversation is the full persisted transcript plus its working
// context and mode history.
type Conversation struct {
	SessionID   string
	Messages    []MessageSnapshot
	Context     WorkingContext
	ModeHistory []ModeChange
}

// State is the persisted UI-ish state that rides alongside a session:
// cursor/scroll position, panel layout, and the active search/filter.
type State struct {
	CursorPosition   int
	ScrollOffset     int
	SelectedMessage  int
	ExpandedMessages []int
	ActivePanel      string
	PanelSizes       map[string]int
	SearchQuery      string
	FilterSettings   map[string]string
}

// CheckpointMeta describes one named, restorable point in a session's
// history; the full snapshot it refers to is stored separately under
// checkpoints/.
type CheckpointMeta struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	MessageIndex int
	Description  string
}

// Data is the full payload encoded into a session's `.agcx`/checkpoint's
// `.ckpt` container: everything needed to reconstruct the session.
type Data struct {
	Metadata     Metadata
	Conversation Conversation
	State        State
	Checksum     uint32
}
