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

// Package sessionmgr is the session manager (C10): it wraps
// internal/sessionstore with an in-memory active-session map, dirty
// tracking, recurring auto-save, checkpoint-cap eviction, and a cleanup
// policy. internal/sessionstore owns the on-disk format; this package
// owns lifecycle policy on top of it.
package sessionmgr

import (
	"sync"

	"github.com/teradata-labs/codeweave/internal/sessionstore"
)

// CleanupPolicy bounds which sessions the manager keeps around, by age
// (MaxAgeDays) and by count (MaxCount); Cleanup applies it via the
// store. There is no cap on aggregate on-disk size. Zero/negative fields
// disable that particular cap.
type CleanupPolicy struct {
	MaxAgeDays int
	MaxCount   int
}

// activeSession is one session currently held in memory: the manager's
// working copy of its conversation and state, dirtied by mutation and
// cleared on a successful flush to the store.
type activeSession struct {
	mu sync.Mutex

	metadata     sessionstore.Metadata
	conversation sessionstore.Conversation
	state        sessionstore.State
	dirty        bool
}

// dirtySnapshot is a point-in-time copy of one active session's data,
// collected under its own lock and then written to the store with no
// lock held (spec §9: never hold the active-session map lock across
// disk I/O).
type dirtySnapshot struct {
	id           string
	metadata     sessionstore.Metadata
	conversation sessionstore.Conversation
	state        sessionstore.State
}
