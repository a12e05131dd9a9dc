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

package astparse

import "github.com/teradata-labs/codeweave/internal/csync"

// Cache is the shared path-to-parsed-AST cache (spec.md §5): a
// concurrent map any task may insert into, where readers get a cloned
// handle rather than the stored pointer itself. A tree-sitter Tree is
// safe for concurrent read-only traversal, so the "clone" is a shallow
// copy of the wrapper struct — callers of Get must not Close() it;
// only whoever later Put a fresh tree for the same path may do so.
type Cache struct {
	entries *csync.Map[string, *Tree]
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: csync.NewMap[string, *Tree]()}
}

// Get returns path's cached tree, if present, as a value copy.
func (c *Cache) Get(path string) (Tree, bool) {
	t, ok := c.entries.Get(path)
	if !ok {
		return Tree{}, false
	}
	return *t, true
}

// Put stores tree as path's current cached tree, replacing (and
// closing) whatever was previously cached for it.
func (c *Cache) Put(path string, tree *Tree) {
	if prev, ok := c.entries.Get(path); ok && prev != tree {
		prev.Close()
	}
	c.entries.Set(path, tree)
}

// Invalidate drops and closes path's cached entry, if any.
func (c *Cache) Invalidate(path string) {
	if prev, ok := c.entries.Get(path); ok {
		prev.Close()
	}
	c.entries.Delete(path)
}

// Len reports how many paths are currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}
