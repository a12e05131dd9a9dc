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

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teradata-labs/codeweave/internal/lang"
)

// Tree is an opaque parse-tree handle. It borrows source; source must
// outlive every Node obtained from it (spec.md §3's lifetime invariant).
type Tree struct {
	ts       *tree_sitter.Tree
	source   []byte
	language lang.Tag
}

// Close releases the tree-sitter tree. Every Tree returned by Parser owns
// its own copy of the handle, so closing it never affects the Parser's
// retained tree (and vice versa), before or after a subsequent Parse call.
func (t *Tree) Close() {
	if t.ts != nil {
		t.ts.Close()
	}
}

// Language returns the language this tree was parsed with.
func (t *Tree) Language() lang.Tag {
	return t.language
}

// Source returns the source bytes this tree borrows from. Callers must not
// retain it past the Tree's lifetime if the same buffer may be mutated and
// reparsed.
func (t *Tree) Source() []byte {
	return t.source
}

// Root returns the tree's root node.
func (t *Tree) Root() Node {
	return wrapNode(t.ts.RootNode(), t.source)
}

// Node is a borrow-only view over one tree-sitter node, plus the source
// buffer needed to slice its text. Node values are cheap and comparable by
// their underlying pointer-equivalent identity (same node -> same fields).
type Node struct {
	raw    *tree_sitter.Node
	source []byte
}

func wrapNode(n *tree_sitter.Node, source []byte) Node {
	return Node{raw: n, source: source}
}

// Valid reports whether this Node wraps an actual tree-sitter node (the
// zero Node is invalid, returned e.g. when a child index is out of range).
func (n Node) Valid() bool {
	return n.raw != nil
}

// Kind is the language-specific grammar rule name for this node.
func (n Node) Kind() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Kind()
}

// StartByte is the inclusive start offset of this node's byte range.
func (n Node) StartByte() uint {
	if n.raw == nil {
		return 0
	}
	return n.raw.StartByte()
}

// EndByte is the exclusive end offset of this node's byte range.
func (n Node) EndByte() uint {
	if n.raw == nil {
		return 0
	}
	return n.raw.EndByte()
}

// StartPosition is the (row, col) of the node's first byte.
func (n Node) StartPosition() Point {
	if n.raw == nil {
		return Point{}
	}
	p := n.raw.StartPosition()
	return Point{Row: p.Row, Column: p.Column}
}

// EndPosition is the (row, col) just past the node's last byte.
func (n Node) EndPosition() Point {
	if n.raw == nil {
		return Point{}
	}
	p := n.raw.EndPosition()
	return Point{Row: p.Row, Column: p.Column}
}

// ChildCount returns the number of named+anonymous children.
func (n Node) ChildCount() uint {
	if n.raw == nil {
		return 0
	}
	return n.raw.ChildCount()
}

// Child returns the i-th child, or an invalid Node if i is out of range.
func (n Node) Child(i uint) Node {
	if n.raw == nil || i >= n.raw.ChildCount() {
		return Node{}
	}
	return wrapNode(n.raw.Child(i), n.source)
}

// ChildByFieldName returns the child associated with a grammar field name
// (e.g. "name", "parameters", "body"), or an invalid Node if the field is
// absent on this node.
func (n Node) ChildByFieldName(field string) Node {
	if n.raw == nil {
		return Node{}
	}
	child := n.raw.ChildByFieldName(field)
	if child == nil {
		return Node{}
	}
	return wrapNode(child, n.source)
}

// Parent returns this node's parent, or an invalid Node at the root.
func (n Node) Parent() Node {
	if n.raw == nil {
		return Node{}
	}
	return wrapNode(n.raw.Parent(), n.source)
}

// HasError reports whether this node or a descendant is a syntax error.
func (n Node) HasError() bool {
	if n.raw == nil {
		return false
	}
	return n.raw.HasError()
}

// IsMissing reports whether the grammar synthesized this node to recover
// from a parse error (it was never present in the source text).
func (n Node) IsMissing() bool {
	if n.raw == nil {
		return false
	}
	return n.raw.IsMissing()
}

// IsLeaf reports whether this node has no children.
func (n Node) IsLeaf() bool {
	return n.ChildCount() == 0
}

// Text returns the source slice this node spans. The returned slice
// borrows the tree's source buffer; see spec.md §3's lifetime invariant.
func (n Node) Text() []byte {
	if n.raw == nil {
		return nil
	}
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(n.source)) || start > end {
		return nil
	}
	return n.source[start:end]
}
