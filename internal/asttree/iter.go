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

// Package asttree is tree traversal & query (C3): pre/post-order
// iteration, node matching by kind/predicate, byte-range and (row,col)
// lookup, and tree statistics, built over internal/astparse's Node.
package asttree

import (
	"iter"

	"github.com/teradata-labs/codeweave/internal/astparse"
)

// Visited is one node produced by Preorder/Postorder: the node itself, its
// depth from root (root is depth 0), and the child-index path from root.
type Visited struct {
	Node  astparse.Node
	Depth int
	Path  []int
}

// Preorder returns a lazy pre-order (node, depth, path) sequence. Each
// call to Preorder starts a fresh, restartable iteration; stopping the
// range loop early abandons the walk without visiting further nodes.
func Preorder(root astparse.Node) iter.Seq[Visited] {
	return func(yield func(Visited) bool) {
		walkPre(root, 0, nil, yield)
	}
}

func walkPre(n astparse.Node, depth int, path []int, yield func(Visited) bool) bool {
	if !n.Valid() {
		return true
	}
	if !yield(Visited{Node: n, Depth: depth, Path: path}) {
		return false
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		childPath := append(append([]int(nil), path...), int(i))
		if !walkPre(n.Child(i), depth+1, childPath, yield) {
			return false
		}
	}
	return true
}

// Postorder returns a lazy post-order (node, depth, path) sequence:
// children are visited before their parent.
func Postorder(root astparse.Node) iter.Seq[Visited] {
	return func(yield func(Visited) bool) {
		walkPost(root, 0, nil, yield)
	}
}

func walkPost(n astparse.Node, depth int, path []int, yield func(Visited) bool) bool {
	if !n.Valid() {
		return true
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		childPath := append(append([]int(nil), path...), int(i))
		if !walkPost(n.Child(i), depth+1, childPath, yield) {
			return false
		}
	}
	return yield(Visited{Node: n, Depth: depth, Path: path})
}

// Leaves is Preorder filtered to nodes with zero children.
func Leaves(root astparse.Node) iter.Seq[Visited] {
	return func(yield func(Visited) bool) {
		for v := range Preorder(root) {
			if v.Node.IsLeaf() {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// ByKind is Preorder filtered to nodes whose Kind equals kind.
func ByKind(root astparse.Node, kind string) iter.Seq[Visited] {
	return func(yield func(Visited) bool) {
		for v := range Preorder(root) {
			if v.Node.Kind() == kind {
				if !yield(v) {
					return
				}
			}
		}
	}
}
