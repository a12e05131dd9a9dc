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

package asttree

import (
	"github.com/teradata-labs/codeweave/internal/astparse"
)

// NodeAtByteRange returns the smallest node whose range encloses
// [start, end). If several nodes tie on size, the lexically earliest
// (smallest StartByte, then first found in document order) is returned.
func NodeAtByteRange(root astparse.Node, start, end uint) astparse.Node {
	best := astparse.Node{}
	bestSize := ^uint(0)

	for v := range Preorder(root) {
		n := v.Node
		if n.StartByte() > start || n.EndByte() < end {
			continue
		}
		size := n.EndByte() - n.StartByte()
		if !best.Valid() || size < bestSize ||
			(size == bestSize && n.StartByte() < best.StartByte()) {
			best = n
			bestSize = size
		}
	}
	return best
}

// NodeAtPosition returns the smallest node whose [start,end) position
// interval contains (row, col); ties broken by smallest span.
func NodeAtPosition(root astparse.Node, row, col uint) astparse.Node {
	best := astparse.Node{}
	var bestSpan uint

	contains := func(n astparse.Node) bool {
		s, e := n.StartPosition(), n.EndPosition()
		if pointLess(astparse.Point{Row: row, Column: col}, s) {
			return false
		}
		if !pointLess(astparse.Point{Row: row, Column: col}, e) {
			return false
		}
		return true
	}

	for v := range Preorder(root) {
		n := v.Node
		if !contains(n) {
			continue
		}
		span := n.EndByte() - n.StartByte()
		if !best.Valid() || span < bestSpan {
			best = n
			bestSpan = span
		}
	}
	return best
}

func pointLess(a, b astparse.Point) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column < b.Column
}

// Predicate is a single test evaluated against a preorder-visited node.
type Predicate func(Visited) bool

// KindEquals matches nodes whose Kind equals k.
func KindEquals(k string) Predicate {
	return func(v Visited) bool { return v.Node.Kind() == k }
}

// HasChildOfKind matches nodes with at least one direct child of kind k.
func HasChildOfKind(k string) Predicate {
	return func(v Visited) bool {
		count := v.Node.ChildCount()
		for i := uint(0); i < count; i++ {
			if v.Node.Child(i).Kind() == k {
				return true
			}
		}
		return false
	}
}

// DepthEquals matches nodes at an exact depth from the traversal root.
func DepthEquals(d int) Predicate {
	return func(v Visited) bool { return v.Depth == d }
}

// IsLeaf matches nodes with zero children.
func IsLeaf() Predicate {
	return func(v Visited) bool { return v.Node.IsLeaf() }
}

// HasError matches nodes that are or contain a syntax error.
func HasError() Predicate {
	return func(v Visited) bool { return v.Node.HasError() }
}

// IsMissing matches grammar-synthesized recovery nodes.
func IsMissing() Predicate {
	return func(v Visited) bool { return v.Node.IsMissing() }
}

// Matcher is a conjunction of predicates, evaluated against each preorder
// node by Find/FindAll.
type Matcher struct {
	predicates []Predicate
}

// NewMatcher builds a Matcher requiring every predicate to hold.
func NewMatcher(predicates ...Predicate) *Matcher {
	return &Matcher{predicates: predicates}
}

// Matches reports whether v satisfies every predicate in the matcher.
func (m *Matcher) Matches(v Visited) bool {
	for _, p := range m.predicates {
		if !p(v) {
			return false
		}
	}
	return true
}

// FindAll returns every preorder-visited node under root matching m, in
// document order.
func (m *Matcher) FindAll(root astparse.Node) []Visited {
	var out []Visited
	for v := range Preorder(root) {
		if m.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// Find returns the first preorder-visited node under root matching m.
func (m *Matcher) Find(root astparse.Node) (Visited, bool) {
	for v := range Preorder(root) {
		if m.Matches(v) {
			return v, true
		}
	}
	return Visited{}, false
}
