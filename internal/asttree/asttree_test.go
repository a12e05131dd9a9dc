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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/lang"
)

func parseGo(t *testing.T, source string) (*astparse.Parser, *astparse.Tree) {
	t.Helper()
	p, err := astparse.New(lang.Go)
	require.NoError(t, err)
	tree, err := p.Parse([]byte(source))
	require.NoError(t, err)
	t.Cleanup(func() {
		tree.Close()
		p.Close()
	})
	return p, tree
}

func TestPreorderVisitsRoot(t *testing.T) {
	_, tree := parseGo(t, "package main\n\nfunc main() {}\n")
	var first Visited
	for v := range Preorder(tree.Root()) {
		first = v
		break
	}
	assert.Equal(t, 0, first.Depth)
}

func TestByKindFindsFunctionDeclaration(t *testing.T) {
	_, tree := parseGo(t, "package main\n\nfunc main() {}\n")
	var found int
	for range ByKind(tree.Root(), "function_declaration") {
		found++
	}
	assert.Equal(t, 1, found)
}

func TestStatisticsCountsNodes(t *testing.T) {
	_, tree := parseGo(t, "package main\n\nfunc main() {}\n")
	stats := Statistics(tree.Root())
	assert.Greater(t, stats.TotalNodes, 0)
	assert.GreaterOrEqual(t, stats.LeafNodes, 1)
	assert.Equal(t, 0, stats.ErrorNodes)
}

func TestMatcherConjunction(t *testing.T) {
	_, tree := parseGo(t, "package main\n\nfunc main() {}\n")
	m := NewMatcher(KindEquals("function_declaration"), DepthEquals(1))
	v, ok := m.Find(tree.Root())
	require.True(t, ok)
	assert.Equal(t, "function_declaration", v.Node.Kind())
}

func TestNodeAtByteRange(t *testing.T) {
	source := "package main\n\nfunc main() {}\n"
	_, tree := parseGo(t, source)
	n := NodeAtByteRange(tree.Root(), 14, 18) // "func"
	require.True(t, n.Valid())
	assert.LessOrEqual(t, n.StartByte(), uint(14))
	assert.GreaterOrEqual(t, n.EndByte(), uint(18))
}
