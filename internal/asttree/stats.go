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

import "github.com/teradata-labs/codeweave/internal/astparse"

// Stats is tree-wide aggregate information used by the compactor's
// metrics (C4) and by callers that want a cheap shape summary before
// deciding whether to run extraction at all.
type Stats struct {
	TotalNodes    int
	LeafNodes     int
	ErrorNodes    int
	MaxDepth      int
	KindHistogram map[string]int
}

// Statistics walks root once in preorder and aggregates totals, leaf
// count, error-node count, maximum depth, and a per-kind histogram.
func Statistics(root astparse.Node) Stats {
	stats := Stats{KindHistogram: make(map[string]int)}
	for v := range Preorder(root) {
		stats.TotalNodes++
		stats.KindHistogram[v.Node.Kind()]++
		if v.Node.IsLeaf() {
			stats.LeafNodes++
		}
		if v.Node.HasError() {
			stats.ErrorNodes++
		}
		if v.Depth > stats.MaxDepth {
			stats.MaxDepth = v.Depth
		}
	}
	return stats
}
