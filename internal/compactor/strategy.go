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

package compactor

import (
	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/lang"
)

// strategy is the small per-language extraction table spec.md §4.4 calls
// for ("a small per-language strategy table, not pseudo-code"). Each
// supported language registers one.
type strategy interface {
	// topLevelKinds lists the tree-sitter node kinds considered
	// top-level declarations for this language.
	topLevelKinds() map[string]ElementKind

	// name extracts the declared identifier from a declaration node.
	name(n astparse.Node) string

	// visibility derives Public/Private/... from the grammar's modifier
	// nodes, applying the language's own default.
	visibility(n astparse.Node, source []byte) Visibility

	// isDocComment reports whether a comment node immediately preceding
	// a declaration counts as that declaration's documentation.
	isDocComment(commentText string) bool

	// bodyRange returns the byte range of a function-shaped node's body,
	// used by signaturesOnly to replace it with a statement terminator.
	bodyRange(n astparse.Node) (start, end uint, ok bool)

	// statementTerminator is what signaturesOnly substitutes for a
	// dropped body.
	statementTerminator() string

	// function/type extraction detail, kept separate so the common
	// extraction loop in compact.go stays language-agnostic.
	functionPayload(n astparse.Node, source []byte) *FunctionPayload
	typePayload(n astparse.Node, source []byte) *TypePayload
}

var strategies = map[lang.Tag]strategy{}

func registerStrategy(t lang.Tag, s strategy) {
	strategies[t] = s
}

func strategyFor(t lang.Tag) (strategy, bool) {
	s, ok := strategies[t]
	return s, ok
}
