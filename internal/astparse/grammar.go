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
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/teradata-labs/codeweave/internal/lang"
)

// grammarOf returns the tree-sitter Language handle for a tag, or nil when
// the registry has no grammar wired (matching lang.Registry.GrammarAvailable).
// Each call allocates a fresh *tree_sitter.Language wrapper; the underlying
// grammar table is owned by the C grammar library and is safe to share.
func grammarOf(t lang.Tag) *tree_sitter.Language {
	switch t {
	case lang.Go:
		return tree_sitter.NewLanguage(tree_sitter_go.Language())
	case lang.Rust:
		return tree_sitter.NewLanguage(tree_sitter_rust.Language())
	case lang.Python:
		return tree_sitter.NewLanguage(tree_sitter_python.Language())
	case lang.JavaScript:
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	case lang.TypeScript:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case lang.Java:
		return tree_sitter.NewLanguage(tree_sitter_java.Language())
	default:
		return nil
	}
}
