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
	"strings"

	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/lang"
)

func init() {
	registerStrategy(lang.Python, genericStrategy{def: pythonDef})
	registerStrategy(lang.JavaScript, genericStrategy{def: jsDef})
	registerStrategy(lang.TypeScript, genericStrategy{def: tsDef})
	registerStrategy(lang.Rust, genericStrategy{def: rustDef})
	registerStrategy(lang.Java, genericStrategy{def: javaDef})
}

// langDef is the minimal per-language table genericStrategy needs. It
// covers the common case (a named declaration with an optional body field)
// without Go's struct-field-level detail; strategy_go.go shows the fuller
// shape a language gets once its extraction rules are worth the extra
// code. Extending a language from generic to full detail means adding a
// dedicated strategy and removing its registerStrategy call here.
type langDef struct {
	kinds        map[string]ElementKind
	nameField    string
	bodyField    string
	lineComment  string
	publicPrefix func(name string) bool // nil means "always private/package"
}

var pythonDef = langDef{
	kinds: map[string]ElementKind{
		"function_definition":     KindFunction,
		"class_definition":        KindClass,
		"import_statement":        KindImport,
		"import_from_statement":   KindImport,
		"comment":                 KindComment,
	},
	nameField:   "name",
	bodyField:   "body",
	lineComment: "#",
	publicPrefix: func(name string) bool {
		return !strings.HasPrefix(name, "_")
	},
}

var jsDef = langDef{
	kinds: map[string]ElementKind{
		"function_declaration": KindFunction,
		"class_declaration":    KindClass,
		"lexical_declaration":  KindVariable,
		"import_statement":     KindImport,
		"export_statement":     KindExport,
		"comment":              KindComment,
	},
	nameField:    "name",
	bodyField:    "body",
	lineComment:  "//",
	publicPrefix: func(name string) bool { return true },
}

var tsDef = langDef{
	kinds: map[string]ElementKind{
		"function_declaration":  KindFunction,
		"class_declaration":     KindClass,
		"interface_declaration": KindInterface,
		"type_alias_declaration": KindType,
		"lexical_declaration":   KindVariable,
		"import_statement":      KindImport,
		"export_statement":      KindExport,
		"comment":               KindComment,
	},
	nameField:    "name",
	bodyField:    "body",
	lineComment:  "//",
	publicPrefix: func(name string) bool { return true },
}

var rustDef = langDef{
	kinds: map[string]ElementKind{
		"function_item": KindFunction,
		"struct_item":   KindStruct,
		"enum_item":     KindEnum,
		"trait_item":    KindTrait,
		"const_item":    KindConstant,
		"static_item":   KindVariable,
		"use_declaration": KindImport,
		"line_comment":  KindComment,
	},
	nameField:   "name",
	bodyField:   "body",
	lineComment: "//",
	publicPrefix: func(name string) bool {
		// Rust visibility is a `pub` keyword on the item, not an
		// identifier convention; genericStrategy has no field access
		// to the modifier here, so every item is reported Private and
		// a dedicated strategy is the documented upgrade path.
		return false
	},
}

var javaDef = langDef{
	kinds: map[string]ElementKind{
		"method_declaration":    KindMethod,
		"class_declaration":     KindClass,
		"interface_declaration": KindInterface,
		"field_declaration":     KindVariable,
		"import_declaration":    KindImport,
		"line_comment":          KindComment,
	},
	nameField:   "name",
	bodyField:   "body",
	lineComment: "//",
	publicPrefix: func(name string) bool {
		return false // same caveat as Rust: modifier nodes, not naming convention
	},
}

// genericStrategy implements strategy for languages that only need
// top-level-declaration identification plus a body-field cut for
// signaturesOnly — not full parameter/field extraction. This is an
// explicit, named scope reduction versus strategy_go.go, tracked in
// DESIGN.md rather than hidden behind a uniform interface that pretends
// every language gets equal extraction depth.
type genericStrategy struct {
	def langDef
}

func (g genericStrategy) topLevelKinds() map[string]ElementKind {
	return g.def.kinds
}

func (g genericStrategy) name(n astparse.Node) string {
	if g.def.nameField == "" {
		return ""
	}
	return textOrEmpty(n.ChildByFieldName(g.def.nameField))
}

func (g genericStrategy) visibility(n astparse.Node, source []byte) Visibility {
	name := g.name(n)
	if g.def.publicPrefix != nil && name != "" && g.def.publicPrefix(name) {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

func (g genericStrategy) isDocComment(commentText string) bool {
	trimmed := strings.TrimSpace(commentText)
	switch {
	case strings.HasPrefix(trimmed, "/**"):
		return true
	case strings.HasPrefix(trimmed, `"""`):
		return true
	case strings.HasPrefix(trimmed, "///") || strings.HasPrefix(trimmed, "//!"):
		return true
	}
	return false
}

func (g genericStrategy) bodyRange(n astparse.Node) (uint, uint, bool) {
	if g.def.bodyField == "" {
		return 0, 0, false
	}
	body := n.ChildByFieldName(g.def.bodyField)
	if !body.Valid() {
		return 0, 0, false
	}
	return body.StartByte(), body.EndByte(), true
}

func (g genericStrategy) statementTerminator() string {
	// Python (the only '#'-comment language here) takes a `pass`
	// statement in place of the body; the C-family languages take ';'.
	if g.def.lineComment == "#" {
		return "pass"
	}
	return ";"
}

func (g genericStrategy) functionPayload(n astparse.Node, source []byte) *FunctionPayload {
	fp := &FunctionPayload{}
	params := n.ChildByFieldName("parameters")
	count := params.ChildCount()
	for i := uint(0); i < count; i++ {
		child := params.Child(i)
		text := strings.TrimSpace(string(child.Text()))
		if text == "" || text == "(" || text == ")" || text == "," {
			continue
		}
		fp.Parameters = append(fp.Parameters, Parameter{Name: text})
	}
	return fp
}

func (g genericStrategy) typePayload(n astparse.Node, source []byte) *TypePayload {
	return &TypePayload{}
}
