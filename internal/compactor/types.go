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

// Package compactor is the AST compactor (C4): it turns a parsed tree over
// a supported language into an ordered list of extracted declarations plus
// a dense, signature-oriented textual representation suitable for feeding
// to a bounded-context LLM prompt.
package compactor

import (
	"regexp"

	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/lang"
)

// ElementKind is the common shape every extracted declaration carries.
type ElementKind string

const (
	KindFunction  ElementKind = "function"
	KindMethod    ElementKind = "method"
	KindStruct    ElementKind = "struct"
	KindClass     ElementKind = "class"
	KindInterface ElementKind = "interface"
	KindTrait     ElementKind = "trait"
	KindEnum      ElementKind = "enum"
	KindType      ElementKind = "type"
	KindConstant  ElementKind = "constant"
	KindVariable  ElementKind = "variable"
	KindImport    ElementKind = "import"
	KindExport    ElementKind = "export"
	KindComment   ElementKind = "comment"
)

// Visibility mirrors the language's own modifier system, normalized to a
// closed set. The Go strategy reports unexported names as Package. The
// generic strategy does not read modifier nodes: Rust and Java
// declarations are all reported Private (Java's no-modifier Package
// default is not reported), and JavaScript/TypeScript ones all Public.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
	VisibilityPackage   Visibility = "package"
)

// Location is a node's byte range plus (row,col) span, borrowed from the
// parse that produced it (spec.md §3, §9 open question #2).
type Location struct {
	StartByte uint
	EndByte   uint
	StartPos  astparse.Point
	EndPos    astparse.Point
}

// Parameter is one function/method parameter in source order.
type Parameter struct {
	Name     string
	Type     string // empty when the source omits a written type
	Default  string // empty when absent
	Optional bool
	Variadic bool
}

// FunctionPayload is the kind-specific payload for Function/Method elements.
type FunctionPayload struct {
	Parameters []Parameter
	ReturnType string
	Generics   []string
	Async      bool
	Unsafe     bool
	Const      bool
}

// Field is one struct/class field or enum variant.
type Field struct {
	Name       string
	Type       string
	Visibility Visibility
	Doc        string
}

// TypePayload is the kind-specific payload for struct/class/interface/
// trait/enum elements.
type TypePayload struct {
	Fields   []Field
	Generics []string
	Derives  []string
}

// CommentPayload is the kind-specific payload for Comment elements.
type CommentPayload struct {
	CommentKind string // "line", "block", "doc"
}

// ExtractedElement is one top-level declaration pulled out of a parsed
// tree, preserving its signature and (optionally) its documentation.
type ExtractedElement struct {
	Kind       ElementKind
	Name       string
	Visibility Visibility
	Location   Location
	Doc        string // empty when absent or dropped by PreserveDocs=false

	// Source is exactly the input bytes this element spans:
	// input[Location.StartByte:Location.EndByte]. With Config.ZeroCopy it
	// borrows the input that produced the tree (valid only against that
	// parse); otherwise it is an owned copy.
	Source []byte

	Function *FunctionPayload
	Type     *TypePayload
	Comment  *CommentPayload
}

// ElementFilter is applied after the built-in visibility filter: an
// Include match forces retention even if a prior filter would have
// dropped the element; an Exclude match removes it.
type ElementFilter struct {
	Kind      ElementKind
	NameRegex *regexp.Regexp
	Include   bool
}

func (f ElementFilter) matches(e ExtractedElement) bool {
	if f.Kind != "" && f.Kind != e.Kind {
		return false
	}
	if f.NameRegex != nil && !f.NameRegex.MatchString(e.Name) {
		return false
	}
	return true
}

// Config controls one Compact call.
type Config struct {
	TargetLanguage lang.Tag // empty: auto-detect
	PreserveDocs   bool
	SignaturesOnly bool
	IncludePrivate bool
	IncludeTypes   bool

	// ZeroCopy makes every ExtractedElement.Source a borrow of the
	// input buffer instead of an owned copy. Cheaper for large files,
	// but the slices are valid only as long as the caller neither
	// mutates nor discards the input.
	ZeroCopy bool

	MaxDepth            int // 0 means "no limit"
	Filters             []ElementFilter
	AllowMinifyFallback bool
}

// Metrics is returned alongside every successful CompactionResult.
type Metrics struct {
	OriginalSize     int
	CompactedSize    int
	CompressionRatio float64 // 1 - compacted/original; 0 when original == 0
	PerKindCounts    map[ElementKind]int
	ASTDepth         int
	NodeCount        int
}

// CompactionResult is the full output of a successful Compact call.
type CompactionResult struct {
	Language      lang.Tag
	Elements      []ExtractedElement
	CompactedText string
	Metrics       Metrics
}
