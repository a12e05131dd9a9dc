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

// Package astparse is the incremental parser (C2). It maintains, for one
// language, a single live parse tree plus the last-seen source, reusing
// unchanged subtrees across edits via the underlying tree-sitter grammar.
//
// A Parser instance is not shared across concurrent callers — it is cheap
// to construct, and the orchestration model (spec.md §5) expects one
// instance per task operating on disjoint input.
package astparse

import (
	"errors"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teradata-labs/codeweave/internal/lang"
)

// ErrParseFailed is returned when the underlying grammar produces no tree.
var ErrParseFailed = errors.New("astparse: parse failed")

// InvalidEditError reports a TextEdit that violates the ordering invariants
// documented in spec.md §4.2.
type InvalidEditError struct {
	Reason string
	Edit   TextEdit
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("astparse: invalid edit (%s): %+v", e.Reason, e.Edit)
}

// Point is a (row, column) position, zero-indexed, matching tree-sitter's
// convention.
type Point struct {
	Row    uint
	Column uint
}

// TextEdit describes a single incremental change to apply to a prior tree
// before reparsing. old_end_byte >= start_byte and new_end_* must be
// monotone with their "old" counterparts; Parser.ParseWithEdits rejects
// edits that violate this with an *InvalidEditError.
type TextEdit struct {
	StartByte    uint
	OldEndByte   uint
	NewEndByte   uint
	StartPos     Point
	OldEndPos    Point
	NewEndPos    Point
}

func (e TextEdit) validate() error {
	if e.OldEndByte < e.StartByte {
		return &InvalidEditError{Reason: "old_end_byte < start_byte", Edit: e}
	}
	if e.NewEndByte < e.StartByte {
		return &InvalidEditError{Reason: "new_end_byte < start_byte", Edit: e}
	}
	return nil
}

func (e TextEdit) toInputEdit() tree_sitter.InputEdit {
	return tree_sitter.InputEdit{
		StartByte:      e.StartByte,
		OldEndByte:     e.OldEndByte,
		NewEndByte:     e.NewEndByte,
		StartPosition:  tree_sitter.Point{Row: e.StartPos.Row, Column: e.StartPos.Column},
		OldEndPosition: tree_sitter.Point{Row: e.OldEndPos.Row, Column: e.OldEndPos.Column},
		NewEndPosition: tree_sitter.Point{Row: e.NewEndPos.Row, Column: e.NewEndPos.Column},
	}
}

// Parser owns one grammar handle and the most recently parsed tree+source
// for a single language.
type Parser struct {
	language lang.Tag
	ts       *tree_sitter.Parser
	tree     *tree_sitter.Tree
	source   []byte
}

// New constructs a Parser for the given language tag. Returns
// *lang.UnsupportedError if the registry has no grammar for the tag.
func New(t lang.Tag) (*Parser, error) {
	grammar := grammarOf(t)
	if grammar == nil {
		return nil, &lang.UnsupportedError{Name: string(t)}
	}

	ts := tree_sitter.NewParser()
	if err := ts.SetLanguage(grammar); err != nil {
		return nil, fmt.Errorf("astparse: set language %s: %w", t, err)
	}

	return &Parser{language: t, ts: ts}, nil
}

// Close releases the underlying grammar/parser resources. Must be called
// once the Parser is no longer needed.
func (p *Parser) Close() {
	if p.tree != nil {
		p.tree.Close()
		p.tree = nil
	}
	if p.ts != nil {
		p.ts.Close()
	}
}

// Language returns the tag this parser was constructed for.
func (p *Parser) Language() lang.Tag {
	return p.language
}

// Parse performs a full parse, replacing any prior tree.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	tree := p.ts.Parse(source, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	if p.tree != nil {
		p.tree.Close()
	}
	p.tree = tree
	p.source = source
	return &Tree{ts: tree.Clone(), source: source, language: p.language}, nil
}

// ParseWithEdits applies edits to the retained prior tree (if any), then
// reparses against newSource. The grammar is expected to reuse subtrees
// whose byte ranges are untouched by any edit. If there is no prior tree,
// this behaves like Parse.
func (p *Parser) ParseWithEdits(newSource []byte, edits []TextEdit) (*Tree, error) {
	for _, e := range edits {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}

	if p.tree != nil {
		for _, e := range edits {
			edit := e.toInputEdit()
			p.tree.Edit(&edit)
		}
	}

	tree := p.ts.Parse(newSource, p.tree)
	if tree == nil {
		return nil, ErrParseFailed
	}
	if p.tree != nil {
		p.tree.Close()
	}
	p.tree = tree
	p.source = newSource
	return &Tree{ts: tree.Clone(), source: newSource, language: p.language}, nil
}

// Reset drops the prior tree and cached source so the next Parse call is a
// full parse rather than an incremental one.
func (p *Parser) Reset() {
	if p.tree != nil {
		p.tree.Close()
		p.tree = nil
	}
	p.source = nil
}
