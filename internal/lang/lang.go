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

// Package lang is the language registry (C1): it maps a file path or a
// content sniff to a Tag, and exposes each tag's grammar availability
// and comment syntax to the parser (internal/astparse) and compactor
// (internal/compactor). The grammar handles themselves live in
// internal/astparse.
package lang

import (
	"strings"
)

// Tag is a closed enumeration of supported languages plus Unknown.
type Tag string

const (
	Unknown    Tag = ""
	Go         Tag = "go"
	Rust       Tag = "rust"
	Python     Tag = "python"
	JavaScript Tag = "javascript"
	TypeScript Tag = "typescript"
	Java       Tag = "java"
	Make       Tag = "make"
	Docker     Tag = "docker"
	JSON       Tag = "json"
	YAML       Tag = "yaml"
	Bash       Tag = "bash"
	Ruby       Tag = "ruby"
)

// Capabilities is a capability bit set describing what the registry can do
// with a language beyond detection.
type Capabilities struct {
	SupportsAST     bool
	IsCompiled      bool
	IsStronglyTyped bool
}

// CommentSyntax carries a language's single-line comment token and an
// optional block-comment delimiter pair.
type CommentSyntax struct {
	Line       string
	BlockStart string
	BlockEnd   string
}

// HasBlock reports whether the language defines a block-comment form.
func (c CommentSyntax) HasBlock() bool {
	return c.BlockStart != "" && c.BlockEnd != ""
}

// Descriptor is everything the registry knows about one language tag.
// Invariant (spec §3): every tag the parser can produce has a registered
// Descriptor, and GrammarAvailable is true only when internal/astparse has
// a tree-sitter grammar wired for it (§5 of SPEC_FULL.md).
type Descriptor struct {
	Tag              Tag
	Name             string
	Extensions       []string // lowercase, without leading dot
	ExactFilenames   []string // lowercase exact filename matches, e.g. "makefile"
	Comment          CommentSyntax
	Capabilities     Capabilities
	GrammarAvailable bool
}

// DetectionError reports why path detection could not resolve a
// language; content detection never returns an error.
type DetectionError struct {
	Kind string // "NoMatch"
	Path string
}

func (e *DetectionError) Error() string {
	if e.Path != "" {
		return "language detection: " + e.Kind + ": " + e.Path
	}
	return "language detection: " + e.Kind
}

// Registry holds the closed set of language descriptors and performs
// path/content detection. It is read-only after construction and safe for
// concurrent use without additional locking.
type Registry struct {
	byTag   map[Tag]*Descriptor
	byExt   map[string]*Descriptor
	byExact map[string]*Descriptor
}

// NewRegistry builds the registry with the built-in descriptor set.
func NewRegistry() *Registry {
	r := &Registry{
		byTag:   make(map[Tag]*Descriptor),
		byExt:   make(map[string]*Descriptor),
		byExact: make(map[string]*Descriptor),
	}
	for _, d := range builtinDescriptors() {
		d := d
		r.byTag[d.Tag] = &d
		for _, ext := range d.Extensions {
			r.byExt[ext] = &d
		}
		for _, name := range d.ExactFilenames {
			r.byExact[name] = &d
		}
	}
	return r
}

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Tag: Go, Name: "Go",
			Extensions: []string{"go"},
			Comment:    CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: true, IsStronglyTyped: true},
			GrammarAvailable: true,
		},
		{
			Tag: Rust, Name: "Rust",
			Extensions: []string{"rs"},
			Comment:    CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: true, IsStronglyTyped: true},
			GrammarAvailable: true,
		},
		{
			Tag: Python, Name: "Python",
			Extensions: []string{"py", "pyi"},
			Comment:    CommentSyntax{Line: "#"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: false, IsStronglyTyped: false},
			GrammarAvailable: true,
		},
		{
			Tag: JavaScript, Name: "JavaScript",
			Extensions: []string{"js", "mjs", "cjs", "jsx"},
			Comment:    CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: false, IsStronglyTyped: false},
			GrammarAvailable: true,
		},
		{
			Tag: TypeScript, Name: "TypeScript",
			Extensions: []string{"ts", "tsx"},
			Comment:    CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: false, IsStronglyTyped: true},
			GrammarAvailable: true,
		},
		{
			Tag: Java, Name: "Java",
			Extensions: []string{"java"},
			Comment:    CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"},
			Capabilities: Capabilities{SupportsAST: true, IsCompiled: true, IsStronglyTyped: true},
			GrammarAvailable: true,
		},
		{
			Tag: Make, Name: "Make",
			ExactFilenames: []string{"makefile", "gnumakefile"},
			Extensions:     []string{"mk"},
			Comment:        CommentSyntax{Line: "#"},
			Capabilities:   Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
		{
			Tag: Docker, Name: "Docker",
			ExactFilenames: []string{"dockerfile"},
			Extensions:     []string{"dockerfile"},
			Comment:        CommentSyntax{Line: "#"},
			Capabilities:   Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
		{
			Tag: JSON, Name: "JSON",
			Extensions:   []string{"json"},
			Capabilities: Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
		{
			Tag: YAML, Name: "YAML",
			Extensions:   []string{"yaml", "yml"},
			Comment:      CommentSyntax{Line: "#"},
			Capabilities: Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
		{
			Tag: Bash, Name: "Bash",
			Extensions:   []string{"sh", "bash"},
			Comment:      CommentSyntax{Line: "#"},
			Capabilities: Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
		{
			Tag: Ruby, Name: "Ruby",
			Extensions:   []string{"rb"},
			Comment:      CommentSyntax{Line: "#"},
			Capabilities: Capabilities{SupportsAST: false},
			GrammarAvailable: false,
		},
	}
}

// DetectByPath tries an exact (lowercased) filename match first, so
// extensionless names like Makefile/Dockerfile resolve before extension
// matching is attempted. Extension matching is case-insensitive.
func (r *Registry) DetectByPath(path string) (Tag, error) {
	base := path
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		base = path[i+1:]
	}
	lowerBase := strings.ToLower(base)

	if d, ok := r.byExact[lowerBase]; ok {
		return d.Tag, nil
	}

	ext := ""
	if i := strings.LastIndex(lowerBase, "."); i >= 0 && i < len(lowerBase)-1 {
		ext = lowerBase[i+1:]
	}
	if ext != "" {
		if d, ok := r.byExt[ext]; ok {
			return d.Tag, nil
		}
	}
	return Unknown, &DetectionError{Kind: "NoMatch", Path: path}
}

// DetectByContent inspects the first ten lines of text for a shebang or a
// fixed per-language pattern trigger, falling back to structural hints
// (braces for JSON, indented "key:" lines for YAML). Returns Unknown (no
// error) when nothing matches — content detection is a fallback, not an
// authoritative source, per spec.md §4.1.
func (r *Registry) DetectByContent(text string) Tag {
	lines := firstNLines(text, 10)
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		if t := detectShebang(lines[0]); t != Unknown {
			return t
		}
	}

	joined := strings.Join(lines, "\n")
	switch {
	case strings.Contains(joined, "fn main()") && strings.Contains(joined, "use std::"):
		return Rust
	case strings.Contains(joined, "package main") && strings.Contains(joined, "func main()"):
		return Go
	case strings.Contains(joined, "public class") && strings.Contains(joined, "public static void main"):
		return Java
	case strings.Contains(joined, "def ") && strings.Contains(joined, ":"):
		return Python
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return JSON
	}
	if looksLikeYAML(lines) {
		return YAML
	}
	return Unknown
}

func detectShebang(shebangLine string) Tag {
	interp := strings.TrimPrefix(shebangLine, "#!")
	switch {
	case strings.Contains(interp, "python"):
		return Python
	case strings.Contains(interp, "bash") || strings.Contains(interp, "/sh") || strings.HasSuffix(interp, "sh"):
		return Bash
	case strings.Contains(interp, "ruby"):
		return Ruby
	case strings.Contains(interp, "node"):
		return JavaScript
	}
	return Unknown
}

func looksLikeYAML(lines []string) bool {
	indentedColon := 0
	for _, l := range lines {
		if l == "" {
			continue
		}
		trimmed := strings.TrimLeft(l, " ")
		indent := len(l) - len(trimmed)
		if indent >= 2 && strings.Contains(trimmed, ":") {
			indentedColon++
		}
	}
	return indentedColon >= 2
}

func firstNLines(text string, n int) []string {
	var out []string
	start := 0
	for i := 0; i < len(text) && len(out) < n; i++ {
		if text[i] == '\n' {
			out = append(out, text[start:i])
			start = i + 1
		}
	}
	if len(out) < n && start <= len(text) {
		out = append(out, text[start:])
	}
	return out
}

// Detect resolves path first, falling back to content detection — path
// takes precedence per spec.md §4.1's documented resolution order.
func (r *Registry) Detect(path string, content string) Tag {
	if path != "" {
		if t, err := r.DetectByPath(path); err == nil {
			return t
		}
	}
	return r.DetectByContent(content)
}

// Descriptor returns the full descriptor for a tag, or nil if unknown.
func (r *Registry) Descriptor(t Tag) *Descriptor {
	return r.byTag[t]
}

// UnsupportedError is returned by astparse.New when the tag has no
// grammar handle registered.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return "unsupported language: " + e.Name
}

// GrammarAvailable reports whether internal/astparse can parse this tag.
func (r *Registry) GrammarAvailable(t Tag) bool {
	d := r.byTag[t]
	return d != nil && d.GrammarAvailable
}
