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
	"unicode/utf8"

	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/asttree"
	"github.com/teradata-labs/codeweave/internal/lang"
)

// Registry is the subset of the language registry Compact needs: path/
// content detection plus a grammar-availability check. internal/lang's
// *Registry satisfies this.
type Registry interface {
	Detect(path string, content string) lang.Tag
	GrammarAvailable(t lang.Tag) bool
}

// Compact extracts declarations from source and renders a compacted
// textual form per cfg (spec.md §4.4). path is used only for language
// detection when cfg.TargetLanguage is empty; it may be "".
func Compact(reg Registry, path string, source []byte, cfg Config) (*CompactionResult, error) {
	if len(source) == 0 {
		return nil, errEmptyInput()
	}
	if !utf8.Valid(source) {
		return nil, errInvalidEncoding()
	}

	language := cfg.TargetLanguage
	if language == "" {
		language = reg.Detect(path, string(source))
	}
	if language == "" || language == lang.Unknown {
		return nil, errLanguageDetectionFailed()
	}

	if !reg.GrammarAvailable(language) {
		if cfg.AllowMinifyFallback {
			return MinifyUnsupported(language, source)
		}
		return nil, errUnsupportedLanguage(string(language))
	}

	strat, ok := strategyFor(language)
	if !ok {
		if cfg.AllowMinifyFallback {
			return MinifyUnsupported(language, source)
		}
		return nil, errUnsupportedLanguage(string(language))
	}

	parser, err := astparse.New(language)
	if err != nil {
		return nil, errParseError(err.Error())
	}
	defer parser.Close()

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, errParseError(err.Error())
	}
	defer tree.Close()

	root := tree.Root()
	treeStats := asttree.Statistics(root)

	if cfg.MaxDepth > 0 && treeStats.MaxDepth > cfg.MaxDepth {
		return nil, errTraversal("tree depth exceeds configured max_depth")
	}

	elements, bodyCuts, err := extractTopLevel(strat, root, source, cfg)
	if err != nil {
		return nil, err
	}

	elements, bodyCuts = applyFilters(elements, bodyCuts, cfg)

	compacted := render(strat, elements, bodyCuts, cfg)

	metrics := Metrics{
		OriginalSize:  len(source),
		CompactedSize: len(compacted),
		PerKindCounts: countByKind(elements),
		ASTDepth:      treeStats.MaxDepth,
		NodeCount:     treeStats.TotalNodes,
	}
	if metrics.OriginalSize > 0 {
		metrics.CompressionRatio = 1 - float64(metrics.CompactedSize)/float64(metrics.OriginalSize)
	}

	return &CompactionResult{
		Language:      language,
		Elements:      elements,
		CompactedText: compacted,
		Metrics:       metrics,
	}, nil
}

// bodyCut records, per extracted element, the byte offset where a
// function/method body starts (ok is false when inapplicable or
// unknown). render uses it to splice in the statement terminator under
// SignaturesOnly instead of re-scanning rendered text for a body
// delimiter.
type bodyCut struct {
	start uint
	ok    bool
}

// extractTopLevel walks the immediate children of root (and, for
// comment nodes that precede a declaration, attaches them as that
// declaration's Doc per spec.md §4.4's doc-attachment rule) producing
// one ExtractedElement per recognized top-level node.
func extractTopLevel(strat strategy, root astparse.Node, source []byte, cfg Config) ([]ExtractedElement, []bodyCut, error) {
	kinds := strat.topLevelKinds()
	count := root.ChildCount()

	var elements []ExtractedElement
	var cuts []bodyCut
	var pendingDoc strings.Builder
	havePendingDoc := false

	for i := uint(0); i < count; i++ {
		child := root.Child(i)
		kind, recognized := kinds[child.Kind()]
		if !recognized {
			continue
		}

		if kind == KindComment {
			text := string(child.Text())
			if cfg.PreserveDocs && strat.isDocComment(text) {
				if havePendingDoc {
					pendingDoc.WriteByte('\n')
				}
				pendingDoc.WriteString(text)
				havePendingDoc = true
			} else {
				havePendingDoc = false
				pendingDoc.Reset()
			}
			continue
		}

		el, cut, err := buildElement(strat, child, kind, source, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.PreserveDocs && havePendingDoc {
			el.Doc = pendingDoc.String()
		}
		havePendingDoc = false
		pendingDoc.Reset()

		elements = append(elements, el)
		cuts = append(cuts, cut)
	}

	return elements, cuts, nil
}

func buildElement(strat strategy, n astparse.Node, kind ElementKind, source []byte, cfg Config) (ExtractedElement, bodyCut, error) {
	src := n.Text()
	if !cfg.ZeroCopy {
		src = append([]byte(nil), src...)
	}
	el := ExtractedElement{
		Kind: kind,
		Name: strat.name(n),
		Location: Location{
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			StartPos:  n.StartPosition(),
			EndPos:    n.EndPosition(),
		},
		Source: src,
	}
	el.Visibility = strat.visibility(n, source)

	var cut bodyCut
	switch kind {
	case KindFunction, KindMethod:
		el.Function = strat.functionPayload(n, source)
		if start, _, ok := strat.bodyRange(n); ok {
			cut = bodyCut{start: start, ok: true}
		}
	case KindStruct, KindClass, KindInterface, KindTrait, KindEnum, KindType:
		if cfg.IncludeTypes {
			el.Type = strat.typePayload(n, source)
		}
	}

	if n.HasError() {
		return el, cut, errExtraction(kind, "declaration contains a syntax error node")
	}

	return el, cut, nil
}

// applyFilters drops elements by visibility first (built-in), then
// applies cfg.Filters in order: an Include match overrides a prior
// drop, an Exclude match removes regardless of visibility. bodyCuts is
// filtered in lockstep so render can still find each survivor's cut.
func applyFilters(elements []ExtractedElement, bodyCuts []bodyCut, cfg Config) ([]ExtractedElement, []bodyCut) {
	outEl := elements[:0:0]
	outCuts := bodyCuts[:0:0]
	for i, e := range elements {
		keep := cfg.IncludePrivate || e.Visibility == VisibilityPublic

		for _, f := range cfg.Filters {
			if !f.matches(e) {
				continue
			}
			keep = f.Include
		}

		if keep {
			outEl = append(outEl, e)
			outCuts = append(outCuts, bodyCuts[i])
		}
	}
	return outEl, outCuts
}

func countByKind(elements []ExtractedElement) map[ElementKind]int {
	counts := make(map[ElementKind]int)
	for _, e := range elements {
		counts[e.Kind]++
	}
	return counts
}

// render rebuilds a textual form from the surviving elements in source
// order. With SignaturesOnly, a function/method body is replaced by the
// language's statement terminator so the output is free of
// implementation detail while keeping the declaration parseable-looking.
func render(strat strategy, elements []ExtractedElement, bodyCuts []bodyCut, cfg Config) string {
	var b strings.Builder
	for idx, e := range elements {
		if idx > 0 {
			b.WriteString("\n\n")
		}
		if cfg.PreserveDocs && e.Doc != "" {
			b.WriteString(e.Doc)
			b.WriteByte('\n')
		}

		if cfg.SignaturesOnly && (e.Kind == KindFunction || e.Kind == KindMethod) {
			cut := bodyCuts[idx]
			term := strat.statementTerminator()
			start, end := e.Location.StartByte, e.Location.EndByte
			if cut.ok && term != "" && cut.start >= start && cut.start <= end {
				b.Write(e.Source[:cut.start-start])
				b.WriteString(term)
				continue
			}
		}
		b.Write(e.Source)
	}
	return b.String()
}
