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
	"bufio"
	"bytes"
	"strings"

	"github.com/teradata-labs/codeweave/internal/lang"
)

// MinifyUnsupported produces a best-effort CompactionResult for a
// language with no registered strategy (no grammar, or a grammar but no
// extraction table): it strips blank lines and whole-line comments using
// the registry's line-comment token, with no element extraction. This is
// the documented degraded path for cfg.AllowMinifyFallback (spec.md
// §4.4's fallback clause) rather than a silent failure.
func MinifyUnsupported(language lang.Tag, source []byte) (*CompactionResult, error) {
	lineComment := defaultLineComment(language)

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	kept := 0
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if lineComment != "" && strings.HasPrefix(trimmed, lineComment) {
			continue
		}
		if kept > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(trimmed)
		kept++
	}

	compacted := b.String()
	metrics := Metrics{
		OriginalSize:  len(source),
		CompactedSize: len(compacted),
		PerKindCounts: map[ElementKind]int{},
	}
	if metrics.OriginalSize > 0 {
		metrics.CompressionRatio = 1 - float64(metrics.CompactedSize)/float64(metrics.OriginalSize)
	}

	return &CompactionResult{
		Language:      language,
		Elements:      nil,
		CompactedText: compacted,
		Metrics:       metrics,
	}, nil
}

func defaultLineComment(language lang.Tag) string {
	switch language {
	case lang.Make, lang.Docker, lang.YAML, lang.Bash, lang.Ruby, lang.Python:
		return "#"
	case lang.JSON:
		return ""
	default:
		return "//"
	}
}
