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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/codeweave/internal/lang"
)

const goSample = `package sample

// Add returns the sum of two integers.
func Add(a, b int) int {
	return a + b
}

func unexported() {
	println("hi")
}

type Point struct {
	X int
	Y int
}
`

func TestCompactGoDefaultConfig(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "sample.go", []byte(goSample), Config{
		PreserveDocs:   true,
		IncludeTypes:   true,
		IncludePrivate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, lang.Go, result.Language)

	var names []string
	for _, e := range result.Elements {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "Add")
	assert.Contains(t, names, "unexported")
	assert.Contains(t, names, "Point")
}

func TestCompactGoDocAttachment(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "sample.go", []byte(goSample), Config{
		PreserveDocs: true,
	})
	require.NoError(t, err)

	var add *ExtractedElement
	for i := range result.Elements {
		if result.Elements[i].Name == "Add" {
			add = &result.Elements[i]
		}
	}
	require.NotNil(t, add)
	assert.Contains(t, add.Doc, "Add returns the sum")
}

func TestCompactGoSignaturesOnlyDropsBody(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "sample.go", []byte(goSample), Config{
		SignaturesOnly: true,
	})
	require.NoError(t, err)
	assert.NotContains(t, result.CompactedText, `println("hi")`)
	assert.NotContains(t, result.CompactedText, "return a + b")
}

func TestCompactSignaturesOnlyNeverIncreasesSize(t *testing.T) {
	reg := lang.NewRegistry()
	full, err := Compact(reg, "sample.go", []byte(goSample), Config{IncludePrivate: true})
	require.NoError(t, err)
	sigs, err := Compact(reg, "sample.go", []byte(goSample), Config{IncludePrivate: true, SignaturesOnly: true})
	require.NoError(t, err)
	assert.LessOrEqual(t, sigs.Metrics.CompactedSize, full.Metrics.CompactedSize)
}

func TestCompactGoVisibilityFilterExcludesPrivateByDefault(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "sample.go", []byte(goSample), Config{
		IncludePrivate: false,
	})
	require.NoError(t, err)

	for _, e := range result.Elements {
		assert.NotEqual(t, "unexported", e.Name)
	}
}

func TestCompactEmptyInputReturnsEmptyInputError(t *testing.T) {
	reg := lang.NewRegistry()
	_, err := Compact(reg, "sample.go", nil, Config{})
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "EmptyInput", cerr.Kind)
}

func TestCompactInvalidEncodingReturnsInvalidEncodingError(t *testing.T) {
	reg := lang.NewRegistry()
	_, err := Compact(reg, "sample.go", []byte{0xff, 0xfe, 0x00}, Config{})
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "InvalidEncoding", cerr.Kind)
}

func TestCompactUnsupportedLanguageWithoutFallback(t *testing.T) {
	reg := lang.NewRegistry()
	_, err := Compact(reg, "Makefile", []byte("build:\n\techo hi\n"), Config{})
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "UnsupportedLanguage", cerr.Kind)
}

func TestCompactUnsupportedLanguageWithMinifyFallback(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "Makefile", []byte("# comment\n\nbuild:\n\techo hi\n"), Config{
		AllowMinifyFallback: true,
	})
	require.NoError(t, err)
	assert.Equal(t, lang.Make, result.Language)
	assert.NotContains(t, result.CompactedText, "# comment")
	assert.Contains(t, result.CompactedText, "build:")
}

func TestCompactElementFilterExcludeByName(t *testing.T) {
	reg := lang.NewRegistry()
	result, err := Compact(reg, "sample.go", []byte(goSample), Config{
		IncludePrivate: true,
		Filters: []ElementFilter{
			{Kind: KindFunction, NameRegex: mustRegex(t, "^Add$"), Include: false},
		},
	})
	require.NoError(t, err)
	for _, e := range result.Elements {
		assert.NotEqual(t, "Add", e.Name)
	}
}

// Span containment: source[element.location.start_byte..end_byte] must
// equal element.source, for every element, in both copy modes.
func TestCompactSpanContainment(t *testing.T) {
	reg := lang.NewRegistry()
	for _, zeroCopy := range []bool{false, true} {
		result, err := Compact(reg, "sample.go", []byte(goSample), Config{IncludePrivate: true, ZeroCopy: zeroCopy})
		require.NoError(t, err)
		require.NotEmpty(t, result.Elements)
		for _, e := range result.Elements {
			require.LessOrEqual(t, e.Location.StartByte, e.Location.EndByte)
			require.LessOrEqual(t, int(e.Location.EndByte), len(goSample))
			require.Equal(t, goSample[e.Location.StartByte:e.Location.EndByte], string(e.Source),
				"zero_copy=%v element %s", zeroCopy, e.Name)
		}
	}
}

// ZeroCopy gates whether element source slices alias the input buffer
// or are owned copies that survive the input being mutated.
func TestCompactZeroCopyControlsSourceAliasing(t *testing.T) {
	reg := lang.NewRegistry()

	input := append([]byte(nil), goSample...)
	borrowed, err := Compact(reg, "sample.go", input, Config{IncludePrivate: true, ZeroCopy: true})
	require.NoError(t, err)
	owned, err := Compact(reg, "sample.go", input, Config{IncludePrivate: true})
	require.NoError(t, err)
	require.NotEmpty(t, borrowed.Elements)

	el := borrowed.Elements[0]
	orig := input[el.Location.StartByte]
	input[el.Location.StartByte] = '#'

	assert.Equal(t, byte('#'), el.Source[0], "zero_copy slice aliases the input")
	assert.Equal(t, orig, owned.Elements[0].Source[0], "default slice is an owned copy")
}
