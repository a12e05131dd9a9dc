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
	"unicode"

	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/lang"
)

func init() {
	registerStrategy(lang.Go, goStrategy{})
}

// goStrategy extracts Go top-level declarations. Go has no private/public
// keywords: visibility is derived from identifier case, defaulting
// lowercase names to Package visibility rather than Private, since an
// unexported Go identifier is visible package-wide (spec.md §4.4).
type goStrategy struct{}

func (goStrategy) topLevelKinds() map[string]ElementKind {
	return map[string]ElementKind{
		"function_declaration": KindFunction,
		"method_declaration":   KindMethod,
		"type_declaration":     KindType,
		"const_declaration":    KindConstant,
		"var_declaration":      KindVariable,
		"import_declaration":   KindImport,
		"comment":              KindComment,
	}
}

func (goStrategy) name(n astparse.Node) string {
	switch n.Kind() {
	case "function_declaration", "method_declaration":
		return textOrEmpty(n.ChildByFieldName("name"))
	case "type_declaration":
		return textOrEmpty(firstChildOfKind(n, "type_spec").ChildByFieldName("name"))
	case "const_declaration", "var_declaration":
		spec := firstChildOfKind(n, "const_spec")
		if !spec.Valid() {
			spec = firstChildOfKind(n, "var_spec")
		}
		return textOrEmpty(firstChildOfKind(spec, "identifier"))
	}
	return ""
}

func (goStrategy) visibility(n astparse.Node, source []byte) Visibility {
	name := goStrategy{}.name(n)
	if name == "" {
		return VisibilityPackage
	}
	r := []rune(name)[0]
	if unicode.IsUpper(r) {
		return VisibilityPublic
	}
	return VisibilityPackage
}

func (goStrategy) isDocComment(commentText string) bool {
	return strings.HasPrefix(strings.TrimSpace(commentText), "//")
}

func (goStrategy) bodyRange(n astparse.Node) (uint, uint, bool) {
	body := n.ChildByFieldName("body")
	if !body.Valid() {
		return 0, 0, false
	}
	return body.StartByte(), body.EndByte(), true
}

func (goStrategy) statementTerminator() string {
	return ";"
}

func (goStrategy) functionPayload(n astparse.Node, source []byte) *FunctionPayload {
	fp := &FunctionPayload{}

	params := n.ChildByFieldName("parameters")
	count := params.ChildCount()
	for i := uint(0); i < count; i++ {
		child := params.Child(i)
		if child.Kind() != "parameter_declaration" && child.Kind() != "variadic_parameter_declaration" {
			continue
		}
		p := Parameter{Variadic: child.Kind() == "variadic_parameter_declaration"}
		if nameNode := child.ChildByFieldName("name"); nameNode.Valid() {
			p.Name = string(nameNode.Text())
		}
		if typeNode := child.ChildByFieldName("type"); typeNode.Valid() {
			p.Type = string(typeNode.Text())
		}
		fp.Parameters = append(fp.Parameters, p)
	}

	if result := n.ChildByFieldName("result"); result.Valid() {
		fp.ReturnType = strings.TrimSpace(string(result.Text()))
	}

	return fp
}

func (goStrategy) typePayload(n astparse.Node, source []byte) *TypePayload {
	spec := firstChildOfKind(n, "type_spec")
	if !spec.Valid() {
		return &TypePayload{}
	}
	typeNode := spec.ChildByFieldName("type")
	tp := &TypePayload{}
	if typeNode.Kind() != "struct_type" {
		return tp
	}
	fieldList := firstChildOfKind(typeNode, "field_declaration_list")
	count := fieldList.ChildCount()
	for i := uint(0); i < count; i++ {
		fd := fieldList.Child(i)
		if fd.Kind() != "field_declaration" {
			continue
		}
		fieldName := firstChildOfKind(fd, "field_identifier")
		if !fieldName.Valid() {
			continue
		}
		name := string(fieldName.Text())
		vis := VisibilityPackage
		if len(name) > 0 && unicode.IsUpper([]rune(name)[0]) {
			vis = VisibilityPublic
		}
		fieldType := ""
		if typeField := fd.ChildByFieldName("type"); typeField.Valid() {
			fieldType = string(typeField.Text())
		}
		tp.Fields = append(tp.Fields, Field{Name: name, Type: fieldType, Visibility: vis})
	}
	return tp
}

// textOrEmpty is a small ergonomic helper: an invalid Node's Text() is
// already nil, but spelling this out keeps call sites readable.
func textOrEmpty(n astparse.Node) string { return string(n.Text()) }

func firstChildOfKind(n astparse.Node, kind string) astparse.Node {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		if c := n.Child(i); c.Kind() == kind {
			return c
		}
	}
	return astparse.Node{}
}
