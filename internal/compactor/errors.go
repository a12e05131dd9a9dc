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

import "fmt"

// Error is the tagged error family for the compactor, matching the
// failure taxonomy in spec.md §4.4/§7. Partial successes are never
// returned: a Compact call either fully succeeds or returns one of these.
type Error struct {
	Kind   string
	Name   string // for UnsupportedLanguage
	Reason string // for ExtractionError
	Msg    string // for ParseError / InternalError
}

func (e *Error) Error() string {
	switch e.Kind {
	case "LanguageDetectionFailed":
		return "compactor: language detection failed"
	case "UnsupportedLanguage":
		return fmt.Sprintf("compactor: unsupported language: %s", e.Name)
	case "ParseError":
		return fmt.Sprintf("compactor: parse error: %s", e.Msg)
	case "ExtractionError":
		return fmt.Sprintf("compactor: extraction error (%s): %s", e.Name, e.Reason)
	case "InvalidEncoding":
		return "compactor: invalid encoding"
	case "EmptyInput":
		return "compactor: empty input"
	case "TraversalError":
		return fmt.Sprintf("compactor: traversal error: %s", e.Msg)
	default:
		return fmt.Sprintf("compactor: internal error: %s", e.Msg)
	}
}

func errLanguageDetectionFailed() error {
	return &Error{Kind: "LanguageDetectionFailed"}
}

func errUnsupportedLanguage(name string) error {
	return &Error{Kind: "UnsupportedLanguage", Name: name}
}

func errParseError(msg string) error {
	return &Error{Kind: "ParseError", Msg: msg}
}

func errExtraction(kind ElementKind, reason string) error {
	return &Error{Kind: "ExtractionError", Name: string(kind), Reason: reason}
}

func errInvalidEncoding() error {
	return &Error{Kind: "InvalidEncoding"}
}

func errEmptyInput() error {
	return &Error{Kind: "EmptyInput"}
}

func errTraversal(msg string) error {
	return &Error{Kind: "TraversalError", Msg: msg}
}
