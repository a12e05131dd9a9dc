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

package invocation

import (
	"sort"
	"strings"
)

// String serializes c back into "@name key=value ..." form. Params are
// emitted in sorted key order so repeated calls on the same Call
// produce identical text regardless of map iteration order.
func (c Call) String() string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(c.Name)

	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Params[k])
	}
	return b.String()
}

// String serializes s back into "+"-joined call text.
func (s Step) String() string {
	parts := make([]string, len(s.Calls))
	for i, call := range s.Calls {
		parts[i] = call.String()
	}
	return strings.Join(parts, " + ")
}

// String serializes e back into "→"-joined step text.
func (e ExecutionPlan) String() string {
	parts := make([]string, len(e.Steps))
	for i, step := range e.Steps {
		parts[i] = step.String()
	}
	return strings.Join(parts, " → ")
}

// Serialize renders p back into invocation-grammar text: context
// first (if any), then the execution plan. Re-parsing the result
// yields a ParsedInvocation whose ExecutionPlan, Context, and
// ModeOverride are equal to p's — the universal round-trip property
// spec.md §8 asks for — but the text itself is not guaranteed
// byte-identical to whatever original input produced p, since
// whitespace and param key order are not preserved (key=value params
// are serialized in sorted key order, and positional params round-trip
// as the key=value form they parse back to — "arg0=foo" reparses to
// the same synthetic key the original positional token would have).
func (p *ParsedInvocation) Serialize() string {
	var b strings.Builder
	if p.Context != "" {
		b.WriteString(p.Context)
	}
	if planText := p.ExecutionPlan.String(); planText != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(planText)
	}
	return b.String()
}
