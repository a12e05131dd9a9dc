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
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teradata-labs/codeweave/internal/agentcfg"
)

// modeParamKey is the reserved params key used to infer mode_override:
// spec.md's grammar doesn't name a dedicated production for it, so
// codeweave reads it off the first call whose mode param is plan, build
// or review.
const modeParamKey = "mode"

type parser struct {
	toks    []token
	pos     int
	context []string
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

// skipContext absorbs leading free-form words into the shared context,
// per spec.md §4.6: "the substring of the input that lies outside all
// @… calls is preserved as the invocation's free-form context".
func (p *parser) skipContext() {
	for p.peek().kind == tokWord {
		p.context = append(p.context, p.next().text)
	}
}

func (p *parser) parseCall() (Call, error) {
	p.skipContext()
	tok := p.peek()
	if tok.kind != tokAt {
		return Call{}, errSyntax(fmt.Sprintf("expected '@name' but found %s", describeToken(tok)))
	}
	p.next()
	if tok.text == "" {
		return Call{}, errSyntax("'@' must be followed by an agent name")
	}

	call := Call{Name: tok.text, Params: map[string]string{}}
	argIdx := 0
	for p.peek().kind == tokWord {
		w := p.next().text
		if key, val, ok := splitParam(w); ok {
			call.Params[key] = val
		} else {
			call.Params[fmt.Sprintf("arg%d", argIdx)] = w
			argIdx++
		}
	}
	return call, nil
}

// parseStep parses one "+"-joined group of calls: spec.md §3's
// "Parallel set" when it has more than one call, a lone invocation
// otherwise. "+" binds tighter than "→" (see §4.6/§8 scenario 3): the
// calls either side of a "+" always belong to the same step.
func (p *parser) parseStep() (Step, error) {
	first, err := p.parseCall()
	if err != nil {
		return Step{}, err
	}
	calls := []Call{first}
	for p.peek().kind == tokPlus {
		p.next()
		next, err := p.parseCall()
		if err != nil {
			return Step{}, err
		}
		calls = append(calls, next)
	}
	return Step{Calls: calls}, nil
}

// parseSteps parses the top-level "→"-joined list of steps that makes
// up an ExecutionPlan.
func (p *parser) parseSteps() ([]Step, error) {
	first, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps := []Step{first}
	for p.peek().kind == tokArrow {
		p.next()
		next, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, next)
	}
	return steps, nil
}

func describeToken(t token) string {
	switch t.kind {
	case tokArrow:
		return "'→'"
	case tokPlus:
		return "'+'"
	case tokSep:
		return fmt.Sprintf("separator %q", t.text)
	case tokEOF:
		return "end of input"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// Parse parses one invocation line into a ParsedInvocation. An input
// with no "@name" calls at all is not an error: the whole line becomes
// context and ExecutionPlan.Steps is empty. Standalone ","/"."/"?"
// punctuation separates multiple expressions in one line; their steps
// are folded into a single sequential plan, so the chain-duplication
// check applies across the whole line.
func Parse(input string) (*ParsedInvocation, error) {
	toks := lex(input)
	p := &parser{toks: toks}

	var steps []Step
	for {
		p.skipContext()
		if p.peek().kind == tokEOF {
			break
		}
		if p.peek().kind == tokSep {
			p.next()
			continue
		}
		more, err := p.parseSteps()
		if err != nil {
			return nil, err
		}
		steps = append(steps, more...)
	}

	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	plan := ExecutionPlan{Steps: steps}
	if len(steps) == 0 {
		plan.Kind = ""
	} else {
		plan.Kind = classify(steps)
	}

	return &ParsedInvocation{
		ID:            uuid.NewString(),
		OriginalInput: input,
		ExecutionPlan: plan,
		Context:       strings.Join(p.context, " "),
		ModeOverride:  inferModeOverride(steps),
	}, nil
}

// validateSteps rejects an agent name reused along the plan's
// sequential spine (spec.md §3: "in any chain, no two steps name the
// same agent"). A name may repeat freely among the calls of a single
// parallel step — that repetition is never checked against itself,
// only against names already committed by an earlier step — which is
// why "@reviewer + @reviewer" never trips this check while
// "@reviewer → @scout → @reviewer" does.
func validateSteps(steps []Step) error {
	seen := make(map[string]bool)
	var trail []string
	for _, step := range steps {
		added := make(map[string]bool, len(step.Calls))
		for _, call := range step.Calls {
			trail = append(trail, call.Name)
			if seen[call.Name] {
				return errCircularDependency(trail)
			}
			added[call.Name] = true
		}
		for name := range added {
			seen[name] = true
		}
	}
	return nil
}

func inferModeOverride(steps []Step) agentcfg.Mode {
	for _, step := range steps {
		for _, call := range step.Calls {
			if v, ok := call.Params[modeParamKey]; ok {
				switch agentcfg.Mode(v) {
				case agentcfg.ModePlan, agentcfg.ModeBuild, agentcfg.ModeReview:
					return agentcfg.Mode(v)
				}
			}
		}
	}
	return agentcfg.ModeUnset
}
