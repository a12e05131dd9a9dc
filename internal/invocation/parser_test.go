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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleCall(t *testing.T) {
	inv, err := Parse("@reviewer check the auth module")
	require.NoError(t, err)
	assert.Equal(t, PlanSingle, inv.ExecutionPlan.Kind)
	require.Len(t, inv.ExecutionPlan.Steps, 1)
	require.Len(t, inv.ExecutionPlan.Steps[0].Calls, 1)

	call := inv.ExecutionPlan.Steps[0].Calls[0]
	assert.Equal(t, "reviewer", call.Name)
	assert.Equal(t, "check", call.Params["arg0"])
	assert.Equal(t, "the", call.Params["arg1"])
	assert.Equal(t, "auth", call.Params["arg2"])
	assert.Equal(t, "module", call.Params["arg3"])
}

func TestParseSequentialChain(t *testing.T) {
	inv, err := Parse("@scout → @reviewer → @fixer")
	require.NoError(t, err)
	assert.Equal(t, PlanSequential, inv.ExecutionPlan.Kind)
	require.Len(t, inv.ExecutionPlan.Steps, 3)
	names := stepNames(inv.ExecutionPlan.Steps)
	assert.Equal(t, []string{"scout", "reviewer", "fixer"}, names)
}

func TestParseSequentialChainAsciiArrow(t *testing.T) {
	inv, err := Parse("@scout -> @reviewer")
	require.NoError(t, err)
	assert.Equal(t, PlanSequential, inv.ExecutionPlan.Kind)
}

func TestParseParallelChains(t *testing.T) {
	inv, err := Parse("@scout + @performance")
	require.NoError(t, err)
	assert.Equal(t, PlanParallel, inv.ExecutionPlan.Kind)
	require.Len(t, inv.ExecutionPlan.Steps, 1)
	assert.Len(t, inv.ExecutionPlan.Steps[0].Calls, 2)
}

// TestParseMixedPlan uses spec.md §8 scenario 3's literal fixture: the
// worked example says this input produces
// Mixed[Single(code-reviewer), Parallel([refactorer, test-writer])]
// with empty free context, not a pair of equal-weight chains run
// concurrently with each other.
func TestParseMixedPlan(t *testing.T) {
	inv, err := Parse("@code-reviewer files=src/main.rs → @refactorer + @test-writer")
	require.NoError(t, err)
	assert.Equal(t, PlanMixed, inv.ExecutionPlan.Kind)
	assert.Empty(t, inv.Context)

	require.Len(t, inv.ExecutionPlan.Steps, 2)

	step0 := inv.ExecutionPlan.Steps[0]
	require.Len(t, step0.Calls, 1)
	assert.Equal(t, "code-reviewer", step0.Calls[0].Name)
	assert.Equal(t, "src/main.rs", step0.Calls[0].Params["files"])

	step1 := inv.ExecutionPlan.Steps[1]
	require.Len(t, step1.Calls, 2)
	assert.Equal(t, "refactorer", step1.Calls[0].Name)
	assert.Equal(t, "test-writer", step1.Calls[1].Name)
}

func TestParseKeyValueParams(t *testing.T) {
	inv, err := Parse("@reviewer files=auth.go severity=high")
	require.NoError(t, err)
	call := inv.ExecutionPlan.Steps[0].Calls[0]
	assert.Equal(t, "auth.go", call.Params["files"])
	assert.Equal(t, "high", call.Params["severity"])
}

func TestParseLeadingContextPreserved(t *testing.T) {
	inv, err := Parse("please take a look: @reviewer")
	require.NoError(t, err)
	assert.Equal(t, "please take a look:", inv.Context)
}

func TestParseNoCallsIsAllContext(t *testing.T) {
	inv, err := Parse("just some free-form notes")
	require.NoError(t, err)
	assert.Empty(t, inv.ExecutionPlan.Steps)
	assert.Equal(t, "just some free-form notes", inv.Context)
}

func TestParseCircularDependencyRejected(t *testing.T) {
	_, err := Parse("@reviewer → @scout → @reviewer")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindCircularDependency, verr.Kind)
	assert.Equal(t, []string{"reviewer", "scout", "reviewer"}, verr.Chain)
}

func TestParseCircularDependencyNotCheckedAcrossParallelChains(t *testing.T) {
	inv, err := Parse("@reviewer + @reviewer")
	require.NoError(t, err)
	assert.Equal(t, PlanParallel, inv.ExecutionPlan.Kind)
}

func TestParseUnknownAgentNamesNotRejected(t *testing.T) {
	_, err := Parse("@definitely-not-a-real-agent")
	require.NoError(t, err)
}

func TestParseModeOverrideInferredFromParam(t *testing.T) {
	inv, err := Parse("@reviewer mode=plan")
	require.NoError(t, err)
	assert.EqualValues(t, "plan", inv.ModeOverride)
}

func TestParseSeparatedExpressionsFoldIntoOnePlan(t *testing.T) {
	inv, err := Parse("@scout files=a.go, @reviewer")
	require.NoError(t, err)
	require.Len(t, inv.ExecutionPlan.Steps, 2)
	assert.Equal(t, "scout", inv.ExecutionPlan.Steps[0].Calls[0].Name)
	assert.Equal(t, "a.go", inv.ExecutionPlan.Steps[0].Calls[0].Params["files"])
	assert.Equal(t, "reviewer", inv.ExecutionPlan.Steps[1].Calls[0].Name)
}

func TestParseAttachedPunctuationIsNotASeparator(t *testing.T) {
	inv, err := Parse("@scout files=a.go,b.go")
	require.NoError(t, err)
	require.Len(t, inv.ExecutionPlan.Steps, 1)
	assert.Equal(t, "a.go,b.go", inv.ExecutionPlan.Steps[0].Calls[0].Params["files"])
}

func TestParseTrailingPlusIsSyntaxError(t *testing.T) {
	_, err := Parse("@reviewer +")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindSyntax, verr.Kind)
}

func TestParseEachCallGetsFreshIDAndPreservesOriginalInput(t *testing.T) {
	input := "@scout → @reviewer"
	inv1, err := Parse(input)
	require.NoError(t, err)
	inv2, err := Parse(input)
	require.NoError(t, err)
	assert.NotEqual(t, inv1.ID, inv2.ID)
	assert.Equal(t, input, inv1.OriginalInput)
}

// stepNames assumes every step is a singleton, as a sequential chain's
// steps always are.
func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Calls[0].Name
	}
	return names
}
