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

// Command codeweave is a thin smoke-test wiring of the core packages:
// it is not a product surface (spec §1 excludes a CLI/TUI/MCP layer).
// Given a source file, it detects its language, compacts it, and
// prints the result; given an invocation string, it parses the
// execution plan it describes. Every session/orchestration call below
// exercises internal/sessionstore, internal/sessionmgr,
// internal/agentcfg, and internal/orchestrator end to end against a
// throwaway directory so the wiring itself is the thing under test.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teradata-labs/codeweave/internal/agentcfg"
	"github.com/teradata-labs/codeweave/internal/astparse"
	"github.com/teradata-labs/codeweave/internal/compactor"
	"github.com/teradata-labs/codeweave/internal/invocation"
	"github.com/teradata-labs/codeweave/internal/lang"
	"github.com/teradata-labs/codeweave/internal/orchestrator"
	"github.com/teradata-labs/codeweave/internal/sessionmgr"
	"github.com/teradata-labs/codeweave/internal/sessionstore"
)

func main() {
	var (
		file        = flag.String("file", "", "source file to compact")
		invocStr    = flag.String("invocation", "", "@agent invocation string to parse")
		stateDir    = flag.String("state-dir", "", "directory for session storage (defaults to a temp dir)")
	)
	flag.Parse()

	if *file != "" {
		if err := runCompact(*file); err != nil {
			fmt.Fprintln(os.Stderr, "compact:", err)
			os.Exit(1)
		}
	}

	if *invocStr != "" {
		if err := runInvocation(*invocStr); err != nil {
			fmt.Fprintln(os.Stderr, "invocation:", err)
			os.Exit(1)
		}
	}

	if *file == "" && *invocStr == "" {
		if err := runDemo(*stateDir); err != nil {
			fmt.Fprintln(os.Stderr, "demo:", err)
			os.Exit(1)
		}
	}
}

func runCompact(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	registry := lang.NewRegistry()
	result, err := compactor.Compact(registry, path, source, compactor.Config{PreserveDocs: true})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d bytes (%.1f%% smaller), %d elements\n",
		path, result.Metrics.OriginalSize, result.Metrics.CompactedSize, result.Metrics.CompressionRatio*100, len(result.Elements))
	fmt.Println(result.CompactedText)
	return nil
}

func runInvocation(text string) error {
	plan, err := invocation.Parse(text)
	if err != nil {
		return err
	}
	fmt.Printf("plan kind=%s context=%q steps=%d\n", plan.ExecutionPlan.Kind, plan.Context, len(plan.ExecutionPlan.Steps))
	for _, step := range plan.ExecutionPlan.Steps {
		for _, call := range step.Calls {
			fmt.Printf("  @%s %v\n", call.Name, call.Params)
		}
	}
	return nil
}

// echoExecutor is the smoke test's Executor: it has no model client
// behind it (that's the non-goal "HTTP client against model providers"),
// it just echoes the agent's name and the invocation's free-form text
// back as its output.
type echoExecutor struct{}

func (echoExecutor) Execute(_ context.Context, cfg *agentcfg.Config, actx orchestrator.AgentContext) (string, error) {
	return fmt.Sprintf("[%s] %s", cfg.Name, actx.FreeText), nil
}

func runDemo(dir string) error {
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "codeweave-demo-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
	}

	registry, err := agentcfg.NewRegistry(agentcfg.RegistryOptions{})
	if err != nil {
		return err
	}

	mgr := orchestrator.NewManager(orchestrator.Config{Registry: registry, Executor: echoExecutor{}})
	astCache := astparse.NewCache()
	ctx := context.Background()
	defer mgr.Shutdown(ctx)
	out, err := mgr.RunSingle(ctx, "code-reviewer", orchestrator.AgentContext{FreeText: "review main.go", Tools: astCache})
	if err != nil {
		return err
	}
	fmt.Println("agent output:", out)

	sqlIdx, err := sessionstore.NewSQLiteIndex(filepath.Join(dir, "sessions.db"))
	if err != nil {
		return err
	}
	defer sqlIdx.Close()

	store, err := sessionstore.NewStore(sessionstore.Config{BaseDir: dir, Index: sqlIdx})
	if err != nil {
		return err
	}
	sessions := sessionmgr.New(sessionmgr.Config{Store: store, AutoSaveInterval: 0})
	meta, err := sessions.CreateSession("demo session")
	if err != nil {
		return err
	}
	conv, state, err := sessions.Snapshot(meta.ID)
	if err != nil {
		return err
	}
	conv.Messages = append(conv.Messages, sessionstore.MessageSnapshot{Index: 0, Timestamp: time.Now()})
	if err := sessions.Mutate(meta.ID, conv, state); err != nil {
		return err
	}
	if err := sessions.Save(meta.ID); err != nil {
		return err
	}
	fmt.Printf("saved session %s (%d messages)\n", meta.ID, len(conv.Messages))

	hits := store.Search("demo")
	fmt.Printf("search %q: %d hits\n", "demo", len(hits))
	return nil
}
