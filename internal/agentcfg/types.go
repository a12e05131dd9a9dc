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

// Package agentcfg is the subagent registry (C5): it loads agent
// configuration documents from a global directory and an optional
// project-local directory, resolves template inheritance, and answers
// name/path/tag lookups for internal/orchestrator.
package agentcfg

import "time"

// Mode is the agent's operating-mode override, if any.
type Mode string

const (
	ModeUnset  Mode = ""
	ModePlan   Mode = "plan"
	ModeBuild  Mode = "build"
	ModeReview Mode = "review"
)

// Intelligence is the configured model-tier hint for an agent.
type Intelligence string

const (
	IntelligenceUnset  Intelligence = ""
	IntelligenceLight  Intelligence = "light"
	IntelligenceMedium Intelligence = "medium"
	IntelligenceHard   Intelligence = "hard"
)

// ToolPermission is the access level granted for one named tool.
type ToolPermission string

const (
	PermissionRead    ToolPermission = "read"
	PermissionWrite   ToolPermission = "write"
	PermissionExecute ToolPermission = "execute"
)

// Parameter is one declared invocation parameter an agent accepts.
type Parameter struct {
	Name          string   `yaml:"name"`
	Required      bool     `yaml:"required"`
	Default       string   `yaml:"default"`
	AllowedValues []string `yaml:"allowed_values"`
}

// Config is one agent's fully resolved configuration: the on-disk
// document after template inheritance has been applied.
type Config struct {
	Name            string                    `yaml:"name"`
	Description     string                    `yaml:"description"`
	ModeOverride    Mode                      `yaml:"mode"`
	Intelligence    Intelligence              `yaml:"intelligence"`
	Tools           map[string]ToolPermission `yaml:"tools"`
	PromptTemplate  string                    `yaml:"prompt"`
	Parameters      []Parameter               `yaml:"parameters"`
	Template        string                    `yaml:"template"`
	TimeoutSeconds  int                       `yaml:"timeout_seconds"`
	Chainable       bool                      `yaml:"chainable"`
	Parallelizable  bool                      `yaml:"parallelizable"`
	Metadata        map[string]string         `yaml:"metadata"`
	FilePatterns    []string                  `yaml:"file_patterns"`
	Tags            []string                  `yaml:"tags"`

	// Placeholders is meaningful only on template documents: the
	// substitution names a child agent's prompt may reference.
	Placeholders    []string                  `yaml:"placeholders"`

	// sourcePath and sourceModTime are populated by the loader, not the
	// document itself. ReloadIfChanged does not read sourceModTime; it
	// compares the registry's own per-path modification times against a
	// fresh os.Stat.
	sourcePath    string
	sourceModTime time.Time
	builtin       bool
}

// Timeout returns the configured timeout, defaulting to 5 minutes.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
