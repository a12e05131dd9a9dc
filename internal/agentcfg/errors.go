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

package agentcfg

import (
	"fmt"
	"strings"
)

// NameConflictError is returned when the same agent name is defined in
// both the global and project-local directories.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("agentcfg: agent name conflict: %s", e.Name)
}

// InheritanceLoopError reports a cycle in the template parent chain.
type InheritanceLoopError struct {
	Chain []string
}

func (e *InheritanceLoopError) Error() string {
	return fmt.Sprintf("agentcfg: template inheritance loop: %s", strings.Join(e.Chain, " -> "))
}

// TemplateNotFoundError reports a named parent template with no
// matching template document.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("agentcfg: template not found: %s", e.Name)
}

// AgentNotFoundError is returned by get_agent for an unknown name.
type AgentNotFoundError struct {
	Name string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agentcfg: agent not found: %s", e.Name)
}
