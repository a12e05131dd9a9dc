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
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed embedded/*.yaml
var embeddedTemplates embed.FS

// BuiltinTemplates decodes the engine's shipped default agent
// configurations (code-reviewer, performance). The registry loads these
// before scanning the on-disk directories; an on-disk agent of the same
// name replaces the builtin whole (no field-by-field merge).
func BuiltinTemplates() ([]*Config, error) {
	entries, err := embeddedTemplates.ReadDir("embedded")
	if err != nil {
		return nil, fmt.Errorf("agentcfg: read embedded templates: %w", err)
	}

	var out []*Config
	for _, entry := range entries {
		data, err := embeddedTemplates.ReadFile("embedded/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("agentcfg: read embedded template %s: %w", entry.Name(), err)
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("agentcfg: decode embedded template %s: %w", entry.Name(), err)
		}
		cfg.builtin = true
		out = append(out, &cfg)
	}
	return out, nil
}
