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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/codeweave/internal/log"
)

// RegistryOptions configures a Registry's on-disk layout.
type RegistryOptions struct {
	GlobalDir    string
	ProjectDir   string // optional; "" disables project-local scanning
	TemplatesDir string // optional; "" disables template inheritance
	Logger       *zap.Logger
}

// Registry is the subagent registry (C5). It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	opts RegistryOptions
	log  *zap.Logger

	agents    map[string]*Config
	templates map[string]*Config
	modTimes  map[string]time.Time // file path -> last-seen mtime
}

// NewRegistry constructs a Registry and performs an initial load.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	r := &Registry{
		opts: opts,
		log:  log.OrNop(opts.Logger).Named("agentcfg"),
	}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load performs a full rescan: builtin templates, then the templates
// directory, then the global and project agent directories, resolving
// inheritance and checking for cross-directory name conflicts.
func (r *Registry) Load() error {
	templates := map[string]*Config{}
	modTimes := map[string]time.Time{}

	builtins, err := BuiltinTemplates()
	if err != nil {
		return err
	}
	for _, b := range builtins {
		templates[b.Name] = b
	}

	if r.opts.TemplatesDir != "" {
		if err := scanDir(r.opts.TemplatesDir, templates, modTimes); err != nil {
			return err
		}
	}

	globalAgents := map[string]*Config{}
	if r.opts.GlobalDir != "" {
		if err := scanDir(r.opts.GlobalDir, globalAgents, modTimes); err != nil {
			return err
		}
	}

	projectAgents := map[string]*Config{}
	if r.opts.ProjectDir != "" {
		if err := scanDir(r.opts.ProjectDir, projectAgents, modTimes); err != nil {
			return err
		}
	}

	merged := map[string]*Config{}
	for name, cfg := range globalAgents {
		merged[name] = cfg
	}
	for name, cfg := range projectAgents {
		if _, exists := merged[name]; exists {
			return &NameConflictError{Name: name}
		}
		merged[name] = cfg
	}

	// Builtins are pre-registered agents too, but on-disk agents of the
	// same name win (the builtin is shadowed, not a conflict).
	for name, cfg := range templates {
		if !cfg.builtin {
			continue
		}
		if _, exists := merged[name]; !exists {
			merged[name] = cfg
		}
	}

	// Templates no agent refers to are walked too, so a cycle among them
	// is reported at load time.
	for name, t := range templates {
		if t.builtin {
			continue
		}
		if _, err := resolveInheritance(name, templates, templates); err != nil {
			return err
		}
	}

	resolved := map[string]*Config{}
	for name := range merged {
		rc, err := resolveInheritance(name, merged, templates)
		if err != nil {
			return err
		}
		resolved[name] = rc
	}

	r.mu.Lock()
	r.agents = resolved
	r.templates = templates
	r.modTimes = modTimes
	r.mu.Unlock()

	return nil
}

// scanDir reads every *.yaml/*.yml file directly in dir, decodes it as a
// Config, and records the file's mtime. Subdirectories are not walked;
// spec.md's layout is a flat directory per source.
func scanDir(dir string, into map[string]*Config, modTimes map[string]time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("agentcfg: read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("agentcfg: stat %s: %w", path, err)
		}

		cfg, err := loadConfigFile(path)
		if err != nil {
			return err
		}
		cfg.sourcePath = path
		cfg.sourceModTime = info.ModTime()
		into[cfg.Name] = cfg
		modTimes[path] = info.ModTime()
	}
	return nil
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agentcfg: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("agentcfg: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// resolveInheritance walks name's parent chain (config.Template) against
// templates, merging child-wins, iteratively to avoid recursion per
// spec.md §9's design note.
func resolveInheritance(name string, agents, templates map[string]*Config) (*Config, error) {
	cfg, ok := agents[name]
	if !ok {
		cfg, ok = templates[name]
	}
	if !ok {
		return nil, &AgentNotFoundError{Name: name}
	}
	if cfg.Template == "" {
		return cfg, nil
	}

	chain := []string{name}
	current := cfg
	visited := map[string]bool{name: true}
	parentName := cfg.Template

	for parentName != "" {
		if visited[parentName] {
			chain = append(chain, parentName)
			return nil, &InheritanceLoopError{Chain: chain}
		}
		parent, ok := templates[parentName]
		if !ok {
			parent, ok = agents[parentName]
		}
		if !ok {
			return nil, &TemplateNotFoundError{Name: parentName}
		}
		chain = append(chain, parentName)
		visited[parentName] = true
		current = mergeChild(parent, current)
		parentName = parent.Template
	}

	return current, nil
}

// mergeChild applies child-wins semantics: scalar fields the child left
// at the zero value fall back to the parent's; map/list fields are
// unioned with the child's own entries taking precedence by key/name.
func mergeChild(parent, child *Config) *Config {
	merged := *child

	if merged.Description == "" {
		merged.Description = parent.Description
	}
	if merged.ModeOverride == ModeUnset {
		merged.ModeOverride = parent.ModeOverride
	}
	if merged.Intelligence == IntelligenceUnset {
		merged.Intelligence = parent.Intelligence
	}
	if merged.PromptTemplate == "" {
		merged.PromptTemplate = parent.PromptTemplate
	}
	if merged.TimeoutSeconds == 0 {
		merged.TimeoutSeconds = parent.TimeoutSeconds
	}
	if !merged.Chainable && parent.Chainable {
		merged.Chainable = parent.Chainable
	}
	if !merged.Parallelizable && parent.Parallelizable {
		merged.Parallelizable = parent.Parallelizable
	}

	merged.Tools = mergeMaps(parent.Tools, child.Tools)
	merged.Metadata = mergeMaps(parent.Metadata, child.Metadata)
	merged.Parameters = mergeParameters(parent.Parameters, child.Parameters)
	merged.FilePatterns = mergeStringSets(parent.FilePatterns, child.FilePatterns)
	merged.Tags = mergeStringSets(parent.Tags, child.Tags)

	return &merged
}

func mergeMaps[V any](parent, child map[string]V) map[string]V {
	out := make(map[string]V, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeParameters(parent, child []Parameter) []Parameter {
	seen := make(map[string]bool, len(child))
	out := make([]Parameter, 0, len(parent)+len(child))
	for _, p := range child {
		seen[p.Name] = true
		out = append(out, p)
	}
	for _, p := range parent {
		if !seen[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func mergeStringSets(parent, child []string) []string {
	seen := make(map[string]bool, len(child))
	out := make([]string, 0, len(parent)+len(child))
	for _, v := range child {
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range parent {
		if !seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// GetAgent returns the fully resolved configuration for name.
func (r *Registry) GetAgent(name string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.agents[name]
	if !ok {
		return nil, &AgentNotFoundError{Name: name}
	}
	return cfg, nil
}

// ListAgents returns every resolved agent configuration.
func (r *Registry) ListAgents() []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Config, 0, len(r.agents))
	for _, cfg := range r.agents {
		out = append(out, cfg)
	}
	return out
}

// AgentsForPath returns every agent whose file_patterns glob-match path.
func (r *Registry) AgentsForPath(path string) []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	base := filepath.Base(path)
	var out []*Config
	for _, cfg := range r.agents {
		for _, pattern := range cfg.FilePatterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				out = append(out, cfg)
				break
			}
		}
	}
	return out
}

// AgentsWithTags returns every agent carrying at least one of tags.
func (r *Registry) AgentsWithTags(tags []string) []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}

	var out []*Config
	for _, cfg := range r.agents {
		for _, t := range cfg.Tags {
			if want[t] {
				out = append(out, cfg)
				break
			}
		}
	}
	return out
}

// ReloadIfChanged re-stats every previously scanned file and rebuilds
// the registry if any mtime advanced past what was last seen. Returns
// whether a rebuild happened.
func (r *Registry) ReloadIfChanged() (bool, error) {
	r.mu.RLock()
	modTimes := make(map[string]time.Time, len(r.modTimes))
	for k, v := range r.modTimes {
		modTimes[k] = v
	}
	r.mu.RUnlock()

	changed := false
	for path, prev := range modTimes {
		info, err := os.Stat(path)
		if err != nil {
			changed = true // a tracked file disappeared
			break
		}
		if info.ModTime().After(prev) {
			changed = true
			break
		}
	}

	if !changed {
		return false, nil
	}
	if err := r.Load(); err != nil {
		return false, err
	}
	return true, nil
}

// Watch starts an fsnotify-backed watch over the global/project/templates
// directories and calls ReloadIfChanged on every write, create, remove
// or rename event,
// returning when ctx is cancelled. This is a convenience on top of the
// poll-based ReloadIfChanged, not a replacement for it.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("agentcfg: create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{r.opts.GlobalDir, r.opts.ProjectDir, r.opts.TemplatesDir} {
		if dir == "" {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			r.log.Warn("agentcfg: failed to watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if _, err := r.ReloadIfChanged(); err != nil {
				r.log.Error("agentcfg: reload failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("agentcfg: watcher error", zap.Error(err))
		}
	}
}
