// Package registry maps files to the projects that own them.
//
// The project registry is a YAML document maintained outside this engine;
// from here it is read-only. Ownership resolution is longest-prefix: the
// entry whose root covers the target path with the most path segments wins,
// so a nested sub-project takes precedence over its enclosing parent.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for registry operations.
var (
	// ErrNoOwner indicates no registry entry's root is a prefix of the path.
	ErrNoOwner = errors.New("no registered project owns path")
	// ErrProjectNotFound indicates an unknown project identifier.
	ErrProjectNotFound = errors.New("project not found")
)

// Project is one row of the project registry.
type Project struct {
	// ID is the unique project identifier.
	ID string `yaml:"id"`

	// Root is the project's root filesystem path.
	Root string `yaml:"root"`

	// Description provides additional context about the project.
	Description string `yaml:"description,omitempty"`

	// MinScore is the project's audit floor. Zero means "use the engine
	// threshold".
	MinScore float64 `yaml:"min_score,omitempty"`

	// Tiers overrides directory-to-tier classification for this project
	// (directory name → entry|orchestration|implementation).
	Tiers map[string]string `yaml:"tiers,omitempty"`

	// Metadata carries arbitrary key/value annotations.
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// registryDoc is the on-disk shape of the registry file.
type registryDoc struct {
	Version  int        `yaml:"version"`
	Projects []*Project `yaml:"projects"`
}

// Registry is the loaded set of project entries.
type Registry struct {
	path     string
	projects []*Project
	byID     map[string]*Project
}

// Load reads a registry document from path.
// Exact duplicate roots make ownership ambiguous and are rejected;
// nested roots (parent/child) are the normal case and are allowed.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var doc registryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	r := &Registry{
		path: path,
		byID: make(map[string]*Project),
	}

	seenRoots := make(map[string]string) // normalized root → project ID
	for i, p := range doc.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("registry %s: entry %d has no id", path, i)
		}
		if p.Root == "" {
			return nil, fmt.Errorf("registry %s: project %q has no root", path, p.ID)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("registry %s: duplicate project id %q", path, p.ID)
		}

		root, err := filepath.Abs(p.Root)
		if err != nil {
			return nil, fmt.Errorf("registry %s: project %q root: %w", path, p.ID, err)
		}
		root = filepath.Clean(root)
		if prev, dup := seenRoots[root]; dup {
			return nil, fmt.Errorf("registry %s: projects %q and %q share root %s", path, prev, p.ID, root)
		}
		seenRoots[root] = p.ID

		entry := *p
		entry.Root = root
		r.projects = append(r.projects, &entry)
		r.byID[entry.ID] = &entry
	}

	return r, nil
}

// New builds a registry directly from entries. Used by tests and by callers
// that assemble registries programmatically.
func New(projects ...*Project) *Registry {
	r := &Registry{byID: make(map[string]*Project)}
	for _, p := range projects {
		entry := *p
		entry.Root = filepath.Clean(entry.Root)
		r.projects = append(r.projects, &entry)
		r.byID[entry.ID] = &entry
	}
	return r
}

// Path returns the location the registry was loaded from.
func (r *Registry) Path() string { return r.path }

// Get returns the project with the given identifier.
func (r *Registry) Get(id string) (*Project, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// All returns every registered project, sorted by ID for stable output.
func (r *Registry) All() []*Project {
	out := make([]*Project, len(r.projects))
	copy(out, r.projects)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve maps a file path to its owning project. The entry whose root is a
// path-prefix of filePath with the greatest number of segments wins. Returns
// ErrNoOwner when no entry's root covers the path.
func (r *Registry) Resolve(filePath string) (*Project, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", filePath, err)
	}
	abs = filepath.Clean(abs)

	var best *Project
	bestDepth := -1
	for _, p := range r.projects {
		if !isPathPrefix(p.Root, abs) {
			continue
		}
		depth := segmentCount(p.Root)
		if depth > bestDepth {
			best = p
			bestDepth = depth
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOwner, abs)
	}
	return best, nil
}

// Siblings returns the IDs of every project other than id.
func (r *Registry) Siblings(id string) []string {
	var out []string
	for _, p := range r.All() {
		if p.ID != id {
			out = append(out, p.ID)
		}
	}
	return out
}

// isPathPrefix reports whether root is a whole-segment prefix of path.
// "/repo/wid" must not claim "/repo/widgets/main.py".
func isPathPrefix(root, path string) bool {
	if root == path {
		return true
	}
	if !strings.HasPrefix(path, root) {
		return false
	}
	return path[len(root)] == filepath.Separator || root == string(filepath.Separator)
}

func segmentCount(path string) int {
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) {
		return 0
	}
	return strings.Count(clean, string(filepath.Separator))
}
