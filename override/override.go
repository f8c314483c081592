// Package override loads per-project override files and answers whether a
// specific violation is excused.
//
// Overrides are human-authored: the engine only reads them and, for projects
// that lack one, scaffolds an empty document so every project auto-onboards
// into the mechanism. The engine never writes rule entries.
package override

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SchemaVersion is the current override document schema version.
	SchemaVersion = 1

	// Dir is the per-project directory holding the override file.
	Dir = ".checkup"

	// FileName is the override file name inside Dir.
	FileName = "overrides.yaml"
)

// Rule is one exemption: it excuses a specific file (optionally specific
// lines) from a specific checker.
type Rule struct {
	// File is the target path, relative to the project root.
	File string `yaml:"file"`

	// RuleID identifies the checker being excused.
	RuleID string `yaml:"rule"`

	// Lines restricts the exemption to violations reported at these lines.
	// Empty means the entire rule is excused for the file.
	Lines []int `yaml:"lines,omitempty"`

	// Pattern documents what the exemption covers. Never evaluated.
	Pattern string `yaml:"pattern,omitempty"`

	// Reason is the mandatory justification.
	Reason string `yaml:"reason"`
}

// Set is the full collection of override rules for one project.
type Set struct {
	Version     int       `yaml:"version"`
	CreatedAt   time.Time `yaml:"created_at"`
	Description string    `yaml:"description,omitempty"`
	Rules       []Rule    `yaml:"rules"`

	// path is where the set was loaded from, for error reporting.
	path string
}

// Path returns the file the set was loaded from.
func (s *Set) Path() string { return s.path }

// IsExcused reports whether a violation of ruleID in relPath at the given
// line is excused. line 0 queries the file as a whole. First match wins.
func (s *Set) IsExcused(relPath, ruleID string, line int) bool {
	relPath = filepath.ToSlash(relPath)
	for _, r := range s.Rules {
		if filepath.ToSlash(r.File) != relPath || r.RuleID != ruleID {
			continue
		}
		if len(r.Lines) == 0 {
			return true
		}
		for _, l := range r.Lines {
			if l == line {
				return true
			}
		}
		// A line-scoped rule matched the file but not the line. Later
		// entries may still excuse it.
	}
	return false
}

// WholeFileExcused reports whether a rule excuses relPath from ruleID
// entirely (a matching entry with no line numbers).
func (s *Set) WholeFileExcused(relPath, ruleID string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, r := range s.Rules {
		if filepath.ToSlash(r.File) == relPath && r.RuleID == ruleID && len(r.Lines) == 0 {
			return true
		}
	}
	return false
}

// Warning is an override hygiene finding from Lint. Warnings never affect
// excusal; first-match-wins stands regardless.
type Warning struct {
	Index   int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("rule %d: %s", w.Index, w.Message)
}

// Lint reports hygiene problems in a set: missing reasons, absolute target
// paths, and duplicate entries that can never win under first-match-wins.
func Lint(s *Set) []Warning {
	var warnings []Warning

	type key struct{ file, rule string }
	seenWhole := make(map[key]int)   // file+rule with no lines → index
	seenLine := make(map[string]int) // file+rule+line → index

	for i, r := range s.Rules {
		if r.Reason == "" {
			warnings = append(warnings, Warning{i, fmt.Sprintf("missing reason for %s/%s", r.File, r.RuleID)})
		}
		if filepath.IsAbs(r.File) {
			warnings = append(warnings, Warning{i, fmt.Sprintf("file %q must be relative to the project root", r.File)})
		}

		k := key{filepath.ToSlash(r.File), r.RuleID}
		if len(r.Lines) == 0 {
			if prev, ok := seenWhole[k]; ok {
				warnings = append(warnings, Warning{i, fmt.Sprintf("duplicate whole-file override for %s/%s (shadowed by rule %d)", r.File, r.RuleID, prev)})
			} else {
				seenWhole[k] = i
			}
			continue
		}
		if prev, ok := seenWhole[k]; ok {
			warnings = append(warnings, Warning{i, fmt.Sprintf("line-scoped override for %s/%s is shadowed by whole-file rule %d", r.File, r.RuleID, prev)})
		}
		for _, l := range r.Lines {
			lk := fmt.Sprintf("%s|%s|%d", k.file, k.rule, l)
			if prev, ok := seenLine[lk]; ok {
				warnings = append(warnings, Warning{i, fmt.Sprintf("line %d of %s/%s already covered by rule %d", l, r.File, r.RuleID, prev)})
			} else {
				seenLine[lk] = i
			}
		}
	}

	return warnings
}

// parseSet decodes an override document.
func parseSet(path string, data []byte) (*Set, error) {
	set := &Set{}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse override file %s: %w", path, err)
	}
	set.path = path
	return set, nil
}
