// Package checker defines the contract every compliance rule implements and
// the registry the rule catalog populates.
//
// Checkers are pure: they see one parsed source file, static project
// configuration, and an excusal lookup. They perform no I/O and share no
// state, which makes them safe to run concurrently.
package checker

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/c360studio/checkup/checker/pysrc"
)

// PassScore is the minimum score for a passing per-rule verdict.
const PassScore = 75.0

// Excuser answers whether a violation of a rule at a line is excused.
// line 0 queries the rule for the file as a whole.
type Excuser func(ruleID string, line int) bool

// NeverExcused is the Excuser for runs without overrides.
func NeverExcused(string, int) bool { return false }

// Item is one internal check a rule performed.
type Item struct {
	// Name identifies the check within the rule.
	Name string `json:"name"`

	// Passed reports whether the check passed.
	Passed bool `json:"passed"`

	// Message describes the finding, or notes an excusal.
	Message string `json:"message,omitempty"`

	// Line is the source line the finding refers to (0 = whole file).
	Line int `json:"line,omitempty"`
}

// Outcome is the result of one checker against one file.
type Outcome struct {
	// RuleID identifies the checker that produced this outcome.
	RuleID string `json:"rule"`

	// Items are the individual checks performed.
	Items []Item `json:"items"`

	// Err is set when the checker itself failed to run. An errored outcome
	// scores zero so tool failure is never mistaken for compliance.
	Err string `json:"error,omitempty"`
}

// Score returns the percentage of items that passed. An empty item list is
// a full pass: an inapplicable rule must not penalize the file.
func (o Outcome) Score() float64 {
	if o.Err != "" {
		return 0
	}
	if len(o.Items) == 0 {
		return 100
	}
	passed := 0
	for _, item := range o.Items {
		if item.Passed {
			passed++
		}
	}
	return 100 * float64(passed) / float64(len(o.Items))
}

// Passed reports the per-rule verdict.
func (o Outcome) Passed() bool {
	return o.Score() >= PassScore
}

// RoundedScore returns the score rounded to two decimals, for rendering.
func (o Outcome) RoundedScore() float64 {
	return math.Round(o.Score()*100) / 100
}

// ProjectInfo is the static registry context a checker may consult.
type ProjectInfo struct {
	// ID is the owning project's identifier.
	ID string

	// Siblings lists the IDs of other registered projects, for boundary
	// checks.
	Siblings []string

	// Tiers overrides directory-to-tier classification.
	Tiers map[string]string
}

// Settings carries the configurable knobs individual checkers honor.
type Settings struct {
	// RequiredHeaderFields are the header-block fields documentation
	// completeness requires.
	RequiredHeaderFields []string

	// MaxFileLines is the module-size file length limit.
	MaxFileLines int

	// MaxFunctionLines is the module-size function length limit.
	MaxFunctionLines int
}

// Target is everything a checker sees about one file.
type Target struct {
	// Src is the parsed source file.
	Src *pysrc.File

	// Project is the owning project's static context.
	Project ProjectInfo

	// SiblingFiles lists file names in the target's directory and in a
	// tests/ directory beside it, gathered by the orchestrator so checkers
	// stay free of I/O.
	SiblingFiles []string

	// Settings are the configured checker knobs.
	Settings Settings
}

// Checker is the uniform contract every rule implements.
type Checker interface {
	// ID returns the stable rule identifier used in override files.
	ID() string

	// Describe returns a one-line summary of the standard enforced.
	Describe() string

	// Evaluate runs the rule against one file. Every internal check must
	// consult excuse before recording a failing item; an excused violation
	// is recorded as a passing item noting the excusal, never dropped.
	Evaluate(t *Target, excuse Excuser) Outcome
}

// Registry maintains the checker catalog. Rules register by ID; the
// orchestrator receives a snapshot, so tests can build catalogs of fakes
// without touching global state.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty checker registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a checker. Duplicate IDs are a programming error.
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checkers[c.ID()]; exists {
		panic(fmt.Sprintf("checker already registered: %s", c.ID()))
	}
	r.checkers[c.ID()] = c
}

// Get returns the checker with the given rule ID.
func (r *Registry) Get(id string) (Checker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkers[id]
	return c, ok
}

// All returns the catalog sorted by rule ID for deterministic dispatch.
func (r *Registry) All() []Checker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// DefaultRegistry is populated by the rule catalog's init functions.
// Import github.com/c360studio/checkup/checker/rules to fill it.
var DefaultRegistry = NewRegistry()
