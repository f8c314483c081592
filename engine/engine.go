// Package engine orchestrates a compliance check: it resolves a file's
// owning project, loads that project's overrides, dispatches the checker
// catalog concurrently, and aggregates the outcomes into a report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/checkup/checker"
	"github.com/c360studio/checkup/checker/pysrc"
	"github.com/c360studio/checkup/metrics"
	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

// Report is the aggregate of all checker outcomes for one file.
// It is ephemeral: computed fresh on every invocation, never persisted by
// the engine.
type Report struct {
	// ID identifies this run.
	ID string `json:"id"`

	// File is the checked path relative to the project root.
	File string `json:"file"`

	// AbsPath is the absolute path that was read.
	AbsPath string `json:"abs_path"`

	// Project is the owning project's identifier.
	Project string `json:"project"`

	// Outcomes holds one entry per checker, sorted by rule ID.
	Outcomes []checker.Outcome `json:"outcomes"`

	// GeneratedAt is when the check ran.
	GeneratedAt time.Time `json:"generated_at"`
}

// Overall returns the arithmetic mean of all outcome scores.
func (r *Report) Overall() float64 {
	if len(r.Outcomes) == 0 {
		return 100
	}
	sum := 0.0
	for _, o := range r.Outcomes {
		sum += o.Score()
	}
	return sum / float64(len(r.Outcomes))
}

// RoundedOverall returns Overall rounded to two decimals, for rendering.
// Verdicts compare the unrounded value.
func (r *Report) RoundedOverall() float64 {
	return math.Round(r.Overall()*100) / 100
}

// Passed reports the overall verdict against a threshold.
func (r *Report) Passed(threshold float64) bool {
	return r.Overall() >= threshold
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds concurrent checker execution.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSettings sets the checker settings passed to every rule.
func WithSettings(s checker.Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// Engine runs the checker catalog against single files. The catalog and
// both resolvers are injected, so tests can run with fakes.
type Engine struct {
	registry  *registry.Registry
	overrides *override.Resolver
	catalog   []checker.Checker
	settings  checker.Settings
	workers   int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an engine over a registry, an override resolver, and a
// checker catalog.
func New(reg *registry.Registry, overrides *override.Resolver, catalog []checker.Checker, opts ...Option) *Engine {
	e := &Engine{
		registry:  reg,
		overrides: overrides,
		catalog:   catalog,
		workers:   runtime.NumCPU(),
		logger:    slog.Default(),
		settings: checker.Settings{
			RequiredHeaderFields: []string{"Module", "Purpose"},
			MaxFileLines:         500,
			MaxFunctionLines:     75,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check runs every registered checker against one file.
//
// Checker failures are isolated: a rule that panics is recorded as a
// zero-score outcome for that rule alone and the rest of the catalog still
// runs. Only resolution, override-loading, and file-read errors fail the
// whole call.
func (e *Engine) Check(ctx context.Context, filePath string) (*Report, error) {
	start := time.Now()

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", filePath, err)
	}

	project, err := e.registry.Resolve(abs)
	if err != nil {
		return nil, err
	}

	set, err := e.overrides.LoadOrCreate(project.Root)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	rel, err := filepath.Rel(project.Root, abs)
	if err != nil {
		rel = abs
	}
	rel = filepath.ToSlash(rel)

	src := pysrc.Parse(ctx, rel, content)
	target := &checker.Target{
		Src: src,
		Project: checker.ProjectInfo{
			ID:       project.ID,
			Siblings: e.registry.Siblings(project.ID),
			Tiers:    project.Tiers,
		},
		SiblingFiles: siblingFiles(abs),
		Settings:     e.settings,
	}
	excuse := func(ruleID string, line int) bool {
		return set.IsExcused(rel, ruleID, line)
	}

	outcomes := make([]checker.Outcome, len(e.catalog))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, c := range e.catalog {
		g.Go(func() error {
			outcomes[i] = e.runChecker(c, target, set, rel, excuse)
			return nil
		})
	}
	// Workers never return errors; failures become scored outcomes.
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].RuleID < outcomes[j].RuleID })

	report := &Report{
		ID:          uuid.New().String(),
		File:        rel,
		AbsPath:     abs,
		Project:     project.ID,
		Outcomes:    outcomes,
		GeneratedAt: time.Now(),
	}

	if e.metrics != nil {
		e.metrics.CheckDuration.Observe(time.Since(start).Seconds())
	}
	e.logger.Debug("checked file",
		slog.String("file", rel),
		slog.String("project", project.ID),
		slog.Float64("score", report.RoundedOverall()))

	return report, nil
}

// runChecker executes one checker with panic isolation and wholesale
// excusal short-circuiting.
func (e *Engine) runChecker(c checker.Checker, target *checker.Target, set *override.Set, rel string, excuse checker.Excuser) (outcome checker.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("checker panicked",
				slog.String("rule", c.ID()),
				slog.String("file", rel),
				slog.Any("panic", r))
			outcome = checker.Outcome{
				RuleID: c.ID(),
				Err:    fmt.Sprintf("checker crashed: %v", r),
				Items: []checker.Item{{
					Name:    "internal",
					Passed:  false,
					Message: fmt.Sprintf("checker crashed: %v", r),
				}},
			}
		}
		if e.metrics != nil {
			e.metrics.ObserveOutcome(c.ID(), outcome.Passed(), outcome.Err != "")
		}
	}()

	// A wholesale-excused checker never runs its internal checks.
	if set.WholeFileExcused(rel, c.ID()) {
		return checker.Outcome{
			RuleID: c.ID(),
			Items: []checker.Item{{
				Name:    "excused",
				Passed:  true,
				Message: "rule excused for entire file by override",
			}},
		}
	}

	return c.Evaluate(target, excuse)
}

// siblingFiles lists file names next to the target and in a tests/
// directory beside it, for the test-presence rule. Listing failures yield
// an empty slice; the rule then reports what it can.
func siblingFiles(abs string) []string {
	var names []string
	dir := filepath.Dir(abs)
	for _, d := range []string{dir, filepath.Join(dir, "tests"), filepath.Join(filepath.Dir(dir), "tests")} {
		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".py") {
				names = append(names, entry.Name())
			}
		}
	}
	return names
}
