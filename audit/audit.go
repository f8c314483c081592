// Package audit walks whole projects, runs the compliance engine against
// every eligible file, and rolls the results up into per-rule averages and
// a ranked worst-offenders list.
package audit

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/checkup/engine"
	"github.com/c360studio/checkup/metrics"
	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

// RuleAverage is one rule's mean score across a project's files.
type RuleAverage struct {
	RuleID  string  `json:"rule"`
	Average float64 `json:"average"`
}

// Offender is a file's weakest rule, used for the ranked worst list.
type Offender struct {
	File   string  `json:"file"`
	RuleID string  `json:"rule"`
	Score  float64 `json:"score"`
}

// SkippedFile records a file the audit could not evaluate, and why.
// Skips are always reported; dropping them silently would inflate scores.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// FileResult pairs a file with its checklist report.
type FileResult struct {
	File    string         `json:"file"`
	Overall float64        `json:"overall"`
	Report  *engine.Report `json:"report,omitempty"`
}

// ProjectResult is the rollup for one project.
type ProjectResult struct {
	ID string `json:"id"`

	// Err is set when project-level configuration failed; the project's
	// files were not audited but other projects continue.
	Err string `json:"error,omitempty"`

	// MinScore is the floor the project was judged against.
	MinScore float64 `json:"min_score"`

	// Average is the mean overall score across audited files.
	Average float64 `json:"average"`

	// Passed reports Average >= MinScore (with no configuration error).
	Passed bool `json:"passed"`

	RuleAverages   []RuleAverage `json:"rule_averages,omitempty"`
	Files          []FileResult  `json:"files,omitempty"`
	WorstOffenders []Offender    `json:"worst_offenders,omitempty"`
	Skipped        []SkippedFile `json:"skipped,omitempty"`

	overrideWarnings []string
}

// Report is the aggregate of an audit run. Ephemeral, computed on demand.
type Report struct {
	ID           string          `json:"id"`
	Projects     []ProjectResult `json:"projects"`
	TotalFiles   int             `json:"total_files"`
	TotalSkipped int             `json:"total_skipped"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Passed reports whether every audited project met its floor.
func (r *Report) Passed() bool {
	for _, p := range r.Projects {
		if !p.Passed {
			return false
		}
	}
	return true
}

// OverrideWarnings flattens override hygiene findings across projects.
func (r *Report) OverrideWarnings() []string {
	var out []string
	for _, p := range r.Projects {
		for _, w := range p.overrideWarnings {
			out = append(out, p.ID+": "+w)
		}
	}
	return out
}

// Options configures an Auditor.
type Options struct {
	// Include are doublestar patterns for eligible files, relative to the
	// project root.
	Include []string

	// Ignore lists directory names (or doublestar patterns) pruned before
	// descent.
	Ignore []string

	// Workers bounds concurrent file checks.
	Workers int

	// Threshold is the default project floor when the registry entry sets
	// none.
	Threshold float64

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Auditor runs bulk compliance audits.
type Auditor struct {
	engine    *engine.Engine
	registry  *registry.Registry
	overrides *override.Resolver
	opts      Options
}

// New creates an auditor over an engine and registry. The override
// resolver may be nil; override hygiene linting is then skipped.
func New(e *engine.Engine, reg *registry.Registry, overrides *override.Resolver, opts Options) *Auditor {
	if len(opts.Include) == 0 {
		opts.Include = []string{"**/*.py"}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Threshold == 0 {
		opts.Threshold = 75
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Auditor{engine: e, registry: reg, overrides: overrides, opts: opts}
}

// Audit runs the engine over one project, or over every registered project
// when projectID is empty. Configuration failure in one project aborts
// only that project's scope.
func (a *Auditor) Audit(ctx context.Context, projectID string) (*Report, error) {
	start := time.Now()

	var projects []*registry.Project
	if projectID == "" {
		projects = a.registry.All()
	} else {
		p, err := a.registry.Get(projectID)
		if err != nil {
			return nil, err
		}
		projects = []*registry.Project{p}
	}

	report := &Report{ID: uuid.New().String(), GeneratedAt: time.Now()}
	for _, p := range projects {
		result := a.auditProject(ctx, p)
		report.Projects = append(report.Projects, result)
		report.TotalFiles += len(result.Files)
		report.TotalSkipped += len(result.Skipped)
	}

	if a.opts.Metrics != nil {
		a.opts.Metrics.AuditDuration.Observe(time.Since(start).Seconds())
	}
	return report, nil
}

func (a *Auditor) auditProject(ctx context.Context, p *registry.Project) ProjectResult {
	result := ProjectResult{ID: p.ID, MinScore: p.MinScore}
	if result.MinScore == 0 {
		result.MinScore = a.opts.Threshold
	}

	// Project-level configuration problems are fatal for this project's
	// scope only.
	if a.overrides != nil {
		set, err := a.overrides.LoadOrCreate(p.Root)
		if err != nil {
			result.Err = err.Error()
			return result
		}
		for _, w := range override.Lint(set) {
			result.overrideWarnings = append(result.overrideWarnings, w.String())
		}
	}

	files, err := a.collectFiles(p.Root)
	if err != nil {
		result.Err = fmt.Sprintf("walk %s: %v", p.Root, err)
		return result
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for _, file := range files {
		g.Go(func() error {
			rel, relErr := filepath.Rel(p.Root, file)
			if relErr != nil {
				rel = file
			}
			rel = filepath.ToSlash(rel)

			r, err := a.engine.Check(gctx, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Filesystem or per-file errors: log, skip, count.
				a.opts.Logger.Warn("skipping file",
					slog.String("file", file),
					slog.String("error", err.Error()))
				if a.opts.Metrics != nil {
					a.opts.Metrics.FilesSkipped.Inc()
				}
				result.Skipped = append(result.Skipped, SkippedFile{File: rel, Reason: err.Error()})
				return nil
			}
			result.Files = append(result.Files, FileResult{File: rel, Overall: round2(r.Overall()), Report: r})
			return nil
		})
	}
	_ = g.Wait()

	a.rollup(&result)
	return result
}

// rollup computes per-rule averages and the worst-offenders ranking.
func (a *Auditor) rollup(result *ProjectResult) {
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].File < result.Files[j].File })
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].File < result.Skipped[j].File })

	ruleScores := make(map[string][]float64)
	total := 0.0
	for _, f := range result.Files {
		total += f.Report.Overall()

		worst := Offender{File: f.File, Score: math.MaxFloat64}
		for _, o := range f.Report.Outcomes {
			score := o.Score()
			ruleScores[o.RuleID] = append(ruleScores[o.RuleID], score)
			if score < worst.Score {
				worst.Score = score
				worst.RuleID = o.RuleID
			}
		}
		if worst.RuleID != "" {
			worst.Score = round2(worst.Score)
			result.WorstOffenders = append(result.WorstOffenders, worst)
		}
	}

	if len(result.Files) > 0 {
		result.Average = round2(total / float64(len(result.Files)))
	} else if len(result.Skipped) == 0 {
		// No eligible files: vacuously compliant, matching the empty
		// check-item convention. A project whose only files all failed
		// to load keeps its zero average instead.
		result.Average = 100
	}
	result.Passed = result.Err == "" && result.Average >= result.MinScore

	for rule, scores := range ruleScores {
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		result.RuleAverages = append(result.RuleAverages, RuleAverage{
			RuleID:  rule,
			Average: round2(sum / float64(len(scores))),
		})
	}
	sort.Slice(result.RuleAverages, func(i, j int) bool {
		return result.RuleAverages[i].RuleID < result.RuleAverages[j].RuleID
	})

	// Lowest-scoring files first; ties broken by path for determinism.
	sort.Slice(result.WorstOffenders, func(i, j int) bool {
		if result.WorstOffenders[i].Score != result.WorstOffenders[j].Score {
			return result.WorstOffenders[i].Score < result.WorstOffenders[j].Score
		}
		return result.WorstOffenders[i].File < result.WorstOffenders[j].File
	})
}

// collectFiles walks the project tree, pruning ignored directories before
// descending into them. Dependency directories can be arbitrarily large,
// so filtering after listing is not acceptable.
func (a *Auditor) collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && a.ignored(d.Name(), rel) {
				return fs.SkipDir
			}
			return nil
		}

		for _, pattern := range a.opts.Include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	return files, err
}

// ignored matches a directory against the ignore list, by bare name or
// doublestar pattern over the relative path.
func (a *Auditor) ignored(name, rel string) bool {
	for _, pattern := range a.opts.Ignore {
		if pattern == name {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
