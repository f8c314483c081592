// Package report renders checklist and audit reports for the terminal and
// as JSON. Partial failure is always visible: errored rules and skipped
// files are printed, never silently omitted.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/c360studio/checkup/audit"
	"github.com/c360studio/checkup/engine"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", s)
}

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

// RenderChecklist writes one file's report.
func RenderChecklist(w io.Writer, r *engine.Report, format Format, threshold float64, verbose bool) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "%s  (project: %s)\n", r.File, r.Project)
	for _, o := range r.Outcomes {
		mark := passMark("PASS")
		if o.Err != "" {
			mark = failMark("ERROR")
		} else if !o.Passed() {
			mark = failMark("FAIL")
		}
		fmt.Fprintf(w, "  %-22s %6.2f  %s\n", o.RuleID, o.RoundedScore(), mark)

		if o.Err != "" {
			fmt.Fprintf(w, "      %s\n", failMark(o.Err))
			continue
		}
		for _, item := range o.Items {
			if item.Passed && !verbose {
				continue
			}
			loc := ""
			if item.Line > 0 {
				loc = fmt.Sprintf(":%d", item.Line)
			}
			mark := failMark("✗")
			if item.Passed {
				mark = passMark("✓")
			}
			fmt.Fprintf(w, "      %s %s%s %s\n", mark, item.Name, loc, dim(item.Message))
		}
	}

	verdict := passMark("PASS")
	if !r.Passed(threshold) {
		verdict = failMark("FAIL")
	}
	fmt.Fprintf(w, "overall: %.2f  %s  (threshold %.0f)\n", r.RoundedOverall(), verdict, threshold)
	return nil
}

// RenderAudit writes a rollup report.
func RenderAudit(w io.Writer, r *audit.Report, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	for _, p := range r.Projects {
		verdict := passMark("PASS")
		if p.Err != "" {
			verdict = failMark("ERROR")
		} else if !p.Passed {
			verdict = failMark("FAIL")
		}
		fmt.Fprintf(w, "project %s  %s  avg %.2f  (%d files, floor %.0f)\n",
			p.ID, verdict, p.Average, len(p.Files), p.MinScore)
		if p.Err != "" {
			fmt.Fprintf(w, "  %s\n", failMark(p.Err))
			continue
		}

		fmt.Fprintln(w, "  per-rule averages:")
		for _, ra := range p.RuleAverages {
			fmt.Fprintf(w, "    %-22s %6.2f\n", ra.RuleID, ra.Average)
		}

		if len(p.WorstOffenders) > 0 {
			fmt.Fprintln(w, "  worst offenders:")
			for _, wo := range p.WorstOffenders {
				fmt.Fprintf(w, "    %6.2f  %-20s %s\n", wo.Score, wo.RuleID, wo.File)
			}
		}

		if len(p.Skipped) > 0 {
			fmt.Fprintf(w, "  %s %d file(s) skipped:\n", warnMark("!"), len(p.Skipped))
			for _, s := range p.Skipped {
				fmt.Fprintf(w, "    %s: %s\n", s.File, s.Reason)
			}
		}
	}

	fmt.Fprintf(w, "audited %d project(s), %d file(s), %d skipped\n",
		len(r.Projects), r.TotalFiles, r.TotalSkipped)
	if warnings := r.OverrideWarnings(); len(warnings) > 0 {
		fmt.Fprintf(w, "%s override hygiene:\n", warnMark("!"))
		for _, warning := range warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	return nil
}

// Summarize returns a one-line summary for watch mode.
func Summarize(r *engine.Report, threshold float64) string {
	verdict := "PASS"
	if !r.Passed(threshold) {
		verdict = "FAIL"
	}
	var failing []string
	for _, o := range r.Outcomes {
		if !o.Passed() {
			failing = append(failing, o.RuleID)
		}
	}
	s := fmt.Sprintf("%s %.2f %s", r.File, r.RoundedOverall(), verdict)
	if len(failing) > 0 {
		s += " (" + strings.Join(failing, ", ") + ")"
	}
	return s
}
