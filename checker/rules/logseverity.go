package rules

import (
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(LogSeverity{})
}

// validationKeywords in a critical log call's line suggest ordinary
// user-input validation rather than an operational failure.
var validationKeywords = []string{"invalid", "usage", "missing argument", "user input", "expected"}

// LogSeverity flags top-severity log calls used for ordinary user-input
// validation failures; those belong at warning or error. Calls are taken
// from the AST, so examples quoted inside docstrings never trigger the
// rule; the docstring guard below covers the degraded line-scan path too.
type LogSeverity struct{}

func (LogSeverity) ID() string { return "log-severity" }

func (LogSeverity) Describe() string {
	return "critical() is reserved for real failures, not input validation"
}

func (c LogSeverity) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, call := range t.Src.Calls {
		if !strings.HasSuffix(call.Name, ".critical") {
			continue
		}
		if t.Src.InDocstring(call.Line) {
			continue
		}

		text := strings.ToLower(lineText(t, call.Line))
		if containsAny(text, validationKeywords) {
			outcome.Items = append(outcome.Items,
				violation(excuse, c.ID(), "critical-severity",
					"critical log for a validation failure; use warning or error", call.Line))
		} else {
			outcome.Items = append(outcome.Items, pass("critical-severity", call.Name, call.Line))
		}
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items, pass("critical-severity", "no critical log calls", 0))
	}
	return outcome
}

func lineText(t *checker.Target, line int) string {
	if line < 1 || line > len(t.Src.Lines) {
		return ""
	}
	return t.Src.Lines[line-1]
}
