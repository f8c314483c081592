package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ErrorHandling{})
}

// riskyCallPrefixes identify I/O, network, and parsing calls that should
// run inside a guarded block.
var riskyCallPrefixes = []string{
	"open", "json.load", "json.loads", "yaml.load", "yaml.safe_load",
	"requests.", "urllib.", "socket.", "subprocess.",
}

// catchAllTypes are except expressions that swallow everything.
var catchAllTypes = map[string]bool{"": true, "Exception": true, "BaseException": true}

// ErrorHandling checks hygiene around failures: risky calls are guarded,
// except clauses name a specific error type, and except blocks log what
// they caught. A bare "except:" is a violation; "except ValueError:" is
// not.
type ErrorHandling struct{}

func (ErrorHandling) ID() string { return "error-handling" }

func (ErrorHandling) Describe() string {
	return "I/O and parsing calls are guarded; excepts are specific and logged"
}

func (c ErrorHandling) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	add := func(item checker.Item) { outcome.Items = append(outcome.Items, item) }

	for _, call := range t.Src.Calls {
		if !isRiskyCall(call.Name) {
			continue
		}
		if t.Src.InTry(call.Line) || t.Src.InMainGuard(call.Line) {
			add(pass("guarded-call", call.Name, call.Line))
			continue
		}
		add(violation(excuse, c.ID(), "guarded-call",
			fmt.Sprintf("%s() outside any try block", call.Name), call.Line))
	}

	for _, try := range t.Src.Tries {
		for _, ex := range try.Excepts {
			if catchAllTypes[ex.Type] {
				msg := "bare catch-all except; name the error type"
				if ex.Type != "" {
					msg = fmt.Sprintf("except %s catches everything; name a specific error type", ex.Type)
				}
				add(violation(excuse, c.ID(), "specific-except", msg, ex.StartLine))
			} else {
				add(pass("specific-except", ex.Type, ex.StartLine))
			}

			if exceptLogs(t, ex.StartLine, ex.EndLine) {
				add(pass("except-logs", "", ex.StartLine))
			} else {
				add(violation(excuse, c.ID(), "except-logs",
					"except block does not log the error", ex.StartLine))
			}
		}
	}

	return outcome
}

func isRiskyCall(name string) bool {
	for _, prefix := range riskyCallPrefixes {
		if name == strings.TrimSuffix(prefix, ".") || strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// exceptLogs reports whether a log or raise appears inside the except
// block. Re-raising counts: the error is not swallowed.
func exceptLogs(t *checker.Target, start, end int) bool {
	for _, call := range t.Src.CallsBetween(start, end) {
		name := strings.ToLower(call.Name)
		if strings.Contains(name, "log") || strings.Contains(name, "warn") {
			return true
		}
	}
	for line := start; line <= end && line <= len(t.Src.Lines); line++ {
		if strings.Contains(t.Src.Lines[line-1], "raise") {
			return true
		}
	}
	return false
}
