package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(EventEmission{})
}

// lifecycleVerbs is the fixed catalog of function name prefixes that imply
// a lifecycle action observers need to hear about.
var lifecycleVerbs = []string{
	"create_", "delete_", "remove_", "rename_", "restore_", "archive_", "purge_",
}

// emissionMarkers are callee name fragments that count as signaling.
var emissionMarkers = []string{"emit", "publish", "notify", "signal", "broadcast"}

// EventEmission checks that lifecycle-style functions emit a corresponding
// event instead of performing the action silently. Detection matches the
// verb catalog against function names and looks for an emission call in
// the body; it is a heuristic, not semantic analysis, and misses lifecycle
// work done under other names.
type EventEmission struct{}

func (EventEmission) ID() string { return "event-emission" }

func (EventEmission) Describe() string {
	return "Lifecycle functions (create/delete/rename/restore) emit events"
}

func (c EventEmission) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, fn := range t.Src.Functions {
		if !isLifecycleName(fn.Name) {
			continue
		}

		emits := false
		for _, call := range t.Src.CallsBetween(fn.StartLine, fn.EndLine) {
			if containsAny(strings.ToLower(call.Name), emissionMarkers) {
				emits = true
				break
			}
		}

		if emits {
			outcome.Items = append(outcome.Items, pass("lifecycle-event", fn.Name, fn.StartLine))
		} else {
			msg := fmt.Sprintf("lifecycle function %q emits no event", fn.Name)
			outcome.Items = append(outcome.Items,
				violation(excuse, c.ID(), "lifecycle-event", msg, fn.StartLine))
		}
	}

	return outcome
}

func isLifecycleName(name string) bool {
	for _, verb := range lifecycleVerbs {
		if strings.HasPrefix(name, verb) {
			return true
		}
	}
	return false
}
