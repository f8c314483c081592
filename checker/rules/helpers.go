package rules

import (
	"strings"

	"github.com/c360studio/checkup/checker"
)

// pass returns a passing check item.
func pass(name, message string, line int) checker.Item {
	return checker.Item{Name: name, Passed: true, Message: message, Line: line}
}

// violation records a failing item unless the violation is excused, in
// which case it becomes a passing item noting the excusal. Excused
// violations stay visible in the report; they are never dropped.
func violation(excuse checker.Excuser, ruleID, name, message string, line int) checker.Item {
	if excuse(ruleID, line) {
		return checker.Item{Name: name, Passed: true, Message: "excused: " + message, Line: line}
	}
	return checker.Item{Name: name, Passed: false, Message: message, Line: line}
}

// parseFailure is the outcome for AST-dependent rules when the file could
// not be parsed. The failure is itself excusable.
func parseFailure(t *checker.Target, excuse checker.Excuser, ruleID string) checker.Outcome {
	return checker.Outcome{
		RuleID: ruleID,
		Items: []checker.Item{
			violation(excuse, ruleID, "parse", "file could not be parsed: "+t.Src.ParseErr, 0),
		},
	}
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
