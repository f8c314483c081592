package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(TestPresence{})
}

// TestPresence checks that a source file has a companion test file named
// test_<name>.py or <name>_test.py, either beside it or in a tests/
// directory next to it. Test files and package markers are exempt.
type TestPresence struct{}

func (TestPresence) ID() string { return "test-presence" }

func (TestPresence) Describe() string {
	return "Source files have a companion test file"
}

func (c TestPresence) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	name := t.Src.Name()
	if isTestFile(name) || name == "__init__.py" {
		return checker.Outcome{RuleID: c.ID()}
	}

	base := strings.TrimSuffix(name, ".py")
	want := []string{"test_" + base + ".py", base + "_test.py"}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, sibling := range t.SiblingFiles {
		for _, w := range want {
			if sibling == w {
				outcome.Items = append(outcome.Items, pass("companion-test", sibling, 0))
				return outcome
			}
		}
	}

	msg := fmt.Sprintf("no companion test file (expected %s)", strings.Join(want, " or "))
	outcome.Items = append(outcome.Items, violation(excuse, c.ID(), "companion-test", msg, 0))
	return outcome
}

func isTestFile(name string) bool {
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py")
}
