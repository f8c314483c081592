package rules

import (
	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ConsoleIO{})
}

// ConsoleIO flags implementation-tier files that print directly to the
// console instead of routing through the shared output service. Code
// inside the main-guard block is exempt: that is debug and test
// scaffolding, not production output.
type ConsoleIO struct{}

func (ConsoleIO) ID() string { return "console-io" }

func (ConsoleIO) Describe() string {
	return "Implementation code routes output through the output service, not print()"
}

func (c ConsoleIO) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}
	if classifyTier(t.Src.RelPath, t.Project.Tiers) != TierImplementation {
		return checker.Outcome{RuleID: c.ID()}
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, call := range t.Src.Calls {
		if call.Name != "print" {
			continue
		}
		if t.Src.InMainGuard(call.Line) {
			continue
		}
		outcome.Items = append(outcome.Items,
			violation(excuse, c.ID(), "direct-print",
				"print() in implementation code; use the output service", call.Line))
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items, pass("direct-print", "no direct console output", 0))
	}
	return outcome
}
