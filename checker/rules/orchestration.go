package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ModuleOrchestration{})
}

// literalDataLines is how many lines a module-level literal may span in an
// orchestration-tier file before it looks like business data that leaked
// out of the implementation tier.
const literalDataLines = 5

// ModuleOrchestration checks that orchestration-tier files delegate rather
// than carry business data. A documented dispatch function makes the file
// compliant regardless of size: delegation is demonstrably present.
type ModuleOrchestration struct{}

func (ModuleOrchestration) ID() string { return "module-orchestration" }

func (ModuleOrchestration) Describe() string {
	return "Orchestration-tier files delegate instead of holding business data"
}

func (c ModuleOrchestration) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}
	if classifyTier(t.Src.RelPath, t.Project.Tiers) != TierOrchestration {
		return checker.Outcome{RuleID: c.ID()}
	}

	outcome := checker.Outcome{RuleID: c.ID()}

	for _, fn := range t.Src.Functions {
		lower := strings.ToLower(fn.Name)
		if (strings.Contains(lower, "dispatch") || strings.Contains(lower, "route")) && fn.Doc != "" {
			outcome.Items = append(outcome.Items,
				pass("dispatch-function",
					fmt.Sprintf("documented dispatch function %q present", fn.Name), fn.StartLine))
			return outcome
		}
	}

	for _, a := range t.Src.Assignments {
		if !a.Literal {
			continue
		}
		span := a.EndLine - a.Line + 1
		if span < literalDataLines {
			continue
		}
		msg := fmt.Sprintf("module-level literal %q spans %d lines; business data belongs in the implementation tier", a.Name, span)
		outcome.Items = append(outcome.Items,
			violation(excuse, c.ID(), "literal-data", msg, a.Line))
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items, pass("literal-data", "no inline business data", 0))
	}
	return outcome
}
