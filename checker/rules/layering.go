package rules

import (
	"fmt"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ArchLayering{})
}

// ArchLayering enforces the tier boundary: implementation-tier files must
// never import orchestration-tier modules. The reverse dependency breaks
// portability of the implementation layer and is always a hard violation.
type ArchLayering struct{}

func (ArchLayering) ID() string { return "arch-layering" }

func (ArchLayering) Describe() string {
	return "Implementation-tier files do not import orchestration-tier modules"
}

func (c ArchLayering) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	// The rule only constrains implementation-tier files.
	if classifyTier(t.Src.RelPath, t.Project.Tiers) != TierImplementation {
		return checker.Outcome{RuleID: c.ID()}
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, imp := range t.Src.Imports {
		if tierOfModule(imp.Module, t.Project.Tiers) != TierOrchestration {
			continue
		}
		msg := fmt.Sprintf("implementation-tier file imports orchestration module %q", imp.Module)
		outcome.Items = append(outcome.Items,
			violation(excuse, c.ID(), "tier-boundary", msg, imp.Line))
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items,
			pass("tier-boundary", "no orchestration-tier imports", 0))
	}
	return outcome
}
