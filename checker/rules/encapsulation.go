package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(Encapsulation{})
}

// sharedServicePrefixes are namespaces every project may import.
var sharedServicePrefixes = []string{"shared", "services", "common"}

// Encapsulation keeps implementation-tier files inside their own project:
// importing another registered project's packages couples projects at the
// wrong layer. Own-project, shared-service, stdlib, and third-party
// imports are all fine.
type Encapsulation struct{}

func (Encapsulation) ID() string { return "encapsulation" }

func (Encapsulation) Describe() string {
	return "Implementation files import only their own project and shared services"
}

func (c Encapsulation) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}
	if classifyTier(t.Src.RelPath, t.Project.Tiers) != TierImplementation {
		return checker.Outcome{RuleID: c.ID()}
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, imp := range t.Src.Imports {
		if imp.Stdlib || imp.Relative || imp.Module == "" {
			continue
		}
		top := topPackage(imp.Module)
		if isSharedService(top) || ownProjectImport(imp.Module, t.Project.ID) {
			continue
		}
		for _, sibling := range t.Project.Siblings {
			if top == strings.ReplaceAll(sibling, "-", "_") {
				msg := fmt.Sprintf("import of sibling project %q breaks encapsulation", sibling)
				outcome.Items = append(outcome.Items,
					violation(excuse, c.ID(), "sibling-import", msg, imp.Line))
				break
			}
		}
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items, pass("sibling-import", "no sibling project imports", 0))
	}
	return outcome
}

func topPackage(module string) string {
	if idx := strings.Index(module, "."); idx >= 0 {
		return module[:idx]
	}
	return module
}

func isSharedService(top string) bool {
	for _, prefix := range sharedServicePrefixes {
		if top == prefix {
			return true
		}
	}
	return false
}
