package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ImportLayering{})
}

// ImportLayering enforces import grouping: standard library first, then
// third-party, then internal (own-project and relative) imports.
//
// Only imports above the first definition are considered; late imports
// inside functions are a different concern. Imports quoted in docstring
// examples never appear because extraction is AST-based.
type ImportLayering struct{}

func (ImportLayering) ID() string { return "import-layering" }

func (ImportLayering) Describe() string {
	return "Imports are grouped: standard library, third-party, then internal"
}

// import group ranks, in required order.
const (
	groupStdlib = iota
	groupThirdParty
	groupInternal
)

var groupNames = map[int]string{
	groupStdlib:     "standard library",
	groupThirdParty: "third-party",
	groupInternal:   "internal",
}

func (c ImportLayering) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	highest := groupStdlib

	// Each in-order import contributes a passing item, so one misplaced
	// import among many degrades the score instead of zeroing it.
	for _, imp := range t.Src.Imports {
		if t.Src.FirstDefLine > 0 && imp.Line > t.Src.FirstDefLine {
			break
		}

		group := groupThirdParty
		switch {
		case imp.Stdlib:
			group = groupStdlib
		case imp.Relative || ownProjectImport(imp.Module, t.Project.ID):
			group = groupInternal
		}

		if group < highest {
			msg := fmt.Sprintf("%s import %q appears after %s imports",
				groupNames[group], imp.Module, groupNames[highest])
			outcome.Items = append(outcome.Items,
				violation(excuse, c.ID(), "import-order", msg, imp.Line))
			continue
		}
		highest = group
		outcome.Items = append(outcome.Items, pass("import-order",
			fmt.Sprintf("%s import %q in order", groupNames[group], imp.Module), imp.Line))
	}
	return outcome
}

// ownProjectImport reports whether module belongs to the owning project's
// package namespace.
func ownProjectImport(module, projectID string) bool {
	if projectID == "" {
		return false
	}
	pkg := strings.ReplaceAll(projectID, "-", "_")
	return module == pkg || strings.HasPrefix(module, pkg+".")
}
