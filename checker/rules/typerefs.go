package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(TypeRefs{})
}

// TypeRefs checks annotation coverage on the module's public surface:
// parameters and return types of public functions. self/cls and
// single-letter parameters are skipped.
type TypeRefs struct{}

func (TypeRefs) ID() string { return "type-refs" }

func (TypeRefs) Describe() string {
	return "Public functions annotate their parameters and return types"
}

func (c TypeRefs) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, fn := range t.Src.Functions {
		if !fn.Public() || exemptName(fn.Name) {
			continue
		}

		var missing []string
		for _, p := range fn.Params {
			if p.Name == "self" || p.Name == "cls" || len(strings.Trim(p.Name, "_*")) <= 1 {
				continue
			}
			if !p.Annotated {
				missing = append(missing, p.Name)
			}
		}

		switch {
		case len(missing) > 0:
			msg := fmt.Sprintf("function %q has unannotated parameters: %s",
				fn.Name, strings.Join(missing, ", "))
			outcome.Items = append(outcome.Items,
				violation(excuse, c.ID(), "param-annotations", msg, fn.StartLine))
		default:
			outcome.Items = append(outcome.Items, pass("param-annotations", fn.Name, fn.StartLine))
		}

		if fn.ReturnAnnotated {
			outcome.Items = append(outcome.Items, pass("return-annotation", fn.Name, fn.StartLine))
		} else {
			outcome.Items = append(outcome.Items,
				violation(excuse, c.ID(), "return-annotation",
					fmt.Sprintf("function %q has no return annotation", fn.Name), fn.StartLine))
		}
	}

	return outcome
}
