package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(Naming{})
}

// Naming enforces casing conventions: snake_case file and function names,
// PascalCase classes, UPPER_SNAKE or snake_case module-level names.
// Single-letter names are exempt (loop counters and similar).
type Naming struct{}

func (Naming) ID() string { return "naming" }

func (Naming) Describe() string {
	return "Files, functions, classes, and constants follow casing conventions"
}

var (
	snakeCaseFile = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.py$`)
	snakeCaseName = regexp.MustCompile(`^_{0,2}[a-z][a-z0-9_]*_{0,2}$`)
	pascalCase    = regexp.MustCompile(`^_?[A-Z][A-Za-z0-9]*$`)
	upperSnake    = regexp.MustCompile(`^_?[A-Z][A-Z0-9_]*$`)
)

func (c Naming) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	add := func(item checker.Item) { outcome.Items = append(outcome.Items, item) }

	name := t.Src.Name()
	if snakeCaseFile.MatchString(name) {
		add(pass("file-name", "", 0))
	} else {
		add(violation(excuse, c.ID(), "file-name",
			fmt.Sprintf("file name %q is not snake_case", name), 0))
	}

	for _, fn := range t.Src.Functions {
		if exemptName(fn.Name) {
			continue
		}
		itemName := "function-name"
		if snakeCaseName.MatchString(fn.Name) {
			add(pass(itemName, fn.Name, fn.StartLine))
		} else {
			add(violation(excuse, c.ID(), itemName,
				fmt.Sprintf("function %q is not snake_case", fn.Name), fn.StartLine))
		}
	}

	for _, cls := range t.Src.Classes {
		if exemptName(cls.Name) {
			continue
		}
		if pascalCase.MatchString(cls.Name) {
			add(pass("class-name", cls.Name, cls.StartLine))
		} else {
			add(violation(excuse, c.ID(), "class-name",
				fmt.Sprintf("class %q is not PascalCase", cls.Name), cls.StartLine))
		}
	}

	for _, a := range t.Src.Assignments {
		if exemptName(a.Name) {
			continue
		}
		if snakeCaseName.MatchString(a.Name) || upperSnake.MatchString(a.Name) {
			add(pass("module-name", a.Name, a.Line))
		} else {
			add(violation(excuse, c.ID(), "module-name",
				fmt.Sprintf("module-level name %q is neither snake_case nor UPPER_SNAKE", a.Name), a.Line))
		}
	}

	return outcome
}

// exemptName skips single-letter names and dunders.
func exemptName(name string) bool {
	trimmed := strings.Trim(name, "_")
	if len(trimmed) <= 1 {
		return true
	}
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
