package rules

import (
	"fmt"
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(DocCompleteness{})
}

// DocCompleteness checks the documentation surface of a file: interpreter
// directive, header comment block with required fields, module docstring,
// and docstrings on public functions. The required header fields come from
// configuration, not this rule.
type DocCompleteness struct{}

func (DocCompleteness) ID() string { return "doc-completeness" }

func (DocCompleteness) Describe() string {
	return "Shebang, header block, module and public function docstrings present"
}

func (c DocCompleteness) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	outcome := checker.Outcome{RuleID: c.ID()}
	add := func(item checker.Item) { outcome.Items = append(outcome.Items, item) }

	if t.Src.Shebang != "" {
		add(pass("shebang", "", 1))
	} else {
		add(violation(excuse, c.ID(), "shebang", "missing interpreter directive on line 1", 1))
	}

	for _, field := range t.Settings.RequiredHeaderFields {
		if headerHasField(t.Src.HeaderComments, field) {
			add(pass("header-field", field, 0))
		} else {
			add(violation(excuse, c.ID(), "header-field",
				fmt.Sprintf("header block missing %q field", field), 0))
		}
	}

	if !t.Src.Parsed {
		add(violation(excuse, c.ID(), "parse", "file could not be parsed: "+t.Src.ParseErr, 0))
		return outcome
	}

	if t.Src.ModuleDoc != "" {
		add(pass("module-docstring", "", 0))
	} else {
		add(violation(excuse, c.ID(), "module-docstring", "missing module docstring", 0))
	}

	for _, fn := range t.Src.Functions {
		if !fn.Public() {
			continue
		}
		if fn.Doc != "" {
			add(pass("function-docstring", fn.Name, fn.StartLine))
		} else {
			add(violation(excuse, c.ID(), "function-docstring",
				fmt.Sprintf("function %q has no docstring", fn.Name), fn.StartLine))
		}
	}

	return outcome
}

func headerHasField(header []string, field string) bool {
	prefix := field + ":"
	for _, line := range header {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return true
		}
	}
	return false
}
