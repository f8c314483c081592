package rules

import (
	"fmt"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ModuleSize{})
}

// ModuleSize enforces the configured file and function length limits.
type ModuleSize struct{}

func (ModuleSize) ID() string { return "module-size" }

func (ModuleSize) Describe() string {
	return "Files and functions stay within configured length limits"
}

func (c ModuleSize) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	outcome := checker.Outcome{RuleID: c.ID()}
	add := func(item checker.Item) { outcome.Items = append(outcome.Items, item) }

	fileLines := len(t.Src.Lines)
	if fileLines <= t.Settings.MaxFileLines {
		add(pass("file-length", fmt.Sprintf("%d lines", fileLines), 0))
	} else {
		add(violation(excuse, c.ID(), "file-length",
			fmt.Sprintf("file is %d lines (limit %d)", fileLines, t.Settings.MaxFileLines), 0))
	}

	if !t.Src.Parsed {
		return outcome
	}

	for _, fn := range t.Src.Functions {
		if fn.Lines() <= t.Settings.MaxFunctionLines {
			add(pass("function-length", fn.Name, fn.StartLine))
		} else {
			add(violation(excuse, c.ID(), "function-length",
				fmt.Sprintf("function %q is %d lines (limit %d)", fn.Name, fn.Lines(), t.Settings.MaxFunctionLines),
				fn.StartLine))
		}
	}

	return outcome
}
