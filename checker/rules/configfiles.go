package rules

import (
	"strings"

	"github.com/c360studio/checkup/checker"
)

func init() {
	checker.DefaultRegistry.Register(ConfigFiles{})
}

// storageHelperModules are the shared auto-creating storage utilities the
// surrounding tooling provides for structured configuration and log files.
var storageHelperModules = []string{"shared.storage", "services.storage", "common.storage"}

// ConfigFiles checks that structured data files are written through the
// shared auto-creating storage utility rather than ad hoc
// open()+json.dump() sequences. The helper itself lives outside this
// engine; the rule only verifies it is the path being used.
type ConfigFiles struct{}

func (ConfigFiles) ID() string { return "config-files" }

func (ConfigFiles) Describe() string {
	return "Structured data files are created via the shared storage helper"
}

func (c ConfigFiles) Evaluate(t *checker.Target, excuse checker.Excuser) checker.Outcome {
	if !t.Src.Parsed {
		return parseFailure(t, excuse, c.ID())
	}

	usesHelper := false
	for _, imp := range t.Src.Imports {
		if containsAny(imp.Module, storageHelperModules) {
			usesHelper = true
			break
		}
	}

	outcome := checker.Outcome{RuleID: c.ID()}
	for _, call := range t.Src.Calls {
		if !isStructuredWrite(call.Name) {
			continue
		}
		if usesHelper {
			outcome.Items = append(outcome.Items,
				pass("structured-write", call.Name+" alongside storage helper import", call.Line))
			continue
		}
		outcome.Items = append(outcome.Items,
			violation(excuse, c.ID(), "structured-write",
				call.Name+"() writes a structured file directly; use the shared storage helper", call.Line))
	}

	if len(outcome.Items) == 0 {
		outcome.Items = append(outcome.Items, pass("structured-write", "no ad hoc structured writes", 0))
	}
	return outcome
}

func isStructuredWrite(callName string) bool {
	switch callName {
	case "json.dump", "yaml.dump", "yaml.safe_dump", "toml.dump":
		return true
	}
	return strings.HasSuffix(callName, ".write_json") || strings.HasSuffix(callName, ".write_yaml")
}
