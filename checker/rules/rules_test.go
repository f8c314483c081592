package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/checkup/checker"
	"github.com/c360studio/checkup/checker/pysrc"
)

func target(t *testing.T, relPath, src string) *checker.Target {
	t.Helper()
	f := pysrc.Parse(context.Background(), relPath, []byte(src))
	require.True(t, f.Parsed, "parse error: %s", f.ParseErr)
	return &checker.Target{
		Src:     f,
		Project: checker.ProjectInfo{ID: "widgets", Siblings: []string{"gadgets"}},
		Settings: checker.Settings{
			RequiredHeaderFields: []string{"Module"},
			MaxFileLines:         500,
			MaxFunctionLines:     75,
		},
	}
}

func failures(o checker.Outcome) []checker.Item {
	var out []checker.Item
	for _, item := range o.Items {
		if !item.Passed {
			out = append(out, item)
		}
	}
	return out
}

func TestImportLayering(t *testing.T) {
	t.Run("ordered groups pass", func(t *testing.T) {
		tgt := target(t, "lib/a.py", "import os\nimport requests\nimport widgets.db\n")
		o := ImportLayering{}.Evaluate(tgt, checker.NeverExcused)
		assert.Equal(t, float64(100), o.Score())
	})

	t.Run("stdlib after third-party fails", func(t *testing.T) {
		tgt := target(t, "lib/a.py", "import requests\nimport os\n")
		o := ImportLayering{}.Evaluate(tgt, checker.NeverExcused)
		fails := failures(o)
		require.Len(t, fails, 1)
		assert.Equal(t, 2, fails[0].Line)
	})

	t.Run("one misplaced import degrades proportionally", func(t *testing.T) {
		src := "import os\nimport json\nimport requests\nimport collections\n"
		o := ImportLayering{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)
		require.Len(t, o.Items, 4)
		require.Len(t, failures(o), 1)
		assert.InDelta(t, 75, o.Score(), 0.001)
	})

	t.Run("imports after first def are ignored", func(t *testing.T) {
		tgt := target(t, "lib/a.py", "import os\ndef f():\n    pass\nimport requests\nimport os\n")
		o := ImportLayering{}.Evaluate(tgt, checker.NeverExcused)
		assert.Empty(t, failures(o))
	})

	t.Run("docstring example imports are invisible", func(t *testing.T) {
		src := "\"\"\"Example:\n    import zzz_thirdparty\n\"\"\"\nimport os\n"
		tgt := target(t, "lib/a.py", src)
		o := ImportLayering{}.Evaluate(tgt, checker.NeverExcused)
		assert.Empty(t, failures(o))
	})
}

func TestArchLayering(t *testing.T) {
	src := "from widgets.routers import dispatch\n"

	t.Run("implementation importing orchestration is a violation", func(t *testing.T) {
		o := ArchLayering{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)
		require.Len(t, failures(o), 1)
	})

	t.Run("entry tier is unconstrained", func(t *testing.T) {
		o := ArchLayering{}.Evaluate(target(t, "bin/a.py", src), checker.NeverExcused)
		assert.Equal(t, float64(100), o.Score())
		assert.Empty(t, o.Items)
	})
}

func TestNaming(t *testing.T) {
	src := "def BadName():\n    pass\n\nclass good_class:\n    pass\n\ndef i():\n    pass\n"
	o := Naming{}.Evaluate(target(t, "lib/my_module.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 2)
	assert.Contains(t, fails[0].Message, "BadName")
	assert.Contains(t, fails[1].Message, "good_class")
	// Single-letter i() is exempt and produces no item at all.
	for _, item := range o.Items {
		assert.NotContains(t, item.Message, `"i"`)
	}
}

func TestConsoleIO(t *testing.T) {
	src := "def run():\n    print(\"hi\")\n\nif __name__ == \"__main__\":\n    print(\"debug\")\n"

	t.Run("implementation print fails, main guard exempt", func(t *testing.T) {
		o := ConsoleIO{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)
		fails := failures(o)
		require.Len(t, fails, 1)
		assert.Equal(t, 2, fails[0].Line)
	})

	t.Run("non-implementation tier is inapplicable", func(t *testing.T) {
		o := ConsoleIO{}.Evaluate(target(t, "cli/a.py", src), checker.NeverExcused)
		assert.Empty(t, o.Items)
	})
}

func TestModuleOrchestration(t *testing.T) {
	t.Run("documented dispatch function is compliant", func(t *testing.T) {
		src := "TABLE = {\n    1: 'a',\n    2: 'b',\n    3: 'c',\n    4: 'd',\n}\n\ndef dispatch_request(req):\n    \"\"\"Route a request.\"\"\"\n    pass\n"
		o := ModuleOrchestration{}.Evaluate(target(t, "routers/a.py", src), checker.NeverExcused)
		assert.Empty(t, failures(o))
	})

	t.Run("literal business data without dispatch fails", func(t *testing.T) {
		src := "TABLE = {\n    1: 'a',\n    2: 'b',\n    3: 'c',\n    4: 'd',\n}\n"
		o := ModuleOrchestration{}.Evaluate(target(t, "routers/a.py", src), checker.NeverExcused)
		require.Len(t, failures(o), 1)
	})
}

func TestDocCompleteness(t *testing.T) {
	src := "#!/usr/bin/env python3\n# Module: widgets.a\n\"\"\"Docs.\"\"\"\n\ndef documented():\n    \"\"\"Yes.\"\"\"\n\ndef bare():\n    pass\n\ndef _private():\n    pass\n"
	o := DocCompleteness{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 1)
	assert.Contains(t, fails[0].Message, "bare")
	// shebang + header field + module doc + two public function items.
	assert.Len(t, o.Items, 5)
}

func TestConfigFiles(t *testing.T) {
	t.Run("ad hoc json.dump fails", func(t *testing.T) {
		src := "import json\n\ndef save(d):\n    with open('x.json', 'w') as fh:\n        json.dump(d, fh)\n"
		o := ConfigFiles{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)
		require.Len(t, failures(o), 1)
	})

	t.Run("storage helper import passes", func(t *testing.T) {
		src := "import json\nfrom shared.storage import ensure_file\n\ndef save(d):\n    json.dump(d, ensure_file('x.json'))\n"
		o := ConfigFiles{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)
		assert.Empty(t, failures(o))
	})
}

func TestTestPresence(t *testing.T) {
	tgt := target(t, "lib/loader.py", "def f():\n    pass\n")

	t.Run("missing companion fails", func(t *testing.T) {
		o := TestPresence{}.Evaluate(tgt, checker.NeverExcused)
		require.Len(t, failures(o), 1)
	})

	t.Run("companion present passes", func(t *testing.T) {
		tgt.SiblingFiles = []string{"test_loader.py"}
		o := TestPresence{}.Evaluate(tgt, checker.NeverExcused)
		assert.Empty(t, failures(o))
	})

	t.Run("test files are exempt", func(t *testing.T) {
		o := TestPresence{}.Evaluate(target(t, "lib/test_loader.py", "x = 1\n"), checker.NeverExcused)
		assert.Empty(t, o.Items)
	})
}

func TestErrorHandling(t *testing.T) {
	src := `import json

def load(path):
    try:
        with open(path) as fh:
            return json.load(fh)
    except ValueError as e:
        logging.warning("bad file: %s", e)
        return None

def save(path, data):
    fh = open(path, "w")
    try:
        fh.write(data)
    except:
        pass
`
	o := ErrorHandling{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	// Unguarded open() in save, bare except, and an except that neither
	// logs nor re-raises.
	require.Len(t, fails, 3)
	messages := []string{fails[0].Message, fails[1].Message, fails[2].Message}
	assert.Contains(t, messages[0], "outside any try")
	assert.Contains(t, messages[1], "catch-all")
	assert.Contains(t, messages[2], "does not log")
}

func TestEncapsulation(t *testing.T) {
	src := "import os\nimport gadgets.db\nimport shared.output\nimport widgets.util\n"
	o := Encapsulation{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 1)
	assert.Contains(t, fails[0].Message, "gadgets")
}

func TestEventEmission(t *testing.T) {
	src := `import os

def create_widget(name):
    emit_event("widget.created", name)

def delete_widget(name):
    os.remove(name)

def describe_widget(name):
    return name
`
	o := EventEmission{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 1)
	assert.Contains(t, fails[0].Message, "delete_widget")
	// describe_ is not a lifecycle verb; no item either way.
	assert.Len(t, o.Items, 2)
}

func TestTypeRefs(t *testing.T) {
	src := "def typed(a: int) -> int:\n    return a\n\ndef untyped(a):\n    return a\n"
	o := TypeRefs{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 2)
	assert.Contains(t, fails[0].Message, "unannotated parameters")
	assert.Contains(t, fails[1].Message, "no return annotation")
}

func TestLogSeverity(t *testing.T) {
	src := `def check(value):
    if not value:
        logger.critical("invalid value supplied")
    try:
        run()
    except RuntimeError as e:
        logger.critical("subsystem down: %s", e)
`
	o := LogSeverity{}.Evaluate(target(t, "lib/a.py", src), checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 1)
	assert.Equal(t, 3, fails[0].Line)
}

func TestModuleSize(t *testing.T) {
	tgt := target(t, "lib/a.py", "def f():\n    pass\n")
	tgt.Settings.MaxFileLines = 2
	o := ModuleSize{}.Evaluate(tgt, checker.NeverExcused)

	fails := failures(o)
	require.Len(t, fails, 1)
	assert.Contains(t, fails[0].Message, "file is")
}

func TestExcusedViolationStaysVisible(t *testing.T) {
	tgt := target(t, "lib/a.py", "def BadName():\n    pass\n")
	excuse := func(ruleID string, line int) bool {
		return ruleID == "naming" && line == 1
	}

	o := Naming{}.Evaluate(tgt, excuse)
	assert.Empty(t, failures(o))

	found := false
	for _, item := range o.Items {
		if item.Line == 1 && item.Passed && strings.HasPrefix(item.Message, "excused:") {
			found = true
		}
	}
	assert.True(t, found, "excused violation must appear as a passing item with a note")
}

func TestCatalogRegistersFourteenRules(t *testing.T) {
	all := checker.DefaultRegistry.All()
	require.Len(t, all, 14)

	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID()
	}
	assert.Equal(t, []string{
		"arch-layering", "config-files", "console-io", "doc-completeness",
		"encapsulation", "error-handling", "event-emission", "import-layering",
		"log-severity", "module-orchestration", "module-size", "naming",
		"test-presence", "type-refs",
	}, ids)
}
