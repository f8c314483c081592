package pysrc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `#!/usr/bin/env python3
# Module: widgets.loader
# Purpose: Load widget definitions.
"""Loader for widget definitions.

Example:
    import widgets.loader
"""
import os
import json

import requests

from widgets.db import connection
from . import helpers

CATALOG = {
    "widget": 1,
}


class Loader:
    """Loads widgets."""

    def load(self, path: str) -> dict:
        """Read one widget file."""
        try:
            with open(path) as fh:
                return json.load(fh)
        except ValueError as e:
            logging.warning("bad widget: %s", e)
            return {}


def create_widget(name):
    emit_event("widget.created", name)


def _helper(x: int) -> int:
    return x + 1


if __name__ == "__main__":
    print(Loader().load("demo.json"))
`

func parseSample(t *testing.T) *File {
	t.Helper()
	f := Parse(context.Background(), "src/loader.py", []byte(sample))
	require.True(t, f.Parsed, "parse error: %s", f.ParseErr)
	return f
}

func TestParsePreamble(t *testing.T) {
	f := parseSample(t)

	assert.Equal(t, "#!/usr/bin/env python3", f.Shebang)
	require.Len(t, f.HeaderComments, 2)
	assert.Equal(t, "Module: widgets.loader", f.HeaderComments[0])
	assert.Contains(t, f.ModuleDoc, "Loader for widget definitions.")
}

func TestParseImports(t *testing.T) {
	f := parseSample(t)

	var modules []string
	for _, imp := range f.Imports {
		modules = append(modules, imp.Module)
	}
	assert.Equal(t, []string{"os", "json", "requests", "widgets.db", ""}, modules)

	assert.True(t, f.Imports[0].Stdlib)
	assert.False(t, f.Imports[2].Stdlib)
	assert.True(t, f.Imports[4].Relative)

	// The import quoted inside the module docstring must not appear.
	for _, imp := range f.Imports {
		assert.False(t, f.InDocstring(imp.Line), "import at line %d is inside a docstring", imp.Line)
	}
}

func TestParseDefinitions(t *testing.T) {
	f := parseSample(t)

	require.Len(t, f.Classes, 1)
	assert.Equal(t, "Loader", f.Classes[0].Name)
	assert.Equal(t, "Loads widgets.", f.Classes[0].Doc)

	var names []string
	for _, fn := range f.Functions {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"load", "create_widget", "_helper"}, names)

	load := f.Functions[0]
	assert.Equal(t, "Loader", load.Class)
	assert.Equal(t, "Read one widget file.", load.Doc)
	require.Len(t, load.Params, 2) // self, path
	assert.True(t, load.Params[1].Annotated)
	assert.True(t, load.ReturnAnnotated)

	assert.True(t, f.Functions[1].Public())
	assert.False(t, f.Functions[2].Public())

	assert.Equal(t, f.Classes[0].StartLine, f.FirstDefLine)
}

func TestParseCallsAndTries(t *testing.T) {
	f := parseSample(t)

	var callNames []string
	for _, c := range f.Calls {
		callNames = append(callNames, c.Name)
	}
	assert.Contains(t, callNames, "open")
	assert.Contains(t, callNames, "json.load")
	assert.Contains(t, callNames, "logging.warning")
	assert.Contains(t, callNames, "emit_event")

	require.Len(t, f.Tries, 1)
	require.Len(t, f.Tries[0].Excepts, 1)
	assert.Equal(t, "ValueError", f.Tries[0].Excepts[0].Type)

	// The open() call is guarded.
	for _, c := range f.Calls {
		if c.Name == "open" {
			assert.True(t, f.InTry(c.Line))
		}
	}
}

func TestParseMainGuardAndAssignments(t *testing.T) {
	f := parseSample(t)

	require.NotZero(t, f.MainGuardStart)
	for _, c := range f.Calls {
		if c.Name == "print" {
			assert.True(t, f.InMainGuard(c.Line))
		}
	}

	require.Len(t, f.Assignments, 1)
	assert.Equal(t, "CATALOG", f.Assignments[0].Name)
	assert.True(t, f.Assignments[0].Literal)
	assert.Greater(t, f.Assignments[0].EndLine, f.Assignments[0].Line)
}

func TestParseDegradedOnBinary(t *testing.T) {
	// tree-sitter tolerates most input; the degraded path matters mostly
	// for the empty file.
	f := Parse(context.Background(), "empty.py", nil)
	assert.Equal(t, "empty.py", f.RelPath)
	assert.Empty(t, f.Imports)
}

func TestIsStdlib(t *testing.T) {
	assert.True(t, IsStdlib("os"))
	assert.True(t, IsStdlib("os.path"))
	assert.True(t, IsStdlib("logging"))
	assert.False(t, IsStdlib("requests"))
	assert.False(t, IsStdlib("widgets.db"))
}
