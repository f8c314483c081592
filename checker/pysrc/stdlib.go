package pysrc

import "strings"

// stdlibModules is the fixed table of Python standard library top-level
// packages the import classifier recognizes. Not exhaustive; covers what
// shows up in practice.
var stdlibModules = map[string]bool{
	"abc": true, "argparse": true, "asyncio": true, "base64": true,
	"collections": true, "concurrent": true, "configparser": true,
	"contextlib": true, "copy": true, "csv": true, "dataclasses": true,
	"datetime": true, "decimal": true, "enum": true, "functools": true,
	"glob": true, "hashlib": true, "heapq": true, "html": true, "http": true,
	"importlib": true, "inspect": true, "io": true, "itertools": true,
	"json": true, "logging": true, "math": true, "multiprocessing": true,
	"os": true, "pathlib": true, "pickle": true, "platform": true,
	"queue": true, "random": true, "re": true, "sched": true, "secrets": true,
	"shlex": true, "shutil": true, "signal": true, "socket": true,
	"sqlite3": true, "string": true, "struct": true, "subprocess": true,
	"sys": true, "tempfile": true, "textwrap": true, "threading": true,
	"time": true, "traceback": true, "types": true, "typing": true,
	"unittest": true, "urllib": true, "uuid": true, "warnings": true,
	"weakref": true, "xml": true, "zipfile": true,
}

// IsStdlib reports whether a module path's top-level package belongs to the
// Python standard library.
func IsStdlib(module string) bool {
	top := module
	if idx := strings.Index(module, "."); idx >= 0 {
		top = module[:idx]
	}
	return stdlibModules[top]
}
