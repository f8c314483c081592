// Package rules implements the compliance checker catalog.
//
// Importing this package registers every rule with checker.DefaultRegistry:
//
//   - import-layering: stdlib, third-party, then internal import groups
//   - arch-layering: implementation tier must not import orchestration tier
//   - naming: file, function, class, and constant casing conventions
//   - console-io: implementation code routes output through a service,
//     not print()
//   - module-orchestration: routing files delegate instead of holding
//     business data
//   - doc-completeness: shebang, header block, module and function
//     docstrings
//   - config-files: structured data files go through the shared storage
//     helper
//   - test-presence: companion test file exists
//   - error-handling: risky calls guarded; no catch-all excepts; failures
//     logged
//   - encapsulation: no imports from sibling projects
//   - event-emission: lifecycle functions emit events (name-pattern
//     heuristic)
//   - type-refs: public functions carry type annotations
//   - log-severity: critical logging reserved for real failures
//   - module-size: file and function length limits
//
// Detection for event-emission and log-severity is name- and
// keyword-pattern matching over the AST, not semantic analysis; both rules
// are approximate and are documented as such.
package rules
