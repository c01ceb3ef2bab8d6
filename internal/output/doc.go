// Package output turns classifier results into reports.
//
// A Report aggregates the findings of every analyzed package together with the revisions
// compared. It is written in one of three formats:
//
//   - human: findings rendered by the explain package, optionally coloured
//   - json: deterministic, indented, object keys sorted
//   - yaml: the same document as YAML
//
// # Determinism
//
// The same baseline and head trees produce byte-identical JSON and YAML. The report ID is
// a name-based (version 5) UUID over the revisions and per-package graph snapshot IDs, so
// it is stable across runs and machines. Only tool.version is excluded when comparing
// snapshots in tests.
package output
