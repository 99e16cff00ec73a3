// Package diag defines the diagnostic model shared by the analyzer, the rule
// set and every output format.
//
// # Scope
//
// Package diag does not perform any IO or CLI integration. Rendering lives in
// internal/diagfmt, applying fixes lives in internal/fix.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Warning or Error. Only errors gate the exit status.
//   - Code – compact numeric identifier (see codes.go) with a stable
//     string form such as VS-PORT-001.
//   - Message – human oriented text; keep it short and name the fix.
//   - Primary span – byte range of the offending accessor. The line number
//     shown to users is resolved from it through source.FileSet.
//   - Notes – optional secondary spans (e.g. "declared here").
//   - Fixes – optional text edits the fix engine can apply.
//
// # Emitting diagnostics
//
// Rules report through a Reporter so they never depend on storage.
// BagReporter collects into a Bag. Bag keeps insertion order; callers
// that want line order call Sort explicitly.
package diag
