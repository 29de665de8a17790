// Package history persists a ledger of pipeline runs in SQLite.
//
// Each invocation records one run row (dandiset, target filetype, extracted
// session date, terminal status) and one row per pipeline step with its
// outcome. The ledger lives under the results root so operators can audit
// which dandisets were uploaded, when, and why a run stopped.
package history
