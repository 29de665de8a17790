// Package logging assembles structured slog loggers and formatting helpers used
// across dandiprep.
//
// It owns the console and JSON handlers, fans output to stdout and the
// persistent log file, and exposes attribute helpers plus run/step context so
// every line emitted during a pipeline run carries the run ID and step name.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
