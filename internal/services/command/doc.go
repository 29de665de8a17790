// Package command runs external programs synchronously and captures their
// exit status and output.
//
// Every invocation yields a Result carrying the exit code, captured stdout
// and stderr, and wall time. Non-zero exits are reported as *ExitError so
// callers can decide between failing fast and tolerating the failure, while
// deadline overruns and launch failures are tagged with the shared service
// markers. Runner is the seam tests use to replace real processes.
package command
