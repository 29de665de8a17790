// Package services defines shared utilities consumed by the pipeline steps and
// the external tool integrations beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and step names for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs invalid).
//
// Integrations with external programs live in subpackages (command, dandi,
// nwbconvert) and report failures through these markers.
package services
