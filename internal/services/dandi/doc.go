// Package dandi wraps the dandi command-line client used to fetch dandiset
// metadata, lay staged recordings out in the archive's canonical structure,
// and publish them.
//
// Every call returns the captured command.Result alongside any error so the
// pipeline can log output and decide whether a failure is fatal.
package dandi
