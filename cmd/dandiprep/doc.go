// Package main hosts the dandiprep CLI entrypoint and command graph.
//
// The root command runs the pipeline: it clears scratch, fetches dandiset
// metadata, stages and converts recordings, organizes and renames them, and
// uploads the result. Subcommands scaffold and validate configuration, check
// external dependencies, and list the run history.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it here through flags or dedicated commands.
package main
