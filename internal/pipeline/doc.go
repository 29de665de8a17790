// Package pipeline sequences a dandiprep run: scratch cleanup, metadata
// download, input staging, session date extraction, container conversion,
// dandi organize, session renaming, and upload.
//
// Steps run strictly in order on a single goroutine. Each step is logged with
// its name in the context, recorded in the run history when a store is
// configured, and reported in the returned Summary. A failing dandi call halts
// the run unless best-effort mode is enabled, in which case it is logged as a
// warning and the run continues. Conversion and naming failures always halt.
//
// An advisory lock under the results root keeps two runs from sharing the
// scratch tree.
package pipeline
