// Package nwb holds the naming and layout rules for NWB recordings handled by
// the pipeline: session date extraction from staged file names, Zarr store
// validation, discovery of the organized subject directory, and insertion of
// the session field into organized file names.
//
// Functions here only inspect and rename directory entries. They never open
// recording contents and never invoke external tools.
package nwb
