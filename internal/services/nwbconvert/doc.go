// Package nwbconvert converts NWB recordings between the HDF5 single-file
// container and the Zarr directory store.
//
// The export itself is performed by an external converter command configured
// as an argument template. The client owns the filesystem contract around it:
// output is written to a hidden ".partial" sibling, the source is removed only
// after a successful export, and the result is then moved into place.
package nwbconvert
