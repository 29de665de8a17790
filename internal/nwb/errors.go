package nwb

import "errors"

var (
	// ErrNoRecordings reports a staged directory without any .nwb entries.
	ErrNoRecordings = errors.New("no nwb recordings found")
	// ErrNoSessionDate reports an .nwb entry whose name carries no YYYY-MM-DD token.
	ErrNoSessionDate = errors.New("no session date in file name")
	// ErrInvalidZarr reports a directory that is not a Zarr store root.
	ErrInvalidZarr = errors.New("not a valid zarr store")
	// ErrNoSubjectDir reports an organized dandiset without a subject directory.
	ErrNoSubjectDir = errors.New("no organized subject directory")
	// ErrMalformedName reports a file name the session field cannot be inserted into.
	ErrMalformedName = errors.New("malformed file name")
	// ErrAlreadyRenamed reports a file name that already carries a session field.
	ErrAlreadyRenamed = errors.New("file name already has a session field")
	// ErrNameCollision reports a rename or conversion target that already exists.
	ErrNameCollision = errors.New("destination already exists")
)
