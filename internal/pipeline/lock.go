package pipeline

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrRunInProgress reports that another process holds the run lock.
var ErrRunInProgress = errors.New("another dandiprep run is in progress")

func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, path)
	}
	return lock, nil
}
