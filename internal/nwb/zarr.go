package nwb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ZarrAttrsFile marks the root of a Zarr v2 store.
const ZarrAttrsFile = ".zattrs"

// ValidateZarrStore checks that path is a directory holding a regular
// .zattrs file.
func ValidateZarrStore(path string) error {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidZarr, name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidZarr, name)
	}
	attrs, err := os.Stat(filepath.Join(path, ZarrAttrsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s has no %s", ErrInvalidZarr, name, ZarrAttrsFile)
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidZarr, name, err)
	}
	if !attrs.Mode().IsRegular() {
		return fmt.Errorf("%w: %s/%s is not a regular file", ErrInvalidZarr, name, ZarrAttrsFile)
	}
	return nil
}
