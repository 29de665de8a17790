package nwb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SubjectDir is the directory dandi organize placed recordings into.
type SubjectDir struct {
	Path string
	// Others lists further candidate directories that were ignored.
	Others []string
}

// FindSubjectDir returns the first non-hidden subdirectory of dandisetDir in
// lexical order.
func FindSubjectDir(dandisetDir string) (SubjectDir, error) {
	entries, err := os.ReadDir(dandisetDir)
	if err != nil {
		return SubjectDir{}, fmt.Errorf("read dandiset directory: %w", err)
	}
	var found SubjectDir
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if found.Path == "" {
			found.Path = filepath.Join(dandisetDir, entry.Name())
			continue
		}
		found.Others = append(found.Others, entry.Name())
	}
	if found.Path == "" {
		return SubjectDir{}, fmt.Errorf("%w in %s", ErrNoSubjectDir, filepath.Base(dandisetDir))
	}
	return found, nil
}
