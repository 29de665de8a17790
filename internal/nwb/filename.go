package nwb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	fieldSeparator  = "_"
	sessionPrefix   = "ses-"
	rawMoviesSuffix = "-raw-movies"
)

// SessionField renders the session entity inserted into organized names,
// e.g. "ses-2023+05+01" or "ses-2023+05+01-raw-movies".
func SessionField(date SessionDate, rawMovies bool) string {
	field := sessionPrefix + date.Encoded()
	if rawMovies {
		field += rawMoviesSuffix
	}
	return field
}

// InsertSession returns name with the session field inserted as its second
// underscore-delimited field. The result is NFC-normalized.
func InsertSession(name string, date SessionDate, rawMovies bool) (string, error) {
	if date.IsZero() {
		return "", fmt.Errorf("%w: no session date for %s", ErrMalformedName, name)
	}
	stem, ok := recordingStem(name)
	if !ok {
		return "", fmt.Errorf("%w: %s lacks %s suffix", ErrMalformedName, name, Extension)
	}
	fields := strings.Split(stem, fieldSeparator)
	if fields[0] == "" {
		return "", fmt.Errorf("%w: %s has an empty leading field", ErrMalformedName, name)
	}
	if len(fields) > 1 && strings.HasPrefix(fields[1], sessionPrefix) {
		return "", fmt.Errorf("%w: %s", ErrAlreadyRenamed, name)
	}

	renamed := make([]string, 0, len(fields)+1)
	renamed = append(renamed, fields[0], SessionField(date, rawMovies))
	renamed = append(renamed, fields[1:]...)
	return norm.NFC.String(strings.Join(renamed, fieldSeparator) + Extension), nil
}

// Rename records one applied file name change.
type Rename struct {
	From string
	To   string
}

// RenameSessions inserts the session field into every recording directly
// inside dir. All targets are computed and checked before the first rename, so
// a malformed name or collision leaves the directory untouched.
func RenameSessions(dir string, date SessionDate, rawMovies bool) ([]Rename, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read organized directory: %w", err)
	}

	var plan []Rename
	targets := make(map[string]string)
	for _, entry := range entries {
		if !IsRecording(entry.Name()) {
			continue
		}
		target, err := InsertSession(entry.Name(), date, rawMovies)
		if err != nil {
			return nil, err
		}
		if prev, dup := targets[target]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrNameCollision, prev, entry.Name(), target)
		}
		targets[target] = entry.Name()
		if _, err := os.Lstat(filepath.Join(dir, target)); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrNameCollision, target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		plan = append(plan, Rename{From: entry.Name(), To: target})
	}

	applied := make([]Rename, 0, len(plan))
	for _, r := range plan {
		if err := os.Rename(filepath.Join(dir, r.From), filepath.Join(dir, r.To)); err != nil {
			return applied, fmt.Errorf("rename %s: %w", r.From, err)
		}
		applied = append(applied, r)
	}
	return applied, nil
}
