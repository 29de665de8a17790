package nwb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Extension marks recordings, both HDF5 files and Zarr directories.
const Extension = ".nwb"

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// SessionDate is a YYYY-MM-DD token taken from a recording name.
type SessionDate struct {
	value string
}

// ParseSessionDate returns the first YYYY-MM-DD token found in s.
func ParseSessionDate(s string) (SessionDate, bool) {
	match := datePattern.FindString(s)
	if match == "" {
		return SessionDate{}, false
	}
	return SessionDate{value: match}, true
}

// String returns the date as found, e.g. 2023-05-01.
func (d SessionDate) String() string { return d.value }

// Encoded returns the date with '-' replaced by '+', the form used inside
// session fields where '-' is reserved.
func (d SessionDate) Encoded() string { return strings.ReplaceAll(d.value, "-", "+") }

// IsZero reports whether no date has been set.
func (d SessionDate) IsZero() bool { return d.value == "" }

// DateScan is the outcome of scanning a staged directory.
type DateScan struct {
	// Date is taken from the last recording in lexical order.
	Date SessionDate
	// Source names the recording Date came from.
	Source string
	// Recordings lists every .nwb entry visited.
	Recordings []string
	// Distinct lists each different date seen, in visit order.
	Distinct []string
}

// Conflicting reports whether recordings disagree on the session date.
func (s DateScan) Conflicting() bool { return len(s.Distinct) > 1 }

// ExtractSessionDate scans the immediate children of dir carrying the .nwb
// suffix and returns the date embedded in their stems. Every recording must
// carry a date; when they differ the last one wins.
func ExtractSessionDate(dir string) (DateScan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DateScan{}, fmt.Errorf("read staged directory: %w", err)
	}

	var scan DateScan
	seen := make(map[string]bool)
	for _, entry := range entries {
		stem, ok := recordingStem(entry.Name())
		if !ok {
			continue
		}
		scan.Recordings = append(scan.Recordings, entry.Name())
		date, found := ParseSessionDate(stem)
		if !found {
			return DateScan{}, fmt.Errorf("%w: %s", ErrNoSessionDate, entry.Name())
		}
		if !seen[date.value] {
			seen[date.value] = true
			scan.Distinct = append(scan.Distinct, date.value)
		}
		scan.Date = date
		scan.Source = entry.Name()
	}
	if len(scan.Recordings) == 0 {
		return DateScan{}, fmt.Errorf("%w in %s", ErrNoRecordings, filepath.Base(dir))
	}
	return scan, nil
}

// IsRecording reports whether name carries the recording suffix.
func IsRecording(name string) bool {
	_, ok := recordingStem(name)
	return ok
}

// recordingStem strips the .nwb suffix. Dot-files such as ".nwb" have no stem
// and are not recordings.
func recordingStem(name string) (string, bool) {
	if filepath.Ext(name) != Extension {
		return "", false
	}
	stem := strings.TrimSuffix(name, Extension)
	return stem, stem != ""
}
