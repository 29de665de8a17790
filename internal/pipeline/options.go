package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"dandiprep/internal/services"
	"dandiprep/internal/services/nwbconvert"
)

// RawMoviesEnabled is the only --raw_movies value that selects the raw-movies
// session suffix. Any other value, including "true", leaves it off.
const RawMoviesEnabled = "True"

// Options describes one run.
type Options struct {
	DandisetID string
	RawMovies  string
	// InputPath is resolved against paths.input_root unless absolute.
	InputPath  string
	Filetype   nwbconvert.Format
	BestEffort bool
	Preflight  bool
}

// RawMoviesSuffix reports whether renamed files carry the raw-movies suffix.
func (o Options) RawMoviesSuffix() bool {
	return o.RawMovies == RawMoviesEnabled
}

// Validate rejects options that cannot produce a run.
func (o Options) Validate() error {
	id := strings.TrimSpace(o.DandisetID)
	if id == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate options", "dandiset id required", nil)
	}
	if id != o.DandisetID || filepath.Base(id) != id || id == "." || id == ".." {
		return services.Wrap(services.ErrConfiguration, "", "validate options", fmt.Sprintf("dandiset id %q must be a plain directory name", o.DandisetID), nil)
	}
	if _, err := nwbconvert.ParseFormat(string(o.Filetype)); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "validate options", "", err)
	}
	if strings.TrimSpace(o.InputPath) == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate options", "input path required", nil)
	}
	return nil
}
