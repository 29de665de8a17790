// Package config loads, normalizes, and validates dandiprep configuration data.
//
// It supplies repository defaults for the input, results, and scratch roots,
// expands user paths (including tilde shortcuts), reads TOML files, and honours
// environment fallbacks such as DANDI_API_KEY. The Config type centralizes the
// knobs the pipeline needs: the dandi CLI invocation, the container converter
// command, timeouts for every external call, and logging preferences.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
