package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var validFilesModes = map[string]struct{}{
	"dry":      {},
	"simulate": {},
	"copy":     {},
	"move":     {},
	"hardlink": {},
	"symlink":  {},
	"auto":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDandi(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ScratchRoot == c.Paths.InputRoot {
		return errors.New("paths.scratch_root must differ from paths.input_root; the scratch tree is cleared on every run")
	}
	if c.Paths.ScratchRoot == c.Paths.ResultsRoot {
		return errors.New("paths.scratch_root must differ from paths.results_root; the scratch tree is cleared on every run")
	}
	return nil
}

func (c *Config) validateDandi() error {
	if _, ok := validFilesModes[c.Dandi.FilesMode]; !ok {
		modes := make([]string, 0, len(validFilesModes))
		for mode := range validFilesModes {
			modes = append(modes, mode)
		}
		sort.Strings(modes)
		return fmt.Errorf("dandi.files_mode %q is not one of %s", c.Dandi.FilesMode, strings.Join(modes, ", "))
	}
	return ensurePositiveMap(map[string]int{
		"dandi.download_timeout": c.Dandi.DownloadTimeout,
		"dandi.organize_timeout": c.Dandi.OrganizeTimeout,
		"dandi.upload_timeout":   c.Dandi.UploadTimeout,
	})
}

func (c *Config) validateConvert() error {
	if c.Convert.Timeout <= 0 {
		return errors.New("convert.timeout must be positive (seconds)")
	}
	joined := strings.Join(c.Convert.Args, " ")
	for _, placeholder := range []string{"{src}", "{dst}"} {
		if !strings.Contains(joined, placeholder) {
			return fmt.Errorf("convert.args must reference %s", placeholder)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
