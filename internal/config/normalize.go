package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDandi()
	c.normalizeConvert()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputRoot) == "" {
		c.Paths.InputRoot = defaultInputRoot
	}
	if c.Paths.InputRoot, err = expandPath(c.Paths.InputRoot); err != nil {
		return fmt.Errorf("paths.input_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsRoot) == "" {
		c.Paths.ResultsRoot = defaultResultsRoot
	}
	if c.Paths.ResultsRoot, err = expandPath(c.Paths.ResultsRoot); err != nil {
		return fmt.Errorf("paths.results_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchRoot) == "" {
		c.Paths.ScratchRoot = defaultScratchRoot
	}
	if c.Paths.ScratchRoot, err = expandPath(c.Paths.ScratchRoot); err != nil {
		return fmt.Errorf("paths.scratch_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.ResultsRoot, defaultLogDirName)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDandi() {
	c.Dandi.Binary = strings.TrimSpace(c.Dandi.Binary)
	if c.Dandi.Binary == "" {
		c.Dandi.Binary = defaultDandiBinary
	}
	c.Dandi.FilesMode = strings.ToLower(strings.TrimSpace(c.Dandi.FilesMode))
	if c.Dandi.FilesMode == "" {
		c.Dandi.FilesMode = defaultFilesMode
	}
	c.Dandi.APIKey = strings.TrimSpace(c.Dandi.APIKey)
	if c.Dandi.APIKey == "" {
		if value, ok := os.LookupEnv("DANDI_API_KEY"); ok {
			c.Dandi.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeConvert() {
	c.Convert.Command = strings.TrimSpace(c.Convert.Command)
	if c.Convert.Command == "" {
		c.Convert.Command = defaultConvertBinary
	}
	if len(c.Convert.Args) == 0 {
		c.Convert.Args = append([]string(nil), defaultConvertArgs...)
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.ResultsRoot, defaultHistoryFileName)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
