package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the fixed directory layout the pipeline works in.
type Paths struct {
	InputRoot   string `toml:"input_root"`
	ResultsRoot string `toml:"results_root"`
	ScratchRoot string `toml:"scratch_root"`
	LogDir      string `toml:"log_dir"`
}

// Dandi contains configuration for the dandi command-line client.
type Dandi struct {
	Binary          string `toml:"binary"`
	FilesMode       string `toml:"files_mode"`
	APIKey          string `toml:"api_key"`
	DownloadTimeout int    `toml:"download_timeout"`
	OrganizeTimeout int    `toml:"organize_timeout"`
	UploadTimeout   int    `toml:"upload_timeout"`
}

// Convert contains configuration for the HDF5/Zarr container converter.
type Convert struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout int      `toml:"timeout"`
}

// Workflow contains run behaviour switches.
type Workflow struct {
	BestEffort bool `toml:"best_effort"`
}

// History contains configuration for the SQLite run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dandiprep.
//
// Configuration sections by subsystem:
//   - Paths: input, results, and scratch roots plus the log directory
//   - Dandi: dandi CLI binary, organize mode, credentials, and timeouts
//   - Convert: external container converter invocation
//   - Workflow: strict vs best-effort handling of external failures
//   - History: SQLite run ledger
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Dandi    Dandi    `toml:"dandi"`
	Convert  Convert  `toml:"convert"`
	Workflow Workflow `toml:"workflow"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dandiprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dandiprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the results, scratch, and log directories. The input
// root is never created: it must already hold the recordings.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ResultsRoot, c.Paths.ScratchRoot, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file guarding the scratch tree.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ResultsRoot, "dandiprep.lock")
}

// LogPath returns the persistent log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "dandiprep.log")
}

// DandiTimeouts returns the configured per-subcommand timeouts.
func (c *Config) DandiTimeouts() (download, organize, upload time.Duration) {
	return seconds(c.Dandi.DownloadTimeout), seconds(c.Dandi.OrganizeTimeout), seconds(c.Dandi.UploadTimeout)
}

// ConvertTimeout returns the timeout applied to a single container export.
func (c *Config) ConvertTimeout() time.Duration {
	return seconds(c.Convert.Timeout)
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ResolveInput joins a user-supplied input path onto the input root. Absolute
// paths are returned unchanged.
func (c *Config) ResolveInput(input string) string {
	input = strings.TrimSpace(input)
	if filepath.IsAbs(input) {
		return filepath.Clean(input)
	}
	return filepath.Join(c.Paths.InputRoot, input)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
