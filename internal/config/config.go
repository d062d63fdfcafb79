package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	RawDir       string `toml:"raw_dir"`
	ConvertedDir string `toml:"converted_dir"`
	LogDir       string `toml:"log_dir"`
	ReportPath   string `toml:"report_path"`
}

// Inputs locates the source tables consumed by a run.
type Inputs struct {
	EventsPath        string `toml:"events_path"`
	EntriesPath       string `toml:"entries_path"`
	SubmissionsPath   string `toml:"submissions_path"`
	ConfirmationsPath string `toml:"confirmations_path"`
	SheetKeyPath      string `toml:"sheet_key_path"`
	SheetExportURL    string `toml:"sheet_export_url"`
}

// Encoder contains settings for media conversion and tagging.
type Encoder struct {
	FFmpegBinary  string   `toml:"ffmpeg_binary"`
	FFprobeBinary string   `toml:"ffprobe_binary"`
	Bitrate       string   `toml:"bitrate"`
	Extensions    []string `toml:"extensions"`
}

// Matcher contains the submission-matching weights and acceptance threshold.
// The weights are heuristic tuning, not derived constants; they are exposed
// here so they can be adjusted without a rebuild.
type Matcher struct {
	Threshold       int `toml:"threshold"`
	LastNameExact   int `toml:"last_name_exact"`
	FirstNameExact  int `toml:"first_name_exact"`
	FamilySubstring int `toml:"family_substring"`
	FamilyInitial   int `toml:"family_initial"`
	GivenSubstring  int `toml:"given_substring"`
	GivenInitial    int `toml:"given_initial"`
}

// Fetch contains download behaviour for submitted media.
type Fetch struct {
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Concurrency    int     `toml:"concurrency"`
	MinFreeRatio   float64 `toml:"min_free_ratio"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Inputs  Inputs  `toml:"inputs"`
	Encoder Encoder `toml:"encoder"`
	Matcher Matcher `toml:"matcher"`
	Fetch   Fetch   `toml:"fetch"`
	Logging Logging `toml:"logging"`
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/medley/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("medley.toml")
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

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.RawDir, c.Paths.ConvertedDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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
