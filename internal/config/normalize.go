package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeInputs(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RawDir) == "" {
		c.Paths.RawDir = filepath.Join(c.Paths.DataDir, defaultRawDirName)
	}
	if c.Paths.RawDir, err = expandPath(c.Paths.RawDir); err != nil {
		return fmt.Errorf("paths.raw_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ConvertedDir) == "" {
		c.Paths.ConvertedDir = filepath.Join(c.Paths.DataDir, defaultConvertedName)
	}
	if c.Paths.ConvertedDir, err = expandPath(c.Paths.ConvertedDir); err != nil {
		return fmt.Errorf("paths.converted_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, defaultLogDirName)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportPath) == "" {
		c.Paths.ReportPath = filepath.Join(c.Paths.ConvertedDir, defaultReportName)
	}
	if c.Paths.ReportPath, err = expandPath(c.Paths.ReportPath); err != nil {
		return fmt.Errorf("paths.report_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeInputs() error {
	defaults := map[*string]string{
		&c.Inputs.EventsPath:        defaultEventsName,
		&c.Inputs.EntriesPath:       defaultEntriesName,
		&c.Inputs.SubmissionsPath:   defaultInputName,
		&c.Inputs.ConfirmationsPath: defaultConfirmedName,
		&c.Inputs.SheetKeyPath:      defaultSheetKeyName,
	}
	for field, name := range defaults {
		if strings.TrimSpace(*field) == "" {
			*field = filepath.Join(c.Paths.DataDir, name)
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return fmt.Errorf("inputs: %w", err)
		}
		*field = expanded
	}
	if strings.TrimSpace(c.Inputs.SheetExportURL) == "" {
		c.Inputs.SheetExportURL = defaultSheetExportURL
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	if strings.TrimSpace(c.Encoder.FFmpegBinary) == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Encoder.FFprobeBinary) == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Encoder.Bitrate) == "" {
		c.Encoder.Bitrate = defaultBitrate
	}
	if len(c.Encoder.Extensions) == 0 {
		c.Encoder.Extensions = defaultExtensions()
	}
	for i, ext := range c.Encoder.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Encoder.Extensions[i] = ext
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = defaultConcurrency
	}
	if c.Fetch.MinFreeRatio < 0 {
		c.Fetch.MinFreeRatio = 0
	}
}
