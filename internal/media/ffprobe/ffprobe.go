package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Format Format `json:"format"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename string            `json:"filename"`
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	cleaned := strings.TrimSpace(r.Format.Duration)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// Tag returns a format tag by case-insensitive key.
func (r Result) Tag(key string) string {
	for name, value := range r.Format.Tags {
		if strings.EqualFold(name, key) {
			return value
		}
	}
	return ""
}

// Title returns the embedded title tag.
func (r Result) Title() string {
	return r.Tag("title")
}

// Album returns the embedded album tag.
func (r Result) Album() string {
	return r.Tag("album")
}

// EmbeddedVersion recovers the version marker from the title tag: its
// trailing integer token. Titles without a trailing integer are version 1
// (the suffix is only written for superseding versions).
func (r Result) EmbeddedVersion() int {
	fields := strings.Fields(r.Title())
	if len(fields) == 0 {
		return 0
	}
	version, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || version < 0 {
		return 1
	}
	return version
}

// ReadVersion inspects an asset and returns its embedded version marker, or
// 0 when the asset does not exist. Probe failures on an existing file
// propagate so callers do not mistake a corrupt asset for an absent one.
func ReadVersion(ctx context.Context, binary, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat asset: %w", err)
	}
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	return result.EmbeddedVersion(), nil
}

// ReadDuration returns the duration of an asset in seconds, or 0 when the
// asset does not exist yet. It never mutates state.
func ReadDuration(ctx context.Context, binary, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat asset: %w", err)
	}
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}
