// Package ffmpeg wraps the ffmpeg command line for the two operations the
// pipeline needs: converting a raw submission to the fixed-bitrate mp3 form,
// and embedding title/album tags carrying the version marker.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithBitrate overrides the default audio bitrate.
func WithBitrate(bitrate string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(bitrate) != "" {
			c.bitrate = bitrate
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary  string
	bitrate string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg", bitrate: "256k"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Convert encodes the input into mp3 at the configured bitrate.
func (c *CLI) Convert(ctx context.Context, inputPath, outputPath string) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	args := []string{"-y", "-i", inputPath, "-acodec", "mp3", "-ab", c.bitrate, outputPath}
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg convert: %w: %s", err, tail(output))
	}
	return nil
}

// Tag writes title and album metadata. The container is copied, not
// re-encoded, and the destination is replaced atomically: a failure leaves
// any existing destination untouched.
func (c *CLI) Tag(ctx context.Context, inputPath, outputPath, title, album string) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	staging := outputPath + ".tagging.mp3"
	defer os.Remove(staging)

	args := []string{
		"-y", "-i", inputPath,
		"-c", "copy",
		"-metadata", "title=" + title,
		"-metadata", "album=" + album,
		staging,
	}
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg tag: %w: %s", err, tail(output))
	}
	if err := os.Rename(staging, outputPath); err != nil {
		return fmt.Errorf("finalize tagged asset: %w", err)
	}
	return nil
}

// tail trims command output to its last few lines; ffmpeg banners bury the
// actual error otherwise.
func tail(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, "\n")
}
