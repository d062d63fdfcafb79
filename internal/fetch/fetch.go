// Package fetch downloads submitted media by locator. Known share-link
// locators are rewritten to their direct-download form, and the original
// filename's extension is recovered from the response so the raw cache keeps
// the container format visible.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"medley/internal/config"
	"medley/internal/logging"
)

// Error reports a failed or unusable download. The registration it concerns
// stays unfetched and is retried on the next run.
type Error struct {
	Locator string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client downloads submission media over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client with the configured timeout.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second},
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
}

// RewriteLocator converts known share-style locators to direct-download
// form. Unrecognized locators pass through unchanged.
func RewriteLocator(locator string) string {
	parsed, err := url.Parse(locator)
	if err != nil || parsed.Host != "drive.google.com" {
		return locator
	}
	if id := parsed.Query().Get("id"); id != "" {
		return "https://drive.google.com/uc?export=download&id=" + id
	}
	// Share links of the form /file/d/<id>/view carry the id in the path.
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return "https://drive.google.com/uc?export=download&id=" + parts[i+1]
		}
	}
	return locator
}

// Fetch downloads a locator. The destination path is produced by name from
// the recovered file extension (".mp3", ".wav", ...), so callers control the
// cache naming. Returns the written path.
func (c *Client) Fetch(ctx context.Context, locator string, name func(ext string) string) (string, error) {
	target := RewriteLocator(locator)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &Error{Locator: locator, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Locator: locator, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	ext := extensionFrom(resp, target)
	if ext == "" {
		return "", &Error{Locator: locator, Err: fmt.Errorf("cannot determine file extension")}
	}

	dest := name(strings.ToLower(ext))
	if err := writeAtomic(dest, resp.Body); err != nil {
		return "", &Error{Locator: locator, Err: err}
	}
	c.logger.Info("downloaded submission",
		logging.String("locator", locator),
		logging.String("path", dest),
	)
	return dest, nil
}

// SaveTo downloads a URL straight to a path, used for spreadsheet snapshot
// retrieval where no extension recovery is needed.
func (c *Client) SaveTo(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Locator: rawURL, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Locator: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Locator: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := writeAtomic(dest, resp.Body); err != nil {
		return &Error{Locator: rawURL, Err: err}
	}
	return nil
}

// extensionFrom recovers the original filename's extension, preferring the
// Content-Disposition filename over the request path.
func extensionFrom(resp *http.Response, target string) string {
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if filename := params["filename"]; filename != "" {
				if ext := filepath.Ext(filename); ext != "" {
					return ext
				}
			}
		}
	}
	if parsed, err := url.Parse(target); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" {
			return ext
		}
	}
	return ""
}

func writeAtomic(dest string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close download: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}
