package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"medley/internal/config"
	"medley/internal/fetch"
	"medley/internal/logging"
)

// EnsureSubmissionsSnapshot downloads the submission sheet as CSV when the
// local snapshot is absent. An existing snapshot is left untouched so that a
// run always operates on one stable copy of the sheet; delete the file to
// pull a fresh export.
func EnsureSubmissionsSnapshot(ctx context.Context, cfg *config.Config, client *fetch.Client, logger *slog.Logger) error {
	dest := cfg.Inputs.SubmissionsPath
	if _, err := os.Stat(dest); err == nil {
		logger.Debug("submission snapshot present", logging.String("path", dest))
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat submission snapshot: %w", err)
	}

	keyRaw, err := os.ReadFile(cfg.Inputs.SheetKeyPath)
	if err != nil {
		return fmt.Errorf("read sheet key: %w", err)
	}
	key := strings.TrimSpace(string(keyRaw))
	if key == "" {
		return fmt.Errorf("sheet key file %s is empty", cfg.Inputs.SheetKeyPath)
	}

	url := fmt.Sprintf(cfg.Inputs.SheetExportURL, key)
	logger.Info("downloading submission sheet", logging.String("path", dest))
	if err := client.SaveTo(ctx, url, dest); err != nil {
		return fmt.Errorf("download submission sheet: %w", err)
	}
	return nil
}
