// Package workflow runs the full batch: ingest the source tables, attribute
// submissions, drive the media pipeline, and write the status report.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"medley/internal/config"
	"medley/internal/deps"
	"medley/internal/diag"
	"medley/internal/fetch"
	"medley/internal/ingest"
	"medley/internal/ledger"
	"medley/internal/logging"
	"medley/internal/match"
	"medley/internal/media/ffmpeg"
	"medley/internal/media/ffprobe"
	"medley/internal/mediacache"
	"medley/internal/pipeline"
	"medley/internal/report"
	"medley/internal/runstore"
)

// Result summarizes one completed run.
type Result struct {
	RunID       string
	Ledger      *ledger.Ledger
	Outcomes    map[ledger.RegistrationID]pipeline.Outcome
	Diagnostics []diag.Record
	Summary     runstore.Summary
	ReportPath  string
}

// Workflow wires the run sequence together. The store is optional; without
// it runs simply aren't recorded.
type Workflow struct {
	cfg    *config.Config
	store  *runstore.Store
	logger *slog.Logger
}

func New(cfg *config.Config, store *runstore.Store, logger *slog.Logger) *Workflow {
	return &Workflow{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow"),
	}
}

// Run executes the batch. Per-record faults land in diagnostics; only
// environment-level failures (unreadable tables, missing binaries) abort.
func (w *Workflow) Run(ctx context.Context) (*Result, error) {
	runID := ""
	if w.store != nil {
		id, err := w.store.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
		runID = id
	}

	result, err := w.run(ctx, runID)
	if w.store != nil && runID != "" {
		if err != nil {
			if storeErr := w.store.Fail(ctx, runID, err); storeErr != nil {
				w.logger.Warn("record run failure", logging.Error(storeErr))
			}
			return nil, err
		}
		if storeErr := w.store.Finish(ctx, runID, result.Summary); storeErr != nil {
			w.logger.Warn("record run finish", logging.Error(storeErr))
		}
		if storeErr := w.store.RecordDiagnostics(ctx, runID, result.Diagnostics); storeErr != nil {
			w.logger.Warn("record diagnostics", logging.Error(storeErr))
		}
	}
	return result, err
}

func (w *Workflow) run(ctx context.Context, runID string) (*Result, error) {
	if err := deps.Missing(deps.CheckBinaries(deps.Requirements(w.cfg))); err != nil {
		return nil, err
	}
	if err := w.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	diags := diag.New(w.logger)
	client := fetch.NewClient(w.cfg, w.logger)

	cat, err := ingest.ReadEvents(w.cfg.Inputs.EventsPath)
	if err != nil {
		return nil, err
	}
	_, l, err := ingest.ReadEntries(w.cfg.Inputs.EntriesPath, cat, diags)
	if err != nil {
		return nil, err
	}
	w.logger.Info("entries ingested",
		logging.Int("slots", cat.Len()),
		logging.Int("registrations", l.Len()),
	)

	if path := w.cfg.Inputs.ConfirmationsPath; path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := ingest.ReadConfirmations(path, l, diags); err != nil {
				return nil, err
			}
		}
	}

	if err := ingest.EnsureSubmissionsSnapshot(ctx, w.cfg, client, w.logger); err != nil {
		return nil, err
	}
	matcher := match.New(w.cfg.Matcher)
	attached, err := ingest.ReadSubmissions(w.cfg.Inputs.SubmissionsPath, l, matcher, diags)
	if err != nil {
		return nil, err
	}
	w.logger.Info("submissions attributed", logging.Int("attached", attached))

	cache := mediacache.New(w.cfg, w.logger)
	encoder := ffmpeg.NewCLI(
		ffmpeg.WithBinary(w.cfg.Encoder.FFmpegBinary),
		ffmpeg.WithBitrate(w.cfg.Encoder.Bitrate),
	)
	pipe := pipeline.New(w.cfg, cache, client, encoder, w.logger)

	outcomes, converted, refreshed := w.processRegistrations(ctx, pipe, l, diags)

	reportPath, err := w.writeReport(ctx, l, cache)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		Ledger:      l,
		Outcomes:    outcomes,
		Diagnostics: diags.Records(),
		Summary: runstore.Summary{
			Registrations: l.Len(),
			Submissions:   attached,
			Converted:     converted,
			Refreshed:     refreshed,
		},
		ReportPath: reportPath,
	}
	w.logger.Info("run complete",
		logging.Int("registrations", result.Summary.Registrations),
		logging.Int("converted", converted),
		logging.Int("diagnostics", len(result.Diagnostics)),
	)
	return result, nil
}

// processRegistrations prefetches raw submissions in parallel, then runs the
// convert/tag sequence serially. Conversion stays serial so ffmpeg owns the
// machine's cores one track at a time.
func (w *Workflow) processRegistrations(ctx context.Context, pipe *pipeline.Pipeline, l *ledger.Ledger, diags *diag.Collector) (map[ledger.RegistrationID]pipeline.Outcome, int, int) {
	ids := l.IDs()

	limit := w.cfg.Fetch.Concurrency
	if limit <= 0 {
		limit = 1
	}
	var mu sync.Mutex
	failed := make(map[ledger.RegistrationID]struct{})
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, id := range ids {
		id := id
		group.Go(func() error {
			if err := pipe.EnsureRaw(groupCtx, l, id); err != nil {
				w.addPipelineDiag(diags, l, id, err)
				mu.Lock()
				failed[id] = struct{}{}
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors; faults are collected per registration.
	_ = group.Wait()

	outcomes := make(map[ledger.RegistrationID]pipeline.Outcome, len(ids))
	converted := 0
	refreshed := 0
	for _, id := range ids {
		if _, skip := failed[id]; skip {
			continue
		}
		outcome, err := pipe.Process(ctx, l, id)
		if err != nil {
			w.addPipelineDiag(diags, l, id, err)
			continue
		}
		outcomes[id] = outcome
		if outcome.Converted {
			converted++
		}
		if outcome.Refresh {
			refreshed++
		}
	}
	return outcomes, converted, refreshed
}

func (w *Workflow) addPipelineDiag(diags *diag.Collector, l *ledger.Ledger, id ledger.RegistrationID, err error) {
	subject := l.Registration(id).Key

	var fetchErr *fetch.Error
	var formatErr *pipeline.UnsupportedFormatError
	var convertErr *pipeline.ConvertError
	var tagErr *pipeline.TagError
	switch {
	case errors.As(err, &formatErr):
		diags.AddError(diag.KindUnsupportedFormat, subject, err)
	case errors.As(err, &convertErr):
		diags.AddError(diag.KindConvertFailed, subject, err)
	case errors.As(err, &tagErr):
		diags.AddError(diag.KindTagWriteFailed, subject, err)
	case errors.As(err, &fetchErr):
		diags.AddError(diag.KindFetchFailed, subject, err)
	default:
		diags.AddError(diag.KindFetchFailed, subject, err)
	}
}

func (w *Workflow) writeReport(ctx context.Context, l *ledger.Ledger, cache *mediacache.Cache) (string, error) {
	rep := report.Build(l, cache, w.cfg.Paths.ReportPath, func(path string) (float64, error) {
		return ffprobe.ReadDuration(ctx, w.cfg.Encoder.FFprobeBinary, path)
	})

	path := w.cfg.Paths.ReportPath
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer file.Close()
	if err := rep.WriteHTML(file); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
