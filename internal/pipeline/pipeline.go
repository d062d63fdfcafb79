// Package pipeline materializes cached assets for registrations. Each
// registration moves through NoSubmission -> RawCached -> Converted ->
// Tagged, and the embedded version marker makes every transition idempotent:
// a submission whose source index does not exceed the embedded version is a
// no-op, so the whole batch can be re-run safely.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"medley/internal/config"
	"medley/internal/ledger"
	"medley/internal/logging"
	"medley/internal/media/ffprobe"
	"medley/internal/mediacache"
)

// State is a registration's position in the materialization lifecycle.
type State string

const (
	StateNoSubmission State = "no_submission"
	StateRawCached    State = "raw_cached"
	StateTagged       State = "tagged"
)

// Fetcher downloads a locator to a destination named by the recovered
// extension.
type Fetcher interface {
	Fetch(ctx context.Context, locator string, name func(ext string) string) (string, error)
}

// Encoder converts raw media and embeds tags.
type Encoder interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
	Tag(ctx context.Context, inputPath, outputPath, title, album string) error
}

// UnsupportedFormatError reports a raw file outside the extension allow-list.
// The registration keeps its raw file and any previously tagged asset.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported media format %q for %s", e.Ext, e.Path)
}

// ConvertError reports a failed encode. The previously tagged asset, if any,
// is untouched.
type ConvertError struct {
	Path string
	Err  error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Path, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// TagError reports a failed tag embed. The registration rolls back to
// RawCached; no partially tagged asset is ever published.
type TagError struct {
	Key string
	Err error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag asset for %s: %v", e.Key, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

// Outcome describes what Process did for one registration.
type Outcome struct {
	State State
	// Version is the embedded version after processing, 0 when nothing is
	// materialized.
	Version int
	// Converted reports that an encode ran this invocation.
	Converted bool
	// Refresh reports that the encode superseded an older asset.
	Refresh bool
}

// Pipeline drives the per-registration state machine.
type Pipeline struct {
	cache         *mediacache.Cache
	fetcher       Fetcher
	encoder       Encoder
	allowedExts   map[string]struct{}
	ffprobeBinary string
	logger        *slog.Logger

	// readVersion is swapped in tests to avoid invoking ffprobe.
	readVersion func(ctx context.Context, path string) (int, error)
}

// New builds a pipeline over the cache, fetcher, and encoder.
func New(cfg *config.Config, cache *mediacache.Cache, fetcher Fetcher, encoder Encoder, logger *slog.Logger) *Pipeline {
	allowed := make(map[string]struct{}, len(cfg.Encoder.Extensions))
	for _, ext := range cfg.Encoder.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	p := &Pipeline{
		cache:         cache,
		fetcher:       fetcher,
		encoder:       encoder,
		allowedExts:   allowed,
		ffprobeBinary: cfg.Encoder.FFprobeBinary,
		logger:        logging.NewComponentLogger(logger, "pipeline"),
	}
	p.readVersion = func(ctx context.Context, path string) (int, error) {
		return ffprobe.ReadVersion(ctx, p.ffprobeBinary, path)
	}
	return p
}

// Process ensures the registration's current submission is materialized.
// Failures leave prior state intact and are isolated to this registration.
func (p *Pipeline) Process(ctx context.Context, l *ledger.Ledger, id ledger.RegistrationID) (Outcome, error) {
	reg := l.Registration(id)
	sub, ok := reg.Current()
	if !ok {
		return Outcome{State: StateNoSubmission}, nil
	}

	rawPath, err := p.ensureRaw(ctx, reg, sub)
	if err != nil {
		return Outcome{State: StateNoSubmission}, err
	}

	return p.convertAndTag(ctx, l, id, rawPath, sub)
}

// EnsureRaw fetches the current submission into the raw cache when absent.
// Exposed separately so fetches can run in parallel ahead of the serialized
// convert/tag sequence.
func (p *Pipeline) EnsureRaw(ctx context.Context, l *ledger.Ledger, id ledger.RegistrationID) error {
	reg := l.Registration(id)
	sub, ok := reg.Current()
	if !ok {
		return nil
	}
	_, err := p.ensureRaw(ctx, reg, sub)
	return err
}

func (p *Pipeline) ensureRaw(ctx context.Context, reg *ledger.Registration, sub ledger.Submission) (string, error) {
	rawPath, exists, err := p.cache.LocateRaw(sub.SourceIndex, reg.Key)
	if err != nil {
		return "", err
	}
	if exists {
		return rawPath, nil
	}

	if err := p.cache.EnsureCapacity(); err != nil {
		return "", err
	}
	p.logger.Info("downloading submission",
		logging.String(logging.FieldRegistration, reg.Key),
		logging.Int("submission", sub.SourceIndex),
	)
	return p.fetcher.Fetch(ctx, sub.Locator, func(ext string) string {
		return p.cache.RawPath(sub.SourceIndex, reg.Key, ext)
	})
}

func (p *Pipeline) convertAndTag(ctx context.Context, l *ledger.Ledger, id ledger.RegistrationID, rawPath string, sub ledger.Submission) (Outcome, error) {
	reg := l.Registration(id)
	assetPath := p.cache.ConvertedPath(reg.Key)

	embedded, err := p.readVersion(ctx, assetPath)
	if err != nil {
		return Outcome{State: StateRawCached}, fmt.Errorf("read embedded version: %w", err)
	}
	if sub.SourceIndex <= embedded {
		// Monotonic-version guarantee: nothing newer to materialize.
		return Outcome{State: StateTagged, Version: embedded}, nil
	}

	ext := strings.ToLower(filepath.Ext(rawPath))
	if _, ok := p.allowedExts[ext]; !ok {
		return Outcome{State: StateRawCached, Version: embedded}, &UnsupportedFormatError{Path: rawPath, Ext: ext}
	}

	refresh := embedded > 0
	if refresh {
		p.logger.Info("superseding cached asset",
			logging.String(logging.FieldRegistration, reg.Key),
			logging.Int("embedded", embedded),
			logging.Int("submission", sub.SourceIndex),
		)
	}

	staging := assetPath + ".converting.mp3"
	defer os.Remove(staging)
	if err := p.encoder.Convert(ctx, rawPath, staging); err != nil {
		return Outcome{State: StateRawCached, Version: embedded}, &ConvertError{Path: rawPath, Err: err}
	}

	title := l.Roster().Competitor(reg.Competitor).FullName()
	if sub.SourceIndex > 1 {
		title += " " + strconv.Itoa(sub.SourceIndex)
	}
	album := l.Catalog().Slot(reg.Slot).Name

	if err := p.encoder.Tag(ctx, staging, assetPath, title, album); err != nil {
		return Outcome{State: StateRawCached, Version: embedded}, &TagError{Key: reg.Key, Err: err}
	}

	p.logger.Info("materialized asset",
		logging.String(logging.FieldRegistration, reg.Key),
		logging.Int("version", sub.SourceIndex),
	)
	return Outcome{State: StateTagged, Version: sub.SourceIndex, Converted: true, Refresh: refresh}, nil
}
