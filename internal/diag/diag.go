// Package diag collects per-record diagnostics produced during a batch run.
// Every skipped, ambiguous, or failed record lands here instead of aborting
// the batch, so operators can correct source data and re-run.
package diag

import (
	"fmt"
	"log/slog"
	"sync"

	"medley/internal/logging"
)

// Kind classifies a diagnostic record.
type Kind string

const (
	// KindIdentityAmbiguous marks a best-guess identity match by name or
	// email rather than numeric id.
	KindIdentityAmbiguous Kind = "identity_ambiguous"
	// KindUnresolvedIdentity marks a record referencing nobody on the roster.
	KindUnresolvedIdentity Kind = "unresolved_identity"
	// KindUnrecognizedEvent marks an event label outside the catalog.
	KindUnrecognizedEvent Kind = "unrecognized_event"
	// KindUnmatchedSubmission marks a submission no registration claimed.
	KindUnmatchedSubmission Kind = "unmatched_submission"
	// KindFetchFailed marks a raw download failure.
	KindFetchFailed Kind = "fetch_failed"
	// KindUnsupportedFormat marks a raw file outside the extension allow-list.
	KindUnsupportedFormat Kind = "unsupported_format"
	// KindConvertFailed marks a failed conversion to the delivery format.
	KindConvertFailed Kind = "convert_failed"
	// KindTagWriteFailed marks a failed tag embed after conversion.
	KindTagWriteFailed Kind = "tag_write_failed"
	// KindDataIntegrity marks a source row contradicting itself, such as a
	// stated gender conflicting with the event label.
	KindDataIntegrity Kind = "data_integrity"
)

// Record is one diagnostic entry.
type Record struct {
	Kind    Kind
	Subject string // the record or registration the diagnostic concerns
	Detail  string
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Kind, r.Subject, r.Detail)
}

// Collector accumulates diagnostics and mirrors them to a logger. The zero
// value is not usable; construct with New.
type Collector struct {
	mu      sync.Mutex
	records []Record
	logger  *slog.Logger
}

// New returns a collector mirroring records to the given logger. A nil
// logger disables mirroring.
func New(logger *slog.Logger) *Collector {
	return &Collector{logger: logging.NewComponentLogger(logger, "diagnostics")}
}

// Add records a diagnostic.
func (c *Collector) Add(kind Kind, subject, format string, args ...any) {
	record := Record{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()
	c.logger.Warn(record.Detail,
		logging.String("kind", string(kind)),
		logging.String("subject", subject),
	)
}

// AddError records a diagnostic carrying an underlying error.
func (c *Collector) AddError(kind Kind, subject string, err error) {
	if err == nil {
		return
	}
	c.Add(kind, subject, "%v", err)
}

// Records returns a copy of all collected diagnostics in arrival order.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Count reports the number of diagnostics of the given kind; an empty kind
// counts everything.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == "" {
		return len(c.records)
	}
	n := 0
	for _, record := range c.records {
		if record.Kind == kind {
			n++
		}
	}
	return n
}
