// Package ingest reads the source tables: events, entries, submissions, and
// the optional confirmation sheet. Every per-row fault is isolated and
// reported through the diagnostics collector; no bad row aborts a batch.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"medley/internal/catalog"
	"medley/internal/diag"
	"medley/internal/identity"
	"medley/internal/ledger"
	"medley/internal/match"
	"medley/internal/textutil"
)

// table wraps a CSV stream with header-name field access.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	row     []string
	// Row is the 1-based data row number of the current row.
	Row int
}

func openTable(path string) (*table, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	t, err := newTable(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, file, nil
}

func newTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	return &table{reader: reader, columns: columns}, nil
}

// Next advances to the next data row.
func (t *table) Next() (bool, error) {
	row, err := t.reader.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.row = row
	t.Row++
	return true, nil
}

// Field returns a trimmed column value, empty when the column is absent.
func (t *table) Field(name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[idx])
}

func intOrZero(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

// ReadEvents loads the canonical slot catalog from the events table.
// Columns: Level, Gender, Category, Min Music Length, Max Music Length.
func ReadEvents(path string) (*catalog.Catalog, error) {
	t, file, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("open events table: %w", err)
	}
	defer file.Close()

	var slots []catalog.Slot
	for {
		ok, err := t.Next()
		if err != nil {
			return nil, fmt.Errorf("events row %d: %w", t.Row+1, err)
		}
		if !ok {
			break
		}
		slots = append(slots, catalog.NewSlot(
			t.Field("Level"),
			t.Field("Gender"),
			t.Field("Category"),
			intOrZero(t.Field("Min Music Length")),
			intOrZero(t.Field("Max Music Length")),
		))
	}
	return catalog.New(slots), nil
}

// ReadEntries ingests the authoritative entry table into a fresh roster and
// ledger. Columns: Event, Gender, USF #, First Name, Last Name, E-mail,
// University. Rows with unrecognizable events or gender conflicts are
// skipped and reported.
func ReadEntries(path string, cat *catalog.Catalog, diags *diag.Collector) (*identity.Roster, *ledger.Ledger, error) {
	t, file, err := openTable(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open entries table: %w", err)
	}
	defer file.Close()

	roster := identity.NewRoster()
	l := ledger.New(roster, cat)

	for {
		ok, err := t.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("entries row %d: %w", t.Row+1, err)
		}
		if !ok {
			break
		}
		subject := fmt.Sprintf("entries row %d", t.Row)

		rawEvent := textutil.TitleCase(t.Field("Event"))
		gender := t.Field("Gender")
		slotID, err := cat.Resolve(rawEvent, gender)
		if err != nil {
			kind := diag.KindUnrecognizedEvent
			var conflict *catalog.GenderConflictError
			if errors.As(err, &conflict) {
				kind = diag.KindDataIntegrity
			}
			diags.AddError(kind, subject, err)
			continue
		}
		slot := cat.Slot(slotID)
		if slot.Gender != "" && gender != "" && slot.Gender != gender {
			diags.Add(diag.KindDataIntegrity, subject,
				"stated gender %q conflicts with event %q", gender, slot.Name)
			continue
		}

		competitor, basis := roster.ResolveOrCreate(
			t.Field("USF #"),
			textutil.TitleCase(t.Field("First Name")),
			textutil.TitleCase(t.Field("Last Name")),
			t.Field("E-mail"),
		)
		if basis.Ambiguous() {
			diags.Add(diag.KindIdentityAmbiguous, subject,
				"matched %q by %s", roster.Competitor(competitor).FullName(), basis)
		}
		roster.SetAffiliation(competitor, textutil.TitleCase(t.Field("University")))
		l.Register(competitor, slotID)
	}
	return roster, l, nil
}

// ReadConfirmations applies the manual confirmation sheet. Rows carry Name
// and University; a row with a name and no affiliation is an event header
// for the rows beneath it, and blank-name rows are ignored. A confirmation
// for an unregistered (competitor, slot) pair files a new confirmed
// registration.
func ReadConfirmations(path string, l *ledger.Ledger, diags *diag.Collector) error {
	t, file, err := openTable(path)
	if err != nil {
		return fmt.Errorf("open confirmations table: %w", err)
	}
	defer file.Close()

	cat := l.Catalog()
	roster := l.Roster()
	currentSlot := catalog.SlotID(-1)

	for {
		ok, err := t.Next()
		if err != nil {
			return fmt.Errorf("confirmations row %d: %w", t.Row+1, err)
		}
		if !ok {
			break
		}
		name := textutil.TitleCase(t.Field("Name"))
		affiliation := textutil.TitleCase(t.Field("University"))
		if name == "" {
			continue
		}
		subject := fmt.Sprintf("confirmations row %d", t.Row)

		if affiliation == "" {
			// Event header row.
			slotID, err := cat.Resolve(name, "")
			if err != nil {
				diags.AddError(diag.KindUnrecognizedEvent, subject, err)
				currentSlot = -1
				continue
			}
			currentSlot = slotID
			continue
		}

		if currentSlot < 0 {
			diags.Add(diag.KindUnresolvedIdentity, subject,
				"confirmation for %q precedes any event header", name)
			continue
		}
		slot := cat.Slot(currentSlot)
		if slot.Category == "Team Maneuvers" {
			// Team rows name institutions, not competitors.
			continue
		}

		competitor, found := roster.FindByNameAffiliation(name, affiliation)
		if !found {
			diags.Add(diag.KindUnresolvedIdentity, subject,
				"no competitor %q at %q for %q", name, affiliation, slot.Name)
			continue
		}
		id, exists := l.Lookup(competitor, currentSlot)
		if !exists {
			id = l.Register(competitor, currentSlot)
		}
		l.Confirm(id)
	}
	return nil
}

// categoryColumns pairs each submission sheet event column with its media
// locator column.
var categoryColumns = [][2]string{
	{"Free Dance Event", "Free Dance Music"},
	{"Free Skate Event", "Free Skate Music"},
	{"Short Program Event", "Short Program Music"},
}

// ReadSubmissions attributes the submission sheet to registrations. Each
// data row may carry up to one submission per category; all submissions on a
// row share its 1-based source index, which is the version number. Rows are
// processed in sheet order so indices arrive non-decreasing.
//
// Identity resolution is attempted first (id with family-name guard, then
// name, then email); when it fails, the row's free-text name is scored
// against the declared event's candidates.
func ReadSubmissions(path string, l *ledger.Ledger, matcher *match.Matcher, diags *diag.Collector) (int, error) {
	t, file, err := openTable(path)
	if err != nil {
		return 0, fmt.Errorf("open submissions table: %w", err)
	}
	defer file.Close()

	roster := l.Roster()
	attached := 0

	for {
		ok, err := t.Next()
		if err != nil {
			return attached, fmt.Errorf("submissions row %d: %w", t.Row+1, err)
		}
		if !ok {
			break
		}
		subject := fmt.Sprintf("submissions row %d", t.Row)

		numericID := t.Field("USFS Number")
		name := textutil.TitleCase(t.Field("Skater Name"))
		email := t.Field("Email Address")

		competitor, basis, resolved := roster.Find(numericID, name, email)
		if resolved && basis.Ambiguous() {
			diags.Add(diag.KindIdentityAmbiguous, subject,
				"matched %q by %s", roster.Competitor(competitor).FullName(), basis)
		}

		for _, pair := range categoryColumns {
			event := textutil.TitleCase(t.Field(pair[0]))
			locator := t.Field(pair[1])
			if event == "" || locator == "" {
				continue
			}
			sub := ledger.Submission{Locator: locator, SourceIndex: t.Row}

			if resolved {
				if attachDirect(l, competitor, event, sub) {
					attached++
					continue
				}
				diags.Add(diag.KindUnmatchedSubmission, subject,
					"%q holds no registration in %q", roster.Competitor(competitor).FullName(), event)
				continue
			}

			if _, err := matcher.Attach(l, event, name, sub); err != nil {
				diags.AddError(diag.KindUnmatchedSubmission, subject, err)
				continue
			}
			attached++
		}
	}
	return attached, nil
}

// attachDirect files a submission against the resolved competitor's own
// registration in the declared event.
func attachDirect(l *ledger.Ledger, competitor identity.CompetitorID, event string, sub ledger.Submission) bool {
	for _, id := range l.ByCompetitor(competitor) {
		if l.Catalog().Slot(l.Registration(id).Slot).ShortName != event {
			continue
		}
		if err := l.Attach(id, sub); err != nil {
			return false
		}
		return true
	}
	return false
}
