package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"medley/internal/catalog"
	"medley/internal/config"
	"medley/internal/diag"
	"medley/internal/ledger"
	"medley/internal/logging"
	"medley/internal/match"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const eventsCSV = `Level,Gender,Category,Min Music Length,Max Music Length
Juvenile,Female,Short Program,0,150
Juvenile,Male,Short Program,0,150
Senior,,Free Dance,150,210
Collegiate,,Team Maneuvers,0,0
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := ReadEvents(writeCSV(t, "events.csv", eventsCSV))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	return cat
}

func TestReadEvents(t *testing.T) {
	cat := testCatalog(t)
	if cat.Len() != 4 {
		t.Fatalf("slot count = %d, want 4", cat.Len())
	}
	id, ok := cat.Lookup("Juvenile Ladies Short Program")
	if !ok {
		t.Fatal("gendered slot name not in catalog")
	}
	slot := cat.Slot(id)
	if slot.MaxLength != 150 {
		t.Fatalf("max length = %d, want 150", slot.MaxLength)
	}
	if !slot.ExpectsMedia() {
		t.Fatal("short program slot should expect media")
	}
	if id, ok := cat.Lookup("Collegiate Team Maneuvers"); !ok {
		t.Fatal("ungendered slot name not in catalog")
	} else if cat.Slot(id).ExpectsMedia() {
		t.Fatal("zero-length slot should not expect media")
	}
}

func TestReadEntries(t *testing.T) {
	cat := testCatalog(t)
	diags := diag.New(logging.NewNop())
	path := writeCSV(t, "entries.csv", `Event,Gender,USF #,First Name,Last Name,E-mail,University
juvenile short program,Female,100,jordan,smith,jordan@example.edu,state university
Juvenile Short Program (Men),Male,101,Alex,Chen,alex@example.edu,Tech
Senior Free Dance,Female,100,Jordan,Smith,jordan@example.edu,State University
Novice Moves,Female,102,Sam,Lee,sam@example.edu,Tech
Juvenile Short Program (Men),Female,103,Kim,Park,kim@example.edu,Tech
`)
	roster, l, err := ReadEntries(path, cat, diags)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	// Jordan Smith registered twice under one competitor, the conflict and
	// unknown-event rows dropped.
	if roster.Len() != 2 {
		t.Fatalf("roster size = %d, want 2", roster.Len())
	}
	if l.Len() != 3 {
		t.Fatalf("ledger size = %d, want 3", l.Len())
	}
	id, _, found := roster.Find("100", "Jordan Smith", "")
	if !found {
		t.Fatal("Jordan Smith not resolvable by id")
	}
	if got := len(l.ByCompetitor(id)); got != 2 {
		t.Fatalf("registrations for Jordan Smith = %d, want 2", got)
	}
	if diags.Count(diag.KindUnrecognizedEvent) != 1 {
		t.Fatalf("unrecognized event diags = %d, want 1", diags.Count(diag.KindUnrecognizedEvent))
	}
	if diags.Count(diag.KindDataIntegrity) != 1 {
		t.Fatalf("data integrity diags = %d, want 1", diags.Count(diag.KindDataIntegrity))
	}
}

func TestReadEntriesTitleCasesFields(t *testing.T) {
	cat := testCatalog(t)
	diags := diag.New(logging.NewNop())
	path := writeCSV(t, "entries.csv", `Event,Gender,USF #,First Name,Last Name,E-mail,University
Juvenile Short Program,Female,100,JORDAN,smith,j@example.edu,state university
`)
	roster, _, err := ReadEntries(path, cat, diags)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	id, _, ok := roster.Find("", "Jordan Smith", "")
	if !ok {
		t.Fatal("competitor missing")
	}
	c := roster.Competitor(id)
	if c.FullName() != "Jordan Smith" {
		t.Fatalf("full name = %q, want %q", c.FullName(), "Jordan Smith")
	}
	if c.Affiliation != "State University" {
		t.Fatalf("affiliation = %q, want %q", c.Affiliation, "State University")
	}
}

func loadFixture(t *testing.T) (*catalog.Catalog, *ledger.Ledger, *diag.Collector) {
	t.Helper()
	cat := testCatalog(t)
	diags := diag.New(logging.NewNop())
	path := writeCSV(t, "entries.csv", `Event,Gender,USF #,First Name,Last Name,E-mail,University
Juvenile Short Program,Female,100,Jordan,Smith,jordan@example.edu,State University
Juvenile Short Program,Female,101,Morgan,Smithson,morgan@example.edu,Tech
Senior Free Dance,,102,Casey,Wright,casey@example.edu,State University
`)
	_, l, err := ReadEntries(path, cat, diags)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	return cat, l, diags
}

func TestReadConfirmations(t *testing.T) {
	_, l, diags := loadFixture(t)
	path := writeCSV(t, "confirm.csv", `Name,University
Juvenile Ladies Short Program,
Jordan Smith,State University
,
Senior Free Dance,
Casey Wright,State University
Riley Stone,Nowhere State
`)
	if err := ReadConfirmations(path, l, diags); err != nil {
		t.Fatalf("read confirmations: %v", err)
	}
	confirmed := 0
	for _, id := range l.IDs() {
		if l.Registration(id).Confirmed {
			confirmed++
		}
	}
	if confirmed != 2 {
		t.Fatalf("confirmed registrations = %d, want 2", confirmed)
	}
	if diags.Count(diag.KindUnresolvedIdentity) != 1 {
		t.Fatalf("unresolved identity diags = %d, want 1", diags.Count(diag.KindUnresolvedIdentity))
	}
}

func TestReadConfirmationsRegistersMissingPair(t *testing.T) {
	cat, l, diags := loadFixture(t)
	before := l.Len()
	path := writeCSV(t, "confirm.csv", `Name,University
Juvenile Ladies Short Program,
Casey Wright,State University
`)
	if err := ReadConfirmations(path, l, diags); err != nil {
		t.Fatalf("read confirmations: %v", err)
	}
	if l.Len() != before+1 {
		t.Fatalf("ledger size = %d, want %d", l.Len(), before+1)
	}
	slotID, _ := cat.Lookup("Juvenile Ladies Short Program")
	found := false
	for _, id := range l.BySlot(slotID) {
		reg := l.Registration(id)
		if l.Roster().Competitor(reg.Competitor).FullName() == "Casey Wright" {
			found = true
			if !reg.Confirmed {
				t.Fatal("late-filed registration not confirmed")
			}
		}
	}
	if !found {
		t.Fatal("confirmation did not file a registration")
	}
}

func TestReadSubmissions(t *testing.T) {
	cat, l, diags := loadFixture(t)
	matcher := match.New(config.Default().Matcher)
	path := writeCSV(t, "input.csv", `USFS Number,Skater Name,Email Address,Free Dance Event,Free Dance Music,Free Skate Event,Free Skate Music,Short Program Event,Short Program Music
100,Jordan Smith,jordan@example.edu,,,,,Juvenile Short Program,https://example.com/a.mp3
,J. Smithson,,,,,,Juvenile Short Program,https://example.com/b.mp3
,Total Stranger,,,,,,Juvenile Short Program,https://example.com/c.mp3
100,Jordan Smith,,,,,,Juvenile Short Program,https://example.com/d.mp3
102,Casey Wright,,Senior Free Dance,https://example.com/e.mp3,,,,
`)
	attached, err := ReadSubmissions(path, l, matcher, diags)
	if err != nil {
		t.Fatalf("read submissions: %v", err)
	}
	if attached != 4 {
		t.Fatalf("attached = %d, want 4", attached)
	}
	if diags.Count(diag.KindUnmatchedSubmission) != 1 {
		t.Fatalf("unmatched diags = %d, want 1", diags.Count(diag.KindUnmatchedSubmission))
	}

	// Jordan's later row supersedes the earlier one; indices follow sheet
	// row order, 1-based.
	slotID, _ := cat.Lookup("Juvenile Ladies Short Program")
	for _, id := range l.BySlot(slotID) {
		reg := l.Registration(id)
		name := l.Roster().Competitor(reg.Competitor).FullName()
		cur, ok := reg.Current()
		switch name {
		case "Jordan Smith":
			if !ok || cur.SourceIndex != 4 || cur.Locator != "https://example.com/d.mp3" {
				t.Fatalf("Jordan Smith current = %+v ok=%v", cur, ok)
			}
			if len(reg.Submissions()) != 2 {
				t.Fatalf("Jordan Smith submissions = %d, want 2", len(reg.Submissions()))
			}
		case "Morgan Smithson":
			if !ok || cur.SourceIndex != 2 {
				t.Fatalf("Morgan Smithson current = %+v ok=%v", cur, ok)
			}
		}
	}
}

func TestReadSubmissionsResolvedWithoutRegistration(t *testing.T) {
	_, l, diags := loadFixture(t)
	matcher := match.New(config.Default().Matcher)
	path := writeCSV(t, "input.csv", `USFS Number,Skater Name,Email Address,Free Dance Event,Free Dance Music,Free Skate Event,Free Skate Music,Short Program Event,Short Program Music
102,Casey Wright,,,,,,Juvenile Short Program,https://example.com/x.mp3
`)
	attached, err := ReadSubmissions(path, l, matcher, diags)
	if err != nil {
		t.Fatalf("read submissions: %v", err)
	}
	if attached != 0 {
		t.Fatalf("attached = %d, want 0", attached)
	}
	if diags.Count(diag.KindUnmatchedSubmission) != 1 {
		t.Fatalf("unmatched diags = %d, want 1", diags.Count(diag.KindUnmatchedSubmission))
	}
}
