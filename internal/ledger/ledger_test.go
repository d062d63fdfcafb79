package ledger

import (
	"testing"

	"medley/internal/catalog"
	"medley/internal/identity"
)

func newTestLedger(t *testing.T) (*Ledger, identity.CompetitorID, catalog.SlotID) {
	t.Helper()
	roster := identity.NewRoster()
	competitor, _ := roster.ResolveOrCreate("4821", "Jordan", "Smith", "jordan@example.edu")
	cat := catalog.New([]catalog.Slot{
		catalog.NewSlot("Juvenile", "Female", "Short Program", 0, 90),
		catalog.NewSlot("Intermediate", "", "Solo Free Dance", 60, 120),
	})
	return New(roster, cat), competitor, 0
}

func TestRegisterIsIdempotentPerPair(t *testing.T) {
	l, competitor, slot := newTestLedger(t)

	first := l.Register(competitor, slot)
	second := l.Register(competitor, slot)
	if first != second {
		t.Fatalf("expected single registration per pair, got %d and %d", first, second)
	}
	if l.Len() != 1 {
		t.Fatalf("unexpected ledger size: %d", l.Len())
	}

	other := l.Register(competitor, 1)
	if other == first {
		t.Fatal("different slot must create a new registration")
	}
	if got := len(l.ByCompetitor(competitor)); got != 2 {
		t.Fatalf("competitor should hold 2 registrations, has %d", got)
	}
}

func TestRegistrationKey(t *testing.T) {
	l, competitor, slot := newTestLedger(t)
	id := l.Register(competitor, slot)
	want := "Juvenile_Ladies_Short_Program_Jordan_Smith"
	if got := l.Registration(id).Key; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestAttachOrdering(t *testing.T) {
	l, competitor, slot := newTestLedger(t)
	id := l.Register(competitor, slot)

	if err := l.Attach(id, Submission{Locator: "https://example.com/a.mp3", SourceIndex: 3}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := l.Attach(id, Submission{Locator: "https://example.com/b.mp3", SourceIndex: 7}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := l.Attach(id, Submission{Locator: "https://example.com/c.mp3", SourceIndex: 5}); err == nil {
		t.Fatal("expected downgrade rejection")
	}

	current, ok := l.Registration(id).Current()
	if !ok || current.SourceIndex != 7 {
		t.Fatalf("unexpected current submission: %+v ok=%v", current, ok)
	}
	if got := len(l.Registration(id).Submissions()); got != 2 {
		t.Fatalf("unexpected submission count: %d", got)
	}
}

func TestByShortName(t *testing.T) {
	l, competitor, _ := newTestLedger(t)
	l.Register(competitor, 1)

	ids := l.ByShortName("Intermediate Free Dance")
	if len(ids) != 1 {
		t.Fatalf("expected one candidate, got %d", len(ids))
	}
	if l.Catalog().Slot(l.Registration(ids[0]).Slot).Name != "Intermediate Solo Free Dance" {
		t.Fatalf("unexpected slot for candidate")
	}
	if got := l.ByShortName("Senior Free Skate"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestConfirm(t *testing.T) {
	l, competitor, slot := newTestLedger(t)
	id := l.Register(competitor, slot)
	if l.Registration(id).Confirmed {
		t.Fatal("registrations start unconfirmed")
	}
	l.Confirm(id)
	if !l.Registration(id).Confirmed {
		t.Fatal("Confirm should mark the registration")
	}
}
