// Package ledger holds the registration records linking competitors to
// catalog slots, and the submissions attributed to them. Registrations form
// an arena addressed by RegistrationID; competitors and slots are referenced
// by their own IDs rather than object pointers.
package ledger

import (
	"fmt"

	"medley/internal/catalog"
	"medley/internal/identity"
	"medley/internal/textutil"
)

// RegistrationID identifies a registration within a Ledger.
type RegistrationID int

// Submission is one incoming media reference. Submissions are immutable;
// SourceIndex is the ingestion order and doubles as the version number.
type Submission struct {
	Locator     string
	SourceIndex int
}

// Registration links exactly one competitor to exactly one slot.
type Registration struct {
	Competitor identity.CompetitorID
	Slot       catalog.SlotID
	Confirmed  bool

	// Key names this registration's cache entries: the slot's canonical name
	// and the competitor's full name with non-word runs collapsed.
	Key string

	submissions []Submission
}

// Submissions returns the attributed submissions in attribution order.
func (r *Registration) Submissions() []Submission {
	return r.submissions
}

// Current returns the most recent attributed submission.
func (r *Registration) Current() (Submission, bool) {
	if len(r.submissions) == 0 {
		return Submission{}, false
	}
	return r.submissions[len(r.submissions)-1], true
}

// Ledger is the set of registrations for one competition.
type Ledger struct {
	roster  *identity.Roster
	catalog *catalog.Catalog

	regs         []Registration
	byPair       map[pairKey]RegistrationID
	byCompetitor map[identity.CompetitorID][]RegistrationID
	bySlot       map[catalog.SlotID][]RegistrationID
}

type pairKey struct {
	competitor identity.CompetitorID
	slot       catalog.SlotID
}

// New returns an empty ledger over the given roster and catalog.
func New(roster *identity.Roster, cat *catalog.Catalog) *Ledger {
	return &Ledger{
		roster:       roster,
		catalog:      cat,
		byPair:       make(map[pairKey]RegistrationID),
		byCompetitor: make(map[identity.CompetitorID][]RegistrationID),
		bySlot:       make(map[catalog.SlotID][]RegistrationID),
	}
}

// Roster returns the roster registrations reference.
func (l *Ledger) Roster() *identity.Roster {
	return l.roster
}

// Catalog returns the slot catalog registrations reference.
func (l *Ledger) Catalog() *catalog.Catalog {
	return l.catalog
}

// Len reports the number of registrations.
func (l *Ledger) Len() int {
	return len(l.regs)
}

// Registration returns a mutable reference into the arena. The ID must come
// from this ledger.
func (l *Ledger) Registration(id RegistrationID) *Registration {
	return &l.regs[id]
}

// IDs returns all registration IDs in creation order.
func (l *Ledger) IDs() []RegistrationID {
	ids := make([]RegistrationID, len(l.regs))
	for i := range l.regs {
		ids[i] = RegistrationID(i)
	}
	return ids
}

// Register records a (competitor, slot) pairing. At most one registration
// exists per pair; registering an existing pair returns the existing ID.
func (l *Ledger) Register(competitor identity.CompetitorID, slot catalog.SlotID) RegistrationID {
	pair := pairKey{competitor: competitor, slot: slot}
	if id, ok := l.byPair[pair]; ok {
		return id
	}

	slotName := l.catalog.Slot(slot).Name
	fullName := l.roster.Competitor(competitor).FullName()

	id := RegistrationID(len(l.regs))
	l.regs = append(l.regs, Registration{
		Competitor: competitor,
		Slot:       slot,
		Key:        textutil.Key(slotName + " " + fullName),
	})
	l.byPair[pair] = id
	l.byCompetitor[competitor] = append(l.byCompetitor[competitor], id)
	l.bySlot[slot] = append(l.bySlot[slot], id)
	return id
}

// Lookup finds the registration for a (competitor, slot) pair.
func (l *Ledger) Lookup(competitor identity.CompetitorID, slot catalog.SlotID) (RegistrationID, bool) {
	id, ok := l.byPair[pairKey{competitor: competitor, slot: slot}]
	return id, ok
}

// ByCompetitor returns the competitor's registrations in creation order.
func (l *Ledger) ByCompetitor(competitor identity.CompetitorID) []RegistrationID {
	return l.byCompetitor[competitor]
}

// BySlot returns the slot's registrations in creation order.
func (l *Ledger) BySlot(slot catalog.SlotID) []RegistrationID {
	return l.bySlot[slot]
}

// ByShortName returns registrations whose slot matches the submission-facing
// short event name, in registration order.
func (l *Ledger) ByShortName(shortName string) []RegistrationID {
	var ids []RegistrationID
	for i := range l.regs {
		if l.catalog.Slot(l.regs[i].Slot).ShortName == shortName {
			ids = append(ids, RegistrationID(i))
		}
	}
	return ids
}

// Confirm marks a registration as confirmed.
func (l *Ledger) Confirm(id RegistrationID) {
	l.regs[id].Confirmed = true
}

// Attach attributes a submission to a registration. Submissions must arrive
// in non-decreasing source order per registration; a smaller index than the
// current submission would break the no-downgrade invariant and is rejected.
func (l *Ledger) Attach(id RegistrationID, sub Submission) error {
	reg := &l.regs[id]
	if current, ok := reg.Current(); ok && sub.SourceIndex < current.SourceIndex {
		return fmt.Errorf("submission %d for %s arrives after %d: downgrade refused",
			sub.SourceIndex, reg.Key, current.SourceIndex)
	}
	reg.submissions = append(reg.submissions, sub)
	return nil
}
