// Package identity maintains the deduplicated competitor roster and resolves
// loosely-formatted (id, name, email) tuples against it. The roster owns the
// id/name/email indexes; other packages reference competitors by ID only.
package identity

import "strings"

// CompetitorID identifies a competitor within a Roster.
type CompetitorID int

// Competitor is a resolved, deduplicated person entity, distinct from any
// single source row referencing them.
type Competitor struct {
	NumericID   string // federation number; unique when present
	GivenName   string
	FamilyName  string
	Email       string
	Affiliation string
}

// FullName returns the display name used for matching and tagging.
func (c Competitor) FullName() string {
	return c.GivenName + " " + c.FamilyName
}

// Basis reports which index produced a match.
type Basis int

const (
	BasisNone Basis = iota
	BasisNumericID
	BasisName
	BasisEmail
)

// Ambiguous reports whether the basis is a best-guess rather than an
// authoritative id match. Callers surface these as ambiguity diagnostics.
func (b Basis) Ambiguous() bool {
	return b == BasisName || b == BasisEmail
}

func (b Basis) String() string {
	switch b {
	case BasisNumericID:
		return "numeric id"
	case BasisName:
		return "name"
	case BasisEmail:
		return "email"
	default:
		return "none"
	}
}

// Roster owns the competitor arena and its lookup indexes. Not safe for
// concurrent mutation; the batch populates it fully before matching begins.
type Roster struct {
	competitors []Competitor
	byNumericID map[string]CompetitorID
	byName      map[string]CompetitorID
	byEmail     map[string]CompetitorID
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{
		byNumericID: make(map[string]CompetitorID),
		byName:      make(map[string]CompetitorID),
		byEmail:     make(map[string]CompetitorID),
	}
}

// Len reports the number of competitors.
func (r *Roster) Len() int {
	return len(r.competitors)
}

// Competitor returns the competitor for an ID. The ID must come from this
// roster.
func (r *Roster) Competitor(id CompetitorID) Competitor {
	return r.competitors[id]
}

// SetAffiliation records the competitor's university or club.
func (r *Roster) SetAffiliation(id CompetitorID, affiliation string) {
	r.competitors[id].Affiliation = affiliation
}

// IDs returns all competitor IDs in creation order.
func (r *Roster) IDs() []CompetitorID {
	ids := make([]CompetitorID, len(r.competitors))
	for i := range r.competitors {
		ids[i] = CompetitorID(i)
	}
	return ids
}

// sentinel numeric ids that mean "no id supplied".
func normalizeNumericID(numericID string) string {
	numericID = strings.TrimSpace(numericID)
	if numericID == "0" || strings.EqualFold(numericID, "none") {
		return ""
	}
	return numericID
}

// Find resolves a tuple against the roster without creating anything.
// Precedence: numeric id (guarded by the indexed family name appearing in
// the supplied name, which defends against id reuse and typos), then exact
// full name, then exact email. Callers that must not silently register an
// unknown person use this form and treat a miss as actionable.
func (r *Roster) Find(numericID, name, email string) (CompetitorID, Basis, bool) {
	numericID = normalizeNumericID(numericID)

	if numericID != "" {
		if id, ok := r.byNumericID[numericID]; ok {
			if strings.Contains(name, r.competitors[id].FamilyName) {
				return id, BasisNumericID, true
			}
		}
	}
	if name != "" {
		if id, ok := r.byName[name]; ok {
			return id, BasisName, true
		}
	}
	if email != "" {
		if id, ok := r.byEmail[email]; ok {
			return id, BasisEmail, true
		}
	}
	return 0, BasisNone, false
}

// FindByNameAffiliation looks up a competitor by exact full name, requiring
// the recorded affiliation to agree. Used by the confirmation pass, where
// rows carry neither id nor email.
func (r *Roster) FindByNameAffiliation(name, affiliation string) (CompetitorID, bool) {
	id, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	if r.competitors[id].Affiliation != affiliation {
		return 0, false
	}
	return id, true
}

// ResolveOrCreate resolves a tuple or registers a new competitor, indexing it
// under whichever of id, name, and email are non-empty. The returned basis is
// BasisNone for newly created competitors.
func (r *Roster) ResolveOrCreate(numericID, givenName, familyName, email string) (CompetitorID, Basis) {
	numericID = normalizeNumericID(numericID)
	fullName := givenName + " " + familyName

	if id, basis, ok := r.Find(numericID, fullName, email); ok {
		return id, basis
	}

	id := CompetitorID(len(r.competitors))
	r.competitors = append(r.competitors, Competitor{
		NumericID:  numericID,
		GivenName:  givenName,
		FamilyName: familyName,
		Email:      email,
	})
	if numericID != "" {
		r.byNumericID[numericID] = id
	}
	if strings.TrimSpace(fullName) != "" {
		r.byName[fullName] = id
	}
	if email != "" {
		r.byEmail[email] = id
	}
	return id, BasisNone
}
