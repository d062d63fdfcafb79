// Package match attributes loosely-identified submissions to candidate
// registrations. No single exact rule survives the source data's formatting
// (name order, casing, middle names), so candidates are scored on several
// weak signals and the best score above a threshold wins.
package match

import (
	"fmt"
	"strings"

	"medley/internal/config"
	"medley/internal/identity"
	"medley/internal/ledger"
)

// UnmatchedError reports a submission no candidate claimed with enough
// confidence. The submission is dropped, never attributed.
type UnmatchedError struct {
	Name      string
	Event     string
	BestScore int
	Threshold int
}

func (e *UnmatchedError) Error() string {
	return fmt.Sprintf("no registration for %q in %q: best score %d below threshold %d",
		e.Name, e.Event, e.BestScore, e.Threshold)
}

// Matcher scores submitted names against registration candidates.
type Matcher struct {
	weights config.Matcher
}

// New builds a matcher from configured weights.
func New(weights config.Matcher) *Matcher {
	return &Matcher{weights: weights}
}

// Score rates how well a submitted free-text name fits a competitor. The
// weights reward converging weak signals; exact token matches and substring
// containment dominate, initials only tip close calls.
func (m *Matcher) Score(competitor identity.Competitor, submittedName string) int {
	tokens := strings.Fields(submittedName)
	if len(tokens) == 0 {
		return 0
	}
	firstToken := tokens[0]
	lastToken := tokens[len(tokens)-1]
	given := competitor.GivenName
	family := competitor.FamilyName

	score := 0
	if family != "" && family == lastToken {
		score += m.weights.LastNameExact
	}
	if given != "" && given == firstToken {
		score += m.weights.FirstNameExact
	}
	if family != "" && strings.Contains(submittedName, family) {
		score += m.weights.FamilySubstring
	}
	if family != "" && family[0] == lastToken[0] {
		score += m.weights.FamilyInitial
	}
	if given != "" && strings.Contains(submittedName, given) {
		score += m.weights.GivenSubstring
	}
	if given != "" && given[0] == firstToken[0] {
		score += m.weights.GivenInitial
	}
	return score
}

// Best evaluates candidates in order and returns the maximum-scoring one at
// or above the threshold. Ties resolve to the first candidate evaluated;
// callers must not rely on tie order.
func (m *Matcher) Best(l *ledger.Ledger, candidates []ledger.RegistrationID, submittedName string) (ledger.RegistrationID, int, bool) {
	bestID := ledger.RegistrationID(-1)
	bestScore := -1
	for _, id := range candidates {
		competitor := l.Roster().Competitor(l.Registration(id).Competitor)
		if score := m.Score(competitor, submittedName); score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	if bestID < 0 || bestScore < m.weights.Threshold {
		return 0, bestScore, false
	}
	return bestID, bestScore, true
}

// Attach attributes a submission to the best-scoring registration under the
// declared event. Candidates are the registrations filed under the event's
// short name; a best score below the threshold yields an UnmatchedError.
func (m *Matcher) Attach(l *ledger.Ledger, event, submittedName string, sub ledger.Submission) (ledger.RegistrationID, error) {
	candidates := l.ByShortName(event)
	id, best, ok := m.Best(l, candidates, submittedName)
	if !ok {
		if best < 0 {
			best = 0
		}
		return 0, &UnmatchedError{Name: submittedName, Event: event, BestScore: best, Threshold: m.weights.Threshold}
	}
	if err := l.Attach(id, sub); err != nil {
		return 0, err
	}
	return id, nil
}
