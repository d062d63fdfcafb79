package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"medley/internal/catalog"
	"medley/internal/ledger"
)

// WriteEntrySheet writes the plain-text entry listing: each slot's name
// followed by its unique tab-separated entrant lines, sorted, with a blank
// line between slots. Team events list the institution in place of a
// competitor name.
func WriteEntrySheet(w io.Writer, l *ledger.Ledger) error {
	cat := l.Catalog()

	var slots []catalog.Slot
	for _, slot := range cat.Slots() {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Name < slots[j].Name })

	out := bufio.NewWriter(w)
	for _, slot := range slots {
		id, ok := cat.Lookup(slot.Name)
		if !ok {
			continue
		}
		regs := l.BySlot(id)
		if len(regs) == 0 {
			continue
		}

		seen := make(map[string]struct{}, len(regs))
		var lines []string
		for _, regID := range regs {
			competitor := l.Roster().Competitor(l.Registration(regID).Competitor)
			name := competitor.FullName()
			if slot.Category == "Team Maneuvers" {
				name = competitor.Affiliation
			}
			line := name + "\t" + competitor.Affiliation
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
		sort.Strings(lines)

		if _, err := fmt.Fprintln(out, slot.Name); err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return out.Flush()
}
