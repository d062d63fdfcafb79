package catalog

import (
	"strings"
)

// Normalize maps a free-text event label onto the canonical key space.
// Labels arrive with inconsistent casing, gendered suffixes, and category
// abbreviations; gender is the stated gender of the source record and picks
// the qualifier when the label itself carries none.
//
// A label-implied gender that contradicts the stated gender is a
// data-integrity fault in the source row and is returned as a
// GenderConflictError rather than silently resolved.
func Normalize(rawLabel, gender string) (string, error) {
	label := strings.TrimSpace(rawLabel)

	maleLabel := false
	for _, suffix := range []string{"(Male)", "(Men)"} {
		if strings.Contains(label, suffix) {
			label = strings.TrimSpace(strings.ReplaceAll(label, suffix, ""))
			label = strings.Join(strings.Fields(label), " ")
			maleLabel = true
		}
	}

	if maleLabel && gender == "Female" {
		return "", &GenderConflictError{Label: rawLabel, Stated: gender}
	}

	qualifier := ""
	switch {
	case maleLabel || gender == "Male":
		qualifier = "Mens"
	case gender == "Female":
		qualifier = "Ladies"
	}

	switch {
	case strings.Contains(label, "Short Program"):
		level := firstToken(label)
		return joinKey(level, qualifier, "Short Program"), nil
	case strings.Contains(label, "Excel"), strings.Contains(label, "Championship"):
		return joinKey(label, qualifier, "Freeskate"), nil
	case strings.Contains(label, "Pattern Dance"):
		level := firstToken(label)
		return joinKey(level, "Solo Pattern Dance"), nil
	default:
		// Team maneuvers and solo free dance carry no gender qualifier.
		return label, nil
	}
}

func firstToken(label string) string {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func joinKey(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
