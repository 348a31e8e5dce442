package parser

import (
	"sort"
	"strings"
	"unicode"

	"secdash/pkg/log"
	"secdash/pkg/models"
)

// ParseReport summarizes how the rows of a decisions table were handled.
// Malformed counts rows whose count cell was missing or not a number,
// ZeroCount counts rows that carried a literal non-positive count.
type ParseReport struct {
	Rows      int
	Kept      int
	ZeroCount int
	Malformed int
}

// ParseDecisions turns the security agent's metrics table into decision
// records ordered by count, highest first. It never fails: rows it cannot
// read are dropped.
func ParseDecisions(text string, policy TablePolicy) []models.SecurityDecision {
	decisions, _ := ParseDecisionsReport(text, policy)
	return decisions
}

// ParseDecisionsReport is ParseDecisions plus a report of dropped rows.
func ParseDecisionsReport(text string, policy TablePolicy) ([]models.SecurityDecision, ParseReport) {
	var report ParseReport
	decisions := make([]models.SecurityDecision, 0)

	idx, err := policy.columnIndexes()
	if err != nil || policy.Delimiter == "" || policy.SkipLines < 0 {
		log.Warn().Err(err).Msg("Invalid table policy, falling back to defaults")
		policy = DefaultTablePolicy()
		idx, _ = policy.columnIndexes()
	}

	lines := strings.Split(text, "\n")
	if len(lines) <= policy.SkipLines {
		return decisions, report
	}

	for _, line := range lines[policy.SkipLines:] {
		row := strings.TrimSpace(line)
		if row == "" || isSeparatorRow(row, policy) {
			continue
		}
		report.Rows++

		cells := splitRow(row, policy.Delimiter)
		count, ok := leadingInt(cell(cells, idx.count))
		switch {
		case !ok:
			report.Malformed++
			continue
		case count <= 0:
			report.ZeroCount++
			continue
		}

		decisions = append(decisions, models.SecurityDecision{
			Reason: strings.TrimPrefix(cell(cells, idx.reason), policy.StripPrefix),
			Origin: cell(cells, idx.origin),
			Action: cell(cells, idx.action),
			Count:  count,
		})
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].Count > decisions[j].Count
	})
	report.Kept = len(decisions)

	return decisions, report
}

// splitRow splits a table row into trimmed cells. Outer borders of boxed
// tables ("| a | b |") do not produce empty leading or trailing cells.
func splitRow(row, delimiter string) []string {
	row = strings.TrimPrefix(row, delimiter)
	row = strings.TrimSuffix(row, delimiter)

	cells := strings.Split(row, delimiter)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// cell returns the cell at pos, or an empty string when the row is too short.
func cell(cells []string, pos int) string {
	if pos < 0 || pos >= len(cells) {
		return ""
	}
	return cells[pos]
}

// isSeparatorRow reports rows that only draw the table: lines containing the
// separator marker, or made entirely of border characters.
func isSeparatorRow(row string, policy TablePolicy) bool {
	if policy.SeparatorMarker != "" && strings.Contains(row, policy.SeparatorMarker) {
		return true
	}

	for _, r := range row {
		if !isBorderRune(r) && !strings.ContainsRune(policy.Delimiter, r) {
			return false
		}
	}
	return true
}

func isBorderRune(r rune) bool {
	switch r {
	case '-', '+', '=', '|':
		return true
	}
	// Box Drawing block, used by the newer table renderer.
	const boxDrawingFirst, boxDrawingLast = 0x2500, 0x257F
	return unicode.IsSpace(r) || (r >= boxDrawingFirst && r <= boxDrawingLast)
}

// leadingInt parses the leading integer of s ("42", "-3", "12 (x2)"),
// reporting false when s does not start with a number.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		negative = s[0] == '-'
		s = s[1:]
	}

	const maxCount = int(^uint(0) >> 2)
	value, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if value < maxCount {
			value = value*10 + int(r-'0')
		}
		digits++
	}

	if digits == 0 {
		return 0, false
	}
	if negative {
		value = -value
	}
	return value, true
}
