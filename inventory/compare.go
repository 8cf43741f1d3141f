package inventory

import "fmt"

const NoteCompletelyMissing = "Completely missing"

// DiscrepancyEntry reports one expected item that is missing or under-counted.
type DiscrepancyEntry struct {
	Name          string `json:"name"`
	ExpectedCount int    `json:"expectedCount"`
	ActualCount   int    `json:"actualCount"`
	Note          string `json:"note"`
}

// DiscrepancyReport is the result of comparing expected against observed.
// HighlightSuggestion is empty when there are no discrepancies.
type DiscrepancyReport struct {
	Discrepancies       []DiscrepancyEntry `json:"discrepancies"`
	HighlightSuggestion string             `json:"highlightSuggestion"`
}

// Compare walks the expected inventory and reports every entry the observed
// inventory is short on. Items only present in observed are never reported;
// the comparison is one-directional. Output order follows expected's order.
func Compare(expected, observed Inventory) DiscrepancyReport {
	observedCounts := make(map[string]int, len(observed))
	for _, entry := range observed {
		observedCounts[NormalizeKey(entry.Name)] += entry.Count
	}

	var discrepancies []DiscrepancyEntry
	for _, entry := range expected {
		actual := observedCounts[NormalizeKey(entry.Name)]
		if actual >= entry.Count {
			continue
		}
		note := NoteCompletelyMissing
		if actual > 0 {
			note = fmt.Sprintf("%d less than expected", entry.Count-actual)
		}
		discrepancies = append(discrepancies, DiscrepancyEntry{
			Name:          entry.Name,
			ExpectedCount: entry.Count,
			ActualCount:   actual,
			Note:          note,
		})
	}

	return DiscrepancyReport{
		Discrepancies:       discrepancies,
		HighlightSuggestion: highlightSuggestion(discrepancies),
	}
}

// highlightSuggestion picks the single discrepancy to surface: completely
// missing beats a partial shortfall, then the largest shortfall, then the
// earliest in report order.
func highlightSuggestion(discrepancies []DiscrepancyEntry) string {
	if len(discrepancies) == 0 {
		return ""
	}

	best := discrepancies[0]
	for _, d := range discrepancies[1:] {
		if better(d, best) {
			best = d
		}
	}

	if best.ActualCount == 0 {
		return fmt.Sprintf("Check for the %s, which appears to be completely missing.", best.Name)
	}
	return fmt.Sprintf("Check the %s count: only %d of %d expected were found.", best.Name, best.ActualCount, best.ExpectedCount)
}

func better(candidate, current DiscrepancyEntry) bool {
	candidateMissing := candidate.ActualCount == 0
	currentMissing := current.ActualCount == 0
	if candidateMissing != currentMissing {
		return candidateMissing
	}
	candidateShortfall := candidate.ExpectedCount - candidate.ActualCount
	currentShortfall := current.ExpectedCount - current.ActualCount
	return candidateShortfall > currentShortfall
}
