package inventory

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompareNoDiscrepancyWhenSufficient(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Lamp", Count: 2}},
		Inventory{{Name: "Lamp", Count: 3}},
	)
	if len(report.Discrepancies) != 0 {
		t.Fatalf("want no discrepancies, got %v", report.Discrepancies)
	}
	if report.HighlightSuggestion != "" {
		t.Fatalf("want empty highlight, got %q", report.HighlightSuggestion)
	}
}

func TestCompareCompletelyMissing(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Lamp", Count: 2}},
		Inventory{},
	)

	want := []DiscrepancyEntry{
		{Name: "Lamp", ExpectedCount: 2, ActualCount: 0, Note: NoteCompletelyMissing},
	}
	if !reflect.DeepEqual(report.Discrepancies, want) {
		t.Fatalf("discrepancies = %v, want %v", report.Discrepancies, want)
	}
	if !strings.Contains(report.HighlightSuggestion, "Lamp") {
		t.Fatalf("highlight %q does not reference Lamp", report.HighlightSuggestion)
	}
}

func TestComparePartialShortfallNote(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Chair", Count: 4}},
		Inventory{{Name: "chair", Count: 1}},
	)
	if len(report.Discrepancies) != 1 {
		t.Fatalf("want one discrepancy, got %v", report.Discrepancies)
	}
	d := report.Discrepancies[0]
	if d.ActualCount != 1 || d.ExpectedCount != 4 {
		t.Fatalf("counts = %d of %d, want 1 of 4", d.ActualCount, d.ExpectedCount)
	}
	if d.Note != "3 less than expected" {
		t.Fatalf("note = %q", d.Note)
	}
}

func TestCompareHighlightPrefersCompletelyMissing(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Chair", Count: 4}, {Name: "Lamp", Count: 1}},
		Inventory{{Name: "Chair", Count: 2}},
	)

	if len(report.Discrepancies) != 2 {
		t.Fatalf("want two discrepancies, got %v", report.Discrepancies)
	}
	// Chair has the larger shortfall (2 vs 1) but Lamp is at zero.
	if !strings.Contains(report.HighlightSuggestion, "Lamp") {
		t.Fatalf("highlight %q should name Lamp", report.HighlightSuggestion)
	}
}

func TestCompareHighlightLargestShortfallAmongPartials(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Book", Count: 10}, {Name: "Plate", Count: 3}},
		Inventory{{Name: "Book", Count: 2}, {Name: "Plate", Count: 2}},
	)
	if !strings.Contains(report.HighlightSuggestion, "Book") {
		t.Fatalf("highlight %q should name Book", report.HighlightSuggestion)
	}
}

func TestCompareHighlightFirstInOrderOnFullTie(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Cup", Count: 2}, {Name: "Vase", Count: 2}},
		Inventory{},
	)
	if !strings.Contains(report.HighlightSuggestion, "Cup") {
		t.Fatalf("highlight %q should name Cup (first in order)", report.HighlightSuggestion)
	}
}

func TestCompareIgnoresUnexpectedExtras(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Lamp", Count: 1}},
		Inventory{{Name: "Lamp", Count: 1}, {Name: "Sofa", Count: 5}},
	)
	if len(report.Discrepancies) != 0 {
		t.Fatalf("extras must not be reported: %v", report.Discrepancies)
	}
}

func TestComparePreservesExpectedOrder(t *testing.T) {
	expected := Inventory{
		{Name: "Armchair", Count: 1},
		{Name: "Mirror", Count: 2},
		{Name: "Rug", Count: 1},
	}
	report := Compare(expected, Inventory{{Name: "Mirror", Count: 1}})

	wantNames := []string{"Armchair", "Mirror", "Rug"}
	if len(report.Discrepancies) != 3 {
		t.Fatalf("want 3 discrepancies, got %v", report.Discrepancies)
	}
	for i, name := range wantNames {
		if report.Discrepancies[i].Name != name {
			t.Fatalf("discrepancy %d = %q, want %q", i, report.Discrepancies[i].Name, name)
		}
	}
}

func TestCompareMatchesAcrossCaseAndWhitespace(t *testing.T) {
	report := Compare(
		Inventory{{Name: "Coffee Table", Count: 1}},
		Inventory{{Name: "  coffee table ", Count: 1}},
	)
	if len(report.Discrepancies) != 0 {
		t.Fatalf("case/whitespace variants should match: %v", report.Discrepancies)
	}
}
