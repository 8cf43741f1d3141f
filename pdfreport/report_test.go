package pdfreport

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/homiestan/homiestan_backend/inventory"
)

func sampleData() *ReportData {
	return &ReportData{
		HomeName:    "Maple Street House",
		HomeAddress: "12 Maple Street",
		TenantName:  "Jordan Price",
		SubmittedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Rooms: []RoomSection{
			{
				RoomName: "Living Room",
				Expected: inventory.Inventory{{Name: "Sofa", Count: 1}, {Name: "Lamp", Count: 2}},
				Observed: inventory.Inventory{{Name: "Sofa", Count: 1}, {Name: "Lamp", Count: 1}},
				Report: inventory.Compare(
					inventory.Inventory{{Name: "Sofa", Count: 1}, {Name: "Lamp", Count: 2}},
					inventory.Inventory{{Name: "Sofa", Count: 1}, {Name: "Lamp", Count: 1}},
				),
			},
			{
				RoomName: "Bedroom",
				Expected: inventory.Inventory{{Name: "Bed", Count: 1}},
				Observed: inventory.Inventory{{Name: "Bed", Count: 1}},
				Report:   inventory.Compare(inventory.Inventory{{Name: "Bed", Count: 1}}, inventory.Inventory{{Name: "Bed", Count: 1}}),
			},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	data, err := Render(sampleData())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", data[:min(len(data), 8)])
	}
}

func TestRenderPaginatesLongTables(t *testing.T) {
	var expected inventory.Inventory
	for i := 0; i < 120; i++ {
		expected = append(expected, inventory.ObjectEntry{Name: fmt.Sprintf("Item %03d", i), Count: 2})
	}
	report := inventory.Compare(expected, inventory.Inventory{})

	data := &ReportData{
		HomeName:    "Big House",
		TenantName:  "Tenant",
		SubmittedAt: time.Now(),
		Rooms: []RoomSection{
			{RoomName: "Warehouse Room", Expected: expected, Report: report},
		},
	}

	short, err := Render(&ReportData{
		HomeName:    "Big House",
		TenantName:  "Tenant",
		SubmittedAt: time.Now(),
		Rooms:       []RoomSection{{RoomName: "Warehouse Room"}},
	})
	if err != nil {
		t.Fatalf("Render short: %v", err)
	}
	long, err := Render(data)
	if err != nil {
		t.Fatalf("Render long: %v", err)
	}
	if len(long) <= len(short) {
		t.Fatalf("long report (%d bytes) should be bigger than short (%d bytes)", len(long), len(short))
	}
	// A 120-row table cannot fit on one page.
	if bytes.Count(long, []byte("/Page\n")) <= bytes.Count(short, []byte("/Page\n")) &&
		bytes.Count(long, []byte("/Type /Page")) <= bytes.Count(short, []byte("/Type /Page")) {
		t.Fatal("long report did not add pages")
	}
}

func TestTotalDiscrepancies(t *testing.T) {
	data := sampleData()
	if got := data.TotalDiscrepancies(); got != 1 {
		t.Fatalf("TotalDiscrepancies = %d, want 1", got)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
