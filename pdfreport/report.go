// Package pdfreport renders inspection results into a PDF document.
package pdfreport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/homiestan/homiestan_backend/inventory"
)

type RoomSection struct {
	RoomName string
	Expected inventory.Inventory
	Observed inventory.Inventory
	Report   inventory.DiscrepancyReport
}

type ReportData struct {
	HomeName    string
	HomeAddress string
	TenantName  string
	SubmittedAt time.Time
	Rooms       []RoomSection
}

// TotalDiscrepancies counts shortfall entries across all rooms.
func (d *ReportData) TotalDiscrepancies() int {
	total := 0
	for _, room := range d.Rooms {
		total += len(room.Report.Discrepancies)
	}
	return total
}

const (
	pageBreakAt   = 260.0
	colItemWidth  = 70.0
	colCountWidth = 25.0
	colNoteWidth  = 70.0
)

// Render produces the PDF bytes for one submitted inspection. Long
// discrepancy tables flow across pages, with the table header repeated on
// each new page.
func Render(data *ReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Inspection Report", false)
	pdf.SetAutoPageBreak(false, 15)
	pdf.AddPage()

	writeTitle(pdf, data)

	for _, room := range data.Rooms {
		writeRoomSection(pdf, room)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTitle(pdf *fpdf.Fpdf, data *ReportData) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Inspection Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Home: "+data.HomeName, "", 1, "L", false, 0, "")
	if data.HomeAddress != "" {
		pdf.CellFormat(0, 6, "Address: "+data.HomeAddress, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Inspected by: "+data.TenantName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Submitted: "+data.SubmittedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")

	total := data.TotalDiscrepancies()
	summary := "No discrepancies were found."
	if total > 0 {
		summary = fmt.Sprintf("%d discrepancies found across %d rooms.", total, len(data.Rooms))
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, summary, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeRoomSection(pdf *fpdf.Fpdf, room RoomSection) {
	ensureSpace(pdf, 30)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, room.RoomName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Expected items: %d    Observed items: %d",
		room.Expected.TotalCount(), room.Observed.TotalCount()), "", 1, "L", false, 0, "")
	pdf.Ln(1)

	if len(room.Report.Discrepancies) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "All expected items were found.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}

	writeTableHeader(pdf)
	for _, d := range room.Report.Discrepancies {
		if pdf.GetY() > pageBreakAt {
			pdf.AddPage()
			writeTableHeader(pdf)
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(colItemWidth, 6, d.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colCountWidth, 6, fmt.Sprintf("%d", d.ExpectedCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colCountWidth, 6, fmt.Sprintf("%d", d.ActualCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colNoteWidth, 6, d.Note, "1", 1, "L", false, 0, "")
	}

	if room.Report.HighlightSuggestion != "" {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, room.Report.HighlightSuggestion, "", "L", false)
	}
	pdf.Ln(4)
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colItemWidth, 6, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colCountWidth, 6, "Expected", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colCountWidth, 6, "Found", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colNoteWidth, 6, "Note", "1", 1, "L", true, 0, "")
}

func ensureSpace(pdf *fpdf.Fpdf, needed float64) {
	if pdf.GetY()+needed > pageBreakAt+15 {
		pdf.AddPage()
	}
}
