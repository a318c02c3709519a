package report

import "medshop/m/domain"

// Table is a rendered patient listing. The HTML views and the spreadsheet
// export both draw from it so their columns never drift apart.
type Table struct {
	Title  string
	Header []string
	// Widths are spreadsheet column widths, one per header.
	Widths []float64
	Rows   [][]any
}

var (
	ReminderHeader = []string{"Patient Name", "Mobile", "Medicines"}
	SearchHeader   = []string{"ID", "Name", "Mobile", "Last Purchase", "Next Reminder", "Medicines"}
)

// Reminders builds the "due today" table.
func Reminders(records []domain.PatientRecord) Table {
	t := Table{
		Title:  "Reminders",
		Header: ReminderHeader,
		Widths: []float64{25, 18, 60},
		Rows:   make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{r.Name, r.Mobile, FormatMedicines(r.Lines)})
	}
	return t
}

// SearchResults builds the patient search table. Patients without lines get
// an empty medicines cell.
func SearchResults(records []domain.PatientRecord) Table {
	t := Table{
		Title:  "Patients",
		Header: SearchHeader,
		Widths: []float64{8, 25, 18, 15, 15, 60},
		Rows:   make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{
			r.ID,
			r.Name,
			r.Mobile,
			r.LastPurchaseDate.String(),
			r.NextReminderDate.String(),
			FormatMedicines(r.Lines),
		})
	}
	return t
}
