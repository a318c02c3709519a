package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"medshop/m/domain"
)

func TestFormatMedicines(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.PatientMedicineLine
		want  string
	}{
		{"none", nil, ""},
		{"single", []domain.PatientMedicineLine{{MedicineName: "Paracetamol", Strips: 2}}, "Paracetamol (2 strips)"},
		{"several keep order", []domain.PatientMedicineLine{
			{MedicineName: "Paracetamol", Strips: 2},
			{MedicineName: "Cough Syrup", Strips: 1},
		}, "Paracetamol (2 strips), Cough Syrup (1 strips)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMedicines(tt.lines))
		})
	}
}

func sampleRecords(t *testing.T) []domain.PatientRecord {
	last, err := domain.ParseDate("2024-01-01")
	require.NoError(t, err)
	return []domain.PatientRecord{
		{
			Patient: domain.Patient{ID: 7, Name: "Asha", Mobile: "9999999999", LastPurchaseDate: last, NextReminderDate: last.AddDays(30)},
			Lines:   []domain.PatientMedicineLine{{MedicineName: "Paracetamol", Strips: 2}, {MedicineName: "Cough Syrup", Strips: 1}},
		},
		{
			Patient: domain.Patient{ID: 9, Name: "Ashok", Mobile: "8888888888", LastPurchaseDate: last, NextReminderDate: last.AddDays(30)},
		},
	}
}

func TestSearchResults(t *testing.T) {
	table := SearchResults(sampleRecords(t))
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []any{int64(7), "Asha", "9999999999", "2024-01-01", "2024-01-31", "Paracetamol (2 strips), Cough Syrup (1 strips)"}, table.Rows[0])
	assert.Equal(t, "", table.Rows[1][5])
	assert.Len(t, table.Widths, len(table.Header))
}

func TestReminders(t *testing.T) {
	table := Reminders(sampleRecords(t)[:1])
	assert.Equal(t, [][]any{{"Asha", "9999999999", "Paracetamol (2 strips), Cough Syrup (1 strips)"}}, table.Rows)

	empty := Reminders(nil)
	assert.NotNil(t, empty.Rows)
	assert.Empty(t, empty.Rows)
}

func TestWorkbook_MatchesTable(t *testing.T) {
	table := SearchResults(sampleRecords(t))
	data, err := Workbook(table)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Patients"}, f.GetSheetList())
	rows, err := f.GetRows("Patients")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, SearchHeader, rows[0])
	assert.Equal(t, []string{"7", "Asha", "9999999999", "2024-01-01", "2024-01-31", "Paracetamol (2 strips), Cough Syrup (1 strips)"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 5)
	assert.Equal(t, []string{"9", "Ashok", "8888888888", "2024-01-01", "2024-01-31"}, rows[2][:5])
	if len(rows[2]) > 5 {
		assert.Empty(t, rows[2][5])
	}
}

func TestWorkbook_HeaderOnly(t *testing.T) {
	data, err := Workbook(Reminders(nil))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Reminders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ReminderHeader, rows[0])
}
