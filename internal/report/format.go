package report

import (
	"strconv"
	"strings"

	"medshop/m/domain"
)

// FormatMedicines renders line items as "<name> (<n> strips)" joined by
// ", ". No lines renders as an empty string.
func FormatMedicines(lines []domain.PatientMedicineLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.MedicineName)
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(l.Strips))
		b.WriteString(" strips)")
	}
	return b.String()
}
