package repository

import (
	"context"
	"fmt"
	"strings"

	"medshop/m/domain"
)

// SearchByName finds patients whose name contains term, ignoring case.
// Patients without line items are included. A blank term matches nothing.
func (s *Store) SearchByName(ctx context.Context, term string) ([]domain.PatientRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.PatientRecord{}, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var patients []domain.Patient
	err := s.db.SelectContext(ctx, &patients, s.db.Rebind(`SELECT `+patientColumns+`
                FROM patients
                WHERE LOWER(name) LIKE ? ESCAPE '!'
                ORDER BY id`), pattern)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return s.attachLines(ctx, patients)
}
