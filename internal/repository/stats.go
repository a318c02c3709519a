package repository

import (
	"context"
	"fmt"

	"medshop/m/domain"
)

func (s *Store) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

// CountDueOn counts patients whose next reminder falls on day.
func (s *Store) CountDueOn(ctx context.Context, day domain.Date) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM patients WHERE next_reminder_date = ?`), day); err != nil {
		return 0, fmt.Errorf("count reminders due: %w", err)
	}
	return n, nil
}

// CountDueBetween counts patients whose next reminder is in [from, to].
func (s *Store) CountDueBetween(ctx context.Context, from, to domain.Date) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM patients WHERE next_reminder_date BETWEEN ? AND ?`), from, to); err != nil {
		return 0, fmt.Errorf("count upcoming reminders: %w", err)
	}
	return n, nil
}

// DueOn lists the patients due for a refill on day with their medicines.
// Patients without any line item are left out.
func (s *Store) DueOn(ctx context.Context, day domain.Date) ([]domain.PatientRecord, error) {
	var patients []domain.Patient
	err := s.db.SelectContext(ctx, &patients, s.db.Rebind(`SELECT `+patientColumns+`
                FROM patients p
                WHERE p.next_reminder_date = ?
                AND EXISTS (SELECT 1 FROM patient_medicines pm WHERE pm.patient_id = p.id)
                ORDER BY p.id`), day)
	if err != nil {
		return nil, fmt.Errorf("list reminders due: %w", err)
	}
	return s.attachLines(ctx, patients)
}
