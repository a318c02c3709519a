package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medshop/m/domain"
)

// CreatePatient inserts p and its lines in a single transaction. On any
// failure the transaction is rolled back and nothing is persisted. On success
// p.ID and every line's PatientID are set.
func (s *Store) CreatePatient(ctx context.Context, p *domain.Patient, lines []domain.PatientMedicineLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start registration: %w", err)
	}
	defer tx.Rollback()

	id, err := s.insertPatient(ctx, tx, p)
	if err != nil {
		return fmt.Errorf("unable to create patient: %w", err)
	}

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO patient_medicines (patient_id, medicine_name, strips) VALUES (?, ?, ?)`),
			id, line.MedicineName, line.Strips); err != nil {
			s.logger.Warn("rolling back registration",
				zap.String("medicine", line.MedicineName), zap.Error(err))
			return fmt.Errorf("unable to save medicine %s: %w", line.MedicineName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to finalize registration: %w", err)
	}

	p.ID = id
	for i := range lines {
		lines[i].PatientID = id
	}
	return nil
}

func (s *Store) insertPatient(ctx context.Context, tx *sqlx.Tx, p *domain.Patient) (int64, error) {
	const insert = `INSERT INTO patients (name, mobile, last_purchase_date, next_reminder_date) VALUES (?, ?, ?, ?)`
	args := []any{p.Name, p.Mobile, p.LastPurchaseDate, p.NextReminderDate}

	if s.db.Dialect.Returning {
		var id int64
		if err := tx.QueryRowxContext(ctx, tx.Rebind(insert+` RETURNING id`), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(insert), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
