package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medshop/m/domain"
	"medshop/m/internal/database"
)

const patientColumns = `id, name, mobile, last_purchase_date, next_reminder_date`

// Store issues every statement the dashboard needs against one database.
// Queries are written with ? placeholders and rebound for the driver.
type Store struct {
	db     *database.DB
	logger *zap.Logger
}

func New(db *database.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Ping checks that the store still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// attachLines loads the line items of patients in one query and pairs them
// up, keeping both the patient order and the line insertion order.
func (s *Store) attachLines(ctx context.Context, patients []domain.Patient) ([]domain.PatientRecord, error) {
	records := make([]domain.PatientRecord, len(patients))
	if len(patients) == 0 {
		return records, nil
	}

	ids := make([]int64, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	query, args, err := sqlx.In(`SELECT id, patient_id, medicine_name, strips
                FROM patient_medicines
                WHERE patient_id IN (?)
                ORDER BY patient_id, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare patient medicines query: %w", err)
	}

	var lines []domain.PatientMedicineLine
	if err := s.db.SelectContext(ctx, &lines, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load patient medicines: %w", err)
	}
	byPatient := make(map[int64][]domain.PatientMedicineLine)
	for _, line := range lines {
		byPatient[line.PatientID] = append(byPatient[line.PatientID], line)
	}

	for i, p := range patients {
		records[i] = domain.PatientRecord{Patient: p, Lines: byPatient[p.ID]}
	}
	return records, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes s match literally inside a LIKE pattern using ESCAPE '!'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
