package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medshop/m/domain"
	"medshop/m/internal/database"
	"medshop/m/internal/migrations"
)

func setupMockStore(t *testing.T, dialect database.Dialect) (sqlmock.Sqlmock, *Store) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	return mock, New(database.Wrap(raw, dialect), zap.NewNop())
}

func setupSQLiteStore(t *testing.T) (*database.DB, *Store) {
	t.Helper()
	raw, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	db := &database.DB{DB: raw, Dialect: database.SQLite}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))

	return db, New(db, zap.NewNop())
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func midnight(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// register stores a patient with the given medicines, each with strips
// equal to its position plus one.
func register(t *testing.T, s *Store, name, lastPurchase string, medicines ...string) *domain.Patient {
	t.Helper()
	last := date(t, lastPurchase)
	p := &domain.Patient{Name: name, Mobile: "9999999999", LastPurchaseDate: last, NextReminderDate: last.AddDays(30)}
	lines := make([]domain.PatientMedicineLine, len(medicines))
	for i, m := range medicines {
		lines[i] = domain.PatientMedicineLine{MedicineName: m, Strips: i + 1}
	}
	require.NoError(t, s.CreatePatient(context.Background(), p, lines))
	return p
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, "50!% off!_now!!", escapeLike("50% off_now!"))
}
