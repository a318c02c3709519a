package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medshop/m/domain"
	"medshop/m/internal/database"
	"medshop/m/internal/migrations"
	"medshop/m/internal/repository"
)

// Compile-time checks that the repository satisfies the workflow's ports.
var (
	_ PatientWriter = (*repository.Store)(nil)
	_ Catalog       = (*repository.Store)(nil)
)

type mockWriter struct {
	CreatePatientFunc func(ctx context.Context, p *domain.Patient, lines []domain.PatientMedicineLine) error
	calls             int
}

func (m *mockWriter) CreatePatient(ctx context.Context, p *domain.Patient, lines []domain.PatientMedicineLine) error {
	m.calls++
	if m.CreatePatientFunc != nil {
		return m.CreatePatientFunc(ctx, p, lines)
	}
	p.ID = 1
	return nil
}

type mockCatalog struct {
	names []string
	err   error
}

func (m mockCatalog) ListMedicineNames(context.Context) ([]string, error) {
	return m.names, m.err
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func ashaSubmission(t *testing.T) Submission {
	return Submission{
		Name:         "Asha",
		Mobile:       "9999999999",
		Selected:     []string{"Paracetamol", "Cough Syrup"},
		Quantities:   map[string]int{"Paracetamol": 2, "Cough Syrup": 1},
		LastPurchase: mustDate(t, "2024-01-01"),
	}
}

func TestNextReminderDate_IsThirtyDaysLater(t *testing.T) {
	start := mustDate(t, "2023-11-15")
	for i := 0; i < 500; i++ {
		last := start.AddDays(i)
		next := NextReminderDate(last)
		assert.Equal(t, last.AddDays(30), next)
		assert.Equal(t, last, next.AddDays(-30))
	}
	assert.Equal(t, "2024-01-31", NextReminderDate(mustDate(t, "2024-01-01")).String())
}

func TestValidate_Order(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Submission)
		want   error
	}{
		{"valid", func(s *Submission) {}, nil},
		{"blank name", func(s *Submission) { s.Name = "  " }, ErrMissingIdentity},
		{"blank mobile", func(s *Submission) { s.Mobile = "" }, ErrMissingIdentity},
		{"identity reported before selection", func(s *Submission) { s.Name = ""; s.Selected = nil }, ErrMissingIdentity},
		{"no selection", func(s *Submission) { s.Selected = nil }, ErrNoMedicineSelected},
		{"only blank selection", func(s *Submission) { s.Selected = []string{"", " "} }, ErrNoMedicineSelected},
		{"selection reported before quantities", func(s *Submission) { s.Selected = nil; s.Quantities = nil }, ErrNoMedicineSelected},
		{"missing quantity", func(s *Submission) { delete(s.Quantities, "Cough Syrup") }, ErrIncompleteQuantities},
		{"missing reported before invalid", func(s *Submission) {
			delete(s.Quantities, "Cough Syrup")
			s.Quantities["Paracetamol"] = 0
		}, ErrIncompleteQuantities},
		{"zero strips", func(s *Submission) { s.Quantities["Paracetamol"] = 0 }, ErrInvalidStrips},
		{"negative strips", func(s *Submission) { s.Quantities["Cough Syrup"] = -3 }, ErrInvalidStrips},
		{"extra quantities are ignored", func(s *Submission) { s.Quantities["Zinc"] = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := ashaSubmission(t)
			tt.mutate(&sub)
			err := Validate(sub)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidate_NamesMedicines(t *testing.T) {
	sub := ashaSubmission(t)
	sub.Quantities = map[string]int{}

	err := Validate(sub)
	var medErr *MedicineError
	require.ErrorAs(t, err, &medErr)
	assert.Equal(t, []string{"Paracetamol", "Cough Syrup"}, medErr.Medicines)
	assert.Contains(t, err.Error(), "Paracetamol, Cough Syrup")
}

func TestRegister_Success(t *testing.T) {
	var stored *domain.Patient
	var storedLines []domain.PatientMedicineLine
	writer := &mockWriter{CreatePatientFunc: func(_ context.Context, p *domain.Patient, lines []domain.PatientMedicineLine) error {
		p.ID = 42
		stored, storedLines = p, lines
		return nil
	}}
	wf := New(writer, nil, Options{}, zap.NewNop())

	sub := ashaSubmission(t)
	sub.Name = "  Asha "
	res, err := wf.Register(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.PatientID)
	assert.Equal(t, "2024-01-31", res.NextReminder.String())
	assert.Equal(t, "Asha", stored.Name)
	assert.Equal(t, mustDate(t, "2024-01-01"), stored.LastPurchaseDate)
	assert.Equal(t, mustDate(t, "2024-01-31"), stored.NextReminderDate)
	assert.Equal(t, []domain.PatientMedicineLine{
		{MedicineName: "Paracetamol", Strips: 2},
		{MedicineName: "Cough Syrup", Strips: 1},
	}, storedLines)
}

func TestRegister_DuplicateSelectionStoredOnce(t *testing.T) {
	var storedLines []domain.PatientMedicineLine
	writer := &mockWriter{CreatePatientFunc: func(_ context.Context, _ *domain.Patient, lines []domain.PatientMedicineLine) error {
		storedLines = lines
		return nil
	}}
	wf := New(writer, nil, Options{}, zap.NewNop())

	sub := ashaSubmission(t)
	sub.Selected = []string{"Cough Syrup", "Paracetamol", "Cough Syrup"}
	_, err := wf.Register(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, storedLines, 2)
	assert.Equal(t, "Cough Syrup", storedLines[0].MedicineName)
	assert.Equal(t, "Paracetamol", storedLines[1].MedicineName)
}

func TestRegister_DefaultsLastPurchaseToToday(t *testing.T) {
	var stored *domain.Patient
	writer := &mockWriter{CreatePatientFunc: func(_ context.Context, p *domain.Patient, _ []domain.PatientMedicineLine) error {
		stored = p
		return nil
	}}
	now := func() time.Time { return time.Date(2024, time.March, 5, 18, 30, 0, 0, time.Local) }
	wf := New(writer, nil, Options{Now: now}, zap.NewNop())

	sub := ashaSubmission(t)
	sub.LastPurchase = domain.Date{}
	res, err := wf.Register(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", stored.LastPurchaseDate.String())
	assert.Equal(t, "2024-04-04", res.NextReminder.String())
}

func TestRegister_ValidationFailureDoesNotWrite(t *testing.T) {
	writer := &mockWriter{}
	wf := New(writer, nil, Options{}, zap.NewNop())

	sub := ashaSubmission(t)
	sub.Selected = []string{}
	_, err := wf.Register(context.Background(), sub)
	require.ErrorIs(t, err, ErrNoMedicineSelected)

	sub = ashaSubmission(t)
	delete(sub.Quantities, "Paracetamol")
	_, err = wf.Register(context.Background(), sub)
	require.ErrorIs(t, err, ErrIncompleteQuantities)

	assert.Zero(t, writer.calls)
}

func TestRegister_PersistenceError(t *testing.T) {
	failure := errors.New("Duplicate entry '1' for key 'PRIMARY'")
	writer := &mockWriter{CreatePatientFunc: func(context.Context, *domain.Patient, []domain.PatientMedicineLine) error {
		return failure
	}}
	wf := New(writer, nil, Options{}, zap.NewNop())

	_, err := wf.Register(context.Background(), ashaSubmission(t))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), failure.Error())
}

func TestRegister_RequireCatalog(t *testing.T) {
	writer := &mockWriter{}
	catalog := mockCatalog{names: []string{"Paracetamol"}}
	wf := New(writer, catalog, Options{RequireCatalog: true}, zap.NewNop())

	_, err := wf.Register(context.Background(), ashaSubmission(t))
	var medErr *MedicineError
	require.ErrorAs(t, err, &medErr)
	assert.ErrorIs(t, err, ErrUnknownMedicine)
	assert.Equal(t, []string{"Cough Syrup"}, medErr.Medicines)
	assert.Zero(t, writer.calls)

	wf = New(writer, mockCatalog{err: assert.AnError}, Options{RequireCatalog: true}, zap.NewNop())
	_, err = wf.Register(context.Background(), ashaSubmission(t))
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestRegister_PermissiveCatalogByDefault(t *testing.T) {
	writer := &mockWriter{}
	wf := New(writer, mockCatalog{err: assert.AnError}, Options{}, zap.NewNop())

	sub := ashaSubmission(t)
	sub.Selected = []string{"Home Remedy"}
	sub.Quantities = map[string]int{"Home Remedy": 1}
	_, err := wf.Register(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, 1, writer.calls)
}

func newSQLiteWorkflow(t *testing.T) (*database.DB, *Workflow) {
	t.Helper()
	raw, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	db := &database.DB{DB: raw, Dialect: database.SQLite}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))

	store := repository.New(db, zap.NewNop())
	return db, New(store, store, Options{}, zap.NewNop())
}

func TestRegister_SQLiteScenario(t *testing.T) {
	db, wf := newSQLiteWorkflow(t)

	res, err := wf.Register(context.Background(), ashaSubmission(t))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", res.NextReminder.String())

	var lines []domain.PatientMedicineLine
	require.NoError(t, db.Select(&lines, `SELECT id, patient_id, medicine_name, strips FROM patient_medicines WHERE patient_id = ? ORDER BY id`, res.PatientID))
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.GreaterOrEqual(t, l.Strips, 1)
	}

	var reminder domain.Date
	require.NoError(t, db.Get(&reminder, `SELECT next_reminder_date FROM patients WHERE id = ?`, res.PatientID))
	assert.Equal(t, "2024-01-31", reminder.String())
}

func TestRegister_SQLiteEmptySelectionWritesNothing(t *testing.T) {
	db, wf := newSQLiteWorkflow(t)

	sub := ashaSubmission(t)
	sub.Selected = nil
	sub.Quantities = map[string]int{}
	_, err := wf.Register(context.Background(), sub)
	require.ErrorIs(t, err, ErrNoMedicineSelected)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM patients`))
	assert.Zero(t, n)
}
