package registration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"medshop/m/domain"
)

// ReminderDays is the fixed gap between a purchase and the refill reminder.
const ReminderDays = 30

// Submission is one attempt to register a patient. It carries the whole form
// state, so nothing about the attempt lives outside the request.
type Submission struct {
	Name   string
	Mobile string
	// Selected lists the chosen medicine names in display order.
	Selected []string
	// Quantities maps a medicine name to its strip count. A selected medicine
	// without an entry has no quantity entered yet.
	Quantities   map[string]int
	LastPurchase domain.Date
}

// Result describes a committed registration.
type Result struct {
	PatientID    int64
	NextReminder domain.Date
	Lines        []domain.PatientMedicineLine
}

// PatientWriter persists a patient and its lines atomically.
type PatientWriter interface {
	CreatePatient(ctx context.Context, p *domain.Patient, lines []domain.PatientMedicineLine) error
}

// Catalog lists the medicine names the shop sells.
type Catalog interface {
	ListMedicineNames(ctx context.Context) ([]string, error)
}

// Options tune the workflow.
type Options struct {
	// RequireCatalog rejects medicines missing from the catalog table.
	RequireCatalog bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Workflow validates submissions and records patients.
type Workflow struct {
	writer  PatientWriter
	catalog Catalog
	opts    Options
	logger  *zap.Logger
}

func New(writer PatientWriter, catalog Catalog, opts Options, logger *zap.Logger) *Workflow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Workflow{writer: writer, catalog: catalog, opts: opts, logger: logger}
}

// NextReminderDate returns the refill reminder date for a purchase on last.
func NextReminderDate(last domain.Date) domain.Date {
	return last.AddDays(ReminderDays)
}

// Validate applies the form rules in order and returns the first failure.
// It does not touch the database.
func Validate(sub Submission) error {
	if strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Mobile) == "" {
		return ErrMissingIdentity
	}
	selected := selection(sub.Selected)
	if len(selected) == 0 {
		return ErrNoMedicineSelected
	}

	var missing, invalid []string
	for _, med := range selected {
		strips, ok := sub.Quantities[med]
		switch {
		case !ok:
			missing = append(missing, med)
		case strips < 1:
			invalid = append(invalid, med)
		}
	}
	if len(missing) > 0 {
		return &MedicineError{Err: ErrIncompleteQuantities, Medicines: missing}
	}
	if len(invalid) > 0 {
		return &MedicineError{Err: ErrInvalidStrips, Medicines: invalid}
	}
	return nil
}

// Register validates sub, computes the reminder date and stores the patient
// with one line per selected medicine in a single transaction. Validation
// failures wrap ErrValidation; storage failures are *PersistenceError.
func (w *Workflow) Register(ctx context.Context, sub Submission) (*Result, error) {
	if err := Validate(sub); err != nil {
		return nil, err
	}
	selected := selection(sub.Selected)

	if w.opts.RequireCatalog {
		if err := w.checkCatalog(ctx, selected); err != nil {
			return nil, err
		}
	}

	last := sub.LastPurchase
	if last.IsZero() {
		last = domain.DateOf(w.opts.Now())
	}
	patient := &domain.Patient{
		Name:             strings.TrimSpace(sub.Name),
		Mobile:           strings.TrimSpace(sub.Mobile),
		LastPurchaseDate: last,
		NextReminderDate: NextReminderDate(last),
	}
	lines := make([]domain.PatientMedicineLine, len(selected))
	for i, med := range selected {
		lines[i] = domain.PatientMedicineLine{MedicineName: med, Strips: sub.Quantities[med]}
	}

	if err := w.writer.CreatePatient(ctx, patient, lines); err != nil {
		w.logger.Error("patient registration failed", zap.String("patient", patient.Name), zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}

	w.logger.Info("patient registered",
		zap.Int64("patient_id", patient.ID),
		zap.Int("medicines", len(lines)),
		zap.Stringer("next_reminder", patient.NextReminderDate),
	)
	return &Result{PatientID: patient.ID, NextReminder: patient.NextReminderDate, Lines: lines}, nil
}

func (w *Workflow) checkCatalog(ctx context.Context, selected []string) error {
	names, err := w.catalog.ListMedicineNames(ctx)
	if err != nil {
		return fmt.Errorf("check medicine catalog: %w", err)
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	var unknown []string
	for _, med := range selected {
		if _, ok := known[med]; !ok {
			unknown = append(unknown, med)
		}
	}
	if len(unknown) > 0 {
		return &MedicineError{Err: ErrUnknownMedicine, Medicines: unknown}
	}
	return nil
}

// selection drops blank names and repeats, keeping first-seen order.
func selection(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
