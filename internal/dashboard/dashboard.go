package dashboard

import (
	"context"
	"time"

	"medshop/m/domain"
)

// Reader is the part of the store the dashboard reads from.
type Reader interface {
	CountPatients(ctx context.Context) (int, error)
	CountMedicines(ctx context.Context) (int, error)
	CountDueOn(ctx context.Context, day domain.Date) (int, error)
	CountDueBetween(ctx context.Context, from, to domain.Date) (int, error)
	DueOn(ctx context.Context, day domain.Date) ([]domain.PatientRecord, error)
}

// Summary is everything the dashboard page shows.
type Summary struct {
	Today             domain.Date
	UpcomingUntil     domain.Date
	TotalPatients     int
	TotalMedicines    int
	TodayReminders    int
	UpcomingReminders int
	Due               []domain.PatientRecord
}

type Service struct {
	reader       Reader
	upcomingDays int
	now          func() time.Time
}

// New returns a Service counting upcoming reminders from today through
// today+upcomingDays inclusive. A nil now uses time.Now.
func New(reader Reader, upcomingDays int, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{reader: reader, upcomingDays: upcomingDays, now: now}
}

// Today is the current calendar date in the server's zone.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.now())
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.Today()
	sum := &Summary{Today: today, UpcomingUntil: today.AddDays(s.upcomingDays)}

	var err error
	if sum.TotalPatients, err = s.reader.CountPatients(ctx); err != nil {
		return nil, err
	}
	if sum.TotalMedicines, err = s.reader.CountMedicines(ctx); err != nil {
		return nil, err
	}
	if sum.TodayReminders, err = s.reader.CountDueOn(ctx, today); err != nil {
		return nil, err
	}
	if sum.UpcomingReminders, err = s.reader.CountDueBetween(ctx, today, sum.UpcomingUntil); err != nil {
		return nil, err
	}
	if sum.Due, err = s.reader.DueOn(ctx, today); err != nil {
		return nil, err
	}
	return sum, nil
}
