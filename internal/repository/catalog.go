package repository

import (
	"context"
	"fmt"

	"medshop/m/domain"
)

// ListMedicineNames returns the catalog in name order.
func (s *Store) ListMedicineNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM medicines ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return names, nil
}

// ListMedicines returns the catalog entries in name order.
func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.db.SelectContext(ctx, &medicines, `SELECT name FROM medicines ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

func (s *Store) CountMedicines(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM medicines`); err != nil {
		return 0, fmt.Errorf("count medicines: %w", err)
	}
	return n, nil
}
