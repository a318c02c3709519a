package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"medshop/m/internal/database"
)

// LoadMedicinesFile ingests a catalog CSV from disk. See LoadMedicines.
func LoadMedicinesFile(ctx context.Context, db *database.DB, csvPath string, logger *zap.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("unable to open medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return LoadMedicines(ctx, db, file, logger)
}

// LoadMedicines ingests the CSV into the medicines table, ignoring
// duplicates. The first row is a header; the medicine name is read from the
// "name" column, or the first column if there is none. It returns the number
// of names actually inserted.
func LoadMedicines(ctx context.Context, db *database.DB, r io.Reader, logger *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("unable to read medicine header: %w", err)
	}
	nameCol := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "name") {
			nameCol = i
			break
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to start medicine transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(db.Dialect.InsertIgnore("medicines", "name", "?")))
	if err != nil {
		return 0, fmt.Errorf("unable to prepare medicine insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("unable to read medicine row", zap.Error(err))
			continue
		}
		if len(record) <= nameCol {
			continue
		}
		name := strings.TrimSpace(record[nameCol])
		if name == "" {
			continue
		}

		res, err := stmt.ExecContext(ctx, name)
		if err != nil {
			return rows, fmt.Errorf("unable to insert medicine %s: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			rows += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("unable to commit medicine seed: %w", err)
	}
	logger.Info("seeded medicine catalog", zap.Int("rows", rows))
	return rows, nil
}
