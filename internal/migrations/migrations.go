package migrations

import (
	"context"
	"fmt"

	"medshop/m/internal/config"
	"medshop/m/internal/database"
)

var schemas = map[string][]string{
	config.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS medicines (
            name VARCHAR(255) PRIMARY KEY
        );`,
		`CREATE TABLE IF NOT EXISTS patients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name VARCHAR(255) NOT NULL,
            mobile VARCHAR(32) NOT NULL,
            last_purchase_date TEXT NOT NULL,
            next_reminder_date TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_patients_next_reminder ON patients (next_reminder_date);`,
		`CREATE TABLE IF NOT EXISTS patient_medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            patient_id INTEGER NOT NULL,
            medicine_name VARCHAR(255) NOT NULL,
            strips INTEGER NOT NULL CHECK (strips >= 1),
            FOREIGN KEY(patient_id) REFERENCES patients(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_patient_medicines_patient ON patient_medicines (patient_id);`,
	},
	config.DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS medicines (
            name VARCHAR(255) PRIMARY KEY
        );`,
		`CREATE TABLE IF NOT EXISTS patients (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            mobile VARCHAR(32) NOT NULL,
            last_purchase_date DATE NOT NULL,
            next_reminder_date DATE NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_patients_next_reminder ON patients (next_reminder_date);`,
		`CREATE TABLE IF NOT EXISTS patient_medicines (
            id SERIAL PRIMARY KEY,
            patient_id INTEGER NOT NULL REFERENCES patients(id),
            medicine_name VARCHAR(255) NOT NULL,
            strips INTEGER NOT NULL CHECK (strips >= 1)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_patient_medicines_patient ON patient_medicines (patient_id);`,
	},
	// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
	config.DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS medicines (
            name VARCHAR(255) PRIMARY KEY
        );`,
		`CREATE TABLE IF NOT EXISTS patients (
            id INT AUTO_INCREMENT PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            mobile VARCHAR(32) NOT NULL,
            last_purchase_date DATE NOT NULL,
            next_reminder_date DATE NOT NULL,
            INDEX idx_patients_next_reminder (next_reminder_date)
        );`,
		`CREATE TABLE IF NOT EXISTS patient_medicines (
            id INT AUTO_INCREMENT PRIMARY KEY,
            patient_id INT NOT NULL,
            medicine_name VARCHAR(255) NOT NULL,
            strips INT NOT NULL CHECK (strips >= 1),
            FOREIGN KEY(patient_id) REFERENCES patients(id)
        );`,
	},
}

// Run creates the tables the shop dashboard reads and writes.
func Run(ctx context.Context, db *database.DB) error {
	schema, ok := schemas[db.Dialect.Name]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.Dialect.Name)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
