package database

import (
	"fmt"

	"medshop/m/internal/config"
)

// Dialect captures the SQL differences between the supported stores.
type Dialect struct {
	// Name is one of the config.Driver* constants.
	Name string
	// DriverName is the database/sql driver the connection is opened with.
	DriverName string
	// Returning reports whether INSERT ... RETURNING id is available.
	// MySQL relies on LastInsertId instead.
	Returning bool
}

var (
	MySQL    = Dialect{Name: config.DriverMySQL, DriverName: "mysql", Returning: false}
	Postgres = Dialect{Name: config.DriverPostgres, DriverName: "pgx", Returning: true}
	SQLite   = Dialect{Name: config.DriverSQLite, DriverName: "sqlite", Returning: true}
)

// DialectFor maps a DB_DRIVER value to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverMySQL:
		return MySQL, nil
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// InsertIgnore returns an INSERT statement for table that silently skips
// rows violating a unique key. Placeholders use the ? form; callers Rebind.
func (d Dialect) InsertIgnore(table, columns, placeholders string) string {
	switch d.Name {
	case config.DriverMySQL:
		return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, columns, placeholders)
	case config.DriverSQLite:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, columns, placeholders)
	default:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING", table, columns, placeholders)
	}
}
