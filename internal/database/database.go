package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"medshop/m/internal/config"
)

const mysqlTLSKey = "medshop"

// DB is a sqlx handle that remembers which SQL dialect it speaks.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// ConnectivityError reports that the store could not be reached, including
// TLS certificate rejection. It is fatal to the operation that hit it.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "database unreachable: " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Connect opens and pings the configured store. Any failure is returned as
// a *ConnectivityError.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	var db *sqlx.DB
	switch dialect.Name {
	case config.DriverMySQL:
		db, err = openMySQL(cfg)
	case config.DriverPostgres:
		db, err = openPostgres(cfg)
	default:
		db, err = OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectivityError{Err: fmt.Errorf("ping %s: %w", dialect.Name, err)}
	}

	logger.Info("connected to database",
		zap.String("driver", dialect.Name),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Bool("tls", dialect.Name != config.DriverSQLite && !cfg.SSLDisabled),
	)
	return &DB{DB: db, Dialect: dialect}, nil
}

// Wrap pairs an existing connection with its dialect. Used by tests.
func Wrap(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlx.NewDb(db, dialect.DriverName), Dialect: dialect}
}

// OpenSQLite opens a SQLite database file. Use ":memory:" for a private
// in-memory database; the single connection keeps it alive.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func openMySQL(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true

	if !cfg.SSLDisabled {
		tc, err := tlsConfig(cfg.SSLCA, cfg.Host)
		if err != nil {
			return nil, err
		}
		if err := mysql.RegisterTLSConfig(mysqlTLSKey, tc); err != nil {
			return nil, fmt.Errorf("register tls config: %w", err)
		}
		mc.TLSConfig = mysqlTLSKey
	}

	db, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(5)
	return db, nil
}

func openPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host='%s' port=%d user='%s' password='%s' dbname='%s' sslmode=disable",
		escapeConnValue(cfg.Host), cfg.Port, escapeConnValue(cfg.User),
		escapeConnValue(cfg.Password), escapeConnValue(cfg.Name))
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if !cfg.SSLDisabled {
		tc, err := tlsConfig(cfg.SSLCA, cfg.Host)
		if err != nil {
			return nil, err
		}
		connCfg.TLSConfig = tc
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connCfg), "pgx")
	db.SetMaxOpenConns(5)
	return db, nil
}

// escapeConnValue escapes a value for use inside single quotes in a
// libpq keyword/value connection string.
func escapeConnValue(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
