// Package storage holds the SQLite plumbing shared by the series and result
// stores.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/newthinker/stockscreen/internal/core"
)

// MemoryDSN opens a private in-process database.
const MemoryDSN = ":memory:"

// Open opens the sqlite database at dsn, creating its directory. File
// databases run in WAL mode with a busy timeout.
func Open(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("empty sqlite dsn"))
	}

	source := dsn
	memory := dsn == MemoryDSN
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating directories: %w", err))
		}
		if !strings.Contains(dsn, "?") {
			source += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
		}
	}

	db, err := sqlx.Open("sqlite3", source)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("open database: %w", err))
	}

	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("ping database: %w", err))
	}
	return db, nil
}

// Migrate runs schema statements in order.
func Migrate(ctx context.Context, db *sqlx.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("migrate: %w", err))
		}
	}
	return nil
}
