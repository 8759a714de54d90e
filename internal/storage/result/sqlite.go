package result

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/storage"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS filter_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		code TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		kind TEXT NOT NULL,
		strategy TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(date, code, fingerprint)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_filter_results_date_strategy ON filter_results(date, strategy)`,
}

type row struct {
	Date        string `db:"date"`
	Code        string `db:"code"`
	Fingerprint string `db:"fingerprint"`
	Kind        string `db:"kind"`
	Strategy    string `db:"strategy"`
	RunID       string `db:"run_id"`
	CreatedAt   int64  `db:"created_at"`
}

func (r row) result() core.FilterResult {
	return core.FilterResult{
		Date:        r.Date,
		Code:        r.Code,
		Fingerprint: r.Fingerprint,
		Kind:        core.PeriodKind(r.Kind),
		Strategy:    r.Strategy,
		RunID:       r.RunID,
		CreatedAt:   time.Unix(r.CreatedAt, 0),
	}
}

// SQLiteStore persists results in a sqlite table.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates the results table on db if needed.
func NewSQLiteStore(ctx context.Context, db *sqlx.DB) (*SQLiteStore, error) {
	if err := storage.Migrate(ctx, db, schema...); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts r unless a row with the same date, code and fingerprint exists.
func (s *SQLiteStore) Save(ctx context.Context, r core.FilterResult) (bool, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	query := `
	INSERT OR IGNORE INTO filter_results (
		date, code, fingerprint, kind, strategy, run_id, created_at
	) VALUES (
		:date, :code, :fingerprint, :kind, :strategy, :run_id, :created_at
	)`

	res, err := s.db.NamedExecContext(ctx, query, row{
		Date:        r.Date,
		Code:        r.Code,
		Fingerprint: r.Fingerprint,
		Kind:        string(r.Kind),
		Strategy:    r.Strategy,
		RunID:       r.RunID,
		CreatedAt:   r.CreatedAt.Unix(),
	})
	if err != nil {
		return false, core.WrapError(core.ErrStorageFailed, fmt.Errorf("save result %s/%s: %w", r.Date, r.Code, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.WrapError(core.ErrStorageFailed, err)
	}
	return n > 0, nil
}

// List returns results matching the filter.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]core.FilterResult, error) {
	var (
		where []string
		args  []any
	)
	if filter.Date != "" {
		where = append(where, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.Strategy != "" {
		where = append(where, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Code != "" {
		where = append(where, "code = ?")
		args = append(args, filter.Code)
	}

	query := `SELECT date, code, fingerprint, kind, strategy, run_id, created_at FROM filter_results`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, strategy, code"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("list results: %w", err))
	}

	out := make([]core.FilterResult, len(rows))
	for i, r := range rows {
		out[i] = r.result()
	}
	return out, nil
}

// Dates returns the distinct dates, newest first.
func (s *SQLiteStore) Dates(ctx context.Context) ([]string, error) {
	var dates []string
	if err := s.db.SelectContext(ctx, &dates, `SELECT DISTINCT date FROM filter_results ORDER BY date DESC`); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("list dates: %w", err))
	}
	return dates, nil
}
