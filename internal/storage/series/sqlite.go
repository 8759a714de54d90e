package series

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/storage"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS instruments (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		market TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS bars (
		code TEXT NOT NULL,
		kind TEXT NOT NULL,
		ts INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		turnover_rate REAL NOT NULL,
		PRIMARY KEY (code, kind, ts)
	)`,
}

type barRow struct {
	Code         string  `db:"code"`
	Kind         string  `db:"kind"`
	TS           int64   `db:"ts"`
	Open         float64 `db:"open"`
	High         float64 `db:"high"`
	Low          float64 `db:"low"`
	Close        float64 `db:"close"`
	Volume       int64   `db:"volume"`
	TurnoverRate float64 `db:"turnover_rate"`
}

type instrumentRow struct {
	Code   string `db:"code"`
	Name   string `db:"name"`
	Market string `db:"market"`
}

// SQLiteStore persists bars in sqlite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates the tables on db if needed.
func NewSQLiteStore(ctx context.Context, db *sqlx.DB) (*SQLiteStore, error) {
	if err := storage.Migrate(ctx, db, schema...); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Universe(ctx context.Context) ([]core.Instrument, error) {
	var rows []instrumentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT code, name, market FROM instruments ORDER BY code`); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("list instruments: %w", err))
	}

	out := make([]core.Instrument, len(rows))
	for i, r := range rows {
		out[i] = core.Instrument{Code: r.Code, Name: r.Name, Market: core.Market(r.Market)}
	}
	return out, nil
}

func (s *SQLiteStore) SaveInstruments(ctx context.Context, instruments []core.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO instruments (code, name, market) VALUES (:code, :name, :market)
	ON CONFLICT(code) DO UPDATE SET name = excluded.name, market = excluded.market`

	for _, inst := range instruments {
		row := instrumentRow{Code: inst.Code, Name: inst.Name, Market: string(inst.Market)}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("save instrument %s: %w", inst.Code, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, code string, kind core.PeriodKind) (core.Series, error) {
	query := `
	SELECT code, kind, ts, open, high, low, close, volume, turnover_rate
	FROM bars WHERE code = ? AND kind = ? ORDER BY ts`

	var rows []barRow
	if err := s.db.SelectContext(ctx, &rows, query, code, string(kind)); err != nil {
		return core.Series{}, core.WrapError(core.ErrStorageFailed, fmt.Errorf("load %s %s: %w", code, kind, err))
	}
	if len(rows) == 0 {
		return core.Series{}, core.WrapError(core.ErrNoData, fmt.Errorf("%s %s", code, kind))
	}

	out := core.Series{Code: code, Kind: kind, Bars: make([]core.Bar, len(rows))}
	for i, r := range rows {
		out.Bars[i] = core.Bar{
			Time:         time.Unix(r.TS, 0).UTC(),
			Open:         r.Open,
			High:         r.High,
			Low:          r.Low,
			Close:        r.Close,
			Volume:       r.Volume,
			TurnoverRate: r.TurnoverRate,
		}
	}
	return out, nil
}

// Save upserts bars in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, series core.Series) error {
	if len(series.Bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO bars (code, kind, ts, open, high, low, close, volume, turnover_rate)
	VALUES (:code, :kind, :ts, :open, :high, :low, :close, :volume, :turnover_rate)
	ON CONFLICT(code, kind, ts) DO UPDATE SET
		open = excluded.open, high = excluded.high, low = excluded.low,
		close = excluded.close, volume = excluded.volume,
		turnover_rate = excluded.turnover_rate`

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		_, err := stmt.ExecContext(ctx, barRow{
			Code:         series.Code,
			Kind:         string(series.Kind),
			TS:           b.Time.Unix(),
			Open:         b.Open,
			High:         b.High,
			Low:          b.Low,
			Close:        b.Close,
			Volume:       b.Volume,
			TurnoverRate: b.TurnoverRate,
		})
		if err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("save %s %s %s: %w", series.Code, series.Kind, b.Date(), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
