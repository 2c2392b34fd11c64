// Package history persists the historical daily aggregate feed: one row per
// calendar day with units consumed and the weather observed that day. The
// feed is assembled upstream (POS aggregation joined with weather history)
// and read by the forecast pipeline as an immutable ordered batch.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zkovac/bunplan/pkg/demand"
)

const dateLayout = "2006-01-02"

// Store wraps a SQLite database holding daily bun records.
type Store struct {
	db *sql.DB
}

// New creates a Store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bun_records (
			day            TEXT PRIMARY KEY,
			units_consumed INTEGER NOT NULL CHECK (units_consumed >= 0),
			temperature    REAL,
			precipitation  REAL CHECK (precipitation IS NULL OR precipitation >= 0)
		)
	`)
	if err != nil {
		return fmt.Errorf("create daily_bun_records: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the record for its day. Dates are unique; a
// re-aggregated day overwrites the previous row.
func (s *Store) Upsert(rec demand.DailyRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_bun_records (day, units_consumed, temperature, precipitation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			units_consumed = excluded.units_consumed,
			temperature = excluded.temperature,
			precipitation = excluded.precipitation
	`, rec.Date.Format(dateLayout), rec.UnitsConsumed, nullable(rec.Temperature), nullable(rec.Precipitation))
	if err != nil {
		return fmt.Errorf("upsert daily record %s: %w", rec.Date.Format(dateLayout), err)
	}
	return nil
}

// UpsertBatch writes many records in one transaction.
func (s *Store) UpsertBatch(records []demand.DailyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_bun_records (day, units_consumed, temperature, precipitation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			units_consumed = excluded.units_consumed,
			temperature = excluded.temperature,
			precipitation = excluded.precipitation
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.Date.Format(dateLayout), rec.UnitsConsumed,
			nullable(rec.Temperature), nullable(rec.Precipitation)); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// All returns every record ordered by day ascending.
func (s *Store) All() ([]demand.DailyRecord, error) {
	return s.query(`
		SELECT day, units_consumed, temperature, precipitation
		FROM daily_bun_records ORDER BY day
	`)
}

// Range returns records with start <= day <= end, ordered by day ascending.
func (s *Store) Range(start, end time.Time) ([]demand.DailyRecord, error) {
	return s.query(`
		SELECT day, units_consumed, temperature, precipitation
		FROM daily_bun_records WHERE day >= ? AND day <= ? ORDER BY day
	`, start.Format(dateLayout), end.Format(dateLayout))
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_bun_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count daily records: %w", err)
	}
	return n, nil
}

func (s *Store) query(q string, args ...any) ([]demand.DailyRecord, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily records: %w", err)
	}
	defer rows.Close()

	var out []demand.DailyRecord
	for rows.Next() {
		var (
			day    string
			units  int
			temp   sql.NullFloat64
			precip sql.NullFloat64
		)
		if err := rows.Scan(&day, &units, &temp, &precip); err != nil {
			return nil, fmt.Errorf("scan daily record: %w", err)
		}
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("bad day %q: %w", day, err)
		}

		rec := demand.DailyRecord{Date: date, UnitsConsumed: units}
		if temp.Valid {
			v := temp.Float64
			rec.Temperature = &v
		}
		if precip.Valid {
			v := precip.Float64
			rec.Precipitation = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
