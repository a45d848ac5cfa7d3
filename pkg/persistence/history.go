package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/beeresearch/atomconnect-go/pkg/discovery"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// HistoryFileName is the SQLite database inside the data directory.
const HistoryFileName = "history.db"

// ErrUnknownSession is returned when a sample or end marker refers to a
// session that was never begun.
var ErrUnknownSession = errors.New("unknown session")

// SessionSummary describes one archived session.
type SessionSummary struct {
	ID        string
	Address   string
	Name      string
	StartedAt time.Time
	EndedAt   time.Time // zero while the session is open
	EndReason string
	Samples   int
	MaxCounts uint64
}

// HistoryStore archives every session and its samples in SQLite.
// Per-session counters restart at zero; LifetimeCounts adds them up.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistoryStore opens or creates the database at path.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open history: %w", ErrPersistence, err)
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id                TEXT PRIMARY KEY,
			address           TEXT NOT NULL,
			name              TEXT,
			started_at        BIGINT NOT NULL,
			ended_at          BIGINT,
			end_reason        TEXT
		);
		CREATE TABLE IF NOT EXISTS samples (
			session_id        TEXT NOT NULL,
			ts                BIGINT NOT NULL,
			total_counts      BIGINT NOT NULL,
			cps               DOUBLE,
			dose              DOUBLE,
			rate              DOUBLE,
			battery           INTEGER,
			temp              INTEGER,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
		CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id, ts);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create history schema: %w", ErrPersistence, err)
	}

	return &HistoryStore{db: db}, nil
}

// Close closes the database.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// BeginSession records the start of a connection session.
func (h *HistoryStore) BeginSession(id string, device discovery.Device, startedAt time.Time) error {
	_, err := h.db.Exec(
		`INSERT INTO sessions (id, address, name, started_at) VALUES (?, ?, ?, ?)`,
		id, device.Address.String(), device.Name, startedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: begin session: %w", ErrPersistence, err)
	}
	return nil
}

// RecordSample archives one sample for session id.
func (h *HistoryStore) RecordSample(id string, s reading.Sample) error {
	_, err := h.db.Exec(
		`INSERT INTO samples (
			session_id, ts, total_counts, cps, dose, rate, battery, temp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.Timestamp.UnixNano(), int64(s.TotalCounts), s.CPS,
		float64(s.Dose), float64(s.DoseRate), int(s.Battery), int(s.TemperatureC),
	)
	if err != nil {
		return fmt.Errorf("%w: record sample: %w", ErrPersistence, err)
	}
	return nil
}

// EndSession marks session id as finished.
func (h *HistoryStore) EndSession(id string, endedAt time.Time, reason string) error {
	res, err := h.db.Exec(
		`UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ?`,
		endedAt.UnixNano(), reason, id,
	)
	if err != nil {
		return fmt.Errorf("%w: end session: %w", ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: end session: %w", ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return nil
}

// Sessions lists archived sessions, newest first.
func (h *HistoryStore) Sessions() ([]SessionSummary, error) {
	rows, err := h.db.Query(`
		SELECT s.id, s.address, COALESCE(s.name, ''), s.started_at,
			COALESCE(s.ended_at, 0), COALESCE(s.end_reason, ''),
			COUNT(p.ts), COALESCE(MAX(p.total_counts), 0)
		FROM sessions s
		LEFT JOIN samples p ON p.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum            SessionSummary
			started, ended int64
			maxCounts      int64
		)
		if err := rows.Scan(&sum.ID, &sum.Address, &sum.Name, &started, &ended,
			&sum.EndReason, &sum.Samples, &maxCounts); err != nil {
			return nil, err
		}
		sum.StartedAt = time.Unix(0, started)
		if ended != 0 {
			sum.EndedAt = time.Unix(0, ended)
		}
		sum.MaxCounts = uint64(maxCounts)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SessionSamples returns the samples of session id in arrival order.
func (h *HistoryStore) SessionSamples(id string) ([]reading.Sample, error) {
	rows, err := h.db.Query(`
		SELECT ts, total_counts, cps, dose, rate, battery, temp
		FROM samples WHERE session_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reading.Sample
	for rows.Next() {
		var (
			ts, total     int64
			cps           float64
			dose, rate    sql.NullFloat64
			battery, temp int
		)
		if err := rows.Scan(&ts, &total, &cps, &dose, &rate, &battery, &temp); err != nil {
			return nil, err
		}
		out = append(out, reading.Sample{
			Timestamp:    time.Unix(0, ts),
			TotalCounts:  uint64(total),
			CPS:          cps,
			Dose:         storedFloat(dose),
			DoseRate:     storedFloat(rate),
			Battery:      uint8(battery),
			TemperatureC: int8(temp),
		})
	}
	return out, rows.Err()
}

// LifetimeCounts sums the final cumulative count of every session recorded
// for address.
func (h *HistoryStore) LifetimeCounts(address string) (uint64, error) {
	var total int64
	err := h.db.QueryRow(`
		SELECT COALESCE(SUM(final), 0) FROM (
			SELECT MAX(p.total_counts) AS final
			FROM sessions s
			JOIN samples p ON p.session_id = s.id
			WHERE s.address = ?
			GROUP BY s.id
		)
	`, address).Scan(&total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

// storedFloat maps a NULL column back to NaN; SQLite stores NaN as NULL.
func storedFloat(v sql.NullFloat64) float32 {
	if !v.Valid {
		return float32(math.NaN())
	}
	return float32(v.Float64)
}
