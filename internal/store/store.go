// Package store keeps an in-memory SQLite journal of the rounds played in the
// current session. Nothing is written to disk.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tapgrid/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for round data.
type Store struct {
	db *sql.DB
}

// OpenMemory opens a private in-memory database and applies migrations.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every new connection to :memory: is a fresh, empty database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			session INTEGER NOT NULL,
			round INTEGER NOT NULL,
			targets TEXT NOT NULL,
			distractors TEXT NOT NULL,
			submitted TEXT NOT NULL,
			target_count INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			delta INTEGER NOT NULL,
			score INTEGER NOT NULL,
			latency_ms INTEGER,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session, round);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRound stores one evaluated round.
func (s *Store) RecordRound(ctx context.Context, rec model.RoundRecord) error {
	correct := 0
	if rec.Correct {
		correct = 1
	}
	latency := sql.NullInt64{Int64: rec.LatencyMs, Valid: rec.Measured}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (session, round, targets, distractors, submitted, target_count, correct, delta, score, latency_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(rec.Session),
		int64(rec.Round),
		encodeCells(rec.Targets),
		encodeCells(rec.Distractors),
		encodeCells(rec.Submitted),
		len(rec.Targets),
		correct,
		rec.Delta,
		rec.Score,
		latency,
		rec.At.Format(time.RFC3339Nano),
	)
	return err
}

// DiscardSession removes every round recorded for session.
func (s *Store) DiscardSession(ctx context.Context, session uint64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rounds WHERE session = ?`, int64(session))
	return err
}

// ListRounds returns the rounds of a session in play order.
func (s *Store) ListRounds(ctx context.Context, session uint64) ([]model.RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session, round, targets, distractors, submitted, correct, delta, score, latency_ms, at
		 FROM rounds
		 WHERE session = ?
		 ORDER BY round ASC, id ASC`, int64(session))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RoundRecord
	for rows.Next() {
		var (
			rec                             model.RoundRecord
			sessionID, round                int64
			targets, distractors, submitted string
			correct                         int
			latency                         sql.NullInt64
			at                              string
		)
		if err := rows.Scan(&sessionID, &round, &targets, &distractors, &submitted, &correct, &rec.Delta, &rec.Score, &latency, &at); err != nil {
			return nil, err
		}
		rec.LatencyMs = latency.Int64
		rec.Measured = latency.Valid
		rec.Session = uint64(sessionID)
		rec.Round = uint64(round)
		rec.Correct = correct != 0
		if rec.Targets, err = decodeCells(targets); err != nil {
			return nil, err
		}
		if rec.Distractors, err = decodeCells(distractors); err != nil {
			return nil, err
		}
		if rec.Submitted, err = decodeCells(submitted); err != nil {
			return nil, err
		}
		if rec.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListLatencies returns the measured latencies of a session in play order.
func (s *Store) ListLatencies(ctx context.Context, session uint64) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT latency_ms FROM rounds
		 WHERE session = ? AND latency_ms IS NOT NULL
		 ORDER BY round ASC, id ASC`, int64(session))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []float64
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		result = append(result, float64(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SessionSummary aggregates the rounds of a session.
func (s *Store) SessionSummary(ctx context.Context, session uint64) (model.SessionSummary, error) {
	summary := model.SessionSummary{Session: session}
	var (
		best  sql.NullInt64
		avg   sql.NullFloat64
		peak  sql.NullInt64
		right sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			SUM(correct),
			COUNT(latency_ms),
			MIN(latency_ms),
			AVG(latency_ms),
			MAX(target_count)
		 FROM rounds WHERE session = ?`, int64(session))
	if err := row.Scan(&summary.Rounds, &right, &summary.Measured, &best, &avg, &peak); err != nil {
		return model.SessionSummary{}, fmt.Errorf("failed to summarize session: %w", err)
	}
	summary.Correct = int(right.Int64)
	summary.Incorrect = summary.Rounds - summary.Correct
	summary.BestLatency = best.Int64
	summary.AvgLatency = avg.Float64
	summary.PeakTargets = int(peak.Int64)

	if summary.Rounds > 0 {
		err := s.db.QueryRowContext(ctx,
			`SELECT score FROM rounds WHERE session = ? ORDER BY round DESC, id DESC LIMIT 1`,
			int64(session)).Scan(&summary.FinalScore)
		if err != nil {
			return model.SessionSummary{}, fmt.Errorf("failed to read final score: %w", err)
		}
	}
	return summary, nil
}

func encodeCells(cells []model.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}

func decodeCells(value string) ([]model.Cell, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	cells := make([]model.Cell, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid cell %q: %w", part, err)
		}
		cells = append(cells, model.Cell(n))
	}
	return cells, nil
}
