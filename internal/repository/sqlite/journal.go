// Package sqlite keeps a local append-only journal of ledger events.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// Journal stores ledger events in a SQLite file.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite journal: %w", err)
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	statements := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS ledger_events (
			seq INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			from_addr TEXT NOT NULL DEFAULT '',
			to_addr TEXT NOT NULL DEFAULT '',
			ant_id INTEGER NOT NULL DEFAULT 0,
			amount TEXT NOT NULL DEFAULT '0',
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_events_ant ON ledger_events(ant_id);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvent inserts the event; an already journaled sequence is ignored.
func (j *Journal) RecordEvent(ctx context.Context, event models.LedgerEvent) error {
	// amount is a base-10 wei string; empty means the event carries none
	var amount string
	if event.Amount != nil {
		amount = event.Amount.String()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ledger_events (seq, kind, from_addr, to_addr, ant_id, amount, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(event.Seq),
		string(event.Kind),
		string(event.From),
		string(event.To),
		int64(event.AntID),
		amount,
		event.OccurredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert ledger event %d: %w", event.Seq, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]models.LedgerEvent, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, kind, from_addr, to_addr, ant_id, amount, occurred_at
		 FROM ledger_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEvent
	for rows.Next() {
		var (
			seq, antID       int64
			kind, from, to   string
			amount, occurred string
		)
		if err := rows.Scan(&seq, &kind, &from, &to, &antID, &amount, &occurred); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, occurred)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		event := models.LedgerEvent{
			Seq:        uint64(seq),
			Kind:       models.EventKind(kind),
			From:       models.Address(from),
			To:         models.Address(to),
			AntID:      models.AntID(antID),
			OccurredAt: at,
		}
		if amount != "" {
			if event.Amount, err = currency.ParseWei(amount); err != nil {
				return nil, fmt.Errorf("parse amount %q: %w", amount, err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
