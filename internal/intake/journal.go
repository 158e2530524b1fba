// Package intake keeps a journal of doses taken and skipped.
package intake

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event kinds.
const (
	KindTaken   = "taken"
	KindSkipped = "skipped"
)

// Event is one journal row.
type Event struct {
	ID         int64     `json:"id"`
	ReminderID string    `json:"reminder_id"`
	Medication string    `json:"medication"`
	Kind       string    `json:"kind"`
	At         time.Time `json:"at"`
}

// Adherence aggregates events for one reminder.
type Adherence struct {
	ReminderID string
	Medication string
	Taken      int
	Skipped    int
}

// Ratio is taken / (taken + skipped), or 1 with no events.
func (a Adherence) Ratio() float64 {
	total := a.Taken + a.Skipped
	if total == 0 {
		return 1
	}
	return float64(a.Taken) / float64(total)
}

// Journal provides SQLite-backed storage for dose events.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS doses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			reminder_id TEXT NOT NULL,
			medication  TEXT NOT NULL DEFAULT '',
			kind        TEXT NOT NULL,
			at          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS doses_reminder_at ON doses (reminder_id, at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an event and returns it with the assigned ID.
func (j *Journal) Record(ctx context.Context, e Event) (*Event, error) {
	if e.Kind != KindTaken && e.Kind != KindSkipped {
		return nil, fmt.Errorf("unknown dose kind %q", e.Kind)
	}
	if e.ReminderID == "" {
		return nil, fmt.Errorf("reminder id is required")
	}
	e.At = e.At.UTC()

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO doses (reminder_id, medication, kind, at) VALUES (?, ?, ?, ?)
	`, e.ReminderID, e.Medication, e.Kind, e.At.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to record dose: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	e.ID = id
	return &e, nil
}

// List returns the newest events for a reminder. limit <= 0 means no limit.
func (j *Journal) List(ctx context.Context, reminderID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, reminder_id, medication, kind, at
		FROM doses WHERE reminder_id = ? ORDER BY at DESC, id DESC LIMIT ?
	`, reminderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list doses: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var at string
		if err := rows.Scan(&e.ID, &e.ReminderID, &e.Medication, &e.Kind, &at); err != nil {
			return nil, fmt.Errorf("failed to scan dose: %w", err)
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Summary aggregates events at or after since, grouped by reminder.
func (j *Journal) Summary(ctx context.Context, since time.Time) ([]Adherence, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT reminder_id, MAX(medication),
			SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END)
		FROM doses WHERE at >= ?
		GROUP BY reminder_id ORDER BY MAX(medication), reminder_id
	`, KindTaken, KindSkipped, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize doses: %w", err)
	}
	defer rows.Close()

	var out []Adherence
	for rows.Next() {
		var a Adherence
		if err := rows.Scan(&a.ReminderID, &a.Medication, &a.Taken, &a.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteReminder drops the events of a deleted reminder.
func (j *Journal) DeleteReminder(ctx context.Context, reminderID string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM doses WHERE reminder_id = ?`, reminderID); err != nil {
		return fmt.Errorf("failed to delete doses: %w", err)
	}
	return nil
}
