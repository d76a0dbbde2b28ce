package bus

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petal-labs/appcore/event"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteJournalConfig configures the SQLite journal.
type SQLiteJournalConfig struct {
	// DSN is the database connection string.
	DSN string

	// RetentionAge deletes records older than this duration (0 = no age pruning).
	RetentionAge time.Duration

	// RetentionCount keeps at most this many records (0 = no count pruning).
	RetentionCount int

	// PruneInterval is how often to run pruning (default 1 hour).
	PruneInterval time.Duration
}

// SQLiteJournal persists event records to a SQLite database. It satisfies
// the Journal interface and supports WAL mode for concurrent read access
// and a background pruner goroutine.
type SQLiteJournal struct {
	db   *sql.DB
	cfg  SQLiteJournalConfig
	stop chan struct{}
	done chan struct{}
}

// NewSQLiteJournal opens (or creates) a SQLite journal.
func NewSQLiteJournal(cfg SQLiteJournalConfig) (*SQLiteJournal, error) {
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = time.Hour
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: open: %w", err)
	}

	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitejournal: set WAL mode: %w", err)
	}

	// Create schema.
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitejournal: create schema: %w", err)
	}

	j := &SQLiteJournal{
		db:   db,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// Start background pruner if any retention is configured.
	if cfg.RetentionAge > 0 || cfg.RetentionCount > 0 {
		go j.pruneLoop()
	} else {
		close(j.done)
	}

	return j, nil
}

// Append stores a record in the database.
func (j *SQLiteJournal) Append(ctx context.Context, rec event.Record) error {
	payload := rec.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sqlitejournal: marshal payload: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO events (seq, kind, time, payload) VALUES (?, ?, ?, ?)`,
		rec.Seq,
		string(rec.Kind),
		rec.Time.Format(time.RFC3339Nano),
		string(payloadJSON),
	)
	if err != nil {
		return fmt.Errorf("sqlitejournal: append: %w", err)
	}
	return nil
}

// List returns records in sequence order, optionally filtered by afterSeq
// and limit.
func (j *SQLiteJournal) List(ctx context.Context, afterSeq uint64, limit int) ([]event.Record, error) {
	query := `SELECT seq, kind, time, payload FROM events WHERE seq > ? ORDER BY seq ASC`
	args := []any{afterSeq}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: list: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LatestSeq returns the highest stored Seq (0 if the journal is empty).
func (j *SQLiteJournal) LatestSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sqlitejournal: latest seq: %w", err)
	}
	if !seq.Valid || seq.Int64 < 0 {
		return 0, nil
	}
	return uint64(seq.Int64), nil // #nosec G115 -- seq is always non-negative
}

// Close stops the background pruner and closes the database connection.
func (j *SQLiteJournal) Close() error {
	select {
	case <-j.stop:
		// Already closed.
	default:
		close(j.stop)
	}
	<-j.done
	return j.db.Close()
}

// Prune runs a single pruning pass. Exported for testing.
func (j *SQLiteJournal) Prune(ctx context.Context) error {
	if j.cfg.RetentionAge > 0 {
		cutoff := time.Now().Add(-j.cfg.RetentionAge).Format(time.RFC3339Nano)
		if _, err := j.db.ExecContext(ctx,
			`DELETE FROM events WHERE time < ?`, cutoff,
		); err != nil {
			return fmt.Errorf("sqlitejournal: prune by age: %w", err)
		}
	}

	if j.cfg.RetentionCount > 0 {
		if _, err := j.db.ExecContext(ctx,
			`DELETE FROM events WHERE id NOT IN (
				SELECT id FROM events ORDER BY seq DESC LIMIT ?
			)`, j.cfg.RetentionCount,
		); err != nil {
			return fmt.Errorf("sqlitejournal: prune by count: %w", err)
		}
	}

	return nil
}

func (j *SQLiteJournal) pruneLoop() {
	defer close(j.done)

	ticker := time.NewTicker(j.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			_ = j.Prune(context.Background())
		}
	}
}

func scanRecords(rows *sql.Rows) ([]event.Record, error) {
	var records []event.Record
	for rows.Next() {
		var (
			rec         event.Record
			kind        string
			timeStr     string
			payloadJSON string
		)
		if err := rows.Scan(&rec.Seq, &kind, &timeStr, &payloadJSON); err != nil {
			return nil, fmt.Errorf("sqlitejournal: scan record: %w", err)
		}

		rec.Kind = event.Kind(kind)

		t, err := time.Parse(time.RFC3339Nano, timeStr)
		if err != nil {
			return nil, fmt.Errorf("sqlitejournal: parse time %q: %w", timeStr, err)
		}
		rec.Time = t

		if payloadJSON != "" && payloadJSON != "{}" {
			if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
				return nil, fmt.Errorf("sqlitejournal: unmarshal payload: %w", err)
			}
		} else {
			rec.Payload = map[string]any{}
		}

		records = append(records, rec)
	}
	return records, rows.Err()
}

// Compile-time interface check.
var _ Journal = (*SQLiteJournal)(nil)
