// Package journal provides a SQLite-backed record of block decisions.
//
// The journal is write-only from the engine's point of view: rows feed
// the status, sessions, and watch commands but never influence a
// decision. A journal failure inside a hook is logged and swallowed so
// the decision still goes out.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/cgate/internal/trigger"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Entry is one recorded block decision.
type Entry struct {
	ID        string
	SessionID string
	HookEvent string
	Trigger   trigger.Type
	// Percent, Consumed, and Capacity are zero for non-usage triggers.
	Percent   int
	Consumed  int64
	Capacity  int64
	Reason    string
	CreatedAt time.Time
}

// Journal is an open firing journal database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one firing. A missing ID gets a fresh UUID and a zero
// CreatedAt gets the current time.
func (j *Journal) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := j.db.Exec(`INSERT INTO firings
		(id, session_id, hook_event, trigger_type, percent, consumed, capacity, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.HookEvent, string(e.Trigger),
		e.Percent, e.Consumed, e.Capacity, e.Reason,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording firing: %w", err)
	}
	return nil
}

// Recent returns the newest firings, newest first, at most limit rows.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.Query(`SELECT
		id, session_id, hook_event, trigger_type, percent, consumed, capacity, reason, created_at
		FROM firings ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var triggerStr, createdStr string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.HookEvent, &triggerStr,
			&e.Percent, &e.Consumed, &e.Capacity, &e.Reason, &createdStr); err != nil {
			return nil, err
		}
		e.Trigger = trigger.Type(triggerStr)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountBySession returns the number of recorded firings per session.
func (j *Journal) CountBySession() (map[string]int, error) {
	rows, err := j.db.Query("SELECT session_id, COUNT(*) FROM firings GROUP BY session_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var sid string
		var n int
		if err := rows.Scan(&sid, &n); err != nil {
			return nil, err
		}
		counts[sid] = n
	}
	return counts, rows.Err()
}

// CountOlderThan returns how many firings predate cutoff, without
// deleting them. Backs `prune --dry-run`.
func (j *Journal) CountOlderThan(cutoff time.Time) (int, error) {
	var n int
	err := j.db.QueryRow("SELECT COUNT(*) FROM firings WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339)).Scan(&n)
	return n, err
}

// Prune deletes firings older than cutoff and returns how many rows
// were removed.
func (j *Journal) Prune(cutoff time.Time) (int64, error) {
	res, err := j.db.Exec("DELETE FROM firings WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}
