// Package journal provides SQLite-based recording of function invocations
// and the boundary operations they issue. The journal is the replayable tape
// a verifying party uses to re-derive blob identifiers and check execution
// outcomes.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kraukis/substore/internal/models"
	"github.com/kraukis/substore/internal/sandbox"
)

// Journal is an append-only execution log.
type Journal struct {
	db *sql.DB
}

// Open creates a new journal connection.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Initialize creates the journal schema and settles invocations a crashed
// process left behind. Operations are inserted one by one as they are issued,
// so an interrupted invocation keeps its partial operation list; only its
// status changes.
func (j *Journal) Initialize() error {
	schema := `
	-- One row per function invocation
	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		program TEXT NOT NULL,
		function TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		result BLOB,
		error TEXT
	);

	-- Boundary operations, in issue order per invocation
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invocation_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		op TEXT NOT NULL,
		blob_id TEXT NOT NULL,
		requester TEXT NOT NULL,
		outcome TEXT NOT NULL,
		FOREIGN KEY (invocation_id) REFERENCES invocations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_invocation
		ON operations(invocation_id, seq);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize journal schema: %w", err)
	}

	// Entries still 'running' belong to a process that never finished them.
	if _, err := j.db.Exec(
		`UPDATE invocations SET status = 'fault', error = 'interrupted' WHERE status = 'running'`,
	); err != nil {
		return fmt.Errorf("settle interrupted invocations: %w", err)
	}
	return nil
}

// Begin opens a tape entry for one invocation.
func (j *Journal) Begin(program models.BlobID, function string) (*Invocation, error) {
	res, err := j.db.Exec(
		`INSERT INTO invocations (program, function) VALUES (?, ?)`,
		program.String(), function,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invocation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("invocation id: %w", err)
	}
	return &Invocation{j: j, id: id}, nil
}

// Invocation is one open tape entry.
type Invocation struct {
	j  *Journal
	id int64

	mu   sync.Mutex
	seq  int
	fail error
}

// ID returns the journal row id of the invocation.
func (inv *Invocation) ID() int64 {
	return inv.id
}

// RecordOp appends one boundary operation to the tape. A recording failure
// is retained and surfaced by Finish rather than interrupting the function.
func (inv *Invocation) RecordOp(op sandbox.Op) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	outcome := "ok"
	if op.Err != nil {
		outcome = op.Err.Error()
	}

	_, err := inv.j.db.Exec(
		`INSERT INTO operations (invocation_id, seq, op, blob_id, requester, outcome)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.id, inv.seq, op.Name, op.Blob.String(), op.Requester.String(), outcome,
	)
	if err != nil && inv.fail == nil {
		inv.fail = fmt.Errorf("record operation %d: %w", inv.seq, err)
	}
	inv.seq++
}

// Finish closes the tape entry with the invocation outcome.
func (inv *Invocation) Finish(result []byte, invokeErr error) error {
	status := "ok"
	errText := ""
	if invokeErr != nil {
		status = "fault"
		errText = invokeErr.Error()
	}

	_, err := inv.j.db.Exec(
		`UPDATE invocations SET status = ?, result = ?, error = ? WHERE id = ?`,
		status, result, errText, inv.id,
	)
	if err != nil {
		return fmt.Errorf("finish invocation %d: %w", inv.id, err)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.fail
}

// InvocationRecord is a completed or running invocation row.
type InvocationRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Program   string    `json:"program"`
	Function  string    `json:"function"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// OpRecord is one recorded boundary operation.
type OpRecord struct {
	InvocationID int64  `json:"invocation_id"`
	Seq          int    `json:"seq"`
	Op           string `json:"op"`
	BlobID       string `json:"blob_id"`
	Requester    string `json:"requester"`
	Outcome      string `json:"outcome"`
}

// Invocations returns the most recent invocations, newest first. limit <= 0
// returns all.
func (j *Journal) Invocations(limit int) ([]*InvocationRecord, error) {
	query := `SELECT id, timestamp, program, function, status, COALESCE(error, '')
		FROM invocations ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var records []*InvocationRecord
	for rows.Next() {
		rec := &InvocationRecord{}
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Program, &rec.Function, &rec.Status, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Operations returns the operations of one invocation in issue order.
func (j *Journal) Operations(invocationID int64) ([]*OpRecord, error) {
	rows, err := j.db.Query(
		`SELECT invocation_id, seq, op, blob_id, requester, outcome
		 FROM operations WHERE invocation_id = ? ORDER BY seq`,
		invocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var records []*OpRecord
	for rows.Next() {
		rec := &OpRecord{}
		if err := rows.Scan(&rec.InvocationID, &rec.Seq, &rec.Op, &rec.BlobID, &rec.Requester, &rec.Outcome); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
