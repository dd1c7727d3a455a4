// Package status keeps the per-document outcome ledger of every run, so a
// paper missing from the output can be told apart as skipped, failed or lost
// with a crashed shard.
package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status is the outcome of one document in one run.
type Status string

const (
	Success    Status = "success"
	Skipped    Status = "skipped"
	Failed     Status = "failed"
	ShardCrash Status = "shard_crash"
)

// Record is one ledger row.
type Record struct {
	RunID     string
	Path      string
	PaperID   string
	Shard     int
	Status    Status
	Reason    string
	Detail    string
	UpdatedAt time.Time
}

// Run describes one dispatcher invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Files     int
	Workers   int
}

// Summary counts outcomes of a run.
type Summary struct {
	RunID   string
	Counts  map[Status]int
	Reasons map[string]int // skip and failure reasons
}

// Total is the number of documents with any status.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// fixed width so text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Ledger is the SQLite-backed status store. Several worker processes write
// to one file concurrently; WAL and a busy timeout serialize them.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for concurrent writers
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	return l.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	files INTEGER NOT NULL DEFAULT 0,
	workers INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS doc_status (
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	paper_id TEXT,
	shard INTEGER NOT NULL,
	status TEXT NOT NULL,
	reason TEXT,
	detail TEXT,
	updated_at TEXT NOT NULL,
	PRIMARY KEY(run_id, path)
);

CREATE INDEX IF NOT EXISTS idx_doc_status_paper ON doc_status(paper_id, status);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	return nil
}

// StartRun registers a run.
func (l *Ledger) StartRun(ctx context.Context, r Run) error {
	started := r.StartedAt
	if started.IsZero() {
		started = l.now()
	}
	const stmt = `
INSERT INTO runs (run_id, started_at, files, workers) VALUES (?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET files=excluded.files, workers=excluded.workers;
`
	_, err := l.db.ExecContext(ctx, stmt, r.ID, started.UTC().Format(timeLayout), r.Files, r.Workers)
	return err
}

// LatestRun returns the most recently started run.
func (l *Ledger) LatestRun(ctx context.Context) (Run, bool, error) {
	var (
		r       Run
		started string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, files, workers FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&r.ID, &started, &r.Files, &r.Workers)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	return r, true, nil
}

// Record upserts a document outcome.
func (l *Ledger) Record(ctx context.Context, r Record) error {
	if r.RunID == "" || r.Path == "" {
		return fmt.Errorf("status: run id and path required")
	}
	const stmt = `
INSERT INTO doc_status (run_id, path, paper_id, shard, status, reason, detail, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
	paper_id=excluded.paper_id,
	shard=excluded.shard,
	status=excluded.status,
	reason=excluded.reason,
	detail=excluded.detail,
	updated_at=excluded.updated_at;
`
	_, err := l.db.ExecContext(ctx, stmt,
		r.RunID, r.Path, r.PaperID, r.Shard, string(r.Status), r.Reason, r.Detail,
		l.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record status of %s: %w", r.Path, err)
	}
	return nil
}

// Get returns the record of path in run.
func (l *Ledger) Get(ctx context.Context, runID, path string) (Record, bool, error) {
	var (
		r                       Record
		paperID, reason, detail sql.NullString
		status, updated         string
	)
	err := l.db.QueryRowContext(ctx, `
SELECT run_id, path, paper_id, shard, status, reason, detail, updated_at
FROM doc_status WHERE run_id=? AND path=?`, runID, path,
	).Scan(&r.RunID, &r.Path, &paperID, &r.Shard, &status, &reason, &detail, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	r.PaperID, r.Reason, r.Detail = paperID.String, reason.String, detail.String
	r.Status = Status(status)
	r.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return r, true, nil
}

// MarkCrashed records shard_crash for every path of a failed shard that has
// no outcome yet. It returns how many rows were added.
func (l *Ledger) MarkCrashed(ctx context.Context, runID string, shard int, paths []string, detail string) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO doc_status (run_id, path, shard, status, detail, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := l.now().UTC().Format(timeLayout)
	added := 0
	for _, p := range paths {
		res, err := stmt.ExecContext(ctx, runID, p, shard, string(ShardCrash), detail, now)
		if err != nil {
			return 0, fmt.Errorf("mark %s crashed: %w", p, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Summary counts statuses and reasons of run.
func (l *Ledger) Summary(ctx context.Context, runID string) (Summary, error) {
	s := Summary{RunID: runID, Counts: map[Status]int{}, Reasons: map[string]int{}}
	rows, err := l.db.QueryContext(ctx, `
SELECT status, COALESCE(reason, ''), COUNT(*) FROM doc_status
WHERE run_id=? GROUP BY status, reason`, runID)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status, reason string
			n              int
		)
		if err := rows.Scan(&status, &reason, &n); err != nil {
			return s, err
		}
		s.Counts[Status(status)] += n
		if reason != "" {
			s.Reasons[reason] += n
		}
	}
	return s, rows.Err()
}

// Processed returns the sorted paper ids that succeeded in any run. It is
// the source for delta lists.
func (l *Ledger) Processed(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT paper_id FROM doc_status WHERE status=? AND paper_id IS NOT NULL AND paper_id != ''`,
		string(Success))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, rows.Err()
}
