// Package store keeps an index of finished runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lightning/internal/core"
	"lightning/internal/sim"
)

// ErrNotFound reports an unknown run id.
var ErrNotFound = errors.New("store: run not found")

// Run is one indexed run.
type Run struct {
	ID        int64       `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Config    sim.Config  `json:"config"`
	Outcome   sim.Outcome `json:"outcome"`
	// Archive is the frame archive path, if one was written.
	Archive string `json:"archive,omitempty"`
}

// Index is a SQLite-backed run index.
type Index struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the index at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db, now: time.Now}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			mode TEXT NOT NULL,
			policy TEXT NOT NULL,
			reason TEXT NOT NULL,
			landed INTEGER NOT NULL,
			rounds INTEGER NOT NULL,
			sweeps INTEGER NOT NULL,
			path_length INTEGER NOT NULL,
			cap_reached INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			archive TEXT NOT NULL DEFAULT '',
			config_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_seed ON runs(seed);`,
		`CREATE TABLE IF NOT EXISTS path_cells (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (ix *Index) Close() error { return ix.db.Close() }

// SaveRun stores a finished run and its path, returning the new run id.
func (ix *Index) SaveRun(ctx context.Context, cfg sim.Config, out sim.Outcome, path []core.Coord, archive string) (int64, error) {
	cj, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encode config: %w", err)
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs
		(created_at, seed, width, height, depth, mode, policy, reason, landed, rounds, sweeps, path_length, cap_reached, elapsed_ms, error, archive, config_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ix.now().UTC().Format(time.RFC3339Nano), out.Seed, cfg.Width, cfg.Height, cfg.Depth,
		string(cfg.Mode), string(cfg.Growth.Policy), string(out.Reason), boolInt(out.Landed),
		out.Rounds, out.Sweeps, out.PathLength, boolInt(out.CapReached), out.Elapsed.Milliseconds(),
		out.Error, archive, string(cj))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO path_cells (run_id, seq, x, y, z) VALUES (?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, c := range path {
		if _, err := stmt.ExecContext(ctx, id, i, c.X, c.Y, c.Z); err != nil {
			return 0, fmt.Errorf("insert path cell: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const runColumns = `id, created_at, seed, reason, landed, rounds, sweeps, path_length, cap_reached, elapsed_ms, error, archive, config_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                    Run
		created, cj          string
		landed, capped       int
		elapsedMS            int64
		reason, errText, arc string
	)
	if err := s.Scan(&r.ID, &created, &r.Outcome.Seed, &reason, &landed, &r.Outcome.Rounds, &r.Outcome.Sweeps,
		&r.Outcome.PathLength, &capped, &elapsedMS, &errText, &arc, &cj); err != nil {
		return r, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return r, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(cj), &r.Config); err != nil {
		return r, fmt.Errorf("decode config: %w", err)
	}
	r.CreatedAt = t
	r.Outcome.Reason = sim.Reason(reason)
	r.Outcome.Landed = landed != 0
	r.Outcome.CapReached = capped != 0
	r.Outcome.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	r.Outcome.Error = errText
	r.Archive = arc
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (ix *Index) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := ix.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run loads one run by id.
func (ix *Index) Run(ctx context.Context, id int64) (Run, error) {
	row := ix.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r, err
}

// Path loads the acquisition-ordered path of a run.
func (ix *Index) Path(ctx context.Context, id int64) ([]core.Coord, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT x, y, z FROM path_cells WHERE run_id=? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var path []core.Coord
	for rows.Next() {
		var c core.Coord
		if err := rows.Scan(&c.X, &c.Y, &c.Z); err != nil {
			return nil, err
		}
		path = append(path, c)
	}
	return path, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
