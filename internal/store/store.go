// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists presence matrices and their labels in a SQLite
// dataset database, one run per pipeline invocation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

const (
	exportDir = "export"
	dbFile    = "dataset.db"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Store manages the dataset SQLite database.
type Store struct {
	db         *sql.DB
	datasetDir string
}

// RunInfo describes one stored run.
type RunInfo struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Source    string    `json:"source" yaml:"source"`
	Strains   int       `json:"strains" yaml:"strains"`
	Genes     int       `json:"genes" yaml:"genes"`
}

// NewStore opens or creates the dataset database at
// datasetDir/dataset.db and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.DatasetDir
	if dir == "" {
		dir = types.DefaultDatasetDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, datasetDir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT,
			strains INTEGER NOT NULL,
			genes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS strains (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			dr_status TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS genes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS presence (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			strain_pos INTEGER NOT NULL,
			gene_pos INTEGER NOT NULL,
			PRIMARY KEY (run_id, strain_pos, gene_pos)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strains_name ON strains(name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores lm under a new run ID and returns the ID. Only present
// cells are stored; every other cell reads back as 0.
func (s *Store) SaveRun(ctx context.Context, lm types.LabeledMatrix, source string) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, strains, genes) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), source, len(lm.Rows), len(lm.Columns),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	geneStmt, err := tx.PrepareContext(ctx, `INSERT INTO genes (run_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing gene insert: %w", err)
	}
	defer geneStmt.Close()
	for j, gene := range lm.Columns {
		if _, err := geneStmt.ExecContext(ctx, runID, j, gene); err != nil {
			return "", fmt.Errorf("inserting gene %s: %w", gene, err)
		}
	}

	strainStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO strains (run_id, position, name, dr_status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing strain insert: %w", err)
	}
	defer strainStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO presence (run_id, strain_pos, gene_pos) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing presence insert: %w", err)
	}
	defer cellStmt.Close()

	for i, strain := range lm.Rows {
		var status sql.NullString
		if label, ok := lm.Label(i); ok {
			status = sql.NullString{String: string(label), Valid: true}
		}
		if _, err := strainStmt.ExecContext(ctx, runID, i, strain, status); err != nil {
			return "", fmt.Errorf("inserting strain %s: %w", strain, err)
		}
		for j, v := range lm.Cells[i] {
			if v != 1 {
				continue
			}
			if _, err := cellStmt.ExecContext(ctx, runID, i, j); err != nil {
				return "", fmt.Errorf("inserting cell (%s, %s): %w", strain, lm.Columns[j], err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Run returns the metadata of one run.
func (s *Store) Run(ctx context.Context, runID string) (RunInfo, error) {
	var (
		info    RunInfo
		created string
		source  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, strains, genes FROM runs WHERE id = ?`, runID,
	).Scan(&info.ID, &created, &source, &info.Strains, &info.Genes)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("querying run: %w", err)
	}
	info.Source = source.String
	info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return info, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, strains, genes FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			created string
			source  sql.NullString
		)
		if err := rows.Scan(&info.ID, &created, &source, &info.Strains, &info.Genes); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		info.Source = source.String
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// LatestRun returns the ID of the most recent run.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: dataset is empty", ErrRunNotFound)
	}
	return runs[0].ID, nil
}

// LoadRun reads a stored run back as a dense labeled matrix.
func (s *Store) LoadRun(ctx context.Context, runID string) (types.LabeledMatrix, error) {
	info, err := s.Run(ctx, runID)
	if err != nil {
		return types.LabeledMatrix{}, err
	}

	lm := types.LabeledMatrix{
		PresenceMatrix: types.PresenceMatrix{
			Rows:    make([]string, info.Strains),
			Columns: make([]string, info.Genes),
			Cells:   make([][]uint8, info.Strains),
		},
		DRStatus: make([]*types.ResistanceLabel, info.Strains),
	}
	for i := range lm.Cells {
		lm.Cells[i] = make([]uint8, info.Genes)
	}

	geneRows, err := s.db.QueryContext(ctx, `SELECT position, name FROM genes WHERE run_id = ?`, runID)
	if err != nil {
		return types.LabeledMatrix{}, fmt.Errorf("querying genes: %w", err)
	}
	defer geneRows.Close()
	for geneRows.Next() {
		var (
			pos  int
			name string
		)
		if err := geneRows.Scan(&pos, &name); err != nil {
			return types.LabeledMatrix{}, fmt.Errorf("scanning gene: %w", err)
		}
		lm.Columns[pos] = name
	}
	if err := geneRows.Err(); err != nil {
		return types.LabeledMatrix{}, err
	}

	strainRows, err := s.db.QueryContext(ctx, `SELECT position, name, dr_status FROM strains WHERE run_id = ?`, runID)
	if err != nil {
		return types.LabeledMatrix{}, fmt.Errorf("querying strains: %w", err)
	}
	defer strainRows.Close()
	for strainRows.Next() {
		var (
			pos    int
			name   string
			status sql.NullString
		)
		if err := strainRows.Scan(&pos, &name, &status); err != nil {
			return types.LabeledMatrix{}, fmt.Errorf("scanning strain: %w", err)
		}
		lm.Rows[pos] = name
		if status.Valid {
			label := types.ResistanceLabel(status.String)
			lm.DRStatus[pos] = &label
		}
	}
	if err := strainRows.Err(); err != nil {
		return types.LabeledMatrix{}, err
	}

	cellRows, err := s.db.QueryContext(ctx, `SELECT strain_pos, gene_pos FROM presence WHERE run_id = ?`, runID)
	if err != nil {
		return types.LabeledMatrix{}, fmt.Errorf("querying presence: %w", err)
	}
	defer cellRows.Close()
	for cellRows.Next() {
		var i, j int
		if err := cellRows.Scan(&i, &j); err != nil {
			return types.LabeledMatrix{}, fmt.Errorf("scanning presence: %w", err)
		}
		lm.Cells[i][j] = 1
	}
	return lm, cellRows.Err()
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
