// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists a merged collection in SQLite so citation keys can
// be resolved to their surviving record after the merge, and exports the
// stored collection as YAML, JSON or CSL-YAML.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// DefaultPath is used when the configuration names no database.
const DefaultPath = "bibmerge.db"

// ErrNotFound is returned when a key is not in the index.
var ErrNotFound = errors.New("key not found in index")

// Store manages the alias index database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the index database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.IndexConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT,
			author TEXT,
			doi TEXT,
			fields TEXT NOT NULL,
			source_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS aliases (
			alias TEXT PRIMARY KEY,
			primary_key TEXT NOT NULL REFERENCES records(key) ON DELETE CASCADE,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aliases_primary ON aliases(primary_key)`,
		`CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			sources TEXT NOT NULL,
			stats TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SourceInfo describes one input of a merge run.
type SourceInfo struct {
	Name    string    `json:"name" yaml:"name"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Entries int       `json:"entries" yaml:"entries"`
}

// Save replaces the stored collection with c and records the run. The
// replacement happens in one transaction.
func (s *Store) Save(ctx context.Context, c *merge.Collection, sources []types.Source) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM aliases`); err != nil {
		return fmt.Errorf("clearing aliases: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (key, position, type, title, author, doi, fields, source_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	aliasStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO aliases (alias, primary_key, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing alias insert: %w", err)
	}
	defer aliasStmt.Close()

	aliases := c.Aliases()
	for i, rec := range c.Records() {
		fieldsJSON, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encoding fields of %s: %w", rec.ID, err)
		}
		sourceTime := ""
		if t, ok := c.SourceTime(rec.ID); ok {
			sourceTime = t.UTC().Format(time.RFC3339Nano)
		}
		_, err = recStmt.ExecContext(ctx,
			rec.ID, i, rec.Type,
			rec.Get(types.FieldTitle), rec.Get(types.FieldAuthor), rec.Get(types.FieldDOI),
			string(fieldsJSON), sourceTime,
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
		for j, alias := range aliases[rec.ID] {
			if _, err := aliasStmt.ExecContext(ctx, alias, rec.ID, j); err != nil {
				return fmt.Errorf("inserting alias %s: %w", alias, err)
			}
		}
	}

	infos := make([]SourceInfo, len(sources))
	for i, src := range sources {
		infos[i] = SourceInfo{Name: src.Name, ModTime: src.ModTime, Entries: len(src.Entries)}
	}
	sourcesJSON, _ := json.Marshal(infos)
	statsJSON, _ := json.Marshal(c.Stats())
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, sources, stats) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), string(sourcesJSON), string(statsJSON),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	return tx.Commit()
}

// Resolution is the result of looking up a key in the index.
type Resolution struct {
	Key     string `json:"key" yaml:"key"`
	Primary string `json:"primary" yaml:"primary"`
	Alias   bool   `json:"alias" yaml:"alias"`
}

// Resolve maps key to its primary key. It returns ErrNotFound for keys the
// index has never seen.
func (s *Store) Resolve(ctx context.Context, key string) (Resolution, error) {
	var primary string
	err := s.db.QueryRowContext(ctx,
		`SELECT primary_key FROM aliases WHERE alias = ?`, key,
	).Scan(&primary)
	if err == nil {
		return Resolution{Key: key, Primary: primary, Alias: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Resolution{}, fmt.Errorf("querying alias %s: %w", key, err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM records WHERE key = ?`, key,
	).Scan(&n); err != nil {
		return Resolution{}, fmt.Errorf("querying record %s: %w", key, err)
	}
	if n == 0 {
		return Resolution{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return Resolution{Key: key, Primary: key}, nil
}

// StoredRecord is a record read back from the index.
type StoredRecord struct {
	types.Record
	Aliases    []string
	SourceTime time.Time
}

// Records returns every stored record in merge order, with its aliases.
func (s *Store) Records(ctx context.Context) ([]StoredRecord, error) {
	aliases, err := s.aliases(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, type, fields, source_time FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var (
			sr         StoredRecord
			fieldsJSON string
			sourceTime sql.NullString
		)
		if err := rows.Scan(&sr.ID, &sr.Type, &fieldsJSON, &sourceTime); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &sr.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", sr.ID, err)
		}
		if sourceTime.Valid && sourceTime.String != "" {
			sr.SourceTime, _ = time.Parse(time.RFC3339Nano, sourceTime.String)
		}
		sr.Aliases = aliases[sr.ID]
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *Store) aliases(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT alias, primary_key FROM aliases ORDER BY primary_key, position`)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var alias, primary string
		if err := rows.Scan(&alias, &primary); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		out[primary] = append(out[primary], alias)
	}
	return out, rows.Err()
}

// RunCount returns how many merge runs have been recorded.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}
