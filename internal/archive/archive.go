// Package archive stores computed chart snapshots in a local SQLite
// database so they can be listed and shown again without recomputation.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/astrolabe/internal/chart"
)

// ErrNotFound is returned when no saved chart matches the requested ID or
// fingerprint.
var ErrNotFound = errors.New("chart not found in archive")

const schema = `
CREATE TABLE IF NOT EXISTS charts (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL DEFAULT '',
    fingerprint  TEXT NOT NULL,
    julian_day   REAL NOT NULL,
    house_system TEXT NOT NULL,
    saved_at     TIMESTAMP NOT NULL,
    snapshot     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS charts_fingerprint ON charts (fingerprint);
`

// Entry is the listing view of a saved chart.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	JulianDay   float64   `json:"julian_day"`
	HouseSystem string    `json:"house_system"`
	SavedAt     time.Time `json:"saved_at"`
}

// Record is a saved chart with its snapshot.
type Record struct {
	Entry
	Snapshot chart.Snapshot `json:"snapshot"`
}

// Store is a SQLite-backed chart archive.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the archive at path, enables WAL mode and a busy
// timeout, and creates the schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection keeps the pragmas
	// below in effect for every statement.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: initialise database: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores snap under a fresh ID and returns its entry. fingerprint
// identifies the inputs that produced the snapshot.
func (s *Store) Save(ctx context.Context, name, fingerprint string, snap *chart.Snapshot) (Entry, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return Entry{}, fmt.Errorf("archive: encode snapshot: %w", err)
	}
	e := Entry{
		ID:          uuid.NewString(),
		Name:        name,
		Fingerprint: fingerprint,
		JulianDay:   snap.JulianDay,
		HouseSystem: snap.HouseSystem.String(),
		SavedAt:     s.now().UTC(),
	}
	const q = `
		INSERT INTO charts (id, name, fingerprint, julian_day, house_system, saved_at, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		e.ID, e.Name, e.Fingerprint, e.JulianDay, e.HouseSystem, e.SavedAt, string(data)); err != nil {
		return Entry{}, fmt.Errorf("archive: save %q: %w", name, err)
	}
	return e, nil
}

// Get returns the chart saved under id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return s.getOne(ctx, "WHERE id = ?", id)
}

// FindByFingerprint returns the most recently saved chart computed from the
// same inputs.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (Record, error) {
	return s.getOne(ctx, "WHERE fingerprint = ? ORDER BY saved_at DESC LIMIT 1", fingerprint)
}

func (s *Store) getOne(ctx context.Context, where string, arg string) (Record, error) {
	q := `SELECT id, name, fingerprint, julian_day, house_system, saved_at, snapshot FROM charts ` + where
	var (
		r    Record
		data string
	)
	err := s.db.QueryRowContext(ctx, q, arg).Scan(
		&r.ID, &r.Name, &r.Fingerprint, &r.JulianDay, &r.HouseSystem, &r.SavedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return Record{}, fmt.Errorf("archive: get %s: %w", arg, err)
	}
	if err := json.Unmarshal([]byte(data), &r.Snapshot); err != nil {
		return Record{}, fmt.Errorf("archive: decode snapshot %s: %w", r.ID, err)
	}
	return r, nil
}

// List returns every saved chart, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	const q = `
		SELECT id, name, fingerprint, julian_day, house_system, saved_at
		FROM charts ORDER BY saved_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Fingerprint, &e.JulianDay, &e.HouseSystem, &e.SavedAt); err != nil {
			return nil, fmt.Errorf("archive: scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return out, nil
}

// Delete removes the chart saved under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM charts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("archive: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
