package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

const keyServerHost = "server_host"

// SQLiteStore keeps Prefs as key/value rows in a preferences table, one set of rows
// per application id.
type SQLiteStore struct {
	db  *sql.DB
	app string
}

func NewSQLiteStore(path, app string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}
	// one connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, app: app}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			app   TEXT NOT NULL,
			key   TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (app, key)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Prefs, error) {
	var host string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE app = ? AND key = ?",
		s.app, keyServerHost,
	).Scan(&host)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	return &Prefs{ServerHost: host}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p *Prefs) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (app, key, value) VALUES (?, ?, ?)
		ON CONFLICT(app, key) DO UPDATE SET value = excluded.value`,
		s.app, keyServerHost, p.ServerHost,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
