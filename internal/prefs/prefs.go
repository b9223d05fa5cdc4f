package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultHost is used when no host has been stored yet.
const DefaultHost = "localhost"

var ErrNotFound = errors.New("preferences not found")

// Prefs are the operator settings kept between runs.
type Prefs struct {
	ServerHost string `json:"server_host"`
}

// Store persists Prefs for one application identity.
type Store interface {
	Load(ctx context.Context) (*Prefs, error)
	Save(ctx context.Context, p *Prefs) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend. An empty path puts the store under
// ~/.navpanel/<app>/.
func Open(backend, app, path string) (Store, error) {
	if app == "" {
		return nil, errors.New("application id is required")
	}
	switch backend {
	case "", BackendFile:
		if path == "" {
			dir, err := appDir(app)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "prefs.json")
		}
		return NewFileStore(path), nil
	case BackendSQLite:
		if path == "" {
			dir, err := appDir(app)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "prefs.db")
		}
		return NewSQLiteStore(path, app)
	default:
		return nil, fmt.Errorf("unknown preferences backend %q", backend)
	}
}

// ServerHost loads the stored host, falling back to DefaultHost when nothing is
// stored or the store cannot be read.
func ServerHost(ctx context.Context, s Store) string {
	if s == nil {
		return DefaultHost
	}
	p, err := s.Load(ctx)
	if err != nil || p.ServerHost == "" {
		return DefaultHost
	}
	return p.ServerHost
}

// RememberHost stores host as the last used server.
func RememberHost(ctx context.Context, s Store, host string) error {
	p, err := s.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		p = &Prefs{}
	}
	p.ServerHost = host
	return s.Save(ctx, p)
}

func appDir(app string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".navpanel", app), nil
}
