package backend

import (
	"context"

	"salesdash/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is an opened backend. Writer is nil for read-only backends.
type Result struct {
	Reader  store.Reader
	Writer  store.Writer
	Cleanup CleanupFunc
}

// Close runs Cleanup when present.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory opens backends from configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

// Type names a record store backend.
type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
	Sheets   Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres, Sheets:
		return true
	default:
		return false
	}
}

// Writable reports whether the backend accepts imports.
func (t Type) Writable() bool {
	return t != Sheets
}
