package backend

import (
	"context"
	"fmt"

	"salesdash/internal/log"
	"salesdash/internal/storage"
	"salesdash/internal/storage/postgres"
	"salesdash/internal/store/memory"
	"salesdash/internal/store/sheets"
)

// DefaultFactory opens the four built-in backends.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open implements Factory.
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case Memory:
		return f.openMemory(config)
	case SQLite:
		return f.openSQLite(config)
	case Postgres:
		return f.openPostgres(ctx, config)
	case Sheets:
		return f.openSheets(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openMemory(config Config) (*Result, error) {
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", log.FieldSource, config.SeedFile, log.FieldCount, st.Len())

	return &Result{Reader: st, Writer: st}, nil
}

func (f *DefaultFactory) openSQLite(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{Reader: repo, Writer: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) openPostgres(ctx context.Context, config Config) (*Result, error) {
	repo, err := postgres.Open(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres repository: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &Result{Reader: repo, Writer: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) openSheets(ctx context.Context, config Config) (*Result, error) {
	cli, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		Refresh:            config.GoogleSheetsRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &Result{Reader: cli}, nil
}
