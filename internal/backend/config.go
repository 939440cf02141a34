package backend

import (
	"errors"
	"fmt"
	"time"

	"salesdash/internal/config"
)

// Config holds what the factory needs to open any backend.
type Config struct {
	Type Type

	// memory
	SeedFile string

	// sqlite
	SQLiteDBPath string

	// postgres
	DatabaseURL string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleSheetsRefresh      time.Duration
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SeedFile:     appConfig.SeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleSheetsRefresh:      appConfig.GoogleSheetsRefresh,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case Postgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	case Sheets:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return errors.New("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets backend")
		}
	case Memory:
		// SeedFile is optional; an empty store is valid.
	}

	return nil
}

// Types returns every supported backend type.
func Types() []Type {
	return []Type{Memory, SQLite, Postgres, Sheets}
}
