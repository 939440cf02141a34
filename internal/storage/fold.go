package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"

	"salesdash/internal/storage/sqlpred"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqlpred.FoldFunc, 1, unicodeLower)
}

// unicodeLower lowercases its argument the way query.Match does, so text
// search on SQLite matches the in-memory backends for non-ASCII titles.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", sqlpred.FoldFunc, v)
	}
}
