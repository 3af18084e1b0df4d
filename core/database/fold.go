package database

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// sqliteFold lowercases with Unicode rules; the builtin LOWER only folds ASCII.
const sqliteFold = "kino_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFold, 1, foldValue)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// FoldFunc names the SQL function that lowercases text for the given driver.
// Callers fold the other operand with strings.ToLower.
func FoldFunc(driverName string) string {
	if driverName == DriverSQLite {
		return sqliteFold
	}
	return "LOWER"
}
