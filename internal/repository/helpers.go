package repository

import (
	"database/sql"
	"fmt"
)

// requireRowsAffected converts a zero-row write into sql.ErrNoRows so
// services can surface NotFound/Conflict consistently.
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
