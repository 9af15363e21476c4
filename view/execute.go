package view

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Conn is the connection a statement is executed on. *sql.DB, *sql.Conn
// and *sql.Tx satisfy it. Its lifetime belongs to the caller.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ExecutionError is returned when the database engine rejects a statement.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Execute runs a single statement on conn. When throwOnError is false an
// engine failure is logged and dropped.
func Execute(ctx context.Context, conn Conn, sqlText string, throwOnError bool) error {
	slog.DebugContext(ctx, "Executing statement", "sql", sqlText)

	_, err := conn.ExecContext(ctx, sqlText)
	if err == nil {
		return nil
	}

	if !throwOnError {
		slog.WarnContext(ctx, "Statement failed", "sql", sqlText, "error", err)
		return nil
	}

	return &ExecutionError{SQL: sqlText, Err: err}
}
