package drivers

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresDriverConfig struct {
	ConnectionString string
}

type PostgresDriver struct {
	DatabaseConnection *sql.DB
}

var _ Driver = (*PostgresDriver)(nil)

func NewPostgresDriver(config *PostgresDriverConfig) (*PostgresDriver, error) {
	databaseConnection, err := sql.Open("pgx", config.ConnectionString)
	if err != nil {
		return nil, err
	}

	driver := &PostgresDriver{
		DatabaseConnection: databaseConnection,
	}

	return driver, nil
}

func (d *PostgresDriver) Close() error {
	return d.DatabaseConnection.Close()
}

func (d *PostgresDriver) Conn() *sql.DB {
	return d.DatabaseConnection
}

// GetViews lists the views of the current schema. They are reported
// unqualified so that databases using different search paths compare
// equal.
func (d *PostgresDriver) GetViews(ctx context.Context) ([]*View, error) {
	rows, err := d.DatabaseConnection.QueryContext(ctx, `
		SELECT viewname, definition
		FROM pg_views
		WHERE schemaname = current_schema()
		ORDER BY viewname
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			return nil, err
		}

		views = append(views, &View{
			Name:  name,
			Query: strings.TrimSuffix(strings.TrimSpace(definition), ";"),
		})
	}

	return views, rows.Err()
}
