package drivers

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type SQLiteDriverConfig struct {
	DatabasePath string
	// Attach maps a schema alias to a database file attached on open.
	Attach map[string]string
}

type SQLiteDriver struct {
	DatabaseConnection *sql.DB
}

var _ Driver = (*SQLiteDriver)(nil)

// sqliteIdentifier matches a bare name or one quoted with "", [], `` or ''.
const sqliteIdentifier = `(?:"(?:[^"]|"")*"|\[[^\]]*\]|` + "`(?:[^`]|``)*`" + `|'(?:[^']|'')*'|[^\s()"'\[\]` + "`" + `.]+)`

var sqliteViewQuery = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:TEMP(?:ORARY)?\s+)?VIEW\s+(?:IF\s+NOT\s+EXISTS\s+)?` +
	sqliteIdentifier + `(?:\s*\.\s*` + sqliteIdentifier + `)?(?:\s*\([^)]*\))?\s*AS\s+(.*?)\s*;?\s*$`)

// sqliteConnector opens connections through a driver whose ConnectHook
// attaches the configured databases, so every pooled connection has them.
type sqliteConnector struct {
	driver *sqlite3.SQLiteDriver
	dsn    string
}

func (c *sqliteConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *sqliteConnector) Driver() driver.Driver {
	return c.driver
}

func attachHook(attach map[string]string) func(*sqlite3.SQLiteConn) error {
	return func(conn *sqlite3.SQLiteConn) error {
		for alias, path := range attach {
			_, err := conn.Exec("ATTACH DATABASE ? AS "+quoteIdentifier(alias)+";", []driver.Value{path})
			if err != nil {
				return fmt.Errorf("failed to attach %s as %s: %w", path, alias, err)
			}
		}
		return nil
	}
}

func NewSQLiteDriver(ctx context.Context, config *SQLiteDriverConfig) (*SQLiteDriver, error) {
	databaseConnection := sql.OpenDB(&sqliteConnector{
		driver: &sqlite3.SQLiteDriver{ConnectHook: attachHook(config.Attach)},
		dsn:    config.DatabasePath,
	})

	// Temporary views only exist on the connection that created them.
	databaseConnection.SetMaxOpenConns(1)

	if err := databaseConnection.PingContext(ctx); err != nil {
		databaseConnection.Close()
		return nil, err
	}

	return &SQLiteDriver{
		DatabaseConnection: databaseConnection,
	}, nil
}

func (d *SQLiteDriver) Close() error {
	return d.DatabaseConnection.Close()
}

func (d *SQLiteDriver) Conn() *sql.DB {
	return d.DatabaseConnection
}

func (d *SQLiteDriver) GetSchemas(ctx context.Context) ([]string, error) {
	rows, err := d.DatabaseConnection.QueryContext(ctx, "SELECT name FROM pragma_database_list WHERE name != 'temp' ORDER BY seq;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		schemas = append(schemas, name)
	}

	return schemas, rows.Err()
}

func (d *SQLiteDriver) GetViews(ctx context.Context) ([]*View, error) {
	schemas, err := d.GetSchemas(ctx)
	if err != nil {
		return nil, err
	}

	var views []*View
	for _, schema := range schemas {
		schemaViews, err := d.GetSchemaViews(ctx, schema)
		if err != nil {
			return nil, err
		}
		views = append(views, schemaViews...)
	}

	return views, nil
}

func (d *SQLiteDriver) GetSchemaViews(ctx context.Context, schema string) ([]*View, error) {
	rows, err := d.DatabaseConnection.QueryContext(ctx, "SELECT name, sql FROM "+quoteIdentifier(schema)+".sqlite_master WHERE type = 'view' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var name, sqlContent string
		if err := rows.Scan(&name, &sqlContent); err != nil {
			return nil, err
		}

		query, err := sqliteViewDefinition(sqlContent)
		if err != nil {
			return nil, fmt.Errorf("view %s.%s: %w", schema, name, err)
		}

		views = append(views, &View{
			Schema: schema,
			Name:   name,
			Query:  query,
		})
	}

	return views, rows.Err()
}

// sqliteViewDefinition extracts the SELECT from the CREATE VIEW text kept
// in sqlite_master.
func sqliteViewDefinition(createSQL string) (string, error) {
	match := sqliteViewQuery.FindStringSubmatch(createSQL)
	if match == nil {
		return "", fmt.Errorf("unrecognized view definition: %q", strings.TrimSpace(createSQL))
	}
	return match[1], nil
}
