// Package view creates and drops SQL views on a caller owned connection.
package view

import "context"

// Builder submits CREATE VIEW and DROP VIEW statements on a connection it
// does not own. It never closes the connection and does no locking.
type Builder struct {
	conn Conn
}

// New returns a Builder for conn. The caller keeps ownership of conn.
func New(conn Conn) *Builder {
	return &Builder{conn: conn}
}

// CreateView creates alias over query. There are no "OR REPLACE"
// semantics: creating an existing alias fails.
func (b *Builder) CreateView(ctx context.Context, temporary bool, alias, query string) error {
	return Execute(ctx, b.conn, CreateStatement(temporary, "", alias, query), true)
}

// CreateViewIn is CreateView with alias qualified by database.
func (b *Builder) CreateViewIn(ctx context.Context, temporary bool, database, alias, query string) error {
	return Execute(ctx, b.conn, CreateStatement(temporary, database, alias, query), true)
}

// DropView drops alias. Dropping a missing view fails.
func (b *Builder) DropView(ctx context.Context, alias string) error {
	return Execute(ctx, b.conn, DropStatement("", alias), true)
}

// DropViewIn is DropView with alias qualified by database.
func (b *Builder) DropViewIn(ctx context.Context, database, alias string) error {
	return Execute(ctx, b.conn, DropStatement(database, alias), true)
}
