package drivers

import (
	"context"
	"database/sql"
)

type Driver interface {
	Close() error
	Conn() *sql.DB
	GetViews(ctx context.Context) ([]*View, error)
}
