package drivers

import (
	"strings"

	"github.com/quantumsheep/dbview/view"
)

// View is a view as read back from a database. Query is the SELECT the
// view was created over. Schema and Name are unquoted.
type View struct {
	Schema string
	Name   string
	Query  string
}

func (v *View) Qualified() string {
	if v.Schema == "" {
		return v.Name
	}
	return v.Schema + "." + v.Name
}

func (v *View) quotedSchema() string {
	if v.Schema == "" {
		return ""
	}
	return quoteIdentifier(v.Schema)
}

func (v *View) Statement() string {
	return view.CreateStatement(false, v.quotedSchema(), quoteIdentifier(v.Name), v.Query)
}

func (v *View) DropStatement() string {
	return view.DropStatement(v.quotedSchema(), quoteIdentifier(v.Name))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
