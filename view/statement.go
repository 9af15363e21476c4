package view

import "fmt"

// CreateStatement renders the CREATE VIEW statement submitted by the
// builder. An empty database yields an unqualified alias. A non temporary
// view keeps the empty token, so the text reads "CREATE  VIEW".
func CreateStatement(temporary bool, database, alias, query string) string {
	return fmt.Sprintf("CREATE %s VIEW %s AS %s;", temporaryToken(temporary), qualify(database, alias), query)
}

// DropStatement renders the DROP VIEW statement submitted by the builder.
func DropStatement(database, alias string) string {
	return fmt.Sprintf("DROP VIEW %s;", qualify(database, alias))
}

func temporaryToken(temporary bool) string {
	if temporary {
		return "TEMPORARY"
	}
	return ""
}

func qualify(database, alias string) string {
	if database == "" {
		return alias
	}
	return database + "." + alias
}
