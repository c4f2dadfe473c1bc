package sqlddl

import (
	"fmt"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/huandu/go-sqlbuilder"
)

// quote wraps a sanitized identifier in PostgreSQL double quotes.
func quote(identifier string) string { return `"` + identifier + `"` }

// BuildCreateTable renders `CREATE TABLE "<dbSchema>"."<table>" (...)`,
// with one `"col" <sqltype>` definition per column in s, in order.
// dbSchema may be empty, in which case the table is unqualified.
func BuildCreateTable(dbSchema string, s *schema.Schema) (string, error) {
	builder := sqlbuilder.NewCreateTableBuilder()
	tableName := quote(s.TableName)
	if dbSchema != "" {
		tableName = quote(dbSchema) + "." + tableName
	}
	builder.CreateTable(tableName)

	for _, col := range s.Columns {
		sqlType, err := SQLType(col.Type)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Name, err)
		}
		builder.Define(fmt.Sprintf("%s %s", quote(col.Name), sqlType))
	}

	query, args := builder.Build()
	if len(args) != 0 {
		return "", fmt.Errorf("unexpected placeholder arguments in DDL: %v", args)
	}
	return query, nil
}
