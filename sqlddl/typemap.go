// Package sqlddl turns a schema.Schema into the DDL and COPY statements
// the load engine needs, targeting PostgreSQL/PostGIS exclusively.
package sqlddl

import (
	"fmt"

	"github.com/golshani-mhd/grizzle-ingest/schema"
)

// baseType maps every schema.ColumnType to its PostgreSQL DDL fragment.
// See DESIGN.md for the Json -> JSONB Open Question decision.
var baseType = map[schema.ColumnType]string{
	schema.Text:              "TEXT",
	schema.Boolean:           "BOOLEAN",
	schema.SmallInt:          "SMALLINT",
	schema.Integer:           "INTEGER",
	schema.BigInt:            "BIGINT",
	schema.Number:            "NUMERIC",
	schema.Real:              "REAL",
	schema.DoublePrecision:   "DOUBLE PRECISION",
	schema.Money:             "MONEY",
	schema.Timestamp:         "TIMESTAMP",
	schema.TimestampWithZone: "TIMESTAMP WITH TIME ZONE",
	schema.Date:              "DATE",
	schema.Time:              "TIME",
	schema.Interval:          "INTERVAL",
	schema.Geometry:          "GEOMETRY",
	schema.Json:              "JSONB",
	schema.UUID:              "UUID",
	schema.SmallIntArray:     "SMALLINT[]",
}

// SQLType returns the PostgreSQL DDL fragment for ct.
func SQLType(ct schema.ColumnType) (string, error) {
	t, ok := baseType[ct]
	if !ok {
		return "", fmt.Errorf("unmapped column type %s", ct)
	}
	return t, nil
}
