// Package codegen emits a Go row struct from an inferred schema.Schema,
// one field per column, tagged with its source column name.
package codegen

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
)

// GenerateRowStruct renders a Go source file in package pkg declaring one
// struct named after sch's table, with one tagged field per column.
func GenerateRowStruct(pkg string, sch *schema.Schema) (string, error) {
	fields := make([]jen.Code, len(sch.Columns))
	for i, col := range sch.Columns {
		fields[i] = jen.Id(toGoIdentifier(col.Name)).Add(jenType(col.Type)).Tag(map[string]string{"db": col.Name})
	}

	file := jen.NewFile(pkg)
	file.HeaderComment("Code generated by grizzle-ingest. DO NOT EDIT.")
	file.Add(jen.Type().Id(toGoIdentifier(sch.TableName)).Struct(fields...))

	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return "", ingesterr.WrapGeneric(err, "rendering row struct for %s", sch.TableName)
	}
	return buf.String(), nil
}

// jenType maps a ColumnType to the Go type its row struct field carries.
// Types with no exact Go primitive (Number, Money, Interval, UUID, Json,
// Geometry) stay string, carrying the same canonical text encoding the
// loader writes into the COPY stream.
func jenType(ct schema.ColumnType) jen.Code {
	switch ct {
	case schema.Boolean:
		return jen.Bool()
	case schema.SmallInt:
		return jen.Int16()
	case schema.Integer:
		return jen.Int32()
	case schema.BigInt:
		return jen.Int64()
	case schema.Real:
		return jen.Float32()
	case schema.DoublePrecision:
		return jen.Float64()
	case schema.Timestamp, schema.TimestampWithZone, schema.Date, schema.Time:
		return jen.Qual("time", "Time")
	case schema.SmallIntArray:
		return jen.Index().Int16()
	default:
		return jen.String()
	}
}

// toGoIdentifier title-cases each underscore-separated segment of a
// sanitized column or table name into an exported Go identifier.
func toGoIdentifier(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, "")
}
