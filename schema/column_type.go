// Package schema holds the canonical relational types the ingestion core
// produces from every source kind: a closed ColumnType enumeration, the
// sanitized (name, type) pair ColumnMetadata, and the ordered Schema they
// compose into.
package schema

// ColumnType is the closed set of logical SQL types every adapter infers
// into. It is deliberately narrow — one value per concept the core needs
// to express, not one per physical database type.
type ColumnType int

const (
	Text ColumnType = iota
	Boolean
	SmallInt
	Integer
	BigInt
	// Number is an arbitrary-precision decimal.
	Number
	Real
	DoublePrecision
	Money
	Timestamp
	TimestampWithZone
	Date
	Time
	Interval
	Geometry
	Json
	UUID
	SmallIntArray
)

var typeNames = [...]string{
	Text:              "Text",
	Boolean:           "Boolean",
	SmallInt:          "SmallInt",
	Integer:           "Integer",
	BigInt:            "BigInt",
	Number:            "Number",
	Real:              "Real",
	DoublePrecision:   "DoublePrecision",
	Money:             "Money",
	Timestamp:         "Timestamp",
	TimestampWithZone: "TimestampWithZone",
	Date:              "Date",
	Time:              "Time",
	Interval:          "Interval",
	Geometry:          "Geometry",
	Json:              "Json",
	UUID:              "UUID",
	SmallIntArray:     "SmallIntArray",
}

// String returns the logical type name (not the SQL DDL fragment — see
// package sqlddl for that mapping).
func (ct ColumnType) String() string {
	if int(ct) >= 0 && int(ct) < len(typeNames) && typeNames[ct] != "" {
		return typeNames[ct]
	}
	return "Unknown"
}
