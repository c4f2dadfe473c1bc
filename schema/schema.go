package schema

import "github.com/golshani-mhd/grizzle-ingest/ingesterr"

// ColumnMetadata pairs a sanitized SQL identifier with its logical type.
type ColumnMetadata struct {
	Name string
	Type ColumnType
}

// NewColumnMetadata sanitizes name and fails if nothing survives cleaning.
func NewColumnMetadata(name string, typ ColumnType) (ColumnMetadata, error) {
	clean, err := Sanitize(name)
	if err != nil {
		return ColumnMetadata{}, err
	}
	return ColumnMetadata{Name: clean, Type: typ}, nil
}

// Schema is a sanitized table name plus its ordered columns. Column order
// is the physical order in which the matching adapter emits cells, and
// must equal the COPY target column list exactly. The core does not
// enforce column-name uniqueness — see DESIGN.md's Open Question decision.
type Schema struct {
	TableName string
	Columns   []ColumnMetadata
}

// NewSchema sanitizes tableName and returns a Schema over the given
// columns, which must already be sanitized (e.g. via NewColumnMetadata).
func NewSchema(tableName string, columns []ColumnMetadata) (*Schema, error) {
	clean, err := Sanitize(tableName)
	if err != nil {
		return nil, err
	}
	return &Schema{TableName: clean, Columns: columns}, nil
}

// ColumnNames returns the columns in physical order, for use as the COPY
// target column list.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// GeometryLast reports whether the schema's final column is a Geometry
// column, the invariant every geospatial adapter must uphold so the
// encoded geometry cell always lands in the last COPY field.
func (s *Schema) GeometryLast() bool {
	if len(s.Columns) == 0 {
		return false
	}
	return s.Columns[len(s.Columns)-1].Type == Geometry
}

// MustColumn is a test/builder convenience that panics on sanitization
// failure; production adapters should use NewColumnMetadata and propagate
// the error through ingesterr instead.
func MustColumn(name string, typ ColumnType) ColumnMetadata {
	col, err := NewColumnMetadata(name, typ)
	if err != nil {
		panic(err)
	}
	return col
}

// ValidationError wraps a sanitization or construction failure as a
// generic, contextualized ingesterr error.
func ValidationError(context string, cause error) error {
	return ingesterr.NewGeneric("%s: %v", context, cause)
}
