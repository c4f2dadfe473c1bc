package sqlddl

import (
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema("parcels", []schema.ColumnMetadata{
		schema.MustColumn("owner_name", schema.Text),
		schema.MustColumn("area", schema.DoublePrecision),
		schema.MustColumn("geometry", schema.Geometry),
	})
	require.NoError(t, err)
	return s
}

func TestBuildCreateTable(t *testing.T) {
	ddl, err := BuildCreateTable("public", testSchema(t))
	require.NoError(t, err)
	assert.Contains(t, ddl, `"public"."parcels"`)
	assert.Contains(t, ddl, `"owner_name" TEXT`)
	assert.Contains(t, ddl, `"area" DOUBLE PRECISION`)
	assert.Contains(t, ddl, `"geometry" GEOMETRY`)
}

func TestBuildCreateTableUnqualified(t *testing.T) {
	ddl, err := BuildCreateTable("", testSchema(t))
	require.NoError(t, err)
	assert.Contains(t, ddl, `"parcels"`)
	assert.NotContains(t, ddl, `..`)
}

func TestBuildCopyStatementUnqualified(t *testing.T) {
	opts := NewCopyOptions("", "parcels", []string{"owner_name", "area"})
	stmt := BuildCopyStatement(opts, FormatHints{Delimiter: ',', Header: false, Qualified: true})
	assert.Equal(t, `COPY "parcels" ("owner_name","area") FROM STDIN WITH (FORMAT csv, DELIMITER ',', HEADER false, NULL '', QUOTE '"', ESCAPE '"')`, stmt)
}

func TestBuildCopyStatementDelimitedNoQuote(t *testing.T) {
	opts := NewCopyOptions("public", "flat", []string{"a", "b"})
	stmt := BuildCopyStatement(opts, FormatHints{Delimiter: '|', Header: true, Qualified: false})
	assert.Equal(t, `COPY "public"."flat" ("a","b") FROM STDIN WITH (FORMAT csv, DELIMITER '|', HEADER true, NULL '')`, stmt)
}

func TestSQLTypeUnmapped(t *testing.T) {
	_, err := SQLType(schema.ColumnType(999))
	assert.Error(t, err)
}
