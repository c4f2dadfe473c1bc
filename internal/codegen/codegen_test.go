package codegen

import (
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGoIdentifier(t *testing.T) {
	assert.Equal(t, "ObjectId", toGoIdentifier("object_id"))
	assert.Equal(t, "Name", toGoIdentifier("name"))
	assert.Equal(t, "SiteCode", toGoIdentifier("site_code"))
}

func TestGenerateRowStructRendersFieldsAndTags(t *testing.T) {
	sch, err := schema.NewSchema("rain_gauge_sites", []schema.ColumnMetadata{
		schema.MustColumn("site_code", schema.Text),
		schema.MustColumn("elevation", schema.DoublePrecision),
		schema.MustColumn("active", schema.Boolean),
		schema.MustColumn("geometry", schema.Geometry),
	})
	require.NoError(t, err)

	src, err := GenerateRowStruct("model", sch)
	require.NoError(t, err)
	assert.Contains(t, src, "type RainGaugeSites struct")
	assert.Contains(t, src, "SiteCode  string")
	assert.Contains(t, src, `db:"site_code"`)
	assert.Contains(t, src, "Elevation float64")
	assert.Contains(t, src, "Active    bool")
	assert.Contains(t, src, "Geometry  string")
}
