package shapefile

import (
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
)

func TestDBFColumnTypeMapping(t *testing.T) {
	cases := map[byte]schema.ColumnType{
		'C': schema.Text,
		'N': schema.Number,
		'L': schema.Boolean,
		'D': schema.Date,
		'F': schema.Real,
		'I': schema.Integer,
		'Y': schema.Money,
		'T': schema.Timestamp,
		'B': schema.DoublePrecision,
		'M': schema.Text,
	}
	for code, want := range cases {
		assert.Equal(t, want, dbfColumnType(code), string(code))
	}
}

func TestEncodeDBFDateValue(t *testing.T) {
	assert.Equal(t, "2024-03-15", encodeDBFValue('D', "20240315"))
	assert.Equal(t, "hello", encodeDBFValue('C', "hello"))
}

func TestShapeToWKTPoint(t *testing.T) {
	wkt := shapeToWKT(&shp.Point{X: 1.5, Y: -2})
	assert.Equal(t, "POINT(1.5 -2)", wkt)
}

func TestShapeToWKTNullShape(t *testing.T) {
	assert.Equal(t, "", shapeToWKT(&shp.Null{}))
	assert.Equal(t, "", shapeToWKT(nil))
}

func TestPolygonWKTSingleRing(t *testing.T) {
	points := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	wkt := polygonWKT([]int32{0}, points)
	assert.Equal(t, "POLYGON((0 0,0 1,1 1,0 0))", wkt)
}

func TestMultiPointWKT(t *testing.T) {
	points := []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	assert.Equal(t, "MULTIPOINT(0 0,1 1)", multiPointWKT(points))
}
