package parquet

import (
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
)

func TestColumnTypePhysicalFallback(t *testing.T) {
	s := parquet.SchemaOf(struct {
		Active   bool
		Count    int32
		Big      int64
		Ratio    float32
		Fraction float64
	}{})

	want := map[string]schema.ColumnType{
		"Active":   schema.Boolean,
		"Count":    schema.Integer,
		"Big":      schema.BigInt,
		"Ratio":    schema.Real,
		"Fraction": schema.DoublePrecision,
	}
	for _, f := range s.Fields() {
		assert.Equal(t, want[f.Name()], columnType(f), f.Name())
	}
}

func TestColumnTypeByteArrayNameMatchIsCaseSensitive(t *testing.T) {
	// Struct reflection capitalizes the field name, so this exercises the
	// non-"geometry" BYTE_ARRAY fallback path (-> Text), not the match.
	s := parquet.SchemaOf(struct {
		Geometry []byte
	}{})

	for _, f := range s.Fields() {
		assert.Equal(t, schema.Text, columnType(f))
	}
}
