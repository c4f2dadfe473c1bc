package avro

import (
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumnsNullableUnionInfersInnerType(t *testing.T) {
	cols, err := parseColumns(`{
		"type":"record","name":"r",
		"fields":[{"name":"note","type":["null","string"]}]
	}`)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, schema.Text, cols[0].typ)
	assert.True(t, cols[0].nullable)
}

func TestParseColumnsNonRecordTopLevelFails(t *testing.T) {
	_, err := parseColumns(`"string"`)
	assert.Error(t, err)
}

func TestParseColumnsBareNullFieldFails(t *testing.T) {
	_, err := parseColumns(`{"type":"record","name":"r","fields":[{"name":"x","type":"null"}]}`)
	assert.Error(t, err)
}

func TestParseColumnsDecimalAndFixedMapToSmallIntArray(t *testing.T) {
	cols, err := parseColumns(`{
		"type":"record","name":"r",
		"fields":[
			{"name":"amount","type":{"type":"bytes","logicalType":"decimal","precision":4,"scale":0}},
			{"name":"hash","type":{"type":"fixed","name":"MD5","size":16}}
		]
	}`)
	require.NoError(t, err)
	assert.Equal(t, schema.SmallIntArray, cols[0].typ)
	assert.Equal(t, schema.SmallIntArray, cols[1].typ)
}

func TestParseColumnsDurationMapsToJSON(t *testing.T) {
	cols, err := parseColumns(`{
		"type":"record","name":"r",
		"fields":[{"name":"span","type":{"type":"fixed","name":"D","size":12,"logicalType":"duration"}}]
	}`)
	require.NoError(t, err)
	assert.Equal(t, schema.Json, cols[0].typ)
	assert.Equal(t, decodeDuration, cols[0].kind)
}

func TestDecodeDurationBytes(t *testing.T) {
	b := []byte{1, 0, 0, 0, 5, 0, 0, 0, 0xe8, 0x03, 0, 0}
	text, valid, err := decodeValue(b, avroColumn{name: "span", typ: schema.Json, kind: decodeDuration})
	require.NoError(t, err)
	require.True(t, valid)
	assert.Equal(t, `{"months":1,"days":5,"millis":1000}`, text)
}

func TestUnwrapUnionSingleKeyEnvelope(t *testing.T) {
	assert.Equal(t, "hello", unwrapUnion(map[string]any{"string": "hello"}))
	assert.Nil(t, unwrapUnion(nil))
}

func TestDecodeBytesLiteral(t *testing.T) {
	text, valid, err := decodeValue([]byte{1}, avroColumn{name: "amount", typ: schema.SmallIntArray, kind: decodeBytesLiteral})
	require.NoError(t, err)
	require.True(t, valid)
	assert.Equal(t, "{1}", text)
}
