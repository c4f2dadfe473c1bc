package ipc

import (
	"testing"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnTypeIntWidthPromotion(t *testing.T) {
	assert.Equal(t, schema.SmallInt, columnType(&arrow.Int8Type{}))
	assert.Equal(t, schema.SmallInt, columnType(&arrow.Uint8Type{}))
	assert.Equal(t, schema.SmallInt, columnType(&arrow.Int16Type{}))
	assert.Equal(t, schema.Integer, columnType(&arrow.Uint16Type{}))
	assert.Equal(t, schema.Integer, columnType(&arrow.Int32Type{}))
	assert.Equal(t, schema.BigInt, columnType(&arrow.Uint32Type{}))
	assert.Equal(t, schema.BigInt, columnType(&arrow.Int64Type{}))
	assert.Equal(t, schema.BigInt, columnType(&arrow.Uint64Type{}))
}

func TestColumnTypeTimestampZoneRule(t *testing.T) {
	assert.Equal(t, schema.TimestampWithZone, columnType(&arrow.TimestampType{TimeZone: ""}))
	assert.Equal(t, schema.Timestamp, columnType(&arrow.TimestampType{TimeZone: "UTC"}))
}

func TestCellValueBooleanAndNull(t *testing.T) {
	pool := memory.NewGoAllocator()
	b := array.NewBooleanBuilder(pool)
	defer b.Release()
	b.Append(true)
	b.AppendNull()
	arr := b.NewBooleanArray()
	defer arr.Release()

	text, valid := cellValue(arr, 0, schema.Boolean)
	require.True(t, valid)
	assert.Equal(t, "true", text)

	_, valid = cellValue(arr, 1, schema.Boolean)
	assert.False(t, valid)
}

func TestCellValueFloat64(t *testing.T) {
	pool := memory.NewGoAllocator()
	b := array.NewFloat64Builder(pool)
	defer b.Release()
	b.Append(3.5)
	arr := b.NewFloat64Array()
	defer arr.Release()

	text, valid := cellValue(arr, 0, schema.DoublePrecision)
	require.True(t, valid)
	assert.Equal(t, "3.5", text)
}

func TestCellValueString(t *testing.T) {
	pool := memory.NewGoAllocator()
	b := array.NewStringBuilder(pool)
	defer b.Release()
	b.Append("hello")
	arr := b.NewStringArray()
	defer arr.Release()

	text, valid := cellValue(arr, 0, schema.Text)
	require.True(t, valid)
	assert.Equal(t, "hello", text)
}

func TestCellValueDurationMillisecond(t *testing.T) {
	dt := &arrow.DurationType{Unit: arrow.Millisecond}
	pool := memory.NewGoAllocator()
	b := array.NewDurationBuilder(pool, dt)
	defer b.Release()
	b.Append(20200)
	arr := b.NewDurationArray()
	defer arr.Release()

	text, valid := cellValue(arr, 0, schema.Interval)
	require.True(t, valid)
	assert.Equal(t, "20200 milisecond", text)
}

func TestCellValueDurationNanosecondConvertsToMicrosecond(t *testing.T) {
	dt := &arrow.DurationType{Unit: arrow.Nanosecond}
	pool := memory.NewGoAllocator()
	b := array.NewDurationBuilder(pool, dt)
	defer b.Release()
	b.Append(9865)
	arr := b.NewDurationArray()
	defer arr.Release()

	text, valid := cellValue(arr, 0, schema.Interval)
	require.True(t, valid)
	assert.Equal(t, "9.87 microsecond", text)
}
