// Package avro implements the Avro Object Container File source adapter
// over linkedin/goavro/v2.
package avro

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/linkedin/goavro/v2"
)

// Adapter reads an Avro Object Container File whose writer schema's top
// level is a record.
type Adapter struct {
	opts sourceopts.AvroOptions
}

// New builds an Avro Adapter bound to opts.
func New(opts sourceopts.AvroOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// decodeKind says how to turn a field's decoded native value into a cell.
type decodeKind int

const (
	decodeDirect decodeKind = iota
	decodeNumeric
	decodeBytesLiteral
	decodeDateDays
	decodeTimeMillis
	decodeTimeMicros
	decodeTimestampMillis
	decodeTimestampMicros
	decodeDuration
	decodeJSON
)

type avroColumn struct {
	name     string
	typ      schema.ColumnType
	kind     decodeKind
	nullable bool
}

type rawField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type rawRecordSchema struct {
	Type   string     `json:"type"`
	Name   string     `json:"name"`
	Fields []rawField `json:"fields"`
}

type rawTypeObject struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
}

func (a *Adapter) openOCF() (*os.File, *goavro.OCFReader, error) {
	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		return nil, nil, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath)
	}
	ocf, err := goavro.NewOCFReader(f)
	if err != nil {
		f.Close()
		return nil, nil, ingesterr.WrapAvro(err, "opening OCF stream %s", a.opts.FilePath)
	}
	return f, ocf, nil
}

func parseColumns(schemaJSON string) ([]avroColumn, error) {
	var top rawRecordSchema
	if err := json.Unmarshal([]byte(schemaJSON), &top); err != nil {
		return nil, ingesterr.WrapAvro(err, "parsing writer schema")
	}
	if top.Type != "record" {
		return nil, ingesterr.WrapAvro(nil, "writer schema top level is %q, not record", top.Type)
	}

	cols := make([]avroColumn, len(top.Fields))
	for i, f := range top.Fields {
		typ, kind, nullable, err := classifyField(f.Type)
		if err != nil {
			return nil, ingesterr.WrapAvro(err, "field %q", f.Name)
		}
		cols[i] = avroColumn{name: f.Name, typ: typ, kind: kind, nullable: nullable}
	}
	return cols, nil
}

// classifyField maps one field's type schema to a ColumnType/decodeKind
// pair. nullable reports whether the field is a [null, T] union, whose
// decoded value arrives wrapped and must be unwrapped before decoding as T.
func classifyField(raw json.RawMessage) (schema.ColumnType, decodeKind, bool, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		typ, kind, err := primitiveType(name)
		return typ, kind, false, err
	}

	var union []json.RawMessage
	if err := json.Unmarshal(raw, &union); err == nil {
		if len(union) == 2 && isNullType(union[0]) != isNullType(union[1]) {
			inner := union[0]
			if isNullType(union[0]) {
				inner = union[1]
			}
			typ, kind, _, err := classifyField(inner)
			return typ, kind, true, err
		}
		return schema.Json, decodeJSON, false, nil
	}

	var obj rawTypeObject
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Type != "" {
		typ, kind := classifyComplex(obj.Type, obj.LogicalType)
		return typ, kind, false, nil
	}

	return 0, decodeDirect, false, fmt.Errorf("unrecognized avro type schema: %s", raw)
}

func isNullType(raw json.RawMessage) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil && s == "null"
}

func primitiveType(name string) (schema.ColumnType, decodeKind, error) {
	switch name {
	case "boolean":
		return schema.Boolean, decodeDirect, nil
	case "int":
		return schema.Integer, decodeNumeric, nil
	case "long":
		return schema.BigInt, decodeNumeric, nil
	case "float":
		return schema.Real, decodeNumeric, nil
	case "double":
		return schema.DoublePrecision, decodeNumeric, nil
	case "string":
		return schema.Text, decodeDirect, nil
	case "bytes":
		return schema.SmallIntArray, decodeBytesLiteral, nil
	case "null":
		return 0, decodeDirect, ingesterr.WrapAvro(nil, "bare null schema is not a valid field type")
	default:
		return schema.Text, decodeDirect, nil
	}
}

// classifyComplex handles both the named complex types (record, array,
// map, enum, fixed) and logicalType-annotated primitive/fixed types.
func classifyComplex(typ, logicalType string) (schema.ColumnType, decodeKind) {
	switch logicalType {
	case "date":
		return schema.Date, decodeDateDays
	case "time-millis":
		return schema.Time, decodeTimeMillis
	case "time-micros":
		return schema.Time, decodeTimeMicros
	case "timestamp-millis":
		return schema.Timestamp, decodeTimestampMillis
	case "timestamp-micros":
		return schema.Timestamp, decodeTimestampMicros
	case "decimal":
		return schema.SmallIntArray, decodeBytesLiteral
	case "uuid":
		return schema.UUID, decodeDirect
	case "duration":
		return schema.Json, decodeDuration
	}

	switch typ {
	case "array", "map", "record":
		return schema.Json, decodeJSON
	case "enum":
		return schema.Text, decodeDirect
	case "fixed":
		return schema.SmallIntArray, decodeBytesLiteral
	case "bytes":
		return schema.SmallIntArray, decodeBytesLiteral
	default:
		return schema.Text, decodeDirect
	}
}

// InferSchema reads the OCF header's writer schema without scanning any
// data blocks.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	f, ocf, err := a.openOCF()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cols, err := parseColumns(ocf.Codec().Schema())
	if err != nil {
		return nil, err
	}

	schemaCols := make([]schema.ColumnMetadata, len(cols))
	for i, c := range cols {
		col, err := schema.NewColumnMetadata(c.name, c.typ)
		if err != nil {
			return nil, schema.ValidationError("avro field", err)
		}
		schemaCols[i] = col
	}

	return schema.NewSchema(a.tableName(), schemaCols)
}

// Spool streams one row per datum in the container file.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	f, ocf, err := a.openOCF()
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}
	defer f.Close()

	cols, err := parseColumns(ocf.Codec().Schema())
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}

	rowNum := 0
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			sendErr(ctx, lines, ingesterr.WrapAvro(err, "record %d of %s", rowNum, a.opts.FilePath))
			return
		}
		rowNum++

		record, ok := datum.(map[string]any)
		if !ok {
			sendErr(ctx, lines, ingesterr.WrapAvro(nil, "record %d of %s is not a record datum", rowNum, a.opts.FilePath))
			return
		}

		cells := make([]string, len(cols))
		for i, col := range cols {
			v := record[col.name]
			if col.nullable {
				v = unwrapUnion(v)
			}
			text, valid, err := decodeValue(v, col)
			if err != nil {
				sendErr(ctx, lines, ingesterr.WrapAvro(err, "record %d column %q of %s", rowNum, col.name, a.opts.FilePath))
				return
			}
			cells[i] = schema.EncodeCell(text, valid)
		}

		select {
		case <-ctx.Done():
			return
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
}

// unwrapUnion strips goavro's single-key branch envelope off a non-null
// union value; a null union value passes through unchanged.
func unwrapUnion(v any) any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for _, inner := range m {
			return inner
		}
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int32:
		return int64(t), true
	case int64:
		return t, true
	default:
		return 0, false
	}
}

func decodeValue(v any, col avroColumn) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}

	switch col.kind {
	case decodeDirect:
		switch t := v.(type) {
		case bool:
			return strconv.FormatBool(t), true, nil
		case string:
			return t, true, nil
		default:
			return fmt.Sprintf("%v", t), true, nil
		}
	case decodeNumeric:
		switch t := v.(type) {
		case int32:
			return strconv.FormatInt(int64(t), 10), true, nil
		case int64:
			return strconv.FormatInt(t, 10), true, nil
		case float32:
			return strconv.FormatFloat(float64(t), 'f', -1, 32), true, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true, nil
		default:
			return fmt.Sprintf("%v", t), true, nil
		}
	case decodeBytesLiteral:
		b, ok := v.([]byte)
		if !ok {
			return "", false, fmt.Errorf("expected bytes for column %q, got %T", col.name, v)
		}
		return schema.EncodeByteArray(b), true, nil
	case decodeDateDays:
		days, ok := toInt64(v)
		if !ok {
			return "", false, fmt.Errorf("expected int days for column %q", col.name)
		}
		return schema.EncodeDate(time.Unix(0, 0).UTC().AddDate(0, 0, int(days))), true, nil
	case decodeTimeMillis:
		ms, ok := toInt64(v)
		if !ok {
			return "", false, fmt.Errorf("expected int millis for column %q", col.name)
		}
		return schema.EncodeTime(time.Unix(0, 0).UTC().Add(time.Duration(ms) * time.Millisecond)), true, nil
	case decodeTimeMicros:
		us, ok := toInt64(v)
		if !ok {
			return "", false, fmt.Errorf("expected long micros for column %q", col.name)
		}
		return schema.EncodeTime(time.Unix(0, 0).UTC().Add(time.Duration(us) * time.Microsecond)), true, nil
	case decodeTimestampMillis:
		ms, ok := toInt64(v)
		if !ok {
			return "", false, fmt.Errorf("expected long millis for column %q", col.name)
		}
		return schema.EncodeTimestamp(time.UnixMilli(ms).UTC(), false), true, nil
	case decodeTimestampMicros:
		us, ok := toInt64(v)
		if !ok {
			return "", false, fmt.Errorf("expected long micros for column %q", col.name)
		}
		return schema.EncodeTimestamp(time.UnixMicro(us).UTC(), false), true, nil
	case decodeDuration:
		b, ok := v.([]byte)
		if !ok || len(b) != 12 {
			return "", false, fmt.Errorf("expected 12-byte duration for column %q", col.name)
		}
		d := schema.AvroDuration{
			Months: int(binary.LittleEndian.Uint32(b[0:4])),
			Days:   int(binary.LittleEndian.Uint32(b[4:8])),
			Millis: int(binary.LittleEndian.Uint32(b[8:12])),
		}
		return schema.EncodeAvroDuration(d), true, nil
	case decodeJSON:
		text, err := schema.EncodeJSONValue(v)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	default:
		return "", false, fmt.Errorf("unhandled decode kind for column %q", col.name)
	}
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
