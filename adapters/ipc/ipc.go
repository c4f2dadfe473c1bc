// Package ipc implements the Arrow IPC/Feather source adapter over
// apache/arrow/go/v14.
package ipc

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
)

// Adapter reads an Arrow IPC file (the on-disk form Feather v2 uses).
type Adapter struct {
	opts sourceopts.IPCOptions
}

// New builds an IPC Adapter bound to opts.
func New(opts sourceopts.IPCOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *Adapter) openReader(f *os.File) (*ipc.FileReader, error) {
	r, err := ipc.NewFileReader(f)
	if err != nil {
		return nil, ingesterr.WrapFormat(err, "opening Arrow IPC stream %s", a.opts.FilePath)
	}
	return r, nil
}

// columnType maps one dataframe column's Arrow type to its ColumnType:
// Uint16 and Uint32 promote one SQL width over their signed counterpart
// since they cannot be represented exactly otherwise. Uint8 shares
// SmallInt with Int8, and Uint64 shares BigInt with Int64, the widest
// integer type.
func columnType(dt arrow.DataType) schema.ColumnType {
	switch t := dt.(type) {
	case *arrow.BooleanType:
		return schema.Boolean
	case *arrow.Int8Type, *arrow.Uint8Type, *arrow.Int16Type:
		return schema.SmallInt
	case *arrow.Uint16Type, *arrow.Int32Type:
		return schema.Integer
	case *arrow.Uint32Type, *arrow.Int64Type, *arrow.Uint64Type:
		return schema.BigInt
	case *arrow.Float32Type:
		return schema.Real
	case *arrow.Float64Type:
		return schema.DoublePrecision
	case *arrow.StringType, *arrow.LargeStringType:
		return schema.Text
	case *arrow.Date32Type, *arrow.Date64Type:
		return schema.Date
	case *arrow.Time32Type, *arrow.Time64Type:
		return schema.Time
	case *arrow.TimestampType:
		if t.TimeZone == "" {
			return schema.TimestampWithZone
		}
		return schema.Timestamp
	case *arrow.DurationType:
		return schema.Interval
	default:
		return schema.Text
	}
}

// InferSchema reads the file's Arrow schema without touching a record
// batch.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		return nil, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath)
	}
	defer f.Close()

	r, err := a.openReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := r.Schema()
	cols := make([]schema.ColumnMetadata, sc.NumFields())
	for i := 0; i < sc.NumFields(); i++ {
		field := sc.Field(i)
		col, err := schema.NewColumnMetadata(field.Name, columnType(field.Type))
		if err != nil {
			return nil, schema.ValidationError("arrow field", err)
		}
		cols[i] = col
	}

	return schema.NewSchema(a.tableName(), cols)
}

// Spool streams every record batch row by row.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath))
		return
	}
	defer f.Close()

	r, err := a.openReader(f)
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}
	defer r.Close()

	sc := r.Schema()
	types := make([]schema.ColumnType, sc.NumFields())
	for i := 0; i < sc.NumFields(); i++ {
		types[i] = columnType(sc.Field(i).Type)
	}

	rowNum := 0
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			sendErr(ctx, lines, ingesterr.WrapFormat(err, "reading record batch %d of %s", i, a.opts.FilePath))
			return
		}

		for row := 0; row < int(rec.NumRows()); row++ {
			rowNum++
			cells := make([]string, rec.NumCols())
			for col := 0; col < int(rec.NumCols()); col++ {
				text, valid := cellValue(rec.Column(col), row, types[col])
				cells[col] = schema.EncodeCell(text, valid)
			}

			select {
			case <-ctx.Done():
				return
			case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
			}
		}
	}
}

func cellValue(col arrow.Array, row int, ct schema.ColumnType) (string, bool) {
	if col.IsNull(row) {
		return "", false
	}

	switch a := col.(type) {
	case *array.Boolean:
		return strconv.FormatBool(a.Value(row)), true
	case *array.Int8:
		return strconv.FormatInt(int64(a.Value(row)), 10), true
	case *array.Uint8:
		return strconv.FormatUint(uint64(a.Value(row)), 10), true
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(row)), 10), true
	case *array.Uint16:
		return strconv.FormatUint(uint64(a.Value(row)), 10), true
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(row)), 10), true
	case *array.Uint32:
		return strconv.FormatUint(uint64(a.Value(row)), 10), true
	case *array.Int64:
		return strconv.FormatInt(a.Value(row), 10), true
	case *array.Uint64:
		return strconv.FormatUint(a.Value(row), 10), true
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(row)), 'f', -1, 32), true
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'f', -1, 64), true
	case *array.String:
		return a.Value(row), true
	case *array.Date32:
		return schema.EncodeDate(a.Value(row).ToTime()), true
	case *array.Date64:
		return schema.EncodeDate(a.Value(row).ToTime()), true
	case *array.Timestamp:
		tt, ok := col.DataType().(*arrow.TimestampType)
		hasZone := ok && tt.TimeZone != ""
		t, err := a.Value(row).ToTime(arrow.Microsecond)
		if err != nil {
			return "", false
		}
		return schema.EncodeTimestamp(t, hasZone), true
	case *array.Time32:
		return schema.EncodeTime(a.Value(row).ToTime(arrow.Millisecond)), true
	case *array.Time64:
		return schema.EncodeTime(a.Value(row).ToTime(arrow.Microsecond)), true
	case *array.Duration:
		dt, ok := col.DataType().(*arrow.DurationType)
		if !ok {
			return "", false
		}
		v := float64(a.Value(row))
		switch dt.Unit {
		case arrow.Nanosecond:
			return schema.EncodePolarsDuration(v/1000, schema.Microsecond), true
		case arrow.Microsecond:
			return schema.EncodePolarsDuration(v, schema.Microsecond), true
		case arrow.Millisecond:
			return schema.EncodePolarsDuration(v, schema.Milisecond), true
		case arrow.Second:
			return schema.EncodePolarsDuration(v*1000, schema.Milisecond), true
		default:
			return "", false
		}
	default:
		return "", false
	}
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
