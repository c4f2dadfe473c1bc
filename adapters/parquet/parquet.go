// Package parquet implements the Parquet source adapter over
// segmentio/parquet-go: logical annotations take precedence over the
// physical storage type when mapping a column's type.
package parquet

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/segmentio/parquet-go"
)

// Adapter reads a Parquet file column-by-column, mapping each leaf field
// to a ColumnType via its logical-then-physical type.
type Adapter struct {
	opts sourceopts.ParquetOptions
}

// New builds a Parquet Adapter bound to opts.
func New(opts sourceopts.ParquetOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *Adapter) openFile() (*os.File, *parquet.File, error) {
	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		return nil, nil, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, ingesterr.WrapIO(err, "stat %s", a.opts.FilePath)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, ingesterr.WrapParquet(err, "opening %s", a.opts.FilePath)
	}
	return f, pf, nil
}

// columnType maps one leaf field via its logical-then-physical type; a
// BYTE_ARRAY field literally named "geometry" maps to Geometry.
func columnType(field parquet.Field) schema.ColumnType {
	if lt := field.Type().LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil:
			return schema.Text
		case lt.Map != nil, lt.List != nil, lt.Bson != nil, lt.Json != nil:
			return schema.Json
		case lt.Enum != nil:
			return schema.Text
		case lt.Decimal != nil:
			return schema.DoublePrecision
		case lt.Date != nil:
			return schema.Date
		case lt.Time != nil:
			return schema.Time
		case lt.Timestamp != nil:
			if lt.Timestamp.IsAdjustedToUTC {
				return schema.Timestamp
			}
			return schema.TimestampWithZone
		case lt.UUID != nil:
			return schema.UUID
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return schema.Boolean
	case parquet.Int32:
		return schema.Integer
	case parquet.Int64, parquet.Int96:
		return schema.BigInt
	case parquet.Float:
		return schema.Real
	case parquet.Double:
		return schema.DoublePrecision
	case parquet.ByteArray:
		if field.Name() == "geometry" {
			return schema.Geometry
		}
		return schema.Text
	case parquet.FixedLenByteArray:
		return schema.Text
	default:
		return schema.Text
	}
}

// InferSchema reads the file's schema tree without scanning any row
// groups; every top-level field becomes one column.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	f, pf, err := a.openFile()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields := pf.Schema().Fields()
	cols := make([]schema.ColumnMetadata, len(fields))
	for i, field := range fields {
		col, err := schema.NewColumnMetadata(field.Name(), columnType(field))
		if err != nil {
			return nil, schema.ValidationError("parquet field", err)
		}
		cols[i] = col
	}

	return schema.NewSchema(a.tableName(), cols)
}

// Spool streams every row as canonical CSV, decoding a geometry column's
// WKB bytes to WKT text.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	f, pf, err := a.openFile()
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}
	defer f.Close()

	fields := pf.Schema().Fields()
	types := make([]schema.ColumnType, len(fields))
	for i, field := range fields {
		types[i] = columnType(field)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	rows := make([]parquet.Row, 64)
	rowIdx := 0
	for {
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			rowIdx++
			cells, cellErr := encodeRow(rows[i], types)
			if cellErr != nil {
				sendErr(ctx, lines, ingesterr.WrapParquet(cellErr, "row %d of %s", rowIdx, a.opts.FilePath))
				return
			}
			select {
			case <-ctx.Done():
				return
			case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
			}
		}
		if err != nil {
			if err.Error() == "EOF" {
				return
			}
			sendErr(ctx, lines, ingesterr.WrapParquet(err, "reading rows of %s", a.opts.FilePath))
			return
		}
		if n == 0 {
			return
		}
	}
}

func encodeRow(row parquet.Row, types []schema.ColumnType) ([]string, error) {
	cells := make([]string, len(types))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(types) {
			continue
		}
		if v.IsNull() {
			cells[col] = schema.EncodeCell("", false)
			continue
		}

		switch types[col] {
		case schema.Geometry:
			geom, err := wkb.Unmarshal(v.ByteArray())
			if err != nil {
				return nil, err
			}
			cells[col] = schema.EncodeCell(wkt.MarshalString(geom), true)
		case schema.Boolean:
			cells[col] = schema.EncodeCell(strconv.FormatBool(v.Boolean()), true)
		case schema.Integer:
			cells[col] = schema.EncodeCell(strconv.FormatInt(int64(v.Int32()), 10), true)
		case schema.BigInt:
			cells[col] = schema.EncodeCell(strconv.FormatInt(v.Int64(), 10), true)
		case schema.Real:
			cells[col] = schema.EncodeCell(strconv.FormatFloat(float64(v.Float()), 'f', -1, 32), true)
		case schema.DoublePrecision:
			cells[col] = schema.EncodeCell(strconv.FormatFloat(v.Double(), 'f', -1, 64), true)
		default:
			cells[col] = schema.EncodeCell(v.String(), true)
		}
	}
	return cells, nil
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
