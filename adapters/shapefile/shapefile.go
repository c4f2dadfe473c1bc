// Package shapefile implements the .shp/.dbf source adapter over
// jonas-p/go-shp.
package shapefile

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	shp "github.com/jonas-p/go-shp"
)

// Adapter reads a .shp/.dbf pair; the .dbf is assumed colocated with the
// .shp named in opts.
type Adapter struct {
	opts sourceopts.ShapefileOptions
}

// New builds a shapefile Adapter bound to opts.
func New(opts sourceopts.ShapefileOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// dbfColumnType maps a DBF field type code to its logical ColumnType:
// character, numeric, logical, date, float, integer, currency, datetime,
// double, memo.
func dbfColumnType(fieldType byte) schema.ColumnType {
	switch fieldType {
	case 'C':
		return schema.Text
	case 'N':
		return schema.Number
	case 'L':
		return schema.Boolean
	case 'D':
		return schema.Date
	case 'F':
		return schema.Real
	case 'I':
		return schema.Integer
	case 'Y':
		return schema.Money
	case 'T':
		return schema.Timestamp
	case 'B':
		return schema.DoublePrecision
	case 'M':
		return schema.Text
	default:
		return schema.Text
	}
}

func (a *Adapter) openReader() (*shp.Reader, error) {
	r, err := shp.Open(a.opts.FilePath)
	if err != nil {
		return nil, ingesterr.WrapShapefile(err, "opening %s", a.opts.FilePath)
	}
	return r, nil
}

// InferSchema reads the companion DBF's attribute fields, excluding
// DeletionFlag, and appends a trailing geometry column.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	r, err := a.openReader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var cols []schema.ColumnMetadata
	for _, f := range r.Fields() {
		name := f.String()
		if name == "DeletionFlag" {
			continue
		}
		col, err := schema.NewColumnMetadata(name, dbfColumnType(f.Fieldtype))
		if err != nil {
			return nil, schema.ValidationError("shapefile attribute field", err)
		}
		cols = append(cols, col)
	}
	geomCol, err := schema.NewColumnMetadata("geometry", schema.Geometry)
	if err != nil {
		return nil, schema.ValidationError("geometry column", err)
	}
	cols = append(cols, geomCol)

	return schema.NewSchema(a.tableName(), cols)
}

// Spool streams one row per feature: the DBF attributes as text, then a
// trailing WKT geometry cell (empty for a null-shape feature).
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	r, err := a.openReader()
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}
	defer r.Close()

	fields := r.Fields()
	attrIdx := make([]int, 0, len(fields))
	for i, f := range fields {
		if f.String() == "DeletionFlag" {
			continue
		}
		attrIdx = append(attrIdx, i)
	}

	n := -1
	for r.Next() {
		n++
		shapeNum, shape := r.Shape()

		cells := make([]string, 0, len(attrIdx)+1)
		for _, idx := range attrIdx {
			raw := r.ReadAttribute(shapeNum, idx)
			cells = append(cells, schema.EncodeCell(encodeDBFValue(fields[idx].Fieldtype, raw), true))
		}
		cells = append(cells, schema.EncodeCell(shapeToWKT(shape), shape != nil))

		select {
		case <-ctx.Done():
			return
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
	if err := r.Err(); err != nil {
		sendErr(ctx, lines, ingesterr.WrapShapefile(err, "feature %d of %s", n+1, a.opts.FilePath))
	}
}

// encodeDBFValue renders a date field as YYYY-MM-DD; every other type
// passes through the driver's already-textual representation.
func encodeDBFValue(fieldType byte, raw string) string {
	if fieldType == 'D' && len(raw) == 8 {
		return fmt.Sprintf("%s-%s-%s", raw[0:4], raw[4:6], raw[6:8])
	}
	return raw
}

// shapeToWKT renders the handful of shape types go-shp decodes. A nil or
// Null shape feature yields the empty string.
func shapeToWKT(s shp.Shape) string {
	switch g := s.(type) {
	case *shp.Point:
		return fmt.Sprintf("POINT(%s %s)", formatCoord(g.X), formatCoord(g.Y))
	case *shp.PointZ:
		return fmt.Sprintf("POINT Z(%s %s %s)", formatCoord(g.X), formatCoord(g.Y), formatCoord(g.Z))
	case *shp.PolyLine:
		return polyLineWKT(g.Parts, g.Points)
	case *shp.Polygon:
		return polygonWKT(g.Parts, g.Points)
	case *shp.MultiPoint:
		return multiPointWKT(g.Points)
	case *shp.Null:
		return ""
	case nil:
		return ""
	default:
		return ""
	}
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func partsOf(parts []int32, points []shp.Point, part int) []shp.Point {
	start := int(parts[part])
	end := len(points)
	if part+1 < len(parts) {
		end = int(parts[part+1])
	}
	return points[start:end]
}

func ringWKT(points []shp.Point) string {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = formatCoord(p.X) + " " + formatCoord(p.Y)
	}
	return "(" + strings.Join(coords, ",") + ")"
}

func polyLineWKT(parts []int32, points []shp.Point) string {
	if len(parts) <= 1 {
		return "LINESTRING" + ringWKT(points)
	}
	rings := make([]string, len(parts))
	for i := range parts {
		rings[i] = ringWKT(partsOf(parts, points, i))
	}
	return "MULTILINESTRING(" + strings.Join(trimParens(rings), ",") + ")"
}

func polygonWKT(parts []int32, points []shp.Point) string {
	if len(parts) <= 1 {
		return "POLYGON(" + ringWKT(points) + ")"
	}
	rings := make([]string, len(parts))
	for i := range parts {
		rings[i] = "(" + ringWKT(partsOf(parts, points, i)) + ")"
	}
	return "MULTIPOLYGON(" + strings.Join(rings, ",") + ")"
}

func multiPointWKT(points []shp.Point) string {
	return "MULTIPOINT" + ringWKT(points)
}

func trimParens(rings []string) []string {
	out := make([]string, len(rings))
	copy(out, rings)
	return out
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
