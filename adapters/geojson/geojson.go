// Package geojson implements the GeoJSON source adapter over
// paulmach/orb/geojson and paulmach/orb/encoding/wkt.
package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Adapter reads a single GeoJSON FeatureCollection file.
type Adapter struct {
	opts sourceopts.GeoJSONOptions
}

// New builds a GeoJSON Adapter bound to opts.
func New(opts sourceopts.GeoJSONOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type rawFeature struct {
	Properties json.RawMessage `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type rawCollection struct {
	Features []rawFeature `json:"features"`
}

func loadRaw(path string) (*rawCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ingesterr.WrapIO(err, "opening %s", path)
	}
	var rc rawCollection
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, ingesterr.WrapGeoJSON(err, "parsing %s", path)
	}
	return &rc, nil
}

// orderedKeys walks raw's top-level JSON object tokens to recover its key
// order, which map[string]interface{} decoding would otherwise lose.
func orderedKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// classify maps a decoded JSON value to its logical ColumnType:
// bool->Boolean, number->Number, string->Text, array/object->Json. A nil
// value is unresolved (ok=false).
func classify(v any) (schema.ColumnType, bool) {
	switch v.(type) {
	case nil:
		return schema.Text, false
	case bool:
		return schema.Boolean, true
	case float64:
		return schema.Number, true
	case string:
		return schema.Text, true
	case []any, map[string]any:
		return schema.Json, true
	default:
		return schema.Text, true
	}
}

// InferSchema seeds column order from the first feature's properties and
// scans subsequent features only until every column's type resolves.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	rc, err := loadRaw(a.opts.FilePath)
	if err != nil {
		return nil, err
	}
	if len(rc.Features) == 0 {
		return nil, ingesterr.WrapGeoJSON(nil, "%s has no features", a.opts.FilePath)
	}

	order, err := orderedKeys(rc.Features[0].Properties)
	if err != nil {
		return nil, ingesterr.WrapGeoJSON(err, "reading properties of first feature in %s", a.opts.FilePath)
	}

	resolved := make(map[string]schema.ColumnType, len(order))
	for _, feat := range rc.Features {
		var props map[string]any
		if len(feat.Properties) > 0 {
			if err := json.Unmarshal(feat.Properties, &props); err != nil {
				return nil, ingesterr.WrapGeoJSON(err, "decoding properties in %s", a.opts.FilePath)
			}
		}
		allResolved := true
		for _, k := range order {
			if _, ok := resolved[k]; ok {
				continue
			}
			if v, present := props[k]; present {
				if t, ok := classify(v); ok {
					resolved[k] = t
					continue
				}
			}
			allResolved = false
		}
		if allResolved {
			break
		}
	}

	cols := make([]schema.ColumnMetadata, 0, len(order)+1)
	for _, k := range order {
		t, ok := resolved[k]
		if !ok {
			t = schema.Text
		}
		col, err := schema.NewColumnMetadata(k, t)
		if err != nil {
			return nil, schema.ValidationError("geojson property column", err)
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

// Spool re-derives the same column order InferSchema computed and streams
// one row per feature, with a trailing WKT geometry cell.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	rc, err := loadRaw(a.opts.FilePath)
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}
	if len(rc.Features) == 0 {
		sendErr(ctx, lines, ingesterr.WrapGeoJSON(nil, "%s has no features", a.opts.FilePath))
		return
	}
	order, err := orderedKeys(rc.Features[0].Properties)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapGeoJSON(err, "reading properties of first feature in %s", a.opts.FilePath))
		return
	}

	for i, feat := range rc.Features {
		var props map[string]any
		if len(feat.Properties) > 0 {
			if err := json.Unmarshal(feat.Properties, &props); err != nil {
				sendErr(ctx, lines, ingesterr.WrapGeoJSON(err, "feature %d of %s", i, a.opts.FilePath))
				return
			}
		}

		cells := make([]string, 0, len(order)+1)
		for _, k := range order {
			v, present := props[k]
			cells = append(cells, schema.EncodeCell(renderValue(v), present && v != nil))
		}

		geomWKT, valid, err := featureWKT(feat.Geometry)
		if err != nil {
			sendErr(ctx, lines, ingesterr.WrapGeoJSON(err, "feature %d geometry of %s", i, a.opts.FilePath))
			return
		}
		cells = append(cells, schema.EncodeCell(geomWKT, valid))

		select {
		case <-ctx.Done():
			return
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		text, err := schema.EncodeJSONValue(v)
		if err != nil {
			return ""
		}
		return text
	}
}

func featureWKT(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false, nil
	}
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return "", false, err
	}
	return wkt.MarshalString(geom.Geometry()), true, nil
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
