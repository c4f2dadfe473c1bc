// Package restfeature implements the ArcGIS-style REST feature-service
// source adapter.
package restfeature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

const maxRetryAttempts = 5

// Adapter queries an ArcGIS-style REST feature service, paginating either
// by offset or by object-id window depending on advertised capabilities.
type Adapter struct {
	opts   sourceopts.RESTOptions
	client *http.Client
}

// New builds a REST Adapter bound to opts, using http.DefaultClient.
func New(opts sourceopts.RESTOptions) *Adapter {
	return &Adapter{opts: opts, client: http.DefaultClient}
}

type serviceField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Alias string `json:"alias"`
}

type advancedQueryCapabilities struct {
	SupportsPagination bool `json:"supportsPagination"`
	SupportsStatistics bool `json:"supportsStatistics"`
}

type serviceMetadata struct {
	Name                      string                    `json:"name"`
	Type                      string                    `json:"type"`
	ObjectIDField             string                    `json:"objectIdField"`
	GeometryType              string                    `json:"geometryType"`
	MaxRecordCount            int                       `json:"maxRecordCount"`
	SupportsPagination        bool                      `json:"supportsPagination"`
	SupportsStatistics        bool                      `json:"supportsStatistics"`
	SupportedQueryFormats     string                    `json:"supportedQueryFormats"`
	AdvancedQueryCapabilities advancedQueryCapabilities `json:"advancedQueryCapabilities"`
	Fields                    []serviceField            `json:"fields"`
}

func (m serviceMetadata) paginationSupported() bool {
	return m.SupportsPagination || m.AdvancedQueryCapabilities.SupportsPagination
}

func (m serviceMetadata) statisticsSupported() bool {
	return m.SupportsStatistics || m.AdvancedQueryCapabilities.SupportsStatistics
}

func (m serviceMetadata) isTable() bool {
	return strings.EqualFold(m.Type, "Table")
}

func (m serviceMetadata) prefersGeoJSON() bool {
	return strings.Contains(strings.ToLower(m.SupportedQueryFormats), "geojson")
}

func (m serviceMetadata) scrapeCount() int {
	c := m.MaxRecordCount
	if c <= 0 || c > 10000 {
		c = 10000
	}
	return c
}

// normalizeFieldType strips the ArcGIS "esriFieldType" prefix if present,
// so the simplified type names (Date, Double, ...) match either form.
func normalizeFieldType(t string) string {
	return strings.TrimPrefix(t, "esriFieldType")
}

// fieldColumnType maps a normalized ArcGIS field type name to a ColumnType.
func fieldColumnType(normalized string) (schema.ColumnType, error) {
	switch normalized {
	case "Date":
		return schema.Date, nil
	case "Double":
		return schema.DoublePrecision, nil
	case "Float", "Single":
		return schema.Real, nil
	case "GlobalID", "GUID":
		return schema.UUID, nil
	case "Integer", "OID":
		return schema.Integer, nil
	case "SmallInteger":
		return schema.SmallInt, nil
	case "String", "XML":
		return schema.Text, nil
	default:
		return schema.Text, nil
	}
}

// InferSchema fetches the layer's metadata document and derives columns
// from its field list, appending a trailing geometry column unless the
// service is a plain table.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	meta, err := a.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}

	var cols []schema.ColumnMetadata
	for _, f := range meta.Fields {
		norm := normalizeFieldType(f.Type)
		if norm == "Geometry" || f.Name == "Shape" {
			continue
		}
		if norm == "Blob" || norm == "Raster" {
			return nil, ingesterr.WrapGeneric(nil, "field %q has unsupported type %q", f.Name, f.Type)
		}
		ct, err := fieldColumnType(norm)
		if err != nil {
			return nil, err
		}
		col, err := schema.NewColumnMetadata(f.Name, ct)
		if err != nil {
			return nil, schema.ValidationError("rest feature field", err)
		}
		cols = append(cols, col)
	}

	if !meta.isTable() {
		geomCol, err := schema.NewColumnMetadata("geometry", schema.Geometry)
		if err != nil {
			return nil, schema.ValidationError("geometry column", err)
		}
		cols = append(cols, geomCol)
	}

	return schema.NewSchema(meta.Name, cols)
}

// Spool paginates the service, using offset pagination when the service
// advertises it and OID-window pagination otherwise, and streams one row
// per feature.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	meta, err := a.fetchMetadata(ctx)
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}

	var attrFields []serviceField
	for _, f := range meta.Fields {
		norm := normalizeFieldType(f.Type)
		if norm == "Geometry" || f.Name == "Shape" {
			continue
		}
		attrFields = append(attrFields, f)
	}

	count := meta.scrapeCount()

	if meta.paginationSupported() {
		a.spoolOffsetMode(ctx, lines, meta, attrFields, count)
		return
	}
	a.spoolOIDWindowMode(ctx, lines, meta, attrFields, count)
}

func (a *Adapter) spoolOffsetMode(ctx context.Context, lines chan<- sourceopts.Line, meta serviceMetadata, attrFields []serviceField, count int) {
	total, err := a.fetchTotalCount(ctx, meta)
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}

	for i := 0; total-i*count > 0; i++ {
		params := a.baseQueryParams(meta, attrFields)
		params.Set("resultOffset", strconv.Itoa(i*count))
		params.Set("resultRecordCount", strconv.Itoa(count))

		if !a.runQuery(ctx, lines, meta, attrFields, params) {
			return
		}
	}
}

func (a *Adapter) spoolOIDWindowMode(ctx context.Context, lines chan<- sourceopts.Line, meta serviceMetadata, attrFields []serviceField, count int) {
	if meta.ObjectIDField == "" {
		sendErr(ctx, lines, ingesterr.NewGeneric("OID-window pagination requires an object-id field"))
		return
	}

	minID, maxID, err := a.fetchOIDRange(ctx, meta)
	if err != nil {
		sendErr(ctx, lines, err)
		return
	}

	for lo := minID; lo <= maxID; lo += count {
		hi := lo + count - 1
		params := a.baseQueryParams(meta, attrFields)
		params.Set("where", fmt.Sprintf("%s BETWEEN %d AND %d", meta.ObjectIDField, lo, hi))

		if !a.runQuery(ctx, lines, meta, attrFields, params) {
			return
		}
	}
}

// runQuery executes one page query and streams its rows; it returns
// false if the spool should stop (error already reported).
func (a *Adapter) runQuery(ctx context.Context, lines chan<- sourceopts.Line, meta serviceMetadata, attrFields []serviceField, params url.Values) bool {
	queryURL := a.queryURL(meta)
	body, err := a.doRequest(ctx, queryURL+"?"+params.Encode())
	if err != nil {
		sendErr(ctx, lines, err)
		return false
	}

	rows, err := parseFeatureResponse(body)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapGeoJSON(err, "parsing response from %s", queryURL))
		return false
	}

	for _, row := range rows {
		cells := make([]string, 0, len(attrFields)+1)
		for _, f := range attrFields {
			v, present := row.attrs[f.Name]
			text, valid := renderAttr(v, normalizeFieldType(f.Type))
			cells = append(cells, schema.EncodeCell(text, present && valid))
		}
		if !meta.isTable() {
			cells = append(cells, schema.EncodeCell(row.geomWKT, row.hasGeom))
		}

		select {
		case <-ctx.Done():
			return false
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
	return true
}

func (a *Adapter) baseQueryParams(meta serviceMetadata, attrFields []serviceField) url.Values {
	params := url.Values{}
	params.Set("where", "1=1")
	if meta.prefersGeoJSON() {
		params.Set("f", "geojson")
	} else {
		params.Set("f", "json")
	}

	names := make([]string, len(attrFields))
	for i, f := range attrFields {
		names[i] = f.Name
	}
	params.Set("outFields", strings.Join(names, ","))

	if !meta.isTable() {
		params.Set("geometryType", meta.GeometryType)
		params.Set("outSR", "4269")
	}
	return params
}

// renderAttr renders one attribute value as canonical cell text. GUID/
// GlobalID fields route through google/uuid so ArcGIS's brace-wrapped
// literal ("{E426CF02-...}") normalizes to the same lowercase, unbraced
// form every other UUID column in the core uses. A value that fails to
// parse as a UUID is reported invalid rather than passed through
// malformed.
func renderAttr(v any, normalizedType string) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		if normalizedType == "GlobalID" || normalizedType == "GUID" {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case string:
		if normalizedType == "GlobalID" || normalizedType == "GUID" {
			id, err := uuid.Parse(t)
			if err != nil {
				return "", false
			}
			return id.String(), true
		}
		return t, true
	default:
		text, err := schema.EncodeJSONValue(v)
		if err != nil {
			return "", false
		}
		return text, true
	}
}

type featureRow struct {
	attrs   map[string]any
	geomWKT string
	hasGeom bool
}

func parseFeatureResponse(body []byte) ([]featureRow, error) {
	var probe struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(body, &probe)

	if probe.Type == "FeatureCollection" {
		return parseGeoJSONResponse(body)
	}
	return parseArcGISJSONResponse(body)
}

func parseGeoJSONResponse(body []byte) ([]featureRow, error) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, err
	}
	rows := make([]featureRow, len(fc.Features))
	for i, f := range fc.Features {
		rows[i] = featureRow{attrs: f.Properties}
		if f.Geometry != nil {
			rows[i].geomWKT = wkt.MarshalString(f.Geometry)
			rows[i].hasGeom = true
		}
	}
	return rows, nil
}

type arcgisFeature struct {
	Attributes map[string]any  `json:"attributes"`
	Geometry   json.RawMessage `json:"geometry"`
}

type arcgisFeatureResponse struct {
	Features []arcgisFeature `json:"features"`
}

func parseArcGISJSONResponse(body []byte) ([]featureRow, error) {
	var resp arcgisFeatureResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	rows := make([]featureRow, len(resp.Features))
	for i, f := range resp.Features {
		geomWKT, hasGeom, err := arcgisGeometryToWKT(f.Geometry)
		if err != nil {
			return nil, err
		}
		rows[i] = featureRow{attrs: f.Attributes, geomWKT: geomWKT, hasGeom: hasGeom}
	}
	return rows, nil
}

type arcgisGeometry struct {
	X      *float64      `json:"x"`
	Y      *float64      `json:"y"`
	Paths  [][][2]float64 `json:"paths"`
	Rings  [][][2]float64 `json:"rings"`
	Points [][2]float64   `json:"points"`
}

func arcgisGeometryToWKT(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false, nil
	}
	var g arcgisGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return "", false, err
	}
	switch {
	case g.X != nil && g.Y != nil:
		return fmt.Sprintf("POINT(%s %s)", formatCoord(*g.X), formatCoord(*g.Y)), true, nil
	case len(g.Paths) > 0:
		return multiLineStringWKT(g.Paths), true, nil
	case len(g.Rings) > 0:
		return polygonWKT(g.Rings), true, nil
	case len(g.Points) > 0:
		return multiPointWKT(g.Points), true, nil
	default:
		return "", false, nil
	}
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func ringWKT(ring [][2]float64) string {
	coords := make([]string, len(ring))
	for i, p := range ring {
		coords[i] = formatCoord(p[0]) + " " + formatCoord(p[1])
	}
	return "(" + strings.Join(coords, ",") + ")"
}

func multiLineStringWKT(paths [][][2]float64) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = ringWKT(p)
	}
	return "MULTILINESTRING(" + strings.Join(parts, ",") + ")"
}

func polygonWKT(rings [][][2]float64) string {
	parts := make([]string, len(rings))
	for i, r := range rings {
		parts[i] = ringWKT(r)
	}
	return "MULTIPOLYGON(" + strings.Join(wrapEach(parts), ",") + ")"
}

func wrapEach(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = "(" + p + ")"
	}
	return out
}

func multiPointWKT(points [][2]float64) string {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = formatCoord(p[0]) + " " + formatCoord(p[1])
	}
	return "MULTIPOINT(" + strings.Join(coords, ",") + ")"
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}

// --- HTTP plumbing ---

func (a *Adapter) fetchMetadata(ctx context.Context) (serviceMetadata, error) {
	body, err := a.doRequest(ctx, a.opts.URL+"?f=json")
	if err != nil {
		return serviceMetadata{}, err
	}
	var meta serviceMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return serviceMetadata{}, ingesterr.WrapJSON(err, "parsing metadata from %s", a.opts.URL)
	}
	return meta, nil
}

func (a *Adapter) fetchTotalCount(ctx context.Context, meta serviceMetadata) (int, error) {
	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("returnCountOnly", "true")
	params.Set("f", "json")

	body, err := a.doRequest(ctx, a.queryURL(meta)+"?"+params.Encode())
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, ingesterr.WrapJSON(err, "parsing count response from %s", a.queryURL(meta))
	}
	return out.Count, nil
}

func (a *Adapter) fetchOIDRange(ctx context.Context, meta serviceMetadata) (int, int, error) {
	if meta.statisticsSupported() {
		return a.fetchOIDRangeByStatistics(ctx, meta)
	}
	return a.fetchOIDRangeByIDList(ctx, meta)
}

func (a *Adapter) fetchOIDRangeByStatistics(ctx context.Context, meta serviceMetadata) (int, int, error) {
	stats := []map[string]string{
		{"statisticType": "max", "onStatisticField": meta.ObjectIDField, "outStatisticFieldName": "MAX_VALUE"},
		{"statisticType": "min", "onStatisticField": meta.ObjectIDField, "outStatisticFieldName": "MIN_VALUE"},
	}
	encoded, err := json.Marshal(stats)
	if err != nil {
		return 0, 0, ingesterr.WrapJSON(err, "encoding outStatistics for %s", meta.Name)
	}

	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("outStatistics", string(encoded))
	params.Set("f", "json")

	body, err := a.doRequest(ctx, a.queryURL(meta)+"?"+params.Encode())
	if err != nil {
		return 0, 0, err
	}

	var out struct {
		Features []struct {
			Attributes struct {
				MaxValue float64 `json:"MAX_VALUE"`
				MinValue float64 `json:"MIN_VALUE"`
			} `json:"attributes"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Features) == 0 {
		return 0, 0, ingesterr.WrapJSON(err, "parsing statistics response from %s", a.queryURL(meta))
	}
	return int(out.Features[0].Attributes.MinValue), int(out.Features[0].Attributes.MaxValue), nil
}

func (a *Adapter) fetchOIDRangeByIDList(ctx context.Context, meta serviceMetadata) (int, int, error) {
	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("returnIdsOnly", "true")
	params.Set("f", "json")

	body, err := a.doRequest(ctx, a.queryURL(meta)+"?"+params.Encode())
	if err != nil {
		return 0, 0, err
	}

	var out struct {
		ObjectIDs []int `json:"objectIds"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, 0, ingesterr.WrapJSON(err, "parsing id-list response from %s", a.queryURL(meta))
	}
	if len(out.ObjectIDs) == 0 {
		return 0, 0, ingesterr.NewGeneric("service %s returned no object ids", meta.Name)
	}

	minID, maxID := out.ObjectIDs[0], out.ObjectIDs[0]
	for _, id := range out.ObjectIDs {
		if id < minID {
			minID = id
		}
		if id > maxID {
			maxID = id
		}
	}
	return minID, maxID, nil
}

func (a *Adapter) queryURL(meta serviceMetadata) string {
	return strings.TrimRight(a.opts.URL, "/") + "/query"
}

// doRequest performs a GET with a 5-attempt retry budget for transient
// (non-2xx) failures; parse, network, and URL errors surface immediately.
func (a *Adapter) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		body, status, err := a.rawRequest(ctx, fullURL)
		if err != nil {
			return nil, err
		}
		if status >= 200 && status < 300 {
			return body, nil
		}
		lastErr = ingesterr.NewREST(fullURL, status, "non-2xx response from feature service")
		if attempt == maxRetryAttempts {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (a *Adapter) rawRequest(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, ingesterr.WrapURLParse(err, "building request for %s", fullURL)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, ingesterr.WrapHTTPClient(err, "requesting %s", fullURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, ingesterr.WrapHTTPClient(err, "reading response body from %s", fullURL)
	}
	return body, resp.StatusCode, nil
}
