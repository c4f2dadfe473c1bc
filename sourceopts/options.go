// Package sourceopts holds one SourceOptions variant per supported source
// kind, plus the Dispatch façade that picks the right one from a generic
// document.
package sourceopts

import "github.com/golshani-mhd/grizzle-ingest/sqlddl"

// Kind discriminates the eight supported source options variants.
type Kind string

const (
	KindDelimited   Kind = "delimited"
	KindSpreadsheet Kind = "spreadsheet"
	KindShapefile   Kind = "shapefile"
	KindGeoJSON     Kind = "geojson"
	KindParquet     Kind = "parquet"
	KindIPC         Kind = "ipc"
	KindAvro        Kind = "avro"
	KindREST        Kind = "rest"
)

// SourceOptions is implemented by every per-kind options struct. Each is
// serializable (JSON tags) so callers can persist it.
type SourceOptions interface {
	Kind() Kind
	FormatHints() sqlddl.FormatHints
}

// DelimitedOptions configures the CSV/TXT adapter.
type DelimitedOptions struct {
	FilePath  string `json:"file_path"`
	Delimiter rune   `json:"delimiter"`
	Qualified bool   `json:"qualified"`
}

func (o DelimitedOptions) Kind() Kind { return KindDelimited }
func (o DelimitedOptions) FormatHints() sqlddl.FormatHints {
	return sqlddl.FormatHints{Delimiter: o.Delimiter, Header: true, Qualified: o.Qualified}
}

// SpreadsheetOptions configures the XLS/XLSX adapter.
type SpreadsheetOptions struct {
	FilePath  string `json:"file_path"`
	SheetName string `json:"sheet_name"`
}

func (o SpreadsheetOptions) Kind() Kind { return KindSpreadsheet }
func (o SpreadsheetOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// ShapefileOptions configures the shapefile adapter; the companion .dbf is
// assumed colocated with FilePath (the .shp).
type ShapefileOptions struct {
	FilePath string `json:"file_path"`
}

func (o ShapefileOptions) Kind() Kind { return KindShapefile }
func (o ShapefileOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// GeoJSONOptions configures the GeoJSON adapter.
type GeoJSONOptions struct {
	FilePath string `json:"file_path"`
}

func (o GeoJSONOptions) Kind() Kind { return KindGeoJSON }
func (o GeoJSONOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// ParquetOptions configures the Parquet adapter.
type ParquetOptions struct {
	FilePath string `json:"file_path"`
}

func (o ParquetOptions) Kind() Kind { return KindParquet }
func (o ParquetOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// IPCOptions configures the Arrow IPC/Feather adapter.
type IPCOptions struct {
	FilePath string `json:"file_path"`
}

func (o IPCOptions) Kind() Kind { return KindIPC }
func (o IPCOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// AvroOptions configures the Avro adapter.
type AvroOptions struct {
	FilePath string `json:"file_path"`
}

func (o AvroOptions) Kind() Kind { return KindAvro }
func (o AvroOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// RESTOptions configures the ArcGIS-style REST feature-service adapter.
type RESTOptions struct {
	URL string `json:"url"`
}

func (o RESTOptions) Kind() Kind { return KindREST }
func (o RESTOptions) FormatHints() sqlddl.FormatHints {
	return commaFormatHints()
}

// commaFormatHints is shared by every non-delimited kind: comma
// delimiter, no header row, and quote-qualified.
func commaFormatHints() sqlddl.FormatHints {
	return sqlddl.FormatHints{Delimiter: ',', Header: false, Qualified: true}
}
