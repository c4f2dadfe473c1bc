package sourceopts

import (
	"path/filepath"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
)

// Dispatch picks an adapter the way generate.go picks a mode: by presence
// of a distinguishing key first, then by falling through a fixed list of
// file extensions. doc is a decoded options document (JSON/YAML); its
// shape decides the SourceOptions variant and, transitively, the Adapter.
//
// If doc has a non-empty "url" key the REST adapter is chosen. Otherwise
// "file_path"'s extension selects one of: avro, txt/csv (delimited),
// xls/xlsx (spreadsheet), geojson, ipc/feather, parquet, shp. Any other
// extension, or a document with neither key, is a "cannot choose adapter"
// error.
func Dispatch(doc map[string]any) (SourceOptions, error) {
	if url, ok := stringField(doc, "url"); ok && url != "" {
		return RESTOptions{URL: url}, nil
	}

	filePath, ok := stringField(doc, "file_path")
	if !ok || filePath == "" {
		return nil, ingesterr.NewGeneric("cannot choose adapter: document has neither url nor file_path")
	}

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), ".")); ext {
	case "avro":
		return AvroOptions{FilePath: filePath}, nil
	case "txt", "csv":
		delim, _ := runeField(doc, "delimiter", ',')
		qualified, _ := boolField(doc, "qualified", false)
		return DelimitedOptions{FilePath: filePath, Delimiter: delim, Qualified: qualified}, nil
	case "xls", "xlsx":
		sheet, _ := stringField(doc, "sheet_name")
		return SpreadsheetOptions{FilePath: filePath, SheetName: sheet}, nil
	case "geojson":
		return GeoJSONOptions{FilePath: filePath}, nil
	case "ipc", "feather":
		return IPCOptions{FilePath: filePath}, nil
	case "parquet":
		return ParquetOptions{FilePath: filePath}, nil
	case "shp":
		return ShapefileOptions{FilePath: filePath}, nil
	default:
		return nil, ingesterr.NewGeneric("cannot choose adapter: unrecognized extension %q in %q", ext, filePath)
	}
}

func stringField(doc map[string]any, key string) (string, bool) {
	v, ok := doc[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(doc map[string]any, key string, fallback bool) (bool, bool) {
	v, ok := doc[key]
	if !ok {
		return fallback, false
	}
	b, ok := v.(bool)
	if !ok {
		return fallback, false
	}
	return b, true
}

func runeField(doc map[string]any, key string, fallback rune) (rune, bool) {
	s, ok := stringField(doc, key)
	if !ok || len(s) == 0 {
		return fallback, false
	}
	return []rune(s)[0], true
}
