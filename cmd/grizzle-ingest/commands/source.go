package commands

import (
	"os"

	"github.com/golshani-mhd/grizzle-ingest/adapters/avro"
	"github.com/golshani-mhd/grizzle-ingest/adapters/delimited"
	"github.com/golshani-mhd/grizzle-ingest/adapters/geojson"
	"github.com/golshani-mhd/grizzle-ingest/adapters/ipc"
	"github.com/golshani-mhd/grizzle-ingest/adapters/parquet"
	"github.com/golshani-mhd/grizzle-ingest/adapters/restfeature"
	"github.com/golshani-mhd/grizzle-ingest/adapters/shapefile"
	"github.com/golshani-mhd/grizzle-ingest/adapters/spreadsheet"
	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"gopkg.in/yaml.v3"
)

// loadSourceDoc reads a YAML source-options document (see sourceopts.Dispatch)
// from path into the generic shape Dispatch expects.
func loadSourceDoc(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ingesterr.WrapIO(err, "reading source document %s", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, ingesterr.WrapFormat(err, "parsing source document %s", path)
	}
	return doc, nil
}

// buildAdapter maps a dispatched SourceOptions to its concrete Adapter.
func buildAdapter(opts sourceopts.SourceOptions) (sourceopts.Adapter, error) {
	switch o := opts.(type) {
	case sourceopts.DelimitedOptions:
		return delimited.New(o), nil
	case sourceopts.SpreadsheetOptions:
		return spreadsheet.New(o), nil
	case sourceopts.ShapefileOptions:
		return shapefile.New(o), nil
	case sourceopts.GeoJSONOptions:
		return geojson.New(o), nil
	case sourceopts.ParquetOptions:
		return parquet.New(o), nil
	case sourceopts.IPCOptions:
		return ipc.New(o), nil
	case sourceopts.AvroOptions:
		return avro.New(o), nil
	case sourceopts.RESTOptions:
		return restfeature.New(o), nil
	default:
		return nil, ingesterr.NewGeneric("no adapter registered for source kind %q", opts.Kind())
	}
}

func resolveSource(path string) (sourceopts.Adapter, error) {
	doc, err := loadSourceDoc(path)
	if err != nil {
		return nil, err
	}
	opts, err := sourceopts.Dispatch(doc)
	if err != nil {
		return nil, err
	}
	return buildAdapter(opts)
}
