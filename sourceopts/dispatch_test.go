package sourceopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRESTByURL(t *testing.T) {
	opts, err := Dispatch(map[string]any{"url": "https://example.com/arcgis/rest/services/Parcels/FeatureServer/0"})
	require.NoError(t, err)
	require.Equal(t, KindREST, opts.Kind())
}

func TestDispatchByExtension(t *testing.T) {
	cases := map[string]Kind{
		"data.avro":    KindAvro,
		"data.csv":     KindDelimited,
		"data.txt":     KindDelimited,
		"data.xlsx":    KindSpreadsheet,
		"data.xls":     KindSpreadsheet,
		"data.geojson": KindGeoJSON,
		"data.ipc":     KindIPC,
		"data.feather": KindIPC,
		"data.parquet": KindParquet,
		"data.shp":     KindShapefile,
	}
	for path, want := range cases {
		opts, err := Dispatch(map[string]any{"file_path": path})
		require.NoError(t, err, path)
		assert.Equal(t, want, opts.Kind(), path)
	}
}

func TestDispatchUnrecognizedExtension(t *testing.T) {
	_, err := Dispatch(map[string]any{"file_path": "data.xyz"})
	assert.Error(t, err)
}

func TestDispatchMissingBothKeys(t *testing.T) {
	_, err := Dispatch(map[string]any{})
	assert.Error(t, err)
}

func TestDispatchDelimitedCustomDelimiter(t *testing.T) {
	opts, err := Dispatch(map[string]any{"file_path": "data.csv", "delimiter": "|", "qualified": true})
	require.NoError(t, err)
	d, ok := opts.(DelimitedOptions)
	require.True(t, ok)
	assert.Equal(t, '|', d.Delimiter)
	assert.True(t, d.Qualified)
	assert.True(t, d.FormatHints().Header)
}

func TestNonDelimitedFormatHintsAreCommaNoHeaderQualified(t *testing.T) {
	opts := []SourceOptions{
		SpreadsheetOptions{FilePath: "a.xlsx"},
		ShapefileOptions{FilePath: "a.shp"},
		GeoJSONOptions{FilePath: "a.geojson"},
		ParquetOptions{FilePath: "a.parquet"},
		IPCOptions{FilePath: "a.ipc"},
		AvroOptions{FilePath: "a.avro"},
		RESTOptions{URL: "https://example.com"},
	}
	for _, o := range opts {
		hints := o.FormatHints()
		assert.Equal(t, ',', hints.Delimiter)
		assert.False(t, hints.Header)
		assert.True(t, hints.Qualified)
	}
}
