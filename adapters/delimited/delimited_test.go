package delimited

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInferSchemaFromHeader(t *testing.T) {
	path := writeFixture(t, "parcels.csv", "Owner Name,Area,Notes\nA,1,x\n")
	a := New(sourceopts.DelimitedOptions{FilePath: path, Delimiter: ','})

	s, err := a.InferSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "parcels", s.TableName)
	assert.Equal(t, []string{"owner_name", "area", "notes"}, s.ColumnNames())
	for _, c := range s.Columns {
		assert.Equal(t, schema.Text, c.Type)
	}
}

func TestSpoolEmitsEncodedDataRows(t *testing.T) {
	path := writeFixture(t, "data.csv", "a,b\n1,\"hello, world\"\n2,plain\n")
	a := New(sourceopts.DelimitedOptions{FilePath: path, Delimiter: ','})

	lines := make(chan sourceopts.Line, 10)
	a.Spool(context.Background(), lines)

	var got []sourceopts.Line
	for l := range lines {
		got = append(got, l)
	}
	require.Len(t, got, 2)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, "1,\"hello, world\"\n", got[0].Text)
	assert.Equal(t, "2,plain\n", got[1].Text)
}

func TestSpoolEmptyFileErrors(t *testing.T) {
	path := writeFixture(t, "empty.csv", "")
	a := New(sourceopts.DelimitedOptions{FilePath: path, Delimiter: ','})
	lines := make(chan sourceopts.Line, 1)
	a.Spool(context.Background(), lines)

	got, ok := <-lines
	require.True(t, ok)
	assert.Error(t, got.Err)
}

func TestInferSchemaMissingFile(t *testing.T) {
	a := New(sourceopts.DelimitedOptions{FilePath: "/nonexistent/path.csv", Delimiter: ','})
	_, err := a.InferSchema(context.Background())
	assert.Error(t, err)
}
