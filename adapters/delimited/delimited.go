// Package delimited implements the CSV/TXT source adapter: header-derived
// schema inference plus row-by-row spooling with re-quoted cells.
package delimited

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
)

// Adapter reads a delimited text file whose first line is a mandatory
// header row.
type Adapter struct {
	opts sourceopts.DelimitedOptions
}

// New builds a delimited Adapter bound to opts.
func New(opts sourceopts.DelimitedOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *Adapter) newReader(f io.Reader) *csv.Reader {
	r := csv.NewReader(f)
	r.Comma = a.opts.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

// InferSchema tokenizes the header line by the configured delimiter; every
// column is typed Text. Fails if the file is empty.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		return nil, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath)
	}
	defer f.Close()

	header, err := a.newReader(f).Read()
	if err == io.EOF {
		return nil, ingesterr.WrapFormat(err, "file %s has no header row", a.opts.FilePath)
	}
	if err != nil {
		return nil, ingesterr.WrapFormat(err, "reading header of %s", a.opts.FilePath)
	}

	cols := make([]schema.ColumnMetadata, len(header))
	for i, h := range header {
		col, err := schema.NewColumnMetadata(h, schema.Text)
		if err != nil {
			return nil, schema.ValidationError("header column", err)
		}
		cols[i] = col
	}

	return schema.NewSchema(a.tableName(), cols)
}

// Spool streams every data row (the file reopened, header skipped) as a
// re-encoded canonical CSV line.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	f, err := os.Open(a.opts.FilePath)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapIO(err, "opening %s", a.opts.FilePath))
		return
	}
	defer f.Close()

	r := a.newReader(f)
	if _, err := r.Read(); err != nil {
		sendErr(ctx, lines, ingesterr.WrapFormat(err, "reading header of %s", a.opts.FilePath))
		return
	}

	lineNo := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			sendErr(ctx, lines, ingesterr.WrapFormat(err, "record %d of %s", lineNo+1, a.opts.FilePath))
			return
		}
		lineNo++

		cells := make([]string, len(record))
		for i, v := range record {
			cells[i] = schema.EncodeCell(v, true)
		}

		select {
		case <-ctx.Done():
			return
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
