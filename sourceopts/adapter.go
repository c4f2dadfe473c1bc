package sourceopts

import (
	"context"

	"github.com/golshani-mhd/grizzle-ingest/schema"
)

// Line is one encoded CSV row handed from a Spool goroutine to its
// drainer, or the single terminal failure that replaces it.
type Line struct {
	Text string
	Err  error
}

// Adapter is the contract every source package (delimited, spreadsheet,
// shapefile, geojson, parquet, ipc, avro, restfeature) implements.
//
// Spool is the sole sender on lines: it emits one Line per row, and on
// the first unrecoverable failure sends exactly one Line{Err: ...} and
// stops sending. Spool closes lines when it returns, after success and
// after an error alike. Spool never panics; callers must drain lines
// until it is closed or the error Line arrives, whichever comes first.
type Adapter interface {
	InferSchema(ctx context.Context) (*schema.Schema, error)
	Spool(ctx context.Context, lines chan<- Line)
}
