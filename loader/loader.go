// Package loader runs the spooler/drainer pipeline: an adapter's Spool
// goroutine feeds a bounded channel, and this package drains it straight
// into a PostgreSQL COPY stream over pgx.
package loader

import (
	"context"
	"io"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/golshani-mhd/grizzle-ingest/sqlddl"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// channelCapacity bounds how far the spooler can run ahead of the
// drainer before it blocks on a send.
const channelCapacity = 1000

// Config describes how to reach the destination database.
type Config struct {
	DSN          string
	PoolMinConns int32
	PoolMaxConns int32
}

// Loader owns a pooled connection to the destination database.
type Loader struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New opens a pool per cfg. Pass a nil logger to use a no-op logger.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Loader, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, ingesterr.WrapSQL(err, "parsing DSN")
	}
	if cfg.PoolMinConns > 0 {
		pgCfg.MinConns = cfg.PoolMinConns
	}
	if cfg.PoolMaxConns > 0 {
		pgCfg.MaxConns = cfg.PoolMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, ingesterr.WrapSQL(err, "opening connection pool")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (l *Loader) Close() { l.pool.Close() }

// Result reports how a Load run went.
type Result struct {
	RowsLoaded int64
}

// Load infers no schema of its own: sch is the already-inferred schema
// (from adapter.InferSchema) that the destination table is created from.
// Load creates the destination table, starts the adapter's spooler
// goroutine, and streams every row it produces into a COPY ... FROM
// STDIN.
//
// Spooling and draining run concurrently: the spooler is the sole
// sender on lines, and Load is the sole receiver. On the first error
// from either side, Load cancels the shared context so the spooler's
// blocking send unblocks via its own ctx.Done() case, then keeps
// draining (discarding) whatever the spooler was mid-flight on so its
// goroutine is never leaked — without letting that drain mutate the
// already-decided return error.
func (l *Loader) Load(ctx context.Context, adapter sourceopts.Adapter, sch *schema.Schema) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan sourceopts.Line, channelCapacity)
	go adapter.Spool(ctx, lines)

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		drain(lines)
		return Result{}, ingesterr.WrapSQL(err, "acquiring connection")
	}
	defer conn.Release()

	createSQL, err := sqlddl.BuildCreateTable("", sch)
	if err != nil {
		cancel()
		drain(lines)
		return Result{}, ingesterr.WrapSQL(err, "building create table for %s", sch.TableName)
	}
	if _, err := conn.Exec(ctx, createSQL); err != nil {
		cancel()
		drain(lines)
		return Result{}, ingesterr.WrapSQL(err, "creating table for %s", sch.TableName)
	}

	copyOpts := sqlddl.NewCopyOptions("", sch.TableName, sch.ColumnNames())
	copySQL := sqlddl.BuildCopyStatement(copyOpts, outputFormatHints())

	pr, pw := io.Pipe()
	writeErrCh := make(chan error, 1)
	go func() {
		streamErr := streamLines(cancel, lines, pw)
		writeErrCh <- streamErr
		if streamErr != nil {
			pw.CloseWithError(streamErr)
			return
		}
		pw.Close()
	}()

	tag, copyErr := conn.Conn().PgConn().CopyFrom(ctx, pr, copySQL)
	writeErr := <-writeErrCh

	if copyErr != nil {
		l.logger.Warn("copy into destination table failed", zap.String("table", sch.TableName), zap.Error(copyErr))
		if writeErr != nil {
			l.logger.Warn("spooler also reported an error during the aborted copy", zap.Error(writeErr))
		}
		return Result{}, ingesterr.WrapSQL(copyErr, "copy into %s", sch.TableName)
	}
	if writeErr != nil {
		return Result{}, writeErr
	}

	return Result{RowsLoaded: tag.RowsAffected()}, nil
}

// outputFormatHints is always the canonical re-encoded stream format
// every adapter's Spool emits: comma-delimited, no header line, quote
// and doubled-quote escaping. Per-source FormatHints describe the
// *input* dialect an adapter reads, not the COPY stream it writes.
func outputFormatHints() sqlddl.FormatHints {
	return sqlddl.FormatHints{Delimiter: ',', Header: false, Qualified: true}
}

// streamLines writes every Line's already-encoded text to w until lines
// closes, cancelling on the first error from either the adapter or the
// write side so the spooler goroutine does not block forever, and then
// draining anything still pending without letting it change firstErr.
func streamLines(cancel context.CancelFunc, lines <-chan sourceopts.Line, w io.Writer) error {
	var firstErr error
	for line := range lines {
		if firstErr != nil {
			continue
		}
		if line.Err != nil {
			firstErr = line.Err
			cancel()
			continue
		}
		if _, err := io.WriteString(w, line.Text); err != nil {
			firstErr = ingesterr.WrapIO(err, "writing row to copy stream")
			cancel()
		}
	}
	return firstErr
}

// drain discards every pending line without interpreting it, used when
// Load fails before a streamLines goroutine has been started.
func drain(lines <-chan sourceopts.Line) {
	for range lines {
	}
}
