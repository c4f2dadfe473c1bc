// Package spreadsheet implements the XLS/XLSX source adapter over
// qax-os/excelize/v2.
package spreadsheet

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
	"github.com/golshani-mhd/grizzle-ingest/schema"
	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/qax-os/excelize/v2"
)

// Adapter reads one named worksheet of an XLS/XLSX workbook.
type Adapter struct {
	opts sourceopts.SpreadsheetOptions
}

// New builds a spreadsheet Adapter bound to opts.
func New(opts sourceopts.SpreadsheetOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) tableName() string {
	base := filepath.Base(a.opts.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeEscapes replaces the OOXML string escape sentinels: _x000d_
// becomes a newline, _x000a_ becomes a carriage return.
func normalizeEscapes(s string) string {
	s = strings.ReplaceAll(s, "_x000d_", "\n")
	s = strings.ReplaceAll(s, "_x000a_", "\r")
	return s
}

// canonicalizeDatetimeCell renders a datetime-typed cell as
// "YYYY-MM-DD HH:MM:SS" instead of the display string excelize.GetRows
// already applied (which follows the cell's number format and can read,
// e.g., "10/22/22" or "44856"). Cells not typed as a date pass raw
// through unchanged.
func canonicalizeDatetimeCell(f *excelize.File, sheet, cellRef, raw string) string {
	cellType, err := f.GetCellType(sheet, cellRef)
	if err != nil || cellType != excelize.CellTypeDate {
		return raw
	}

	serial, err := f.GetCellValue(sheet, cellRef, excelize.Options{RawCellValue: true})
	if err != nil {
		return raw
	}
	value, err := strconv.ParseFloat(serial, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(value, false)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02 15:04:05")
}

func (a *Adapter) openSheet() (*excelize.File, []string, error) {
	f, err := excelize.OpenFile(a.opts.FilePath)
	if err != nil {
		return nil, nil, ingesterr.WrapSpreadsheet(err, "opening %s", a.opts.FilePath)
	}

	rows, err := f.GetRows(a.opts.SheetName)
	if err != nil {
		f.Close()
		return nil, nil, ingesterr.WrapSpreadsheet(err, "sheet %q not found in %s", a.opts.SheetName, a.opts.FilePath)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, nil, ingesterr.WrapSpreadsheet(nil, "sheet %q in %s is empty", a.opts.SheetName, a.opts.FilePath)
	}
	return f, rows[0], nil
}

// InferSchema reads the first row of the named sheet as header strings,
// after escape normalization. All columns are typed Text.
func (a *Adapter) InferSchema(ctx context.Context) (*schema.Schema, error) {
	f, header, err := a.openSheet()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cols := make([]schema.ColumnMetadata, len(header))
	for i, h := range header {
		col, err := schema.NewColumnMetadata(normalizeEscapes(h), schema.Text)
		if err != nil {
			return nil, schema.ValidationError("header column", err)
		}
		cols[i] = col
	}
	return schema.NewSchema(a.tableName(), cols)
}

// Spool streams every row below the header. A row whose width differs
// from the header aborts the spool naming the row index; a cell-level
// read error propagates as a "Cell error" message naming the cell.
func (a *Adapter) Spool(ctx context.Context, lines chan<- sourceopts.Line) {
	defer close(lines)

	f, err := excelize.OpenFile(a.opts.FilePath)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapSpreadsheet(err, "opening %s", a.opts.FilePath))
		return
	}
	defer f.Close()

	rows, err := f.GetRows(a.opts.SheetName)
	if err != nil {
		sendErr(ctx, lines, ingesterr.WrapSpreadsheet(err, "sheet %q not found in %s", a.opts.SheetName, a.opts.FilePath))
		return
	}
	if len(rows) == 0 {
		sendErr(ctx, lines, ingesterr.WrapSpreadsheet(nil, "sheet %q in %s is empty", a.opts.SheetName, a.opts.FilePath))
		return
	}
	width := len(rows[0])

	for rowIdx, row := range rows[1:] {
		if len(row) != width {
			sendErr(ctx, lines, ingesterr.WrapSpreadsheet(nil, "row %d of sheet %q has %d cells, expected %d", rowIdx+2, a.opts.SheetName, len(row), width))
			return
		}

		cells := make([]string, width)
		for i, raw := range row {
			cellRef, cellErr := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			if cellErr != nil {
				sendErr(ctx, lines, ingesterr.WrapSpreadsheet(cellErr, "Cell error at row %d column %d", rowIdx+2, i+1))
				return
			}
			if strings.HasPrefix(raw, "#") && isExcelError(raw) {
				sendErr(ctx, lines, ingesterr.WrapSpreadsheet(nil, "Cell error at %s: %s", cellRef, raw))
				return
			}
			raw = canonicalizeDatetimeCell(f, a.opts.SheetName, cellRef, raw)
			cells[i] = schema.EncodeCell(normalizeEscapes(raw), true)
		}

		select {
		case <-ctx.Done():
			return
		case lines <- sourceopts.Line{Text: schema.EncodeRow(cells)}:
		}
	}
}

var excelErrorCodes = []string{"#N/A", "#VALUE!", "#REF!", "#DIV/0!", "#NUM!", "#NAME?", "#NULL!"}

func isExcelError(s string) bool {
	for _, code := range excelErrorCodes {
		if s == code {
			return true
		}
	}
	return false
}

func sendErr(ctx context.Context, lines chan<- sourceopts.Line, err error) {
	select {
	case <-ctx.Done():
	case lines <- sourceopts.Line{Err: err}:
	}
}
