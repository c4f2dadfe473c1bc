package sqlddl

import (
	"fmt"
	"strings"
)

// FormatHints describes the CSV dialect a source adapter's input uses:
// every kind but delimited uses comma/no-header/qualified; delimited uses
// its configured delimiter with a mandatory header.
type FormatHints struct {
	Delimiter rune
	Header    bool
	Qualified bool
}

// CopyOptions is the destination descriptor: the qualified table name and
// the ordered column list COPY targets.
type CopyOptions struct {
	QualifiedTableName string
	ColumnNames        []string
}

// NewCopyOptions quotes table and each column name.
func NewCopyOptions(dbSchema, table string, columns []string) CopyOptions {
	qualified := quote(table)
	if dbSchema != "" {
		qualified = quote(dbSchema) + "." + qualified
	}
	return CopyOptions{QualifiedTableName: qualified, ColumnNames: columns}
}

// BuildCopyStatement renders a
// `COPY <table> ("col1","col2",…) FROM STDIN WITH (...)` statement: FORMAT
// csv, DELIMITER, HEADER, NULL '', plus QUOTE/ESCAPE when the source is
// quote-qualified.
func BuildCopyStatement(opts CopyOptions, hints FormatHints) string {
	quotedCols := make([]string, len(opts.ColumnNames))
	for i, c := range opts.ColumnNames {
		quotedCols[i] = quote(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s (%s) FROM STDIN WITH (FORMAT csv, DELIMITER '%c', HEADER %t, NULL ''",
		opts.QualifiedTableName, strings.Join(quotedCols, ","), hints.Delimiter, hints.Header)
	if hints.Qualified {
		b.WriteString(`, QUOTE '"', ESCAPE '"'`)
	}
	b.WriteString(")")
	return b.String()
}
