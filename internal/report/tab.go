package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/MehwishAlam/pgx/internal/resolve"
)

// TabWriter writes reports in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: Columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes a single gene/diplotype line. Empty cells are written as "-".
func (tw *TabWriter) WriteRow(r Row) error {
	values := r.Values()
	for i, v := range values {
		// Tabs or newlines inside a value would break the row.
		v = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(v)
		if v == "" {
			v = "-"
		}
		values[i] = v
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Write writes the header and every row of r, then flushes.
func (tw *TabWriter) Write(r resolve.Report) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, row := range Rows(r) {
		if err := tw.WriteRow(row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
