package genotype

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LocateHeader finds the first row whose first cell is the header marker and
// returns the rows below it as a Table. Rows above the header are run metadata.
func LocateHeader(rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(row[0]) != HeaderMarker {
			continue
		}
		header := make([]string, len(row))
		for j, h := range row {
			header[j] = strings.TrimSpace(h)
		}
		return &Table{Header: header, Rows: rows[i+1:]}, nil
	}
	return nil, &MissingHeaderError{Marker: HeaderMarker, Rows: len(rows)}
}

// ReadFile reads a genotyping export, choosing the format from the file name.
// .xlsx/.xlsm files are read with excelize; .csv is comma separated and
// anything else is treated as tab separated. Gzipped text is detected by
// magic bytes.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genotyping file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	lower := strings.ToLower(strings.TrimSuffix(path, ".gz"))
	sep := '\t'
	if strings.HasSuffix(lower, ".csv") {
		sep = ','
	}
	return ReadDelimited(r, sep)
}

// ReadDelimited reads a delimited text export and locates its header row.
func ReadDelimited(r io.Reader, sep rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1 // metadata rows are ragged
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read genotyping rows: %w", err)
	}
	return LocateHeader(rows)
}

// ReadXLSX reads the first sheet of an Excel genotyping export.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open genotyping workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// ReadXLSXFrom reads an Excel genotyping export from r.
func ReadXLSXFrom(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse genotyping workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Table, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("genotyping workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheetName, err)
	}
	return LocateHeader(rows)
}
