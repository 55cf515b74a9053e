package source

import (
	"fmt"
	"os"

	"github.com/extrame/xls"
)

// xlsMaxCols is the BIFF8 column limit.
const xlsMaxCols = 256

type xlsReader struct{}

// Read parses the first sheet of a legacy BIFF workbook.
func (xlsReader) Read(path string) (t *Table, err error) {
	// The BIFF decoder panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("parse xls %s: %v", path, r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	defer file.Close()

	wb, err := xls.OpenReader(file, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("no workbook stream in xls file %s", path)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no sheets found in xls file %s", path)
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		records = append(records, xlsRecord(xlsRow(sheet, i)))
	}
	return newTable(records), nil
}

// xlsRow returns row i, or nil when the sheet has no cells on it.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// xlsRecord flattens a row into cell text. Rows built from cells alone
// carry no column bounds, so every column is scanned and trailing
// empties are dropped.
func xlsRecord(row *xls.Row) []string {
	if row == nil {
		return nil
	}
	record := make([]string, xlsMaxCols)
	last := -1
	for c := range record {
		record[c] = row.Col(c)
		if record[c] != "" {
			last = c
		}
	}
	return record[:last+1]
}
