package source

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

// Read parses the first sheet of the workbook.
func (xlsxReader) Read(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in xlsx file")
	}

	// Raw values keep number formats such as "#,##0" out of the ids.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return newTable(rows), nil
}
