// Package source finds household spreadsheets on disk and parses them into
// a column-named, row-oriented Table.
package source

// Table is a parsed sheet. Columns holds the header row; each entry in Rows
// is one data row and may be shorter than Columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// naValues are cell contents treated as missing, in addition to the empty string.
var naValues = map[string]bool{
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row, col and whether it holds a value.
func (t *Table) Value(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return "", false
	}
	r := t.Rows[row]
	if col >= len(r) {
		return "", false
	}
	v := r[col]
	if IsMissing(v) {
		return "", false
	}
	return v, true
}

// IsMissing reports whether a raw cell value counts as missing. Markers
// match exactly; padded text such as " NA " is a value.
func IsMissing(v string) bool {
	return v == "" || naValues[v]
}

// newTable builds a Table from raw records, using the first non-empty
// record as the header.
func newTable(records [][]string) *Table {
	t := &Table{}
	i := 0
	for i < len(records) && isBlank(records[i]) {
		i++
	}
	if i == len(records) {
		return t
	}
	t.Columns = records[i]
	t.Rows = records[i+1:]
	return t
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
