package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for a file whose extension has no reader.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Reader parses a file into a Table.
type Reader interface {
	Read(path string) (*Table, error)
}

var readers = map[string]Reader{
	".xlsx": xlsxReader{},
	".xls":  xlsReader{},
	".csv":  csvReader{},
}

// ReaderFor returns the reader matching the file's extension, ignoring case.
func ReaderFor(path string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := readers[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return r, nil
}

// Read parses path with the reader registered for its extension.
func Read(path string) (*Table, error) {
	r, err := ReaderFor(path)
	if err != nil {
		return nil, err
	}
	return r.Read(path)
}
