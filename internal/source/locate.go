package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when no supported file exists in the scanned directory.
var ErrNotFound = errors.New("no spreadsheet file found")

// Extensions lists the supported file extensions in locator priority order.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// DefaultDir returns the current user's Downloads directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// Locate returns the newest file in dir for the first extension in
// Extensions that has any match. A later extension is never considered once
// an earlier one matched, whatever the modification times.
func Locate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
	}
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, ext := range Extensions {
		var (
			newest   string
			newestAt time.Time
		)
		for _, e := range entries {
			if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ext {
				continue
			}
			info, err := e.Info()
			if err != nil {
				// Removed between ReadDir and Info.
				continue
			}
			if newest == "" || info.ModTime().After(newestAt) {
				newest = filepath.Join(dir, e.Name())
				newestAt = info.ModTime()
			}
		}
		if newest != "" {
			return newest, nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}
