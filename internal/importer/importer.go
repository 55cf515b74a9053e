// Package importer loads household rows from a spreadsheet into the
// households table, replacing what was there, and prints the table back.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dukerupert/householdimport/internal/config"
	"github.com/dukerupert/householdimport/internal/database"
	"github.com/dukerupert/householdimport/internal/model"
	"github.com/dukerupert/householdimport/internal/source"
	"github.com/dukerupert/householdimport/internal/store"
)

// Required source columns, matched exactly.
const (
	ColumnID   = "HouseholdId"
	ColumnName = "name"
)

var RequiredColumns = []string{ColumnID, ColumnName}

// ErrInit marks an import that failed before reading because the table
// could not be created. Callers treat it as fatal.
var ErrInit = errors.New("initialize households table")

// Importer runs the init, import and list operations. Each operation opens
// the database and closes it again before returning.
type Importer struct {
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

func New(cfg *config.Config, out io.Writer, logger *slog.Logger) *Importer {
	return &Importer{cfg: cfg, out: out, logger: logger}
}

// Result describes one import attempt. Err is nil on success and an *Error otherwise.
type Result struct {
	Source   string
	Columns  []string
	Missing  []string
	RowsRead int
	RowsKept int
	Removed  int64
	Imported int
	Sample   []model.Household
	Err      error
}

func (r *Result) OK() bool {
	return r.Err == nil
}

// Kind returns the failure kind, or KindNone on success.
func (r *Result) Kind() Kind {
	return KindOf(r.Err)
}

// Init ensures the households table exists.
func (im *Importer) Init(ctx context.Context) error {
	if err := im.ensureTable(ctx); err != nil {
		return fail(KindStorage, err)
	}
	fmt.Fprintln(im.out, "Households table created or already exists.")
	return nil
}

func (im *Importer) ensureTable(ctx context.Context) error {
	db, err := database.Open(im.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	im.logger.DebugContext(ctx, "households table ready", "db", im.cfg.DBPath)
	return nil
}

// Locate returns the file auto-detection would import from the configured
// downloads directory.
func (im *Importer) Locate() (string, error) {
	return source.Locate(im.cfg.DownloadsDir)
}

// Import replaces the households table with the rows of the file at path.
// An empty path imports the newest supported file in the downloads
// directory. The table is left untouched unless the file parses and
// validates.
func (im *Importer) Import(ctx context.Context, path string) *Result {
	res := &Result{Source: path}
	res.Err = im.run(ctx, res)
	if res.Err != nil {
		im.logger.ErrorContext(ctx, "import failed", "kind", KindOf(res.Err), "source", res.Source, "error", res.Err)
	}
	return res
}

func (im *Importer) run(ctx context.Context, res *Result) error {
	if err := im.ensureTable(ctx); err != nil {
		fmt.Fprintf(im.out, "Error creating households table: %v\n", err)
		return fail(KindStorage, fmt.Errorf("%w: %w", ErrInit, err))
	}
	fmt.Fprintln(im.out, "Households table created or already exists.")

	if res.Source == "" {
		path, err := im.Locate()
		if errors.Is(err, source.ErrNotFound) {
			fmt.Fprintf(im.out, "No spreadsheet file found in %s.\n", im.cfg.DownloadsDir)
			fmt.Fprintln(im.out, "Please specify a file path or place a .xlsx, .xls, or .csv file in your Downloads folder.")
			return fail(KindNotFound, err)
		}
		if err != nil {
			fmt.Fprintf(im.out, "Error locating spreadsheet: %v\n", err)
			return fail(KindRead, err)
		}
		fmt.Fprintf(im.out, "Found spreadsheet: %s\n", path)
		res.Source = path
	}

	tbl, err := source.Read(res.Source)
	if errors.Is(err, source.ErrUnsupportedFormat) {
		fmt.Fprintf(im.out, "Unsupported file type: %s\n", filepath.Ext(res.Source))
		return fail(KindUnsupportedFormat, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(im.out, "File not found: %s\n", res.Source)
		return fail(KindNotFound, err)
	}
	if err != nil {
		fmt.Fprintf(im.out, "Error importing data: %v\n", err)
		return fail(KindRead, err)
	}
	res.Columns = tbl.Columns
	res.RowsRead = len(tbl.Rows)
	fmt.Fprintf(im.out, "Successfully read %d rows from %s\n", res.RowsRead, res.Source)
	fmt.Fprintf(im.out, "Columns found: %s\n", formatColumns(tbl.Columns))

	for _, col := range RequiredColumns {
		if tbl.Index(col) < 0 {
			res.Missing = append(res.Missing, col)
		}
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(im.out, "Missing required columns: %s\n", formatColumns(res.Missing))
		fmt.Fprintf(im.out, "Available columns: %s\n", formatColumns(tbl.Columns))
		return fail(KindSchemaMismatch, fmt.Errorf("missing required columns %s", strings.Join(res.Missing, ", ")))
	}

	households, err := clean(tbl)
	if err != nil {
		fmt.Fprintf(im.out, "Error importing data: %v\n", err)
		return fail(KindInvalidData, err)
	}
	res.RowsKept = len(households)
	fmt.Fprintf(im.out, "After cleaning: %d rows to import\n", res.RowsKept)

	return im.replace(ctx, res, households)
}

func (im *Importer) replace(ctx context.Context, res *Result, households []model.Household) error {
	db, err := database.Open(im.cfg.DBPath)
	if err != nil {
		fmt.Fprintf(im.out, "Error importing data: %v\n", err)
		return fail(KindStorage, err)
	}
	defer db.Close()
	hs := store.NewHouseholdStore(db)

	res.Removed, err = hs.Replace(ctx, households)
	if err != nil {
		fmt.Fprintf(im.out, "Error importing data: %v\n", err)
		return fail(KindStorage, err)
	}
	fmt.Fprintf(im.out, "Cleared %d existing households\n", res.Removed)
	im.logger.InfoContext(ctx, "households replaced", "source", res.Source, "removed", res.Removed, "inserted", len(households))

	res.Imported, err = hs.Count(ctx)
	if err != nil {
		fmt.Fprintf(im.out, "Error verifying import: %v\n", err)
		return fail(KindStorage, err)
	}
	fmt.Fprintf(im.out, "Successfully imported %d households into the database\n", res.Imported)

	res.Sample, err = hs.Sample(ctx, im.cfg.SampleSize)
	if err != nil {
		fmt.Fprintf(im.out, "Error verifying import: %v\n", err)
		return fail(KindStorage, err)
	}
	if len(res.Sample) > 0 {
		fmt.Fprintln(im.out, "\nSample of imported data:")
		for _, h := range res.Sample {
			fmt.Fprintf(im.out, "ID: %d, Name: %s\n", h.ID, h.Name)
		}
	}
	return nil
}

// clean keeps rows where both required columns hold a value, in input order.
func clean(tbl *source.Table) ([]model.Household, error) {
	idCol, nameCol := tbl.Index(ColumnID), tbl.Index(ColumnName)

	var households []model.Household
	for i := range tbl.Rows {
		rawID, ok := tbl.Value(i, idCol)
		if !ok {
			continue
		}
		name, ok := tbl.Value(i, nameCol)
		if !ok {
			continue
		}
		id, err := parseID(rawID)
		if err != nil {
			// Row numbers are 1-based and count the header line.
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		households = append(households, model.Household{ID: id, Name: name})
	}
	return households, nil
}

// parseID accepts integer text and integral floats, which is how
// spreadsheets usually store whole numbers.
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s %q is not an integer", ColumnID, s)
	}
	return int64(f), nil
}

func formatColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = strconv.Quote(c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
