package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/householdimport/internal/config"
	"github.com/dukerupert/householdimport/internal/database"
	"github.com/dukerupert/householdimport/internal/model"
	"github.com/dukerupert/householdimport/internal/source"
	"github.com/dukerupert/householdimport/internal/store"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	cfg *config.Config
	out *bytes.Buffer
	im  *Importer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	downloads := filepath.Join(dir, "Downloads")
	if err := os.Mkdir(downloads, 0o755); err != nil {
		t.Fatalf("mkdir downloads: %v", err)
	}
	cfg := &config.Config{
		DBPath:       filepath.Join(dir, "test.db"),
		DownloadsDir: downloads,
		SampleSize:   5,
	}
	out := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{cfg: cfg, out: out, im: New(cfg, out, logger)}
}

func (f *fixture) writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.cfg.DownloadsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (f *fixture) households(t *testing.T) []model.Household {
	t.Helper()
	db, err := database.Open(f.cfg.DBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	list, err := store.NewHouseholdStore(db).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return list
}

func assertHouseholds(t *testing.T, got []model.Household, want map[int64]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d households %+v, want %d", len(got), got, len(want))
	}
	for _, h := range got {
		name, ok := want[h.ID]
		if !ok {
			t.Errorf("unexpected household %d", h.ID)
			continue
		}
		if h.Name != name {
			t.Errorf("household %d name = %q, want %q", h.ID, h.Name, name)
		}
	}
}

func TestInitIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.im.Init(ctx); err != nil {
			t.Fatalf("init #%d: %v", i+1, err)
		}
	}
	if got := f.households(t); len(got) != 0 {
		t.Errorf("expected empty table, got %+v", got)
	}
}

func TestImportExplicitCSV(t *testing.T) {
	f := setup(t)
	path := f.writeCSV(t, "h.csv", "HouseholdId,name,advisor\n3,Carter,Kim\n1,Adams,Lee\n2,Baker,Kim\n")

	res := f.im.Import(context.Background(), path)
	if !res.OK() {
		t.Fatalf("import failed: %v\n%s", res.Err, f.out)
	}
	if res.RowsRead != 3 || res.RowsKept != 3 || res.Imported != 3 {
		t.Errorf("read/kept/imported = %d/%d/%d, want 3/3/3", res.RowsRead, res.RowsKept, res.Imported)
	}
	if len(res.Sample) != 3 || res.Sample[0].ID != 1 || res.Sample[2].ID != 3 {
		t.Errorf("sample = %+v, want ordered by id", res.Sample)
	}
	assertHouseholds(t, f.households(t), map[int64]string{1: "Adams", 2: "Baker", 3: "Carter"})

	out := f.out.String()
	for _, want := range []string{
		"Successfully read 3 rows",
		`Columns found: ["HouseholdId", "name", "advisor"]`,
		"After cleaning: 3 rows to import",
		"Successfully imported 3 households into the database",
		"ID: 1, Name: Adams",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestImportDropsRowsWithMissingValues(t *testing.T) {
	f := setup(t)
	path := f.writeCSV(t, "h.csv", "HouseholdId,name\n1,A\n2,\n3,C\n,D\n4,NA\n5\n")

	res := f.im.Import(context.Background(), path)
	if !res.OK() {
		t.Fatalf("import failed: %v", res.Err)
	}
	if res.RowsRead != 6 || res.RowsKept != 2 {
		t.Errorf("read/kept = %d/%d, want 6/2", res.RowsRead, res.RowsKept)
	}
	assertHouseholds(t, f.households(t), map[int64]string{1: "A", 3: "C"})
}

func TestImportMissingColumnLeavesTableUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.writeCSV(t, "first.csv", "HouseholdId,name\n1,A\n2,B\n")
	if res := f.im.Import(ctx, first); !res.OK() {
		t.Fatalf("seed import: %v", res.Err)
	}

	bad := f.writeCSV(t, "bad.csv", "HouseholdId,other\n9,Z\n")
	res := f.im.Import(ctx, bad)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Kind() != KindSchemaMismatch {
		t.Errorf("kind = %q, want %q", res.Kind(), KindSchemaMismatch)
	}
	if len(res.Missing) != 1 || res.Missing[0] != ColumnName {
		t.Errorf("missing = %v, want [name]", res.Missing)
	}
	if !strings.Contains(f.out.String(), `Missing required columns: ["name"]`) {
		t.Errorf("output missing column report:\n%s", f.out)
	}
	assertHouseholds(t, f.households(t), map[int64]string{1: "A", 2: "B"})
}

func TestImportSecondFileReplacesFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.writeCSV(t, "first.csv", "HouseholdId,name\n1,A\n2,B\n3,C\n")
	if res := f.im.Import(ctx, first); !res.OK() {
		t.Fatalf("first import: %v", res.Err)
	}

	second := f.writeCSV(t, "second.csv", "HouseholdId,name\n10,X\n11,Y\n")
	res := f.im.Import(ctx, second)
	if !res.OK() {
		t.Fatalf("second import: %v", res.Err)
	}
	if res.Removed != 3 {
		t.Errorf("removed = %d, want 3", res.Removed)
	}
	assertHouseholds(t, f.households(t), map[int64]string{10: "X", 11: "Y"})
}

func TestImportAutoDetectPrefersXLSX(t *testing.T) {
	f := setup(t)

	wb := excelize.NewFile()
	for i, row := range [][]any{{"HouseholdId", "name"}, {7, "Spreadsheet"}} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	xlsxPath := filepath.Join(f.cfg.DownloadsDir, "data.xlsx")
	if err := wb.SaveAs(xlsxPath); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	wb.Close()
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(xlsxPath, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	f.writeCSV(t, "report.csv", "HouseholdId,name\n8,Csv\n")

	res := f.im.Import(context.Background(), "")
	if !res.OK() {
		t.Fatalf("import failed: %v\n%s", res.Err, f.out)
	}
	if res.Source != xlsxPath {
		t.Errorf("source = %s, want %s", res.Source, xlsxPath)
	}
	assertHouseholds(t, f.households(t), map[int64]string{7: "Spreadsheet"})
}

func TestImportXLSXFormattedIDs(t *testing.T) {
	f := setup(t)

	wb := excelize.NewFile()
	defer wb.Close()
	style, err := wb.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range [][]any{{"HouseholdId", "name"}, {1234, "Thousands"}, {56789, "More"}} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := wb.SetCellStyle("Sheet1", "A2", "A3", style); err != nil {
		t.Fatalf("set style: %v", err)
	}
	path := filepath.Join(f.cfg.DownloadsDir, "styled.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}

	res := f.im.Import(context.Background(), path)
	if !res.OK() {
		t.Fatalf("import failed: %v\n%s", res.Err, f.out)
	}
	assertHouseholds(t, f.households(t), map[int64]string{1234: "Thousands", 56789: "More"})
}

func TestImportAutoDetectXLS(t *testing.T) {
	f := setup(t)

	data, err := os.ReadFile(filepath.Join("..", "source", "testdata", "households.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	path := filepath.Join(f.cfg.DownloadsDir, "households.xls")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("copy fixture: %v", err)
	}

	res := f.im.Import(context.Background(), "")
	if !res.OK() {
		t.Fatalf("import failed: %v\n%s", res.Err, f.out)
	}
	if res.Source != path {
		t.Errorf("source = %s, want %s", res.Source, path)
	}
	if res.RowsRead != 5 || res.RowsKept != 3 || res.Imported != 3 {
		t.Errorf("read/kept/imported = %d/%d/%d, want 5/3/3", res.RowsRead, res.RowsKept, res.Imported)
	}
	assertHouseholds(t, f.households(t), map[int64]string{101: "Smith", 102: "Jones", 103: "Lee"})
}

func TestImportNothingToImport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	seed := filepath.Join(t.TempDir(), "seed.csv")
	if err := os.WriteFile(seed, []byte("HouseholdId,name\n1,A\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := f.im.Import(ctx, seed); !res.OK() {
		t.Fatalf("seed import: %v", res.Err)
	}

	res := f.im.Import(ctx, "")
	if res.OK() {
		t.Fatal("expected failure with empty downloads dir")
	}
	if res.Kind() != KindNotFound {
		t.Errorf("kind = %q, want %q", res.Kind(), KindNotFound)
	}
	if !errors.Is(res.Err, source.ErrNotFound) {
		t.Errorf("err = %v, want wrapping source.ErrNotFound", res.Err)
	}
	if !strings.Contains(f.out.String(), "No spreadsheet file found") {
		t.Errorf("output missing not-found message:\n%s", f.out)
	}
	assertHouseholds(t, f.households(t), map[int64]string{1: "A"})
}

func TestImportFailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Kind
	}{
		{"unsupported extension", "h.txt", "HouseholdId,name\n1,A\n", KindUnsupportedFormat},
		{"non-integer id", "h.csv", "HouseholdId,name\n1,A\nabc,B\n", KindInvalidData},
		{"fractional id", "h.csv", "HouseholdId,name\n1.5,A\n", KindInvalidData},
		{"malformed csv", "h.csv", "HouseholdId,name\n1,\"open\n", KindRead},
		{"duplicate id", "h.csv", "HouseholdId,name\n1,A\n1,B\n", KindStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			path := f.writeCSV(t, tt.file, tt.content)

			res := f.im.Import(context.Background(), path)
			if res.OK() {
				t.Fatal("expected failure")
			}
			if res.Kind() != tt.want {
				t.Errorf("kind = %q, want %q (err: %v)", res.Kind(), tt.want, res.Err)
			}
			if got := f.households(t); len(got) != 0 {
				t.Errorf("table should be empty, got %+v", got)
			}
		})
	}
}

func TestImportMissingExplicitFile(t *testing.T) {
	f := setup(t)

	res := f.im.Import(context.Background(), filepath.Join(t.TempDir(), "gone.csv"))
	if res.Kind() != KindNotFound {
		t.Errorf("kind = %q, want %q (err: %v)", res.Kind(), KindNotFound, res.Err)
	}
}

func TestImportSampleSize(t *testing.T) {
	f := setup(t)
	f.cfg.SampleSize = 2
	path := f.writeCSV(t, "h.csv", "HouseholdId,name\n5,E\n4,D\n3,C\n2,B\n1,A\n")

	res := f.im.Import(context.Background(), path)
	if !res.OK() {
		t.Fatalf("import failed: %v", res.Err)
	}
	if res.Imported != 5 {
		t.Errorf("imported = %d, want 5", res.Imported)
	}
	if len(res.Sample) != 2 || res.Sample[0].ID != 1 || res.Sample[1].ID != 2 {
		t.Errorf("sample = %+v, want ids [1 2]", res.Sample)
	}
}

func TestParseID(t *testing.T) {
	valid := map[string]int64{"1": 1, " 42 ": 42, "3.0": 3, "-7": -7, "1e3": 1000}
	for in, want := range valid {
		got, err := parseID(in)
		if err != nil {
			t.Errorf("parseID(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseID(%q) = %d, want %d", in, got, want)
		}
	}
	for _, in := range []string{"abc", "2.5", "inf", "1e30"} {
		if _, err := parseID(in); err == nil {
			t.Errorf("parseID(%q): expected error", in)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindNone {
		t.Error("nil error should have no kind")
	}
	if KindOf(errors.New("plain")) != KindNone {
		t.Error("plain error should have no kind")
	}
	wrapped := fmt.Errorf("outer: %w", fail(KindStorage, errors.New("disk full")))
	if KindOf(wrapped) != KindStorage {
		t.Errorf("KindOf(wrapped) = %q, want %q", KindOf(wrapped), KindStorage)
	}
}

func TestImportInitFailure(t *testing.T) {
	f := setup(t)
	f.cfg.DBPath = t.TempDir()
	path := f.writeCSV(t, "h.csv", "HouseholdId,name\n1,A\n")

	res := f.im.Import(context.Background(), path)
	if !errors.Is(res.Err, ErrInit) {
		t.Fatalf("err = %v, want ErrInit", res.Err)
	}
	if res.Kind() != KindStorage {
		t.Errorf("kind = %q, want %q", res.Kind(), KindStorage)
	}
	if res.RowsRead != 0 {
		t.Errorf("file should not be read, RowsRead = %d", res.RowsRead)
	}
}
