package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("File,Copies\ncat.png,2\ndog.png,1\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("File;Copies\ncat.png;2\ndog.png;1\n")
	if got := DetectCSVDelimiter(data); got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("File\tCopies\ncat.png\t2\ndog.png\t1\n")
	if got := DetectCSVDelimiter(data); got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_SingleColumnDefaultsToComma(t *testing.T) {
	data := []byte("cat.png\ndog.png\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma fallback, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"File", "Copies"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.File != 0 || mapping.Copies != 1 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_AlternativeNames(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Qty", "Notes", "Image"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.File != 2 {
		t.Errorf("expected File at 2, got %d", mapping.File)
	}
	if mapping.Copies != 0 {
		t.Errorf("expected Copies at 0, got %d", mapping.Copies)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"cat.png", "3"})
	if isHeader {
		t.Error("data row should not be detected as header")
	}
	if mapping.File != 0 || mapping.Copies != 1 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Reader Import Tests ───────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	input := "File,Copies\ncat.png,2\ndog.png,1\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].File != "cat.png" || result.Entries[0].Copies != 2 {
		t.Errorf("unexpected first entry %+v", result.Entries[0])
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("cat.png,4\n"), ',')
	if len(result.Entries) != 1 || result.Entries[0].Copies != 4 {
		t.Errorf("expected one entry with 4 copies, got %+v (errors: %v)", result.Entries, result.Errors)
	}
}

func TestImportCSVFromReader_MissingCopiesMeansOne(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("cat.png\ndog.png,\n"), ',')
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d (errors: %v)", len(result.Entries), result.Errors)
	}
	for _, e := range result.Entries {
		if e.Copies != 1 {
			t.Errorf("expected 1 copy for %s, got %d", e.File, e.Copies)
		}
	}
}

func TestImportCSVFromReader_ZeroCopiesAllowed(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("File,Copies\ncat.png,0\n"), ',')
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Entries[0].Copies != 0 {
		t.Errorf("expected 0 copies, got %d", result.Entries[0].Copies)
	}
}

func TestImportCSVFromReader_InvalidCopies(t *testing.T) {
	input := "File,Copies\ncat.png,abc\ndog.png,-2\nbird.png,1.5\nfish.png,3.0\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',')

	if len(result.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Entries) != 1 || result.Entries[0].Copies != 3 {
		t.Errorf("expected fish.png with 3 copies, got %+v", result.Entries)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("File,Notes\ncat.png,hi\n"), ',')
	if len(result.Errors) == 0 {
		t.Fatal("expected error for missing copies column")
	}
	if !strings.Contains(result.Errors[0], "Copies") {
		t.Errorf("error should name the missing column, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_EmptyRowsAndLabels(t *testing.T) {
	input := "File,Copies\n\ncat.png,1\n,2\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',')
	if len(result.Entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(result.Entries))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error for the missing file name, got %v", result.Errors)
	}
}

// ─── Manifest Tests ─────────────────────────────────────────

func TestManifestLookupIsCaseInsensitive(t *testing.T) {
	result := ImportResult{Entries: []ManifestEntry{
		{File: "Cat.PNG", Copies: 2},
		{File: "sub/dog.png", Copies: 3},
		{File: "cat.png", Copies: 5},
	}}
	m := result.Manifest()

	if n, ok := m.Copies("/tmp/in/cat.png"); !ok || n != 5 {
		t.Errorf("later rows should win: got %d, %v", n, ok)
	}
	if n, ok := m.Copies("DOG.png"); !ok || n != 3 {
		t.Errorf("expected 3 copies of dog.png, got %d, %v", n, ok)
	}
	if _, ok := m.Copies("bird.png"); ok {
		t.Error("bird.png is not in the manifest")
	}
}

func TestImportManifest_UnsupportedExtension(t *testing.T) {
	result := ImportManifest("copies.json")
	if len(result.Errors) == 0 {
		t.Error("expected error for unsupported format")
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCSV_SemicolonFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "copies.csv")
	if err := os.WriteFile(path, []byte("File;Copies\ncat.png;2\ndog.png;1\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportManifest(path)

	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d (errors: %v)", len(result.Entries), result.Errors)
	}
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/copies.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	result := ImportCSV(path)
	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "copies.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Sticker", "Qty"},
		{"cat.png", 3},
		{"dog.png", 1},
	})

	result := ImportManifest(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].File != "cat.png" || result.Entries[0].Copies != 3 {
		t.Errorf("unexpected first entry %+v", result.Entries[0])
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/copies.xlsx")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}
