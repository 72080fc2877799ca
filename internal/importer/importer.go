// Package importer turns an input directory into sticker items. It lists the
// images, applies an optional copy manifest (CSV or Excel), and ingests each
// image: background removal, crop to the foreground, size normalization.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ManifestEntry requests a number of copies of one input image.
type ManifestEntry struct {
	File   string `json:"file"`
	Copies int    `json:"copies"`
}

// ImportResult holds the results of a manifest import.
type ImportResult struct {
	Entries  []ManifestEntry
	Errors   []string
	Warnings []string
}

// Manifest returns the entries as a lookup keyed by lower-case base name.
// Later rows for the same file override earlier ones.
func (r ImportResult) Manifest() Manifest {
	m := make(Manifest, len(r.Entries))
	for _, e := range r.Entries {
		m[manifestKey(e.File)] = e.Copies
	}
	return m
}

// Manifest maps image file names to requested copy counts.
type Manifest map[string]int

// Copies returns the copy count for a file and whether the manifest lists it.
func (m Manifest) Copies(path string) (int, bool) {
	n, ok := m[manifestKey(path)]
	return n, ok
}

func manifestKey(path string) string {
	return strings.ToLower(filepath.Base(strings.TrimSpace(path)))
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	File   int
	Copies int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"file":   {"file", "filename", "file name", "image", "sticker", "name", "path"},
	"copies": {"copies", "copy", "quantity", "qty", "count", "num", "amount", "pcs"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (file, copies) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{File: -1, Copies: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "file":
					if mapping.File == -1 {
						mapping.File = i
					}
				case "copies":
					if mapping.Copies == -1 {
						mapping.Copies = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{File: 0, Copies: 1}, false
	}
	return mapping, true
}

// ImportManifest imports a copy manifest, choosing the reader by extension.
func ImportManifest(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported manifest format: %s", filepath.Ext(path))}}
	}
}

// ImportCSV imports a manifest from a CSV file with delimiter detection.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports a manifest from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports a manifest from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		var missing []string
		if mapping.File == -1 {
			missing = append(missing, "File")
		}
		if mapping.Copies == -1 {
			missing = append(missing, "Copies")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		entry, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}

// parseRow parses a single manifest row.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (ManifestEntry, string) {
	getField := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	file := getField(mapping.File)
	if file == "" {
		return ManifestEntry{}, fmt.Sprintf("%s: Missing file name", rowLabel)
	}

	copiesStr := getField(mapping.Copies)
	if copiesStr == "" {
		return ManifestEntry{File: file, Copies: 1}, ""
	}
	copies, err := strconv.Atoi(copiesStr)
	if err != nil {
		f, ferr := strconv.ParseFloat(copiesStr, 64)
		if ferr != nil || f != float64(int(f)) {
			return ManifestEntry{}, fmt.Sprintf("%s: Invalid copies '%s'", rowLabel, copiesStr)
		}
		copies = int(f)
	}
	if copies < 0 {
		return ManifestEntry{}, fmt.Sprintf("%s: Copies must not be negative, got %d", rowLabel, copies)
	}

	return ManifestEntry{File: file, Copies: copies}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
