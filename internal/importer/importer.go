// Package importer provides CSV and Excel import functionality for box catalogs.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	BoxTypes []model.BoxType
	Errors   []string
	Warnings []string
}

// Problem builds a problem for the given container from the imported box types.
func (r ImportResult) Problem(container model.Size) (model.Problem, error) {
	p := model.NewProblem(container, r.BoxTypes)
	if err := p.Validate(); err != nil {
		return model.Problem{}, fmt.Errorf("imported catalog is not a valid problem: %w", err)
	}
	return p, nil
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Label  int
	Length int
	Width  int
	Height int
	Max    int
	Min    int
	Value  int
	Weight int
}

// positionalMapping is used when the first row is not a header.
var positionalMapping = ColumnMapping{Label: 0, Length: 1, Width: 2, Height: 3, Max: 4, Min: 5, Value: 6, Weight: 7}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = []struct {
	role    string
	aliases []string
}{
	{"label", []string{"label", "name", "description", "desc", "item", "sku", "box"}},
	{"length", []string{"length", "len", "l", "depth", "x"}},
	{"width", []string{"width", "w", "y"}},
	{"height", []string{"height", "h", "z"}},
	{"max", []string{"max", "max count", "max_count", "maximum", "quantity", "qty", "count", "pcs"}},
	{"min", []string{"min", "min count", "min_count", "minimum", "required"}},
	{"value", []string{"value", "price", "profit", "v"}},
	{"weight", []string{"weight", "kg", "mass"}},
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

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Length: -1, Width: -1, Height: -1, Max: -1, Min: -1, Value: -1, Weight: -1}
	slots := map[string]*int{
		"label":  &mapping.Label,
		"length": &mapping.Length,
		"width":  &mapping.Width,
		"height": &mapping.Height,
		"max":    &mapping.Max,
		"min":    &mapping.Min,
		"value":  &mapping.Value,
		"weight": &mapping.Weight,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, h := range headerAliases {
			for _, alias := range h.aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[h.role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDimension reads a positive size in mm. Decimal values are rounded.
func parseDimension(row []string, idx int, name, rowLabel string) (int, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	n := int(f + 0.5)
	if n <= 0 {
		return 0, fmt.Sprintf("%s: %s must be positive", rowLabel, name)
	}
	return n, ""
}

// parseRow extracts a BoxType from a row using the given column mapping.
// Returns the box type, any error message, and any warning messages.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, typeID int) (model.BoxType, string, []string) {
	var warnings []string

	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Box %d", typeID+1)
	}

	length, errMsg := parseDimension(row, mapping.Length, "length", rowLabel)
	if errMsg != "" {
		return model.BoxType{}, errMsg, nil
	}
	width, errMsg := parseDimension(row, mapping.Width, "width", rowLabel)
	if errMsg != "" {
		return model.BoxType{}, errMsg, nil
	}
	height, errMsg := parseDimension(row, mapping.Height, "height", rowLabel)
	if errMsg != "" {
		return model.BoxType{}, errMsg, nil
	}

	maxStr := getCell(row, mapping.Max)
	if maxStr == "" {
		return model.BoxType{}, fmt.Sprintf("%s: Missing max count value", rowLabel), nil
	}
	maxCount, err := strconv.Atoi(maxStr)
	if err != nil {
		return model.BoxType{}, fmt.Sprintf("%s: Invalid max count '%s'", rowLabel, maxStr), nil
	}

	minCount := 0
	if minStr := getCell(row, mapping.Min); minStr != "" {
		minCount, err = strconv.Atoi(minStr)
		if err != nil {
			return model.BoxType{}, fmt.Sprintf("%s: Invalid min count '%s'", rowLabel, minStr), nil
		}
	}

	if maxCount <= 0 || minCount < 0 {
		return model.BoxType{}, fmt.Sprintf("%s: Max count must be positive and min count non-negative", rowLabel), nil
	}
	if minCount > maxCount {
		return model.BoxType{}, fmt.Sprintf("%s: Min count %d exceeds max count %d", rowLabel, minCount, maxCount), nil
	}

	bt := model.NewBoxType(typeID, label, length, width, height, minCount, maxCount)

	if valueStr := getCell(row, mapping.Value); valueStr != "" {
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil || value < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid value '%s', defaulting to volume", rowLabel, valueStr))
		} else {
			bt.Value = value
		}
	}
	if weightStr := getCell(row, mapping.Weight); weightStr != "" {
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil || weight < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid weight '%s', defaulting to volume", rowLabel, weightStr))
		} else {
			bt.Weight = weight
		}
	}

	return bt, "", warnings
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

// ImportCSV imports box types from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
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

// ImportCSVFromReader imports box types from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports box types from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
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

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile dispatches on the file extension: .xlsx uses the Excel importer,
// .dxf the footprint importer with default options, anything else is read as CSV.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return ImportExcel(path)
	case strings.HasSuffix(lower, ".dxf"):
		return ImportDXF(path, DefaultDXFOptions())
	default:
		return ImportCSV(path)
	}
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into box types.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Max == -1 {
			missing = append(missing, "Max")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 4 {
		// An unrecognized header: the first dimension column is not numeric
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		bt, errMsg, warnings := parseRow(row, mapping, rowLabel, len(result.BoxTypes))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.BoxTypes = append(result.BoxTypes, bt)
	}

	return result
}
