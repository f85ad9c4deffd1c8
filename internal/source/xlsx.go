package source

import (
	"fmt"
	"sort"
	"strings"

	"datasink/internal/frame"
	"datasink/internal/logging"

	"github.com/xuri/excelize/v2"
)

// XLSXReader implements the TableReader interface for Excel (.xlsx) files.
type XLSXReader struct {
	sheetName  string
	sheetIndex *int
}

// NewXLSXReader creates a new XLSXReader with sheet preferences.
func NewXLSXReader(sheetName string, sheetIndex *int) *XLSXReader {
	return &XLSXReader{
		sheetName:  sheetName,
		sheetIndex: sheetIndex,
	}
}

// Read loads a table from the specified sheet (or default) of an Excel file.
// Cell values arrive as display strings, so every column is typed string.
func (xr *XLSXReader) Read(filePath string) (*frame.Frame, error) {
	logging.Logf(logging.Debug, "XLSXReader reading file: %s (SheetName: '%s', SheetIndex: %v)", filePath, xr.sheetName, xr.sheetIndex)

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("XLSXReader failed to open file '%s': %w", filePath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Logf(logging.Error, "XLSXReader failed to close file '%s': %v", filePath, err)
		}
	}()

	targetSheetName, err := xr.resolveSheet(f, filePath)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(targetSheetName)
	if err != nil {
		return nil, fmt.Errorf("XLSXReader failed to get rows from sheet '%s' in '%s': %w", targetSheetName, filePath, err)
	}

	if len(rows) < 1 {
		return nil, fmt.Errorf("XLSXReader: sheet '%s' in '%s' is empty or contains no header row", targetSheetName, filePath)
	}

	// Headers: trimmed, empty columns skipped, duplicates resolved last-wins.
	rawHeaders := rows[0]
	lastIndexForHeader := make(map[string]int)
	headerNameForIndex := make(map[int]string)
	for i, h := range rawHeaders {
		trimmedHeader := strings.TrimSpace(h)
		headerNameForIndex[i] = trimmedHeader
		if trimmedHeader != "" {
			lastIndexForHeader[trimmedHeader] = i
		} else {
			logging.Logf(logging.Warning, "XLSXReader: Empty header found in column %d of sheet '%s'. This column's data will be ignored.", i+1, targetSheetName)
		}
	}

	validHeaders := make([]string, 0, len(lastIndexForHeader))
	for header := range lastIndexForHeader {
		validHeaders = append(validHeaders, header)
	}
	sort.Strings(validHeaders)

	if len(validHeaders) == 0 {
		return nil, fmt.Errorf("XLSXReader: no valid headers found in the first row of sheet '%s' in '%s'", targetSheetName, filePath)
	}
	logging.Logf(logging.Debug, "XLSXReader: Using unique headers (last wins): %v", validHeaders)

	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]interface{}, len(validHeaders))
		for cellIdx := 0; cellIdx < len(row); cellIdx++ {
			headerName, indexHasHeader := headerNameForIndex[cellIdx]
			if indexHasHeader && headerName != "" && lastIndexForHeader[headerName] == cellIdx {
				rec[headerName] = row[cellIdx]
			}
		}
		// Short rows still carry every column, as empty strings.
		for _, headerName := range validHeaders {
			if _, exists := rec[headerName]; !exists {
				rec[headerName] = ""
			}
		}
		records = append(records, rec)
	}

	schema := make(frame.Schema, 0, len(validHeaders))
	for _, name := range validHeaders {
		schema = append(schema, frame.Column{Name: name, Type: frame.KindString})
	}

	logging.Logf(logging.Info, "XLSXReader successfully loaded %d records from sheet '%s' in %s", len(records), targetSheetName, filePath)
	return frame.New(schema, records)
}

// resolveSheet determines which sheet to read, preferring an explicit sheet
// name, then an explicit index, then the active sheet.
func (xr *XLSXReader) resolveSheet(f *excelize.File, filePath string) (string, error) {
	if xr.sheetName != "" {
		for _, name := range f.GetSheetList() {
			if name == xr.sheetName {
				logging.Logf(logging.Debug, "XLSXReader: Using specified sheet name '%s'", name)
				return name, nil
			}
		}
		return "", fmt.Errorf("XLSXReader: specified sheet name '%s' not found in '%s'", xr.sheetName, filePath)
	}

	if xr.sheetIndex != nil {
		targetSheetName := f.GetSheetName(*xr.sheetIndex)
		if targetSheetName == "" {
			sheetCount := len(f.GetSheetList())
			if *xr.sheetIndex >= sheetCount || *xr.sheetIndex < 0 {
				return "", fmt.Errorf("XLSXReader: specified sheet index %d is out of bounds (0 to %d) in '%s'", *xr.sheetIndex, sheetCount-1, filePath)
			}
			return "", fmt.Errorf("XLSXReader: could not get sheet name for valid index %d in '%s'", *xr.sheetIndex, filePath)
		}
		logging.Logf(logging.Debug, "XLSXReader: Using specified sheet index %d ('%s')", *xr.sheetIndex, targetSheetName)
		return targetSheetName, nil
	}

	activeSheetIndex := f.GetActiveSheetIndex()
	targetSheetName := f.GetSheetName(activeSheetIndex)
	if targetSheetName == "" {
		if activeSheetIndex != 0 {
			targetSheetName = f.GetSheetName(0)
		}
		if targetSheetName == "" {
			if len(f.GetSheetList()) == 0 {
				return "", fmt.Errorf("XLSXReader: file '%s' contains no sheets", filePath)
			}
			return "", fmt.Errorf("XLSXReader: could not determine a valid sheet to read in '%s'", filePath)
		}
		logging.Logf(logging.Debug, "XLSXReader: Using first sheet '%s' (index 0) as default", targetSheetName)
		return targetSheetName, nil
	}
	logging.Logf(logging.Debug, "XLSXReader: Using active sheet '%s' (index %d) as default", targetSheetName, activeSheetIndex)
	return targetSheetName, nil
}
