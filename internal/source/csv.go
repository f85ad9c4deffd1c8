package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"datasink/internal/frame"
	"datasink/internal/logging"
)

// CSVChunkReader implements frame.ChunkReader for CSV files, yielding frames
// of at most chunkRows rows at a time so that arbitrarily large files never
// have to be held in memory whole. It supports configurable delimiters and
// comment characters. The file is opened lazily on the first Next call.
type CSVChunkReader struct {
	Delimiter   rune // Field delimiter (e.g., ',', '\t').
	CommentChar rune // Character indicating a comment line (e.g., '#'). 0 disables.

	filePath  string
	chunkRows int

	mu        sync.Mutex
	file      *os.File
	reader    *csv.Reader
	schema    frame.Schema
	headerIdx map[int]string // column index -> valid header name
	numFields int            // field count expected per row, from the header
	rowNum    int            // 1-based row number in the file, including the header
	opened    bool
	done      bool
}

// NewCSVChunkReader creates a CSVChunkReader with the given format options.
// chunkRows bounds how many rows each chunk holds and must be positive.
func NewCSVChunkReader(filePath, delimiter, commentChar string, chunkRows int) (*CSVChunkReader, error) {
	var delim rune = ',' // Default delimiter
	var comment rune     // Default comment (0 / disabled)

	if delimiter != "" {
		if utf8.RuneCountInString(delimiter) != 1 {
			return nil, fmt.Errorf("invalid delimiter '%s': must be a single character", delimiter)
		}
		delim = []rune(delimiter)[0]
	}

	if commentChar != "" {
		if utf8.RuneCountInString(commentChar) != 1 {
			return nil, fmt.Errorf("invalid comment character '%s': must be a single character or empty", commentChar)
		}
		comment = []rune(commentChar)[0]
	}

	if chunkRows <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d: must be positive", chunkRows)
	}

	return &CSVChunkReader{
		Delimiter:   delim,
		CommentChar: comment,
		filePath:    filePath,
		chunkRows:   chunkRows,
	}, nil
}

// open opens the file and consumes the header row, establishing the schema.
// Caller must hold cr.mu.
func (cr *CSVChunkReader) open() error {
	logging.Logf(logging.Debug, "CSVChunkReader opening file: %s (Delimiter: '%c', Comment: '%c', ChunkRows: %d)", cr.filePath, cr.Delimiter, cr.CommentChar, cr.chunkRows)

	f, err := os.Open(cr.filePath)
	if err != nil {
		return fmt.Errorf("CSVChunkReader failed to open file '%s': %w", cr.filePath, err)
	}

	reader := csv.NewReader(f)
	reader.Comma = cr.Delimiter
	if cr.CommentChar != 0 {
		reader.Comment = cr.CommentChar
	}
	reader.FieldsPerRecord = -1 // Validate field counts per row ourselves

	headers, err := reader.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			logging.Logf(logging.Warning, "CSV file '%s' is empty or contains no data", cr.filePath)
			cr.done = true
			cr.opened = true
			return nil
		}
		return fmt.Errorf("CSVChunkReader failed to read header from '%s': %w", cr.filePath, err)
	}
	cr.rowNum = 1

	headerSet := make(map[string]int)         // Stores count of each header
	validHeaderIndices := make(map[int]string) // Map column index to valid header name
	for i, h := range headers {
		header := strings.TrimSpace(h)
		if header == "" {
			logging.Logf(logging.Warning, "CSVChunkReader: Empty header found in column %d of file '%s'; this column will be skipped", i+1, cr.filePath)
			continue
		}
		headerSet[header]++
		if headerSet[header] > 1 {
			logging.Logf(logging.Warning, "CSVChunkReader: Duplicate header '%s' found at column %d in file '%s'; data for this header name will represent the last occurring column", header, i+1, cr.filePath)
		}
		validHeaderIndices[i] = header
	}

	if len(validHeaderIndices) == 0 {
		logging.Logf(logging.Warning, "CSVChunkReader: No valid headers found in file '%s'; treating the source as empty", cr.filePath)
		f.Close()
		cr.done = true
		cr.opened = true
		return nil
	}

	// CSV values carry no type information; every column is a string.
	names := make(map[string]struct{}, len(validHeaderIndices))
	schema := make(frame.Schema, 0, len(validHeaderIndices))
	for i := 0; i < len(headers); i++ {
		name, ok := validHeaderIndices[i]
		if !ok {
			continue
		}
		if _, dup := names[name]; dup {
			continue // Duplicate headers collapse into one column
		}
		names[name] = struct{}{}
		schema = append(schema, frame.Column{Name: name, Type: frame.KindString})
	}

	cr.file = f
	cr.reader = reader
	cr.schema = schema
	cr.headerIdx = validHeaderIndices
	cr.numFields = len(headers)
	cr.opened = true
	return nil
}

// Schema returns the column schema derived from the header row.
// It opens the file on first use.
func (cr *CSVChunkReader) Schema() frame.Schema {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if !cr.opened {
		if err := cr.open(); err != nil {
			logging.Logf(logging.Error, "CSVChunkReader failed to open '%s' while resolving schema: %v", cr.filePath, err)
			return nil
		}
	}
	return cr.schema
}

// Next reads up to chunkRows data rows and returns them as a frame.
// Rows whose field count differs from the header are skipped with a warning,
// matching the whole-file reader semantics. Returns io.EOF when exhausted.
func (cr *CSVChunkReader) Next() (*frame.Frame, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.opened {
		if err := cr.open(); err != nil {
			return nil, err
		}
	}
	if cr.done {
		return nil, io.EOF
	}

	records := make([]map[string]interface{}, 0, cr.chunkRows)
	for len(records) < cr.chunkRows {
		row, err := cr.reader.Read()
		if err == io.EOF {
			cr.closeFile()
			cr.done = true
			break
		}
		if err != nil {
			if parseErr, ok := err.(*csv.ParseError); ok {
				return nil, fmt.Errorf("CSVChunkReader parse error in '%s' on line %d, column %d: %w", cr.filePath, parseErr.Line, parseErr.Column, parseErr.Err)
			}
			return nil, fmt.Errorf("CSVChunkReader failed to read row from '%s': %w", cr.filePath, err)
		}
		cr.rowNum++

		if len(row) != cr.numFields {
			logging.Logf(logging.Warning, "CSVChunkReader: Row %d in '%s' has %d fields, expected %d based on header count; skipping row. Data: %v", cr.rowNum, cr.filePath, len(row), cr.numFields, row)
			continue
		}

		rec := make(map[string]interface{}, len(cr.schema))
		for colIdx, value := range row {
			if headerName, ok := cr.headerIdx[colIdx]; ok {
				rec[headerName] = value
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, io.EOF
	}

	logging.Logf(logging.Debug, "CSVChunkReader read chunk of %d records from %s", len(records), cr.filePath)
	return frame.New(cr.schema, records)
}

// closeFile closes the underlying file handle. Caller must hold cr.mu.
func (cr *CSVChunkReader) closeFile() {
	if cr.file != nil {
		if err := cr.file.Close(); err != nil {
			logging.Logf(logging.Error, "CSVChunkReader failed to close file '%s': %v", cr.filePath, err)
		}
		cr.file = nil
		cr.reader = nil
	}
}

// Close releases the underlying file. Safe to call multiple times.
func (cr *CSVChunkReader) Close() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.closeFile()
	cr.done = true
	return nil
}
