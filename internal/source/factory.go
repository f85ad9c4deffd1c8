package source

import (
	"fmt"
	"strings"

	"datasink/internal/config"
	"datasink/internal/frame"
	"datasink/internal/logging"
)

// NewTableReader creates and returns an appropriate TableReader based on the
// source configuration. Only in-memory table source types are accepted.
func NewTableReader(cfg config.SourceConfig) (TableReader, error) {
	sourceType := strings.ToLower(cfg.Type)
	logging.Logf(logging.Debug, "Creating table reader for type: %s", sourceType)

	switch sourceType {
	case config.SourceTypeJSON:
		return &JSONReader{}, nil
	case config.SourceTypeXLSX:
		return NewXLSXReader(cfg.SheetName, cfg.SheetIndex), nil
	default:
		return nil, fmt.Errorf("unsupported table source type '%s'", cfg.Type)
	}
}

// NewChunkReader creates and returns an appropriate frame.ChunkReader based on
// the source configuration. Only streamable source types are accepted.
func NewChunkReader(cfg config.SourceConfig, dbConnStr string) (frame.ChunkReader, error) {
	sourceType := strings.ToLower(cfg.Type)
	logging.Logf(logging.Debug, "Creating chunk reader for type: %s (chunkRows: %d)", sourceType, cfg.ChunkRows)

	switch sourceType {
	case config.SourceTypeCSV:
		reader, err := NewCSVChunkReader(cfg.File, cfg.Delimiter, cfg.CommentChar, cfg.ChunkRows)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV chunk reader: %w", err)
		}
		return reader, nil
	case config.SourceTypePostgres:
		if dbConnStr == "" {
			return nil, fmt.Errorf("database connection string (-db or DB_CREDENTIALS) is required for source type 'postgres'")
		}
		if cfg.Query == "" {
			return nil, fmt.Errorf("query is required in source config for type 'postgres'")
		}
		reader, err := NewPostgresChunkReader(dbConnStr, cfg.Query, cfg.ChunkRows)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres chunk reader: %w", err)
		}
		return reader, nil
	default:
		return nil, fmt.Errorf("unsupported chunked source type '%s'", cfg.Type)
	}
}

// IsChunkedType reports whether the source type streams chunks rather than
// loading a whole table.
func IsChunkedType(sourceType string) bool {
	switch strings.ToLower(sourceType) {
	case config.SourceTypeCSV, config.SourceTypePostgres:
		return true
	default:
		return false
	}
}
