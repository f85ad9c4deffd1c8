package config

// Define constants for configuration keys, types, modes etc.
const (
	SourceTypeCSV      = "csv"
	SourceTypeJSON     = "json"
	SourceTypeXLSX     = "xlsx"
	SourceTypePostgres = "postgres"

	OutputModeAuto        = "auto"        // Derive the write mode from the source shape and partition settings
	OutputModeSingle      = "single"      // One in-memory table, one output file
	OutputModePartitioned = "partitioned" // One file per partition under the output directory
	OutputModeChunked     = "chunked"     // One file per streamed chunk under the output directory

	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"

	DefaultLogLevel     = "info"
	DefaultChunkRows    = 10000
	DefaultCompression  = CompressionSnappy
	DefaultConcurrency  = 1
	DefaultCSVDelimiter = ","

	// MaxPartitions bounds the partition count so that the zero-padded
	// part-file names stay four digits wide and lexicographic filename
	// order keeps matching partition order.
	MaxPartitions = 10000
)

// Config defines the overall structure for the datasink configuration YAML file.
type Config struct {
	// Logging configuration specifies the verbosity level.
	Logging LoggingConfig `yaml:"logging"`
	// Source defines the origin of the cleaned data (file type, path, query, options).
	Source SourceConfig `yaml:"source"`
	// Output defines where and how the parquet output is written.
	Output OutputConfig `yaml:"output"`
}

// LoggingConfig holds settings related to logging verbosity.
type LoggingConfig struct {
	// Level defines the logging detail (e.g., "none", "error", "warn", "info", "debug").
	// Defaults to "info".
	Level string `yaml:"level"`
}

// SourceConfig details the input source properties.
type SourceConfig struct {
	// Type indicates the format of the input source.
	// Supported types: "csv", "json", "xlsx", "postgres". Required.
	Type string `yaml:"type"`
	// File specifies the path to the input file for file-based sources (csv, json, xlsx).
	// Ignored for "postgres" type. Environment variables are expanded. Required for file types.
	File string `yaml:"file,omitempty"`
	// Query specifies the SQL query for "postgres" input source. Required for "postgres".
	// Ignored for file-based types.
	Query string `yaml:"query,omitempty"`

	// --- Format Specific Options ---
	// CSV Delimiter character (default: ","). Use '\t' for tab.
	Delimiter string `yaml:"delimiter,omitempty"`
	// CSV Comment character (e.g., "#"). Lines starting with this char are ignored. Default is disabled.
	CommentChar string `yaml:"commentChar,omitempty"`
	// XLSX Sheet name to read from. Takes precedence over SheetIndex if both are set.
	// Defaults to the first/active sheet if neither is specified.
	SheetName string `yaml:"sheetName,omitempty"`
	// XLSX Sheet index (0-based) to read from. Used if SheetName is not set.
	SheetIndex *int `yaml:"sheetIndex,omitempty"` // Use pointer to distinguish 0 from unset
	// ChunkRows sets how many rows each streamed chunk holds for the chunked
	// source types (csv, postgres). Defaults to 10000.
	ChunkRows int `yaml:"chunkRows,omitempty"`
}

// OutputConfig details the parquet output destination and write policy.
type OutputConfig struct {
	// Path is the output file path (single mode) or output directory
	// (partitioned/chunked modes). Environment variables are expanded. Required.
	Path string `yaml:"path"`
	// Mode selects the write strategy: "single", "partitioned", "chunked" or
	// "auto" (default). In auto mode, chunked sources write chunked output and
	// in-memory tables write a single file unless partitioning is configured.
	Mode string `yaml:"mode,omitempty"`
	// Partitions requests a fixed partition count for round-robin partitioning
	// of an in-memory table. Ignored when PartitionBy is set.
	Partitions int `yaml:"partitions,omitempty"`
	// PartitionBy is an optional expression (govaluate syntax) evaluated against
	// each record; records sharing a result value land in the same partition.
	// Example: "region" or "status == 'active' ? 'live' : 'archived'"
	PartitionBy string `yaml:"partitionBy,omitempty"`
	// Compression selects the parquet page compression codec:
	// "none", "snappy" (default), "gzip" or "zstd".
	Compression string `yaml:"compression,omitempty"`
	// Concurrency bounds how many partitions are written in parallel.
	// Defaults to 1 (sequential). Chunked writes are always sequential.
	Concurrency int `yaml:"concurrency,omitempty"`
}
