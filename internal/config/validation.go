package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Knetic/govaluate"
)

// Define known valid enum values for configuration fields.
var (
	knownLogLevels    = []string{"none", "error", "warn", "warning", "info", "debug"}
	knownSourceTypes  = []string{SourceTypeCSV, SourceTypeJSON, SourceTypeXLSX, SourceTypePostgres}
	knownOutputModes  = []string{OutputModeAuto, OutputModeSingle, OutputModePartitioned, OutputModeChunked}
	knownCompressions = []string{CompressionNone, CompressionSnappy, CompressionGzip, CompressionZstd}
)

// isValidEnumValue checks if a value is present in a list of allowed string values (case-insensitive).
func isValidEnumValue(value string, allowedValues []string) bool {
	lowerValue := strings.ToLower(value)
	for _, allowed := range allowedValues {
		if lowerValue == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ValidateConfig performs comprehensive validation of the entire configuration.
func ValidateConfig(cfg *Config) error {
	var allErrors []string

	if !isValidEnumValue(cfg.Logging.Level, knownLogLevels) {
		allErrors = append(allErrors, fmt.Sprintf("- Config.Logging.Level: invalid log level '%s', must be one of %v", cfg.Logging.Level, knownLogLevels))
	}

	allErrors = append(allErrors, validateSourceConfig("Config.Source", &cfg.Source)...)
	allErrors = append(allErrors, validateOutputConfig("Config.Output", &cfg.Output)...)

	if len(allErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(allErrors, "\n"))
	}
	return nil
}

// validateSourceConfig checks the source section for internal consistency.
func validateSourceConfig(prefix string, cfg *SourceConfig) []string {
	var errs []string

	sourceType := strings.ToLower(cfg.Type)
	if cfg.Type == "" {
		errs = append(errs, fmt.Sprintf("- %s.Type: source type is required", prefix))
		return errs
	}
	if !isValidEnumValue(sourceType, knownSourceTypes) {
		errs = append(errs, fmt.Sprintf("- %s.Type: unsupported source type '%s', must be one of %v", prefix, cfg.Type, knownSourceTypes))
		return errs
	}

	switch sourceType {
	case SourceTypePostgres:
		if cfg.Query == "" {
			errs = append(errs, fmt.Sprintf("- %s.Query: query is required for source type 'postgres'", prefix))
		}
		if cfg.File != "" {
			errs = append(errs, fmt.Sprintf("- %s.File: file must not be set for source type 'postgres'", prefix))
		}
	default:
		if cfg.File == "" {
			errs = append(errs, fmt.Sprintf("- %s.File: file path is required for source type '%s'", prefix, sourceType))
		}
	}

	if cfg.Delimiter != "" && utf8.RuneCountInString(cfg.Delimiter) != 1 {
		errs = append(errs, fmt.Sprintf("- %s.Delimiter: invalid delimiter '%s', must be a single character", prefix, cfg.Delimiter))
	}
	if cfg.CommentChar != "" && utf8.RuneCountInString(cfg.CommentChar) != 1 {
		errs = append(errs, fmt.Sprintf("- %s.CommentChar: invalid comment character '%s', must be a single character or empty", prefix, cfg.CommentChar))
	}
	if cfg.ChunkRows < 0 {
		errs = append(errs, fmt.Sprintf("- %s.ChunkRows: chunk size must be positive, got %d", prefix, cfg.ChunkRows))
	}
	if cfg.SheetIndex != nil && *cfg.SheetIndex < 0 {
		errs = append(errs, fmt.Sprintf("- %s.SheetIndex: sheet index must not be negative, got %d", prefix, *cfg.SheetIndex))
	}

	return errs
}

// validateOutputConfig checks the output section for internal consistency.
func validateOutputConfig(prefix string, cfg *OutputConfig) []string {
	var errs []string

	if cfg.Path == "" {
		errs = append(errs, fmt.Sprintf("- %s.Path: output path is required", prefix))
	}
	if !isValidEnumValue(cfg.Mode, knownOutputModes) {
		errs = append(errs, fmt.Sprintf("- %s.Mode: invalid mode '%s', must be one of %v", prefix, cfg.Mode, knownOutputModes))
	}
	if !isValidEnumValue(cfg.Compression, knownCompressions) {
		errs = append(errs, fmt.Sprintf("- %s.Compression: invalid compression '%s', must be one of %v", prefix, cfg.Compression, knownCompressions))
	}
	if cfg.Partitions < 0 || cfg.Partitions > MaxPartitions {
		errs = append(errs, fmt.Sprintf("- %s.Partitions: partition count must be between 0 (unset) and %d, got %d", prefix, MaxPartitions, cfg.Partitions))
	}
	if cfg.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("- %s.Concurrency: concurrency must be positive, got %d", prefix, cfg.Concurrency))
	}
	if cfg.PartitionBy != "" {
		if _, err := govaluate.NewEvaluableExpression(cfg.PartitionBy); err != nil {
			errs = append(errs, fmt.Sprintf("- %s.PartitionBy: invalid expression syntax: %v", prefix, err))
		}
	}
	// Partitioning settings only make sense for modes that produce a directory.
	if strings.EqualFold(cfg.Mode, OutputModeSingle) && (cfg.Partitions > 0 || cfg.PartitionBy != "") {
		errs = append(errs, fmt.Sprintf("- %s.Mode: mode 'single' cannot be combined with partitions or partitionBy", prefix))
	}

	return errs
}
