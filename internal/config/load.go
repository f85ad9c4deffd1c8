package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads, parses, and validates the YAML configuration file.
// It applies defaults before returning the validated configuration.
func LoadConfig(filename string) (*Config, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}

	var config Config
	err = yaml.Unmarshal(fileBytes, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML in '%s': %w", filename, err)
	}

	// Apply defaults before validation.
	applyDefaults(&config)

	// Perform comprehensive validation of the loaded configuration.
	if err := ValidateConfig(&config); err != nil {
		return nil, err // Return validation errors directly.
	}

	return &config, nil
}

// applyDefaults sets default values for various configuration sections.
func applyDefaults(cfg *Config) {
	// Logging level default
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	// Chunk size default for streamed sources
	if cfg.Source.ChunkRows == 0 {
		cfg.Source.ChunkRows = DefaultChunkRows
	}
	// Output policy defaults
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = OutputModeAuto
	}
	if cfg.Output.Compression == "" {
		cfg.Output.Compression = DefaultCompression
	}
	if cfg.Output.Concurrency == 0 {
		cfg.Output.Concurrency = DefaultConcurrency
	}
}
