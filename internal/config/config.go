// Package config loads logtranslator settings from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is searched for in the working directory when no path is given.
const DefaultFileName = "logtranslator.toml"

// Config is the top-level configuration.
type Config struct {
	Translate TranslateConfig `toml:"translate"`
	Target    TargetConfig    `toml:"target"`
	Catalogue CatalogueConfig `toml:"catalogue"`
	Logging   LoggingConfig   `toml:"logging"`
}

// TranslateConfig controls analysis and method-name generation.
type TranslateConfig struct {
	IgnoreLogStatements        bool     `toml:"ignore_log_statements"`         // harvest symbols only, never rewrite calls
	IgnoreParsingErrors        bool     `toml:"ignore_parsing_errors"`         // drop unresolved arguments instead of failing
	SkipFailedFiles            bool     `toml:"skip_failed_files"`             // continue the batch past a failing file
	SkipTests                  bool     `toml:"skip_tests"`                    // leave test sources out of discovery
	ApplicationNamespacePrefix string   `toml:"application_namespace_prefix"` // e.g. "org.apache.hadoop"
	MaxGeneratedNameLength     int      `toml:"max_generated_name_length"`
	MaxGeneratedWordCount      int      `toml:"max_generated_word_count"`
	EmptyLogPlaceholderName    string   `toml:"empty_log_placeholder_name"`
	BannedWords                []string `toml:"banned_words"`
	AllowedPrimitiveTypes      []string `toml:"allowed_primitive_types"`
}

// TargetConfig names the canonical structured logging API.
type TargetConfig struct {
	LoggerFactory         string `toml:"logger_factory"`
	SimpleLogger          string `toml:"simple_logger"`
	LogGlobal             string `toml:"log_global"`
	NamespaceImportPrefix string `toml:"namespace_import_prefix"`
}

// CatalogueConfig points at an alternative logging-framework catalogue.
type CatalogueConfig struct {
	Path string `toml:"path"` // empty = embedded catalogue
}

// LoggingConfig controls the tool's own logging.
type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Translate: TranslateConfig{
			MaxGeneratedNameLength:  50,
			MaxGeneratedWordCount:   6,
			EmptyLogPlaceholderName: "empty_log_statement",
			BannedWords: []string{
				"for", "the", "and", "from", "with", "into", "onto", "are", "was", "were",
				"has", "have", "been", "its", "that", "then", "than", "this",
			},
			AllowedPrimitiveTypes: []string{
				"int", "integer", "long", "short", "byte", "double", "float",
				"boolean", "char", "character", "string",
			},
		},
		Target: TargetConfig{
			LoggerFactory:         "org.ngmon.logger.core.LoggerFactory",
			SimpleLogger:          "org.ngmon.logger.core.SimpleLogger",
			LogGlobal:             "org.ngmon.logger.core.LogGlobal",
			NamespaceImportPrefix: "org.ngmon.logger.logtranslator.ngmonLogging",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFileName in
// the working directory and falls back to the defaults when it is absent.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Decode parses TOML data over the defaults and validates the result.
func Decode(data []byte) (*Config, error) {
	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the translator cannot work with.
func (c *Config) Validate() error {
	t := c.Translate
	if t.MaxGeneratedNameLength <= 0 {
		return fmt.Errorf("max_generated_name_length must be positive, got %d", t.MaxGeneratedNameLength)
	}
	if t.MaxGeneratedWordCount <= 0 {
		return fmt.Errorf("max_generated_word_count must be positive, got %d", t.MaxGeneratedWordCount)
	}
	if strings.TrimSpace(t.EmptyLogPlaceholderName) == "" {
		return errors.New("empty_log_placeholder_name must not be empty")
	}
	if c.Target.LoggerFactory == "" || c.Target.LogGlobal == "" || c.Target.SimpleLogger == "" {
		return errors.New("target logger_factory, simple_logger and log_global are required")
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// IsBanned reports whether word is in the banned word list.
func (t *TranslateConfig) IsBanned(word string) bool {
	for _, b := range t.BannedWords {
		if strings.EqualFold(b, word) {
			return true
		}
	}
	return false
}

// IsAllowedType reports whether typ may be emitted without a string conversion.
func (t *TranslateConfig) IsAllowedType(typ string) bool {
	for _, a := range t.AllowedPrimitiveTypes {
		if strings.EqualFold(a, typ) {
			return true
		}
	}
	return false
}
