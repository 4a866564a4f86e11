// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Defaults for the convert command.
const (
	DefaultImageDir   = "./images"
	DefaultOutputFile = "output.md"
	DefaultOutputDir  = "."
	DefaultMaxDepth   = 512
)

// ManifestFormat selects the manifest export format.
type ManifestFormat string

const (
	ManifestNone ManifestFormat = ""
	ManifestYAML ManifestFormat = "yaml"
	ManifestJSON ManifestFormat = "json"
)

// ConvertConfig holds settings for a single .ctb to Markdown conversion.
type ConvertConfig struct {
	// Document is the path to the CherryTree .ctb file.
	Document string `json:"document" yaml:"document" mapstructure:"document"`

	// ImageDir is where images are written, relative to OutputDir.
	ImageDir string `json:"image_dir" yaml:"image_dir" mapstructure:"image_dir"`

	// LinkPrefix is the path prefix used inside Markdown image references.
	// Empty means ImageDir.
	LinkPrefix string `json:"link_prefix" yaml:"link_prefix" mapstructure:"link_prefix"`

	// OutputFile is the Markdown file name, relative to OutputDir.
	OutputFile string `json:"output_file" yaml:"output_file" mapstructure:"output_file"`

	// OutputDir receives the Markdown file and the image directory.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Manifest requests a manifest export next to the Markdown file.
	Manifest ManifestFormat `json:"manifest" yaml:"manifest" mapstructure:"manifest"`

	// Check parses the rendered Markdown and compares its outline with the tree.
	Check bool `json:"check" yaml:"check" mapstructure:"check"`

	// MaxDepth bounds the rendered hierarchy depth.
	MaxDepth int `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
}

// DefaultConvertConfig returns a ConvertConfig with the documented defaults.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{
		ImageDir:   DefaultImageDir,
		OutputFile: DefaultOutputFile,
		OutputDir:  DefaultOutputDir,
		MaxDepth:   DefaultMaxDepth,
	}
}

// ReferencePrefix returns the prefix for Markdown image references.
func (c ConvertConfig) ReferencePrefix() string {
	if c.LinkPrefix != "" {
		return c.LinkPrefix
	}
	return c.ImageDir
}

// Validate checks required fields and enumerations.
func (c ConvertConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Document, validation.Required),
		validation.Field(&c.ImageDir, validation.Required),
		validation.Field(&c.OutputFile, validation.Required, validation.By(plainName)),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Manifest, validation.In(ManifestNone, ManifestYAML, ManifestJSON)),
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1)),
	)
}

// plainName rejects output names that would escape OutputDir.
func plainName(value interface{}) error {
	s, _ := value.(string)
	for _, r := range s {
		if r == '/' || r == '\\' {
			return fmt.Errorf("must be a file name, not a path")
		}
	}
	return nil
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Validate checks the log format.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("console", "json")),
	)
}
