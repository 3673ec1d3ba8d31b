package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ImagesConfig struct {
		UseBroken   bool    `yaml:"use_broken"`
		DPI         int     `yaml:"dpi" validate:"min=36,max=1200"`
		ScaleFactor float64 `yaml:"scale_factor" validate:"gte=0.0"`
		JPEGQuality int     `yaml:"jpeg_quality" validate:"min=40,max=100"`
	}

	HiddenConfig struct {
		Prefix        string   `yaml:"prefix" validate:"required"`
		ParagraphTags []string `yaml:"paragraph_tags" validate:"min=1,dive,required"`
	}

	StylesConfig struct {
		UnknownStyle UnknownStyleMode `yaml:"unknown_style"`
	}

	// PageConfig describes page geometry used when document does not define
	// any page layout.
	PageConfig struct {
		Width  string `yaml:"width" validate:"required"`
		Height string `yaml:"height" validate:"required"`
		Margin string `yaml:"margin" validate:"required"`
	}

	DocumentConfig struct {
		FixZip                bool         `yaml:"fix_zip"`
		FontsDir              string       `yaml:"fonts_dir" sanitize:"path_clean"`
		DefaultFont           string       `yaml:"default_font" validate:"required"`
		Compress              bool         `yaml:"compress"`
		ExpectedPageCount     int          `yaml:"expected_page_count" validate:"gte=0"`
		OutputNameTemplate    string       `yaml:"output_name_template"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		Images                ImagesConfig `yaml:"images"`
		Hidden                HiddenConfig `yaml:"hidden"`
		Styles                StylesConfig `yaml:"styles"`
		Page                  PageConfig   `yaml:"page"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitizing failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
