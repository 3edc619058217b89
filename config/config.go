// Package config loads codec settings from a YAML file.
//
//	enableMetadataReading: true
//	readingResponse: true
//	useServerCompatibilityMode: false
//	maxNestingDepth: 50
//	baseURI: http://host/service/
//	includeAnnotations: "Core.*,-Core.Internal"
//	annotationFilter: namespace == "UI"
//	schema: model.yaml
//	indent: true
//
// A relative schema path is taken relative to the file's directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/signadot/odata-atom/annotations"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/stream"

	"github.com/goccy/go-yaml"
)

var ErrConfig = errors.New("config error")

type Config struct {
	EnableMetadataReading      bool   `yaml:"enableMetadataReading,omitempty"`
	ReadingResponse            *bool  `yaml:"readingResponse,omitempty"`
	UseServerCompatibilityMode bool   `yaml:"useServerCompatibilityMode,omitempty"`
	MaxNestingDepth            int    `yaml:"maxNestingDepth,omitempty"`
	BaseURI                    string `yaml:"baseURI,omitempty"`
	IncludeAnnotations         string `yaml:"includeAnnotations,omitempty"`
	AnnotationFilter           string `yaml:"annotationFilter,omitempty"`
	Schema                     string `yaml:"schema,omitempty"`
	Indent                     bool   `yaml:"indent,omitempty"`

	dir string
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

func Parse(d []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalWithOptions(d, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.MaxNestingDepth < 0 {
		return fmt.Errorf("%w: maxNestingDepth %d is negative", ErrConfig, cfg.MaxNestingDepth)
	}
	if cfg.BaseURI != "" {
		u, err := url.Parse(cfg.BaseURI)
		if err != nil {
			return fmt.Errorf("%w: baseURI: %w", ErrConfig, err)
		}
		if !u.IsAbs() {
			return fmt.Errorf("%w: baseURI %q is not absolute", ErrConfig, cfg.BaseURI)
		}
	}
	return nil
}

func (cfg *Config) Response() bool {
	return cfg.ReadingResponse == nil || *cfg.ReadingResponse
}

func (cfg *Config) schemaPath() string {
	if cfg.Schema == "" || filepath.IsAbs(cfg.Schema) || cfg.dir == "" {
		return cfg.Schema
	}
	return filepath.Join(cfg.dir, cfg.Schema)
}

// Model loads the schema model named by the config, or returns nil when
// none is named.
func (cfg *Config) Model() (*schema.Model, error) {
	if cfg.Schema == "" {
		return nil, nil
	}
	return schema.LoadModelFile(cfg.schemaPath())
}

// Filter builds the annotation filter from includeAnnotations and
// annotationFilter. An annotation is kept only when both keep it.
func (cfg *Config) Filter() (annotations.Filter, error) {
	var fs []annotations.Filter
	if cfg.IncludeAnnotations != "" {
		p, err := annotations.ParsePattern(cfg.IncludeAnnotations)
		if err != nil {
			return nil, fmt.Errorf("%w: includeAnnotations: %w", ErrConfig, err)
		}
		fs = append(fs, p)
	}
	if cfg.AnnotationFilter != "" {
		e, err := annotations.CompileExpr(cfg.AnnotationFilter)
		if err != nil {
			return nil, fmt.Errorf("%w: annotationFilter: %w", ErrConfig, err)
		}
		fs = append(fs, e)
	}
	return annotations.Join(fs...), nil
}

// Options converts the config into reader and writer options.
func (cfg *Config) Options() ([]stream.Option, error) {
	f, err := cfg.Filter()
	if err != nil {
		return nil, err
	}
	m, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	opts := []stream.Option{
		stream.WithMetadataReading(cfg.EnableMetadataReading),
		stream.WithResponse(cfg.Response()),
		stream.WithServerCompatibility(cfg.UseServerCompatibilityMode),
		stream.WithAnnotationFilter(f),
		stream.WithIndent(cfg.Indent),
	}
	if cfg.MaxNestingDepth > 0 {
		opts = append(opts, stream.WithMaxNestingDepth(cfg.MaxNestingDepth))
	}
	if cfg.BaseURI != "" {
		opts = append(opts, stream.WithBaseURI(cfg.BaseURI))
	}
	if m != nil {
		opts = append(opts, stream.WithModel(m))
	}
	return opts, nil
}
