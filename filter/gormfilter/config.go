package gormfilter

import (
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/theplant/gqlwhere/filter"
)

// FieldOptions customizes how one field key is rendered.
type FieldOptions struct {
	// Name overrides the column identifier on the raw literal path. It is used verbatim.
	Name string `yaml:"name" json:"name"`
	// RenderAsLongs renders all-digit operands as unparameterized integer literals.
	RenderAsLongs bool `yaml:"renderAsLongs" json:"renderAsLongs"`
}

// Config is the rendering configuration of one compile call.
// It must not be mutated while a call is in progress.
type Config struct {
	Fields map[string]FieldOptions
	// ColumnFormatter maps a field key to a column identifier when no Name override exists.
	ColumnFormatter func(key string) string
	// Having attaches the compiled tree to the HAVING clause instead of WHERE.
	Having bool
	// StrictOperators rejects unknown operator names instead of dropping them.
	StrictOperators bool
	// Limits rejects filters exceeding the given complexity before compiling.
	Limits *filter.ComplexityLimits
}

func (c *Config) field(key string) FieldOptions {
	if c == nil {
		return FieldOptions{}
	}
	return c.Fields[key]
}

// ColumnFormatters are the formatters that can be selected by name in a config file.
var ColumnFormatters = map[string]func(key string) string{
	"snake": func(key string) string { return lo.SnakeCase(key) },
	"camel": func(key string) string { return lo.CamelCase(key) },
}

type fileConfig struct {
	Fields          map[string]FieldOptions  `yaml:"fields"`
	ColumnFormatter string                   `yaml:"columnFormatter"`
	Having          bool                     `yaml:"having"`
	StrictOperators bool                     `yaml:"strictOperators"`
	Limits          *filter.ComplexityLimits `yaml:"limits"`
}

// ParseConfig reads a YAML rendering configuration such as:
//
//	columnFormatter: snake
//	fields:
//	  accountId:
//	    name: '"accounts"."id"'
//	    renderAsLongs: true
func ParseConfig(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(err, "unmarshal filter config")
	}

	cfg := &Config{
		Fields:          fc.Fields,
		Having:          fc.Having,
		StrictOperators: fc.StrictOperators,
	}
	if fc.ColumnFormatter != "" {
		formatter, ok := ColumnFormatters[fc.ColumnFormatter]
		if !ok {
			return nil, errors.Errorf("unknown column formatter %q", fc.ColumnFormatter)
		}
		cfg.ColumnFormatter = formatter
	}
	cfg.Limits = fc.Limits
	return cfg, nil
}

// LoadConfig reads a YAML rendering configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read filter config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse filter config %s", path)
	}
	return cfg, nil
}

// Option configures Scope.
type Option func(*Config)

// WithConfig uses a copy of cfg as the base configuration.
func WithConfig(cfg *Config) Option {
	return func(c *Config) {
		if cfg != nil {
			*c = *cfg
		}
	}
}

// WithFields sets per-field rendering options.
func WithFields(fields map[string]FieldOptions) Option {
	return func(c *Config) {
		c.Fields = fields
	}
}

// WithColumnFormatter sets the formatter used for raw literal column names.
func WithColumnFormatter(formatter func(key string) string) Option {
	return func(c *Config) {
		c.ColumnFormatter = formatter
	}
}

// WithHaving attaches the filter to the HAVING clause. The query must have a GROUP BY.
func WithHaving() Option {
	return func(c *Config) {
		c.Having = true
	}
}

// WithStrictOperators rejects unknown operator names.
func WithStrictOperators() Option {
	return func(c *Config) {
		c.StrictOperators = true
	}
}

// WithComplexityLimits rejects filters exceeding limits.
func WithComplexityLimits(limits *filter.ComplexityLimits) Option {
	return func(c *Config) {
		c.Limits = limits
	}
}
