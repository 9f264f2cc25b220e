package config

import (
	"runtime"

	"github.com/kristianoye/klf-yap/pkg/models"
	"github.com/spf13/viper"
)

// Config holds the engine defaults a query inherits unless the caller
// overrides them per invocation.
type Config struct {
	// Traversal settings
	Recursive        bool `mapstructure:"recursive"`         // expand sub-directories fully
	FollowLinks      bool `mapstructure:"follow_links"`      // resolve symbolic link targets
	SingleFilesystem bool `mapstructure:"single_filesystem"` // do not cross device boundaries
	Concurrency      int  `mapstructure:"concurrency"`       // max in-flight filesystem probes
	MaxDepth         int  `mapstructure:"max_depth"`         // absolute depth cap, 0 = none
	ThrowErrors      bool `mapstructure:"throw_errors"`      // abort on first probe failure
	BigInt           bool `mapstructure:"bigint"`            // arbitrary-precision stat numerics

	// Filter settings
	MinSize string `mapstructure:"min_size"` // e.g. "1KB", "1MiB"
	MaxSize string `mapstructure:"max_size"`
	Type    string `mapstructure:"type"` // file, directory, link, ...

	// Content settings
	CaseInsensitive  bool `mapstructure:"case_insensitive"`
	IgnoreWhitespace bool `mapstructure:"ignore_whitespace"`

	// Output settings
	Format  string `mapstructure:"format"`   // text or json
	NoColor bool   `mapstructure:"no_color"` // disable colorized text output
}

// Load builds the configuration from defaults and YAP_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("recursive", false)
	v.SetDefault("follow_links", false)
	v.SetDefault("single_filesystem", false)
	v.SetDefault("concurrency", runtime.NumCPU()*2)
	v.SetDefault("max_depth", 0)
	v.SetDefault("throw_errors", true)
	v.SetDefault("bigint", false)
	v.SetDefault("min_size", "")
	v.SetDefault("max_size", "")
	v.SetDefault("type", "")
	v.SetDefault("case_insensitive", false)
	v.SetDefault("ignore_whitespace", false)
	v.SetDefault("format", "text")
	v.SetDefault("no_color", false)

	v.SetEnvPrefix("YAP")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Query builds a query over the given expressions from the configured
// defaults. The caller layers CLI flags on top before running it.
func (c *Config) Query(expressions []string) models.Query {
	throw := c.ThrowErrors
	return models.Query{
		Expressions:      expressions,
		Recursive:        c.Recursive,
		FollowLinks:      c.FollowLinks,
		SingleFilesystem: c.SingleFilesystem,
		Concurrency:      c.Concurrency,
		MaxDepth:         c.MaxDepth,
		ThrowErrors:      &throw,
		BigInt:           c.BigInt,
		MinSize:          c.MinSize,
		MaxSize:          c.MaxSize,
		Type:             models.ParseEntryType(c.Type),
		CaseInsensitive:  c.CaseInsensitive,
		IgnoreWhitespace: c.IgnoreWhitespace,
	}
}
