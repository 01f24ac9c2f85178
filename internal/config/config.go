// Package config loads the scan configuration from a YAML file, with
// environment-variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// GroupedRead configures one per-group representative read.
type GroupedRead struct {
	GroupBy []string `mapstructure:"group_by"`
	Fields  []string `mapstructure:"fields"`
}

// Config is the full scan configuration.
type Config struct {
	// Directories are the roots to walk.
	Directories []string `mapstructure:"directories"`
	// Patterns are the path templates, tried in order.
	Patterns []string `mapstructure:"patterns"`
	// DirGlob restricts assets to matching parent directories.
	DirGlob string `mapstructure:"dir_glob"`
	// CV points to the controlled-vocabulary YAML file.
	CV string `mapstructure:"cv"`
	// ReadFromFile lists columns read from every asset's metadata.
	ReadFromFile []string `mapstructure:"read_from_file"`
	// GroupedReads lists per-group representative reads.
	GroupedReads []GroupedRead `mapstructure:"grouped_reads"`
	// Homogenous holds facet values constant across the whole scan.
	Homogenous map[string]string `mapstructure:"homogenous"`
	// IDColumns overrides the identifier column set.
	IDColumns []string `mapstructure:"id_columns"`
	// AllowExtraFields accepts pattern fields outside the official columns.
	AllowExtraFields bool `mapstructure:"allow_extra_fields"`
	// CheckPerms drops unreadable assets instead of failing on them.
	CheckPerms bool `mapstructure:"check_perms"`
	// Workers sets the extraction parallelism.
	Workers int `mapstructure:"workers"`
	// Schema points to the path schema (file path or URL); empty selects
	// the built-in default.
	Schema string `mapstructure:"schema"`
	// Category is the path-schema category used when restructuring.
	Category string `mapstructure:"category"`
}

// Load reads the configuration. An empty path looks for xscen.yml in the
// working directory; a missing file yields the defaults. Environment
// variables prefixed XSCEN_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("workers", 1)
	v.SetDefault("category", "raw")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xscen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("XSCEN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
