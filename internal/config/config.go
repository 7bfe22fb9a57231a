// Package config loads pipeline configuration from a YAML file. Every
// section is optional; missing sections fall back to the built-in defaults
// so the pipeline runs with no config file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// RuleConfig tunes one rule in the decision chain without code changes.
type RuleConfig struct {
	ID       string `yaml:"id"`
	Disabled bool   `yaml:"disabled"`
	Priority *int   `yaml:"priority,omitempty"`
}

// SourcesConfig points the ingestion adapters at their inputs.
type SourcesConfig struct {
	InternalCSVPath string `yaml:"internal_csv_path"`
	NVDPath         string `yaml:"nvd_path"`
	OSVPath         string `yaml:"osv_path"`
	CorpusPath      string `yaml:"corpus_path"`
}

// KafkaConfig configures the observation batch consumer.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// Config is the full pipeline configuration.
type Config struct {
	// Authority maps source ids to ranks; lower rank wins conflicts.
	Authority map[string]int `yaml:"authority,omitempty"`

	// Templates overrides explanation templates per reason code.
	Templates map[string]string `yaml:"templates,omitempty"`

	Rules []RuleConfig `yaml:"rules,omitempty"`

	// Workers bounds the parallel decide stage. Zero means the default.
	Workers int `yaml:"workers"`

	Sources SourcesConfig `yaml:"sources"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workers: 8,
		Kafka: KafkaConfig{
			Topic:   "advisory.observations",
			GroupID: "advisory-backend",
		},
	}
}

// Load reads a YAML config file and fills unset fields with defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = Default().Workers
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = Default().Kafka.Topic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = Default().Kafka.GroupID
	}

	return cfg, nil
}
