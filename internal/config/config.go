// Package config loads the machine configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one machine run.
type Config struct {
	// StackWords is the per-thread stack size in machine words.
	StackWords int `yaml:"stack_words"`

	// TimerInterval is the periodic timer device beat in ticks; 0 disables
	// the timer.
	TimerInterval int64 `yaml:"timer_interval"`

	// InitialPrediction seeds the burst predictor of fresh threads. The
	// default of 0 gives newcomers immediate priority; do not change it
	// without understanding that incumbents can starve either way.
	InitialPrediction float64 `yaml:"initial_prediction"`

	// DebugTags selects debug streams, e.g. "zt"; "+" enables all.
	DebugTags string `yaml:"debug_tags"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	// TraceCap bounds the number of recorded run slices; 0 disables
	// tracing.
	TraceCap int `yaml:"trace_cap"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		StackWords: 8 * 1024,
		LogFormat:  "text",
		TraceCap:   64 * 1024,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the kernel cannot run with.
func (c Config) Validate() error {
	if c.StackWords <= 0 {
		return fmt.Errorf("config: stack_words must be positive, got %d", c.StackWords)
	}
	if c.TimerInterval < 0 {
		return fmt.Errorf("config: timer_interval must be non-negative, got %d", c.TimerInterval)
	}
	if c.InitialPrediction < 0 {
		return fmt.Errorf("config: initial_prediction must be non-negative, got %g", c.InitialPrediction)
	}
	if c.TraceCap < 0 {
		return fmt.Errorf("config: trace_cap must be non-negative, got %d", c.TraceCap)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}
