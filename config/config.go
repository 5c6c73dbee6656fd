//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package config loads and validates the YAML run configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tagmeagain/LLMEval/dataset"
	"github.com/tagmeagain/LLMEval/internal/retry"
	"github.com/tagmeagain/LLMEval/service"
)

// MetricSetFull and MetricSetReduced select which builtin metrics run.
const (
	MetricSetFull    = "full"
	MetricSetReduced = "reduced"
)

// Duration wraps time.Duration so YAML values like "500ms" parse directly.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ModelConfig describes one OpenAI-compatible model endpoint.
type ModelConfig struct {
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"max_tokens"`
}

// CandidatesConfig holds the two generator endpoints used in generate mode.
type CandidatesConfig struct {
	A *ModelConfig `yaml:"a"`
	B *ModelConfig `yaml:"b"`
}

// MetricsConfig selects the metric set and per-metric threshold overrides.
type MetricsConfig struct {
	Set        string             `yaml:"set"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

// ConcurrencyConfig bounds case and judge-call parallelism.
type ConcurrencyConfig struct {
	Cases int `yaml:"cases"`
	Calls int `yaml:"calls"`
}

// RetryConfig bounds transient-error retries on model calls.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	BaseInterval Duration `yaml:"base_interval"`
	MaxInterval  Duration `yaml:"max_interval"`
}

// Policy converts the config into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  r.MaxAttempts,
		BaseInterval: r.BaseInterval.Std(),
		MaxInterval:  r.MaxInterval.Std(),
	}
}

// Config is the full run configuration.
type Config struct {
	// Judge is the model that scores responses. Required.
	Judge *ModelConfig `yaml:"judge"`
	// Candidates are the generator models, required only in generate mode.
	Candidates *CandidatesConfig `yaml:"candidates"`
	// Columns maps dataset columns to conversation fields.
	Columns dataset.FieldMap `yaml:"columns"`
	// Metrics selects the metric set and threshold overrides.
	Metrics MetricsConfig `yaml:"metrics"`
	// Mode forces generate or pre_recorded instead of auto-detection.
	Mode string `yaml:"mode"`
	// DefaultRole is the chatbot role used when a row leaves it blank.
	DefaultRole string `yaml:"default_role"`
	// SystemPromptFile points at the instruction file shared by the judge
	// context and the generators.
	SystemPromptFile string `yaml:"system_prompt_file"`
	// Incremental threads generated turns across consecutive rows.
	Incremental bool `yaml:"incremental"`
	// Concurrency bounds parallel work.
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	// Retry bounds transient model-call retries.
	Retry RetryConfig `yaml:"retry"`
	// GlobalTimeout bounds the whole batch; on expiry every outstanding
	// call is cancelled and unresolved cases fail. Zero disables it.
	GlobalTimeout Duration `yaml:"global_timeout"`
	// CaseTimeout bounds a single case; zero disables the deadline.
	CaseTimeout Duration `yaml:"case_timeout"`
	// ReportDir is where reports are written; empty keeps them in memory.
	ReportDir string `yaml:"report_dir"`
}

// Default returns a config with every tunable at its default value.
func Default() *Config {
	return &Config{
		Columns: dataset.DefaultFieldMap(),
		Metrics: MetricsConfig{Set: MetricSetFull},
		Concurrency: ConcurrencyConfig{
			Cases: service.DefaultCaseParallelism,
			Calls: service.DefaultCallParallelism,
		},
		Retry: RetryConfig{
			MaxAttempts:  retry.DefaultMaxAttempts,
			BaseInterval: Duration(retry.DefaultBaseInterval),
			MaxInterval:  Duration(retry.DefaultMaxInterval),
		},
	}
}

// Load reads, parses, and validates the YAML config at path. Absent keys
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for contradictions before any model call.
func (c *Config) Validate() error {
	if c.Judge == nil || c.Judge.Model == "" {
		return fmt.Errorf("judge model is required")
	}
	switch c.Metrics.Set {
	case MetricSetFull, MetricSetReduced:
	default:
		return fmt.Errorf("unknown metric set %q, want %q or %q",
			c.Metrics.Set, MetricSetFull, MetricSetReduced)
	}
	if c.Mode != "" {
		if _, err := dataset.ParseMode(c.Mode); err != nil {
			return err
		}
	}
	for name, threshold := range c.Metrics.Thresholds {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold for metric %s must be in [0, 1], got %v", name, threshold)
		}
	}
	if c.Concurrency.Cases <= 0 {
		return fmt.Errorf("concurrency.cases must be greater than 0")
	}
	if c.Concurrency.Calls <= 0 {
		return fmt.Errorf("concurrency.calls must be greater than 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be greater than 0")
	}
	if c.ForcedMode() == dataset.ModeGenerate || c.Mode == "" {
		// Candidate endpoints are validated lazily: auto-detected
		// prerecorded datasets never need them.
		if c.Candidates != nil {
			if err := validateCandidate("a", c.Candidates.A); err != nil {
				return err
			}
			if err := validateCandidate("b", c.Candidates.B); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCandidate(name string, mc *ModelConfig) error {
	if mc == nil {
		return nil
	}
	if mc.Model == "" {
		return fmt.Errorf("candidates.%s.model is required when candidates.%s is set", name, name)
	}
	return nil
}

// ForcedMode returns the configured mode override, or ModeUnspecified when
// auto-detection applies.
func (c *Config) ForcedMode() dataset.Mode {
	if c.Mode == "" {
		return dataset.ModeUnspecified
	}
	mode, err := dataset.ParseMode(c.Mode)
	if err != nil {
		return dataset.ModeUnspecified
	}
	return mode
}

// SystemPrompt reads the configured instruction file. An unset path yields
// an empty prompt.
func (c *Config) SystemPrompt() (string, error) {
	if c.SystemPromptFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// CandidateModels reports whether both generator endpoints are configured.
func (c *Config) CandidateModels() (a, b *ModelConfig, ok bool) {
	if c.Candidates == nil || c.Candidates.A == nil || c.Candidates.B == nil {
		return nil, nil, false
	}
	return c.Candidates.A, c.Candidates.B, true
}
