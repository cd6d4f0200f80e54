package api

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetryPolicy controls how a handler is retried when it returns an error.
// MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
//
// Between failed attempts the engine waits InitialBackoff, multiplied by
// BackoffMultiplier after each attempt and capped at MaxBackoff (no cap if
// MaxBackoff <= 0). A zero InitialBackoff retries immediately.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// Fate is the engine configuration. It is constructed once, handed by
// reference to every action via Life, and never mutated afterwards.
type Fate struct {
	// Workers is the Sequence worker-pool size.
	Workers int

	// PollInterval bounds how long an idle worker sleeps between queue
	// polls when no assignment wakes it first.
	PollInterval time.Duration

	// CacheTTL is the lifetime of Life.Cache entries. Zero means entries
	// never expire.
	CacheTTL time.Duration

	// Retry is the engine-wide retry policy applied to handler failures.
	Retry RetryPolicy
}

// DefaultFate returns the configuration used when nothing is specified:
// 4 workers, 50ms idle poll, no cache expiry, 1 attempt (no retries) with
// standard exponential backoff settings should retries be enabled.
func DefaultFate() *Fate {
	return &Fate{
		Workers:      4,
		PollInterval: 50 * time.Millisecond,
		Retry: RetryPolicy{
			MaxAttempts:       1,
			InitialBackoff:    100 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	}
}

// fateDoc is the YAML shape of a Fate. Durations are strings in Go
// duration syntax, e.g. "250ms" or "2s".
type fateDoc struct {
	Workers      int    `yaml:"workers"`
	PollInterval string `yaml:"poll_interval"`
	CacheTTL     string `yaml:"cache_ttl"`
	Retry        struct {
		MaxAttempts       int     `yaml:"max_attempts"`
		InitialBackoff    string  `yaml:"initial_backoff"`
		BackoffMultiplier float64 `yaml:"backoff_multiplier"`
		MaxBackoff        string  `yaml:"max_backoff"`
	} `yaml:"retry"`
}

// ParseFate decodes a YAML document into a Fate. Unspecified fields fall
// back to DefaultFate values.
func ParseFate(data []byte) (*Fate, error) {
	var doc fateDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fate: %w", err)
	}

	f := DefaultFate()
	if doc.Workers > 0 {
		f.Workers = doc.Workers
	}

	var err error
	if f.PollInterval, err = parseDuration("poll_interval", doc.PollInterval, f.PollInterval); err != nil {
		return nil, err
	}
	if f.CacheTTL, err = parseDuration("cache_ttl", doc.CacheTTL, f.CacheTTL); err != nil {
		return nil, err
	}

	if doc.Retry.MaxAttempts > 0 {
		f.Retry.MaxAttempts = doc.Retry.MaxAttempts
	}
	if doc.Retry.BackoffMultiplier > 0 {
		f.Retry.BackoffMultiplier = doc.Retry.BackoffMultiplier
	}
	if f.Retry.InitialBackoff, err = parseDuration("retry.initial_backoff", doc.Retry.InitialBackoff, f.Retry.InitialBackoff); err != nil {
		return nil, err
	}
	if f.Retry.MaxBackoff, err = parseDuration("retry.max_backoff", doc.Retry.MaxBackoff, f.Retry.MaxBackoff); err != nil {
		return nil, err
	}

	return f, nil
}

// LoadFate reads and parses a YAML configuration file.
func LoadFate(path string) (*Fate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fate: %w", err)
	}
	return ParseFate(data)
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse fate: %s: %w", key, err)
	}
	return d, nil
}
