package config

import (
	"fmt"
	"os"

	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/identity"
	"github.com/dyluth/veil/pkg/pseudonym"
	"github.com/dyluth/veil/pkg/redact"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "veil.yml"

// EnvRedisURL overrides redis_url when set.
const EnvRedisURL = "VEIL_REDIS_URL"

// VeilConfig represents the top-level veil.yml configuration
type VeilConfig struct {
	Version               string           `yaml:"version"`
	Session               string           `yaml:"session"`
	RedisURL              string           `yaml:"redis_url,omitempty"`
	Pseudonym             *PseudonymConfig `yaml:"pseudonym,omitempty"`
	Redaction             *RedactionConfig `yaml:"redaction,omitempty"`
	MinimumIdentityLength *int             `yaml:"minimum_identity_length,omitempty"` // Enumeration heuristic threshold (default 16)
	Hub                   *HubConfig       `yaml:"hub,omitempty"`
}

// PseudonymConfig controls how pseudonyms are minted
type PseudonymConfig struct {
	TargetBucket *int   `yaml:"target_bucket,omitempty"` // 0..36, default 0
	Prefix       string `yaml:"prefix,omitempty"`        // default "anon_"
	SuffixLength *int   `yaml:"suffix_length,omitempty"` // >= 3, default 10
	MaxAttempts  *int   `yaml:"max_attempts,omitempty"`  // rejection search cap, default 10000
}

// RedactionConfig holds the redaction toggles
type RedactionConfig struct {
	Pseudonymize     *bool `yaml:"pseudonymize,omitempty"` // default true
	Pointer          *bool `yaml:"pointer,omitempty"`      // default true
	Username         *bool `yaml:"username,omitempty"`     // default true
	Selection        bool  `yaml:"selection,omitempty"`
	EnumerationDebug bool  `yaml:"enumeration_debug,omitempty"`
	InterceptEntries bool  `yaml:"intercept_entries,omitempty"`
}

// HubConfig overrides the local Redis hub started by `veil up`
type HubConfig struct {
	Image string `yaml:"image,omitempty"` // default redis:7-alpine
}

// Default returns a validated configuration with every default applied.
func Default() *VeilConfig {
	cfg := &VeilConfig{Version: "1.0", Session: "default"}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *VeilConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Session == "" {
		return fmt.Errorf("session is required")
	}

	if c.Pseudonym == nil {
		c.Pseudonym = &PseudonymConfig{}
	}
	if err := c.Pseudonym.validate(); err != nil {
		return err
	}

	if c.Redaction == nil {
		c.Redaction = &RedactionConfig{}
	}
	c.Redaction.applyDefaults()

	if c.MinimumIdentityLength == nil {
		minLen := redact.DefaultMinimumIdentityLength
		c.MinimumIdentityLength = &minLen
	}
	if *c.MinimumIdentityLength < 1 {
		return fmt.Errorf("minimum_identity_length must be >= 1, got %d", *c.MinimumIdentityLength)
	}

	if c.Hub == nil {
		c.Hub = &HubConfig{}
	}
	if c.Hub.Image == "" {
		c.Hub.Image = "redis:7-alpine"
	}

	return nil
}

func (p *PseudonymConfig) validate() error {
	if p.TargetBucket == nil {
		bucket := 0
		p.TargetBucket = &bucket
	}
	if err := hue.Bucket(*p.TargetBucket).Validate(); err != nil {
		return fmt.Errorf("pseudonym.target_bucket: %w", err)
	}

	if p.Prefix == "" {
		p.Prefix = pseudonym.DefaultPrefix
	}

	if p.SuffixLength == nil {
		suffix := pseudonym.DefaultSuffixLength
		p.SuffixLength = &suffix
	}
	if *p.SuffixLength < pseudonym.MinSuffixLength {
		return fmt.Errorf("pseudonym.suffix_length must be >= %d, got %d", pseudonym.MinSuffixLength, *p.SuffixLength)
	}

	if p.MaxAttempts == nil {
		attempts := pseudonym.DefaultMaxAttempts
		p.MaxAttempts = &attempts
	}
	if *p.MaxAttempts < 1 {
		return fmt.Errorf("pseudonym.max_attempts must be >= 1, got %d", *p.MaxAttempts)
	}

	return nil
}

func (r *RedactionConfig) applyDefaults() {
	enabled := func(b **bool) {
		if *b == nil {
			v := true
			*b = &v
		}
	}
	enabled(&r.Pseudonymize)
	enabled(&r.Pointer)
	enabled(&r.Username)
}

// Policy converts the redaction section into an interceptor policy.
// Validate must have been called.
func (c *VeilConfig) Policy() redact.Policy {
	return redact.Policy{
		Pseudonymize:          *c.Redaction.Pseudonymize,
		Pointer:               *c.Redaction.Pointer,
		Username:              *c.Redaction.Username,
		Selection:             c.Redaction.Selection,
		EnumerationDebug:      c.Redaction.EnumerationDebug,
		InterceptEntries:      c.Redaction.InterceptEntries,
		MinimumIdentityLength: *c.MinimumIdentityLength,
	}
}

// RegistryOptions converts the pseudonym section into registry options with
// a generator honouring max_attempts. Validate must have been called.
func (c *VeilConfig) RegistryOptions() identity.Options {
	return identity.Options{
		TargetBucket: hue.Bucket(*c.Pseudonym.TargetBucket),
		Prefix:       c.Pseudonym.Prefix,
		SuffixLength: *c.Pseudonym.SuffixLength,
		Generator:    pseudonym.NewGenerator(pseudonym.WithMaxAttempts(*c.Pseudonym.MaxAttempts)),
	}
}

// ResolveRedisURL returns the Redis URL, preferring the environment override.
func (c *VeilConfig) ResolveRedisURL() string {
	if env := os.Getenv(EnvRedisURL); env != "" {
		return env
	}
	return c.RedisURL
}

// Load reads and validates veil.yml from the specified path
func Load(path string) (*VeilConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config VeilConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path if it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*VeilConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Marshal renders the configuration as YAML.
func (c *VeilConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
