// Package config loads the YAML configuration that drives the CLI: which
// store target to open, how to parse inputs and how to batch writes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store target kinds.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindNative = "native"
	KindHTTP   = "http"
	KindSPARQL = "sparql"
)

// DefaultIndexOrder is the index set of the native store when none is
// configured.
const DefaultIndexOrder = "spoc,posc,cosp"

// Config is the root of the configuration file.
type Config struct {
	Store Store `yaml:"store"`
	Parse Parse `yaml:"parse"`
	Write Write `yaml:"write"`
}

// Store selects and parameterizes a store target.
type Store struct {
	// Kind is one of memory, sqlite, native, http or sparql.
	Kind string `yaml:"kind"`

	// Path is the database file (sqlite) or directory (native).
	Path string `yaml:"path,omitempty"`

	// IndexOrder lists the native store's key permutations.
	IndexOrder string `yaml:"index_order,omitempty"`

	// URL is the repository endpoint (http). Updates go to URL + "/statements".
	URL string `yaml:"url,omitempty"`

	// QueryURL and UpdateURL are the endpoints of a sparql target.
	QueryURL  string `yaml:"query_url,omitempty"`
	UpdateURL string `yaml:"update_url,omitempty"`

	// Timeout bounds each remote request.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Parse configures the parse bridge.
type Parse struct {
	// Capacity is the handoff queue size.
	Capacity int `yaml:"capacity,omitempty"`
	// BaseIRI resolves relative references.
	BaseIRI string `yaml:"base_iri,omitempty"`
	// PreserveBlankNodes keeps parser labels unscoped.
	PreserveBlankNodes bool `yaml:"preserve_blank_nodes,omitempty"`
}

// Write configures the write path.
type Write struct {
	// BatchSize is the number of statements committed per transaction.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// Default returns a configuration for an in-memory store.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads and validates a configuration file. Unknown fields are errors
// so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Decode(data)
}

// Decode decodes, defaults and validates YAML configuration.
func Decode(data []byte) (*Config, error) {
	c := &Config{}
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Store.Kind == "" {
		c.Store.Kind = KindMemory
	}
	c.Store.Kind = strings.ToLower(c.Store.Kind)
	if c.Store.Kind == KindNative && c.Store.IndexOrder == "" {
		c.Store.IndexOrder = DefaultIndexOrder
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = 30 * time.Second
	}
	if c.Parse.Capacity == 0 {
		c.Parse.Capacity = 32
	}
	if c.Write.BatchSize == 0 {
		c.Write.BatchSize = 1000
	}
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Parse.Capacity < 1 {
		return &ValidationError{Field: "parse.capacity", Message: "must be at least 1"}
	}
	if c.Write.BatchSize < 1 {
		return &ValidationError{Field: "write.batch_size", Message: "must be at least 1"}
	}
	return nil
}

// Validate checks the store section.
func (s Store) Validate() error {
	switch s.Kind {
	case KindMemory:
	case KindSQLite, KindNative:
		if s.Path == "" {
			return &ValidationError{Field: "store.path", Message: "is required for " + s.Kind}
		}
		if s.Kind == KindNative && s.IndexOrder != "" {
			if err := ValidateIndexOrder(s.IndexOrder); err != nil {
				return &ValidationError{Field: "store.index_order", Message: err.Error()}
			}
		}
	case KindHTTP:
		if s.URL == "" {
			return &ValidationError{Field: "store.url", Message: "is required for http"}
		}
	case KindSPARQL:
		if s.QueryURL == "" {
			return &ValidationError{Field: "store.query_url", Message: "is required for sparql"}
		}
	default:
		return &ValidationError{Field: "store.kind", Message: fmt.Sprintf("unknown kind %q", s.Kind)}
	}
	if s.Timeout < 0 {
		return &ValidationError{Field: "store.timeout", Message: "must not be negative"}
	}
	return nil
}

// ValidateIndexOrder checks a comma-separated list of indexes, each a
// permutation of the letters s, p, o and c.
func ValidateIndexOrder(order string) error {
	if strings.TrimSpace(order) == "" {
		return errors.New("at least one index is required")
	}
	seen := map[string]bool{}
	for _, idx := range strings.Split(order, ",") {
		idx = strings.TrimSpace(idx)
		if len(idx) != 4 || !isPermutation(idx) {
			return fmt.Errorf("index %q is not a permutation of spoc", idx)
		}
		if seen[idx] {
			return fmt.Errorf("index %q is listed twice", idx)
		}
		seen[idx] = true
	}
	return nil
}

func isPermutation(idx string) bool {
	var seen [4]bool
	for _, r := range idx {
		i := strings.IndexRune("spoc", r)
		if i < 0 || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}
