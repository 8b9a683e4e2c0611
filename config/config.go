// Package config loads the client configuration file (YAML).
//
// Durations are Go duration strings ("500ms", "30s"). Every Get accessor returns
// the default when the value is unset or invalid; Validate reports invalid values.
//
// Example:
//
//	node: node.plotthread.org:8832
//	reconnect:
//	  initial_interval: 500ms
//	  max_interval: 30s
//	storage:
//	  backend: bolt
//	  config:
//	    bolt-path: ~/.plotthread/state.db
//	archive:
//	  write_policy: all
//	  backends:
//	    - name: localfs
//	      config: {dir: ~/.plotthread/archive}
//	    - name: grpc
//	      config: {target: "archive.internal:7443"}
//	log:
//	  level: info
//	  format: text
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"plotthread.org/client/keys"
	"plotthread.org/client/protocol"
)

type Config struct {
	// Node is the host[:port] (or ws/wss URL) of the node to connect to.
	Node        string `yaml:"node"`
	Subprotocol string `yaml:"subprotocol,omitempty"`

	Reconnect *ReconnectConfig `yaml:"reconnect,omitempty"`

	DialTimeout string `yaml:"dial_timeout,omitempty"`
	// ReadLimit caps the size of one inbound frame in bytes.
	ReadLimit int64 `yaml:"read_limit,omitempty"`

	SeriesLength   uint64 `yaml:"series_length,omitempty"`
	ImportKeyCount int    `yaml:"import_key_count,omitempty"`
	// MinPassphraseScore is the weakest zxcvbn score accepted on import (0-4).
	MinPassphraseScore *int `yaml:"min_passphrase_score,omitempty"`

	Storage *StorageConfig `yaml:"storage,omitempty"`
	Archive *ArchiveConfig `yaml:"archive,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

type ReconnectConfig struct {
	InitialInterval string `yaml:"initial_interval,omitempty"`
	MaxInterval     string `yaml:"max_interval,omitempty"`
}

// StorageConfig selects the kvregistry backend the client persists state in.
type StorageConfig struct {
	Backend string            `yaml:"backend"`
	Config  map[string]string `yaml:"config,omitempty"`
}

// ArchiveConfig lists archive backends.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in order
// - "all": write to every backend and require CID equality (see archive.Replicating)
type ArchiveConfig struct {
	WritePolicy string          `yaml:"write_policy,omitempty"`
	Backends    []BackendConfig `yaml:"backends"`
}

type BackendConfig struct {
	// Name is the registered archive backend ("localfs", "grpc").
	Name string `yaml:"name"`
	// ID is an optional alias; Name is used when empty.
	ID     string            `yaml:"id,omitempty"`
	Config map[string]string `yaml:"config,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) GetSubprotocol() string {
	if c == nil || c.Subprotocol == "" {
		return protocol.DefaultSubprotocol
	}
	return c.Subprotocol
}

func (c *Config) GetDialTimeout() time.Duration {
	if c == nil {
		return protocol.DefaultDialTimeout
	}
	return duration(c.DialTimeout, protocol.DefaultDialTimeout)
}

func (c *Config) GetReadLimit() int64 {
	if c == nil || c.ReadLimit <= 0 {
		return protocol.DefaultReadLimit
	}
	return c.ReadLimit
}

func (c *Config) GetSeriesLength() uint64 {
	if c == nil || c.SeriesLength == 0 {
		return keys.DefaultSeriesLength
	}
	return c.SeriesLength
}

func (c *Config) GetImportKeyCount() int {
	if c == nil || c.ImportKeyCount <= 0 {
		return keys.DefaultImportCount
	}
	return c.ImportKeyCount
}

func (c *Config) GetMinPassphraseScore() int {
	if c == nil || c.MinPassphraseScore == nil {
		return keys.DefaultMinScore
	}
	return *c.MinPassphraseScore
}

func (r *ReconnectConfig) GetInitialInterval() time.Duration {
	if r == nil {
		return protocol.DefaultInitialInterval
	}
	return duration(r.InitialInterval, protocol.DefaultInitialInterval)
}

func (r *ReconnectConfig) GetMaxInterval() time.Duration {
	if r == nil {
		return protocol.DefaultMaxInterval
	}
	return duration(r.MaxInterval, protocol.DefaultMaxInterval)
}

// GetBackend returns the storage backend name, "memory" when unset.
func (s *StorageConfig) GetBackend() string {
	if s == nil || s.Backend == "" {
		return "memory"
	}
	return s.Backend
}

func (l *LogConfig) GetLevel() string {
	if l == nil || l.Level == "" {
		return "info"
	}
	return l.Level
}

func (l *LogConfig) GetFormat() string {
	if l == nil || l.Format == "" {
		return "text"
	}
	return l.Format
}

// ChannelOptions maps the config onto protocol.Options. Logger, Meter and
// HTTPClient are left for the caller.
func (c *Config) ChannelOptions() protocol.Options {
	var node string
	var rc *ReconnectConfig
	if c != nil {
		node, rc = c.Node, c.Reconnect
	}
	return protocol.Options{
		URL:             node,
		Subprotocol:     c.GetSubprotocol(),
		DialTimeout:     c.GetDialTimeout(),
		ReadLimit:       c.GetReadLimit(),
		InitialInterval: rc.GetInitialInterval(),
		MaxInterval:     rc.GetMaxInterval(),
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := checkDuration("dial_timeout", c.DialTimeout); err != nil {
		return err
	}
	if c.Reconnect != nil {
		if err := checkDuration("reconnect.initial_interval", c.Reconnect.InitialInterval); err != nil {
			return err
		}
		if err := checkDuration("reconnect.max_interval", c.Reconnect.MaxInterval); err != nil {
			return err
		}
		if c.Reconnect.GetMaxInterval() < c.Reconnect.GetInitialInterval() {
			return errors.New("config: reconnect.max_interval is below initial_interval")
		}
	}
	if c.ReadLimit < 0 {
		return errors.New("config: read_limit must not be negative")
	}
	if c.ImportKeyCount < 0 {
		return errors.New("config: import_key_count must not be negative")
	}
	if s := c.MinPassphraseScore; s != nil && (*s < 0 || *s > 4) {
		return fmt.Errorf("config: min_passphrase_score %d is outside 0-4", *s)
	}
	if c.Archive != nil {
		if err := c.Archive.Validate(); err != nil {
			return err
		}
	}
	if c.Log != nil {
		if _, err := parseLevel(c.Log.GetLevel()); err != nil {
			return err
		}
		switch c.Log.GetFormat() {
		case "text", "json":
		default:
			return fmt.Errorf("config: invalid log.format %q", c.Log.Format)
		}
	}
	return nil
}

func (a *ArchiveConfig) Validate() error {
	seen := make(map[string]struct{}, len(a.Backends))
	for _, b := range a.Backends {
		if b.Name == "" {
			return errors.New("config: archive backend name is required")
		}
		id := b.id()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("config: duplicate archive backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch a.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("config: invalid archive.write_policy %q", a.WritePolicy)
	}
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func checkDuration(field, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("config: %s must be positive", field)
	}
	return nil
}
