// Package config loads the run configuration from defaults, an optional
// YAML/JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/booker/internal/booker"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL  = "BASE_URL"
	EnvUsers    = "USERS"
	EnvDuration = "DURATION"
	EnvTimeout  = "REQUEST_TIMEOUT"
	EnvUsername = "BOOKER_USERNAME"
	EnvPassword = "BOOKER_PASSWORD"
)

// Swarm task names accepted in Weights.
const (
	TaskPing            = "ping"
	TaskAuth            = "auth"
	TaskCreateGetDelete = "create_get_delete"
)

// Config is read once at start and fixed for the run.
type Config struct {
	BaseURL  string   `json:"baseUrl" yaml:"baseUrl"`
	Users    int      `json:"users" yaml:"users"`
	Duration Duration `json:"duration" yaml:"duration"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
	Pacing   Duration `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"password" yaml:"password"`

	Swarm  SwarmConfig  `json:"swarm" yaml:"swarm"`
	Attack AttackConfig `json:"attack" yaml:"attack"`
}

// SwarmConfig tunes the weighted-task simulator.
type SwarmConfig struct {
	WaitMin Duration `json:"waitMin" yaml:"waitMin"`
	WaitMax Duration `json:"waitMax" yaml:"waitMax"`
	// SpawnRate is users started per second; 0 starts everyone at once.
	SpawnRate float64        `json:"spawnRate,omitempty" yaml:"spawnRate,omitempty"`
	Weights   map[string]int `json:"weights" yaml:"weights"`
}

// AttackConfig tunes the constant-rate attack.
type AttackConfig struct {
	Rate     int      `json:"rate" yaml:"rate"`
	Duration Duration `json:"duration" yaml:"duration"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:  booker.DefaultBaseURL,
		Users:    5,
		Duration: Duration(15 * time.Second),
		Timeout:  Duration(10 * time.Second),
		Username: booker.DefaultUsername,
		Password: booker.DefaultPassword,
		Swarm: SwarmConfig{
			WaitMin: Duration(500 * time.Millisecond),
			WaitMax: Duration(2 * time.Second),
			Weights: DefaultWeights(),
		},
		Attack: AttackConfig{
			Rate:     10,
			Duration: Duration(10 * time.Second),
		},
	}
}

// DefaultWeights returns ping 1, auth 2, create_get_delete 3.
func DefaultWeights() map[string]int {
	return map[string]int{
		TaskPing:            1,
		TaskAuth:            2,
		TaskCreateGetDelete: 3,
	}
}

// Credentials returns the configured credential pair.
func (c *Config) Credentials() booker.Credentials {
	return booker.Credentials{Username: c.Username, Password: c.Password}
}

// Load builds a configuration from defaults, the file at path (if not empty)
// and the environment, in that order of precedence.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := Parse(data, path, cfg); err != nil {
			return nil, err
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data over cfg. The format is picked from the extension of
// path; anything but .json is read as YAML. Swarm weights given in the file
// replace cfg's weights instead of merging into them.
func Parse(data []byte, path string, cfg *Config) error {
	weights := cfg.Swarm.Weights
	cfg.Swarm.Weights = nil
	if err := decode(data, path, cfg); err != nil {
		cfg.Swarm.Weights = weights
		return err
	}
	if cfg.Swarm.Weights == nil {
		cfg.Swarm.Weights = weights
	}
	return nil
}

func decode(data []byte, path string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment. Unset or empty variables
// are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvUsers); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUsers, v, err)
		}
		c.Users = n
	}
	if v := getenv(EnvDuration); v != "" {
		d, err := ParseDurationString(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDuration, err)
		}
		c.Duration = Duration(d)
		c.Attack.Duration = Duration(d)
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := ParseDurationString(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	if v := getenv(EnvUsername); v != "" {
		c.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Password = v
	}
	return nil
}

// ParseDurationString accepts a Go duration ("30s", "1m30s") or a bare
// integer number of seconds ("30").
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if seconds, err := strconv.Atoi(s); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// Duration is a time.Duration read from "15s" style strings or from integer
// seconds in YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDurationString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}
