// Package config loads the pipegraph configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/pipegraph/config.toml, or
// ~/.config/pipegraph/config.toml when XDG_CONFIG_HOME is unset:
//
//	[layout]
//	node_width = 200
//	iterations = 300
//
//	[groups]
//	backend = "redis"
//	addr = "localhost:6379"
//
//	[cache]
//	backend = "file"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
// Every section is optional. A missing default file yields [Default]; an
// explicitly named file that does not exist is an error.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipegraph/pkg/cache"
	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/layout"
)

const appName = "pipegraph"

// Group store backends.
const (
	GroupsFile  = "file"
	GroupsRedis = "redis"
	GroupsMongo = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultServerAddr is the listen address of `pipegraph serve`.
const DefaultServerAddr = ":8080"

// Config is the full configuration file.
type Config struct {
	Layout layout.Config `toml:"layout"`
	Groups Groups        `toml:"groups"`
	Cache  Cache         `toml:"cache"`
	Server Server        `toml:"server"`
}

// Groups selects and configures the group store.
type Groups struct {
	Backend string `toml:"backend"`

	// file
	Path string `toml:"path,omitempty"`

	// redis
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Key      string `toml:"key,omitempty"`

	// mongo
	URI        string `toml:"uri,omitempty"`
	Database   string `toml:"database,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// Cache selects and configures the layout cache.
type Cache struct {
	Backend string   `toml:"backend"`
	TTL     Duration `toml:"ttl"`

	// file
	Dir string `toml:"dir,omitempty"`

	// redis
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Prefix   string `toml:"prefix,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("36h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists. The layout
// section is left empty so layout defaults keep following the canvas size.
func Default() Config {
	return Config{
		Groups: Groups{Backend: GroupsFile},
		Cache:  Cache{Backend: CacheFile, TTL: Duration{cache.TTLLayout}},
		Server: Server{Addr: DefaultServerAddr},
	}
}

// Path returns the default configuration file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over [Default]. An empty path loads the
// default location, where a missing file is not an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over [Default] and validates the result. Unknown
// keys are rejected so typos do not go unnoticed.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and the layout section.
func (c Config) Validate() error {
	if !slices.Contains([]string{GroupsFile, GroupsRedis, GroupsMongo}, c.Groups.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "groups.backend: %q (must be one of: file, redis, mongo)", c.Groups.Backend)
	}
	if c.Groups.Backend == GroupsMongo && c.Groups.URI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "groups.uri is required for the mongo backend")
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	return c.Layout.Validate()
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
