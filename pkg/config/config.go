// Package config loads tokensync settings from a TOML file.
//
// A minimal file selects a persistent store:
//
//	[store]
//	backend = "file"
//	path = "tokens.store.json"
//	profile = "display-p3"
//
//	[document]
//	lenient_hex = true
//
// Missing fields take the values of [Default]. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/ir"
	"github.com/matzehuels/tokensync/pkg/store/redis"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Defaults.
const (
	DefaultBackend   = BackendFile
	DefaultStorePath = "tokens.store.json"
	DefaultProfile   = color.ProfileSRGB
	DefaultRedisAddr = "localhost:6379"
	DefaultMongoURI  = "mongodb://localhost:27017"
	DefaultMongoDB   = "tokensync"
	DefaultAddr      = ":8080"
)

// ValidBackends is the set of supported store backends.
var ValidBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendRedis:  true,
	BackendMongo:  true,
}

// Config is the complete configuration.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Document DocumentConfig `toml:"document"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Backend  string        `toml:"backend"`
	Path     string        `toml:"path"`
	Profile  color.Profile `toml:"profile"`
	MaxModes int           `toml:"max_modes"`
	Redis    RedisConfig   `toml:"redis"`
	Mongo    MongoConfig   `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// DocumentConfig mirrors document.ReadOptions and document.WriteOptions.
type DocumentConfig struct {
	LenientHex  bool   `toml:"lenient_hex"`
	DefaultMode string `toml:"default_mode"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig controls the validation report cache of the CLI.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.WithDefaults()
	return c
}

// WithDefaults fills zero fields in place and returns c.
func (c *Config) WithDefaults() *Config {
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Store.Profile == "" {
		c.Store.Profile = DefaultProfile
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = DefaultRedisAddr
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = redis.DefaultPrefix
	}
	if c.Store.Mongo.URI == "" {
		c.Store.Mongo.URI = DefaultMongoURI
	}
	if c.Store.Mongo.Database == "" {
		c.Store.Mongo.Database = DefaultMongoDB
	}
	if c.Document.DefaultMode == "" {
		c.Document.DefaultMode = ir.DefaultMode
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	return c
}

// Validate checks field values. It expects defaults to be applied.
func (c *Config) Validate() error {
	if !ValidBackends[c.Store.Backend] {
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend %q must be one of: memory, file, redis, mongo", c.Store.Backend)
	}
	if _, err := color.ParseProfile(string(c.Store.Profile)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "store.profile")
	}
	if c.Store.MaxModes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.max_modes must not be negative")
	}
	if c.Store.Redis.DB < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.redis.db must not be negative")
	}
	if err := errors.ValidateName(c.Document.DefaultMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "document.default_mode")
	}
	return nil
}

// ReadOptions returns the document reader options.
func (c *Config) ReadOptions() document.ReadOptions {
	return document.ReadOptions{LenientHex: c.Document.LenientHex, DefaultMode: c.Document.DefaultMode}
}

// WriteOptions returns the document writer options.
func (c *Config) WriteOptions() document.WriteOptions {
	return document.WriteOptions{DefaultMode: c.Document.DefaultMode}
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text, applies defaults and validates the result.
func Parse(text string) (*Config, error) {
	var c Config
	md, err := toml.Decode(text, &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault loads path if given. Without a path it tries [Find] and
// falls back to [Default].
func LoadOrDefault(path string) (*Config, string, error) {
	if path != "" {
		c, err := Load(path)
		return c, path, err
	}
	found, ok := Find()
	if !ok {
		return Default(), "", nil
	}
	c, err := Load(found)
	if err != nil {
		return nil, found, fmt.Errorf("%s: %w", found, err)
	}
	return c, found, nil
}
