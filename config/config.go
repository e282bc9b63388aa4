// Package config loads the server configuration: defaults, then an optional
// YAML file, then an optional .env file, then RESTO_* environment variables,
// then command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/internal/storeinfra/bunstore"
	"github.com/goliatone/go-restaurant-api/internal/storeinfra/mongostore"
	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RESTO_"

type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
	Cache CacheConfig `yaml:"cache"`
	Log   LogConfig   `yaml:"log"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	// Backend is either "relational" or "document". It is read once at startup.
	Backend    string           `yaml:"backend"`
	Timeout    time.Duration    `yaml:"timeout"`
	Relational RelationalConfig `yaml:"relational"`
	Document   DocumentConfig   `yaml:"document"`
}

type RelationalConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	AutoCreate      bool          `yaml:"auto_create"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type DocumentConfig struct {
	URI             string        `yaml:"uri"`
	Database        string        `yaml:"database"`
	ReferenceChecks bool          `yaml:"reference_checks"`
	ConnectRetries  int           `yaml:"connect_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type CacheConfig struct {
	Driver    string             `yaml:"driver"`
	OpTimeout time.Duration      `yaml:"op_timeout"`
	DetailTTL time.Duration      `yaml:"detail_ttl"`
	ListTTL   time.Duration      `yaml:"list_ttl"`
	KindTTL   map[string]KindTTL `yaml:"kind_ttl"`
	Memory    MemoryConfig       `yaml:"memory"`
	Redis     RedisConfig        `yaml:"redis"`
}

type KindTTL struct {
	Detail time.Duration `yaml:"detail"`
	List   time.Duration `yaml:"list"`
}

type MemoryConfig struct {
	Capacity           int `yaml:"capacity"`
	NumShards          int `yaml:"num_shards"`
	EvictionPercentage int `yaml:"eviction_percentage"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it: a local
// SQLite file and the in-process cache.
func Default() Config {
	c := cache.DefaultConfig()
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: store.BackendRelational,
			Timeout: 5 * time.Second,
			Relational: RelationalConfig{
				Driver:          bunstore.DriverSQLite,
				DSN:             "file:restaurant.db?cache=shared",
				AutoCreate:      true,
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Document: DocumentConfig{
				URI:             "mongodb://localhost:27017",
				Database:        "restaurant",
				ReferenceChecks: true,
				ConnectRetries:  10,
				RetryDelay:      2 * time.Second,
			},
		},
		Cache: CacheConfig{
			Driver:    c.Driver,
			OpTimeout: c.OpTimeout,
			DetailTTL: c.TTL.Detail,
			ListTTL:   c.TTL.List,
			Memory: MemoryConfig{
				Capacity:           c.Memory.Capacity,
				NumShards:          c.Memory.NumShards,
				EvictionPercentage: c.Memory.EvictionPercentage,
			},
			Redis: RedisConfig{Addr: c.Redis.Addr, DB: c.Redis.DB},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from args (without the program name).
// A missing .env file is not an error; a missing YAML file named with -config is.
func Load(args []string) (Config, error) {
	fsFlags := flag.NewFlagSet("server", flag.ContinueOnError)
	fsFlags.SetOutput(io.Discard)

	path := fsFlags.String("config", os.Getenv(EnvPrefix+"CONFIG"), "path to a YAML config file")
	envFile := fsFlags.String("env-file", ".env", "path to a .env file")
	addr := fsFlags.String("addr", "", "HTTP listen address")
	backend := fsFlags.String("backend", "", "store backend (relational or document)")
	cacheDriver := fsFlags.String("cache", "", "cache driver (memory or redis)")
	logLevel := fsFlags.String("log-level", "", "log level")

	if err := fsFlags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	cfg := Default()

	if *path != "" {
		if err := cfg.loadYAML(*path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	fsFlags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.HTTP.Addr = *addr
		case "backend":
			cfg.Store.Backend = *backend
		case "cache":
			cfg.Cache.Driver = *cacheDriver
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from RESTO_* variables. DB_ENGINE is also honored
// with its legacy values "postgres" and "mongo".
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	if engine, ok := env.raw("DB_ENGINE"); ok {
		switch strings.ToLower(engine) {
		case "postgres", "postgresql":
			c.Store.Backend = store.BackendRelational
		case "mongo", "mongodb":
			c.Store.Backend = store.BackendDocument
		}
	}

	env.str("HTTP_ADDR", &c.HTTP.Addr)
	env.duration("HTTP_READ_TIMEOUT", &c.HTTP.ReadTimeout)
	env.duration("HTTP_WRITE_TIMEOUT", &c.HTTP.WriteTimeout)
	env.list("HTTP_ALLOWED_ORIGINS", &c.HTTP.AllowedOrigins)

	env.str("STORE_BACKEND", &c.Store.Backend)
	env.duration("STORE_TIMEOUT", &c.Store.Timeout)

	env.str("RELATIONAL_DRIVER", &c.Store.Relational.Driver)
	env.str("RELATIONAL_DSN", &c.Store.Relational.DSN)
	env.boolean("RELATIONAL_AUTO_CREATE", &c.Store.Relational.AutoCreate)
	env.integer("RELATIONAL_MAX_OPEN_CONNS", &c.Store.Relational.MaxOpenConns)
	env.integer("RELATIONAL_MAX_IDLE_CONNS", &c.Store.Relational.MaxIdleConns)
	env.duration("RELATIONAL_CONN_MAX_LIFETIME", &c.Store.Relational.ConnMaxLifetime)

	env.str("DOCUMENT_URI", &c.Store.Document.URI)
	env.str("DOCUMENT_DATABASE", &c.Store.Document.Database)
	env.boolean("DOCUMENT_REFERENCE_CHECKS", &c.Store.Document.ReferenceChecks)
	env.integer("DOCUMENT_CONNECT_RETRIES", &c.Store.Document.ConnectRetries)
	env.duration("DOCUMENT_RETRY_DELAY", &c.Store.Document.RetryDelay)

	env.str("CACHE_DRIVER", &c.Cache.Driver)
	env.duration("CACHE_OP_TIMEOUT", &c.Cache.OpTimeout)
	env.duration("CACHE_DETAIL_TTL", &c.Cache.DetailTTL)
	env.duration("CACHE_LIST_TTL", &c.Cache.ListTTL)
	env.integer("CACHE_MEMORY_CAPACITY", &c.Cache.Memory.Capacity)
	env.str("REDIS_ADDR", &c.Cache.Redis.Addr)
	env.str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	env.integer("REDIS_DB", &c.Cache.Redis.DB)

	env.str("LOG_LEVEL", &c.Log.Level)

	return env.err
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) raw(name string) (string, bool) {
	v, ok := e.lookup(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) value(name string) (string, bool) {
	return e.raw(EnvPrefix + name)
}

func (e *envReader) fail(name string, err error) {
	if e.err == nil {
		e.err = &Error{Field: EnvPrefix + name, Message: err.Error()}
	}
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.value(name); ok {
		*dst = v
	}
}

func (e *envReader) list(name string, dst *[]string) {
	if v, ok := e.value(name); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func (e *envReader) integer(name string, dst *int) {
	if v, ok := e.value(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	if v, ok := e.value(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.value(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = d
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return &Error{Field: "http.addr", Message: "cannot be empty"}
	}
	if c.Store.Timeout <= 0 {
		return &Error{Field: "store.timeout", Message: "must be greater than 0"}
	}

	switch c.Store.Backend {
	case store.BackendRelational:
		switch c.Store.Relational.Driver {
		case bunstore.DriverPostgres, bunstore.DriverPgx, bunstore.DriverSQLite:
		default:
			return &Error{Field: "store.relational.driver", Message: fmt.Sprintf("unsupported driver %q", c.Store.Relational.Driver)}
		}
		if c.Store.Relational.DSN == "" {
			return &Error{Field: "store.relational.dsn", Message: "cannot be empty"}
		}
	case store.BackendDocument:
		if c.Store.Document.URI == "" {
			return &Error{Field: "store.document.uri", Message: "cannot be empty"}
		}
		if c.Store.Document.Database == "" {
			return &Error{Field: "store.document.database", Message: "cannot be empty"}
		}
	default:
		return &Error{Field: "store.backend", Message: fmt.Sprintf("must be %q or %q, got %q", store.BackendRelational, store.BackendDocument, c.Store.Backend)}
	}

	for name := range c.Cache.KindTTL {
		if !knownKind(name) {
			return &Error{Field: "cache.kind_ttl." + name, Message: "unknown entity kind"}
		}
	}

	if err := c.CacheConfig().Validate(); err != nil {
		return &Error{Field: "cache", Message: err.Error()}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return &Error{Field: "log.level", Message: err.Error()}
	}
	return nil
}

func knownKind(name string) bool {
	for _, k := range model.Kinds {
		if k.String() == name {
			return true
		}
	}
	return false
}

// CacheConfig converts the cache section to cache.Config.
func (c Config) CacheConfig() cache.Config {
	out := cache.DefaultConfig()
	out.Driver = c.Cache.Driver
	out.OpTimeout = c.Cache.OpTimeout
	out.TTL = cache.TTLPolicy{Detail: c.Cache.DetailTTL, List: c.Cache.ListTTL}
	if len(c.Cache.KindTTL) > 0 {
		out.TTL.Kinds = make(map[model.Kind]cache.KindTTL, len(c.Cache.KindTTL))
		for name, ttl := range c.Cache.KindTTL {
			out.TTL.Kinds[model.Kind(name)] = cache.KindTTL{Detail: ttl.Detail, List: ttl.List}
		}
	}
	out.Memory.Capacity = c.Cache.Memory.Capacity
	out.Memory.NumShards = c.Cache.Memory.NumShards
	out.Memory.EvictionPercentage = c.Cache.Memory.EvictionPercentage
	out.Redis.Addr = c.Cache.Redis.Addr
	out.Redis.Password = c.Cache.Redis.Password
	out.Redis.DB = c.Cache.Redis.DB
	return out
}

// RelationalConfig converts the relational section to bunstore.Config.
func (c Config) RelationalConfig() bunstore.Config {
	r := c.Store.Relational
	return bunstore.Config{
		Driver:          r.Driver,
		DSN:             r.DSN,
		Timeout:         c.Store.Timeout,
		AutoCreate:      r.AutoCreate,
		MaxOpenConns:    r.MaxOpenConns,
		MaxIdleConns:    r.MaxIdleConns,
		ConnMaxLifetime: r.ConnMaxLifetime,
	}
}

// DocumentConfig converts the document section to mongostore.Config.
func (c Config) DocumentConfig() mongostore.Config {
	d := c.Store.Document
	return mongostore.Config{
		URI:             d.URI,
		Database:        d.Database,
		Timeout:         c.Store.Timeout,
		ReferenceChecks: d.ReferenceChecks,
		ConnectRetries:  d.ConnectRetries,
		RetryDelay:      d.RetryDelay,
	}
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
