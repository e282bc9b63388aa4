package cache

import (
	"fmt"
	"time"

	"github.com/goliatone/go-restaurant-api/internal/cacheinfra"
	"github.com/goliatone/go-restaurant-api/model"
)

// Supported cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Default TTLs and op timeout.
const (
	DefaultDetailTTL = 5 * time.Minute
	DefaultListTTL   = 2 * time.Minute
	DefaultOpTimeout = 250 * time.Millisecond
)

// Clock is the time source used for per key expiry by the memory driver.
type Clock interface {
	Now() time.Time
}

// KindTTL overrides the TTLs of one entity kind. Zero values fall back to the
// policy defaults.
type KindTTL struct {
	Detail time.Duration
	List   time.Duration
}

// TTLPolicy decides how long an entry lives. Detail applies to single entity
// keys, List to full and scoped list keys.
type TTLPolicy struct {
	Detail time.Duration
	List   time.Duration
	Kinds  map[model.Kind]KindTTL
}

// DefaultTTLPolicy returns 5 minutes for details and 2 minutes for lists.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Detail: DefaultDetailTTL, List: DefaultListTTL}
}

// DetailTTL returns the TTL for a single entity of kind.
func (p TTLPolicy) DetailTTL(kind model.Kind) time.Duration {
	if o, ok := p.Kinds[kind]; ok && o.Detail > 0 {
		return o.Detail
	}
	return p.Detail
}

// ListTTL returns the TTL for a list of entities of kind.
func (p TTLPolicy) ListTTL(kind model.Kind) time.Duration {
	if o, ok := p.Kinds[kind]; ok && o.List > 0 {
		return o.List
	}
	return p.List
}

// Max returns the longest TTL the policy can hand out.
func (p TTLPolicy) Max() time.Duration {
	longest := max(p.Detail, p.List)
	for _, o := range p.Kinds {
		longest = max(longest, o.Detail, o.List)
	}
	return longest
}

// Validate checks whether the policy values are valid.
func (p TTLPolicy) Validate() error {
	if p.Detail <= 0 {
		return &cacheinfra.ConfigError{Field: "TTL.Detail", Message: "must be greater than 0"}
	}
	if p.List <= 0 {
		return &cacheinfra.ConfigError{Field: "TTL.List", Message: "must be greater than 0"}
	}
	for kind, o := range p.Kinds {
		if o.Detail < 0 || o.List < 0 {
			return &cacheinfra.ConfigError{Field: "TTL.Kinds." + kind.String(), Message: "must be non-negative"}
		}
	}
	return nil
}

// MemoryConfig configures the in-process driver.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	EvictionPercentage int
	Clock              Clock
}

// RedisConfig configures the Redis driver.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Driver    string
	OpTimeout time.Duration
	TTL       TTLPolicy
	Memory    MemoryConfig
	Redis     RedisConfig
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultMemoryConfig()
	rds := cacheinfra.DefaultRedisConfig()
	return Config{
		Driver:    DriverMemory,
		OpTimeout: DefaultOpTimeout,
		TTL:       DefaultTTLPolicy(),
		Memory: MemoryConfig{
			Capacity:           mem.Capacity,
			NumShards:          mem.NumShards,
			EvictionPercentage: mem.EvictionPercentage,
		},
		Redis: RedisConfig{
			Addr:         rds.Addr,
			Password:     rds.Password,
			DB:           rds.DB,
			DialTimeout:  rds.DialTimeout,
			ReadTimeout:  rds.ReadTimeout,
			WriteTimeout: rds.WriteTimeout,
		},
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.OpTimeout <= 0 {
		return &cacheinfra.ConfigError{Field: "OpTimeout", Message: "must be greater than 0"}
	}
	if err := c.TTL.Validate(); err != nil {
		return err
	}

	switch c.Driver {
	case DriverMemory:
		return c.memoryConfig().Validate()
	case DriverRedis:
		return c.redisConfig().Validate()
	default:
		return &cacheinfra.ConfigError{Field: "Driver", Message: fmt.Sprintf("unknown driver %q", c.Driver)}
	}
}

// NewCacheService constructs the CacheService selected by cfg.Driver.
func NewCacheService(cfg Config) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Driver == DriverRedis {
		svc, err := cacheinfra.NewRedisService(cfg.redisConfig())
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	svc, err := cacheinfra.NewMemoryService(cfg.memoryConfig())
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c Config) memoryConfig() cacheinfra.MemoryConfig {
	out := cacheinfra.MemoryConfig{
		Capacity:           c.Memory.Capacity,
		NumShards:          c.Memory.NumShards,
		EvictionPercentage: c.Memory.EvictionPercentage,
		MaxTTL:             c.TTL.Max(),
	}
	if c.Memory.Clock != nil {
		out.Clock = c.Memory.Clock
	}
	return out
}

func (c Config) redisConfig() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
	}
}
