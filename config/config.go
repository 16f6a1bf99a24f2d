package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Rollback RollbackConfig `mapstructure:"rollback"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
	// AllowedIPs restricts the ops API to the listed client addresses.
	// An empty list allows all IPs (local development only).
	AllowedIPs []string `mapstructure:"allowed_ips"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | sqlite_memory | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

type TrackingConfig struct {
	// TickMs is the duration of one world tick, used to convert tick
	// delays (deferred batch diffing) into wall-clock time.
	TickMs int `mapstructure:"tick_ms"`
	// BatchDelayTicks is the default snapshot delay for physics-driven
	// multi-block changes whose final state is unknown synchronously.
	BatchDelayTicks int `mapstructure:"batch_delay_ticks"`
	// QueueWarnDepth logs a warning when the serial logging queue grows
	// beyond this many pending tasks.
	QueueWarnDepth int `mapstructure:"queue_warn_depth"`
}

type RollbackConfig struct {
	// RowsLimit caps how many log rows one rollback batch may select,
	// bounding per-batch memory and transaction size.
	RowsLimit int `mapstructure:"rows_limit"`
	// DefaultRadius applies when a positional caller gives no radius.
	DefaultRadius int `mapstructure:"default_radius"`
	// MaxRadius rejects oversized radius values before they hit the store.
	MaxRadius int `mapstructure:"max_radius"`
	// LookupLines is the default page size for lookup reports.
	LookupLines int `mapstructure:"lookup_lines"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/chronicle.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("tracking.tick_ms", 50)
	v.SetDefault("tracking.batch_delay_ticks", 40)
	v.SetDefault("tracking.queue_warn_depth", 1024)
	v.SetDefault("rollback.rows_limit", 25000)
	v.SetDefault("rollback.default_radius", 10)
	v.SetDefault("rollback.max_radius", 250)
	v.SetDefault("rollback.lookup_lines", 4)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
