package config

import (
	"github.com/publica-app/publica/internal/cache"
	pkgconfig "github.com/publica-app/publica/pkg/config"
	"github.com/publica-app/publica/pkg/storage"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    cache.RedisConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Posts    PostsConfig
	Storage  StorageConfig
	Events   EventsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Prefix     string `mapstructure:"prefix"`
	TTL        int    `mapstructure:"ttl"`         // listing pages, seconds
	CounterTTL int    `mapstructure:"counter_ttl"` // follower counts, seconds
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type PostsConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type StorageConfig struct {
	Backend string              `mapstructure:"backend"` // local or s3
	Local   storage.LocalConfig `mapstructure:"local"`
	S3      storage.S3Config    `mapstructure:"s3"`
}

type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"` // empty disables publishing
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "publica")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/publica.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.prefix", "publica")
	v.SetDefault("cache.ttl", 20)
	v.SetDefault("cache.counter_ttl", 60)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("posts.page_size", 10)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.base_path", "./data/media")
	v.SetDefault("storage.local.public_url", "/media")
	v.SetDefault("events.topic", "publica.posts")
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.ttl", "CACHE_TTL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("posts.page_size", "POSTS_PAGE_SIZE")
	v.BindEnv("storage.backend", "STORAGE_BACKEND")
	v.BindEnv("events.brokers", "KAFKA_BROKERS")
	v.BindEnv("events.topic", "KAFKA_TOPIC")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
