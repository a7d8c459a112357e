package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerCfg ServerConfig `envPrefix:"FLEETSYNC_"`
	MqttCfg   MqttConfig   `envPrefix:"MQTT_"`
	RedisCfg  RedisConfig  `envPrefix:"REDIS_"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"INFO"`
	ShowErrors bool   `env:"SHOW_ERRORS" envDefault:"false"`

	DatabaseURL string        `env:"DATABASE_URL"`
	Retention   time.Duration `env:"RETENTION" envDefault:"720h"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000"`
}

// ServerConfig addresses the fleet server and holds the session settings.
type ServerConfig struct {
	Host     string `env:"HOST"`
	Ssl      bool   `env:"SSL" envDefault:"true"`
	Insecure bool   `env:"INSECURE" envDefault:"false"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	TokenRefresh   time.Duration `env:"TOKEN_REFRESH" envDefault:"1h"`
	TokenCachePath string        `env:"TOKEN_CACHE_PATH"`
	TokenCacheKey  string        `env:"TOKEN_CACHE_KEY"`

	// BackoffMax caps the redial delay; zero redials immediately.
	BackoffMax     time.Duration `env:"WS_BACKOFF_MAX" envDefault:"0s"`
	HydrateTimeout time.Duration `env:"HYDRATE_TIMEOUT" envDefault:"30s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
}

type MqttConfig struct {
	Host     string `env:"HOST"`
	Username string `env:"USER"`
	Password string `env:"PASS"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// WebsocketURL is the push channel address, without the token.
func (c *ServerConfig) WebsocketURL() string {
	u := url.URL{Scheme: "wss", Host: c.Host, Path: "/api/ws"}
	if !c.Ssl {
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *ServerConfig) APIBaseURL() string {
	u := url.URL{Scheme: "https", Host: c.Host}
	if !c.Ssl {
		u.Scheme = "http"
	}
	return u.String()
}

func (c *Config) Validate() error {
	if c.ServerCfg.Host == "" {
		return fmt.Errorf("%w: server host", ErrMissing)
	}
	if c.ServerCfg.TokenCachePath != "" && c.ServerCfg.TokenCacheKey == "" {
		return fmt.Errorf("%w: token cache key", ErrMissing)
	}
	return nil
}
