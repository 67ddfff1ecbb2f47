package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	strutil "docregistry/pkg/platform/strings"
)

// ConfigFileEnv names an optional YAML file whose values are applied before environment overrides.
const ConfigFileEnv = "DOCREG_CONFIG_FILE"

const (
	DefaultAddr           = ":8080"
	DefaultPinningURL     = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	DefaultPinningTimeout = 60 * time.Second
	DefaultUploadMaxBytes = 10 << 20
	DefaultVerifyCacheTTL = 5 * time.Minute
	DefaultAuditTopic     = "docregistry.audit"
)

// Config is built once in main and handed to every component that needs it.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   Server         `yaml:"server"`
	Auth     Auth           `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Pinning  Pinning        `yaml:"pinning"`
	Upload   Upload         `yaml:"upload"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Auth holds the token signing key. Tokens are always valid for one day.
type Auth struct {
	JWTSigningKey string `yaml:"jwt_signing_key"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// RedisConfig is optional; an empty URL disables the verification cache.
type RedisConfig struct {
	URL            string        `yaml:"url"`
	PoolSize       int           `yaml:"pool_size"`
	MinIdleConns   int           `yaml:"min_idle_conns"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	VerifyCacheTTL time.Duration `yaml:"verify_cache_ttl"`
}

// KafkaConfig is optional; no brokers means audit events stay in process.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	AuditTopic string   `yaml:"audit_topic"`
	ClientID   string   `yaml:"client_id"`
}

// Pinning holds the credentials and endpoint of the IPFS pinning service.
type Pinning struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	SecretAPIKey string        `yaml:"secret_api_key"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Upload struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Default returns a Config with every optional value filled in.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			Addr:            DefaultAddr,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:       10,
			MinIdleConns:   2,
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			VerifyCacheTTL: DefaultVerifyCacheTTL,
		},
		Kafka: KafkaConfig{
			AuditTopic: DefaultAuditTopic,
			ClientID:   "docregistry",
		},
		Pinning: Pinning{
			URL:     DefaultPinningURL,
			Timeout: DefaultPinningTimeout,
		},
		Upload: Upload{MaxBytes: DefaultUploadMaxBytes},
	}
}

// Load applies defaults, then the YAML file named by DOCREG_CONFIG_FILE, then the
// environment, and validates the result.
func Load() (Config, error) {
	return load(os.Getenv, os.ReadFile)
}

func load(getenv func(string) string, readFile func(string) ([]byte, error)) (Config, error) {
	cfg := Default()

	if path := getenv(ConfigFileEnv); path != "" {
		raw, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setList := func(key string, dst *[]string) {
		if v := getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	var errs []error
	setDuration := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("DOCREG_ADDR", &cfg.Server.Addr)
	if port := getenv("PORT"); port != "" && getenv("DOCREG_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}
	setList("CORS_ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)
	setList("TRUSTED_PROXIES", &cfg.Server.TrustedProxies)

	setString("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)

	setString("DATABASE_URL", &cfg.Database.URL)
	if v := getenv("DB_MIGRATE_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DB_MIGRATE_ON_START: %w", err))
		}
		cfg.Database.MigrateOnStart = b
	}

	setString("REDIS_URL", &cfg.Redis.URL)
	setDuration("VERIFY_CACHE_TTL", &cfg.Redis.VerifyCacheTTL)

	setList("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	setString("KAFKA_AUDIT_TOPIC", &cfg.Kafka.AuditTopic)

	setString("PINATA_URL", &cfg.Pinning.URL)
	setString("PINATA_API_KEY", &cfg.Pinning.APIKey)
	setString("PINATA_SECRET_API_KEY", &cfg.Pinning.SecretAPIKey)
	setDuration("PINNING_TIMEOUT", &cfg.Pinning.Timeout)

	if v := getenv("UPLOAD_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("UPLOAD_MAX_BYTES: %w", err))
		}
		cfg.Upload.MaxBytes = n
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	return strutil.DedupeAndTrim(strings.Split(v, ","))
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if c.Pinning.APIKey == "" {
		errs = append(errs, errors.New("PINATA_API_KEY is required"))
	}
	if c.Pinning.SecretAPIKey == "" {
		errs = append(errs, errors.New("PINATA_SECRET_API_KEY is required"))
	}
	if c.Pinning.Timeout <= 0 {
		errs = append(errs, errors.New("PINNING_TIMEOUT must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses Server.TrustedProxies as CIDR prefixes.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.Server.TrustedProxies))
	for _, raw := range c.Server.TrustedProxies {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid prefix %q", raw)
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}
