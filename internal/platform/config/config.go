package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AnswerTTL is the per-key lifetime of a stored wizard answer. Every write
// refreshes it.
const AnswerTTL = 24 * time.Hour

// Config is the full service configuration.
type Config struct {
	Server   Server        `yaml:"server"`
	Session  SessionConfig `yaml:"session"`
	Redis    RedisConfig   `yaml:"redis"`
	CaseAPI  CaseAPIConfig `yaml:"caseApi"`
	Audit    AuditConfig   `yaml:"audit"`
	Upload   UploadConfig  `yaml:"upload"`
	Journey  JourneyConfig `yaml:"journey"`
	LogLevel string        `yaml:"logLevel"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName   string `yaml:"cookieName"`
	Secret       string `yaml:"secret"`
	SecureCookie bool   `yaml:"secureCookie"`
}

// RedisConfig configures the answer store. An empty URL selects the
// in-memory store (local development only).
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize"`
	MinIdleConns int           `yaml:"minIdleConns"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// CaseAPIConfig configures the case-management client. An empty BaseURL
// selects the in-memory case system.
type CaseAPIConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Token            string        `yaml:"token"`
	Timeout          time.Duration `yaml:"timeout"`
	RatePerSecond    float64       `yaml:"ratePerSecond"`
	Burst            int           `yaml:"burst"`
	FailureThreshold int           `yaml:"failureThreshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// AuditConfig configures the audit outbox and its Kafka relay. Empty values
// keep audit events in memory.
type AuditConfig struct {
	DatabaseURL   string        `yaml:"databaseUrl"`
	KafkaBrokers  []string      `yaml:"kafkaBrokers"`
	KafkaTopic    string        `yaml:"kafkaTopic"`
	RelayInterval time.Duration `yaml:"relayInterval"`
}

// UploadConfig limits photo and document uploads.
type UploadConfig struct {
	MaxFileBytes    int64 `yaml:"maxFileBytes"`
	MaxRequestBytes int64 `yaml:"maxRequestBytes"`
	MaxPhotos       int   `yaml:"maxPhotos"`
	MaxDocuments    int   `yaml:"maxDocuments"`
}

// JourneyConfig holds wizard-level settings.
type JourneyConfig struct {
	ExitURL              string `yaml:"exitUrl"`
	TargetCompletionDays int    `yaml:"targetCompletionDays"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "ivory_session",
			// Use a default for development - should be overridden in production
			Secret: "dev-secret-change-in-production",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		CaseAPI: CaseAPIConfig{
			Timeout:          10 * time.Second,
			RatePerSecond:    20,
			Burst:            5,
			FailureThreshold: 5,
			Cooldown:         15 * time.Second,
		},
		Audit: AuditConfig{
			KafkaTopic:    "ivory.audit",
			RelayInterval: 5 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileBytes:    10 << 20,
			MaxRequestBytes: 32 << 20,
			MaxPhotos:       6,
			MaxDocuments:    6,
		},
		Journey: JourneyConfig{
			ExitURL:              "https://www.gov.uk/guidance/dealing-in-items-containing-ivory-or-made-of-ivory",
			TargetCompletionDays: 30,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the optional YAML file named
// by IVORY_CONFIG_FILE, then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("IVORY_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "IVORY_ADDR")
	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setString(&cfg.Session.CookieName, "SESSION_COOKIE_NAME")
	setBool(&cfg.Session.SecureCookie, "SESSION_COOKIE_SECURE")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")
	setString(&cfg.CaseAPI.BaseURL, "CASE_API_URL")
	setString(&cfg.CaseAPI.Token, "CASE_API_TOKEN")
	setDuration(&cfg.CaseAPI.Timeout, "CASE_API_TIMEOUT")
	setString(&cfg.Audit.DatabaseURL, "AUDIT_DATABASE_URL")
	if v := os.Getenv("AUDIT_KAFKA_BROKERS"); v != "" {
		cfg.Audit.KafkaBrokers = strings.Split(v, ",")
	}
	setString(&cfg.Audit.KafkaTopic, "AUDIT_KAFKA_TOPIC")
	setString(&cfg.Journey.ExitURL, "EXIT_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true"
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
