package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfigurationMissing is returned when required settings are absent or invalid.
var ErrConfigurationMissing = errors.New("configuration missing")

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig
	InfluxDB InfluxDBConfig
	AirBox   AirBoxConfig
	Resend   ResendConfig
	Redis    RedisConfig
	Auth0    Auth0Config
	Logging  LoggingConfig

	// FetchIntervalMinutes is the initial poll interval.
	FetchIntervalMinutes float64
	// SaveConcurrency bounds in-flight saves per cycle; 0 means unbounded.
	SaveConcurrency int

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type AirBoxConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
	APIURL    string
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	AlertChannel string
}

// Auth0Config stores the Auth0 tenant used to validate admin tokens.
type Auth0Config struct {
	Domain   string
	Audience string
}

// Enabled reports whether both tenant settings are present.
func (c Auth0Config) Enabled() bool {
	return c.Domain != "" && c.Audience != ""
}

type LoggingConfig struct {
	Level  string
	Format string
}

var envBindings = map[string]string{
	"server.port":               "PORT",
	"server.corsAllowedOrigins": "CORS_ALLOWED_ORIGINS",
	"server.shutdownTimeout":    "SHUTDOWN_TIMEOUT",
	"influxdb.url":              "INFLUXDB_URL",
	"influxdb.token":            "INFLUXDB_TOKEN",
	"influxdb.org":              "INFLUXDB_ORG",
	"influxdb.bucket":           "INFLUXDB_BUCKET",
	"airbox.url":                "AIRBOX_URL",
	"airbox.token":              "AIRBOX_TOKEN",
	"airbox.timeout":            "AIRBOX_TIMEOUT",
	"resend.apiKey":             "RESEND_API_KEY",
	"resend.fromEmail":          "RESEND_FROM_EMAIL",
	"resend.apiURL":             "RESEND_API_URL",
	"redis.addr":                "REDIS_ADDR",
	"redis.password":            "REDIS_PASSWORD",
	"redis.db":                  "REDIS_DB",
	"redis.alertChannel":        "REDIS_ALERT_CHANNEL",
	"auth0.domain":              "AUTH0_DOMAIN",
	"auth0.audience":            "AUTH0_AUDIENCE",
	"logging.level":             "LOG_LEVEL",
	"logging.format":            "LOG_FORMAT",
	"scheduler.intervalMinutes": "FETCH_INTERVAL_MINUTES",
	"ingest.saveConcurrency":    "INGEST_SAVE_CONCURRENCY",
}

// Load reads .env, an optional config.yaml and the environment. Every
// missing or invalid required setting is reported in a single error.
func Load() (*Config, error) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.corsAllowedOrigins", "*")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("influxdb.org", "airbox")
	v.SetDefault("influxdb.bucket", "airbox")
	v.SetDefault("airbox.timeout", "30s")
	v.SetDefault("resend.fromEmail", "onboarding@resend.dev")
	v.SetDefault("resend.apiURL", "https://api.resend.com")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.alertChannel", "airbox:alerts")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("scheduler.intervalMinutes", "1")
	v.SetDefault("ingest.saveConcurrency", 0)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var errList []string
	required := func(key string) string {
		value := strings.TrimSpace(v.GetString(key))
		if value == "" {
			errList = append(errList, envBindings[key]+" is required")
		}
		return value
	}
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil || d <= 0 {
			errList = append(errList, fmt.Sprintf("%s must be a positive duration, got %q", envBindings[key], v.GetString(key)))
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("server.port"),
			CORSAllowedOrigins: splitList(v.GetString("server.corsAllowedOrigins")),
			ShutdownTimeout:    duration("server.shutdownTimeout"),
		},
		InfluxDB: InfluxDBConfig{
			URL:    required("influxdb.url"),
			Token:  required("influxdb.token"),
			Org:    v.GetString("influxdb.org"),
			Bucket: v.GetString("influxdb.bucket"),
		},
		AirBox: AirBoxConfig{
			URL:     required("airbox.url"),
			Token:   required("airbox.token"),
			Timeout: duration("airbox.timeout"),
		},
		Resend: ResendConfig{
			APIKey:    v.GetString("resend.apiKey"),
			FromEmail: v.GetString("resend.fromEmail"),
			APIURL:    strings.TrimRight(v.GetString("resend.apiURL"), "/"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("redis.addr"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			AlertChannel: v.GetString("redis.alertChannel"),
		},
		Auth0: Auth0Config{
			Domain:   v.GetString("auth0.domain"),
			Audience: v.GetString("auth0.audience"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		FetchIntervalMinutes: v.GetFloat64("scheduler.intervalMinutes"),
		SaveConcurrency:      v.GetInt("ingest.saveConcurrency"),
		EnvFileLoaded:        envLoaded,
	}

	if m := cfg.FetchIntervalMinutes; !(m > 0) || math.IsInf(m, 0) {
		errList = append(errList, fmt.Sprintf("FETCH_INTERVAL_MINUTES must be a positive number, got %q", v.GetString("scheduler.intervalMinutes")))
	}
	if cfg.SaveConcurrency < 0 {
		errList = append(errList, "INGEST_SAVE_CONCURRENCY must not be negative")
	}

	if len(errList) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(errList, "; "))
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
