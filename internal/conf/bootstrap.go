// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// TRADESENTRY_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or TRADESENTRY_DATA_DATABASE_SOURCE: MySQL connection string
//   - API_KEY or TRADESENTRY_AUTH_API_KEY: service API key
//   - ENCRYPTION_KEY or TRADESENTRY_AUTH_ENCRYPTION_KEY: credential encryption key
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with TRADESENTRY_ prefix
	v.SetEnvPrefix("TRADESENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names for required fields
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "TRADESENTRY_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "TRADESENTRY_DATA_REDIS_ADDR")
	_ = v.BindEnv("market.base_api", "MARKET_BASE_API", "TRADESENTRY_MARKET_BASE_API")
	_ = v.BindEnv("auth.api_key", "API_KEY", "TRADESENTRY_AUTH_API_KEY")
	_ = v.BindEnv("auth.encryption.key", "ENCRYPTION_KEY", "TRADESENTRY_AUTH_ENCRYPTION_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Guard: &Guard{
			Breaker: &Guard_Breaker{
				FailureThreshold:         v.GetInt32("guard.breaker.failure_threshold"),
				RecoveryTimeout:          durationpb.New(v.GetDuration("guard.breaker.recovery_timeout")),
				HalfOpenSuccessThreshold: v.GetInt32("guard.breaker.half_open_success_threshold"),
			},
			Retry: &Guard_Retry{
				MaxAttempts:     v.GetInt32("guard.retry.max_attempts"),
				InitialDelay:    durationpb.New(v.GetDuration("guard.retry.initial_delay")),
				MaxDelay:        durationpb.New(v.GetDuration("guard.retry.max_delay")),
				ExponentialBase: v.GetFloat64("guard.retry.exponential_base"),
				Jitter:          v.GetBool("guard.retry.jitter"),
			},
			RateLimit: &Guard_RateLimit{
				Rate:      v.GetFloat64("guard.rate_limit.rate"),
				Burst:     v.GetInt32("guard.rate_limit.burst"),
				BucketTtl: durationpb.New(v.GetDuration("guard.rate_limit.bucket_ttl")),
			},
			Idempotency: &Guard_Idempotency{
				ResultTtl:      durationpb.New(v.GetDuration("guard.idempotency.result_ttl")),
				LockTtl:        durationpb.New(v.GetDuration("guard.idempotency.lock_ttl")),
				InProgressWait: durationpb.New(v.GetDuration("guard.idempotency.in_progress_wait")),
			},
			MaxTokenWait: durationpb.New(v.GetDuration("guard.max_token_wait")),
		},
		Market: &Market{
			BaseApi:  v.GetString("market.base_api"),
			ProxyUrl: v.GetString("market.proxy_url"),
			Timeout:  durationpb.New(v.GetDuration("market.timeout")),
		},
		Auth: &Auth{
			ApiKey: v.GetString("auth.api_key"),
			Encryption: &Auth_Encryption{
				Key: v.GetString("auth.encryption.key"),
			},
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", time.Minute)

	// Data defaults
	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Guard defaults
	v.SetDefault("guard.breaker.failure_threshold", 5)
	v.SetDefault("guard.breaker.recovery_timeout", 60*time.Second)
	v.SetDefault("guard.breaker.half_open_success_threshold", 3)

	v.SetDefault("guard.retry.max_attempts", 3)
	v.SetDefault("guard.retry.initial_delay", time.Second)
	v.SetDefault("guard.retry.max_delay", 60*time.Second)
	v.SetDefault("guard.retry.exponential_base", 2.0)
	v.SetDefault("guard.retry.jitter", true)

	v.SetDefault("guard.rate_limit.rate", 10.0)
	v.SetDefault("guard.rate_limit.burst", 20)
	v.SetDefault("guard.rate_limit.bucket_ttl", 10*time.Minute)

	v.SetDefault("guard.idempotency.result_ttl", time.Hour)
	v.SetDefault("guard.idempotency.lock_ttl", 5*time.Minute)
	v.SetDefault("guard.idempotency.in_progress_wait", 200*time.Millisecond)

	v.SetDefault("guard.max_token_wait", 5*time.Second)

	// Market defaults
	v.SetDefault("market.base_api", "https://api.exchange.example.com")
	v.SetDefault("market.timeout", 15*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and
// valid. It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	if bc.Auth == nil || bc.Auth.ApiKey == "" {
		missingFields = append(missingFields, "auth.api_key (API_KEY)")
	}

	if bc.Auth == nil || bc.Auth.Encryption == nil || bc.Auth.Encryption.Key == "" {
		missingFields = append(missingFields, "auth.encryption.key (ENCRYPTION_KEY)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}
