package config

import (
	"fmt"
	"strings"
	"time"

	"linkhub/integrator/internal/logging"

	"github.com/spf13/viper"
)

// Config holds all integrator configuration
type Config struct {
	AppEnv   string
	HTTPAddr string

	// Postgres
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDB       string
	PGSSLMode  string

	// Redis. An empty host runs without Redis.
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Credential test service. An empty URL uses the simulated tester.
	CredentialTestURL            string
	CredentialTestAPIKey         string
	CredentialTestTimeout        time.Duration
	CredentialTestSimulatedDelay time.Duration

	WizardSessionTTL  time.Duration
	ActivationWorkers int

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// envMappings binds struct fields to environment variables
var envMappings = map[string]string{
	"AppEnv":                       "APP_ENV",
	"HTTPAddr":                     "HTTP_ADDR",
	"PGHost":                       "PG_HOST",
	"PGPort":                       "PG_PORT",
	"PGUser":                       "PG_USER",
	"PGPassword":                   "PG_PASSWORD",
	"PGDB":                         "PG_DB",
	"PGSSLMode":                    "PG_SSLMODE",
	"RedisHost":                    "REDIS_HOST",
	"RedisPort":                    "REDIS_PORT",
	"RedisPassword":                "REDIS_PASSWORD",
	"CredentialTestURL":            "CREDENTIAL_TEST_URL",
	"CredentialTestAPIKey":         "CREDENTIAL_TEST_API_KEY",
	"CredentialTestTimeout":        "CREDENTIAL_TEST_TIMEOUT",
	"CredentialTestSimulatedDelay": "CREDENTIAL_TEST_SIMULATED_DELAY",
	"WizardSessionTTL":             "WIZARD_SESSION_TTL",
	"ActivationWorkers":            "ACTIVATION_WORKERS",
	"RateLimitRPS":                 "RATE_LIMIT_RPS",
	"RateLimitBurst":               "RATE_LIMIT_BURST",
	"AllowedOrigins":               "CORS_ALLOWED_ORIGINS",
}

// Load reads configuration from an optional integrator.yaml and the environment.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	for key, env := range envMappings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName("integrator")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		logging.Info("Using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("AppEnv", "development")
	v.SetDefault("HTTPAddr", ":8080")
	v.SetDefault("PGHost", "localhost")
	v.SetDefault("PGPort", "5432")
	v.SetDefault("PGUser", "postgres")
	v.SetDefault("PGDB", "linkhub")
	v.SetDefault("PGSSLMode", "disable")
	v.SetDefault("RedisPort", "6379")
	v.SetDefault("CredentialTestTimeout", "15s")
	v.SetDefault("CredentialTestSimulatedDelay", "2s")
	v.SetDefault("WizardSessionTTL", "30m")
	v.SetDefault("ActivationWorkers", 2)
	v.SetDefault("RateLimitRPS", 5.0)
	v.SetDefault("RateLimitBurst", 20)
	v.SetDefault("AllowedOrigins", "https://*,http://localhost:5173")
}

func (c *Config) validate() error {
	var problems []string
	if c.CredentialTestTimeout <= 0 {
		problems = append(problems, "CREDENTIAL_TEST_TIMEOUT must be positive")
	}
	if c.WizardSessionTTL <= 0 {
		problems = append(problems, "WIZARD_SESSION_TTL must be positive")
	}
	if c.ActivationWorkers < 1 {
		problems = append(problems, "ACTIVATION_WORKERS must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PostgresDSN builds the connection string shared by GORM and sqlx
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB, c.PGSSLMode)
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
