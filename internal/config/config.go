/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the affiliate-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	Environment                   string `mapstructure:"ENVIRONMENT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisAttributionPrefix        string `mapstructure:"REDIS_ATTRIBUTION_PREFIX"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	ConversionEventQueue          string `mapstructure:"CONVERSION_EVENT_QUEUE"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	DefaultRedirectURL            string `mapstructure:"DEFAULT_REDIRECT_URL"`
	CORSAllowedOrigins            string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ReferralConversionAmountCents int64  `mapstructure:"REFERRAL_CONVERSION_AMOUNT_CENTS"`
	AttributionTTLDays            int    `mapstructure:"ATTRIBUTION_TTL_DAYS"`
	ClickRetentionDays            int    `mapstructure:"CLICK_RETENTION_DAYS"`
	ClickRetentionSchedule        string `mapstructure:"CLICK_RETENTION_SCHEDULE"`
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsProduction reports whether the service runs with production settings,
// which turns on the Secure attribute of the attribution cookie.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("REDIS_ATTRIBUTION_PREFIX", "affiliate:attribution")
	viper.SetDefault("CONVERSION_EVENT_QUEUE", "affiliate_service.conversion_events")
	viper.SetDefault("DEFAULT_REDIRECT_URL", "https://example.com")
	viper.SetDefault("REFERRAL_CONVERSION_AMOUNT_CENTS", 10000)
	viper.SetDefault("ATTRIBUTION_TTL_DAYS", 30)
	viper.SetDefault("CLICK_RETENTION_DAYS", 90)
	viper.SetDefault("CLICK_RETENTION_SCHEDULE", "0 3 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("ENVIRONMENT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "AFFILIATE_REDIS_URL")
	_ = viper.BindEnv("REDIS_ATTRIBUTION_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CONVERSION_EVENT_QUEUE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("DEFAULT_REDIRECT_URL")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("REFERRAL_CONVERSION_AMOUNT_CENTS")
	_ = viper.BindEnv("ATTRIBUTION_TTL_DAYS")
	_ = viper.BindEnv("CLICK_RETENTION_DAYS")
	_ = viper.BindEnv("CLICK_RETENTION_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisAttributionPrefix = strings.TrimSpace(config.RedisAttributionPrefix)
	if config.RedisAttributionPrefix == "" {
		config.RedisAttributionPrefix = "affiliate:attribution"
	}
	config.DefaultRedirectURL = strings.TrimSpace(config.DefaultRedirectURL)
	if config.DefaultRedirectURL == "" {
		config.DefaultRedirectURL = "https://example.com"
	}

	if config.ReferralConversionAmountCents < 0 {
		log.Printf("level=warn component=config msg=\"negative referral conversion amount configured; coercing to zero\" amount_cents=%d", config.ReferralConversionAmountCents)
		config.ReferralConversionAmountCents = 0
	}
	if config.AttributionTTLDays <= 0 {
		log.Printf("level=warn component=config msg=\"invalid attribution ttl; using default\" days=%d", config.AttributionTTLDays)
		config.AttributionTTLDays = 30
	}
	if config.ClickRetentionDays <= 0 {
		log.Printf("level=warn component=config msg=\"invalid click retention; using default\" days=%d", config.ClickRetentionDays)
		config.ClickRetentionDays = 90
	}
	if strings.TrimSpace(config.ClickRetentionSchedule) == "" {
		config.ClickRetentionSchedule = "0 3 * * *"
	}

	return
}
