package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Load wires viper to the .env file and the environment. Both services call
// it first thing in main; service-specific keys keep working through the
// same viper instance the rest of the packages read from.
func Load() {
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("account_service.base_url", "ACCOUNT_SERVICE_BASE_URL")
	viper.BindEnv("account_service.timeout", "ACCOUNT_SERVICE_TIMEOUT")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
}

// AccountServiceBaseURL is where the transfer service reaches the account
// service's movement endpoint.
func AccountServiceBaseURL() string {
	viper.SetDefault("account_service.base_url", "http://localhost:8080")
	return viper.GetString("account_service.base_url")
}

// AccountServiceTimeout bounds the saga's remote credit call.
func AccountServiceTimeout() time.Duration {
	viper.SetDefault("account_service.timeout", 10*time.Second)
	return viper.GetDuration("account_service.timeout")
}
