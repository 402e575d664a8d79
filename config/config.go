// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bitwise74/blog-api/db"
	"bitwise74/blog-api/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")
	envFile    = pflag.String("env-file", ".env", "Optional .env file loaded before reading the environment")

	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes  = []string{"s3", "local"}
	validDrivers       = []string{"sqlite", "postgres", "mongo"}
	validCacheTypes    = []string{"memory", "redis", "none"}
	validPasswordHashs = []string{"bcrypt", "argon2id"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s, %w", *envFile, err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Warn("config.toml file is missing, using defaults and environment variables")
	}

	return validate()
}

func bindEnvs() {
	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("security.jwt_secret", "SECURITY_JWT_SECRET")
	v.BindEnv("security.token_ttl", "SECURITY_TOKEN_TTL")
	v.BindEnv("security.password_hash", "SECURITY_PASSWORD_HASH")
	v.BindEnv("security.bcrypt_cost", "SECURITY_BCRYPT_COST")
	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("db.mongo_database", "DB_MONGO_DATABASE")
	v.BindEnv("db.mongo_transactions", "DB_MONGO_TRANSACTIONS")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.base_dir", "STORAGE_BASE_DIR")

	v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	v.BindEnv("cache.type", "CACHE_TYPE")
	v.BindEnv("cache.ttl", "CACHE_TTL")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("nats.url", "NATS_URL")

	v.BindEnv("posts.per_page", "POSTS_PER_PAGE")
	v.BindEnv("reconcile.schedule", "RECONCILE_SCHEDULE")
	v.BindEnv("graphql.max_depth", "GRAPHQL_MAX_DEPTH")
}

func setDefaults() {
	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("security.token_ttl", "1h")
	v.SetDefault("security.password_hash", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "blog.db")
	v.SetDefault("db.mongo_database", "blog")
	v.SetDefault("db.mongo_transactions", false)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "images")

	v.SetDefault("aws.region", "auto")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "30s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("posts.per_page", 2)
	v.SetDefault("reconcile.schedule", "@daily")
	v.SetDefault("graphql.max_depth", 10)
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	// HOST_CORS is a comma separated list when it comes from the environment
	if cors := v.GetStringSlice("host.cors"); len(cors) == 1 && strings.Contains(cors[0], ",") {
		v.Set("host.cors", strings.Split(cors[0], ","))
	}

	if v.GetString("security.jwt_secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetDuration("security.token_ttl") <= 0 {
		return errors.New("security.token_ttl must be a positive duration")
	}

	if !slices.Contains(validPasswordHashs, v.GetString("security.password_hash")) {
		return errors.New("invalid password hash algorithm provided")
	}

	if cost := v.GetInt("security.bcrypt_cost"); cost < 4 || cost > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key_id") == "" {
				return errors.New("access key id can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "local":
		{
			base := v.GetString("storage.base_dir")
			if base == "" {
				return errors.New("storage.base_dir can't be empty")
			}

			// Deleting a post removes its image, so nothing the server
			// needs may live below the image directory
			if v.GetString("db.driver") == "sqlite" && storage.Within(base, db.SQLitePath(v.GetString("db.dsn"))) {
				return errors.New("storage.base_dir can't contain the sqlite database")
			}
			if storage.Within(base, filepath.Join(*configPath, "config.toml")) {
				return errors.New("storage.base_dir can't contain the config file")
			}
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if !slices.Contains(validCacheTypes, v.GetString("cache.type")) {
		return errors.New("invalid cache type provided")
	}

	if v.GetString("cache.type") == "redis" && v.GetString("redis.addr") == "" {
		return errors.New("redis.addr can't be empty")
	}

	if v.GetInt("posts.per_page") <= 0 {
		return errors.New("posts.per_page must be bigger than 0")
	}

	if v.GetInt("graphql.max_depth") < 0 {
		return errors.New("graphql.max_depth can't be negative")
	}

	if v.GetString("nats.url") == "" {
		zap.L().Warn("No nats.url specified, post events won't be published")
	}

	return nil
}
