package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8020"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	BaseURL  string `env:"BASE_URL, default=http://localhost:8020"`

	// LoginMode selects the unique login-key field: "email" or "username".
	LoginMode string `env:"LOGIN_MODE, default=email"`
	// RequireVerification gates signin on a verified address.
	RequireVerification bool `env:"REQUIRE_VERIFICATION, default=true"`
	BcryptCost          int  `env:"BCRYPT_COST, default=10"`
	PasswordMinLen      int  `env:"PASSWORD_MIN_LEN, default=6"`
	// PasswordMaxLen of 15 matches the legacy deployments; the default is
	// deliberately higher.
	PasswordMaxLen int `env:"PASSWORD_MAX_LEN, default=64"`
	NotifyWorkers  int `env:"NOTIFY_WORKERS, default=4"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Mailgun MailgunConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_api"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MailgunConfig struct {
	Domain string `env:"MAILGUN_DOMAIN"`
	APIKey string `env:"MAILGUN_API_KEY"`
	Sender string `env:"MAILGUN_SENDER"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
