package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	UploadsDir     string   `yaml:"uploadsDir"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	LogLevel string `yaml:"logLevel"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
	PoolSize int    `yaml:"poolSize"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwtSecret"`
	PrivateKeyPath  string        `yaml:"privateKeyPath"`
	PublicKeyPath   string        `yaml:"publicKeyPath"`
	AccessTokenTTL  time.Duration `yaml:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTTL"`
	CookieSecure    bool          `yaml:"cookieSecure"`
	CookieSameSite  string        `yaml:"cookieSameSite"`
	BcryptCost      int           `yaml:"bcryptCost"`
}

type AnalyticsConfig struct {
	CacheTTL     time.Duration `yaml:"cacheTTL"`
	CacheBackend string        `yaml:"cacheBackend"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Strategy string        `yaml:"strategy"`
	Limit    int           `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// Default returns the configuration used when a key is missing from the file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":3000",
			Mode:           "debug",
			AllowedOrigins: []string{"http://localhost:5173"},
			UploadsDir:     "./uploads",
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "127.0.0.1",
			Port:     "3306",
			Database: "krashidukan",
			LogLevel: "warn",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
			CookieSameSite:  "Lax",
			BcryptCost:      12,
		},
		Analytics: AnalyticsConfig{
			CacheTTL:     60 * time.Second,
			CacheBackend: "memory",
		},
		RateLimit: RateLimitConfig{
			Strategy: "fixed",
			Limit:    20,
			Window:   5 * time.Minute,
		},
	}
}

// LoadConfig reads the yaml file on top of Default and applies environment overrides.
// A missing file is not an error; the defaults and environment are used instead.
func LoadConfig(filename string) (Config, error) {
	_ = godotenv.Load()

	config := Default()
	if filename == "" {
		filename = getenv("CONFIG_PATH", defaultConfigPath)
	}

	file, err := os.Open(filename)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, err
	}
	if err == nil {
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return config, err
		}
	}

	applyEnv(&config)

	if config.RateLimit.Enabled && config.RateLimit.Window <= 0 {
		return config, errors.New("config: rateLimit.window must be positive")
	}

	if config.Auth.JWTSecret == "" && config.Auth.PrivateKeyPath == "" {
		return config, errors.New("config: auth.jwtSecret or auth.privateKeyPath is required")
	}

	return config, nil
}

func applyEnv(config *Config) {
	config.Server.Addr = getenv("SERVER_ADDR", config.Server.Addr)
	config.Server.Mode = getenv("GIN_MODE", config.Server.Mode)
	config.Database.Driver = getenv("DATABASE_DRIVER", config.Database.Driver)
	config.Database.DSN = getenv("DATABASE_DSN", config.Database.DSN)
	config.Redis.Addr = getenv("REDIS_ADDR", config.Redis.Addr)
	config.Redis.Password = getenv("REDIS_PASSWORD", config.Redis.Password)
	config.Redis.Enabled = getenvBool("REDIS_ENABLED", config.Redis.Enabled)
	config.Auth.JWTSecret = getenv("JWT_SECRET", config.Auth.JWTSecret)
	config.Auth.CookieSecure = getenvBool("COOKIE_SECURE", config.Auth.CookieSecure)
	config.Auth.CookieSameSite = getenv("COOKIE_SAMESITE", config.Auth.CookieSameSite)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
