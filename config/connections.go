package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for the configured database.
func Dialector(config DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(config.Driver) {
	case "", "mysql":
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				config.Username,
				config.Password,
				config.Host,
				config.Port,
				config.Database,
			)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				config.Host,
				config.Username,
				config.Password,
				config.Database,
				config.Port,
			)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := config.DSN
		if dsn == "" {
			dsn = config.Database + ".db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("config: unsupported database driver %q", config.Driver)
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// OpenDatabase opens a gorm connection with UTC timestamps and translated driver errors.
func OpenDatabase(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

func SetupDatabase(config Config) (*gorm.DB, error) {
	dialector, err := Dialector(config.Database)
	if err != nil {
		return nil, err
	}

	db, err := OpenDatabase(dialector, config.Database.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrateAll(db); err != nil {
		return nil, err
	}

	return db, nil
}

// SetupRedisConnection returns nil without error when redis is disabled.
func SetupRedisConnection(config Config) (*redis.Client, error) {
	if !config.Redis.Enabled {
		return nil, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         config.Redis.Addr,
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		PoolSize:     config.Redis.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return redisClient, nil
}
