package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	DBDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	SQLitePath string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	SessionBackend string
	SessionTTL     time.Duration

	TelegramBotToken string
	AdminIDs         []int64
	DispatcherChatID int64

	Timezone       string
	BroadcastBatch int
	BroadcastPause time.Duration
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "dogbot"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.DBDriver = cast.ToString(getOrReturnDefault("DB_DRIVER", DriverPostgres))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "dogbot"))

	cfg.SQLitePath = cast.ToString(getOrReturnDefault("SQLITE_PATH", "dogbot.db"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", "localhost"))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))

	cfg.SessionBackend = cast.ToString(getOrReturnDefault("SESSION_BACKEND", SessionMemory))
	cfg.SessionTTL = cast.ToDuration(getOrReturnDefault("SESSION_TTL", "24h"))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TG_BOT_TOKEN", ""))
	cfg.AdminIDs = parseIDs(cast.ToString(getOrReturnDefault("ADMIN_IDS", "")))
	if legacy := cast.ToInt64(getOrReturnDefault("ADMIN_ID", 0)); legacy != 0 {
		cfg.AdminIDs = append(cfg.AdminIDs, legacy)
	}
	cfg.DispatcherChatID = cast.ToInt64(getOrReturnDefault("DISPATCHER_CHAT_ID", 0))

	cfg.Timezone = cast.ToString(getOrReturnDefault("TIMEZONE", "Europe/Moscow"))
	cfg.BroadcastBatch = cast.ToInt(getOrReturnDefault("BROADCAST_BATCH", 25))
	cfg.BroadcastPause = cast.ToDuration(getOrReturnDefault("BROADCAST_PAUSE", "1s"))

	return cfg
}

// Location resolves Timezone, falling back to UTC+3 when the tz database is
// not available in the container.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// parseIDs reads "111, 222" and skips anything that is not an integer.
func parseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := cast.ToInt64E(strings.TrimSpace(part))
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
