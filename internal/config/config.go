package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/coralises/guildflow/internal/domain"
)

// Config aggregates runtime configuration for the bot process.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Platform  PlatformConfig
	Community CommunityConfig
	Collector CollectorConfig
	Prune     PruneConfig
	Auth      AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// StoreConfig selects and parameterizes the document store driver.
type StoreConfig struct {
	Driver   string // file | postgres | redis
	FilePath string
	RedisKey string
}

// PostgresConfig holds DB connection values for the postgres store driver.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the redis store driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PlatformConfig points at the chat-platform gateway.
type PlatformConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// CommunityConfig carries the platform identifiers the workflows act on.
type CommunityConfig struct {
	StaffRoleID        string
	RoleIDs            map[domain.Role]string
	TicketParentID     string
	TicketPanelChannel string
	AppPanelChannel    string
	LogChannel         string
	ReviewChannels     map[domain.ApplicationType]string
}

// CollectorConfig parameterizes answer collection and transcripts.
type CollectorConfig struct {
	CancelKeyword        string
	ApplicationTimeout   time.Duration
	TranscriptFetchLimit int
	TranscriptFieldLimit int
}

// PruneConfig parameterizes the archival sweep.
type PruneConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// AuthConfig defines operator authentication parameters for the admin surface.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminUser             string
	AdminPasswordHash     string
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "guildflow"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver:   getEnv("STORE_DRIVER", "file"),
			FilePath: getEnv("STORE_FILE_PATH", "guildflow.json"),
			RedisKey: getEnv("STORE_REDIS_KEY", "guildflow:document"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Platform: PlatformConfig{
			BaseURL:        getEnv("PLATFORM_BASE_URL", "http://127.0.0.1:9090"),
			Token:          os.Getenv("PLATFORM_TOKEN"),
			TimeoutSeconds: getEnvAsInt("PLATFORM_TIMEOUT_SECONDS", 15),
		},
		Community: CommunityConfig{
			StaffRoleID: getEnv("STAFF_ROLE_ID", ""),
			RoleIDs: map[domain.Role]string{
				domain.RoleStaff:   getEnv("ROLE_STAFF_ID", ""),
				domain.RoleTrainee: getEnv("ROLE_TRAINEE_ID", ""),
				domain.RoleBuilder: getEnv("ROLE_BUILDER_ID", ""),
				domain.RoleDev:     getEnv("ROLE_DEV_ID", ""),
			},
			TicketParentID:     getEnv("TICKET_PARENT_ID", ""),
			TicketPanelChannel: getEnv("TICKET_PANEL_CHANNEL_ID", ""),
			AppPanelChannel:    getEnv("APPLICATION_PANEL_CHANNEL_ID", ""),
			LogChannel:         getEnv("LOG_CHANNEL_ID", ""),
			ReviewChannels: map[domain.ApplicationType]string{
				domain.ApplicationStaff:   getEnv("REVIEW_CHANNEL_STAFF_ID", ""),
				domain.ApplicationBuilder: getEnv("REVIEW_CHANNEL_BUILDER_ID", ""),
				domain.ApplicationDev:     getEnv("REVIEW_CHANNEL_DEV_ID", ""),
			},
		},
		Collector: CollectorConfig{
			CancelKeyword:        getEnv("COLLECTOR_CANCEL_KEYWORD", "cancel"),
			ApplicationTimeout:   getEnvAsDuration("APPLICATION_TIMEOUT", 3*time.Hour),
			TranscriptFetchLimit: getEnvAsInt("TRANSCRIPT_FETCH_LIMIT", 100),
			TranscriptFieldLimit: getEnvAsInt("TRANSCRIPT_FIELD_LIMIT", 1020),
		},
		Prune: PruneConfig{
			Interval:  getEnvAsDuration("PRUNE_INTERVAL", 24*time.Hour),
			Retention: getEnvAsDuration("PRUNE_RETENTION", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminUser:             getEnv("AUTH_ADMIN_USER", "operator"),
			AdminPasswordHash:     os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the outbound platform call timeout.
func (p PlatformConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
