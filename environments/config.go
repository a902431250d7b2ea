package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Transport TransportConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Phone     PhoneConfig
	Campaign  CampaignConfig
	Ingest    IngestConfig
	Alert     AlertConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TransportConfig struct {
	BaseURL            string
	AuthToken          string
	RelayIntegrationID string
	Timeout            time.Duration
}

type MediaConfig struct {
	Timeout time.Duration
}

type RateLimitConfig struct {
	Interval time.Duration
	Permits  int
}

type WebhookConfig struct {
	VerifyToken string
}

type PhoneConfig struct {
	HomeCountryCode string
}

type CampaignConfig struct {
	// TrackingURL is a format string taking the lead id.
	TrackingURL  string
	DefaultLimit int
	MaxRangeDays int
}

type IngestConfig struct {
	Interval  time.Duration
	BatchSize int
}

type AlertConfig struct {
	WebhookURL     string
	IterationCount int
}

type AuthConfig struct {
	MessagesAPIKey  string
	CampaignsAPIKey string
	SchedulerAPIKey string
}

// Load reads configuration from the environment, after merging a local .env
// file when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "crm"),
			Password: GetEnv("DB_PASSWORD", "crm123"),
			DBName:   GetEnv("DB_NAME", "lead_notifications"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Transport: TransportConfig{
			BaseURL:            GetEnv("TRANSPORT_BASE_URL", "https://api.messaging.example.com/v1"),
			AuthToken:          GetEnv("TRANSPORT_AUTH_TOKEN", ""),
			RelayIntegrationID: GetEnv("TRANSPORT_RELAY_INTEGRATION_ID", ""),
			Timeout:            time.Duration(GetEnvAsInt("TRANSPORT_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Media: MediaConfig{
			Timeout: time.Duration(GetEnvAsInt("MEDIA_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Interval: GetEnvAsDuration("RATE_LIMIT_INTERVAL", 1250*time.Millisecond),
			Permits:  GetEnvAsInt("RATE_LIMIT_PERMITS", 1),
		},
		Webhook: WebhookConfig{
			VerifyToken: GetEnv("WEBHOOK_VERIFY_TOKEN", ""),
		},
		Phone: PhoneConfig{
			HomeCountryCode: GetEnv("HOME_COUNTRY_CODE", "91"),
		},
		Campaign: CampaignConfig{
			TrackingURL: GetEnv(
				"CAMPAIGN_TRACKING_URL",
				"https://crm.example.com/lead/%d?utm_source=whatsapp&utm_campaign=ivr_followup",
			),
			DefaultLimit: GetEnvAsInt("CAMPAIGN_DEFAULT_LIMIT", 100),
			MaxRangeDays: GetEnvAsInt("CAMPAIGN_MAX_RANGE_DAYS", 90),
		},
		Ingest: IngestConfig{
			Interval:  time.Duration(GetEnvAsInt("INGEST_INTERVAL_MINUTES", 5)) * time.Minute,
			BatchSize: GetEnvAsInt("INGEST_BATCH_SIZE", 200),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			IterationCount: GetEnvAsInt("ALERT_ITERATION_COUNT", 0),
		},
		Auth: AuthConfig{
			MessagesAPIKey:  GetEnv("MESSAGES_API_KEY", ""),
			CampaignsAPIKey: GetEnv("CAMPAIGNS_API_KEY", ""),
			SchedulerAPIKey: GetEnv("SCHEDULER_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
