package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Mongo (local calendar mode, audit trail, pricing overrides).
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// AI classifier.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Calendar provider: "mongo" (local) or "google".
	CalendarMode            string `mapstructure:"CALENDAR_MODE"`
	GoogleCalendarCredsFile string `mapstructure:"GOOGLE_CALENDAR_CREDS_FILE"`

	// Conversation and scheduling knobs.
	SessionTTLMinutes         int  `mapstructure:"SESSION_TTL_MINUTES"`
	BusinessHoursStartMinute  int  `mapstructure:"BUSINESS_HOURS_START_MINUTE"` // minutes from midnight
	BusinessHoursEndMinute    int  `mapstructure:"BUSINESS_HOURS_END_MINUTE"`
	SlotGranularityMinutes    int  `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	SearchHorizonDays         int  `mapstructure:"SEARCH_HORIZON_DAYS"`
	DefaultTreatmentMinutes   int  `mapstructure:"DEFAULT_TREATMENT_MINUTES"`
	CancelRequiresConfirm     bool `mapstructure:"CANCEL_REQUIRES_CONFIRMATION"`
	ReminderLeadMinutes       int  `mapstructure:"REMINDER_LEAD_MINUTES"`
	CollaboratorTimeoutSecs   int  `mapstructure:"COLLABORATOR_TIMEOUT_SECS"`
	CollaboratorRetryAttempts int  `mapstructure:"COLLABORATOR_RETRY_ATTEMPTS"`
	MaxRequestsPerMin         int  `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Dentist roster: calendar resource id -> display name, and minutes
	// required per treatment type. Both come from config.yaml.
	Dentists           map[string]string `mapstructure:"DENTISTS"`
	TreatmentDurations map[string]int    `mapstructure:"TREATMENT_DURATIONS"`

	// Pricing fallback text served when no pricing document is stored.
	PricingText string `mapstructure:"PRICING_TEXT"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "dentaflow")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("CALENDAR_MODE", "mongo")
	viper.SetDefault("GOOGLE_CALENDAR_CREDS_FILE", "")
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("BUSINESS_HOURS_START_MINUTE", 9*60)
	viper.SetDefault("BUSINESS_HOURS_END_MINUTE", 18*60)
	viper.SetDefault("SLOT_GRANULARITY_MINUTES", 15)
	viper.SetDefault("SEARCH_HORIZON_DAYS", 14)
	viper.SetDefault("DEFAULT_TREATMENT_MINUTES", 30)
	viper.SetDefault("CANCEL_REQUIRES_CONFIRMATION", true)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 24*60)
	viper.SetDefault("COLLABORATOR_TIMEOUT_SECS", 10)
	viper.SetDefault("COLLABORATOR_RETRY_ATTEMPTS", 3)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("PRICING_TEXT", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
