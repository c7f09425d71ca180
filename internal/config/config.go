// Package config loads and validates application configuration from
// environment variables and an optional config file.
package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains content generator settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// TaskConfig contains background worker settings.
type TaskConfig struct {
	QueueSize           int `mapstructure:"queue_size"             validate:"required,gt=0"`
	WorkerCount         int `mapstructure:"worker_count"           validate:"required,gt=0"`
	StuckJobAgeMinutes  int `mapstructure:"stuck_job_age_minutes"  validate:"required,gt=0"`
	ShutdownGracePeriod int `mapstructure:"shutdown_grace_seconds" validate:"gte=0"`
}

// GenerationConfig tunes the content-generation pipeline.
type GenerationConfig struct {
	// GroundingThreshold is the minimum normalized token overlap between
	// an answer and its cited snippet for a candidate to count as
	// grounded.
	GroundingThreshold float64 `mapstructure:"grounding_threshold" validate:"gte=0,lte=1"`

	// MinAcceptedItems is the viability floor: a job fails when fewer
	// candidates survive validation.
	MinAcceptedItems int `mapstructure:"min_accepted_items" validate:"required,gte=1"`

	// MaxBatches bounds how many generator calls one job may make while
	// chasing its target count.
	MaxBatches int `mapstructure:"max_batches" validate:"required,gte=1,lte=10"`
}
