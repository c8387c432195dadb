package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		API
		Database
		LearningSync
		FriendsSync
		Audit
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	API struct {
		BaseURL        string
		RequestTimeout time.Duration
		RatePerSecond  float64 // outbound request budget
		RateBurst      int
	}
	Database struct {
		Path string
	}
	LearningSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/10 * * * *" = every 10 minutes
	}
	FriendsSync struct {
		Enabled  bool
		Schedule string
	}
	Audit struct {
		RetentionDays int // Days to keep sync events (default: 30)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8377)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("api_base_url", "https://api.studymate.app")
	v.SetDefault("api_request_timeout", "10s")
	v.SetDefault("api_rate_per_second", 5.0)
	v.SetDefault("api_rate_burst", 10)

	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("learning_sync_enabled", true)
	v.SetDefault("learning_sync_schedule", "*/10 * * * *") // Every 10 minutes
	v.SetDefault("friends_sync_enabled", true)
	v.SetDefault("friends_sync_schedule", "*/15 * * * *")

	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		API: API{
			BaseURL:        v.GetString("API_BASE_URL"),
			RequestTimeout: v.GetDuration("API_REQUEST_TIMEOUT"),
			RatePerSecond:  v.GetFloat64("API_RATE_PER_SECOND"),
			RateBurst:      v.GetInt("API_RATE_BURST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		LearningSync: LearningSync{
			Enabled:  v.GetBool("LEARNING_SYNC_ENABLED"),
			Schedule: v.GetString("LEARNING_SYNC_SCHEDULE"),
		},
		FriendsSync: FriendsSync{
			Enabled:  v.GetBool("FRIENDS_SYNC_ENABLED"),
			Schedule: v.GetString("FRIENDS_SYNC_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
