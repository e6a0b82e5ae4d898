package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Completion provider
	viper.SetDefault("mistral.endpoint", "https://api.mistral.ai")
	viper.SetDefault("mistral.api_key", "")
	viper.SetDefault("model", "mistral-large-latest")
	viper.SetDefault("llm.request_timeout", 90*time.Second)

	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 3)
	viper.SetDefault("telegram.webhook.enabled", false)
	viper.SetDefault("telegram.webhook.domain", "")
	viper.SetDefault("telegram.webhook.port", 8443)

	// Chat
	viper.SetDefault("history.max_messages", 10)

	// Admin gate
	viper.SetDefault("admin.user_id", "5842560424")
	viper.SetDefault("admin.password", "tnixai2025")

	// Storage
	viper.SetDefault("data.dir", "user_data")
	viper.SetDefault("audit.path", "")
	viper.SetDefault("audit.rotate_max_bytes", int64(0))

	// Dashboard
	viper.SetDefault("dashboard.bind", "127.0.0.1")
	viper.SetDefault("dashboard.port", 5000)
	viper.SetDefault("dashboard.password", "")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}
