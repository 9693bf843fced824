package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	ProviderBaseURL    string `env:"VOICE_PROVIDER_BASE_URL,required=true"`
	ProviderAPIKey     string `env:"VOICE_PROVIDER_API_KEY,required=true"`
	AnalysisBaseURL    string `env:"ANALYSIS_BASE_URL,required=true"`
	AnalysisAPIKey     string `env:"ANALYSIS_API_KEY"`
	SyncIntervalSec    int    `env:"SYNC_INTERVAL_SEC,default=60"`
	SyncBatchLimit     int    `env:"SYNC_BATCH_LIMIT,default=50"`
	ProviderRatePerSec int    `env:"PROVIDER_RATE_PER_SEC,default=5"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
