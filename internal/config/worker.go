package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	JobPollInterval time.Duration `env:"JOB_POLL_INTERVAL" envDefault:"250ms"`

	// Periodic matchmaking pass so threshold widening takes effect for
	// players already waiting, without any queue activity.
	MatchPollInterval time.Duration `env:"MATCH_POLL_INTERVAL" envDefault:"5s"`
}

func LoadWorker() (WorkerConfig, error) {
	var cfg WorkerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
