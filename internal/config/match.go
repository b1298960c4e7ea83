package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// MatchConfig holds the lifecycle tunables shared by the server and the
// worker. Both processes must load identical values or deadline math and
// grace periods will disagree across the fleet.
type MatchConfig struct {
	SetupPoints   int           `env:"SETUP_POINTS" envDefault:"10"`
	SetupDeadline time.Duration `env:"SETUP_DEADLINE" envDefault:"90s"`

	MoveAllowance time.Duration `env:"MOVE_ALLOWANCE" envDefault:"30s"`
	StartingBank  time.Duration `env:"STARTING_BANK" envDefault:"60s"`

	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"30s"`

	// Matchmaker threshold: base rating gap, widening per full wait step,
	// hard cap so the gap never grows unbounded.
	MatchBaseGap    int           `env:"MATCH_BASE_GAP" envDefault:"200"`
	MatchGapStep    int           `env:"MATCH_GAP_STEP" envDefault:"50"`
	MatchGapStepDur time.Duration `env:"MATCH_GAP_STEP_DUR" envDefault:"30s"`
	MatchGapCap     int           `env:"MATCH_GAP_CAP" envDefault:"800"`
}

func LoadMatch() (MatchConfig, error) {
	var cfg MatchConfig
	err := env.Parse(&cfg)
	return cfg, err
}
