package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/logging"
	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatal().Err(err).Msg("load worker config failed")
	}
	matchCfg, err := config.LoadMatch()
	if err != nil {
		log.Fatal().Err(err).Msg("load match config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	b, err := bus.New(cfg.RedisAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("bus init failed")
	}

	// The worker has no local connections; notifications ride the bus only.
	notifier := match.NewBusNotifier(b, nil)
	snaps := match.NewSnapshots(st)
	resolver := match.NewResolver(st, b.Jobs, notifier)
	sched := match.NewScheduler(st, b.Jobs, resolver, matchCfg)
	prep := match.NewPrep(st, b.Jobs, sched, snaps, notifier, matchCfg)
	presence := match.NewPresence(st, b.Markers, prep, resolver, snaps, notifier, matchCfg)
	mm := match.NewMatchmaker(st, sched, notifier, matchCfg)

	ctx := context.Background()
	b.Markers.EnableExpiryNotifications(ctx)

	if err := sched.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("deadline recovery failed")
	}
	if err := mm.TryMatch(ctx); err != nil {
		log.Error().Err(err).Msg("startup matchmaking pass")
	}

	go watchMarkers(ctx, b, presence)
	go matchLoop(ctx, mm, cfg.MatchPollInterval)

	log.Info().Dur("job_poll", cfg.JobPollInterval).Msg("worker running")
	b.Jobs.Run(ctx, cfg.JobPollInterval, func(ctx context.Context, id string, payload []byte) {
		switch {
		case strings.HasPrefix(id, match.SetupJobPrefix):
			prep.OnSetupDeadline(ctx, payload)
		case strings.HasPrefix(id, match.MoveJobPrefix):
			sched.OnMoveDeadline(ctx, payload)
		default:
			log.Warn().Str("job_id", id).Msg("unknown job claimed")
		}
	})
}

func watchMarkers(ctx context.Context, b *bus.Bus, presence *match.Presence) {
	for pair := range b.Markers.WatchExpired(ctx) {
		presence.OnMarkerExpired(ctx, pair[0], pair[1])
	}
}

func matchLoop(ctx context.Context, mm *match.Matchmaker, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mm.TryMatch(ctx); err != nil {
				log.Error().Err(err).Msg("periodic matchmaking pass")
			}
		}
	}
}
