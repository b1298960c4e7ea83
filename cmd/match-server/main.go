package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/logging"
	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
	"github.com/KingVladAtheris/draftchess/internal/ws"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
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

	hub := ws.NewHub()
	notifier := match.NewBusNotifier(b, hub.Deliver)
	snaps := match.NewSnapshots(st)
	resolver := match.NewResolver(st, b.Jobs, notifier)
	sched := match.NewScheduler(st, b.Jobs, resolver, matchCfg)
	prep := match.NewPrep(st, b.Jobs, sched, snaps, notifier, matchCfg)
	play := match.NewPlay(st, board.CaptureJudge{}, sched, resolver, prep, notifier, matchCfg)
	presence := match.NewPresence(st, b.Markers, prep, resolver, snaps, notifier, matchCfg)
	mm := match.NewMatchmaker(st, sched, notifier, matchCfg)
	wsServer := ws.NewServer(st, hub, presence, mm)

	// Every process's publishes reach this process's clients through the
	// shared channel, own publishes included.
	go func() {
		for env := range b.Subscribe(context.Background()) {
			hub.Deliver(env)
		}
	}()

	r := newRouter(st, cfg, snaps, prep, play, mm, wsServer)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func newRouter(st *store.Store, cfg config.ServerConfig, snaps *match.Snapshots, prep *match.Prep, play *match.Play, mm *match.Matchmaker, wsServer *ws.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Get("/public/leaderboard", publicLeaderboardHandler(st))
		r.Post("/players/register", registerPlayerHandler(st))

		r.Group(func(r chi.Router) {
			r.Use(playerAuthMiddleware(st))
			r.Get("/players/me", playerMeHandler())
			r.Post("/armies", createArmyHandler(st))
			r.Post("/queue/join", joinQueueHandler(st, mm))
			r.Post("/queue/leave", leaveQueueHandler(st))

			r.Get("/sessions/{session_id}", getSessionHandler(st, snaps))
			r.Post("/sessions/{session_id}/placements", placementHandler(prep))
			r.Post("/sessions/{session_id}/ready", readyHandler(prep))
			r.Post("/sessions/{session_id}/moves", moveHandler(play))
			r.Post("/sessions/{session_id}/resign", resignHandler(play))
		})

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(cfg.AdminAPIKey))
			r.Get("/admin/sessions", adminSessionsHandler(st))
		})
	})
	return r
}

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, map[string]any{"ok": true, "db": "up"})
	}
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		sb.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(sb.String())
}
