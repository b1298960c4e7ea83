package main

import (
	"net/http"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
	"github.com/KingVladAtheris/draftchess/internal/ws"
)

func TestRouterRegistersExpectedRoutes(t *testing.T) {
	st := &store.Store{}
	cfg := config.ServerConfig{}
	matchCfg := config.MatchConfig{}
	snaps := match.NewSnapshots(st)
	prep := match.NewPrep(st, nil, nil, snaps, nil, matchCfg)
	play := match.NewPlay(st, nil, nil, nil, prep, nil, matchCfg)
	mm := match.NewMatchmaker(st, nil, nil, matchCfg)
	wsServer := ws.NewServer(st, ws.NewHub(), nil, mm)

	r := newRouter(st, cfg, snaps, prep, play, mm, wsServer)

	got := []string{}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got = append(got, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}
	sort.Strings(got)

	want := []string{
		"GET /api/admin/sessions",
		"GET /api/players/me",
		"GET /api/public/leaderboard",
		"GET /api/sessions/{session_id}",
		"GET /healthz",
		"GET /ws",
		"POST /api/armies",
		"POST /api/players/register",
		"POST /api/queue/join",
		"POST /api/queue/leave",
		"POST /api/sessions/{session_id}/moves",
		"POST /api/sessions/{session_id}/placements",
		"POST /api/sessions/{session_id}/ready",
		"POST /api/sessions/{session_id}/resign",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d routes, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("route %d: got %q want %q", i, got[i], want[i])
		}
	}
}
