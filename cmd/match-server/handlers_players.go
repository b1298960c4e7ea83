package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

func registerPlayerHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Name == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		apiKey := "dc_" + store.NewID()
		id, err := st.CreatePlayer(r.Context(), body.Name, apiKey, 1200)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{
			"player_id": id,
			"api_key":   apiKey,
			"rating":    1200,
		})
	}
}

func playerMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		writeJSON(w, map[string]any{
			"player_id":    player.ID,
			"name":         player.Name,
			"rating":       player.Rating,
			"games_played": player.GamesPlayed,
			"wins":         player.Wins,
			"losses":       player.Losses,
			"draws":        player.Draws,
			"queue_status": player.QueueStatus,
			"army_id":      player.ArmyID,
		})
	}
}

func createArmyHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		var body struct {
			Position string `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		points, reason := board.ValidateArmy(board.Position(body.Position))
		if reason != "" {
			writeHTTPError(w, http.StatusBadRequest, reason)
			return
		}
		id, err := st.CreateArmy(r.Context(), player.ID, body.Position, points)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		ok, err := st.SetPlayerArmy(r.Context(), player.ID, id)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if !ok {
			writeHTTPError(w, http.StatusConflict, "not_idle")
			return
		}
		writeJSON(w, map[string]any{"army_id": id, "points_used": points})
	}
}

func joinQueueHandler(st *store.Store, mm *match.Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		if player.ArmyID == "" {
			writeHTTPError(w, http.StatusConflict, "no_army")
			return
		}
		ok, err := st.EnqueuePlayer(r.Context(), player.ID, time.Now().UTC())
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if !ok {
			writeHTTPError(w, http.StatusConflict, "not_idle")
			return
		}
		if err := mm.TryMatch(r.Context()); err != nil {
			log.Error().Err(err).Msg("matchmaking pass after enqueue")
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func leaveQueueHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		ok, err := st.DequeuePlayer(r.Context(), player.ID)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if !ok {
			writeHTTPError(w, http.StatusConflict, "not_queued")
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func publicLeaderboardHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		items, err := st.ListTopPlayers(r.Context(), limit, offset)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			out = append(out, map[string]any{
				"player_id":    it.ID,
				"name":         it.Name,
				"rating":       it.Rating,
				"games_played": it.GamesPlayed,
				"wins":         it.Wins,
				"losses":       it.Losses,
				"draws":        it.Draws,
			})
		}
		writeJSON(w, map[string]any{"items": out, "limit": limit, "offset": offset})
	}
}

func adminSessionsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status == "" {
			status = store.SessionLive
		}
		items, err := st.ListSessionsByStatus(r.Context(), status)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{"items": items})
	}
}

type playerContextKey struct{}

func playerFrom(ctx context.Context) *store.Player {
	return ctx.Value(playerContextKey{}).(*store.Player)
}

func playerAuthMiddleware(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			prefix := "Bearer "
			if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			player, err := st.GetPlayerByAPIKey(r.Context(), auth[len(prefix):])
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), playerContextKey{}, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey != "" && r.Header.Get("X-Admin-Key") != adminKey {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
