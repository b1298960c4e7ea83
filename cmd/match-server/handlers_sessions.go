package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

func getSessionHandler(st *store.Store, snaps *match.Snapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		sess, err := st.GetSession(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeActionError(w, err)
			return
		}
		view, err := snaps.ViewFor(r.Context(), sess, player.ID)
		if err != nil {
			writeActionError(w, err)
			return
		}
		writeJSON(w, view)
	}
}

func placementHandler(prep *match.Prep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		var body struct {
			Piece  string `json:"piece"`
			Square string `json:"square"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := prep.Place(r.Context(), chi.URLParam(r, "session_id"), player.ID, body.Piece, body.Square); err != nil {
			writeActionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func readyHandler(prep *match.Prep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		if err := prep.Ready(r.Context(), chi.URLParam(r, "session_id"), player.ID); err != nil {
			writeActionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func moveHandler(play *match.Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		var body struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := play.Submit(r.Context(), chi.URLParam(r, "session_id"), player.ID, body.From, body.To); err != nil {
			writeActionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func resignHandler(play *match.Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := playerFrom(r.Context())
		if err := play.Resign(r.Context(), chi.URLParam(r, "session_id"), player.ID); err != nil {
			writeActionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}
