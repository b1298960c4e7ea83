package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/KingVladAtheris/draftchess/internal/logging"
	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// writeActionError maps coordinator errors onto HTTP statuses: rejections
// carry their reason code, missing sessions are 404, everything else is a
// 500 with no internals leaked.
func writeActionError(w http.ResponseWriter, err error) {
	if code, ok := match.RejectCode(err); ok {
		status := http.StatusConflict
		switch code {
		case match.ReasonNotParticipant:
			status = http.StatusForbidden
		case match.ReasonBadSquare:
			status = http.StatusBadRequest
		}
		writeHTTPError(w, status, code)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeHTTPError(w, http.StatusNotFound, "session_not_found")
		return
	}
	writeHTTPError(w, http.StatusInternalServerError, "internal_error")
}
