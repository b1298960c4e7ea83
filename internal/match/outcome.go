package match

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// Terminal end reasons.
const (
	ReasonCheckmate = "checkmate"
	ReasonResigned  = "resigned"
	ReasonTimedOut  = "timeout"
	ReasonAbandoned = "abandoned"
	ReasonDraw      = "draw"
)

// Resolver owns session finalization. Every terminal path (checkmate,
// resignation, timeout, abandonment, draw) funnels through Finalize so the
// status guard in the store makes finalization happen exactly once no
// matter how many processes race to end the same session.
type Resolver struct {
	store    *store.Store
	jobs     *bus.Jobs
	notifier Notifier
}

func NewResolver(st *store.Store, jobs *bus.Jobs, n Notifier) *Resolver {
	return &Resolver{store: st, jobs: jobs, notifier: n}
}

// Finalize ends a live session. winnerID is empty for a draw. Returns
// false when another finalizer got there first, which callers treat as
// success: the session is terminal either way.
func (r *Resolver) Finalize(ctx context.Context, sessionID, winnerID, reason string) (bool, error) {
	sess, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("finalize %s: %w", sessionID, err)
	}
	if sess.Status != store.SessionLive {
		return false, nil
	}

	playerA, err := r.store.GetPlayer(ctx, sess.PlayerA)
	if err != nil {
		return false, err
	}
	playerB, err := r.store.GetPlayer(ctx, sess.PlayerB)
	if err != nil {
		return false, err
	}

	// Ratings compute from the pre-session snapshots, never from the live
	// player rows, so changes landing mid-session cannot leak in.
	scoreA := 0.5
	switch winnerID {
	case sess.PlayerA:
		scoreA = 1
	case sess.PlayerB:
		scoreA = 0
	}
	delta := RatingDelta(sess.ARatingBefore, sess.BRatingBefore, playerA.GamesPlayed, playerB.GamesPlayed, scoreA)
	aAfter := sess.ARatingBefore + delta
	bAfter := sess.BRatingBefore - delta

	ok, err := r.store.FinalizeSession(ctx, sessionID, store.TerminalFields{
		WinnerID:     winnerID,
		EndReason:    reason,
		ARatingAfter: aAfter,
		BRatingAfter: bAfter,
		RatingDelta:  delta,
		EndedAt:      time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	r.recordResult(ctx, sess.PlayerA, aAfter, winnerID, sess.PlayerB)
	r.recordResult(ctx, sess.PlayerB, bAfter, winnerID, sess.PlayerA)

	for _, id := range []string{moveJobID(sessionID), setupJobID(sessionID)} {
		if err := r.jobs.Cancel(ctx, id); err != nil {
			log.Warn().Err(err).Str("job_id", id).Msg("cancel deadline job failed")
		}
	}

	r.notifier.Session(ctx, sessionID, EventSessionUpdate, map[string]any{
		"sessionId":   sessionID,
		"status":      store.SessionFinished,
		"winnerId":    winnerID,
		"endReason":   reason,
		"ratingDelta": delta,
	})
	log.Info().Str("session_id", sessionID).Str("winner_id", winnerID).Str("reason", reason).Int("rating_delta", delta).Msg("session finalized")
	return true, nil
}

func (r *Resolver) recordResult(ctx context.Context, playerID string, newRating int, winnerID, opponentID string) {
	var wins, losses, draws int
	switch winnerID {
	case playerID:
		wins = 1
	case opponentID:
		losses = 1
	default:
		draws = 1
	}
	if err := r.store.RecordResult(ctx, playerID, newRating, wins, losses, draws); err != nil {
		log.Error().Err(err).Str("player_id", playerID).Msg("record result failed")
	}
}
