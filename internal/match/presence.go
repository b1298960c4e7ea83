package match

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// Presence tracks participant connectivity for active sessions. A
// disconnect plants a grace-period marker whose natural expiry forfeits
// the session; reconnecting clears the marker and replays current state.
type Presence struct {
	store     *store.Store
	markers   *bus.Markers
	prep      *Prep
	resolver  *Resolver
	snapshots *Snapshots
	notifier  Notifier
	cfg       config.MatchConfig
}

func NewPresence(st *store.Store, markers *bus.Markers, prep *Prep, resolver *Resolver, snaps *Snapshots, n Notifier, cfg config.MatchConfig) *Presence {
	return &Presence{store: st, markers: markers, prep: prep, resolver: resolver, snapshots: snaps, notifier: n, cfg: cfg}
}

// OnDisconnect records that a player's last connection dropped. Players
// without an active session have nothing at stake and are ignored.
func (p *Presence) OnDisconnect(ctx context.Context, playerID string) {
	sess, err := p.store.GetActiveSessionForPlayer(ctx, playerID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("player_id", playerID).Msg("lookup session on disconnect")
		}
		return
	}
	if err := p.markers.Set(ctx, playerID, sess.ID, p.cfg.DisconnectGrace); err != nil {
		log.Error().Err(err).Str("player_id", playerID).Str("session_id", sess.ID).Msg("set disconnect marker")
		return
	}
	p.notifier.SessionPlayer(ctx, sess.ID, sess.Opponent(playerID), EventOpponentDisconnected, map[string]any{
		"playerId":           playerID,
		"gracePeriodSeconds": int(p.cfg.DisconnectGrace.Seconds()),
	})
	log.Info().Str("player_id", playerID).Str("session_id", sess.ID).Msg("player disconnected, grace running")
}

// OnJoin handles a player (re)connecting to a session: the disconnect
// marker is cleared, the opponent is told, and the joining player gets a
// full snapshot so a missed notification cannot strand them.
func (p *Presence) OnJoin(ctx context.Context, sessionID, playerID string) (*View, error) {
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsParticipant(playerID) {
		return nil, reject(ReasonNotParticipant)
	}
	if err := p.markers.Clear(ctx, playerID, sessionID); err != nil {
		log.Warn().Err(err).Str("player_id", playerID).Msg("clear disconnect marker")
	}
	if sess.Status != store.SessionFinished {
		p.notifier.SessionPlayer(ctx, sessionID, sess.Opponent(playerID), EventOpponentConnected, map[string]any{
			"playerId": playerID,
		})
	}
	return p.snapshots.ViewFor(ctx, sess, playerID)
}

// OnMarkerExpired handles a grace period running out. A setup session is
// promoted first so abandonment resolves through the one terminal
// transition, with the abandoning player's opponent as winner.
func (p *Presence) OnMarkerExpired(ctx context.Context, playerID, sessionID string) {
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("session_id", sessionID).Msg("load session on marker expiry")
		}
		return
	}
	if !sess.IsParticipant(playerID) || sess.Status == store.SessionFinished {
		return
	}
	if sess.Status == store.SessionSetup {
		if err := p.prep.GoLive(ctx, sessionID); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("promote abandoned setup session")
			return
		}
	}
	if _, err := p.resolver.Finalize(ctx, sessionID, sess.Opponent(playerID), ReasonAbandoned); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("finalize abandoned session")
	}
}
