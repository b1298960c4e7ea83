package match

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

func setupJobID(sessionID string) string { return "setup:" + sessionID }
func moveJobID(sessionID string) string  { return "move:" + sessionID }

// Job identity prefixes, used by the worker to dispatch claimed jobs.
const (
	SetupJobPrefix = "setup:"
	MoveJobPrefix  = "move:"
)

type setupDeadlinePayload struct {
	SessionID string `json:"sessionId"`
}

// moveDeadlinePayload carries the last-move timestamp the check was
// scheduled against. A mismatch on fire means a move landed in between
// and the check is stale.
type moveDeadlinePayload struct {
	SessionID   string    `json:"sessionId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// Scheduler schedules and handles deadline checks. Sessions carry at most
// one pending check each: the job identity is derived from the session id,
// so scheduling replaces rather than stacks.
type Scheduler struct {
	store    *store.Store
	jobs     *bus.Jobs
	resolver *Resolver
	cfg      config.MatchConfig
}

func NewScheduler(st *store.Store, jobs *bus.Jobs, resolver *Resolver, cfg config.MatchConfig) *Scheduler {
	return &Scheduler{store: st, jobs: jobs, resolver: resolver, cfg: cfg}
}

func (s *Scheduler) ScheduleSetupDeadline(ctx context.Context, sessionID string, createdAt time.Time) error {
	at := createdAt.Add(s.cfg.SetupDeadline)
	if now := time.Now(); at.Before(now) {
		at = now
	}
	return s.jobs.Schedule(ctx, setupJobID(sessionID), at, setupDeadlinePayload{SessionID: sessionID})
}

// ScheduleMoveCheck arms the timeout check for the player to move. The
// check fires after the per-move allowance plus the mover's remaining
// bank, the earliest instant the session can time out.
func (s *Scheduler) ScheduleMoveCheck(ctx context.Context, sess *store.Session) error {
	at := sess.LastMoveAt.Add(moveBudget(s.cfg.MoveAllowance, sess.BankFor(sess.ToMove())))
	return s.jobs.Schedule(ctx, moveJobID(sess.ID), at, moveDeadlinePayload{
		SessionID:   sess.ID,
		ScheduledAt: sess.LastMoveAt,
	})
}

// moveBudget is the total thinking time available for one move.
func moveBudget(allowance time.Duration, bankMS int64) time.Duration {
	bank := time.Duration(bankMS) * time.Millisecond
	if bank < 0 {
		bank = 0
	}
	return allowance + bank
}

// OnMoveDeadline handles a fired timeout check. Stale checks (the session
// moved on, ended, or disappeared) are dropped without side effects; a
// check that fired early reschedules itself for the true deadline.
func (s *Scheduler) OnMoveDeadline(ctx context.Context, payload []byte) {
	var p moveDeadlinePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Error().Err(err).Msg("bad move deadline payload")
		return
	}
	sess, err := s.store.GetSession(ctx, p.SessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("session_id", p.SessionID).Msg("load session for deadline check")
		}
		return
	}
	if sess.Status != store.SessionLive || !sess.LastMoveAt.Equal(p.ScheduledAt) {
		return
	}

	mover := sess.ToMove()
	deadline := sess.LastMoveAt.Add(moveBudget(s.cfg.MoveAllowance, sess.BankFor(mover)))
	if time.Now().Before(deadline) {
		if err := s.ScheduleMoveCheck(ctx, sess); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("reschedule move check")
		}
		return
	}

	if _, err := s.resolver.Finalize(ctx, sess.ID, sess.Opponent(mover), ReasonTimedOut); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("finalize on timeout")
	}
}

// Recover re-arms deadline checks after a restart. Live sessions without a
// pending move check get one scheduled from their stored last-move
// timestamp; setup sessions get their setup deadline restored with the
// remaining time, zero if already overdue.
func (s *Scheduler) Recover(ctx context.Context) error {
	live, err := s.store.ListSessionsByStatus(ctx, store.SessionLive)
	if err != nil {
		return err
	}
	for i := range live {
		sess := &live[i]
		pending, err := s.jobs.Pending(ctx, moveJobID(sess.ID))
		if err != nil {
			return err
		}
		if pending {
			continue
		}
		if err := s.ScheduleMoveCheck(ctx, sess); err != nil {
			return err
		}
		log.Info().Str("session_id", sess.ID).Msg("recovered move deadline check")
	}

	setup, err := s.store.ListSessionsByStatus(ctx, store.SessionSetup)
	if err != nil {
		return err
	}
	for i := range setup {
		sess := &setup[i]
		pending, err := s.jobs.Pending(ctx, setupJobID(sess.ID))
		if err != nil {
			return err
		}
		if pending {
			continue
		}
		if err := s.ScheduleSetupDeadline(ctx, sess.ID, sess.CreatedAt); err != nil {
			return err
		}
		log.Info().Str("session_id", sess.ID).Msg("recovered setup deadline")
	}
	return nil
}
