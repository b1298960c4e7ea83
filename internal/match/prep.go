package match

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// Prep coordinates the setup phase: placement of bonus pieces within the
// point budget, readiness, and promotion to live when both sides are ready
// or the setup deadline fires.
type Prep struct {
	store     *store.Store
	jobs      *bus.Jobs
	sched     *Scheduler
	snapshots *Snapshots
	notifier  Notifier
	cfg       config.MatchConfig
}

func NewPrep(st *store.Store, jobs *bus.Jobs, sched *Scheduler, snaps *Snapshots, n Notifier, cfg config.MatchConfig) *Prep {
	return &Prep{store: st, jobs: jobs, sched: sched, snapshots: snaps, notifier: n, cfg: cfg}
}

// placeAttempts bounds the revalidate-and-retry loop when concurrent
// placements contend on the position guard.
const placeAttempts = 3

// Place adds one piece to the caller's home zone during setup. The
// placement is validated against the masked rules and the caller's
// remaining budget, then applied guarded on phase and on the position it
// was computed from. Both sides draft at the same time, so losing that
// guard to the opponent's placement is routine: revalidate on a fresh
// read and try again.
func (p *Prep) Place(ctx context.Context, sessionID, playerID, piece, square string) error {
	if len(piece) != 1 {
		return reject("invalid_piece")
	}
	sq, err := board.ParseSquare(square)
	if err != nil {
		return reject(ReasonBadSquare)
	}

	for attempt := 0; attempt < placeAttempts; attempt++ {
		sess, err := p.store.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsParticipant(playerID) {
			return reject(ReasonNotParticipant)
		}
		if sess.Status != store.SessionSetup {
			return reject(ReasonWrongPhase)
		}

		side := sideOf(sess, playerID)
		budget := setupPointsFor(sess, playerID)
		pos := board.Position(sess.Position)
		if reason := board.ValidatePlacement(pos, side, piece[0], sq, budget); reason != "" {
			return reject(reason)
		}
		cost, _ := board.Cost(piece[0])
		newPos := pos.Set(sq, board.ForSide(piece[0], side))

		ok, err := p.store.ApplyPlacement(ctx, sessionID, playerID, sess.Position, string(newPos), budget-cost)
		if err != nil {
			return err
		}
		if ok {
			return p.pushSetupViews(ctx, sessionID)
		}
	}
	return reject(ReasonConflict)
}

// Ready marks the caller ready. The second ready promotes the session to
// live.
func (p *Prep) Ready(ctx context.Context, sessionID, playerID string) error {
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.IsParticipant(playerID) {
		return reject(ReasonNotParticipant)
	}
	if sess.Status != store.SessionSetup {
		return reject(ReasonWrongPhase)
	}
	if readyFor(sess, playerID) {
		return reject(ReasonAlreadyReady)
	}

	ok, err := p.store.MarkReady(ctx, sessionID, playerID)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with the deadline promotion or a duplicate ready.
		sess, err = p.store.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != store.SessionSetup {
			return reject(ReasonWrongPhase)
		}
		return reject(ReasonAlreadyReady)
	}

	sess, err = p.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.AReady && sess.BReady {
		return p.GoLive(ctx, sessionID)
	}
	return p.pushSetupViews(ctx, sessionID)
}

// GoLive promotes a setup session to live, freezing the position and
// starting white's clock. The status guard makes the promotion happen
// exactly once across ready and deadline paths; losing the race is
// success.
func (p *Prep) GoLive(ctx context.Context, sessionID string) error {
	now := time.Now().UTC()
	ok, err := p.store.PromoteToLive(ctx, sessionID, p.cfg.StartingBank.Milliseconds(), now)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := p.jobs.Cancel(ctx, setupJobID(sessionID)); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("cancel setup deadline failed")
	}

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := p.sched.ScheduleMoveCheck(ctx, sess); err != nil {
		return fmt.Errorf("arm first move check: %w", err)
	}

	p.notifier.Session(ctx, sessionID, EventSessionUpdate, map[string]any{
		"sessionId":   sessionID,
		"status":      store.SessionLive,
		"position":    sess.Position,
		"toMove":      sess.ToMove(),
		"whiteBankMs": sess.BankFor(sess.WhiteID),
		"blackBankMs": sess.BankFor(sess.BlackID),
	})
	log.Info().Str("session_id", sessionID).Msg("session live")
	return nil
}

// OnSetupDeadline handles the fired setup deadline job: the session goes
// live with whatever both players have placed so far.
func (p *Prep) OnSetupDeadline(ctx context.Context, payload []byte) {
	var sp setupDeadlinePayload
	if err := json.Unmarshal(payload, &sp); err != nil {
		log.Error().Err(err).Msg("bad setup deadline payload")
		return
	}
	if err := p.GoLive(ctx, sp.SessionID); err != nil {
		log.Error().Err(err).Str("session_id", sp.SessionID).Msg("promote on setup deadline")
	}
}

// pushSetupViews sends each participant their own masked view. Setup
// updates are never broadcast: each side must only ever see its own mask.
func (p *Prep) pushSetupViews(ctx context.Context, sessionID string) error {
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, pid := range []string{sess.PlayerA, sess.PlayerB} {
		view, err := p.snapshots.ViewFor(ctx, sess, pid)
		if err != nil {
			return err
		}
		p.notifier.SessionPlayer(ctx, sessionID, pid, EventSessionUpdate, view)
	}
	return nil
}
