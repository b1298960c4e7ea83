package match

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// Play handles move submission and resignation on live sessions.
type Play struct {
	store    *store.Store
	judge    board.MoveJudge
	sched    *Scheduler
	resolver *Resolver
	prep     *Prep
	notifier Notifier
	cfg      config.MatchConfig
}

func NewPlay(st *store.Store, judge board.MoveJudge, sched *Scheduler, resolver *Resolver, prep *Prep, n Notifier, cfg config.MatchConfig) *Play {
	return &Play{store: st, judge: judge, sched: sched, resolver: resolver, prep: prep, notifier: n, cfg: cfg}
}

// Submit validates and applies one move. Time spent beyond the per-move
// allowance drains the mover's bank; a move arriving after allowance plus
// bank are both exhausted does not apply and ends the session in timeout
// instead.
func (pl *Play) Submit(ctx context.Context, sessionID, playerID, from, to string) error {
	sess, err := pl.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.IsParticipant(playerID) {
		return reject(ReasonNotParticipant)
	}
	if sess.Status != store.SessionLive {
		return reject(ReasonWrongPhase)
	}
	if sess.ToMove() != playerID {
		return reject(ReasonNotYourTurn)
	}

	fromSq, err := board.ParseSquare(from)
	if err != nil {
		return reject(ReasonBadSquare)
	}
	toSq, err := board.ParseSquare(to)
	if err != nil {
		return reject(ReasonBadSquare)
	}

	newPos, outcome, reason := pl.judge.Apply(board.Position(sess.Position), sideOf(sess, playerID), fromSq, toSq)
	if reason != "" {
		return reject(reason)
	}

	now := time.Now().UTC()
	elapsed := now.Sub(sess.LastMoveAt)
	newBank := sess.BankFor(playerID)
	if over := elapsed - pl.cfg.MoveAllowance; over > 0 {
		newBank -= over.Milliseconds()
	}
	if newBank < 0 {
		// The clock ran out before the move arrived. The deadline check
		// would catch this shortly; ending it here just gets there first.
		if _, err := pl.resolver.Finalize(ctx, sessionID, sess.Opponent(playerID), ReasonTimedOut); err != nil {
			return err
		}
		return reject(ReasonTimeout)
	}

	ok, err := pl.store.ApplyMove(ctx, sessionID, string(newPos), sess.MoveCount, playerID == sess.PlayerA, newBank, now)
	if err != nil {
		return err
	}
	if !ok {
		// Another move or a finalization landed first.
		return reject(ReasonNotYourTurn)
	}

	switch outcome {
	case board.OutcomeCheckmate:
		_, err = pl.resolver.Finalize(ctx, sessionID, playerID, ReasonCheckmate)
		return err
	case board.OutcomeDraw:
		_, err = pl.resolver.Finalize(ctx, sessionID, "", ReasonDraw)
		return err
	}

	sess, err = pl.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := pl.sched.ScheduleMoveCheck(ctx, sess); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("arm move check after move")
	}
	pl.notifier.Session(ctx, sessionID, EventSessionUpdate, map[string]any{
		"sessionId":   sessionID,
		"status":      sess.Status,
		"position":    sess.Position,
		"moveCount":   sess.MoveCount,
		"toMove":      sess.ToMove(),
		"lastMoveAt":  sess.LastMoveAt,
		"whiteBankMs": sess.BankFor(sess.WhiteID),
		"blackBankMs": sess.BankFor(sess.BlackID),
	})
	return nil
}

// Resign concedes the session to the opponent. Resigning during setup
// first promotes the session so the single live-to-finished transition
// applies.
func (pl *Play) Resign(ctx context.Context, sessionID, playerID string) error {
	sess, err := pl.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.IsParticipant(playerID) {
		return reject(ReasonNotParticipant)
	}
	switch sess.Status {
	case store.SessionSetup:
		if err := pl.prep.GoLive(ctx, sessionID); err != nil {
			return err
		}
	case store.SessionLive:
	default:
		return reject(ReasonWrongPhase)
	}
	_, err = pl.resolver.Finalize(ctx, sessionID, sess.Opponent(playerID), ReasonResigned)
	return err
}
