package match

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/config"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// Matchmaker pairs queued players by rating proximity. The acceptable
// rating gap starts narrow and widens the longer the front of the queue
// has waited, so close matches are preferred but nobody starves.
type Matchmaker struct {
	store    *store.Store
	sched    *Scheduler
	notifier Notifier
	cfg      config.MatchConfig
}

func NewMatchmaker(st *store.Store, sched *Scheduler, n Notifier, cfg config.MatchConfig) *Matchmaker {
	return &Matchmaker{store: st, sched: sched, notifier: n, cfg: cfg}
}

// TryMatch attempts one pairing pass: the longest-waiting player against
// the closest-rated other candidate, if that candidate falls within the
// current gap. Runs on every queue change and periodically from the
// worker; a pass that pairs nobody is normal.
func (m *Matchmaker) TryMatch(ctx context.Context) error {
	queued, err := m.store.ListQueuedPlayers(ctx)
	if err != nil {
		return err
	}
	if len(queued) < 2 {
		return nil
	}
	anchor := queued[0]
	idx, ok := pickOpponent(anchor, queued[1:], m.cfg, time.Now())
	if !ok {
		return nil
	}
	candidate := queued[1+idx]

	claimed, err := m.store.ClaimQueuedPair(ctx, anchor.ID, candidate.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// Someone dequeued mid-pass; the next trigger retries.
		return nil
	}
	return m.pair(ctx, anchor, candidate)
}

// pickOpponent returns the index into candidates of the closest-rated
// player, and whether that player falls within the gap the anchor's wait
// time currently allows.
func pickOpponent(anchor store.Player, candidates []store.Player, cfg config.MatchConfig, now time.Time) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	allowed := cfg.MatchBaseGap
	if anchor.QueuedAt != nil && cfg.MatchGapStepDur > 0 {
		steps := int(now.Sub(*anchor.QueuedAt) / cfg.MatchGapStepDur)
		allowed += cfg.MatchGapStep * steps
	}
	if allowed > cfg.MatchGapCap {
		allowed = cfg.MatchGapCap
	}

	best, bestGap := 0, -1
	for i, c := range candidates {
		gap := c.Rating - anchor.Rating
		if gap < 0 {
			gap = -gap
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	return best, bestGap <= allowed
}

// pair creates the setup-phase session for two claimed players. Color is
// assigned randomly; if either army is missing the claim is released and
// both players return to idle.
func (m *Matchmaker) pair(ctx context.Context, a, b store.Player) error {
	armyA, errA := m.armyFor(ctx, a)
	armyB, errB := m.armyFor(ctx, b)
	if errA != nil || errB != nil {
		log.Warn().Str("player_a", a.ID).Str("player_b", b.ID).Msg("claimed pair missing an army, releasing")
		return m.store.ReleasePlayers(ctx, a.ID, b.ID)
	}

	whiteID, blackID := a.ID, b.ID
	whiteArmy, blackArmy := armyA, armyB
	if rand.Intn(2) == 1 {
		whiteID, blackID = b.ID, a.ID
		whiteArmy, blackArmy = armyB, armyA
	}

	now := time.Now().UTC()
	sess := store.Session{
		ID:            store.NewID(),
		PlayerA:       a.ID,
		PlayerB:       b.ID,
		WhiteID:       whiteID,
		BlackID:       blackID,
		Position:      string(board.Combine(whiteArmy, blackArmy)),
		Status:        store.SessionSetup,
		ASetupPoints:  m.cfg.SetupPoints,
		BSetupPoints:  m.cfg.SetupPoints,
		LastMoveAt:    now,
		ARatingBefore: a.Rating,
		BRatingBefore: b.Rating,
		CreatedAt:     now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		if relErr := m.store.ReleasePlayers(ctx, a.ID, b.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release players after failed session create")
		}
		return err
	}
	if err := m.sched.ScheduleSetupDeadline(ctx, sess.ID, now); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("schedule setup deadline")
	}

	// Matched notifications are private: queue membership is never
	// broadcast.
	for _, pid := range []string{a.ID, b.ID} {
		m.notifier.QueuePlayer(ctx, pid, EventMatched, map[string]any{
			"sessionId":  sess.ID,
			"opponentId": sess.Opponent(pid),
		})
	}
	log.Info().Str("session_id", sess.ID).Str("white_id", whiteID).Str("black_id", blackID).Msg("players paired")
	return nil
}

func (m *Matchmaker) armyFor(ctx context.Context, p store.Player) (board.Position, error) {
	if p.ArmyID == "" {
		return "", store.ErrNotFound
	}
	army, err := m.store.GetArmy(ctx, p.ArmyID)
	if err != nil {
		return "", err
	}
	return board.Position(army.Position), nil
}
