package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, player_a, player_b, white_id, black_id, position, status,
	a_ready, b_ready, a_setup_points, b_setup_points,
	a_bank_ms, b_bank_ms, last_move_at, move_count,
	a_rating_before, b_rating_before,
	winner_id, end_reason, a_rating_after, b_rating_after, rating_delta, ended_at,
	created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.PlayerA, &sess.PlayerB, &sess.WhiteID, &sess.BlackID, &sess.Position, &sess.Status,
		&sess.AReady, &sess.BReady, &sess.ASetupPoints, &sess.BSetupPoints,
		&sess.ABankMS, &sess.BBankMS, &sess.LastMoveAt, &sess.MoveCount,
		&sess.ARatingBefore, &sess.BRatingBefore,
		&sess.WinnerID, &sess.EndReason, &sess.ARatingAfter, &sess.BRatingAfter, &sess.RatingDelta, &sess.EndedAt,
		&sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO sessions (id, player_a, player_b, white_id, black_id, position, status,
			a_setup_points, b_setup_points, a_bank_ms, b_bank_ms, last_move_at, move_count,
			a_rating_before, b_rating_before)
		VALUES ($1,$2,$3,$4,$5,$6,'setup',$7,$8,$9,$10,$11,0,$12,$13)`,
		sess.ID, sess.PlayerA, sess.PlayerB, sess.WhiteID, sess.BlackID, sess.Position,
		sess.ASetupPoints, sess.BSetupPoints, sess.ABankMS, sess.BBankMS, sess.LastMoveAt,
		sess.ARatingBefore, sess.BRatingBefore)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	return scanSession(s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// GetActiveSessionForPlayer returns the player's setup or live session, if any.
func (s *Store) GetActiveSessionForPlayer(ctx context.Context, playerID string) (*Session, error) {
	return scanSession(s.Pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status IN ('setup','live') AND (player_a = $1 OR player_b = $1)
		ORDER BY created_at DESC LIMIT 1`, playerID))
}

func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]Session, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE status = $1 ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// ApplyPlacement persists a setup-phase placement: new position plus the
// decremented budget for one slot. Guarded on status and on the position
// the placement was computed from: both sides draft concurrently, and the
// position guard serializes their writes the way move_count serializes
// moves. The loser affects zero rows and must recompute from a fresh read.
func (s *Store) ApplyPlacement(ctx context.Context, sessionID, playerID, prevPosition, position string, pointsLeft int) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET position = $4,
		    a_setup_points = CASE WHEN player_a = $2 THEN $5 ELSE a_setup_points END,
		    b_setup_points = CASE WHEN player_b = $2 THEN $5 ELSE b_setup_points END
		WHERE id = $1 AND status = 'setup' AND position = $3 AND (player_a = $2 OR player_b = $2)`,
		sessionID, playerID, prevPosition, position, pointsLeft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkReady flips one participant's ready flag; a second mark for the same
// participant affects zero rows.
func (s *Store) MarkReady(ctx context.Context, sessionID, playerID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET a_ready = CASE WHEN player_a = $2 THEN TRUE ELSE a_ready END,
		    b_ready = CASE WHEN player_b = $2 THEN TRUE ELSE b_ready END
		WHERE id = $1 AND status = 'setup'
		  AND ((player_a = $2 AND a_ready = FALSE) OR (player_b = $2 AND b_ready = FALSE))`,
		sessionID, playerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// PromoteToLive performs the guarded setup -> live transition, resetting
// both time banks and stamping the move clock. Exactly one caller wins,
// whether it is the both-ready path or the setup-deadline job.
func (s *Store) PromoteToLive(ctx context.Context, sessionID string, bankMS int64, at time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'live', a_bank_ms = $2, b_bank_ms = $2, last_move_at = $3
		WHERE id = $1 AND status = 'setup'`,
		sessionID, bankMS, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyMove persists an accepted move. The move_count guard serializes
// concurrent submissions for the same turn: the loser affects zero rows.
func (s *Store) ApplyMove(ctx context.Context, sessionID, position string, prevMoveCount int, moverIsA bool, newBankMS int64, at time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET position = $2,
		    move_count = move_count + 1,
		    last_move_at = $3,
		    a_bank_ms = CASE WHEN $5 THEN $4 ELSE a_bank_ms END,
		    b_bank_ms = CASE WHEN $5 THEN b_bank_ms ELSE $4 END
		WHERE id = $1 AND status = 'live' AND move_count = $6`,
		sessionID, position, at, newBankMS, moverIsA, prevMoveCount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TerminalFields is everything written at finalization. All-or-nothing:
// a session either has none of these set or all of them.
type TerminalFields struct {
	WinnerID     string // empty means draw
	EndReason    string
	ARatingAfter int
	BRatingAfter int
	RatingDelta  int
	EndedAt      time.Time
}

// FinalizeSession is the only transition into the terminal status. The
// status guard makes concurrent finalize attempts harmless: exactly one
// affects a row, the rest see false and must treat it as success-no-op.
func (s *Store) FinalizeSession(ctx context.Context, sessionID string, t TerminalFields) (bool, error) {
	var winner any
	if t.WinnerID != "" {
		winner = t.WinnerID
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'finished',
		    winner_id = $2, end_reason = $3,
		    a_rating_after = $4, b_rating_after = $5, rating_delta = $6,
		    ended_at = $7
		WHERE id = $1 AND status = 'live'`,
		sessionID, winner, t.EndReason, t.ARatingAfter, t.BRatingAfter, t.RatingDelta, t.EndedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
