package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const playerColumns = `id, name, api_key_hash, rating, games_played, wins, losses, draws, queue_status, queued_at, army_id, created_at`

func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	if err := row.Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.Rating, &p.GamesPlayed, &p.Wins, &p.Losses, &p.Draws, &p.QueueStatus, &p.QueuedAt, &p.ArmyID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePlayer(ctx context.Context, name, apiKey string, rating int) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO players (id, name, api_key_hash, rating, queue_status) VALUES ($1,$2,$3,$4,'idle')`,
		id, name, HashAPIKey(apiKey), rating)
	return id, err
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*Player, error) {
	return scanPlayer(s.Pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
}

func (s *Store) GetPlayerByAPIKey(ctx context.Context, apiKey string) (*Player, error) {
	return scanPlayer(s.Pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE api_key_hash = $1`, HashAPIKey(apiKey)))
}

// EnqueuePlayer moves an idle player into the queue. Zero rows affected
// means the player was not idle (already queued or mid-session).
func (s *Store) EnqueuePlayer(ctx context.Context, playerID string, at time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET queue_status = 'queued', queued_at = $2 WHERE id = $1 AND queue_status = 'idle'`,
		playerID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DequeuePlayer(ctx context.Context, playerID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET queue_status = 'idle', queued_at = NULL WHERE id = $1 AND queue_status = 'queued'`,
		playerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimQueuedPair marks both players in_session only if both are still
// queued; pairing loses the race to a concurrent dequeue otherwise.
// queued_at is left untouched either way, so a player put back by a
// partial claim keeps the wait time their matchmaker widening is based on.
func (s *Store) ClaimQueuedPair(ctx context.Context, aID, bID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET queue_status = 'in_session' WHERE id = ANY($1) AND queue_status = 'queued'`,
		[]string{aID, bID})
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 2 {
		return true, nil
	}
	// Partial claim: put whoever we grabbed back in the queue.
	if tag.RowsAffected() > 0 {
		_, _ = s.Pool.Exec(ctx, `UPDATE players SET queue_status = 'queued' WHERE id = ANY($1) AND queue_status = 'in_session'`,
			[]string{aID, bID})
	}
	return false, nil
}

func (s *Store) ReleasePlayers(ctx context.Context, ids ...string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE players SET queue_status = 'idle', queued_at = NULL WHERE id = ANY($1)`, ids)
	return err
}

// ListQueuedPlayers returns queued players oldest first.
func (s *Store) ListQueuedPlayers(ctx context.Context) ([]Player, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+playerColumns+` FROM players WHERE queue_status = 'queued' ORDER BY queued_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Player{}
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.Rating, &p.GamesPlayed, &p.Wins, &p.Losses, &p.Draws, &p.QueueStatus, &p.QueuedAt, &p.ArmyID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordResult applies a finalized session to a player's aggregates in one
// write: new rating, games played, and the win/loss/draw tally.
func (s *Store) RecordResult(ctx context.Context, playerID string, newRating, winInc, lossInc, drawInc int) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE players
		SET rating = $2,
		    games_played = games_played + 1,
		    wins = wins + $3,
		    losses = losses + $4,
		    draws = draws + $5,
		    queue_status = 'idle',
		    queued_at = NULL
		WHERE id = $1`,
		playerID, newRating, winInc, lossInc, drawInc)
	return err
}

// ListTopPlayers returns the leaderboard, highest rating first.
func (s *Store) ListTopPlayers(ctx context.Context, limit, offset int) ([]Player, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY rating DESC, games_played DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Player{}
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.Rating, &p.GamesPlayed, &p.Wins, &p.Losses, &p.Draws, &p.QueueStatus, &p.QueuedAt, &p.ArmyID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPlayerArmy points an idle player at a new army. Zero rows means the
// player is queued or mid-session: the player-to-army link is frozen until
// they return to idle, because setup masking rebuilds the original board
// from the armies the session was paired with.
func (s *Store) SetPlayerArmy(ctx context.Context, playerID, armyID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET army_id = $2 WHERE id = $1 AND queue_status = 'idle'`, playerID, armyID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
