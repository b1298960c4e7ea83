package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateArmy(ctx context.Context, ownerID, position string, pointsUsed int) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO armies (id, owner_id, position, points_used) VALUES ($1,$2,$3,$4)`,
		id, ownerID, position, pointsUsed)
	return id, err
}

func (s *Store) GetArmy(ctx context.Context, id string) (*Army, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, owner_id, position, points_used, created_at FROM armies WHERE id = $1`, id)
	var a Army
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Position, &a.PointsUsed, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
