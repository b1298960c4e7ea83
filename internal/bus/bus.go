package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const eventChannel = "draftchess:events"

// Envelope is the cross-process fan-out message. Type selects the
// audience: a whole session, one participant of a session, or a queued
// player outside any session.
type Envelope struct {
	Type      string `json:"type"` // "session" | "session-player" | "queue-player"
	SessionID string `json:"sessionId,omitempty"`
	PlayerID  string `json:"playerId,omitempty"`
	Event     string `json:"event"`
	Payload   any    `json:"payload,omitempty"`
}

// Bus wraps the shared Redis instance: pub/sub fan-out, the delayed-job
// queue, and presence markers all ride on the same client.
type Bus struct {
	rdb     *redis.Client
	Jobs    *Jobs
	Markers *Markers
}

func New(addr string) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Bus{
		rdb:     rdb,
		Jobs:    &Jobs{rdb: rdb},
		Markers: &Markers{rdb: rdb},
	}, nil
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, eventChannel, raw).Err()
}

// Subscribe streams every envelope published on the shared channel until
// ctx is cancelled. Undecodable messages are logged and skipped.
func (b *Bus) Subscribe(ctx context.Context) <-chan Envelope {
	sub := b.rdb.Subscribe(ctx, eventChannel)
	out := make(chan Envelope, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Warn().Err(err).Msg("drop undecodable bus message")
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
