package bus

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const presencePrefix = "presence:disconnected:"

// MarkerKey names the ephemeral disconnect marker for one player in one
// session.
func MarkerKey(playerID, sessionID string) string {
	return presencePrefix + playerID + ":" + sessionID
}

// ParseMarkerKey extracts the player and session from a marker key.
func ParseMarkerKey(key string) (playerID, sessionID string, ok bool) {
	rest, found := strings.CutPrefix(key, presencePrefix)
	if !found {
		return "", "", false
	}
	playerID, sessionID, ok = strings.Cut(rest, ":")
	if playerID == "" || sessionID == "" {
		return "", "", false
	}
	return playerID, sessionID, ok
}

// Markers manages presence markers: keys with a TTL equal to the
// disconnect grace period, whose natural expiry is the forfeiture signal.
type Markers struct {
	rdb *redis.Client
}

func (m *Markers) Set(ctx context.Context, playerID, sessionID string, ttl time.Duration) error {
	return m.rdb.SetEx(ctx, MarkerKey(playerID, sessionID), "1", ttl).Err()
}

// Clear deletes the marker; deleting an absent marker is a no-op.
func (m *Markers) Clear(ctx context.Context, playerID, sessionID string) error {
	return m.rdb.Del(ctx, MarkerKey(playerID, sessionID)).Err()
}

func (m *Markers) Exists(ctx context.Context, playerID, sessionID string) (bool, error) {
	n, err := m.rdb.Exists(ctx, MarkerKey(playerID, sessionID)).Result()
	return n > 0, err
}

// EnableExpiryNotifications turns on keyspace expiry events. Best effort:
// managed Redis may refuse CONFIG SET, in which case the operator must
// enable notify-keyspace-events out of band.
func (m *Markers) EnableExpiryNotifications(ctx context.Context) {
	if err := m.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("could not enable keyspace expiry notifications")
	}
}

// WatchExpired streams (playerID, sessionID) pairs for every presence
// marker that expired without being cleared.
func (m *Markers) WatchExpired(ctx context.Context) <-chan [2]string {
	sub := m.rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	out := make(chan [2]string, 16)
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
				playerID, sessionID, ok := ParseMarkerKey(msg.Payload)
				if !ok {
					continue
				}
				select {
				case out <- [2]string{playerID, sessionID}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
