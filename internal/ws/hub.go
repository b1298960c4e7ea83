package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
)

// Hub tracks this process's live connections by player. A player may hold
// several connections (tabs, reconnect overlap); events go to all of them,
// and presence only considers a player gone when the last one drops.
type Hub struct {
	mu       sync.Mutex
	byPlayer map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{byPlayer: map[string]map[*Client]bool{}}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.byPlayer[c.playerID]
	if conns == nil {
		conns = map[*Client]bool{}
		h.byPlayer[c.playerID] = conns
	}
	conns[c] = true
}

// remove drops the connection and reports whether it was the player's
// last.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.byPlayer[c.playerID]
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.byPlayer, c.playerID)
		return true
	}
	return false
}

// Deliver routes a fan-out envelope to the local connections it concerns.
// Session broadcasts reach connections that joined the session; player
// addressed envelopes reach that player's connections only.
func (h *Hub) Deliver(env bus.Envelope) {
	msg, err := json.Marshal(ServerEvent{Type: env.Event, SessionID: env.SessionID, Payload: env.Payload})
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("encode server event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch env.Type {
	case "session":
		for _, conns := range h.byPlayer {
			for c := range conns {
				if c.sessionID() == env.SessionID {
					c.trySend(msg)
				}
			}
		}
	case "session-player", "queue-player":
		for c := range h.byPlayer[env.PlayerID] {
			c.trySend(msg)
		}
	}
}
