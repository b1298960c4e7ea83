package match

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/bus"
)

// Server -> client events carried over the fan-out channel.
const (
	EventMatched              = "matched"
	EventSessionUpdate        = "session-update"
	EventSessionSnapshot      = "session-snapshot"
	EventOpponentDisconnected = "opponent-disconnected"
	EventOpponentConnected    = "opponent-connected"
)

// Notifier delivers state-change notifications. It is injected into every
// component that needs to notify; nothing reaches for ambient globals.
// Delivery is fire-and-forget: a failed notification must never block or
// fail the store mutation it follows.
type Notifier interface {
	Session(ctx context.Context, sessionID, event string, payload any)
	SessionPlayer(ctx context.Context, sessionID, playerID, event string, payload any)
	QueuePlayer(ctx context.Context, playerID, event string, payload any)
}

// BusNotifier publishes envelopes on the coordination bus. When the bus
// is unavailable and a local fallback is configured (the in-process
// connection hub), essential notifications are delivered directly instead
// of being dropped.
type BusNotifier struct {
	bus   *bus.Bus
	local func(bus.Envelope)
}

func NewBusNotifier(b *bus.Bus, local func(bus.Envelope)) *BusNotifier {
	return &BusNotifier{bus: b, local: local}
}

func (n *BusNotifier) publish(ctx context.Context, env bus.Envelope) {
	if err := n.bus.Publish(ctx, env); err != nil {
		log.Error().Err(err).Str("event", env.Event).Str("session_id", env.SessionID).Msg("bus publish failed")
		if n.local != nil {
			n.local(env)
		}
	}
}

func (n *BusNotifier) Session(ctx context.Context, sessionID, event string, payload any) {
	n.publish(ctx, bus.Envelope{Type: "session", SessionID: sessionID, Event: event, Payload: payload})
}

func (n *BusNotifier) SessionPlayer(ctx context.Context, sessionID, playerID, event string, payload any) {
	n.publish(ctx, bus.Envelope{Type: "session-player", SessionID: sessionID, PlayerID: playerID, Event: event, Payload: payload})
}

func (n *BusNotifier) QueuePlayer(ctx context.Context, playerID, event string, payload any) {
	n.publish(ctx, bus.Envelope{Type: "queue-player", PlayerID: playerID, Event: event, Payload: payload})
}
