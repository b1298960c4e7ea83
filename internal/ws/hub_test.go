package ws

import (
	"testing"

	"github.com/KingVladAtheris/draftchess/internal/bus"
)

func testClient(playerID, sessionID string) *Client {
	return &Client{send: make(chan []byte, 4), playerID: playerID, session: sessionID}
}

func received(c *Client) bool {
	select {
	case <-c.send:
		return true
	default:
		return false
	}
}

func TestHubDeliversPlayerEnvelopes(t *testing.T) {
	h := NewHub()
	alice := testClient("alice", "")
	bob := testClient("bob", "")
	h.add(alice)
	h.add(bob)

	h.Deliver(bus.Envelope{Type: "queue-player", PlayerID: "alice", Event: "matched"})
	if !received(alice) {
		t.Fatalf("addressed player must receive the envelope")
	}
	if received(bob) {
		t.Fatalf("other players must not receive a private envelope")
	}
}

func TestHubDeliversSessionBroadcastsToJoined(t *testing.T) {
	h := NewHub()
	joined := testClient("alice", "s1")
	elsewhere := testClient("bob", "s2")
	detached := testClient("carol", "")
	for _, c := range []*Client{joined, elsewhere, detached} {
		h.add(c)
	}

	h.Deliver(bus.Envelope{Type: "session", SessionID: "s1", Event: "session-update"})
	if !received(joined) {
		t.Fatalf("clients joined to the session must receive broadcasts")
	}
	if received(elsewhere) || received(detached) {
		t.Fatalf("broadcasts must not leak outside the session")
	}
}

func TestHubFanOutToAllPlayerConnections(t *testing.T) {
	h := NewHub()
	first := testClient("alice", "")
	second := testClient("alice", "")
	h.add(first)
	h.add(second)

	h.Deliver(bus.Envelope{Type: "session-player", SessionID: "s1", PlayerID: "alice", Event: "opponent-connected"})
	if !received(first) || !received(second) {
		t.Fatalf("every connection of the player must receive the envelope")
	}
}

func TestHubRemoveReportsLastConnection(t *testing.T) {
	h := NewHub()
	first := testClient("alice", "")
	second := testClient("alice", "")
	h.add(first)
	h.add(second)

	if h.remove(first) {
		t.Fatalf("removing one of two connections is not the last")
	}
	if !h.remove(second) {
		t.Fatalf("removing the final connection must report last")
	}
}
