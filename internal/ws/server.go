package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/KingVladAtheris/draftchess/internal/match"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string

	mu      sync.Mutex
	session string
}

func (c *Client) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(id string) {
	c.mu.Lock()
	c.session = id
	c.mu.Unlock()
}

func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
		// Slow consumer; drop rather than block the hub.
	}
}

// Server owns the websocket endpoint. Connections authenticate with an
// API key, then signal queue membership and session attachment; all game
// actions themselves go over the HTTP API.
type Server struct {
	store      *store.Store
	hub        *Hub
	presence   *match.Presence
	matchmaker *match.Matchmaker
	upgrader   websocket.Upgrader
}

func NewServer(st *store.Store, hub *Hub, presence *match.Presence, mm *match.Matchmaker) *Server {
	return &Server{
		store:      st,
		hub:        hub,
		presence:   presence,
		matchmaker: mm,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client, ok := s.authenticate(r.Context(), conn)
	if !ok {
		_ = conn.Close()
		return
	}
	s.hub.add(client)

	go s.writeLoop(client)
	s.readLoop(client)
}

// authenticate requires the first frame to be an auth message carrying a
// valid API key.
func (s *Server) authenticate(ctx context.Context, conn *websocket.Conn) (*Client, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	_ = conn.SetReadDeadline(time.Time{})

	var auth AuthMessage
	if err := json.Unmarshal(msg, &auth); err != nil || auth.Type != "auth" {
		s.writeResult(conn, "auth_result", false, "auth_required")
		return nil, false
	}
	player, err := s.store.GetPlayerByAPIKey(ctx, auth.APIKey)
	if err != nil {
		s.writeResult(conn, "auth_result", false, "invalid_api_key")
		return nil, false
	}

	client := &Client{conn: conn, send: make(chan []byte, 16), playerID: player.ID}
	s.writeResult(conn, "auth_result", true, "")
	return client, true
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		if last := s.hub.remove(c); last {
			s.presence.OnDisconnect(context.Background(), c.playerID)
		}
		close(c.send)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		ctx := context.Background()
		switch base.Type {
		case "join-queue":
			s.handleJoinQueue(ctx, c)
		case "leave-queue":
			s.handleLeaveQueue(ctx, c)
		case "join-session":
			var join JoinSessionMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				continue
			}
			s.handleJoinSession(ctx, c, join.SessionID)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) handleJoinQueue(ctx context.Context, c *Client) {
	player, err := s.store.GetPlayer(ctx, c.playerID)
	if err != nil {
		s.sendResult(c, "queue_result", false, "player_not_found")
		return
	}
	if player.ArmyID == "" {
		s.sendResult(c, "queue_result", false, "no_army")
		return
	}
	ok, err := s.store.EnqueuePlayer(ctx, c.playerID, time.Now().UTC())
	if err != nil {
		s.sendResult(c, "queue_result", false, "internal_error")
		return
	}
	if !ok {
		s.sendResult(c, "queue_result", false, "not_idle")
		return
	}
	s.sendResult(c, "queue_result", true, "")
	if err := s.matchmaker.TryMatch(ctx); err != nil {
		log.Error().Err(err).Msg("matchmaking pass after enqueue")
	}
}

func (s *Server) handleLeaveQueue(ctx context.Context, c *Client) {
	ok, err := s.store.DequeuePlayer(ctx, c.playerID)
	if err != nil {
		s.sendResult(c, "queue_result", false, "internal_error")
		return
	}
	if !ok {
		s.sendResult(c, "queue_result", false, "not_queued")
		return
	}
	s.sendResult(c, "queue_result", true, "")
}

func (s *Server) handleJoinSession(ctx context.Context, c *Client, sessionID string) {
	view, err := s.presence.OnJoin(ctx, sessionID, c.playerID)
	if err != nil {
		code, ok := match.RejectCode(err)
		if !ok {
			code = "session_not_found"
		}
		s.sendResult(c, "join_result", false, code)
		return
	}
	c.setSession(sessionID)
	msg, err := json.Marshal(ServerEvent{Type: match.EventSessionSnapshot, SessionID: sessionID, Payload: view})
	if err != nil {
		log.Error().Err(err).Msg("encode snapshot")
		return
	}
	c.trySend(msg)
}

func (s *Server) sendResult(c *Client, typ string, ok bool, errCode string) {
	msg, _ := json.Marshal(Result{Type: typ, Ok: ok, Error: errCode})
	c.trySend(msg)
}

func (s *Server) writeResult(conn *websocket.Conn, typ string, ok bool, errCode string) {
	msg, _ := json.Marshal(Result{Type: typ, Ok: ok, Error: errCode})
	_ = conn.WriteMessage(websocket.TextMessage, msg)
}
