package ws

type AuthMessage struct {
	Type   string `json:"type"`
	APIKey string `json:"api_key"`
}

type JoinSessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type Result struct {
	Type  string `json:"type"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ServerEvent wraps a fan-out envelope for the wire.
type ServerEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}
