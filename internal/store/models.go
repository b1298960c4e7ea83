package store

import "time"

const (
	QueueIdle      = "idle"
	QueueQueued    = "queued"
	QueueInSession = "in_session"

	SessionSetup    = "setup"
	SessionLive     = "live"
	SessionFinished = "finished"
)

type Player struct {
	ID          string
	Name        string
	APIKeyHash  string
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
	QueueStatus string
	QueuedAt    *time.Time
	ArmyID      string
	CreatedAt   time.Time
}

// Army is a player's pre-session piece configuration. It is never mutated
// once a session references it; setup-phase additions live on the session
// position only.
type Army struct {
	ID         string
	OwnerID    string
	Position   string
	PointsUsed int
	CreatedAt  time.Time
}

type Session struct {
	ID       string
	PlayerA  string
	PlayerB  string
	WhiteID  string
	BlackID  string
	Position string
	Status   string

	AReady       bool
	BReady       bool
	ASetupPoints int
	BSetupPoints int

	ABankMS    int64
	BBankMS    int64
	LastMoveAt time.Time
	MoveCount  int

	ARatingBefore int
	BRatingBefore int

	WinnerID     *string
	EndReason    *string
	ARatingAfter *int
	BRatingAfter *int
	RatingDelta  *int
	EndedAt      *time.Time

	CreatedAt time.Time
}

// IsParticipant reports whether playerID occupies one of the two slots.
func (s *Session) IsParticipant(playerID string) bool {
	return playerID == s.PlayerA || playerID == s.PlayerB
}

// Opponent returns the other participant's id.
func (s *Session) Opponent(playerID string) string {
	if playerID == s.PlayerA {
		return s.PlayerB
	}
	return s.PlayerA
}

// ToMove derives whose turn it is from the stored color assignment and the
// move counter. White moves on even counts.
func (s *Session) ToMove() string {
	if s.MoveCount%2 == 0 {
		return s.WhiteID
	}
	return s.BlackID
}

// BankFor returns the remaining time bank for the given participant.
func (s *Session) BankFor(playerID string) int64 {
	if playerID == s.PlayerA {
		return s.ABankMS
	}
	return s.BBankMS
}
