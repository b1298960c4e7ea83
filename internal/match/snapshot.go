package match

import (
	"context"
	"fmt"
	"time"

	"github.com/KingVladAtheris/draftchess/internal/board"
	"github.com/KingVladAtheris/draftchess/internal/store"
)

// View is one participant's projection of a session. During setup the
// position is masked and the budget shown is the viewer's own; once live
// the full position is visible to both sides.
type View struct {
	SessionID  string    `json:"sessionId"`
	Status     string    `json:"status"`
	Position   string    `json:"position"`
	WhiteID    string    `json:"whiteId"`
	BlackID    string    `json:"blackId"`
	YourColor  string    `json:"yourColor"`
	MoveCount  int       `json:"moveCount"`
	ToMove     string    `json:"toMove,omitempty"`
	LastMoveAt time.Time `json:"lastMoveAt"`

	SetupPointsLeft int  `json:"setupPointsLeft"`
	YouReady        bool `json:"youReady"`
	OpponentReady   bool `json:"opponentReady"`

	WhiteBankMS int64 `json:"whiteBankMs"`
	BlackBankMS int64 `json:"blackBankMs"`

	WinnerID    string `json:"winnerId,omitempty"`
	EndReason   string `json:"endReason,omitempty"`
	RatingDelta int    `json:"ratingDelta,omitempty"`
}

func sideOf(sess *store.Session, playerID string) board.Color {
	if playerID == sess.WhiteID {
		return board.White
	}
	return board.Black
}

func setupPointsFor(sess *store.Session, playerID string) int {
	if playerID == sess.PlayerA {
		return sess.ASetupPoints
	}
	return sess.BSetupPoints
}

func readyFor(sess *store.Session, playerID string) bool {
	if playerID == sess.PlayerA {
		return sess.AReady
	}
	return sess.BReady
}

// Snapshots builds per-viewer session views, used by the reconnect push
// and the read endpoint.
type Snapshots struct {
	store *store.Store
}

func NewSnapshots(st *store.Store) *Snapshots {
	return &Snapshots{store: st}
}

func (s *Snapshots) ViewFor(ctx context.Context, sess *store.Session, viewerID string) (*View, error) {
	if !sess.IsParticipant(viewerID) {
		return nil, reject(ReasonNotParticipant)
	}
	pos := board.Position(sess.Position)
	if sess.Status == store.SessionSetup {
		original, err := originalPosition(ctx, s.store, sess)
		if err != nil {
			return nil, err
		}
		pos = board.MaskFor(pos, original, sideOf(sess, viewerID))
	}
	v := &View{
		SessionID:  sess.ID,
		Status:     sess.Status,
		Position:   string(pos),
		WhiteID:    sess.WhiteID,
		BlackID:    sess.BlackID,
		YourColor:  sideOf(sess, viewerID).String(),
		MoveCount:  sess.MoveCount,
		LastMoveAt: sess.LastMoveAt,

		SetupPointsLeft: setupPointsFor(sess, viewerID),
		YouReady:        readyFor(sess, viewerID),
		OpponentReady:   readyFor(sess, sess.Opponent(viewerID)),
	}
	if sess.WhiteID == sess.PlayerA {
		v.WhiteBankMS, v.BlackBankMS = sess.ABankMS, sess.BBankMS
	} else {
		v.WhiteBankMS, v.BlackBankMS = sess.BBankMS, sess.ABankMS
	}
	switch sess.Status {
	case store.SessionLive:
		v.ToMove = sess.ToMove()
	case store.SessionFinished:
		if sess.WinnerID != nil {
			v.WinnerID = *sess.WinnerID
		}
		if sess.EndReason != nil {
			v.EndReason = *sess.EndReason
		}
		if sess.RatingDelta != nil {
			v.RatingDelta = *sess.RatingDelta
		}
	}
	return v, nil
}

// originalPosition recomputes the pre-setup board from the two armies the
// session was created with. The armies are immutable once referenced, so
// this is stable for the session's lifetime.
func originalPosition(ctx context.Context, st *store.Store, sess *store.Session) (board.Position, error) {
	white, err := armyPosition(ctx, st, sess.WhiteID)
	if err != nil {
		return "", err
	}
	black, err := armyPosition(ctx, st, sess.BlackID)
	if err != nil {
		return "", err
	}
	return board.Combine(white, black), nil
}

func armyPosition(ctx context.Context, st *store.Store, playerID string) (board.Position, error) {
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("load player %s: %w", playerID, err)
	}
	army, err := st.GetArmy(ctx, player.ArmyID)
	if err != nil {
		return "", fmt.Errorf("load army for %s: %w", playerID, err)
	}
	return board.Position(army.Position), nil
}
