package board

// Outcome classifies what a move did to the game.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCheckmate
	OutcomeDraw
)

// MoveJudge validates and applies a move, returning the resulting
// position and outcome, or a rejection reason. Full variant legality is
// the judge's problem; the coordinator only routes the result.
type MoveJudge interface {
	Apply(pos Position, side Color, from, to int) (Position, Outcome, string)
}

// CaptureJudge is a deliberately thin judge: it enforces ownership and
// basic board constraints and reports king capture as checkmate. Variant
// rule sets plug in as richer MoveJudge implementations.
type CaptureJudge struct{}

func (CaptureJudge) Apply(pos Position, side Color, from, to int) (Position, Outcome, string) {
	if from < 0 || from > 63 || to < 0 || to > 63 || from == to {
		return pos, OutcomeNone, "bad_square"
	}
	piece := pos.At(from)
	c, ok := PieceColor(piece)
	if !ok {
		return pos, OutcomeNone, "no_piece"
	}
	if c != side {
		return pos, OutcomeNone, "not_your_piece"
	}
	target := pos.At(to)
	if tc, occupied := PieceColor(target); occupied && tc == side {
		return pos, OutcomeNone, "own_piece"
	}

	next := pos.Set(from, EmptySquare).Set(to, piece)
	if target == ForSide('K', side.Other()) {
		return next, OutcomeCheckmate, ""
	}
	if onlyKings(next) {
		return next, OutcomeDraw, ""
	}
	return next, OutcomeNone, ""
}

func onlyKings(pos Position) bool {
	for sq := 0; sq < 64; sq++ {
		switch pos.At(sq) {
		case EmptySquare, 'K', 'k':
		default:
			return false
		}
	}
	return true
}
