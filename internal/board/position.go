package board

import (
	"errors"
	"strings"
)

// Position is a 64-byte board encoding, rank 8 through rank 1, file a
// through h. '.' is an empty square; uppercase pieces are white, lowercase
// black.
type Position string

const EmptySquare = byte('.')

var EmptyPosition = Position(strings.Repeat(".", 64))

var ErrBadSquare = errors.New("bad square")

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// ParseSquare converts algebraic notation ("e2") to a board index.
func ParseSquare(s string) (int, error) {
	if len(s) != 2 {
		return 0, ErrBadSquare
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, ErrBadSquare
	}
	return (7-rank)*8 + file, nil
}

func SquareName(sq int) string {
	return string([]byte{byte('a' + FileOf(sq)), byte('0' + RankOf(sq))})
}

// FileOf returns the 0-based file (a=0).
func FileOf(sq int) int { return sq % 8 }

// RankOf returns the 1-based rank.
func RankOf(sq int) int { return 8 - sq/8 }

func (p Position) Valid() bool { return len(p) == 64 }

func (p Position) At(sq int) byte { return p[sq] }

func (p Position) Set(sq int, piece byte) Position {
	b := []byte(p)
	b[sq] = piece
	return Position(b)
}

func IsWhitePiece(b byte) bool { return b >= 'A' && b <= 'Z' }
func IsBlackPiece(b byte) bool { return b >= 'a' && b <= 'z' }

func PieceColor(b byte) (Color, bool) {
	switch {
	case IsWhitePiece(b):
		return White, true
	case IsBlackPiece(b):
		return Black, true
	default:
		return White, false
	}
}

// ForSide converts an uppercase piece letter to the side's case.
func ForSide(piece byte, c Color) byte {
	if c == White {
		return piece
	}
	return piece + ('a' - 'A')
}

// HomeRanks returns the side's two home ranks, back rank first.
func HomeRanks(c Color) (int, int) {
	if c == White {
		return 1, 2
	}
	return 8, 7
}

func OnHomeRanks(c Color, sq int) bool {
	back, forward := HomeRanks(c)
	r := RankOf(sq)
	return r == back || r == forward
}

// Combine mirrors each side's army onto its own two ranks. Armies are
// stored in white orientation (pieces on ranks 1-2); the black army maps
// rank r to rank 9-r, same file, lowercased.
func Combine(whiteArmy, blackArmy Position) Position {
	out := []byte(EmptyPosition)
	for sq := 0; sq < 64; sq++ {
		r := RankOf(sq)
		if r != 1 && r != 2 {
			continue
		}
		if w := whiteArmy.At(sq); w != EmptySquare {
			out[sq] = w
		}
		if b := blackArmy.At(sq); b != EmptySquare {
			mirroredSq := (8-(9-r))*8 + FileOf(sq) // rank r maps to rank 9-r
			out[mirroredSq] = ForSide(b, Black)
		}
	}
	return Position(out)
}
