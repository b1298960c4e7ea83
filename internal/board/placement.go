package board

// Setup-phase piece costs, classic point values.
var pieceCost = map[byte]int{
	'P': 1,
	'N': 3,
	'B': 3,
	'R': 5,
	'Q': 9,
}

func Cost(piece byte) (int, bool) {
	c, ok := pieceCost[piece]
	return c, ok
}

// ValidatePlacement checks a setup-phase placement and returns a reason
// code, or "" when the placement is allowed. piece is the uppercase type
// letter; sq is the target square.
//
// Rules: cost within the remaining budget, target on the placing side's
// two home ranks (pawns forward rank only, queens on back-rank files c-f),
// target empty, and no battery: a same-file rook pair or a diagonally
// adjacent bishop pair across the two home ranks.
func ValidatePlacement(pos Position, side Color, piece byte, sq int, budget int) string {
	cost, ok := Cost(piece)
	if !ok {
		return "invalid_piece"
	}
	if cost > budget {
		return "insufficient_points"
	}
	if !OnHomeRanks(side, sq) {
		return "square_out_of_zone"
	}
	back, forward := HomeRanks(side)
	if piece == 'P' && RankOf(sq) != forward {
		return "pawn_forward_rank_only"
	}
	if piece == 'Q' && (RankOf(sq) != back || FileOf(sq) < 2 || FileOf(sq) > 5) {
		return "queen_back_rank_center"
	}
	if pos.At(sq) != EmptySquare {
		return "square_occupied"
	}

	next := pos.Set(sq, ForSide(piece, side))
	if hasRookBattery(next, side) {
		return "rook_battery"
	}
	if hasBishopBattery(next, side) {
		return "bishop_battery"
	}
	return ""
}

// hasRookBattery reports a same-file rook pair across the side's two home
// ranks.
func hasRookBattery(pos Position, side Color) bool {
	back, forward := HomeRanks(side)
	rook := ForSide('R', side)
	for file := 0; file < 8; file++ {
		if pos.At(squareAt(back, file)) == rook && pos.At(squareAt(forward, file)) == rook {
			return true
		}
	}
	return false
}

// hasBishopBattery reports a diagonally adjacent bishop pair across the
// side's two home ranks.
func hasBishopBattery(pos Position, side Color) bool {
	back, forward := HomeRanks(side)
	bishop := ForSide('B', side)
	for file := 0; file < 8; file++ {
		if pos.At(squareAt(back, file)) != bishop {
			continue
		}
		for _, adj := range []int{file - 1, file + 1} {
			if adj < 0 || adj > 7 {
				continue
			}
			if pos.At(squareAt(forward, adj)) == bishop {
				return true
			}
		}
	}
	return false
}

func squareAt(rank, file int) int {
	return (8-rank)*8 + file
}
