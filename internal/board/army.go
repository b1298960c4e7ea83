package board

// ValidateArmy checks a stored army definition: white-orientation pieces
// on ranks 1-2 only, pawns on rank 2, exactly one king. Returns the
// army's point cost and an empty reason on success.
func ValidateArmy(pos Position) (int, string) {
	if !pos.Valid() {
		return 0, "invalid_position"
	}
	points := 0
	kings := 0
	for sq := 0; sq < 64; sq++ {
		b := pos.At(sq)
		if b == EmptySquare {
			continue
		}
		if !IsWhitePiece(b) {
			return 0, "invalid_piece"
		}
		if !OnHomeRanks(White, sq) {
			return 0, "square_out_of_zone"
		}
		if b == 'K' {
			kings++
			continue
		}
		cost, ok := Cost(b)
		if !ok {
			return 0, "invalid_piece"
		}
		if b == 'P' && RankOf(sq) != 2 {
			return 0, "pawn_forward_rank_only"
		}
		points += cost
	}
	if kings != 1 {
		return 0, "king_required"
	}
	return points, ""
}
