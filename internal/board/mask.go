package board

// MaskFor renders the position as the given viewer may see it during the
// setup phase. Masking is asymmetric and stateful: on the opponent's home
// ranks, any square that is occupied now but was empty in the original
// pre-setup position is hidden. The viewer always sees their own
// placements and the opponent's original army.
func MaskFor(current, original Position, viewer Color) Position {
	opp := viewer.Other()
	out := []byte(current)
	for sq := 0; sq < 64; sq++ {
		if !OnHomeRanks(opp, sq) {
			continue
		}
		if current.At(sq) != EmptySquare && original.At(sq) == EmptySquare {
			out[sq] = EmptySquare
		}
	}
	return Position(out)
}
