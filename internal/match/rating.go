package match

import "math"

// ExpectedScore is the standard expected-score formula against an
// opponent's rating.
func ExpectedScore(mine, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-mine)/400))
}

// KFactor shrinks as a player accumulates games, so new players converge
// quickly and established ratings stay stable.
func KFactor(gamesPlayed int) int {
	switch {
	case gamesPlayed < 10:
		return 40
	case gamesPlayed < 30:
		return 24
	default:
		return 16
	}
}

// RatingDelta returns the movement applied +delta to player A and -delta
// to player B, so the pair is zero-sum by construction. The K factor is
// averaged over both players: a pairing involving a newer player moves
// more. scoreA is 1 for an A win, 0 for a loss, 0.5 for a draw. Ratings
// must be the pre-session snapshots, never live values.
func RatingDelta(ratingA, ratingB, gamesA, gamesB int, scoreA float64) int {
	k := float64(KFactor(gamesA)+KFactor(gamesB)) / 2
	return int(math.Round(k * (scoreA - ExpectedScore(ratingA, ratingB))))
}
