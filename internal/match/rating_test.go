package match

import "testing"

func TestExpectedScore(t *testing.T) {
	if got := ExpectedScore(1200, 1200); got != 0.5 {
		t.Fatalf("equal ratings must expect 0.5, got %v", got)
	}
	under := ExpectedScore(1200, 1600)
	if under >= 0.5 {
		t.Fatalf("underdog expectation must be below 0.5, got %v", under)
	}
	favorite := ExpectedScore(1600, 1200)
	if sum := under + favorite; sum < 0.999 || sum > 1.001 {
		t.Fatalf("expectations must sum to 1, got %v", sum)
	}
}

func TestKFactorTiers(t *testing.T) {
	cases := []struct {
		games int
		want  int
	}{
		{0, 40}, {9, 40}, {10, 24}, {29, 24}, {30, 16}, {500, 16},
	}
	for _, tc := range cases {
		if got := KFactor(tc.games); got != tc.want {
			t.Fatalf("KFactor(%d) = %d, want %d", tc.games, got, tc.want)
		}
	}
}

func TestRatingDelta(t *testing.T) {
	// Equal established players, A wins: half the K either way.
	if got := RatingDelta(1200, 1200, 50, 50, 1); got != 8 {
		t.Fatalf("established equal win: got %d want 8", got)
	}
	// New players move more.
	if got := RatingDelta(1200, 1200, 0, 0, 1); got != 20 {
		t.Fatalf("new players equal win: got %d want 20", got)
	}
	// Draw at equal ratings moves nothing.
	if got := RatingDelta(1200, 1200, 0, 0, 0.5); got != 0 {
		t.Fatalf("equal draw: got %d want 0", got)
	}
	// An underdog win moves more than a favorite win.
	upset := RatingDelta(1200, 1600, 0, 0, 1)
	expected := RatingDelta(1600, 1200, 0, 0, 1)
	if upset <= expected {
		t.Fatalf("upset %d must exceed expected win %d", upset, expected)
	}
	// A loss moves the loser down: negative delta for A.
	if got := RatingDelta(1200, 1200, 0, 0, 0); got != -20 {
		t.Fatalf("equal loss: got %d want -20", got)
	}
	// The draw against a stronger opponent still gains a little.
	if got := RatingDelta(1200, 1600, 0, 0, 0.5); got <= 0 {
		t.Fatalf("underdog draw must gain, got %d", got)
	}
}
