package board

import "testing"

func TestCaptureJudgeRejections(t *testing.T) {
	pos := place(t, EmptyPosition, "e1", 'K')
	pos = place(t, pos, "e2", 'P')
	pos = place(t, pos, "e7", 'p')
	judge := CaptureJudge{}

	cases := []struct {
		name     string
		from, to string
		side     Color
		want     string
	}{
		{"empty origin", "a4", "a5", White, "no_piece"},
		{"opponent piece", "e7", "e6", White, "not_your_piece"},
		{"own piece on target", "e1", "e2", White, "own_piece"},
	}
	for _, tc := range cases {
		_, _, reason := judge.Apply(pos, tc.side, sq(t, tc.from), sq(t, tc.to))
		if reason != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, reason, tc.want)
		}
	}
	if _, _, reason := judge.Apply(pos, White, 12, 12); reason != "bad_square" {
		t.Fatalf("from == to: got %q", reason)
	}
}

func TestCaptureJudgeAppliesMove(t *testing.T) {
	pos := place(t, EmptyPosition, "e2", 'P')
	pos = place(t, pos, "e8", 'k')
	pos = place(t, pos, "e1", 'K')

	next, outcome, reason := CaptureJudge{}.Apply(pos, White, sq(t, "e2"), sq(t, "e3"))
	if reason != "" || outcome != OutcomeNone {
		t.Fatalf("plain move: reason %q outcome %v", reason, outcome)
	}
	if next.At(sq(t, "e2")) != EmptySquare || next.At(sq(t, "e3")) != 'P' {
		t.Fatalf("move not applied: %q", next)
	}
}

func TestCaptureJudgeKingCaptureIsCheckmate(t *testing.T) {
	pos := place(t, EmptyPosition, "e7", 'R')
	pos = place(t, pos, "e8", 'k')
	pos = place(t, pos, "e1", 'K')

	next, outcome, reason := CaptureJudge{}.Apply(pos, White, sq(t, "e7"), sq(t, "e8"))
	if reason != "" {
		t.Fatalf("capture rejected: %s", reason)
	}
	if outcome != OutcomeCheckmate {
		t.Fatalf("king capture must be checkmate, got %v", outcome)
	}
	if next.At(sq(t, "e8")) != 'R' {
		t.Fatalf("capturing piece must occupy the target: %q", next)
	}
}

func TestCaptureJudgeOnlyKingsIsDraw(t *testing.T) {
	pos := place(t, EmptyPosition, "d4", 'K')
	pos = place(t, pos, "d5", 'n')
	pos = place(t, pos, "h8", 'k')

	_, outcome, reason := CaptureJudge{}.Apply(pos, White, sq(t, "d4"), sq(t, "d5"))
	if reason != "" {
		t.Fatalf("capture rejected: %s", reason)
	}
	if outcome != OutcomeDraw {
		t.Fatalf("bare kings must draw, got %v", outcome)
	}
}
