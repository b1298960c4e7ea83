package board

import "testing"

func TestValidatePlacementRules(t *testing.T) {
	empty := EmptyPosition

	cases := []struct {
		name   string
		pos    Position
		side   Color
		piece  byte
		square string
		budget int
		want   string
	}{
		{"knight on home rank", empty, White, 'N', "b1", 10, ""},
		{"king not placeable", empty, White, 'K', "e1", 10, "invalid_piece"},
		{"unknown piece", empty, White, 'X', "e1", 10, "invalid_piece"},
		{"queen over budget", empty, White, 'Q', "d1", 8, "insufficient_points"},
		{"outside home zone", empty, White, 'N', "e4", 10, "square_out_of_zone"},
		{"black outside home zone", empty, Black, 'N', "e5", 10, "square_out_of_zone"},
		{"pawn on back rank", empty, White, 'P', "a1", 10, "pawn_forward_rank_only"},
		{"pawn on forward rank", empty, White, 'P', "a2", 10, ""},
		{"black pawn on forward rank", empty, Black, 'P', "a7", 10, ""},
		{"black pawn on back rank", empty, Black, 'P', "a8", 10, "pawn_forward_rank_only"},
		{"queen off center file", empty, White, 'Q', "b1", 10, "queen_back_rank_center"},
		{"queen on forward rank", empty, White, 'Q', "d2", 10, "queen_back_rank_center"},
		{"queen on center back rank", empty, White, 'Q', "c1", 10, ""},
		{"black queen on center back rank", empty, Black, 'Q', "f8", 10, ""},
		{"occupied square", place(t, empty, "b1", 'N'), White, 'N', "b1", 10, "square_occupied"},
		{"rook battery same file", place(t, empty, "a1", 'R'), White, 'R', "a2", 10, "rook_battery"},
		{"rooks on different files", place(t, empty, "a1", 'R'), White, 'R', "b2", 10, ""},
		{"bishop battery diagonal", place(t, empty, "c1", 'B'), White, 'B', "d2", 10, "bishop_battery"},
		{"bishops on same file", place(t, empty, "c1", 'B'), White, 'B', "c2", 10, ""},
		{"black rook battery", place(t, empty, "h8", 'r'), Black, 'R', "h7", 10, "rook_battery"},
	}

	for _, tc := range cases {
		got := ValidatePlacement(tc.pos, tc.side, tc.piece, sq(t, tc.square), tc.budget)
		if got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestValidateArmy(t *testing.T) {
	army := place(t, EmptyPosition, "e1", 'K')
	army = place(t, army, "a2", 'P')
	army = place(t, army, "b1", 'N')

	points, reason := ValidateArmy(army)
	if reason != "" {
		t.Fatalf("valid army rejected: %s", reason)
	}
	if points != 4 {
		t.Fatalf("expected 4 points, got %d", points)
	}

	if _, reason := ValidateArmy(place(t, EmptyPosition, "a2", 'P')); reason != "king_required" {
		t.Fatalf("army without king: got %q", reason)
	}
	twoKings := place(t, place(t, EmptyPosition, "e1", 'K'), "d1", 'K')
	if _, reason := ValidateArmy(twoKings); reason != "king_required" {
		t.Fatalf("army with two kings: got %q", reason)
	}
	if _, reason := ValidateArmy(place(t, place(t, EmptyPosition, "e1", 'K'), "e4", 'N')); reason != "square_out_of_zone" {
		t.Fatalf("piece outside ranks 1-2: got %q", reason)
	}
	if _, reason := ValidateArmy(place(t, place(t, EmptyPosition, "e1", 'K'), "a1", 'P')); reason != "pawn_forward_rank_only" {
		t.Fatalf("pawn on back rank: got %q", reason)
	}
	if _, reason := ValidateArmy(place(t, place(t, EmptyPosition, "e1", 'K'), "a8", 'n')); reason != "invalid_piece" {
		t.Fatalf("lowercase piece: got %q", reason)
	}
	if _, reason := ValidateArmy("too short"); reason != "invalid_position" {
		t.Fatalf("short position: got %q", reason)
	}
}
