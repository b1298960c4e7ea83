package store

import (
	"errors"
	"testing"
	"time"
)

func TestPlayersCreateGetAndAuth(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	id := mustCreatePlayer(t, st, ctx, "alice", "key-a", 1200)

	p, err := st.GetPlayerByAPIKey(ctx, "key-a")
	if err != nil {
		t.Fatalf("get by api key: %v", err)
	}
	if p.ID != id || p.Name != "alice" || p.Rating != 1200 {
		t.Fatalf("unexpected player %+v", p)
	}
	if p.APIKeyHash == "key-a" {
		t.Fatalf("api key must be stored hashed")
	}

	if _, err := st.GetPlayerByAPIKey(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestArmyCreateAndAssign(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	owner := mustCreatePlayer(t, st, ctx, "alice", "key-a", 1200)
	armyID := mustCreateArmy(t, st, ctx, owner)

	army, err := st.GetArmy(ctx, armyID)
	if err != nil {
		t.Fatalf("get army: %v", err)
	}
	if army.OwnerID != owner || army.Position != testArmyPosition() || army.PointsUsed != 39 {
		t.Fatalf("unexpected army %+v", army)
	}

	p, err := st.GetPlayer(ctx, owner)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if p.ArmyID != armyID {
		t.Fatalf("player army not assigned: %q", p.ArmyID)
	}
}

func TestArmyLinkFrozenWhileNotIdle(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	owner := mustCreatePlayer(t, st, ctx, "alice", "key-a", 1200)
	firstID := mustCreateArmy(t, st, ctx, owner)

	if ok, _ := st.EnqueuePlayer(ctx, owner, time.Now()); !ok {
		t.Fatalf("enqueue failed")
	}
	secondID, err := st.CreateArmy(ctx, owner, testArmyPosition(), 39)
	if err != nil {
		t.Fatalf("create second army: %v", err)
	}

	// Swapping the army link while queued or mid-session would change the
	// board the masking is reconstructed from.
	ok, err := st.SetPlayerArmy(ctx, owner, secondID)
	if err != nil {
		t.Fatalf("set player army: %v", err)
	}
	if ok {
		t.Fatalf("army link must be frozen while the player is not idle")
	}
	p, err := st.GetPlayer(ctx, owner)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if p.ArmyID != firstID {
		t.Fatalf("army link changed to %q, want %q", p.ArmyID, firstID)
	}

	if ok, _ := st.DequeuePlayer(ctx, owner); !ok {
		t.Fatalf("dequeue failed")
	}
	if ok, err := st.SetPlayerArmy(ctx, owner, secondID); err != nil || !ok {
		t.Fatalf("idle player must be able to swap armies: ok=%v err=%v", ok, err)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	mustCreatePlayer(t, st, ctx, "low", "key-low", 1100)
	mustCreatePlayer(t, st, ctx, "high", "key-high", 1500)
	mustCreatePlayer(t, st, ctx, "mid", "key-mid", 1300)

	items, err := st.ListTopPlayers(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list top players: %v", err)
	}
	if len(items) != 3 || items[0].Name != "high" || items[2].Name != "low" {
		t.Fatalf("unexpected leaderboard order: %d entries", len(items))
	}
}
