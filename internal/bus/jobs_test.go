package bus_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/KingVladAtheris/draftchess/internal/bus"
	"github.com/KingVladAtheris/draftchess/internal/testutil"
)

func TestJobsScheduleReplaceCancel(t *testing.T) {
	b := testutil.OpenTestBus(t)
	ctx := context.Background()
	id := "move:test-" + time.Now().Format("150405.000000000")
	defer func() { _ = b.Jobs.Cancel(ctx, id) }()

	far := time.Now().Add(time.Hour)
	if err := b.Jobs.Schedule(ctx, id, far, map[string]string{"v": "1"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	pending, err := b.Jobs.Pending(ctx, id)
	if err != nil || !pending {
		t.Fatalf("job must be pending: ok=%v err=%v", pending, err)
	}

	// Rescheduling the same identity replaces, it never stacks.
	if err := b.Jobs.Schedule(ctx, id, far.Add(time.Hour), map[string]string{"v": "2"}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if err := b.Jobs.Cancel(ctx, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if pending, _ := b.Jobs.Pending(ctx, id); pending {
		t.Fatalf("cancelled job must not be pending")
	}
	// Cancelling again is a silent no-op.
	if err := b.Jobs.Cancel(ctx, id); err != nil {
		t.Fatalf("double cancel: %v", err)
	}
}

func TestJobsRunClaimsDueJobsOnce(t *testing.T) {
	b := testutil.OpenTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := "move:due-" + time.Now().Format("150405.000000000")
	payload := map[string]string{"sessionId": "s1"}
	if err := b.Jobs.Schedule(ctx, id, time.Now().Add(-time.Second), payload); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	got := make(chan []byte, 4)
	runCtx, stop := context.WithCancel(ctx)
	go b.Jobs.Run(runCtx, 20*time.Millisecond, func(_ context.Context, claimedID string, raw []byte) {
		if claimedID == id {
			got <- raw
		}
	})

	select {
	case raw := <-got:
		var decoded map[string]string
		if err := json.Unmarshal(raw, &decoded); err != nil || decoded["sessionId"] != "s1" {
			t.Fatalf("bad payload %s: %v", raw, err)
		}
	case <-ctx.Done():
		t.Fatalf("due job was never claimed")
	}
	stop()

	if pending, _ := b.Jobs.Pending(context.Background(), id); pending {
		t.Fatalf("claimed job must be gone from the queue")
	}
}

func TestJobsRescheduledJobSurvivesClaimRace(t *testing.T) {
	b := testutil.OpenTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := "move:replace-" + time.Now().Format("150405.000000000")
	defer func() { _ = b.Jobs.Cancel(context.Background(), id) }()

	if err := b.Jobs.Schedule(ctx, id, time.Now().Add(-time.Second), map[string]string{"v": "old"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	// Pushed back before any poll claims it: the job must not fire early
	// and must keep the fresh payload.
	if err := b.Jobs.Schedule(ctx, id, time.Now().Add(time.Hour), map[string]string{"v": "new"}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	got := make(chan []byte, 4)
	runCtx, stop := context.WithCancel(ctx)
	go b.Jobs.Run(runCtx, 20*time.Millisecond, func(_ context.Context, claimedID string, raw []byte) {
		if claimedID == id {
			got <- raw
		}
	})

	select {
	case raw := <-got:
		t.Fatalf("future job must not be claimed, got payload %s", raw)
	case <-time.After(200 * time.Millisecond):
	}
	if pending, _ := b.Jobs.Pending(ctx, id); !pending {
		t.Fatalf("rescheduled job must still be pending")
	}

	// Bring it due again and verify the payload was not lost in between.
	if err := b.Jobs.Schedule(ctx, id, time.Now().Add(-time.Second), map[string]string{"v": "new"}); err != nil {
		t.Fatalf("make due: %v", err)
	}
	select {
	case raw := <-got:
		var decoded map[string]string
		if err := json.Unmarshal(raw, &decoded); err != nil || decoded["v"] != "new" {
			t.Fatalf("bad payload %s: %v", raw, err)
		}
	case <-ctx.Done():
		t.Fatalf("due job was never claimed")
	}
	stop()
}

func TestPresenceMarkerKeyRoundTrip(t *testing.T) {
	key := bus.MarkerKey("p1", "s1")
	playerID, sessionID, ok := bus.ParseMarkerKey(key)
	if !ok || playerID != "p1" || sessionID != "s1" {
		t.Fatalf("round trip failed: %q %q %v", playerID, sessionID, ok)
	}
	if _, _, ok := bus.ParseMarkerKey("some:other:key"); ok {
		t.Fatalf("foreign keys must not parse")
	}
}

func TestPresenceMarkersSetClear(t *testing.T) {
	b := testutil.OpenTestBus(t)
	ctx := context.Background()

	if err := b.Markers.Set(ctx, "p-test", "s-test", time.Minute); err != nil {
		t.Fatalf("set marker: %v", err)
	}
	exists, err := b.Markers.Exists(ctx, "p-test", "s-test")
	if err != nil || !exists {
		t.Fatalf("marker must exist: %v %v", exists, err)
	}
	if err := b.Markers.Clear(ctx, "p-test", "s-test"); err != nil {
		t.Fatalf("clear marker: %v", err)
	}
	if exists, _ := b.Markers.Exists(ctx, "p-test", "s-test"); exists {
		t.Fatalf("cleared marker must not exist")
	}
	// Clearing an absent marker is a no-op.
	if err := b.Markers.Clear(ctx, "p-test", "s-test"); err != nil {
		t.Fatalf("double clear: %v", err)
	}
}
