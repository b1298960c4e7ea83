package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KingVladAtheris/draftchess/internal/config"
)

func openStore(t *testing.T) (*Store, context.Context, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	base, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	if _, err := base.Exec(context.Background(), "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize()); err != nil {
		base.Close()
		t.Fatalf("create schema: %v", err)
	}
	base.Close()

	st, err := New(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := applySchema(st); err != nil {
		st.Close()
		t.Fatalf("apply schema: %v", err)
	}
	cleanup := func() {
		st.Close()
		base, err := pgxpool.New(context.Background(), dsn)
		if err == nil {
			_, _ = base.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
			base.Close()
		}
	}
	return st, context.Background(), cleanup
}

func applySchema(st *Store) error {
	path, err := findInitMigrationPath()
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(context.Background(), string(b))
	return err
}

func findInitMigrationPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", "000001_init.up.sql")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("000001_init.up.sql not found from %s", dir)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

// testArmyPosition is a classic back-rank army in white orientation.
func testArmyPosition() string {
	pos := strings.Repeat(".", 48) + "PPPPPPPP" + "RNBQKBNR"
	return pos
}

func mustCreatePlayer(t *testing.T, st *Store, ctx context.Context, name, apiKey string, rating int) string {
	t.Helper()
	id, err := st.CreatePlayer(ctx, name, apiKey, rating)
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	return id
}

func mustCreateArmy(t *testing.T, st *Store, ctx context.Context, ownerID string) string {
	t.Helper()
	id, err := st.CreateArmy(ctx, ownerID, testArmyPosition(), 39)
	if err != nil {
		t.Fatalf("create army: %v", err)
	}
	if ok, err := st.SetPlayerArmy(ctx, ownerID, id); err != nil || !ok {
		t.Fatalf("set player army: ok=%v err=%v", ok, err)
	}
	return id
}

func mustCreateSession(t *testing.T, st *Store, ctx context.Context, aID, bID string) Session {
	t.Helper()
	now := time.Now().UTC()
	sess := Session{
		ID:            NewID(),
		PlayerA:       aID,
		PlayerB:       bID,
		WhiteID:       aID,
		BlackID:       bID,
		Position:      strings.Repeat(".", 64),
		Status:        SessionSetup,
		ASetupPoints:  10,
		BSetupPoints:  10,
		LastMoveAt:    now,
		ARatingBefore: 1200,
		BRatingBefore: 1200,
		CreatedAt:     now,
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}
