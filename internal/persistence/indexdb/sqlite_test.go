package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
	"heist.gg/internal/sim/world"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqRound}

	_ = s.WriteRound(world.RoundSummary{Round: 2})
	_ = s.WriteEvent(world.GameEvent{Type: world.EventKill})
	_ = s.WriteEvent(world.GameEvent{Type: world.EventShot})

	st := s.Stats()
	if st.DropRoundTotal != 1 {
		t.Fatalf("DropRoundTotal=%d want=1", st.DropRoundTotal)
	}
	if st.DropKillTotal != 1 {
		t.Fatalf("DropKillTotal=%d want=1 (non-kill events are ignored)", st.DropKillTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_RoundsKillsLeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	reg, err := maps.Default()
	if err != nil {
		t.Fatalf("maps: %v", err)
	}
	if err := idx.UpsertConfig(tuning.Defaults(), reg); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	_ = idx.WriteEvent(world.GameEvent{TimeMS: 1000, Tick: 10, Round: 1, Map: "Classic Compound", Type: world.EventKill, Player: "alice", Target: "bob", Room: "HALL", X: 10, Y: 20})
	_ = idx.WriteEvent(world.GameEvent{TimeMS: 1000, Tick: 10, Round: 1, Map: "Classic Compound", Type: world.EventKill, Player: "alice", Target: "carol", Room: "HALL"})
	_ = idx.WriteEvent(world.GameEvent{TimeMS: 2000, Tick: 20, Round: 1, Type: world.EventPickup, Player: "bob"})
	_ = idx.WriteRound(world.RoundSummary{
		Round: 1, Map: "Classic Compound", StartedMS: 0, EndedMS: 3000, EndTick: 45,
		Winner: "alice", Reason: world.WinEscape,
		Players: []world.PlayerRound{
			{ID: "alice", Score: 3, Kills: 2},
			{ID: "bob", Score: 0, Deaths: 1},
		},
	})
	_ = idx.WriteRound(world.RoundSummary{
		Round: 2, Map: "North Wing", EndedMS: 9000,
		Winner: "bob", Reason: world.WinScore,
		Players: []world.PlayerRound{
			{ID: "alice", Score: 1},
			{ID: "bob", Score: 5},
		},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	var cfg int
	if err := db.QueryRow(`SELECT COUNT(*) FROM config`).Scan(&cfg); err != nil || cfg != 2 {
		t.Fatalf("config rows=%d err=%v", cfg, err)
	}
	db.Close()

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	rounds, err := r.RecentRounds(ctx, 10)
	if err != nil || len(rounds) != 2 {
		t.Fatalf("rounds=%+v err=%v", rounds, err)
	}
	if rounds[0].Map != "North Wing" || rounds[1].Winner != "alice" || rounds[1].Players != 2 {
		t.Fatalf("rounds order/content: %+v", rounds)
	}

	kills, err := r.Kills(ctx, "bob", 10)
	if err != nil || len(kills) != 1 || kills[0].Killer != "alice" || kills[0].X != 10 {
		t.Fatalf("kills for bob=%+v err=%v", kills, err)
	}
	all, _ := r.Kills(ctx, "", 10)
	if len(all) != 2 {
		t.Fatalf("all kills=%+v", all)
	}

	leaders, err := r.Leaders(ctx, 10)
	if err != nil || len(leaders) != 2 {
		t.Fatalf("leaders=%+v err=%v", leaders, err)
	}
	if leaders[0].PlayerID != "bob" || leaders[0].Wins != 1 || leaders[0].Score != 5 {
		t.Fatalf("leader ordering: %+v", leaders)
	}
	if leaders[1].Kills != 2 || leaders[1].Rounds != 2 {
		t.Fatalf("alice totals: %+v", leaders[1])
	}
}

func TestOpenReader_MissingFile(t *testing.T) {
	if _, err := OpenReader(filepath.Join(t.TempDir(), "none.db")); err == nil {
		t.Fatalf("expected error for a missing index")
	}
}
