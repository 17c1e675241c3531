package log

import (
	"path/filepath"
	"testing"
	"time"

	"heist.gg/internal/sim/world"
)

func TestEventLogger_RoundTripThroughZstd(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir, func(err error) { t.Errorf("write: %v", err) })
	for i := 0; i < 50; i++ {
		if err := l.WriteEvent(world.GameEvent{Tick: uint64(i), Type: world.EventShot, Player: "p1", Room: "HALL"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []world.GameEvent
	if err := ReadEvents(files[0], func(e world.GameEvent) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if uint64(len(got))+l.Dropped() != 50 {
		t.Fatalf("got %d events with %d dropped", len(got), l.Dropped())
	}
	for i, e := range got {
		if e.Tick != uint64(i) || e.Type != world.EventShot || e.Room != "HALL" {
			t.Fatalf("event %d = %+v", i, e)
		}
	}
}

func TestRoundLogger_Records(t *testing.T) {
	dir := t.TempDir()
	l := NewRoundLogger(dir, nil)
	s := world.RoundSummary{
		Round:   3,
		Map:     "North Wing",
		Winner:  "p2",
		Reason:  world.WinEscape,
		Players: []world.PlayerRound{{ID: "p2", Score: 1, Kills: 2}},
	}
	_ = l.WriteRound(s)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := Files(filepath.Join(dir, "rounds"), "rounds")
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	var got []world.RoundSummary
	_ = ReadRounds(files[0], func(r world.RoundSummary) error {
		got = append(got, r)
		return nil
	})
	if len(got) != 1 || got[0].Map != "North Wing" || len(got[0].Players) != 1 || got[0].Players[0].Kills != 2 {
		t.Fatalf("rounds=%+v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "events")
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_ = w.Write(map[string]int{"n": 1})
	now = now.Add(2 * time.Minute)
	_ = w.Write(map[string]int{"n": 2})
	_ = w.Write(map[string]int{"n": 3})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, _ := Files(dir, "events")
	if len(files) != 2 {
		t.Fatalf("expected two hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "events-2024-05-01-10.jsonl.zst" || filepath.Base(files[1]) != "events-2024-05-01-11.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	lines := 0
	for _, f := range files {
		_ = ReadLines(f, func([]byte) error { lines++; return nil })
	}
	if lines != 3 {
		t.Fatalf("lines=%d", lines)
	}
}
