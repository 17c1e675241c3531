package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"heist.gg/internal/persistence/indexdb"
	"heist.gg/internal/sim/world"
)

func seedIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "index", "heist.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteEvent(world.GameEvent{TimeMS: 1000, Round: 1, Map: "North Wing", Type: world.EventKill, Player: "alice", Target: "bob", Room: "HALL"})
	_ = idx.WriteRound(world.RoundSummary{
		Round: 1, Map: "North Wing", EndedMS: 2000, Winner: "alice", Reason: world.WinEscape,
		Players: []world.PlayerRound{{ID: "alice", Score: 2, Kills: 1}, {ID: "bob", Deaths: 1}},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return dir
}

func TestDBCmd_TablesAndJSON(t *testing.T) {
	dir := seedIndex(t)

	var buf bytes.Buffer
	if err := dbCmd("rounds", []string{"-data", dir}, &buf); err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "WINNER") || !strings.Contains(out, "North Wing") || !strings.Contains(out, "alice") {
		t.Fatalf("rounds table:\n%s", out)
	}

	buf.Reset()
	if err := dbCmd("kills", []string{"-db", filepath.Join(dir, "index", "heist.sqlite"), "-player", "bob", "-json"}, &buf); err != nil {
		t.Fatalf("kills: %v", err)
	}
	var kills []indexdb.KillRow
	if err := json.Unmarshal(buf.Bytes(), &kills); err != nil || len(kills) != 1 || kills[0].Killer != "alice" {
		t.Fatalf("kills=%+v err=%v raw=%s", kills, err, buf.String())
	}

	buf.Reset()
	if err := dbCmd("leaders", []string{"-data", dir, "-limit", "1"}, &buf); err != nil {
		t.Fatalf("leaders: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "alice") {
		t.Fatalf("leaders table:\n%s", buf.String())
	}
}

func TestDBCmd_MissingIndex(t *testing.T) {
	var buf bytes.Buffer
	if err := dbCmd("rounds", []string{"-data", t.TempDir()}, &buf); err == nil {
		t.Fatalf("expected error for missing index")
	}
}

func TestFetchAndPrintState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/v1/state" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(stateResponse{
			WorldID: "w1",
			State: world.AdminState{
				Tick: 7, Map: "Looping Lair", Round: 2, Phase: "frozen",
				Winner:  &world.Winner{PlayerID: "p1", Reason: world.WinScore},
				Players: []world.AdminPlayer{{ID: "p1", Room: "HALL", Score: 5, Health: 3, Inventory: []string{"brief", "key"}}},
			},
		})
	}))
	defer srv.Close()

	b, err := fetchState(srv.URL + "/")
	if err != nil {
		t.Fatalf("fetchState: %v", err)
	}
	var out bytes.Buffer
	if err := printState(&out, b); err != nil {
		t.Fatalf("printState: %v", err)
	}
	for _, want := range []string{`map="Looping Lair"`, "phase=frozen", "winner=p1", "brief,key"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, out.String())
		}
	}

	if _, err := fetchState(srv.URL + "/nope"); err == nil {
		t.Fatalf("expected error for non-2xx")
	}
}
