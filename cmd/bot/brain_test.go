package main

import (
	"math/rand"
	"testing"

	"heist.gg/internal/protocol"
)

func snap(you string, x, y float64) *protocol.SnapshotMsg {
	return &protocol.SnapshotMsg{
		T:       protocol.TypeSnapshot,
		You:     you,
		Room:    "HALL",
		Players: []protocol.PlayerView{{ID: you, Room: "HALL", X: x, Y: y}},
		Doors:   []protocol.DoorView{{X: 300, Y: 80, W: 20, H: 40}},
	}
}

func inputs(out []any) []protocol.InputMsg {
	var in []protocol.InputMsg
	for _, o := range out {
		if m, ok := o.(protocol.InputMsg); ok {
			in = append(in, m)
		}
	}
	return in
}

func TestBrain_WalksToNearestItem(t *testing.T) {
	b := newBrain(rand.New(rand.NewSource(1)))
	s := snap("me", 100, 100)
	s.Items = []protocol.ItemView{{ID: "key", X: 100, Y: 150}, {ID: "bomb", X: 300, Y: 100}}

	in := inputs(b.decide(s))
	if len(in) != 1 || in[0].Seq != 1 || in[0].DX != 0 || in[0].DY != 1 {
		t.Fatalf("inputs=%+v", in)
	}
	if again := inputs(b.decide(s)); len(again) != 0 {
		t.Fatalf("unchanged heading should not resend input: %+v", again)
	}
}

func TestBrain_IgnoresExitWithoutObjectives(t *testing.T) {
	b := newBrain(rand.New(rand.NewSource(1)))
	s := snap("me", 160, 100)
	s.Items = []protocol.ItemView{{ID: "escape", X: 160, Y: 150}}
	in := inputs(b.decide(s))
	if len(in) != 1 || in[0].DX <= 0.9 {
		t.Fatalf("expected to head for the door instead, got %+v", in)
	}

	b = newBrain(rand.New(rand.NewSource(1)))
	s.YourInventory = []protocol.InventoryView{{ID: "brief"}, {ID: "key"}}
	in = inputs(b.decide(s))
	if len(in) != 1 || in[0].DY != 1 {
		t.Fatalf("expected to head for the exit, got %+v", in)
	}
}

func TestBrain_SearchesWhenInReach(t *testing.T) {
	b := newBrain(rand.New(rand.NewSource(1)))
	s := snap("me", 60, 140)
	s.Searchables = []protocol.SearchableView{{ID: "locker", X: 60, Y: 150}}
	var pickup bool
	for _, o := range b.decide(s) {
		if m, ok := o.(protocol.BaseMessage); ok && m.T == protocol.TypePickup {
			pickup = true
		}
	}
	if !pickup {
		t.Fatalf("expected a pickup intent next to an unused searchable")
	}
}

func TestBrain_IdleWhenStunnedOrFrozen(t *testing.T) {
	b := newBrain(rand.New(rand.NewSource(1)))
	s := snap("me", 100, 100)
	s.Players[0].IsStunned = true
	if out := b.decide(s); len(out) != 0 {
		t.Fatalf("stunned bot sent %+v", out)
	}
	s.Players[0].IsStunned = false
	s.Winner = &protocol.WinnerView{ID: "x", Type: "escape"}
	if out := b.decide(s); len(out) != 0 {
		t.Fatalf("frozen bot sent %+v", out)
	}
}
