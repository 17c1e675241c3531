package maps

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_LoadsBuiltinVariants(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	want := []string{"Classic Compound", "North Wing", "Looping Lair"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("names=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names=%v want %v", got, want)
		}
	}
	if reg.Digest() == "" {
		t.Fatalf("expected digest")
	}
	for _, name := range want {
		v, ok := reg.Get(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if _, ok := v.ExitAnchor(); !ok {
			t.Fatalf("%s: no exit anchor", name)
		}
		if len(v.Spawns) == 0 || len(v.TrapRespawnRooms()) == 0 {
			t.Fatalf("%s: spawns/trap respawns missing", name)
		}
	}
}

func TestDefault_ClassicCompoundLayout(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	v, _ := reg.Get("Classic Compound")
	names := v.RoomNames()
	want := []string{"ARMORY", "CONTROL", "EXIT", "INTEL", "WORKSHOP"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("rooms=%v", names)
		}
	}
	intel := v.Room("INTEL")
	if len(intel.Doors) != 3 || intel.Doors[2].TargetRoom != "EXIT" {
		t.Fatalf("intel doors: %+v", intel.Doors)
	}
	if intel.Items[0].Kind != KindIntel || intel.Items[1].Kind != KindKey {
		t.Fatalf("intel items: %+v", intel.Items)
	}
	anchor, _ := v.ExitAnchor()
	if anchor != (Point{X: 160, Y: 100}) {
		t.Fatalf("anchor=%+v", anchor)
	}
}

func TestDoor_ContainsIsStrict(t *testing.T) {
	d := Door{X: 300, Y: 80, W: 20, H: 40}
	if d.Contains(300, 100) {
		t.Fatalf("left edge must not count as inside")
	}
	if !d.Contains(301, 100) {
		t.Fatalf("interior point should be inside")
	}
	if d.Contains(310, 120) {
		t.Fatalf("bottom edge must not count as inside")
	}
	if c := d.Center(); c != (Point{X: 310, Y: 100}) {
		t.Fatalf("center=%+v", c)
	}
}

func TestChoose_ExcludesPrevious(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		if v := reg.Choose(rng, "North Wing"); v.Name == "North Wing" {
			t.Fatalf("previous variant chosen again")
		}
	}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[reg.Choose(rng, "").Name] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all variants to be reachable, saw %v", seen)
	}
}

func TestChoose_SingleVariantRepeats(t *testing.T) {
	reg, err := NewRegistry([]*MapVariant{{
		Name:     "Solo",
		ExitRoom: "A",
		Rooms:    map[string]*RoomTemplate{"A": {W: 320, H: 200}},
	}})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if v := reg.Choose(rand.New(rand.NewSource(1)), "Solo"); v.Name != "Solo" {
		t.Fatalf("got %s", v.Name)
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	if _, err := NewRegistry(nil); !errors.Is(err, ErrNoVariants) {
		t.Fatalf("expected ErrNoVariants, got %v", err)
	}
	_, err := NewRegistry([]*MapVariant{{
		Name:     "Broken",
		ExitRoom: "A",
		Rooms: map[string]*RoomTemplate{"A": {W: 320, H: 200, Doors: []Door{
			{X: 0, Y: 80, W: 20, H: 40, TargetRoom: "NOWHERE"},
		}}},
	}})
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}
	_, err = NewRegistry([]*MapVariant{{
		Name:     "NoExit",
		ExitRoom: "EXIT",
		Rooms:    map[string]*RoomTemplate{"A": {W: 320, H: 200}},
	}})
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom for exit, got %v", err)
	}
}

func TestLoad_FileWithBadKind(t *testing.T) {
	p := filepath.Join(t.TempDir(), "maps.yaml")
	raw := []byte("variants:\n  - name: X\n    exit_room: A\n    rooms:\n      A:\n        w: 10\n        h: 10\n        items:\n          - {kind: laser, x: 1, y: 1}\n")
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestItemKind_RoundTrip(t *testing.T) {
	for k := KindIntel; k <= KindEscape; k++ {
		got, ok := ParseItemKind(k.String())
		if !ok || got != k {
			t.Fatalf("parse(%q)=%v,%v", k.String(), got, ok)
		}
		if k.Label() == "" {
			t.Fatalf("%v has no label", k)
		}
	}
	if _, ok := ParseItemKind("laser"); ok {
		t.Fatalf("unknown kind parsed")
	}
	if KindTrapKit.Label() != "TRAP KIT" || KindDisguise.String() != "paint" {
		t.Fatalf("unexpected wire table")
	}
}
