package spatial

import (
	"testing"

	"heist.gg/internal/sim/maps"
)

func TestDoorIndex_DoorAt(t *testing.T) {
	room := &maps.RoomTemplate{W: 320, H: 200, Doors: []maps.Door{
		{X: 0, Y: 80, W: 20, H: 40, TargetRoom: "A"},
		{X: 140, Y: 180, W: 40, H: 20, TargetRoom: "B"},
		{X: 300, Y: 80, W: 20, H: 40, TargetRoom: "C"},
	}}
	ix := NewDoorIndex(room)

	cases := []struct {
		x, y float64
		want int
	}{
		{10, 100, 0},
		{160, 190, 1},
		{310, 100, 2},
		{160, 100, -1},
		{20, 100, -1}, // right edge of door 0
		{16, 80, -1},  // top edge of door 0
		{16, 81, 0},
	}
	for _, tc := range cases {
		got, ok := ix.DoorAt(tc.x, tc.y)
		if got != tc.want || ok != (tc.want >= 0) {
			t.Fatalf("DoorAt(%v,%v)=%d,%v want %d", tc.x, tc.y, got, ok, tc.want)
		}
	}
}

func TestDoorIndex_OverlappingDoorsPickLowestIndex(t *testing.T) {
	room := &maps.RoomTemplate{W: 320, H: 200, Doors: []maps.Door{
		{X: 100, Y: 100, W: 40, H: 40, TargetRoom: "A"},
		{X: 90, Y: 90, W: 60, H: 60, TargetRoom: "B"},
	}}
	ix := NewDoorIndex(room)
	if got, _ := ix.DoorAt(120, 120); got != 0 {
		t.Fatalf("got door %d want 0", got)
	}
	if got, _ := ix.DoorAt(95, 95); got != 1 {
		t.Fatalf("got door %d want 1", got)
	}
}

func TestDoorIndex_NearestDoor(t *testing.T) {
	room := &maps.RoomTemplate{W: 320, H: 200, Doors: []maps.Door{
		{X: 0, Y: 80, W: 20, H: 40},
		{X: 300, Y: 80, W: 20, H: 40},
	}}
	ix := NewDoorIndex(room)
	idx, dist := ix.NearestDoor(290, 100)
	if idx != 1 || dist != 20 {
		t.Fatalf("nearest=%d dist=%v", idx, dist)
	}
	empty := NewDoorIndex(&maps.RoomTemplate{W: 10, H: 10})
	if idx, _ := empty.NearestDoor(1, 1); idx != -1 {
		t.Fatalf("expected no door")
	}
	if _, ok := empty.DoorAt(1, 1); ok {
		t.Fatalf("expected no door")
	}
}

func TestIndex_DefaultVariants(t *testing.T) {
	reg, err := maps.Default()
	if err != nil {
		t.Fatalf("maps: %v", err)
	}
	for _, name := range reg.Names() {
		v, _ := reg.Get(name)
		ix := NewIndex(v)
		for _, room := range v.RoomNames() {
			dix := ix.Room(room)
			if dix.Len() != len(v.Rooms[room].Doors) {
				t.Fatalf("%s/%s: door count mismatch", name, room)
			}
			for i, d := range v.Rooms[room].Doors {
				c := d.Center()
				if got, ok := dix.DoorAt(c.X, c.Y); !ok || got != i {
					t.Fatalf("%s/%s: door %d centre resolved to %d", name, room, i, got)
				}
			}
		}
	}
}
