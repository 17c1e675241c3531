// Package spatial holds per-room broadphase indexes over static room geometry.
package spatial

import (
	"math"

	"github.com/solarlune/resolv"

	"heist.gg/internal/sim/maps"
)

const (
	tagDoor  = "door"
	cellSize = 16
)

// DoorIndex answers point-in-door queries for one room. Doors are bucketed in a
// resolv space; candidates are then tested exactly against the strict interior.
// Not safe for concurrent use (the probe object is moved per query).
type DoorIndex struct {
	space *resolv.Space
	probe *resolv.Object
	doors []maps.Door
}

func NewDoorIndex(room *maps.RoomTemplate) *DoorIndex {
	w := int(math.Ceil(room.W))
	h := int(math.Ceil(room.H))
	space := resolv.NewSpace(w, h, cellSize, cellSize)
	for i, d := range room.Doors {
		// Padded by a pixel so fractional edges still land in the right cells.
		obj := resolv.NewObject(d.X-1, d.Y-1, d.W+2, d.H+2, tagDoor)
		obj.SetShape(resolv.NewRectangle(0, 0, d.W+2, d.H+2))
		obj.Data = i
		space.Add(obj)
	}
	probe := resolv.NewObject(0, 0, 1, 1)
	space.Add(probe)
	return &DoorIndex{space: space, probe: probe, doors: room.Doors}
}

// DoorAt returns the lowest-indexed door whose strict interior contains (x,y).
func (ix *DoorIndex) DoorAt(x, y float64) (int, bool) {
	if ix == nil || len(ix.doors) == 0 {
		return -1, false
	}
	ix.probe.X = x
	ix.probe.Y = y
	ix.probe.Update()

	best := -1
	if c := ix.probe.Check(0, 0, tagDoor); c != nil {
		for _, obj := range c.Objects {
			i, ok := obj.Data.(int)
			if !ok || i < 0 || i >= len(ix.doors) {
				continue
			}
			if (best == -1 || i < best) && ix.doors[i].Contains(x, y) {
				best = i
			}
		}
	}
	return best, best >= 0
}

// NearestDoor returns the door whose centre is closest to (x,y).
func (ix *DoorIndex) NearestDoor(x, y float64) (idx int, dist float64) {
	idx, dist = -1, math.Inf(1)
	if ix == nil {
		return idx, dist
	}
	for i, d := range ix.doors {
		c := d.Center()
		if dd := math.Hypot(x-c.X, y-c.Y); dd < dist {
			idx, dist = i, dd
		}
	}
	return idx, dist
}

func (ix *DoorIndex) Door(i int) maps.Door { return ix.doors[i] }

func (ix *DoorIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.doors)
}

// Index is the set of door indexes for every room of one map variant.
type Index struct {
	rooms map[string]*DoorIndex
}

func NewIndex(v *maps.MapVariant) *Index {
	ix := &Index{rooms: make(map[string]*DoorIndex, len(v.Rooms))}
	for _, name := range v.RoomNames() {
		ix.rooms[name] = NewDoorIndex(v.Rooms[name])
	}
	return ix
}

func (ix *Index) Room(name string) *DoorIndex {
	if ix == nil {
		return nil
	}
	return ix.rooms[name]
}
