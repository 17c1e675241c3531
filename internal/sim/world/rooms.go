package world

import (
	"time"

	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/spatial"
)

type Searchable struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Used  bool    `json:"used"`
}

// Trap is a floor trap. It is visible only to its owner and is removed when it
// fires.
type Trap struct {
	ID    string  `json:"id"`
	Owner string  `json:"owner"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Armed bool    `json:"armed"`
}

// DoorTrap is bound to a door of the room it was placed in.
type DoorTrap struct {
	ID        string `json:"id"`
	DoorIndex int    `json:"door"`
	Owner     string `json:"owner"`
	Armed     bool   `json:"armed"`
}

type Bomb struct {
	ID      string    `json:"id"`
	Owner   string    `json:"owner"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	ArmedAt time.Time `json:"armed_at"`
}

func (b Bomb) Armed(now time.Time) bool { return !now.Before(b.ArmedAt) }

type Projectile struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	VX        float64   `json:"vx"`
	VY        float64   `json:"vy"`
	SpawnedAt time.Time `json:"spawned_at"`
}

// RoomState is the live, per-round state of one room.
type RoomState struct {
	Items       []Item
	Searchables []Searchable
	FloorTraps  []Trap
	DoorTraps   []DoorTrap
	Bombs       []Bomb
	Projectiles []Projectile
}

func newRoomState(t *maps.RoomTemplate) *RoomState {
	rs := &RoomState{
		Items:       make([]Item, 0, len(t.Items)),
		Searchables: make([]Searchable, 0, len(t.Searchables)),
	}
	for _, it := range t.Items {
		rs.Items = append(rs.Items, Item{Kind: it.Kind, X: it.X, Y: it.Y})
	}
	for _, s := range t.Searchables {
		rs.Searchables = append(rs.Searchables, Searchable{ID: s.ID, Label: s.Label, X: s.X, Y: s.Y})
	}
	return rs
}

// resetRooms rebuilds every room from the active variant's templates.
func (w *World) resetRooms() {
	w.rooms = make(map[string]*RoomState, len(w.variant.Rooms))
	for _, name := range w.variant.RoomNames() {
		w.rooms[name] = newRoomState(w.variant.Rooms[name])
	}
	w.doors = spatial.NewIndex(w.variant)
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
