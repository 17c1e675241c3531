package world

import (
	"math"
	"time"

	"github.com/google/uuid"

	"heist.gg/internal/sim/maps"
)

var palette = []string{
	"#ff5555",
	"#55ff55",
	"#5599ff",
	"#ffff55",
	"#ff55ff",
	"#55ffff",
	"#ffffff",
}

const (
	disguiseColor   = "#aaaaaa"
	disguiseShortID = "????"
)

// Item is a held or floor item. The label is derived from the kind.
type Item struct {
	Kind maps.ItemKind `json:"kind"`
	X    float64       `json:"x,omitempty"`
	Y    float64       `json:"y,omitempty"`
}

type Player struct {
	ID      string
	ShortID string
	Color   string

	Room   string
	X, Y   float64
	VX, VY float64
	AimX   float64
	AimY   float64

	Inventory []Item
	Score     int
	Health    int

	StunnedUntil   time.Time
	DisguisedUntil time.Time
	RadarUntil     time.Time
	LastShotAt     time.Time

	// Highest applied input seq for the connection lifetime; respawns keep it.
	LastSeq uint64

	JoinedAt time.Time

	out chan []byte

	// Per-round counters for the round log.
	kills  int
	deaths int

	// Score when the current round began; the score race counts only the
	// points earned since.
	roundStartScore int

	// Opaque id shown to others while disguised, fresh for every disguise.
	alias string
}

func (p *Player) Stunned(now time.Time) bool   { return p.StunnedUntil.After(now) }
func (p *Player) Disguised(now time.Time) bool { return p.DisguisedUntil.After(now) }
func (p *Player) RadarOn(now time.Time) bool   { return p.RadarUntil.After(now) }

func (p *Player) maskedID() string {
	if p.alias == "" {
		return disguiseShortID
	}
	return p.alias
}

func (p *Player) hasKind(k maps.ItemKind) bool {
	for _, it := range p.Inventory {
		if it.Kind == k {
			return true
		}
	}
	return false
}

func (p *Player) slotOf(k maps.ItemKind) int {
	for i, it := range p.Inventory {
		if it.Kind == k {
			return i
		}
	}
	return -1
}

func (p *Player) removeSlot(i int) Item {
	it := p.Inventory[i]
	p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
	return it
}

func (w *World) newID() string {
	id, err := uuid.NewRandomFromReader(w.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (w *World) newEntityID(prefix string) string {
	return prefix + "-" + w.newID()[:8]
}

func (w *World) addPlayer(id string, out chan []byte, now time.Time) *Player {
	if id == "" {
		id = w.newID()
	}
	p := &Player{
		ID:       id,
		ShortID:  shortID(id),
		Color:    palette[w.rng.Intn(len(palette))],
		AimX:     1,
		JoinedAt: now,
		out:      out,
	}
	w.respawn(p)
	if w.round.Phase == PhaseFrozen {
		p.StunnedUntil = w.round.FrozenUntil
	}
	w.players[id] = p
	w.order = append(w.order, id)
	w.log.Printf("player connected %s in %s (%.0f,%.0f)", id, p.Room, p.X, p.Y)
	w.emit(GameEvent{Type: EventJoin, Player: id, Room: p.Room, X: p.X, Y: p.Y}, now)
	return p
}

// removePlayer drops the player from every registry. Traps and bombs it owns
// stay in the world and can never match an owner again.
func (w *World) removePlayer(id string, now time.Time) bool {
	p, ok := w.players[id]
	if !ok {
		return false
	}
	delete(w.players, id)
	for i, pid := range w.order {
		if pid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.log.Printf("player disconnected %s", id)
	w.emit(GameEvent{Type: EventLeave, Player: id, Room: p.Room}, now)
	return true
}

func shortID(id string) string {
	if len(id) < 4 {
		return id
	}
	return id[:4]
}

func (w *World) eachPlayer(fn func(p *Player)) {
	for _, id := range w.order {
		if p := w.players[id]; p != nil {
			fn(p)
		}
	}
}

func (w *World) randSpawn() (room string, x, y float64) {
	sp := w.variant.Spawns
	if len(sp) == 0 {
		return w.variant.RoomNames()[0], 160, 100
	}
	base := sp[w.rng.Intn(len(sp))]
	j := w.tun.SpawnJitter
	return base.Room, base.X + (w.rng.Float64()*2-1)*j, base.Y + (w.rng.Float64()*2-1)*j
}

// respawn places p at a random spawn with a clean slate. Score, colour and seq
// survive.
func (w *World) respawn(p *Player) {
	p.Room, p.X, p.Y = w.randSpawn()
	w.clamp(p)
	p.VX, p.VY = 0, 0
	p.Inventory = nil
	p.StunnedUntil = time.Time{}
	p.DisguisedUntil = time.Time{}
	p.RadarUntil = time.Time{}
	p.LastShotAt = time.Time{}
	p.Health = w.tun.ShotsToKill
}

func (w *World) clamp(p *Player) {
	r := w.variant.Room(p.Room)
	if r == nil {
		return
	}
	p.X, p.Y = clampPoint(r, p.X, p.Y, w.tun.WallMargin)
}

func clampPoint(r *maps.RoomTemplate, x, y, margin float64) (float64, float64) {
	x = math.Max(margin, math.Min(r.W-margin, x))
	y = math.Max(margin, math.Min(r.H-margin, y))
	return x, y
}

// dropInventory scatters every held item on a circle around p.
func (w *World) dropInventory(p *Player, now time.Time) {
	n := len(p.Inventory)
	if n == 0 {
		return
	}
	rs := w.rooms[p.Room]
	r := w.variant.Room(p.Room)
	for i, it := range p.Inventory {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := p.X + math.Cos(a)*w.tun.DropScatterRadius
		y := p.Y + math.Sin(a)*w.tun.DropScatterRadius
		if r != nil {
			x, y = clampPoint(r, x, y, w.tun.WallMargin)
		}
		rs.Items = append(rs.Items, Item{Kind: it.Kind, X: x, Y: y})
		w.log.Printf("%s dropped %s in %s at (%.1f,%.1f)", p.ID, it.Kind.Label(), p.Room, x, y)
		w.emit(GameEvent{Type: EventDrop, Player: p.ID, Room: p.Room, Item: it.Kind.String(), X: x, Y: y}, now)
	}
	p.Inventory = nil
}
