package main

import (
	"math"
	"math/rand"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
)

const reach = 18

// brain turns snapshots into intents: grab what is in reach, search
// furniture, wander between doors and take potshots at anyone nearby.
type brain struct {
	rng *rand.Rand

	seq        uint64
	dx, dy     float64
	frames     int
	room       string
	doorPick   int
	lastWinner string
}

func newBrain(rng *rand.Rand) *brain {
	return &brain{rng: rng, doorPick: -1}
}

func (b *brain) decide(s *protocol.SnapshotMsg) []any {
	b.frames++
	if s.Winner != nil {
		b.lastWinner = s.Winner.ID
		return nil
	}
	b.lastWinner = ""

	self, ok := findSelf(s)
	if !ok || self.IsStunned {
		return nil
	}
	if s.Room != b.room {
		b.room = s.Room
		b.doorPick = -1
	}

	var out []any
	inv := heldKinds(s.YourInventory)

	tx, ty, pickup := b.target(s, self, inv)
	if pickup {
		out = append(out, protocol.BaseMessage{T: protocol.TypePickup})
	}

	if slot, ok := b.usable(s, self, inv); ok {
		out = append(out, protocol.UseItemMsg{T: protocol.TypeUseItem, Which: slot})
	}

	if other, ok := nearestOther(s, self); ok && b.frames%10 == 0 {
		ax, ay := other.X-self.X, other.Y-self.Y
		out = append(out, protocol.ShootMsg{T: protocol.TypeShoot, AimX: &ax, AimY: &ay})
	}

	dx, dy := tx-self.X, ty-self.Y
	if n := math.Hypot(dx, dy); n > 1 {
		dx, dy = dx/n, dy/n
	} else {
		dx, dy = 0, 0
	}
	if math.Abs(dx-b.dx) > 0.2 || math.Abs(dy-b.dy) > 0.2 || b.frames%15 == 0 {
		b.seq++
		b.dx, b.dy = dx, dy
		out = append(out, protocol.InputMsg{T: protocol.TypeInput, Seq: b.seq, DX: dx, DY: dy})
	}
	return out
}

// target picks where to walk and whether a manual pickup is worth sending.
func (b *brain) target(s *protocol.SnapshotMsg, self protocol.PlayerView, inv []maps.ItemKind) (x, y float64, pickup bool) {
	canEscape := hasKind(inv, maps.KindIntel) && hasKind(inv, maps.KindKey)
	best := math.Inf(1)
	found := false
	for _, it := range s.Items {
		k, _ := maps.ParseItemKind(it.ID)
		if k == maps.KindEscape && !canEscape {
			continue
		}
		if d := math.Hypot(it.X-self.X, it.Y-self.Y); d < best {
			best, x, y, found = d, it.X, it.Y, true
		}
	}
	if found {
		return x, y, false
	}
	for _, sr := range s.Searchables {
		if sr.Used {
			continue
		}
		d := math.Hypot(sr.X-self.X, sr.Y-self.Y)
		if d < best {
			best, x, y, found = d, sr.X, sr.Y, true
		}
	}
	if found {
		return x, y, best <= reach
	}
	if len(s.Doors) == 0 {
		return self.X, self.Y, false
	}
	if b.doorPick < 0 || b.doorPick >= len(s.Doors) {
		b.doorPick = b.rng.Intn(len(s.Doors))
	}
	d := s.Doors[b.doorPick]
	return d.X + d.W/2, d.Y + d.H/2, false
}

// usable returns a slot worth using right now.
func (b *brain) usable(s *protocol.SnapshotMsg, self protocol.PlayerView, inv []maps.ItemKind) (int, bool) {
	for i, k := range inv {
		switch k {
		case maps.KindBomb, maps.KindTrapKit, maps.KindDisguise, maps.KindMap:
			if b.rng.Intn(20) == 0 {
				return i, true
			}
		case maps.KindSpring:
			for _, d := range s.Doors {
				if math.Hypot(d.X+d.W/2-self.X, d.Y+d.H/2-self.Y) <= reach {
					return i, true
				}
			}
		}
	}
	return 0, false
}

func findSelf(s *protocol.SnapshotMsg) (protocol.PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == s.You {
			return p, true
		}
	}
	return protocol.PlayerView{}, false
}

func nearestOther(s *protocol.SnapshotMsg, self protocol.PlayerView) (protocol.PlayerView, bool) {
	var best protocol.PlayerView
	bestD := math.Inf(1)
	for _, p := range s.Players {
		if p.ID == s.You {
			continue
		}
		if d := math.Hypot(p.X-self.X, p.Y-self.Y); d < bestD {
			best, bestD = p, d
		}
	}
	return best, !math.IsInf(bestD, 1)
}

func heldKinds(inv []protocol.InventoryView) []maps.ItemKind {
	out := make([]maps.ItemKind, len(inv))
	for i, it := range inv {
		out[i], _ = maps.ParseItemKind(it.ID)
	}
	return out
}

func hasKind(inv []maps.ItemKind, k maps.ItemKind) bool {
	for _, x := range inv {
		if x == k {
			return true
		}
	}
	return false
}
