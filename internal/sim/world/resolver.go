package world

import (
	"math"
	"time"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
)

const minDirection = 0.0001

// applyIntent routes one decoded intent to its resolver. It returns the
// rejection reason, or "" when the intent changed the world.
func (w *World) applyIntent(env IntentEnvelope, now time.Time) string {
	p := w.players[env.PlayerID]
	in := env.Intent
	if p == nil {
		return w.reject(nil, in.Kind.String(), protocol.ReasonNoPlayer, now)
	}
	if w.round.Phase == PhaseFrozen {
		return w.reject(p, in.Kind.String(), protocol.ReasonFrozen, now)
	}
	switch in.Kind {
	case protocol.IntentInput:
		return w.ApplyInput(p, in.Seq, in.DX, in.DY, now)
	case protocol.IntentPickup:
		return w.Pickup(p, now)
	case protocol.IntentUseItem:
		return w.UseItem(p, in.Which, now)
	case protocol.IntentPlaceTrap:
		return w.PlaceTrap(p, now)
	case protocol.IntentShoot:
		return w.Shoot(p, in.HasAim, in.AimX, in.AimY, now)
	default:
		return w.reject(p, in.Kind.String(), protocol.ReasonUnknownType, now)
	}
}

// ApplyInput sets p's velocity from a raw direction. Stale seqs and stunned
// players are no-ops.
func (w *World) ApplyInput(p *Player, seq uint64, dx, dy float64, now time.Time) string {
	if seq <= p.LastSeq {
		return w.reject(p, protocol.TypeInput, protocol.ReasonStaleSeq, now)
	}
	if p.Stunned(now) {
		return w.reject(p, protocol.TypeInput, protocol.ReasonStunned, now)
	}
	p.LastSeq = seq
	mag := math.Hypot(dx, dy)
	if mag <= minDirection {
		p.VX, p.VY = 0, 0
		return ""
	}
	nx, ny := dx/mag, dy/mag
	p.VX, p.VY = nx*w.tun.Speed, ny*w.tun.Speed
	p.AimX, p.AimY = nx, ny
	return ""
}

// Pickup takes the nearest floor item in range, or failing that searches the
// nearest unused searchable. At most one of the two happens.
func (w *World) Pickup(p *Player, now time.Time) string {
	rs := w.rooms[p.Room]
	if rs == nil {
		return w.reject(p, protocol.TypePickup, protocol.ReasonNoTarget, now)
	}

	best, bestDist := -1, math.Inf(1)
	for i, it := range rs.Items {
		if d := math.Hypot(p.X-it.X, p.Y-it.Y); d <= w.tun.PickupRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		w.takeFloorItem(p, rs, best, now)
		return ""
	}

	best, bestDist = -1, math.Inf(1)
	for i, s := range rs.Searchables {
		if s.Used {
			continue
		}
		if d := math.Hypot(p.X-s.X, p.Y-s.Y); d <= w.tun.PickupRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return w.reject(p, protocol.TypePickup, protocol.ReasonNoTarget, now)
	}
	s := &rs.Searchables[best]
	s.Used = true
	loot := w.rollLoot()
	if loot == maps.KindUnknown {
		w.log.Printf("%s searched %s in %s but found nothing", p.ID, s.Label, p.Room)
		w.emit(GameEvent{Type: EventSearch, Player: p.ID, Room: p.Room, Target: s.ID}, now)
		return ""
	}
	p.Inventory = append(p.Inventory, Item{Kind: loot})
	w.log.Printf("%s searched %s in %s and found %s", p.ID, s.Label, p.Room, loot.Label())
	w.emit(GameEvent{Type: EventSearch, Player: p.ID, Room: p.Room, Target: s.ID, Item: loot.String()}, now)
	return ""
}

// rollLoot draws from the loot table; KindUnknown means nothing was found.
func (w *World) rollLoot() maps.ItemKind {
	n := len(maps.LootTable) + w.tun.LootNothingWeight
	if n <= 0 {
		return maps.KindUnknown
	}
	r := w.rng.Intn(n)
	if r < len(maps.LootTable) {
		return maps.LootTable[r]
	}
	return maps.KindUnknown
}

func (w *World) takeFloorItem(p *Player, rs *RoomState, i int, now time.Time) {
	it := rs.Items[i]
	rs.Items = removeAt(rs.Items, i)
	p.Inventory = append(p.Inventory, Item{Kind: it.Kind})
	w.log.Printf("%s picked up %s in %s at (%.0f,%.0f)", p.ID, it.Kind.Label(), p.Room, it.X, it.Y)
	w.emit(GameEvent{Type: EventPickup, Player: p.ID, Room: p.Room, Item: it.Kind.String(), X: it.X, Y: it.Y}, now)
	if it.Kind == maps.KindTrapKit {
		w.reseedTrapKit(p.Room, now)
	}
}

// reseedTrapKit drops a fresh trap kit at a respawn spot, preferring a room
// other than prev.
func (w *World) reseedTrapKit(prev string, now time.Time) {
	all := w.variant.TrapRespawnRooms()
	if len(all) == 0 {
		return
	}
	pool := make([]string, 0, len(all))
	for _, r := range all {
		if r != prev {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = all
	}
	room := pool[w.rng.Intn(len(pool))]
	spots := w.variant.TrapRespawns[room]
	if len(spots) == 0 {
		return
	}
	spot := spots[w.rng.Intn(len(spots))]
	rs := w.rooms[room]
	rs.Items = append(rs.Items, Item{Kind: maps.KindTrapKit, X: spot.X, Y: spot.Y})
	w.log.Printf("trap kit respawned in %s at (%.0f,%.0f)", room, spot.X, spot.Y)
	w.emit(GameEvent{Type: EventTrapKitSeeded, Room: room, Item: maps.KindTrapKit.String(), X: spot.X, Y: spot.Y}, now)
}

// UseItem activates inventory slot which.
func (w *World) UseItem(p *Player, which int, now time.Time) string {
	if which < 0 || which >= len(p.Inventory) {
		return w.reject(p, protocol.TypeUseItem, protocol.ReasonBadSlot, now)
	}
	kind := p.Inventory[which].Kind
	rs := w.rooms[p.Room]

	switch kind {
	case maps.KindTrapKit:
		t := Trap{ID: w.newEntityID("trap"), Owner: p.ID, X: p.X, Y: p.Y, Armed: true}
		rs.FloorTraps = append(rs.FloorTraps, t)
		p.removeSlot(which)
		w.log.Printf("%s placed floor trap %s in %s at (%.0f,%.0f)", p.ID, t.ID, p.Room, t.X, t.Y)
		w.emit(GameEvent{Type: EventTrapPlaced, Player: p.ID, Room: p.Room, Target: t.ID, X: t.X, Y: t.Y}, now)
	case maps.KindBomb:
		b := Bomb{ID: w.newEntityID("bomb"), Owner: p.ID, X: p.X, Y: p.Y, ArmedAt: now.Add(w.tun.BombArmDelay())}
		rs.Bombs = append(rs.Bombs, b)
		p.removeSlot(which)
		w.log.Printf("%s dropped bomb %s in %s at (%.0f,%.0f)", p.ID, b.ID, p.Room, b.X, b.Y)
		w.emit(GameEvent{Type: EventBombPlaced, Player: p.ID, Room: p.Room, Target: b.ID, X: b.X, Y: b.Y}, now)
	case maps.KindDisguise:
		p.DisguisedUntil = now.Add(w.tun.DisguiseDuration())
		p.alias = w.newID()
		p.removeSlot(which)
		w.log.Printf("%s used disguise from slot %d", p.ID, which)
		w.emit(GameEvent{Type: EventDisguise, Player: p.ID, Room: p.Room}, now)
	case maps.KindMap:
		p.RadarUntil = now.Add(w.tun.RadarDuration())
		p.removeSlot(which)
		w.log.Printf("%s used map from slot %d", p.ID, which)
		w.emit(GameEvent{Type: EventRadar, Player: p.ID, Room: p.Room}, now)
	case maps.KindSpring:
		idx, dist := w.doors.Room(p.Room).NearestDoor(p.X, p.Y)
		if idx < 0 || dist > w.tun.DoorArmRadius {
			w.log.Printf("%s tried spring but no door in range", p.ID)
			return w.reject(p, protocol.TypeUseItem, protocol.ReasonNoTarget, now)
		}
		dt := DoorTrap{ID: w.newEntityID("door"), DoorIndex: idx, Owner: p.ID, Armed: true}
		rs.DoorTraps = append(rs.DoorTraps, dt)
		p.removeSlot(which)
		w.log.Printf("%s armed door %d in %s", p.ID, idx, p.Room)
		w.emit(GameEvent{Type: EventDoorArmed, Player: p.ID, Room: p.Room, Target: dt.ID}, now)
	case maps.KindIntel, maps.KindKey, maps.KindWire, maps.KindEscape:
		w.log.Printf("%s tried use on %s but it has no effect", p.ID, kind.Label())
		return w.reject(p, protocol.TypeUseItem, protocol.ReasonNoEffect, now)
	default:
		w.log.Printf("%s tried use on unknown item kind %v", p.ID, kind)
		return w.reject(p, protocol.TypeUseItem, protocol.ReasonUnknownKind, now)
	}
	return ""
}

// PlaceTrap uses the first trap kit in p's inventory.
func (w *World) PlaceTrap(p *Player, now time.Time) string {
	i := p.slotOf(maps.KindTrapKit)
	if i < 0 {
		return w.reject(p, protocol.TypePlaceTrap, protocol.ReasonBadSlot, now)
	}
	return w.UseItem(p, i, now)
}

// Shoot fires a projectile along the aim hint when given, else the last aim.
func (w *World) Shoot(p *Player, hasAim bool, aimX, aimY float64, now time.Time) string {
	if p.Stunned(now) {
		return w.reject(p, protocol.TypeShoot, protocol.ReasonStunned, now)
	}
	if !p.LastShotAt.IsZero() && now.Sub(p.LastShotAt) < w.tun.FireCooldown() {
		return w.reject(p, protocol.TypeShoot, protocol.ReasonCooldown, now)
	}
	p.LastShotAt = now

	if hasAim {
		if mag := math.Hypot(aimX, aimY); mag > minDirection {
			p.AimX, p.AimY = aimX/mag, aimY/mag
		}
	}
	if p.AimX == 0 && p.AimY == 0 {
		p.AimX, p.AimY = 1, 0
	}
	mag := math.Hypot(p.AimX, p.AimY)
	pr := Projectile{
		ID:        w.newEntityID("proj"),
		Owner:     p.ID,
		X:         p.X,
		Y:         p.Y,
		VX:        p.AimX / mag * w.tun.ProjectileSpeed,
		VY:        p.AimY / mag * w.tun.ProjectileSpeed,
		SpawnedAt: now,
	}
	rs := w.rooms[p.Room]
	rs.Projectiles = append(rs.Projectiles, pr)
	w.log.Printf("%s fired projectile %s in %s", p.ID, pr.ID, p.Room)
	w.emit(GameEvent{Type: EventShot, Player: p.ID, Room: p.Room, Target: pr.ID, X: pr.X, Y: pr.Y}, now)
	return ""
}
