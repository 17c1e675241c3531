package world

import (
	"math"
	"time"

	"heist.gg/internal/sim/maps"
)

// step advances the simulation by dt seconds. now is sampled once by the
// caller and used for every timer comparison in the tick.
func (w *World) step(now time.Time, dt float64) {
	frozen := w.round.Phase == PhaseFrozen
	if frozen {
		w.eachPlayer(func(p *Player) {
			p.VX, p.VY = 0, 0
			p.AimX, p.AimY = 1, 0
		})
	}

	w.eachPlayer(func(p *Player) {
		if frozen || p.Stunned(now) {
			p.VX, p.VY = 0, 0
		} else {
			p.X += p.VX * dt
			p.Y += p.VY * dt
		}
		w.clamp(p)

		if !frozen && !p.Stunned(now) {
			w.crossDoor(p, now)
		}
		w.autoPickup(p, now)
		if !frozen {
			w.checkFloorTraps(p, now)
			w.checkBombs(p, now)
		}
	})

	w.stepProjectiles(now, dt)

	if w.round.Phase == PhaseActive {
		w.checkWin(now)
	} else {
		w.maybeReset(now)
	}
	w.tick.Add(1)
}

// crossDoor moves p through at most one door, firing any door trap first.
func (w *World) crossDoor(p *Player, now time.Time) {
	idx, ok := w.doors.Room(p.Room).DoorAt(p.X, p.Y)
	if !ok {
		return
	}
	door := w.variant.Room(p.Room).Doors[idx]
	w.triggerDoorTrap(p, idx, now)

	from := p.Room
	p.Room = door.TargetRoom
	p.X, p.Y = door.TargetX, door.TargetY
	w.clamp(p)
	w.log.Printf("%s goes through door %s -> %s", p.ID, from, p.Room)
	w.emit(GameEvent{Type: EventDoor, Player: p.ID, Room: p.Room, Target: from, X: p.X, Y: p.Y}, now)
}

func (w *World) triggerDoorTrap(p *Player, doorIdx int, now time.Time) {
	rs := w.rooms[p.Room]
	for i, t := range rs.DoorTraps {
		if !t.Armed || t.DoorIndex != doorIdx || t.Owner == p.ID {
			continue
		}
		rs.DoorTraps = removeAt(rs.DoorTraps, i)
		p.StunnedUntil = now.Add(w.tun.DoorTrapStun())
		p.VX, p.VY = 0, 0
		w.log.Printf("door trap triggered: door %d in %s hit %s", doorIdx, p.Room, p.ID)
		w.emit(GameEvent{Type: EventDoorTriggered, Player: t.Owner, Target: p.ID, Room: p.Room, X: p.X, Y: p.Y}, now)

		if n := len(p.Inventory); n > 0 {
			it := p.removeSlot(w.rng.Intn(n))
			rs.Items = append(rs.Items, Item{Kind: it.Kind, X: p.X, Y: p.Y})
			w.log.Printf("%s dropped %s in %s", p.ID, it.Kind.Label(), p.Room)
			w.emit(GameEvent{Type: EventDrop, Player: p.ID, Room: p.Room, Item: it.Kind.String(), X: p.X, Y: p.Y}, now)
		}
		return
	}
}

// autoPickup collects every ordinary item in range. The exit anchor is a
// landmark and is never auto-collected.
func (w *World) autoPickup(p *Player, now time.Time) {
	if p.Stunned(now) {
		return
	}
	rs := w.rooms[p.Room]
	for i := len(rs.Items) - 1; i >= 0; i-- {
		it := rs.Items[i]
		if it.Kind == maps.KindEscape {
			continue
		}
		if math.Hypot(p.X-it.X, p.Y-it.Y) <= w.tun.PickupRadius {
			w.takeFloorItem(p, rs, i, now)
		}
	}
}

func (w *World) checkFloorTraps(p *Player, now time.Time) {
	rs := w.rooms[p.Room]
	for i, t := range rs.FloorTraps {
		if !t.Armed || t.Owner == p.ID {
			continue
		}
		if math.Hypot(p.X-t.X, p.Y-t.Y) > w.tun.TrapTriggerRadius {
			continue
		}
		rs.FloorTraps = removeAt(rs.FloorTraps, i)
		p.StunnedUntil = now.Add(w.tun.FloorTrapStun())
		p.VX, p.VY = 0, 0
		w.log.Printf("floor trap %s triggered on %s in %s", t.ID, p.ID, p.Room)
		w.emit(GameEvent{Type: EventTrapTriggered, Player: t.Owner, Target: p.ID, Room: p.Room, X: t.X, Y: t.Y}, now)
		return
	}
}

func (w *World) checkBombs(p *Player, now time.Time) {
	rs := w.rooms[p.Room]
	for i := len(rs.Bombs) - 1; i >= 0; i-- {
		b := rs.Bombs[i]
		if !b.Armed(now) || b.Owner == p.ID {
			continue
		}
		if math.Hypot(p.X-b.X, p.Y-b.Y) > w.tun.BombTriggerRadius {
			continue
		}
		rs.Bombs = removeAt(rs.Bombs, i)
		w.log.Printf("bomb %s detonated on %s in %s", b.ID, p.ID, p.Room)
		w.emit(GameEvent{Type: EventBombDetonated, Player: b.Owner, Target: p.ID, Room: p.Room, X: b.X, Y: b.Y}, now)
		w.kill(p, b.Owner, now)
		return
	}
}

// kill credits killerID (if still connected), scatters p's inventory and
// respawns p.
func (w *World) kill(p *Player, killerID string, now time.Time) {
	if k := w.players[killerID]; k != nil && k != p {
		k.Score++
		k.kills++
	}
	p.deaths++
	w.log.Printf("player %s killed by %s", p.ID, killerID)
	w.emit(GameEvent{Type: EventKill, Player: killerID, Target: p.ID, Room: p.Room, X: p.X, Y: p.Y}, now)
	w.dropInventory(p, now)
	w.respawn(p)
}

func (w *World) stepProjectiles(now time.Time, dt float64) {
	hit := w.tun.ProjectileHitDistance()
	for _, name := range w.variant.RoomNames() {
		rs := w.rooms[name]
		if len(rs.Projectiles) == 0 {
			continue
		}
		r := w.variant.Room(name)
		for i := len(rs.Projectiles) - 1; i >= 0; i-- {
			pr := &rs.Projectiles[i]
			pr.X += pr.VX * dt
			pr.Y += pr.VY * dt
			if pr.X < 0 || pr.X > r.W || pr.Y < 0 || pr.Y > r.H {
				rs.Projectiles = removeAt(rs.Projectiles, i)
				continue
			}
			for _, id := range w.order {
				p := w.players[id]
				if p == nil || p.Room != name || p.ID == pr.Owner {
					continue
				}
				if math.Hypot(p.X-pr.X, p.Y-pr.Y) >= hit {
					continue
				}
				owner := pr.Owner
				rs.Projectiles = removeAt(rs.Projectiles, i)
				p.Health--
				w.log.Printf("projectile from %s hit %s", owner, p.ID)
				w.emit(GameEvent{Type: EventHit, Player: owner, Target: p.ID, Room: name, X: p.X, Y: p.Y}, now)
				if p.Health <= 0 {
					w.kill(p, owner, now)
				}
				break
			}
		}
	}
}
