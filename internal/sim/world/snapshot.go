package world

import (
	"math"
	"time"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
)

// SnapshotFor projects the world into what player id may see: its own room
// only, its own traps only, and disguised players masked.
func (w *World) SnapshotFor(id string, now time.Time) (protocol.SnapshotMsg, bool) {
	me := w.players[id]
	if me == nil {
		return protocol.SnapshotMsg{}, false
	}
	tmpl := w.variant.Room(me.Room)
	rs := w.rooms[me.Room]

	s := protocol.SnapshotMsg{
		T:       protocol.TypeSnapshot,
		Tick:    w.tick.Load(),
		You:     me.ID,
		MapName: w.variant.Name,
		Room:    me.Room,
		RoomW:   tmpl.W,
		RoomH:   tmpl.H,

		Doors:         make([]protocol.DoorView, 0, len(tmpl.Doors)),
		Items:         make([]protocol.ItemView, 0, len(rs.Items)),
		Searchables:   make([]protocol.SearchableView, 0, len(rs.Searchables)),
		Traps:         []protocol.TrapView{},
		Bombs:         make([]protocol.BombView, 0, len(rs.Bombs)),
		Projectiles:   make([]protocol.ProjectileView, 0, len(rs.Projectiles)),
		Players:       []protocol.PlayerView{},
		YourInventory: make([]protocol.InventoryView, 0, len(me.Inventory)),

		YouScore:    me.Score,
		ScoreTarget: w.tun.ScoreTarget,
		YourHealth:  me.Health,
		ShotsToKill: w.tun.ShotsToKill,
	}

	for _, d := range tmpl.Doors {
		s.Doors = append(s.Doors, protocol.DoorView{X: d.X, Y: d.Y, W: d.W, H: d.H})
	}
	for _, it := range rs.Items {
		s.Items = append(s.Items, protocol.ItemView{ID: it.Kind.String(), X: it.X, Y: it.Y, Label: it.Kind.Label()})
	}
	for _, o := range rs.Searchables {
		s.Searchables = append(s.Searchables, protocol.SearchableView{ID: o.ID, X: o.X, Y: o.Y, Label: o.Label, Used: o.Used})
	}
	for _, t := range rs.FloorTraps {
		if t.Owner != me.ID {
			continue
		}
		s.Traps = append(s.Traps, protocol.TrapView{ID: t.ID, Kind: "floor", X: t.X, Y: t.Y, Owner: t.Owner})
	}
	for _, t := range rs.DoorTraps {
		if t.Owner != me.ID {
			continue
		}
		c := tmpl.Doors[t.DoorIndex].Center()
		door := t.DoorIndex
		s.Traps = append(s.Traps, protocol.TrapView{ID: t.ID, Kind: "door", X: c.X, Y: c.Y, Owner: t.Owner, Door: &door})
	}
	for _, b := range rs.Bombs {
		s.Bombs = append(s.Bombs, protocol.BombView{ID: b.ID, X: b.X, Y: b.Y, Owner: b.Owner, Armed: b.Armed(now)})
	}
	for _, pr := range rs.Projectiles {
		s.Projectiles = append(s.Projectiles, protocol.ProjectileView{ID: pr.ID, X: pr.X, Y: pr.Y})
	}

	w.eachPlayer(func(p *Player) {
		if p.Room != me.Room {
			return
		}
		v := protocol.PlayerView{
			ID:      p.ID,
			ShortID: p.ShortID,
			Room:    p.Room,
			X:       math.Round(p.X),
			Y:       math.Round(p.Y),
			Color:   p.Color,
			Score:   p.Score,
		}
		if p.ID != me.ID && p.Disguised(now) {
			v.ID = p.maskedID()
			v.ShortID = disguiseShortID
			v.Color = disguiseColor
		}
		if p.Stunned(now) {
			v.IsStunned = true
			v.StunMsRemaining = p.StunnedUntil.Sub(now).Milliseconds()
		}
		s.Players = append(s.Players, v)
	})

	for _, it := range me.Inventory {
		s.YourInventory = append(s.YourInventory, protocol.InventoryView{ID: it.Kind.String(), Label: it.Kind.Label()})
	}

	if win := w.round.Winner; win != nil {
		s.Winner = &protocol.WinnerView{ID: win.PlayerID, Type: win.Reason}
	}

	if me.RadarOn(now) {
		s.IntelLocation = w.locate(maps.KindIntel, me, now)
		s.KeyLocation = w.locate(maps.KindKey, me, now)
		s.TrapKitLocation = w.locate(maps.KindTrapKit, me, now)
	}
	return s, true
}

// locate finds an item kind on any floor first, then in any inventory. A
// disguised carrier is reported masked to everyone but itself.
func (w *World) locate(k maps.ItemKind, me *Player, now time.Time) *protocol.LocationView {
	for _, name := range w.variant.RoomNames() {
		for _, it := range w.rooms[name].Items {
			if it.Kind == k {
				return &protocol.LocationView{Room: name}
			}
		}
	}
	for _, id := range w.order {
		p := w.players[id]
		if p != nil && p.hasKind(k) {
			carrier := p.ShortID
			if p.ID != me.ID && p.Disguised(now) {
				carrier = disguiseShortID
			}
			return &protocol.LocationView{Room: p.Room, CarriedBy: carrier}
		}
	}
	return nil
}
