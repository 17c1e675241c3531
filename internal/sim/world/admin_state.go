package world

import (
	"context"
	"time"
)

// AdminState is a full, unredacted dump of the live world for operators.
type AdminState struct {
	Tick        uint64               `json:"tick"`
	Map         string               `json:"map"`
	Round       uint64               `json:"round"`
	Phase       string               `json:"phase"`
	Winner      *Winner              `json:"winner,omitempty"`
	FrozenUntil int64                `json:"frozen_until_ms,omitempty"`
	Players     []AdminPlayer        `json:"players"`
	Rooms       map[string]AdminRoom `json:"rooms"`
}

type AdminPlayer struct {
	ID        string   `json:"id"`
	Room      string   `json:"room"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Score     int      `json:"score"`
	Health    int      `json:"health"`
	Inventory []string `json:"inventory"`
	Stunned   bool     `json:"stunned"`
	Disguised bool     `json:"disguised"`
	Radar     bool     `json:"radar"`
	LastSeq   uint64   `json:"last_seq"`
}

type AdminRoom struct {
	Items       []Item       `json:"items"`
	Searchables []Searchable `json:"searchables"`
	FloorTraps  []Trap       `json:"floor_traps"`
	DoorTraps   []DoorTrap   `json:"door_traps"`
	Bombs       []Bomb       `json:"bombs"`
	Projectiles []Projectile `json:"projectiles"`
}

type adminStateReq struct {
	resp chan AdminState
}

// RequestAdminState asks the world loop for a state dump.
func (w *World) RequestAdminState(ctx context.Context) (AdminState, error) {
	req := adminStateReq{resp: make(chan AdminState, 1)}
	select {
	case w.admin <- req:
	case <-ctx.Done():
		return AdminState{}, ctx.Err()
	}
	select {
	case s := <-req.resp:
		return s, nil
	case <-ctx.Done():
		return AdminState{}, ctx.Err()
	}
}

func (w *World) adminState(now time.Time) AdminState {
	s := AdminState{
		Tick:   w.tick.Load(),
		Map:    w.variant.Name,
		Round:  w.roundNum,
		Phase:  w.round.Phase.String(),
		Winner: w.round.Winner,
		Rooms:  make(map[string]AdminRoom, len(w.rooms)),
	}
	if w.round.Phase == PhaseFrozen {
		s.FrozenUntil = w.round.FrozenUntil.UnixMilli()
	}
	w.eachPlayer(func(p *Player) {
		ap := AdminPlayer{
			ID:        p.ID,
			Room:      p.Room,
			X:         p.X,
			Y:         p.Y,
			Score:     p.Score,
			Health:    p.Health,
			Inventory: make([]string, 0, len(p.Inventory)),
			Stunned:   p.Stunned(now),
			Disguised: p.Disguised(now),
			Radar:     p.RadarOn(now),
			LastSeq:   p.LastSeq,
		}
		for _, it := range p.Inventory {
			ap.Inventory = append(ap.Inventory, it.Kind.String())
		}
		s.Players = append(s.Players, ap)
	})
	for name, rs := range w.rooms {
		s.Rooms[name] = AdminRoom{
			Items:       append([]Item(nil), rs.Items...),
			Searchables: append([]Searchable(nil), rs.Searchables...),
			FloorTraps:  append([]Trap(nil), rs.FloorTraps...),
			DoorTraps:   append([]DoorTrap(nil), rs.DoorTraps...),
			Bombs:       append([]Bomb(nil), rs.Bombs...),
			Projectiles: append([]Projectile(nil), rs.Projectiles...),
		}
	}
	return s
}
