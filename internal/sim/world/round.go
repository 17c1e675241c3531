package world

import (
	"math"
	"time"

	"heist.gg/internal/sim/maps"
)

type Phase uint8

const (
	PhaseActive Phase = iota
	PhaseFrozen
)

func (p Phase) String() string {
	if p == PhaseFrozen {
		return "frozen"
	}
	return "active"
}

const (
	WinEscape = "escape"
	WinScore  = "score"
)

type Winner struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

type RoundState struct {
	Phase       Phase
	Winner      *Winner
	FrozenUntil time.Time
	StartedAt   time.Time
}

// beginRound installs v as the active variant, rebuilds all rooms and respawns
// every connected player.
func (w *World) beginRound(v *maps.MapVariant, now time.Time) {
	w.variant = v
	w.resetRooms()
	w.roundNum++
	w.round = RoundState{Phase: PhaseActive, StartedAt: now}
	w.eachPlayer(func(p *Player) {
		w.respawn(p)
		if !w.tun.PersistScore {
			p.Score = 0
		}
		p.roundStartScore = p.Score
		p.kills, p.deaths = 0, 0
	})
	w.log.Printf("map set to %s (round %d)", v.Name, w.roundNum)
	w.emit(GameEvent{Type: EventMapChosen}, now)
}

func (w *World) canEscape(p *Player) bool {
	if p.Room != w.variant.ExitRoom {
		return false
	}
	if !p.hasKind(maps.KindIntel) || !p.hasKind(maps.KindKey) {
		return false
	}
	anchor, ok := w.variant.ExitAnchor()
	if !ok {
		return false
	}
	return math.Hypot(p.X-anchor.X, p.Y-anchor.Y) <= w.tun.WinRadius
}

// checkWin evaluates escape for every player before the score race.
func (w *World) checkWin(now time.Time) {
	if w.round.Phase != PhaseActive {
		return
	}
	for _, id := range w.order {
		p := w.players[id]
		if p != nil && w.canEscape(p) {
			p.Score += w.tun.ScorePerWin
			w.startFreeze(p, WinEscape, now)
			return
		}
	}
	if !w.tun.ScoreRace {
		return
	}
	for _, id := range w.order {
		p := w.players[id]
		if p != nil && p.Score-p.roundStartScore >= w.tun.ScoreTarget {
			w.startFreeze(p, WinScore, now)
			return
		}
	}
}

func (w *World) startFreeze(winner *Player, reason string, now time.Time) {
	until := now.Add(w.tun.Freeze())
	w.round.Phase = PhaseFrozen
	w.round.Winner = &Winner{PlayerID: winner.ID, Reason: reason}
	w.round.FrozenUntil = until
	w.eachPlayer(func(p *Player) {
		p.VX, p.VY = 0, 0
		p.StunnedUntil = until
	})
	w.roundsCompleted++
	w.log.Printf("winner (%s) is %s", reason, winner.ID)
	w.emit(GameEvent{Type: EventRoundWon, Player: winner.ID, Room: winner.Room, Reason: reason}, now)

	if w.rounds == nil {
		return
	}
	s := RoundSummary{
		Round:     w.roundNum,
		Map:       w.variant.Name,
		StartedMS: w.round.StartedAt.UnixMilli(),
		EndedMS:   now.UnixMilli(),
		EndTick:   w.tick.Load(),
		Winner:    winner.ID,
		Reason:    reason,
	}
	w.eachPlayer(func(p *Player) {
		s.Players = append(s.Players, PlayerRound{ID: p.ID, Score: p.Score, Kills: p.kills, Deaths: p.deaths})
	})
	if err := w.rounds.WriteRound(s); err != nil {
		w.log.Printf("round log: %v", err)
	}
}

// maybeReset starts a new round on a different variant once the freeze ends.
func (w *World) maybeReset(now time.Time) {
	if w.round.Phase != PhaseFrozen || now.Before(w.round.FrozenUntil) {
		return
	}
	prev := w.variant.Name
	w.beginRound(w.reg.Choose(w.rng, prev), now)
	w.log.Printf("round reset complete")
	w.emit(GameEvent{Type: EventRoundReset, Reason: prev}, now)
}

func (w *World) Phase() Phase { return w.round.Phase }
