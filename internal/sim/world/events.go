package world

import "time"

// Gameplay event types.
const (
	EventJoin          = "join"
	EventLeave         = "leave"
	EventMapChosen     = "map_chosen"
	EventDoor          = "door"
	EventPickup        = "pickup"
	EventSearch        = "search"
	EventDrop          = "drop"
	EventTrapKitSeeded = "trapkit_seeded"
	EventTrapPlaced    = "trap_placed"
	EventTrapTriggered = "trap_triggered"
	EventDoorArmed     = "door_trap_armed"
	EventDoorTriggered = "door_trap_triggered"
	EventBombPlaced    = "bomb_placed"
	EventBombDetonated = "bomb_detonated"
	EventDisguise      = "disguise"
	EventRadar         = "radar"
	EventShot          = "shot"
	EventHit           = "hit"
	EventKill          = "kill"
	EventRoundWon      = "round_won"
	EventRoundReset    = "round_reset"
	EventRejected      = "rejected"
)

// GameEvent is one structured gameplay record.
type GameEvent struct {
	Tick   uint64 `json:"tick"`
	TimeMS int64  `json:"ts_ms"`
	Round  uint64 `json:"round"`
	Map    string `json:"map"`

	Type   string  `json:"type"`
	Player string  `json:"player,omitempty"`
	Target string  `json:"target,omitempty"`
	Room   string  `json:"room,omitempty"`
	Item   string  `json:"item,omitempty"`
	Reason string  `json:"reason,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

type EventLogger interface {
	WriteEvent(e GameEvent) error
}

// RoundSummary is emitted once when a round is won.
type RoundSummary struct {
	Round     uint64        `json:"round"`
	Map       string        `json:"map"`
	StartedMS int64         `json:"started_ms"`
	EndedMS   int64         `json:"ended_ms"`
	EndTick   uint64        `json:"end_tick"`
	Winner    string        `json:"winner"`
	Reason    string        `json:"reason"`
	Players   []PlayerRound `json:"players"`
}

type PlayerRound struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
}

type RoundLogger interface {
	WriteRound(s RoundSummary) error
}

type teeEvents []EventLogger

func (t teeEvents) WriteEvent(e GameEvent) error {
	var first error
	for _, l := range t {
		if err := l.WriteEvent(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type teeRounds []RoundLogger

func (t teeRounds) WriteRound(s RoundSummary) error {
	var first error
	for _, l := range t {
		if err := l.WriteRound(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// TeeEvents fans events out to every non-nil logger.
func TeeEvents(ls ...EventLogger) EventLogger {
	var out teeEvents
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func TeeRounds(ls ...RoundLogger) RoundLogger {
	var out teeRounds
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (w *World) emit(e GameEvent, now time.Time) {
	if w.events == nil {
		return
	}
	e.Tick = w.tick.Load()
	e.TimeMS = now.UnixMilli()
	e.Round = w.roundNum
	if w.variant != nil {
		e.Map = w.variant.Name
	}
	if err := w.events.WriteEvent(e); err != nil {
		w.log.Printf("event log: %v", err)
	}
}

func (w *World) reject(p *Player, kind, reason string, now time.Time) string {
	w.rejected[reason]++
	id := ""
	if p != nil {
		id = p.ID
	}
	w.emit(GameEvent{Type: EventRejected, Player: id, Item: kind, Reason: reason}, now)
	return reason
}
