package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Players         int    `json:"players"`
	Phase           string `json:"phase"`
	Map             string `json:"map"`
	Round           uint64 `json:"round"`
	RoundsCompleted uint64 `json:"rounds_completed"`

	Entities    EntityCounts `json:"entities"`
	QueueDepths QueueDepths  `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	// Rejected intents by reason code, since start.
	Rejected map[string]uint64 `json:"rejected,omitempty"`
}

type EntityCounts struct {
	Items       int `json:"items"`
	FloorTraps  int `json:"floor_traps"`
	DoorTraps   int `json:"door_traps"`
	Bombs       int `json:"bombs"`
	Projectiles int `json:"projectiles"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics() {
	m := WorldMetrics{
		Tick:            w.tick.Load(),
		Players:         len(w.players),
		Phase:           w.round.Phase.String(),
		Map:             w.variant.Name,
		Round:           w.roundNum,
		RoundsCompleted: w.roundsCompleted,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS: w.stepMS,
	}
	for _, rs := range w.rooms {
		m.Entities.Items += len(rs.Items)
		m.Entities.FloorTraps += len(rs.FloorTraps)
		m.Entities.DoorTraps += len(rs.DoorTraps)
		m.Entities.Bombs += len(rs.Bombs)
		m.Entities.Projectiles += len(rs.Projectiles)
	}
	if len(w.rejected) > 0 {
		m.Rejected = make(map[string]uint64, len(w.rejected))
		for k, v := range w.rejected {
			m.Rejected[k] = v
		}
	}
	w.metrics.Store(m)
}
