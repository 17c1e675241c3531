package main

import (
	"fmt"
	"io"
	"sort"

	"heist.gg/internal/persistence/indexdb"
	"heist.gg/internal/sim/world"
)

type metricsSources struct {
	worldID    string
	world      world.WorldMetrics
	conns      int64
	dropped    map[string]uint64
	index      *indexdb.Stats
	eventsLost uint64
}

// writeMetrics renders the Prometheus text exposition format.
func writeMetrics(rw io.Writer, s metricsSources) {
	id := s.worldID
	m := s.world

	fmt.Fprintf(rw, "# HELP heist_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE heist_world_tick gauge\n")
	fmt.Fprintf(rw, "heist_world_tick{world=%q} %d\n", id, m.Tick)

	fmt.Fprintf(rw, "# HELP heist_world_players Current number of players in the world.\n")
	fmt.Fprintf(rw, "# TYPE heist_world_players gauge\n")
	fmt.Fprintf(rw, "heist_world_players{world=%q} %d\n", id, m.Players)

	fmt.Fprintf(rw, "# HELP heist_ws_connections Open websocket connections.\n")
	fmt.Fprintf(rw, "# TYPE heist_ws_connections gauge\n")
	fmt.Fprintf(rw, "heist_ws_connections{world=%q} %d\n", id, s.conns)

	frozen := 0
	if m.Phase == "frozen" {
		frozen = 1
	}
	fmt.Fprintf(rw, "# HELP heist_round_frozen 1 while the post-victory freeze is running.\n")
	fmt.Fprintf(rw, "# TYPE heist_round_frozen gauge\n")
	fmt.Fprintf(rw, "heist_round_frozen{world=%q,map=%q} %d\n", id, m.Map, frozen)

	fmt.Fprintf(rw, "# HELP heist_round_number Current round number.\n")
	fmt.Fprintf(rw, "# TYPE heist_round_number gauge\n")
	fmt.Fprintf(rw, "heist_round_number{world=%q} %d\n", id, m.Round)

	fmt.Fprintf(rw, "# HELP heist_rounds_completed_total Rounds won since start.\n")
	fmt.Fprintf(rw, "# TYPE heist_rounds_completed_total counter\n")
	fmt.Fprintf(rw, "heist_rounds_completed_total{world=%q} %d\n", id, m.RoundsCompleted)

	fmt.Fprintf(rw, "# HELP heist_world_entities Live entities by kind.\n")
	fmt.Fprintf(rw, "# TYPE heist_world_entities gauge\n")
	fmt.Fprintf(rw, "heist_world_entities{world=%q,kind=%q} %d\n", id, "items", m.Entities.Items)
	fmt.Fprintf(rw, "heist_world_entities{world=%q,kind=%q} %d\n", id, "floor_traps", m.Entities.FloorTraps)
	fmt.Fprintf(rw, "heist_world_entities{world=%q,kind=%q} %d\n", id, "door_traps", m.Entities.DoorTraps)
	fmt.Fprintf(rw, "heist_world_entities{world=%q,kind=%q} %d\n", id, "bombs", m.Entities.Bombs)
	fmt.Fprintf(rw, "heist_world_entities{world=%q,kind=%q} %d\n", id, "projectiles", m.Entities.Projectiles)

	fmt.Fprintf(rw, "# HELP heist_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE heist_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "heist_world_queue_depth{world=%q,queue=%q} %d\n", id, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "heist_world_queue_depth{world=%q,queue=%q} %d\n", id, "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "heist_world_queue_depth{world=%q,queue=%q} %d\n", id, "leave", m.QueueDepths.Leave)

	fmt.Fprintf(rw, "# HELP heist_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE heist_world_step_ms gauge\n")
	fmt.Fprintf(rw, "heist_world_step_ms{world=%q} %.3f\n", id, m.StepMS)

	fmt.Fprintf(rw, "# HELP heist_intents_rejected_total Intents rejected by the world, by reason.\n")
	fmt.Fprintf(rw, "# TYPE heist_intents_rejected_total counter\n")
	for _, k := range sortedKeys(m.Rejected) {
		fmt.Fprintf(rw, "heist_intents_rejected_total{world=%q,reason=%q} %d\n", id, k, m.Rejected[k])
	}

	fmt.Fprintf(rw, "# HELP heist_ws_dropped_total Inbound frames dropped before reaching the world, by reason.\n")
	fmt.Fprintf(rw, "# TYPE heist_ws_dropped_total counter\n")
	for _, k := range sortedKeys(s.dropped) {
		fmt.Fprintf(rw, "heist_ws_dropped_total{world=%q,reason=%q} %d\n", id, k, s.dropped[k])
	}

	fmt.Fprintf(rw, "# HELP heist_event_log_dropped_total Gameplay events dropped by the event log writer.\n")
	fmt.Fprintf(rw, "# TYPE heist_event_log_dropped_total counter\n")
	fmt.Fprintf(rw, "heist_event_log_dropped_total{world=%q} %d\n", id, s.eventsLost)

	if s.index == nil {
		return
	}
	fmt.Fprintf(rw, "# HELP heist_index_queue_depth Pending sqlite index writes.\n")
	fmt.Fprintf(rw, "# TYPE heist_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "heist_index_queue_depth %d\n", s.index.QueueDepth)

	fmt.Fprintf(rw, "# HELP heist_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE heist_index_dropped_total counter\n")
	fmt.Fprintf(rw, "heist_index_dropped_total{kind=%q} %d\n", "round", s.index.DropRoundTotal)
	fmt.Fprintf(rw, "heist_index_dropped_total{kind=%q} %d\n", "kill", s.index.DropKillTotal)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
