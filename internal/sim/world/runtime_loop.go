package world

import (
	"context"
	"encoding/json"
	"time"

	"heist.gg/internal/protocol"
)

// Run owns the world until ctx is cancelled or Stop is called. Joins, leaves
// and intents are applied as they arrive; physics advances on the ticker.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.tun.TickInterval())
	defer ticker.Stop()

	w.lastStep = w.clock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req, w.clock())
		case id := <-w.leave:
			w.removePlayer(id, w.clock())
		case env := <-w.inbox:
			w.applyIntent(env, w.clock())
		case req := <-w.admin:
			req.resp <- w.adminState(w.clock())
		case <-ticker.C:
			now := w.clock()
			dt := now.Sub(w.lastStep)
			if maxDt := w.tun.MaxDt(); dt > maxDt {
				dt = maxDt
			}
			if dt < 0 {
				dt = 0
			}
			w.lastStep = now
			w.StepOnce(now, dt)
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances one tick and broadcasts. It must only be called from the
// goroutine that owns the world (Run, or a test).
func (w *World) StepOnce(now time.Time, dt time.Duration) uint64 {
	start := time.Now()
	w.step(now, dt.Seconds())
	w.broadcast(now)
	w.stepMS = float64(time.Since(start).Microseconds()) / 1000
	w.publishMetrics()
	return w.tick.Load()
}

func (w *World) handleJoin(req JoinRequest, now time.Time) {
	p := w.addPlayer("", req.Out, now)
	resp := JoinResponse{
		Welcome: protocol.WelcomeMsg{T: protocol.TypeWelcome, ID: p.ID, Tick: w.tick.Load()},
	}
	if snap, ok := w.SnapshotFor(p.ID, now); ok {
		if b, err := json.Marshal(snap); err == nil {
			resp.Snapshot = b
		}
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (w *World) broadcast(now time.Time) {
	w.eachPlayer(func(p *Player) {
		if p.out == nil {
			return
		}
		snap, ok := w.SnapshotFor(p.ID, now)
		if !ok {
			return
		}
		b, err := json.Marshal(snap)
		if err != nil {
			w.log.Printf("snapshot encode %s: %v", p.ID, err)
			return
		}
		sendLatest(p.out, b)
	})
}

// sendLatest never blocks: a full queue loses its oldest frame.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

// DrainPending applies everything already queued without blocking, in a fixed
// order: joins, then intents in arrival order, then leaves, then admin
// requests. It is for callers that own the world instead of Run.
func (w *World) DrainPending(now time.Time) int {
	n := 0
	for more := true; more; {
		select {
		case req := <-w.join:
			w.handleJoin(req, now)
			n++
		default:
			more = false
		}
	}
	for more := true; more; {
		select {
		case env := <-w.inbox:
			w.applyIntent(env, now)
			n++
		default:
			more = false
		}
	}
	for more := true; more; {
		select {
		case id := <-w.leave:
			w.removePlayer(id, now)
			n++
		default:
			more = false
		}
	}
	for more := true; more; {
		select {
		case req := <-w.admin:
			req.resp <- w.adminState(now)
			n++
		default:
			more = false
		}
	}
	return n
}
