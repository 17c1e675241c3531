package worldtest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
	world "heist.gg/internal/sim/world"
)

// Harness drives a world through its exported APIs only: joins, leaves and
// intents go through the world's channels and are applied by DrainPending,
// ticks advance on a fake clock, and every player's frames are decoded from
// its outbound queue.
type Harness struct {
	T   *testing.T
	W   *world.World
	Now time.Time

	sessions map[string]*session
	order    []string
}

type session struct {
	ID     string
	Out    chan []byte
	Frames [][]byte
	Last   protocol.SnapshotMsg
	seq    uint64
}

var Epoch = time.Unix(1_700_000_000, 0).UTC()

func NewHarness(t *testing.T, seed int64, variant string) *Harness {
	t.Helper()
	reg, err := maps.Default()
	if err != nil {
		t.Fatalf("maps.Default: %v", err)
	}
	h := &Harness{T: t, Now: Epoch, sessions: map[string]*session{}}
	w, err := world.New(world.Config{
		Seed:    seed,
		Tuning:  tuning.Defaults(),
		Maps:    reg,
		Variant: variant,
		Clock:   func() time.Time { return h.Now },
	})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	h.W = w
	return h
}

// Join connects a new player and returns its id. The welcome's initial
// snapshot becomes the session's first frame.
func (h *Harness) Join() string {
	h.T.Helper()
	out := make(chan []byte, 64)
	resp := make(chan world.JoinResponse, 1)
	h.W.Join() <- world.JoinRequest{Out: out, Resp: resp}
	h.W.DrainPending(h.Now)

	var jr world.JoinResponse
	select {
	case jr = <-resp:
	default:
		h.T.Fatalf("join was not answered")
	}
	if jr.Welcome.ID == "" || len(jr.Snapshot) == 0 {
		h.T.Fatalf("bad join response: %+v", jr.Welcome)
	}
	s := &session{ID: jr.Welcome.ID, Out: out}
	h.sessions[s.ID] = s
	h.order = append(h.order, s.ID)
	h.record(s, jr.Snapshot)
	return s.ID
}

func (h *Harness) Leave(id string) {
	h.W.Leave() <- id
	h.W.DrainPending(h.Now)
	delete(h.sessions, id)
	for i, x := range h.order {
		if x == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Send queues one intent and applies it at the current time.
func (h *Harness) Send(id string, in protocol.Intent) {
	h.W.Inbox() <- world.IntentEnvelope{PlayerID: id, Intent: in}
	h.W.DrainPending(h.Now)
}

// Move sends an input with the session's next seq.
func (h *Harness) Move(id string, dx, dy float64) {
	h.T.Helper()
	s := h.session(id)
	s.seq++
	h.Send(id, protocol.Intent{Kind: protocol.IntentInput, Seq: s.seq, DX: dx, DY: dy})
}

// Tick advances the fake clock by one tick interval, steps the world and
// collects the broadcast frames.
func (h *Harness) Tick() {
	dt := h.W.Tuning().TickInterval()
	h.Now = h.Now.Add(dt)
	h.W.StepOnce(h.Now, dt)
	h.drain()
}

func (h *Harness) TickN(n int) {
	for i := 0; i < n; i++ {
		h.Tick()
	}
}

func (h *Harness) Last(id string) protocol.SnapshotMsg {
	h.T.Helper()
	return h.session(id).Last
}

// Frames returns every raw frame a player has received, in order.
func (h *Harness) Frames(id string) [][]byte {
	h.T.Helper()
	return h.session(id).Frames
}

// Self returns the player's own view from its latest snapshot.
func (h *Harness) Self(id string) protocol.PlayerView {
	h.T.Helper()
	snap := h.Last(id)
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}
	h.T.Fatalf("player %s missing from its own snapshot", id)
	return protocol.PlayerView{}
}

// State fetches the unredacted admin dump through the world's admin channel.
func (h *Harness) State() world.AdminState {
	h.T.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := make(chan world.AdminState, 1)
	go func() {
		s, err := h.W.RequestAdminState(ctx)
		if err == nil {
			got <- s
		}
	}()
	for {
		h.W.DrainPending(h.Now)
		select {
		case s := <-got:
			return s
		case <-ctx.Done():
			h.T.Fatalf("admin state: %v", ctx.Err())
		case <-time.After(time.Millisecond):
		}
	}
}

func (h *Harness) session(id string) *session {
	s := h.sessions[id]
	if s == nil {
		h.T.Fatalf("unknown player id: %q", id)
	}
	return s
}

func (h *Harness) drain() {
	for _, id := range h.order {
		s := h.sessions[id]
		for more := true; more; {
			select {
			case b := <-s.Out:
				h.record(s, b)
			default:
				more = false
			}
		}
	}
}

func (h *Harness) record(s *session, b []byte) {
	h.T.Helper()
	var snap protocol.SnapshotMsg
	if err := json.Unmarshal(b, &snap); err != nil {
		h.T.Fatalf("decode frame for %s: %v", s.ID, err)
	}
	if snap.T != protocol.TypeSnapshot || snap.You != s.ID {
		h.T.Fatalf("frame for %s has t=%q you=%q", s.ID, snap.T, snap.You)
	}
	s.Frames = append(s.Frames, b)
	s.Last = snap
}
