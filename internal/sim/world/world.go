package world

import (
	"errors"
	"io"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/spatial"
	"heist.gg/internal/sim/tuning"
)

type Config struct {
	ID     string
	Seed   int64
	Tuning tuning.Tuning
	Maps   *maps.Registry

	// Optional.
	Clock   func() time.Time
	Logger  *log.Logger
	Variant string // first round's variant; random when empty
}

type JoinRequest struct {
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Snapshot []byte
}

type IntentEnvelope struct {
	PlayerID string
	Intent   protocol.Intent
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg   Config
	tun   tuning.Tuning
	reg   *maps.Registry
	rng   *rand.Rand
	clock func() time.Time
	log   *log.Logger

	events EventLogger
	rounds RoundLogger

	variant *maps.MapVariant
	doors   *spatial.Index
	rooms   map[string]*RoomState

	players map[string]*Player
	order   []string // join order; all per-player iteration follows it

	round    RoundState
	roundNum uint64
	tick     atomic.Uint64
	lastStep time.Time

	join  chan JoinRequest
	leave chan string
	inbox chan IntentEnvelope
	admin chan adminStateReq
	stop  chan struct{}

	metrics         atomic.Value // WorldMetrics
	rejected        map[string]uint64
	roundsCompleted uint64
	stepMS          float64
}

func New(cfg Config) (*World, error) {
	if cfg.Maps == nil || cfg.Maps.Len() == 0 {
		return nil, maps.ErrNoVariants
	}
	if cfg.Tuning.TickRateHz <= 0 {
		cfg.Tuning = tuning.Defaults()
	}
	if cfg.ID == "" {
		cfg.ID = "heist"
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Variant != "" {
		if _, ok := cfg.Maps.Get(cfg.Variant); !ok {
			return nil, errors.New("unknown map variant: " + cfg.Variant)
		}
	}

	w := &World{
		cfg:      cfg,
		tun:      cfg.Tuning,
		reg:      cfg.Maps,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		clock:    cfg.Clock,
		log:      cfg.Logger,
		players:  map[string]*Player{},
		join:     make(chan JoinRequest, 64),
		leave:    make(chan string, 64),
		inbox:    make(chan IntentEnvelope, 1024),
		admin:    make(chan adminStateReq, 8),
		stop:     make(chan struct{}),
		rejected: map[string]uint64{},
	}

	now := w.clock()
	var first *maps.MapVariant
	if cfg.Variant != "" {
		first, _ = cfg.Maps.Get(cfg.Variant)
	} else {
		first = cfg.Maps.Choose(w.rng, "")
	}
	w.beginRound(first, now)
	w.lastStep = now
	w.publishMetrics()
	return w, nil
}

func (w *World) SetEventLogger(l EventLogger) { w.events = l }
func (w *World) SetRoundLogger(l RoundLogger) { w.rounds = l }

func (w *World) Inbox() chan<- IntentEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) ID() string { return w.cfg.ID }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) TickRateHz() int { return w.tun.TickRateHz }

func (w *World) Tuning() tuning.Tuning { return w.tun }
