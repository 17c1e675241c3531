package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/tuning"
	"heist.gg/internal/sim/world"
)

const (
	maxFrameBytes = 4 << 10
	readTimeout   = 60 * time.Second
	writeTimeout  = 5 * time.Second
	joinTimeout   = 5 * time.Second
	abandonWait   = time.Minute
)

type Server struct {
	world     *world.World
	log       *log.Logger
	validator *protocol.Validator
	tun       tuning.Tuning

	upgrader websocket.Upgrader

	conns atomic.Int64

	mu      sync.Mutex
	dropped map[string]uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world:     w,
		log:       logger,
		validator: protocol.MustValidator(),
		tun:       w.Tuning(),
		dropped:   map[string]uint64{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxFrameBytes,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// Connections is the number of open player sockets.
func (s *Server) Connections() int64 { return s.conns.Load() }

// Dropped returns inbound frames dropped at the boundary, by reason code.
func (s *Server) Dropped() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.dropped))
	for k, v := range s.dropped {
		out[k] = v
	}
	return out
}

func (s *Server) drop(reason string) {
	s.mu.Lock()
	s.dropped[reason]++
	s.mu.Unlock()
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxFrameBytes)

		s.conns.Add(1)
		defer s.conns.Add(-1)

		playerID, out := s.join(r.Context(), conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		limiter := rate.NewLimiter(rate.Limit(s.tun.IntentRateLimit), s.tun.IntentBurst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if errors.Is(err, websocket.ErrReadLimit) {
					s.drop(protocol.ReasonMalformed)
				}
				cancel()
				break
			}
			if !limiter.Allow() {
				s.drop(protocol.ReasonRateLimit)
				continue
			}
			in, err := s.validator.DecodeIntent(msg)
			if err != nil {
				if errors.Is(err, protocol.ErrUnknownType) {
					s.drop(protocol.ReasonUnknownType)
				} else {
					s.drop(protocol.ReasonMalformed)
				}
				continue
			}
			select {
			case s.world.Inbox() <- world.IntentEnvelope{PlayerID: playerID, Intent: in}:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.world.Leave() <- playerID
		s.log.Printf("connection closed %s", playerID)
	}
}

// join registers a fresh player and sends the welcome followed by the first
// snapshot. Identity is assigned by the world; the client has no say.
func (s *Server) join(ctx context.Context, conn *websocket.Conn) (playerID string, out chan []byte) {
	out = make(chan []byte, s.tun.OutQueue)
	respCh := make(chan world.JoinResponse, 1)

	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	select {
	case s.world.Join() <- world.JoinRequest{Out: out, Resp: respCh}:
	case <-ctx.Done():
		return "", nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-ctx.Done():
		// The world already holds the request; once it answers, undo the join.
		go s.abandonJoin(respCh)
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.ID
		return "", nil
	}
	if len(resp.Snapshot) > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, resp.Snapshot); err != nil {
			s.world.Leave() <- resp.Welcome.ID
			return "", nil
		}
	}
	s.log.Printf("connection open %s", resp.Welcome.ID)
	return resp.Welcome.ID, out
}

func (s *Server) abandonJoin(respCh <-chan world.JoinResponse) {
	select {
	case resp := <-respCh:
		s.world.Leave() <- resp.Welcome.ID
		s.log.Printf("join abandoned %s", resp.Welcome.ID)
	case <-time.After(abandonWait):
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
