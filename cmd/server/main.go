package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	persistlog "heist.gg/internal/persistence/log"
	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
	"heist.gg/internal/sim/world"
	"heist.gg/internal/transport/ws"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "http listen address")
		worldID       = flag.String("world", "heist", "world id (metrics label)")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed for spawns, loot and map rotation")
		dataDir       = flag.String("data", "./data", "runtime data directory")
		tuningPath    = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (missing file: defaults)")
		mapsPath      = flag.String("maps", "", "path to a map variants yaml (default: embedded set)")
		variant       = flag.String("variant", "", "first round's map variant (default: random)")
		disableDB     = flag.Bool("disable_db", false, "disable the sqlite round/kill index")
		disableEvents = flag.Bool("disable_events", false, "disable the jsonl event and round logs")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(strings.TrimSpace(*tuningPath))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	reg, err := maps.Load(strings.TrimSpace(*mapsPath))
	if err != nil {
		logger.Fatalf("load maps: %v", err)
	}
	logger.Printf("maps: %s (digest %s)", strings.Join(reg.Names(), ", "), reg.Digest()[:12])

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertConfig(tune, reg); err != nil {
			logger.Printf("index backend: upsert config: %v", err)
		}
	}

	w, err := world.New(world.Config{
		ID:      *worldID,
		Seed:    *seed,
		Tuning:  tune,
		Maps:    reg,
		Logger:  log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds),
		Variant: strings.TrimSpace(*variant),
	})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	var (
		eventLog *persistlog.EventLogger
		roundLog *persistlog.RoundLogger
	)
	if !*disableEvents {
		errLog := func(err error) { logger.Printf("event log: %v", err) }
		eventLog = persistlog.NewEventLogger(*dataDir, errLog)
		roundLog = persistlog.NewRoundLogger(*dataDir, errLog)
		defer eventLog.Close()
		defer roundLog.Close()
	}
	w.SetEventLogger(world.TeeEvents(eventSinks(eventLog, idx)...))
	w.SetRoundLogger(world.TeeRounds(roundSinks(roundLog, idx)...))

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		src := metricsSources{
			worldID: *worldID,
			world:   w.Metrics(),
			conns:   wsSrv.Connections(),
			dropped: wsSrv.Dropped(),
		}
		if eventLog != nil {
			src.eventsLost = eventLog.Dropped()
		}
		if idx != nil {
			st := idx.Stats()
			src.index = &st
		}
		writeMetrics(rw, src)
	})

	enableAdminHTTP := envBool("HEIST_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("HEIST_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		mux.HandleFunc("/admin/v1/state", adminStateHandler(*worldID, w))
	} else {
		logger.Printf("admin endpoints disabled (HEIST_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (tick %d Hz, seed %d)", *addr, tune.TickRateHz, *seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-worldDone
	logger.Printf("shutdown complete")
}

func adminStateHandler(worldID string, w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		st, err := w.RequestAdminState(ctx)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string             `json:"world_id"`
			Metrics world.WorldMetrics `json:"metrics"`
			State   world.AdminState   `json:"state"`
		}{
			WorldID: worldID,
			Metrics: w.Metrics(),
			State:   st,
		}
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// eventSinks drops nil sinks; a typed nil inside the interface would defeat
// the tee's nil check.
func eventSinks(l *persistlog.EventLogger, idx runtimeIndex) []world.EventLogger {
	var out []world.EventLogger
	if l != nil {
		out = append(out, l)
	}
	if idx != nil {
		out = append(out, idx)
	}
	return out
}

func roundSinks(l *persistlog.RoundLogger, idx runtimeIndex) []world.RoundLogger {
	var out []world.RoundLogger
	if l != nil {
		out = append(out, l)
	}
	if idx != nil {
		out = append(out, idx)
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
