package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"heist.gg/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		seed = flag.Int64("seed", time.Now().UnixNano(), "bot rng seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	b := newBrain(rand.New(rand.NewSource(*seed)))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.T {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME id=%s tick=%d", w.ID, w.Tick)

		case protocol.TypeSnapshot:
			var s protocol.SnapshotMsg
			if err := json.Unmarshal(msg, &s); err != nil {
				continue
			}
			if s.Winner != nil && b.lastWinner != s.Winner.ID {
				logger.Printf("round won by %s (%s) on %s", s.Winner.ID, s.Winner.Type, s.MapName)
			}
			for _, out := range b.decide(&s) {
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			}
		}
	}
}
