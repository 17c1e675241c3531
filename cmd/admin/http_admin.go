package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"heist.gg/internal/sim/world"
)

type stateResponse struct {
	WorldID string           `json:"world_id"`
	State   world.AdminState `json:"state"`
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the raw JSON response")
	_ = fs.Parse(args)

	b, err := fetchState(*baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *raw {
		fmt.Println(string(b))
		return
	}
	if err := printState(os.Stdout, b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fetchState(baseURL string) ([]byte, error) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return b, nil
}

func printState(w io.Writer, body []byte) error {
	var r stateResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	s := r.State
	fmt.Fprintf(w, "world=%s map=%q round=%d tick=%d phase=%s\n", r.WorldID, s.Map, s.Round, s.Tick, s.Phase)
	if s.Winner != nil {
		fmt.Fprintf(w, "winner=%s reason=%s\n", s.Winner.PlayerID, s.Winner.Reason)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tROOM\tPOS\tSCORE\tHEALTH\tSTUNNED\tINVENTORY")
	for _, p := range s.Players {
		fmt.Fprintf(tw, "%s\t%s\t%.0f,%.0f\t%d\t%d\t%v\t%s\n", p.ID, p.Room, p.X, p.Y, p.Score, p.Health, p.Stunned, strings.Join(p.Inventory, ","))
	}
	return tw.Flush()
}
