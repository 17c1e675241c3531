package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "heist.gg/internal/persistence/log"
	"heist.gg/internal/sim/world"
)

type filter struct {
	types  map[string]bool
	player string
	round  uint64
	fromMS int64
	toMS   int64
}

func (f filter) match(e world.GameEvent) bool {
	if len(f.types) > 0 && !f.types[e.Type] {
		return false
	}
	if f.player != "" && e.Player != f.player && e.Target != f.player {
		return false
	}
	if f.round != 0 && e.Round != f.round {
		return false
	}
	if f.fromMS != 0 && e.TimeMS < f.fromMS {
		return false
	}
	if f.toMS != 0 && e.TimeMS > f.toMS {
		return false
	}
	return true
}

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory")
		types   = flag.String("type", "", "comma separated event types to keep")
		player  = flag.String("player", "", "keep events where this player is actor or target")
		round   = flag.Uint64("round", 0, "keep a single round (0 = all)")
		fromMS  = flag.Int64("from_ms", 0, "start time in unix ms (inclusive, optional)")
		toMS    = flag.Int64("to_ms", 0, "end time in unix ms (inclusive, optional)")
		summary = flag.Bool("summary", false, "print aggregate counts instead of events")
	)
	flag.Parse()

	f := filter{player: strings.TrimSpace(*player), round: *round, fromMS: *fromMS, toMS: *toMS}
	for _, t := range strings.Split(*types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			if f.types == nil {
				f.types = map[string]bool{}
			}
			f.types[t] = true
		}
	}

	var err error
	if *summary {
		err = summarize(*dataDir, f, os.Stdout)
	} else {
		err = dump(*dataDir, f, os.Stdout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func eachEvent(dataDir string, f filter, fn func(world.GameEvent) error) error {
	files, err := persistlog.Files(filepath.Join(dataDir, "events"), "events")
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no event files under %s", filepath.Join(dataDir, "events"))
	}
	for _, path := range files {
		err := persistlog.ReadEvents(path, func(e world.GameEvent) error {
			if !f.match(e) {
				return nil
			}
			return fn(e)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func dump(dataDir string, f filter, w io.Writer) error {
	enc := json.NewEncoder(w)
	return eachEvent(dataDir, f, func(e world.GameEvent) error { return enc.Encode(e) })
}

type report struct {
	Events  int
	ByType  map[string]int
	Kills   map[string]int
	Deaths  map[string]int
	Rounds  []world.RoundSummary
	FirstMS int64
	LastMS  int64
}

func collect(dataDir string, f filter) (*report, error) {
	r := &report{ByType: map[string]int{}, Kills: map[string]int{}, Deaths: map[string]int{}}
	err := eachEvent(dataDir, f, func(e world.GameEvent) error {
		r.Events++
		r.ByType[e.Type]++
		if e.Type == world.EventKill {
			r.Kills[e.Player]++
			r.Deaths[e.Target]++
		}
		if r.FirstMS == 0 || e.TimeMS < r.FirstMS {
			r.FirstMS = e.TimeMS
		}
		if e.TimeMS > r.LastMS {
			r.LastMS = e.TimeMS
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Round summaries are optional; a server run with -disable_events has none.
	files, _ := persistlog.Files(filepath.Join(dataDir, "rounds"), "rounds")
	for _, path := range files {
		err := persistlog.ReadRounds(path, func(s world.RoundSummary) error {
			if f.round != 0 && s.Round != f.round {
				return nil
			}
			if f.fromMS != 0 && s.EndedMS < f.fromMS {
				return nil
			}
			if f.toMS != 0 && s.EndedMS > f.toMS {
				return nil
			}
			r.Rounds = append(r.Rounds, s)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return r, nil
}

func summarize(dataDir string, f filter, w io.Writer) error {
	r, err := collect(dataDir, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "events=%d from_ms=%d to_ms=%d rounds=%d\n", r.Events, r.FirstMS, r.LastMS, len(r.Rounds))
	for _, k := range sortedKeys(r.ByType) {
		fmt.Fprintf(w, "type %-20s %d\n", k, r.ByType[k])
	}
	players := map[string]int{}
	for k := range r.Kills {
		players[k] = 0
	}
	for k := range r.Deaths {
		players[k] = 0
	}
	for _, p := range sortedKeys(players) {
		fmt.Fprintf(w, "player %s kills=%d deaths=%d\n", p, r.Kills[p], r.Deaths[p])
	}
	for _, s := range r.Rounds {
		fmt.Fprintf(w, "round %d map=%q winner=%s reason=%s players=%d\n", s.Round, s.Map, s.Winner, s.Reason, len(s.Players))
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
