package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"heist.gg/internal/persistence/indexdb"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "rounds", "kills", "leaders":
			if err := dbCmd(os.Args[1], os.Args[2:], os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <rounds|kills|leaders|state> [flags]")
	os.Exit(2)
}

func dbCmd(name string, args []string, w io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/heist.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	player := fs.String("player", "", "player id filter (kills)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "heist.sqlite")
	}
	r, err := indexdb.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var rows any
	switch name {
	case "rounds":
		rows, err = r.RecentRounds(ctx, *limit)
	case "kills":
		rows, err = r.Kills(ctx, strings.TrimSpace(*player), *limit)
	case "leaders":
		rows, err = r.Leaders(ctx, *limit)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return printTable(w, rows)
}

func printTable(w io.Writer, rows any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch rs := rows.(type) {
	case []indexdb.RoundRow:
		fmt.Fprintln(tw, "ID\tROUND\tMAP\tENDED\tWINNER\tREASON\tPLAYERS")
		for _, x := range rs {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%d\n", x.ID, x.Round, x.Map, fmtMS(x.EndedMS), x.Winner, x.Reason, x.Players)
		}
	case []indexdb.KillRow:
		fmt.Fprintln(tw, "TIME\tROUND\tMAP\tROOM\tKILLER\tVICTIM")
		for _, x := range rs {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", fmtMS(x.TimeMS), x.Round, x.Map, x.Room, x.Killer, x.Victim)
		}
	case []indexdb.LeaderRow:
		fmt.Fprintln(tw, "PLAYER\tROUNDS\tWINS\tSCORE\tKILLS\tDEATHS")
		for _, x := range rs {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", x.PlayerID, x.Rounds, x.Wins, x.Score, x.Kills, x.Deaths)
		}
	}
	return tw.Flush()
}

func fmtMS(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
