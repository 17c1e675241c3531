package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

type RoundRow struct {
	ID        int64  `json:"id"`
	Round     int64  `json:"round"`
	Map       string `json:"map"`
	StartedMS int64  `json:"started_ms"`
	EndedMS   int64  `json:"ended_ms"`
	Winner    string `json:"winner"`
	Reason    string `json:"reason"`
	Players   int    `json:"players"`
}

type KillRow struct {
	TimeMS int64   `json:"ts_ms"`
	Round  int64   `json:"round"`
	Map    string  `json:"map"`
	Killer string  `json:"killer"`
	Victim string  `json:"victim"`
	Room   string  `json:"room"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type LeaderRow struct {
	PlayerID string `json:"player_id"`
	Rounds   int    `json:"rounds"`
	Wins     int    `json:"wins"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
}

// Reader runs the operator queries against an index file.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

func (r *Reader) RecentRounds(ctx context.Context, limit int) ([]RoundRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,round,map,started_ms,ended_ms,winner,reason,players FROM rounds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoundRow
	for rows.Next() {
		var x RoundRow
		if err := rows.Scan(&x.ID, &x.Round, &x.Map, &x.StartedMS, &x.EndedMS, &x.Winner, &x.Reason, &x.Players); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Kills lists recent kills, optionally only those involving player.
func (r *Reader) Kills(ctx context.Context, player string, limit int) ([]KillRow, error) {
	q := `SELECT ts_ms,round,map,killer,victim,room,x,y FROM kills`
	args := []any{}
	if player != "" {
		q += ` WHERE killer=? OR victim=?`
		args = append(args, player, player)
	}
	q += ` ORDER BY ts_ms DESC, tick DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KillRow
	for rows.Next() {
		var x KillRow
		if err := rows.Scan(&x.TimeMS, &x.Round, &x.Map, &x.Killer, &x.Victim, &x.Room, &x.X, &x.Y); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Leaders ranks players by rounds won, then total score.
func (r *Reader) Leaders(ctx context.Context, limit int) ([]LeaderRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, COUNT(*), SUM(won), SUM(score), SUM(kills), SUM(deaths)
		FROM player_rounds
		GROUP BY player_id
		ORDER BY SUM(won) DESC, SUM(score) DESC, player_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LeaderRow
	for rows.Next() {
		var x LeaderRow
		if err := rows.Scan(&x.PlayerID, &x.Rounds, &x.Wins, &x.Score, &x.Kills, &x.Deaths); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
