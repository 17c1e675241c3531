package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
	"heist.gg/internal/sim/world"
)

// SQLiteIndex is a secondary, queryable index of finished rounds and kills.
// Writes are queued and applied by one goroutine; the JSONL logs remain the
// source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRound atomic.Uint64
	dropKill  atomic.Uint64
}

type reqKind int

const (
	reqRound reqKind = iota + 1
	reqKill
)

type req struct {
	kind reqKind

	round world.RoundSummary
	kill  world.GameEvent
}

type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropRoundTotal uint64 `json:"drop_round_total"`
	DropKillTotal  uint64 `json:"drop_kill_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS config (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round INTEGER NOT NULL,
			map TEXT NOT NULL,
			started_ms INTEGER NOT NULL,
			ended_ms INTEGER NOT NULL,
			end_tick INTEGER NOT NULL,
			winner TEXT NOT NULL,
			reason TEXT NOT NULL,
			players INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended ON rounds(ended_ms);`,
		`CREATE TABLE IF NOT EXISTS player_rounds (
			round_id INTEGER NOT NULL REFERENCES rounds(id),
			player_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			won INTEGER NOT NULL,
			PRIMARY KEY (round_id, player_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_player_rounds_player ON player_rounds(player_id);`,
		`CREATE TABLE IF NOT EXISTS kills (
			ts_ms INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			round INTEGER NOT NULL,
			map TEXT NOT NULL,
			killer TEXT NOT NULL,
			victim TEXT NOT NULL,
			room TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (ts_ms, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_killer ON kills(killer, ts_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_victim ON kills(victim, ts_ms);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropRoundTotal: s.dropRound.Load(),
		DropKillTotal:  s.dropKill.Load(),
	}
}

// WriteRound queues a finished round.
func (s *SQLiteIndex) WriteRound(r world.RoundSummary) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqRound, round: r}:
	default:
		s.dropRound.Add(1)
	}
	return nil
}

// WriteEvent indexes kill events and ignores the rest.
func (s *SQLiteIndex) WriteEvent(e world.GameEvent) error {
	if s == nil || s.closed.Load() || e.Type != world.EventKill {
		return nil
	}
	select {
	case s.ch <- req{kind: reqKill, kill: e}:
	default:
		s.dropKill.Add(1)
	}
	return nil
}

// UpsertConfig records the tuning and map set the server is running with.
func (s *SQLiteIndex) UpsertConfig(tune tuning.Tuning, reg *maps.Registry) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, err := json.Marshal(tune); err == nil {
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}
	if reg != nil {
		if b, err := json.Marshal(reg.Names()); err == nil {
			rows = append(rows, kv{name: "maps", digest: reg.Digest(), json: b})
		}
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO config(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRound, _ := s.db.Prepare(`INSERT INTO rounds(round,map,started_ms,ended_ms,end_tick,winner,reason,players,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertPlayer, _ := s.db.Prepare(`INSERT OR REPLACE INTO player_rounds(round_id,player_id,score,kills,deaths,won) VALUES(?,?,?,?,?,?)`)
	insertKill, _ := s.db.Prepare(`INSERT OR REPLACE INTO kills(ts_ms,tick,seq,round,map,killer,victim,room,x,y) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRound, insertPlayer, insertKill} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		commitEvery   = 500
		commitMaxWait = time.Second

		lastKillTick uint64
		killSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		var r req
		select {
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		case <-ticker.C:
			commit()
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRound:
			if insertRound == nil {
				continue
			}
			rs := r.round
			raw, _ := json.Marshal(rs)
			res, err := tx.Stmt(insertRound).Exec(
				int64(rs.Round),
				rs.Map,
				rs.StartedMS,
				rs.EndedMS,
				int64(rs.EndTick),
				rs.Winner,
				rs.Reason,
				len(rs.Players),
				string(raw),
			)
			if err != nil {
				rollback()
				continue
			}
			opCount++
			roundID, err := res.LastInsertId()
			if err != nil || insertPlayer == nil {
				continue
			}
			for _, p := range rs.Players {
				won := 0
				if p.ID == rs.Winner {
					won = 1
				}
				if _, err := tx.Stmt(insertPlayer).Exec(roundID, p.ID, p.Score, p.Kills, p.Deaths, won); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqKill:
			if insertKill == nil {
				continue
			}
			k := r.kill
			if k.Tick != lastKillTick {
				lastKillTick = k.Tick
				killSeq = 0
			}
			seq := killSeq
			killSeq++
			if _, err := tx.Stmt(insertKill).Exec(
				k.TimeMS,
				int64(k.Tick),
				seq,
				int64(k.Round),
				k.Map,
				k.Player,
				k.Target,
				k.Room,
				k.X,
				k.Y,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery {
			commit()
		}
	}
}
