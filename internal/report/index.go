package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
	"github.com/Garsondee/Artillery-Sense/internal/arena"
)

// Run is one finished match as stored in the index.
type Run struct {
	Scenario   string
	Seed       int64
	Difficulty string
	Result     arena.Result
	Stats      arena.MatchStats
	Turns      []Turn
}

// Turn is one played turn.
type Turn struct {
	Agent   string
	Team    int
	Reason  string
	Seconds float64
}

// TurnsFromTrace lists the turns recorded in a match trace.
func TurnsFromTrace(entries []agent.TraceEntry) []Turn {
	var out []Turn
	for _, e := range entries {
		if e.Category == "world" && e.Key == "turn_over" {
			out = append(out, Turn{Agent: e.Agent, Team: e.Team, Reason: e.Value, Seconds: e.NumVal})
		}
	}
	return out
}

// Index is a SQLite database of runs, team stats and turns.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the database at path.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
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
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
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
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			outcome TEXT NOT NULL,
			winner INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			seconds REAL NOT NULL,
			reason TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS team_stats (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			team INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			shots INTEGER NOT NULL,
			claw_shots INTEGER NOT NULL,
			grenade_shots INTEGER NOT NULL,
			denied INTEGER NOT NULL,
			rope_triggers INTEGER NOT NULL,
			rope_attaches INTEGER NOT NULL,
			tunnel_starts INTEGER NOT NULL,
			tunnel_escapes INTEGER NOT NULL,
			teleports INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			drowned INTEGER NOT NULL,
			damage_taken REAL NOT NULL,
			PRIMARY KEY (run_id, team)
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			agent TEXT NOT NULL,
			team INTEGER NOT NULL,
			reason TEXT NOT NULL,
			seconds REAL NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_scenario ON runs(scenario);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error { return x.db.Close() }

// RecordRun stores a run with its team stats and turns in one transaction and
// returns the run id.
func (x *Index) RecordRun(ctx context.Context, r Run) (id int64, err error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(scenario,seed,difficulty,outcome,winner,turns,seconds,reason,recorded_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		r.Scenario, r.Seed, r.Difficulty, r.Result.Outcome.String(), r.Result.Winner,
		r.Result.Turns, r.Result.Seconds, r.Result.Description, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	teamStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO team_stats(run_id,team,turns,shots,claw_shots,grenade_shots,denied,rope_triggers,rope_attaches,tunnel_starts,tunnel_escapes,teleports,kills,drowned,damage_taken) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer teamStmt.Close()
	for _, team := range r.Stats.Teams() {
		s := r.Stats[team]
		if _, err = teamStmt.ExecContext(ctx, id, team, s.Turns, s.Shots, s.ClawShots, s.GrenadeShots, s.DeniedFires,
			s.RopeTriggers, s.RopeAttaches, s.TunnelStarts, s.TunnelEscapes, s.Teleports, s.Kills, s.Drowned, s.DamageTaken); err != nil {
			return 0, fmt.Errorf("insert team %d: %w", team, err)
		}
	}

	turnStmt, err := tx.PrepareContext(ctx, `INSERT INTO turns(run_id,seq,agent,team,reason,seconds) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer turnStmt.Close()
	for i, t := range r.Turns {
		if _, err = turnStmt.ExecContext(ctx, id, i+1, t.Agent, t.Team, t.Reason, t.Seconds); err != nil {
			return 0, fmt.Errorf("insert turn %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RunCount returns the number of stored runs.
func (x *Index) RunCount(ctx context.Context) (int, error) {
	var n int
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// OutcomeCounts returns how many runs ended in each outcome.
func (x *Index) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM runs GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// ClawFractions returns each team's claw share of all shots ever stored.
// Teams that never fired are omitted.
func (x *Index) ClawFractions(ctx context.Context) (map[int]float64, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT team, SUM(claw_shots), SUM(shots) FROM team_stats GROUP BY team HAVING SUM(shots) > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]float64{}
	for rows.Next() {
		var team, claw, shots int
		if err := rows.Scan(&team, &claw, &shots); err != nil {
			return nil, err
		}
		out[team] = float64(claw) / float64(shots)
	}
	return out, rows.Err()
}
