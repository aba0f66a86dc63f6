package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
	"github.com/Garsondee/Artillery-Sense/internal/arena"
	"github.com/Garsondee/Artillery-Sense/internal/report"
)

type options struct {
	runs       int
	turns      int
	seedBase   int64
	seedStep   int64
	scenario   string
	difficulty string
	configPath string
	tracePath  string
	dbPath     string
	fresh      bool
}

type runStats struct {
	runIndex int
	seed     int64

	result arena.Result
	stats  arena.MatchStats

	firstShot      float64
	firstKill      float64
	firstRope      float64
	firstTeleport  float64
	detachAirborne int

	clawFraction map[int]float64 // session balance after the run
}

func main() {
	var o options
	flag.IntVar(&o.runs, "runs", 5, "number of headless matches")
	flag.IntVar(&o.turns, "turns", arena.DefaultMaxTurns, "turn limit per match")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&o.scenario, "scenario", "valley", "scenario name ("+strings.Join(arena.ScenarioNames(), ", ")+")")
	flag.StringVar(&o.difficulty, "difficulty", "normal", "fighter difficulty (easy, normal, hard)")
	flag.StringVar(&o.configPath, "config", "", "agent tuning YAML (defaults when empty)")
	flag.StringVar(&o.tracePath, "trace", "", "write every run's trace to this .jsonl.zst file")
	flag.StringVar(&o.dbPath, "db", "", "record runs into this SQLite index")
	flag.BoolVar(&o.fresh, "fresh-session", false, "reset weapon balance between runs")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.runs <= 0 {
		return fmt.Errorf("-runs must be > 0")
	}
	if o.turns <= 0 {
		return fmt.Errorf("-turns must be > 0")
	}
	if _, err := arena.LookupScenario(o.scenario); err != nil {
		return err
	}
	diff, ok := agent.ParseDifficulty(o.difficulty)
	if !ok {
		return fmt.Errorf("unknown difficulty %q", o.difficulty)
	}
	cfg := agent.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = agent.LoadConfig(o.configPath); err != nil {
			return err
		}
	}

	var tw *report.TraceWriter
	if o.tracePath != "" {
		var err error
		if tw, err = report.CreateTrace(o.tracePath); err != nil {
			return err
		}
		defer tw.Close()
	}
	var idx *report.Index
	if o.dbPath != "" {
		var err error
		if idx, err = report.OpenIndex(o.dbPath); err != nil {
			return err
		}
		defer idx.Close()
	}
	ctx := context.Background()

	fmt.Printf("=== Headless Artillery Report ===\n")
	fmt.Printf("scenario=%s difficulty=%s runs=%d turns=%d seed_base=%d seed_step=%d\n\n",
		o.scenario, diff, o.runs, o.turns, o.seedBase, o.seedStep)

	session := agent.NewSession(cfg)
	all := make([]runStats, 0, o.runs)
	for i := 0; i < o.runs; i++ {
		if o.fresh {
			session = agent.NewSession(cfg)
		}
		seed := o.seedBase + int64(i)*o.seedStep
		a, err := arena.NewScenario(o.scenario, diff,
			arena.WithSeed(seed), arena.WithConfig(cfg), arena.WithSession(session), arena.WithMaxTurns(o.turns))
		if err != nil {
			return err
		}
		a.RunMatch()
		a.Close()

		entries := a.Trace().Entries()
		rs := collectRun(i+1, seed, a.Result(), entries, session)
		all = append(all, rs)
		printRun(rs)

		if tw != nil {
			if err := tw.WriteRun(i+1, entries); err != nil {
				return err
			}
		}
		if idx != nil {
			if _, err := idx.RecordRun(ctx, report.Run{
				Scenario:   o.scenario,
				Seed:       seed,
				Difficulty: diff.String(),
				Result:     rs.result,
				Stats:      rs.stats,
				Turns:      report.TurnsFromTrace(entries),
			}); err != nil {
				return err
			}
		}
	}

	printAggregate(all)
	if tw != nil {
		fmt.Printf("\ntrace: %d records -> %s\n", tw.Count(), o.tracePath)
	}
	if idx != nil {
		n, err := idx.RunCount(ctx)
		if err != nil {
			return err
		}
		fr, err := idx.ClawFractions(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("index: %d runs stored in %s, lifetime claw fraction %s\n", n, o.dbPath, formatFractions(fr))
	}
	return nil
}

func collectRun(runIndex int, seed int64, res arena.Result, entries []agent.TraceEntry, s *agent.Session) runStats {
	rs := runStats{
		runIndex:      runIndex,
		seed:          seed,
		result:        res,
		stats:         arena.CollectStats(entries),
		firstShot:     firstTime(entries, "attack", "fire", ""),
		firstKill:     firstTime(entries, "world", "kill", ""),
		firstRope:     firstTime(entries, "rope", "attach", ""),
		firstTeleport: firstTime(entries, "world", "teleport", ""),
		clawFraction:  map[int]float64{},
	}
	for _, e := range entries {
		if e.Category == "rope" && e.Key == "detach" && e.NumVal != 1 && e.Value != "steer_timeout" {
			rs.detachAirborne++
		}
	}
	for _, team := range s.Balance.Teams() {
		rs.clawFraction[team] = s.Balance.Shots(team).ClawFraction()
	}
	return rs
}

func firstTime(entries []agent.TraceEntry, category, key, contains string) float64 {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Time
		}
	}
	return -1
}

// teamSurvivalCounts returns totals and survivors for red and blue.
func teamSurvivalCounts(r arena.Result) (redTotal, blueTotal, redSurvivors, blueSurvivors int) {
	return r.Totals[arena.TeamRed], r.Totals[arena.TeamBlue], r.Survivors[arena.TeamRed], r.Survivors[arena.TeamBlue]
}

// detectStalemate flags matches that ran out of turns with both sides
// standing and little damage exchanged.
func detectStalemate(rs runStats) (bool, string) {
	if rs.result.Outcome != arena.OutcomeInconclusive {
		return false, "decided"
	}
	redTotal, blueTotal, redSurv, blueSurv := teamSurvivalCounts(rs.result)
	if redSurv == 0 || blueSurv == 0 {
		return false, "side_eliminated"
	}
	dealt := 0.0
	shots := 0
	for _, s := range rs.stats {
		dealt += s.DamageTaken
		shots += s.Shots
	}
	fighters := float64(redTotal + blueTotal)
	if fighters > 0 && dealt/fighters >= 50 {
		return false, fmt.Sprintf("attrition dmg_per_fighter=%.0f", dealt/fighters)
	}
	reasons := []string{"both_sides_standing"}
	if shots == 0 {
		reasons = append(reasons, "no_shots")
	} else if dealt/float64(shots) < 5 {
		reasons = append(reasons, "ineffective_fire")
	}
	return true, strings.Join(reasons, ",")
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("result: %s\n", rs.result)
	fmt.Printf("phase_markers: first_shot=%s first_rope=%s first_teleport=%s first_kill=%s\n",
		secondsString(rs.firstShot), secondsString(rs.firstRope), secondsString(rs.firstTeleport), secondsString(rs.firstKill))
	fmt.Print(rs.stats.Format())
	fmt.Printf("balance_after_run: %s\n", formatFractions(rs.clawFraction))
	if rs.detachAirborne > 0 {
		fmt.Printf("WARNING: %d airborne rope detaches\n", rs.detachAirborne)
	}
	if stale, reason := detectStalemate(rs); stale {
		fmt.Printf("stalemate: %s\n", reason)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	outcomes := map[string]int{}
	wins := map[int]int{}
	totals := map[int]*arena.TeamStats{}
	var shotTimes, killTimes []float64
	stalemates := 0

	for _, rs := range all {
		outcomes[rs.result.Outcome.String()]++
		if rs.result.Outcome == arena.OutcomeVictory {
			wins[rs.result.Winner]++
		}
		for team, s := range rs.stats {
			t, ok := totals[team]
			if !ok {
				t = &arena.TeamStats{}
				totals[team] = t
			}
			t.Turns += s.Turns
			t.Shots += s.Shots
			t.ClawShots += s.ClawShots
			t.GrenadeShots += s.GrenadeShots
			t.DeniedFires += s.DeniedFires
			t.RopeTriggers += s.RopeTriggers
			t.RopeAttaches += s.RopeAttaches
			t.TunnelStarts += s.TunnelStarts
			t.TunnelEscapes += s.TunnelEscapes
			t.Teleports += s.Teleports
			t.Kills += s.Kills
			t.Drowned += s.Drowned
			t.DamageTaken += s.DamageTaken
		}
		if rs.firstShot >= 0 {
			shotTimes = append(shotTimes, rs.firstShot)
		}
		if rs.firstKill >= 0 {
			killTimes = append(killTimes, rs.firstKill)
		}
		if stale, _ := detectStalemate(rs); stale {
			stalemates++
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d outcomes=%s stalemates=%d\n", len(all), formatCounts(outcomes), stalemates)
	fmt.Printf("wins: red=%d blue=%d\n", wins[arena.TeamRed], wins[arena.TeamBlue])
	fmt.Printf("phase_marker_avg_seconds: first_shot=%s first_kill=%s\n", avgString(shotTimes), avgString(killTimes))

	teams := make([]int, 0, len(totals))
	for t := range totals {
		teams = append(teams, t)
	}
	sort.Ints(teams)
	fmt.Println("per_team_per_run:")
	n := float64(len(all))
	for _, team := range teams {
		t := totals[team]
		fmt.Printf("  team %d shots=%.1f claw_frac=%.2f rope_triggers=%.1f rope_attach=%.1f tunnels=%.1f teleports=%.1f kills=%.1f drowned=%.1f dmg_taken=%.0f\n",
			team, float64(t.Shots)/n, t.ClawFraction(), float64(t.RopeTriggers)/n, float64(t.RopeAttaches)/n,
			float64(t.TunnelStarts)/n, float64(t.Teleports)/n, float64(t.Kills)/n, float64(t.Drowned)/n, t.DamageTaken/n)
	}
}

func secondsString(v float64) string {
	if v < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1fs", v)
}

func avgString(vals []float64) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1fs", sum/float64(len(vals)))
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, m[k]))
	}
	return strings.Join(parts, ",")
}

func formatFractions(m map[int]float64) string {
	if len(m) == 0 {
		return "none"
	}
	teams := make([]int, 0, len(m))
	for t := range m {
		teams = append(teams, t)
	}
	sort.Ints(teams)
	parts := make([]string, 0, len(teams))
	for _, t := range teams {
		parts = append(parts, fmt.Sprintf("team%d=%.2f", t, m[t]))
	}
	return strings.Join(parts, " ")
}
