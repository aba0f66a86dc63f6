package arena

import (
	"strings"
	"testing"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

func mustScenario(t *testing.T, name string, extra ...Option) *Arena {
	t.Helper()
	a, err := NewScenario(name, agent.DifficultyNormal, extra...)
	if err != nil {
		t.Fatalf("scenario %s: %v", name, err)
	}
	return a
}

func requireInputsReleased(t *testing.T, a *Arena) {
	t.Helper()
	for _, f := range a.fighters {
		if f.walkActive || f.aimActive || f.clawHeld || f.rope.active {
			t.Fatalf("%s still holds input: walk=%v aim=%v claw=%v rope=%v",
				f.Label, f.walkActive, f.aimActive, f.clawHeld, f.rope.active)
		}
	}
}

func TestScenario_Unknown(t *testing.T) {
	if _, err := NewScenario("nowhere", agent.DifficultyNormal); err == nil {
		t.Fatal("expected an error for an unknown scenario")
	}
	if len(ScenarioNames()) < 4 {
		t.Fatalf("expected the built-in scenarios, got %v", ScenarioNames())
	}
}

func TestScenario_FlatFirstTurnAttacks(t *testing.T) {
	a := mustScenario(t, "flat", WithMaxTurns(1))
	defer a.Close()
	res := a.RunMatch()

	fires := a.trace.Filter("attack", "fire")
	if len(fires) == 0 {
		t.Fatalf("red should attack on open ground\n%s", a.trace.Format())
	}
	if fires[0].Agent != "R0" || fires[0].Value != "claw" {
		t.Fatalf("first shot should be red's claw, got %+v", fires[0])
	}
	if got := a.session.Balance.Shots(TeamRed).Total; got != 1 {
		t.Fatalf("expected one recorded red shot, got %d", got)
	}
	if !a.trace.HasEntry("world", "turn_over", "attacked") {
		t.Fatal("the turn should close after the attack grace")
	}
	if res.Turns != 1 || res.Outcome != OutcomeInconclusive {
		t.Fatalf("unexpected result %s", res)
	}
	requireInputsReleased(t, a)
}

func TestScenario_Deterministic(t *testing.T) {
	run := func() string {
		a := mustScenario(t, "valley", WithSeed(42), WithMaxTurns(2))
		defer a.Close()
		a.RunMatch()
		return a.trace.Format()
	}
	first, second := run(), run()
	if first != second {
		t.Fatal("same seed should replay the same match")
	}
}

func TestScenario_SessionSharedAcrossMatches(t *testing.T) {
	s := agent.NewSession(agent.DefaultConfig())
	for i := 0; i < 2; i++ {
		a := mustScenario(t, "flat", WithSession(s), WithSeed(int64(i+1)), WithMaxTurns(1))
		a.RunMatch()
		a.Close()
	}
	if got := s.Balance.Shots(TeamRed).Total; got != 2 {
		t.Fatalf("balance should accumulate across matches, red shots=%d", got)
	}
	if s.Balance.Shots(TeamRed).Claw != 1 {
		t.Fatalf("second match should balance toward the grenade, got %+v", s.Balance.Shots(TeamRed))
	}
}

// Ropes are only released on the ground or after the steer timeout, in every
// layout.
func TestScenario_RopeDetachSafety(t *testing.T) {
	for _, name := range ScenarioNames() {
		t.Run(name, func(t *testing.T) {
			a := mustScenario(t, name, WithMaxTurns(4))
			defer a.Close()
			a.RunMatch()
			for _, e := range a.trace.Filter("rope", "detach") {
				if e.NumVal != 1 && e.Value != "steer_timeout" {
					t.Fatalf("%s detached midair: %s", e.Agent, e)
				}
			}
			requireInputsReleased(t, a)
		})
	}
}

// A fighter without grenades at the bottom of the well cannot see or walk
// out. It should escalate through rope attempts, teleport at most once, and
// still get a shot off.
func TestScenario_WellEscapesAndAttacks(t *testing.T) {
	a := NewArena(
		WithBox(-30, -5, -3, 6),
		WithBox(3, -5, 30, 6),
		WithBox(-3, -5, 3, 2),
		WithFighterLoadout(TeamRed, 0, agent.DifficultyNormal, Loadout{Rope: true, Claw: true, Teleport: true}),
		WithFighter(TeamBlue, 15, agent.DifficultyNormal),
		WithMaxTurns(1),
	)
	defer a.Close()
	a.RunMatch()

	red := func(cat, key string) int {
		n := 0
		for _, e := range a.trace.Filter(cat, key) {
			if e.Agent == "R0" {
				n++
			}
		}
		return n
	}
	if red("approach", "rope_trigger") == 0 {
		t.Fatalf("expected rope triggers while stuck\n%s", a.trace.Format())
	}
	if red("world", "teleport") > 1 {
		t.Fatalf("teleport is once per match\n%s", a.trace.Format())
	}
	if red("attack", "fire") != 1 {
		t.Fatalf("expected red to get a shot off\n%s", a.trace.Format())
	}
}

func TestCollectStats(t *testing.T) {
	entries := []agent.TraceEntry{
		{Team: 0, Category: "turn", Key: "start"},
		{Team: 0, Category: "attack", Key: "fire", Value: "claw"},
		{Team: 0, Category: "attack", Key: "fire", Value: "grenade"},
		{Team: 0, Category: "approach", Key: "rope_trigger", Value: "stall"},
		{Team: 1, Category: "world", Key: "damage", Value: "claw", NumVal: 3},
		{Team: 1, Category: "world", Key: "damage", Value: "grenade", NumVal: 20.5},
		{Team: 0, Category: "world", Key: "kill", Value: "B0"},
		{Team: -1, Category: "world", Key: "match_over", Value: "victory"},
	}
	m := CollectStats(entries)
	if len(m) != 2 {
		t.Fatalf("expected two teams, got %v", m.Teams())
	}
	r := m[0]
	if r.Turns != 1 || r.Shots != 2 || r.ClawShots != 1 || r.GrenadeShots != 1 || r.RopeTriggers != 1 || r.Kills != 1 {
		t.Fatalf("unexpected red stats %+v", *r)
	}
	if r.ClawFraction() != 0.5 {
		t.Fatalf("claw fraction %.2f", r.ClawFraction())
	}
	if m[1].DamageTaken != 23.5 {
		t.Fatalf("blue damage taken %.1f", m[1].DamageTaken)
	}
	if out := m.Format(); !strings.Contains(out, "R turns=1") || !strings.Contains(out, "shots=2") {
		t.Fatalf("unexpected format:\n%s", out)
	}
}

func TestResult_String(t *testing.T) {
	a := mustScenario(t, "flat")
	defer a.Close()
	a.fighters[1].Health = 0
	if !a.checkOver() {
		t.Fatal("one team standing should end the match")
	}
	r := a.Result()
	if r.Outcome != OutcomeVictory || r.Winner != TeamRed {
		t.Fatalf("unexpected result %+v", r)
	}
	if s := r.String(); !strings.Contains(s, "winner=R") || !strings.Contains(s, "B=0/1") {
		t.Fatalf("unexpected rendering %q", s)
	}
}
