package arena

import (
	"math"
	"testing"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// physicsArena builds an arena without starting any turn, for driving bodies
// and weapons by hand.
func physicsArena(opts ...Option) *Arena {
	return NewArena(opts...)
}

// act makes f the active fighter without starting its controller.
func act(a *Arena, f *Fighter) {
	a.turn = turnState{active: f, left: a.turnLen}
}

func stepBodies(a *Arena, seconds float64) {
	for t := 0.0; t < seconds; t += a.dt {
		for _, f := range a.fighters {
			f.step(a.dt)
		}
		a.stepShells(a.dt)
		a.now += a.dt
	}
}

func TestRayAABBHitT(t *testing.T) {
	r := agent.Rect{Min: agent.V(4, -1), Max: agent.V(6, 1)}
	tt, ok := rayAABBHitT(agent.V(0, 0), agent.V(10, 0), r)
	if !ok || math.Abs(tt-0.4) > 1e-9 {
		t.Fatalf("expected entry at t=0.4, got %v %v", tt, ok)
	}
	if _, ok := rayAABBHitT(agent.V(0, 5), agent.V(10, 5), r); ok {
		t.Fatal("segment above the box should miss")
	}
	if _, ok := rayAABBHitT(agent.V(0, 0), agent.V(3, 0), r); ok {
		t.Fatal("segment ending before the box should miss")
	}
}

func TestRaycast_SkipsOwnBody(t *testing.T) {
	a := physicsArena(
		WithBox(-20, -5, 20, 2),
		WithFighter(TeamRed, -5, agent.DifficultyNormal),
		WithFighter(TeamBlue, 5, agent.DifficultyNormal),
	)
	red, blue := a.fighters[0], a.fighters[1]
	hit, ok := a.Raycast(red.AimOrigin(), agent.V(1, 0), 20)
	if !ok || hit.Combatant != blue.ID || !hit.HasTeam || hit.Team != TeamBlue {
		t.Fatalf("expected to hit blue first, got %+v ok=%v", hit, ok)
	}
	if math.Abs(hit.Distance-(10-FighterWidth/2)) > 1e-6 {
		t.Fatalf("hit distance %.3f, want %.3f", hit.Distance, 10-FighterWidth/2)
	}
}

func TestRaycast_TerrainBlocks(t *testing.T) {
	a := physicsArena(
		WithBox(-20, -5, 20, 2),
		WithBox(-1, 2, 1, 6),
		WithFighter(TeamRed, -5, agent.DifficultyNormal),
		WithFighter(TeamBlue, 5, agent.DifficultyNormal),
	)
	hit, ok := a.Raycast(a.fighters[0].AimOrigin(), agent.V(1, 0), 20)
	if !ok || hit.Combatant != 0 {
		t.Fatalf("wall should block, got %+v", hit)
	}
	if agent.HasLineOfSight(a, a.fighters[0].AimOrigin(), a.Combatants()[1], TeamRed) {
		t.Fatal("LOS through the wall should be false")
	}
}

func TestFighter_SpawnsOnSurface(t *testing.T) {
	a := physicsArena(WithBox(-10, -5, 10, 3), WithFighter(TeamRed, 2, agent.DifficultyNormal))
	f := a.fighters[0]
	if f.pos.Y != 3 || !f.grounded {
		t.Fatalf("expected grounded at y=3, got %+v grounded=%v", f.pos, f.grounded)
	}
	stepBodies(a, 1)
	if math.Abs(f.pos.Y-3) > 1e-9 || !f.grounded {
		t.Fatalf("standing fighter should stay put, got %+v grounded=%v", f.pos, f.grounded)
	}
}

func TestFighter_WalkStepsUpLowLedge(t *testing.T) {
	a := physicsArena(
		WithBox(-10, -5, 10, 2),
		WithBox(1, 2, 10, 2.3),
		WithFighter(TeamRed, -2, agent.DifficultyNormal),
	)
	f := a.fighters[0]
	f.SetMoveOverride(true, 1)
	stepBodies(a, 2)
	if f.pos.X < 2 || math.Abs(f.pos.Y-2.3) > 1e-6 {
		t.Fatalf("expected to walk onto the ledge, got %+v", f.pos)
	}
}

func TestFighter_WallStopsWalk(t *testing.T) {
	a := physicsArena(
		WithBox(-10, -5, 10, 2),
		WithBox(1, 2, 2, 5),
		WithFighter(TeamRed, -2, agent.DifficultyNormal),
	)
	f := a.fighters[0]
	f.SetMoveOverride(true, 1)
	stepBodies(a, 3)
	want := 1 - FighterWidth/2
	if f.pos.X > want || f.pos.X < want-0.05 {
		t.Fatalf("expected to stop flush at x=%.2f, got %.3f", want, f.pos.X)
	}
	if !f.grounded {
		t.Fatal("should remain grounded against the wall")
	}
}

func TestFighter_DrownsBelowWaterLine(t *testing.T) {
	a := physicsArena(
		WithBox(-10, -5, 0, 2),
		WithFighter(TeamRed, -1, agent.DifficultyNormal),
	)
	f := a.fighters[0]
	f.SetMoveOverride(true, 1)
	stepBodies(a, 3)
	if f.Alive() {
		t.Fatalf("walking off into the water should drown, pos=%+v", f.pos)
	}
	if !a.trace.HasEntry("world", "drown", "") {
		t.Fatal("drowning should be traced")
	}
}

func TestRope_FireDownAttachesAndClamps(t *testing.T) {
	a := physicsArena(WithBox(-10, -5, 10, 2), WithFighter(TeamRed, 0, agent.DifficultyNormal))
	f := a.fighters[0]
	act(a, f)
	g := grapple{f}
	if !g.FireRope(agent.V(0, -1)) {
		t.Fatal("rope should fire on our turn")
	}
	st := g.State()
	if !st.Attached || math.Abs(st.Anchor.Y-2) > 1e-9 {
		t.Fatalf("expected anchor on the ground, got %+v", st)
	}
	for _, v := range []float64{-1, 1, -1} {
		g.SetMoveOverride(true, 0, v)
		stepBodies(a, 4)
		st = g.State()
		if st.Length < st.MinLength || st.Length > st.MaxLength {
			t.Fatalf("rope length %.3f out of [%g,%g]", st.Length, st.MinLength, st.MaxLength)
		}
	}
	if st.Length != RopeMaxLength {
		t.Fatalf("extending for 4s should reach max length, got %.3f", st.Length)
	}
}

func TestRope_SwingFromCeiling(t *testing.T) {
	a := physicsArena(
		WithBox(-20, -5, 20, 2),
		WithBox(-20, 8, 20, 9),
		WithFighter(TeamRed, 0, agent.DifficultyNormal),
	)
	f := a.fighters[0]
	f.pos = agent.V(0, 2) // spawned on top of the ceiling
	act(a, f)
	g := grapple{f}
	if !g.FireRope(agent.V(0, 1)) || !g.State().Attached {
		t.Fatal("rope should catch the ceiling")
	}
	g.SetMoveOverride(true, 0, 1)
	stepBodies(a, 2)
	if f.grounded || f.pos.Y <= 2.5 {
		t.Fatalf("reeling in should lift the fighter, got %+v grounded=%v", f.pos, f.grounded)
	}
	if d := f.ropePoint().Dist(g.State().Anchor); d > g.State().Length+1e-6 {
		t.Fatalf("body %.3f from anchor exceeds rope length %.3f", d, g.State().Length)
	}
	g.SetMoveOverride(false, 0, 0)
	g.Detach()
	stepBodies(a, 2)
	if !f.grounded {
		t.Fatal("fighter should fall back to the ground after detaching")
	}
}

func TestRope_FireWhileAttachedToggles(t *testing.T) {
	a := physicsArena(WithBox(-10, -5, 10, 2), WithFighter(TeamRed, 0, agent.DifficultyNormal))
	f := a.fighters[0]
	act(a, f)
	g := grapple{f}
	g.FireRope(agent.V(0, -1))
	g.FireRope(agent.V(0, -1))
	if g.State().Attached {
		t.Fatal("a second fire releases the rope")
	}
}

func TestGrenade_PredictionMatchesFlight(t *testing.T) {
	a := physicsArena(
		WithBox(-30, -5, 30, 2),
		WithFighter(TeamRed, -10, agent.DifficultyNormal),
	)
	f := a.fighters[0]
	act(a, f)
	l := launcher{f}
	dir := agent.FromAngleDeg(40)
	want, ok := l.PredictLandingPoint(dir)
	if !ok {
		t.Fatal("expected a landing on the ground")
	}
	f.SetExternalAimOverride(true, dir)
	if !l.TryThrowNow() {
		t.Fatal("throw should be accepted")
	}
	if l.TryThrowNow() {
		t.Fatal("only one grenade per turn")
	}
	for i := 0; i < 600 && len(a.shells) > 0; i++ {
		a.stepShells(a.dt)
	}
	if len(a.blasts) != 1 {
		t.Fatalf("expected one blast, got %d", len(a.blasts))
	}
	if d := a.blasts[0].Pos.Dist(want); d > 1e-6 {
		t.Fatalf("blast at %+v, predicted %+v", a.blasts[0].Pos, want)
	}
}

func TestGrenade_WaterLandingRejected(t *testing.T) {
	a := physicsArena(WithBox(-30, -5, -5, 2), WithFighter(TeamRed, -8, agent.DifficultyNormal))
	f := a.fighters[0]
	if _, ok := (launcher{f}).PredictLandingPoint(agent.FromAngleDeg(45)); ok {
		t.Fatal("a throw that ends in the water should not validate")
	}
}

func TestGrenade_BlastDamageFalloff(t *testing.T) {
	a := physicsArena(
		WithBox(-30, -5, 30, 2),
		WithFighter(TeamRed, -10, agent.DifficultyNormal),
		WithFighter(TeamBlue, 0, agent.DifficultyNormal),
		WithFighter(TeamBlue, 2, agent.DifficultyNormal),
	)
	near, far := a.fighters[1], a.fighters[2]
	a.explode(agent.V(0, 2), a.fighters[0])
	if near.Health >= 100 || far.Health >= 100 {
		t.Fatalf("both blue fighters are inside the radius: near=%.1f far=%.1f", near.Health, far.Health)
	}
	if near.Health >= far.Health {
		t.Fatalf("closer fighter should take more damage: near=%.1f far=%.1f", near.Health, far.Health)
	}
	if a.fighters[0].Health != 100 {
		t.Fatal("thrower outside the radius should be untouched")
	}
}

func TestClaw_HitAndCooldown(t *testing.T) {
	a := physicsArena(
		WithBox(-30, -5, 30, 2),
		WithFighter(TeamRed, -5, agent.DifficultyNormal),
		WithFighter(TeamBlue, 5, agent.DifficultyNormal),
	)
	red, blue := a.fighters[0], a.fighters[1]
	act(a, red)
	c := claw{red}
	red.SetExternalAimOverride(true, agent.V(1, 0))
	if !c.TryFireOnce() {
		t.Fatal("first shot should fire")
	}
	if blue.Health != 100-ClawDamage {
		t.Fatalf("blue should take claw damage, health=%.1f", blue.Health)
	}
	if c.TryFireOnce() {
		t.Fatal("second shot inside the cooldown should be denied")
	}
	c.SetHeld(true)
	stepBodies(a, 1)
	c.SetHeld(false)
	if blue.Health > 100-ClawDamage*5 {
		t.Fatalf("holding the trigger for a second should keep firing, health=%.1f", blue.Health)
	}
}

func TestClaw_DeniedOffTurn(t *testing.T) {
	a := physicsArena(
		WithBox(-30, -5, 30, 2),
		WithFighter(TeamRed, -5, agent.DifficultyNormal),
		WithFighter(TeamBlue, 5, agent.DifficultyNormal),
	)
	act(a, a.fighters[1])
	if (claw{a.fighters[0]}).TryFireOnce() {
		t.Fatal("firing out of turn should be denied")
	}
	a.EndTurnAfterAttack()
	if (claw{a.fighters[1]}).TryFireOnce() {
		t.Fatal("weapons lock once the turn is in grace")
	}
}

func TestTeleport_OncePerMatch(t *testing.T) {
	a := physicsArena(
		WithBox(-30, -5, 30, 2),
		WithFighter(TeamRed, -25, agent.DifficultyNormal),
		WithFighter(TeamBlue, 10, agent.DifficultyNormal),
	)
	red := a.fighters[0]
	act(a, red)
	tp := teleporter{red}
	if !tp.TryTeleportNow() {
		t.Fatal("first teleport should work")
	}
	if d := red.pos.Dist(a.fighters[1].pos); math.Abs(d-10) > 1 {
		t.Fatalf("teleport should land near engagement distance, got %.2f", d)
	}
	if tp.CanUseNow() || tp.TryTeleportNow() {
		t.Fatal("teleport is once per match")
	}
}

func TestTurns_AlternateTeams(t *testing.T) {
	a := NewArena(
		WithBox(-30, -5, 30, 2),
		WithFighterLoadout(TeamRed, -20, agent.DifficultyNormal, Loadout{}),
		WithFighterLoadout(TeamRed, -18, agent.DifficultyNormal, Loadout{}),
		WithFighterLoadout(TeamBlue, 20, agent.DifficultyNormal, Loadout{}),
		WithTurnSeconds(2),
		WithMaxTurns(4),
	)
	defer a.Close()
	var order []string
	for !a.Over() {
		a.Step()
		if f := a.Active(); f != nil && (len(order) == 0 || order[len(order)-1] != f.Label) {
			order = append(order, f.Label)
		}
	}
	want := []string{"R0", "B0", "R1", "B0"}
	if len(order) != len(want) {
		t.Fatalf("turn order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("turn order %v, want %v", order, want)
		}
	}
	if a.Result().Outcome != OutcomeInconclusive {
		t.Fatalf("turn limit should be inconclusive, got %s", a.Result().Outcome)
	}
}

func TestTurns_GraceAfterAttack(t *testing.T) {
	a := physicsArena(WithBox(-30, -5, 30, 2), WithFighter(TeamRed, 0, agent.DifficultyNormal))
	act(a, a.fighters[0])
	a.EndTurnAfterAttack()
	if a.SecondsLeft() != PostAttackGrace {
		t.Fatalf("expected %gs of grace, got %g", PostAttackGrace, a.SecondsLeft())
	}
	a.turn.left = 2
	a.EndTurnAfterAttack()
	if a.SecondsLeft() != 2 {
		t.Fatal("a second end request must not extend the clock")
	}
}
