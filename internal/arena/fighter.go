package arena

import (
	"math"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Body and movement.
const (
	Gravity       = 20.0 // world units per second squared
	FighterWidth  = 0.8
	FighterHeight = 1.0
	WalkSpeed     = 3.0  // units per second
	StepUpHeight  = 0.35 // ledges this low are walked over
	WaterLine     = 0.0  // feet below this line drown
	aimOriginFrac = 0.6  // aim origin height as a fraction of body height
	contactEps    = 1e-4
)

// Rope.
const (
	RopeMinLength = 1.0
	RopeMaxLength = 12.0
	RopeReelSpeed = 4.0  // length change per second
	SwingAccel    = 14.0 // horizontal acceleration from swing input
	SwingMaxSpeed = 7.0
)

// Team ids used by the scenarios.
const (
	TeamRed  = 0
	TeamBlue = 1
)

// Loadout says which capabilities a fighter carries.
type Loadout struct {
	Rope     bool
	Claw     bool
	Grenade  bool
	Teleport bool
}

// FullLoadout carries everything.
var FullLoadout = Loadout{Rope: true, Claw: true, Grenade: true, Teleport: true}

// Fighter is one combatant in the arena. Position is the bottom-center of
// its bounds.
type Fighter struct {
	ID         agent.CombatantID
	Label      string
	Team       int
	Difficulty agent.Difficulty
	Health     float64
	Loadout    Loadout

	arena    *Arena
	pos      agent.Vec2
	vel      agent.Vec2
	grounded bool
	facing   float64

	walkActive bool
	walkDir    float64
	aimActive  bool
	aimDir     agent.Vec2

	rope ropeState

	clawCooldown float64
	clawHeld     bool
	clawPulse    float64
	thrown       bool // grenade already thrown this turn
	teleportUsed bool
}

type ropeState struct {
	attached bool
	anchor   agent.Vec2
	length   float64

	active bool
	h, v   float64
}

// Alive reports whether the fighter still has health.
func (f *Fighter) Alive() bool { return f.Health > 0 }

// Position implements agent.Body.
func (f *Fighter) Position() agent.Vec2 { return f.pos }

// Height implements agent.Body.
func (f *Fighter) Height() float64 { return FighterHeight }

// Grounded implements agent.Body.
func (f *Fighter) Grounded() bool { return f.grounded }

// Velocity is the current body velocity.
func (f *Fighter) Velocity() agent.Vec2 { return f.vel }

// Facing is -1 or +1.
func (f *Fighter) Facing() float64 { return f.facing }

// Bounds is the body rectangle.
func (f *Fighter) Bounds() agent.Rect { return f.boundsAt(f.pos) }

func (f *Fighter) boundsAt(p agent.Vec2) agent.Rect {
	return agent.Rect{
		Min: agent.V(p.X-FighterWidth/2, p.Y),
		Max: agent.V(p.X+FighterWidth/2, p.Y+FighterHeight),
	}
}

// SetMoveOverride implements agent.Mover.
func (f *Fighter) SetMoveOverride(active bool, h float64) {
	f.walkActive = active
	f.walkDir = 0
	if active && h != 0 {
		f.walkDir = math.Copysign(1, h)
		f.facing = f.walkDir
	}
}

// SetExternalAimOverride implements agent.Aimer.
func (f *Fighter) SetExternalAimOverride(active bool, dir agent.Vec2) {
	f.aimActive = active
	if active {
		f.aimDir = dir.Norm()
		if f.aimDir.X != 0 {
			f.facing = math.Copysign(1, f.aimDir.X)
		}
	}
}

// AimOrigin implements agent.Aimer.
func (f *Fighter) AimOrigin() agent.Vec2 {
	return f.pos.Add(agent.V(0, FighterHeight*aimOriginFrac))
}

// AimDir is the override direction when active, else straight ahead.
func (f *Fighter) AimDir() agent.Vec2 {
	if f.aimActive && f.aimDir != (agent.Vec2{}) {
		return f.aimDir
	}
	return agent.V(f.facing, 0)
}

// Aiming reports whether an external aim override is held.
func (f *Fighter) Aiming() bool { return f.aimActive }

// RopeAttached returns the anchor when the rope is attached.
func (f *Fighter) RopeAttached() (agent.Vec2, bool) { return f.rope.anchor, f.rope.attached }

// canAct is true while it is this fighter's turn and the turn has not moved
// into its post-attack grace.
func (f *Fighter) canAct() bool {
	return f.Alive() && f.arena.turn.active == f && !f.arena.turn.attacked
}

// Agent builds the capability set the controller drives. Capabilities the
// loadout lacks stay nil.
func (f *Fighter) Agent() *agent.Agent {
	ag := &agent.Agent{
		ID:         f.ID,
		Label:      f.Label,
		Team:       f.Team,
		Difficulty: f.Difficulty,
		Body:       f,
		Move:       f,
		Aim:        f,
	}
	if f.Loadout.Rope {
		ag.Rope = grapple{f}
	}
	if f.Loadout.Claw {
		ag.Claw = claw{f}
	}
	if f.Loadout.Grenade {
		ag.Grenade = launcher{f}
	}
	if f.Loadout.Teleport {
		ag.Teleport = teleporter{f}
	}
	return ag
}

// --- Physics ---

func (f *Fighter) step(dt float64) {
	if !f.Alive() {
		return
	}
	if f.clawCooldown > 0 {
		f.clawCooldown = math.Max(0, f.clawCooldown-dt)
	}
	if f.clawHeld && f.canAct() {
		f.clawPulse -= dt
		if f.clawPulse <= 0 {
			f.arena.fireClaw(f)
			f.clawPulse = ClawPulseSeconds
		}
	}

	if f.rope.attached {
		f.stepRopeInput(dt)
	}
	switch {
	case f.walkActive && f.grounded && f.walkDir != 0:
		f.vel.X = f.walkDir * WalkSpeed
	case f.grounded && !(f.rope.attached && f.rope.active && f.rope.h != 0):
		f.vel.X = 0
	}
	f.vel.Y -= Gravity * dt
	f.moveX(dt)
	f.moveY(dt)
	if f.rope.attached {
		f.applyRopeConstraint()
	}
	if f.pos.Y < WaterLine {
		f.arena.drown(f)
	}
}

func (f *Fighter) stepRopeInput(dt float64) {
	r := &f.rope
	if !r.active {
		return
	}
	if r.v != 0 {
		// Positive v reels in.
		r.length = clampF(r.length-r.v*RopeReelSpeed*dt, RopeMinLength, RopeMaxLength)
	}
	if r.h != 0 {
		f.vel.X = clampF(f.vel.X+r.h*SwingAccel*dt, -SwingMaxSpeed, SwingMaxSpeed)
		f.facing = math.Copysign(1, r.h)
	}
}

// moveX advances horizontally, stepping up low ledges while grounded.
func (f *Fighter) moveX(dt float64) {
	if f.vel.X == 0 {
		return
	}
	next := agent.V(f.pos.X+f.vel.X*dt, f.pos.Y)
	blockers := f.arena.overlapping(f.boundsAt(next))
	if len(blockers) == 0 {
		f.pos = next
		return
	}
	top := blockers[0].Max.Y
	for _, b := range blockers[1:] {
		top = math.Max(top, b.Max.Y)
	}
	if f.grounded && top-f.pos.Y <= StepUpHeight {
		up := agent.V(next.X, top)
		if len(f.arena.overlapping(f.boundsAt(up))) == 0 {
			f.pos = up
			return
		}
	}
	// Stop flush against the nearest face.
	x := next.X
	for _, b := range blockers {
		if f.vel.X > 0 {
			x = math.Min(x, b.Min.X-FighterWidth/2-contactEps)
		} else {
			x = math.Max(x, b.Max.X+FighterWidth/2+contactEps)
		}
	}
	if len(f.arena.overlapping(f.boundsAt(agent.V(x, f.pos.Y)))) == 0 {
		f.pos.X = x
	}
	f.vel.X = 0
}

// moveY advances vertically and settles grounded state.
func (f *Fighter) moveY(dt float64) {
	next := agent.V(f.pos.X, f.pos.Y+f.vel.Y*dt)
	blockers := f.arena.overlapping(f.boundsAt(next))
	f.grounded = false
	if len(blockers) == 0 {
		f.pos = next
		return
	}
	if f.vel.Y <= 0 {
		y := blockers[0].Max.Y
		for _, b := range blockers[1:] {
			y = math.Max(y, b.Max.Y)
		}
		f.pos.Y = y
		f.grounded = true
	} else {
		y := blockers[0].Min.Y
		for _, b := range blockers[1:] {
			y = math.Min(y, b.Min.Y)
		}
		f.pos.Y = y - FighterHeight - contactEps
	}
	f.vel.Y = 0
}

// ropePoint is where the rope meets the body.
func (f *Fighter) ropePoint() agent.Vec2 {
	return f.pos.Add(agent.V(0, FighterHeight/2))
}

// applyRopeConstraint keeps the body within rope length of the anchor and
// strips outward velocity.
func (f *Fighter) applyRopeConstraint() {
	r := &f.rope
	d := f.ropePoint().Sub(r.anchor)
	dist := d.Len()
	if dist <= r.length || dist < 1e-9 {
		return
	}
	n := d.Scale(1 / dist)
	shift := n.Scale(r.length - dist)
	moved := f.pos.Add(shift)
	if len(f.arena.overlapping(f.boundsAt(moved))) == 0 {
		f.pos = moved
	}
	if vr := f.vel.Dot(n); vr > 0 {
		f.vel = f.vel.Sub(n.Scale(vr))
	}
}

func (f *Fighter) detachRope() {
	f.rope = ropeState{}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// --- Capability adapters ---

// grapple is the rope capability. It is separate from Fighter because its
// move override takes a vertical axis.
type grapple struct{ f *Fighter }

func (g grapple) State() agent.RopeState {
	r := g.f.rope
	return agent.RopeState{
		Attached:  r.attached,
		Anchor:    r.anchor,
		Length:    r.length,
		MinLength: RopeMinLength,
		MaxLength: RopeMaxLength,
	}
}

// FireRope shoots the rope along dir. Firing while attached releases the
// rope, the way a player's rope button toggles.
func (g grapple) FireRope(dir agent.Vec2) bool {
	f := g.f
	if !f.canAct() {
		return false
	}
	if f.rope.attached {
		f.detachRope()
		f.arena.worldLog(f, "rope_toggle", "", 0)
		return true
	}
	dir = dir.Norm()
	if dir == (agent.Vec2{}) {
		return false
	}
	from := f.AimOrigin()
	to := from.Add(dir.Scale(RopeMaxLength))
	t, ok := f.arena.castTerrain(from, to)
	if !ok {
		return true // fired, nothing caught
	}
	anchor := from.Add(to.Sub(from).Scale(t))
	f.rope = ropeState{
		attached: true,
		anchor:   anchor,
		length:   clampF(f.ropePoint().Dist(anchor), RopeMinLength, RopeMaxLength),
	}
	return true
}

func (g grapple) SetMoveOverride(active bool, h, v float64) {
	r := &g.f.rope
	r.active, r.h, r.v = active, h, v
	if !active {
		r.h, r.v = 0, 0
	}
}

func (g grapple) Detach() {
	g.f.detachRope()
}

type teleporter struct{ f *Fighter }

func (t teleporter) Enabled() bool { return true }

func (t teleporter) CanUseNow() bool { return t.f.canAct() && !t.f.teleportUsed }

func (t teleporter) TryTeleportNow() bool {
	f := t.f
	if !t.CanUseNow() {
		return false
	}
	spot, ok := f.arena.teleportSpot(f)
	if !ok {
		return false
	}
	from := f.pos
	f.detachRope()
	f.pos, f.vel = spot, agent.Vec2{}
	f.grounded = true
	f.teleportUsed = true
	f.arena.worldLog(f, "teleport", "", from.Dist(spot))
	return true
}
