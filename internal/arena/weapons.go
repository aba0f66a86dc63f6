package arena

import (
	"math"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Claw (hitscan).
const (
	ClawRange        = 25.0
	ClawDamage       = 3.0
	ClawCooldown     = 0.25 // seconds between single shots
	ClawPulseSeconds = 0.15 // held-trigger fire interval
	beamSeconds      = 0.08 // how long a claw beam stays visible
)

// Grenade (ballistic).
const (
	GrenadeMaxRange    = 20.0
	GrenadeDamage      = 40.0
	BlastRadius        = 3.0
	BlastKnockback     = 9.0
	grenadeFlightLimit = 8.0 // seconds before a shell is discarded
	grenadeArmSeconds  = 0.1 // shells ignore the thrower this long
)

// GrenadeSpeed is the launch speed that reaches GrenadeMaxRange at 45 degrees
// on flat ground.
var GrenadeSpeed = math.Sqrt(Gravity * GrenadeMaxRange)

// Shell is a grenade in flight.
type Shell struct {
	Pos   agent.Vec2
	Vel   agent.Vec2
	Owner *Fighter
	age   float64
}

// Beam is a recent claw shot, kept briefly for drawing.
type Beam struct {
	From, To agent.Vec2
	Hit      bool
	ttl      float64
}

type claw struct{ f *Fighter }

func (c claw) Enabled() bool  { return true }
func (c claw) Range() float64 { return ClawRange }

func (c claw) TryFireOnce() bool {
	f := c.f
	if !f.canAct() || f.clawCooldown > 0 {
		return false
	}
	f.arena.fireClaw(f)
	f.clawCooldown = ClawCooldown
	return true
}

func (c claw) SetHeld(held bool) {
	c.f.clawHeld = held
	c.f.clawPulse = ClawPulseSeconds
}

// fireClaw casts one hitscan ray along f's aim.
func (a *Arena) fireClaw(f *Fighter) {
	from := f.AimOrigin()
	dir := f.AimDir()
	hit, ok := a.Raycast(from, dir, ClawRange)
	beam := Beam{From: from, To: from.Add(dir.Scale(ClawRange)), ttl: beamSeconds}
	if ok {
		beam.To = hit.Point
		if victim := a.fighter(hit.Combatant); victim != nil {
			beam.Hit = true
			a.damage(victim, f, ClawDamage, "claw")
		}
	}
	a.beams = append(a.beams, beam)
}

type launcher struct{ f *Fighter }

func (l launcher) Enabled() bool     { return true }
func (l launcher) MaxRange() float64 { return GrenadeMaxRange }

func (l launcher) ThrowOrigin() (agent.Vec2, float64) {
	return l.f.AimOrigin(), FighterHeight
}

// PredictLandingPoint runs the same integrator the shells use, against
// terrain only. Throws that end in the water or fly too long are rejected.
func (l launcher) PredictLandingPoint(dir agent.Vec2) (agent.Vec2, bool) {
	dir = dir.Norm()
	if dir == (agent.Vec2{}) {
		return agent.Vec2{}, false
	}
	a := l.f.arena
	pos := l.f.AimOrigin()
	vel := dir.Scale(GrenadeSpeed)
	for t := 0.0; t < grenadeFlightLimit; t += a.dt {
		next, nextVel := integrateShell(pos, vel, a.dt)
		if tt, ok := a.castTerrain(pos, next); ok {
			return pos.Add(next.Sub(pos).Scale(tt)), true
		}
		if next.Y < WaterLine {
			return agent.Vec2{}, false
		}
		pos, vel = next, nextVel
	}
	return agent.Vec2{}, false
}

func (l launcher) TryThrowNow() bool {
	f := l.f
	if !f.canAct() || f.thrown {
		return false
	}
	f.thrown = true
	f.arena.shells = append(f.arena.shells, &Shell{
		Pos:   f.AimOrigin(),
		Vel:   f.AimDir().Scale(GrenadeSpeed),
		Owner: f,
	})
	return true
}

func integrateShell(pos, vel agent.Vec2, dt float64) (agent.Vec2, agent.Vec2) {
	vel = agent.V(vel.X, vel.Y-Gravity*dt)
	return pos.Add(vel.Scale(dt)), vel
}

// stepShells advances every shell, exploding on terrain or fighter contact.
func (a *Arena) stepShells(dt float64) {
	live := a.shells[:0]
	for _, s := range a.shells {
		next, vel := integrateShell(s.Pos, s.Vel, dt)
		s.age += dt
		impact, hit := a.shellImpact(s, next)
		switch {
		case hit:
			a.explode(impact, s.Owner)
		case next.Y < WaterLine:
			a.worldLog(s.Owner, "shell_sunk", "", next.X)
		case s.age > grenadeFlightLimit:
			a.worldLog(s.Owner, "shell_lost", "", next.X)
		default:
			s.Pos, s.Vel = next, vel
			live = append(live, s)
		}
	}
	a.shells = live
}

func (a *Arena) shellImpact(s *Shell, next agent.Vec2) (agent.Vec2, bool) {
	best, found := a.castTerrain(s.Pos, next)
	for _, f := range a.fighters {
		if !f.Alive() || (f == s.Owner && s.age < grenadeArmSeconds) {
			continue
		}
		if t, ok := rayAABBHitT(s.Pos, next, f.Bounds()); ok && (!found || t < best) {
			best, found = t, true
		}
	}
	if !found {
		return agent.Vec2{}, false
	}
	return s.Pos.Add(next.Sub(s.Pos).Scale(best)), true
}

// explode damages and pushes every fighter within BlastRadius, with linear
// falloff from the center of each body.
func (a *Arena) explode(p agent.Vec2, owner *Fighter) {
	a.blasts = append(a.blasts, Blast{Pos: p, ttl: blastSeconds})
	a.worldLog(owner, "blast", "", p.X)
	for _, f := range a.fighters {
		if !f.Alive() {
			continue
		}
		d := f.ropePoint().Sub(p)
		dist := d.Len()
		if dist >= BlastRadius {
			continue
		}
		k := 1 - dist/BlastRadius
		push := d.Norm()
		if push == (agent.Vec2{}) {
			push = agent.V(0, 1)
		}
		f.vel = f.vel.Add(push.Scale(BlastKnockback * k)).Add(agent.V(0, BlastKnockback*k*0.5))
		f.grounded = false
		a.damage(f, owner, GrenadeDamage*k, "grenade")
	}
}

// Blast is a recent explosion, kept briefly for drawing.
type Blast struct {
	Pos agent.Vec2
	ttl float64
}

const blastSeconds = 0.4

// damage applies amount to victim and records kills.
func (a *Arena) damage(victim, attacker *Fighter, amount float64, cause string) {
	if !victim.Alive() || amount <= 0 {
		return
	}
	victim.Health -= amount
	a.worldLog(victim, "damage", cause, amount)
	if victim.Health > 0 {
		return
	}
	victim.Health = 0
	victim.detachRope()
	if attacker != nil && attacker != victim {
		a.worldLog(attacker, "kill", victim.Label, 1)
	}
}

// drown kills a fighter that fell below the water line.
func (a *Arena) drown(f *Fighter) {
	f.Health = 0
	f.vel = agent.Vec2{}
	f.detachRope()
	a.worldLog(f, "drown", "", f.pos.X)
}

// teleportSpot picks a clear standing point on top of the terrain whose
// nearest enemy is closest to a comfortable engagement distance.
func (a *Arena) teleportSpot(f *Fighter) (agent.Vec2, bool) {
	const (
		ideal   = 10.0
		spacing = 1.0
	)
	var best agent.Vec2
	bestScore, found := 0.0, false
	for _, b := range a.boxes {
		if b.Max.Y <= WaterLine {
			continue
		}
		for x := b.Min.X + FighterWidth; x <= b.Max.X-FighterWidth; x += spacing {
			p := agent.V(x, b.Max.Y)
			if len(a.overlapping(f.boundsAt(p))) > 0 {
				continue
			}
			enemy, ok := a.nearestEnemyDist(p, f.Team)
			if !ok || enemy < BlastRadius*2 {
				continue
			}
			score := math.Abs(enemy - ideal)
			if !found || score < bestScore {
				best, bestScore, found = p, score, true
			}
		}
	}
	return best, found
}

func (a *Arena) nearestEnemyDist(p agent.Vec2, team int) (float64, bool) {
	best, found := 0.0, false
	for _, e := range a.fighters {
		if e.Team == team || !e.Alive() {
			continue
		}
		if d := p.Dist(e.pos); !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}
