package agent

import "fmt"

// readiness is what the agent could fire at the current target right now.
type readiness struct {
	claw       bool
	grenade    bool
	closeRange bool
	dist       float64
	throw      GrenadeSolution
}

func (rd readiness) any() bool { return rd.claw || rd.grenade }

// readiness evaluates both weapons against the current target without moving.
func (r *turnRun) readiness() readiness {
	a, t, cfg := r.agent, r.target, r.cfg
	origin := r.aimOrigin()
	rd := readiness{dist: origin.Dist(t.AimPoint())}

	if a.Claw != nil && a.Claw.Enabled() {
		rng := a.Claw.Range()
		rd.closeRange = rd.dist <= rng && IsPointBlank(rd.dist, rng, cfg.CloseRangeFactor)
		rd.claw = CanClawHit(r.world, origin, t, a.Team, rng, cfg.CloseRangeFactor)
	}
	if a.Grenade != nil && a.Grenade.Enabled() {
		from, _ := a.Grenade.ThrowOrigin()
		d := from.Dist(t.Position)
		if d <= a.Grenade.MaxRange() && d > cfg.GrenadeSelfSafeRadius {
			rd.throw, rd.grenade = FindGrenadeAim(a.Grenade, t.Position, r.profile.GrenadeSamples, cfg.GrenadeAcceptRadius)
		}
	}
	return rd
}

type attackOutcome int

const (
	attackFired   attackOutcome = iota
	attackFailed                // nothing fired; caller retries its loop
	attackAborted               // turn lost
)

type attackResult struct {
	outcome attackOutcome
	weapon  Weapon
}

// attack runs select -> aim -> fire -> record, plus continuous claw fire.
// A denied fire resets the aim and pauses before returning attackFailed so the
// caller never retries in a tight loop.
func (r *turnRun) attack(rd readiness) attackResult {
	a := r.agent
	w := r.balance.SelectWeapon(a.Team, rd.claw, rd.grenade, rd.closeRange)
	r.log("balance", "select", w.String(), r.balance.Shots(a.Team).ClawFraction())

	usable := (w == WeaponClaw && rd.claw) || (w == WeaponGrenade && rd.grenade)
	if !usable {
		r.log("attack", "unusable", w.String(), 0)
		return r.failAttack(w)
	}
	dir, ok := r.idealAim(w, rd)
	if !ok {
		r.log("attack", "no_aim", w.String(), rd.dist)
		return r.failAttack(w)
	}
	dir = ApplyAimNoise(dir, r.profile.AimNoiseDeg, r.rng)

	r.setAim(dir)
	defer r.clearAim()
	if r.wait(r.cfg.AimSettleSeconds) == AbortTurn {
		return attackResult{outcome: attackAborted, weapon: w}
	}
	if !r.refreshTarget() {
		r.log("attack", "target_down", "settle", 0)
		r.clearAim()
		return r.failAttack(w)
	}

	var fired bool
	if w == WeaponClaw {
		fired = a.Claw.TryFireOnce()
	} else {
		fired = a.Grenade.TryThrowNow()
	}
	if !fired {
		r.log("attack", "fire_denied", w.String(), 0)
		r.clearAim()
		return r.failAttack(w)
	}
	r.balance.RecordShot(a.Team, w == WeaponClaw)
	shots := r.balance.Shots(a.Team)
	r.log("attack", "fire", w.String(), rd.dist)
	r.log("balance", "record", fmt.Sprintf("total=%d claw=%d", shots.Total, shots.Claw), shots.ClawFraction())

	if w == WeaponClaw {
		if r.holdClaw() == AbortTurn {
			return attackResult{outcome: attackAborted, weapon: w}
		}
	}
	return attackResult{outcome: attackFired, weapon: w}
}

func (r *turnRun) failAttack(w Weapon) attackResult {
	if r.wait(r.cfg.FireFailRetrySeconds) == AbortTurn {
		return attackResult{outcome: attackAborted, weapon: w}
	}
	return attackResult{outcome: attackFailed, weapon: w}
}

// idealAim is the noise-free direction for w.
func (r *turnRun) idealAim(w Weapon, rd readiness) (Vec2, bool) {
	if w == WeaponGrenade {
		return rd.throw.Dir, rd.grenade
	}
	return r.clawAim(rd.closeRange)
}

// clawAim finds a validated hitscan line; at point-blank the direct line is
// accepted without one.
func (r *turnRun) clawAim(pointBlank bool) (Vec2, bool) {
	origin := r.aimOrigin()
	aimAt := r.target.AimPoint()
	if d, ok := FindHitscanAim(r.world, r.target.ID, origin, aimAt, r.agent.Claw.Range(), r.cfg.ClawFireDownDeg); ok {
		return d, true
	}
	if !pointBlank {
		return Vec2{}, false
	}
	d := aimAt.Sub(origin).Norm()
	if d == (Vec2{}) {
		d = V(r.sideToTarget(), 0)
	}
	return withFireDown(d, r.cfg.ClawFireDownDeg), true
}

// holdClaw keeps the trigger down for the difficulty's hold time, re-aiming
// at the target between pulses.
func (r *turnRun) holdClaw() Resume {
	claw := r.agent.Claw
	claw.SetHeld(true)
	defer claw.SetHeld(false)

	end := r.now() + r.profile.ClawHoldSeconds
	for r.now() < end {
		if r.wait(r.cfg.ClawReaimSeconds) == AbortTurn {
			return AbortTurn
		}
		if !r.refreshTarget() {
			r.log("attack", "target_down", "claw", 0)
			return Continue
		}
		origin := r.aimOrigin()
		dist := origin.Dist(r.target.AimPoint())
		dir, ok := r.clawAim(IsPointBlank(dist, claw.Range(), r.cfg.CloseRangeFactor))
		if !ok {
			continue
		}
		r.setAim(ApplyAimNoise(dir, r.profile.AimNoiseDeg, r.rng))
	}
	return Continue
}

// opportunisticFire shoots at the current target if a weapon lines up,
// without approaching. A claw attack ends the turn.
func (r *turnRun) opportunisticFire() (bool, Resume) {
	rd := r.readiness()
	if !rd.any() {
		return false, Continue
	}
	r.log("attack", "opportunistic", "", rd.dist)
	res := r.attack(rd)
	switch res.outcome {
	case attackAborted:
		return false, AbortTurn
	case attackFailed:
		return false, Continue
	}
	if res.weapon == WeaponClaw {
		r.endTurn()
	}
	return true, Continue
}

func (r *turnRun) setAim(dir Vec2) {
	if r.agent.Aim != nil {
		r.agent.Aim.SetExternalAimOverride(true, dir)
	}
}

func (r *turnRun) clearAim() {
	if r.agent.Aim != nil {
		r.agent.Aim.SetExternalAimOverride(false, Vec2{})
	}
}
