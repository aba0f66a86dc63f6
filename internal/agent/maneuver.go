package agent

import (
	"fmt"
	"math"
)

// Floors for the height-relative thresholds, for very small bodies.
const (
	minStuckRadius      = 0.25
	minWindowGain       = 0.25
	minRopeRise         = 0.10
	minTunnelEscapeDist = 0.60

	ropeLengthEps    = 1e-3
	ropeStallSeconds = 0.5 // extend input held this long without growth counts as no progress
)

type approachOutcome int

const (
	approachReady      approachOutcome = iota // a weapon is usable
	approachTimeout                           // budget or turn floor hit, not ready
	approachAttacked                          // opportunistic fire after a rope maneuver shot
	approachTargetLost                        // target died or vanished
	approachAborted                           // turn lost
)

// Reasons a cycle can trigger a rope maneuver, highest priority first. At
// most one maneuver runs per cycle whatever the number of reasons.
const (
	triggerStall      = "stall"
	triggerNoProgress = "no_progress"
	triggerWindow     = "window"
	triggerCheckpoint = "checkpoint"
)

// approach walks toward the target until a weapon is usable or the budget
// runs out, escalating to rope maneuvers and tunnel escapes when stuck.
func (r *turnRun) approach() approachOutcome {
	cfg := r.cfg
	h := r.agent.Height()
	windowGain := math.Max(minWindowGain, h*cfg.WindowGainHeightMul)
	failRise := math.Max(minRopeRise, h*cfg.RopeFailRiseHeightMul)

	start := r.now()
	windowStart := r.targetDist()
	checkpointAt, checkpointDist := start, windowStart
	cycle, stall, ropeFails := 0, 0, 0

	for {
		if !r.refreshTarget() {
			r.log("approach", "target_lost", "", 0)
			return approachTargetLost
		}
		if r.readiness().any() {
			r.log("approach", "ready", "", r.targetDist())
			return approachReady
		}
		if r.now()-start >= cfg.ApproachMaxSeconds {
			r.log("approach", "timeout", "budget", r.now()-start)
			return approachTimeout
		}
		if r.outOfTime() {
			r.log("approach", "timeout", "turn_floor", r.turn.SecondsLeft())
			return approachTimeout
		}
		r.checkAntiStuck()

		before := r.targetDist()
		if r.walk(r.sideToTarget(), cfg.ApproachStepSeconds) == AbortTurn {
			return approachAborted
		}
		if !r.refreshTarget() {
			r.log("approach", "target_lost", "", 0)
			return approachTargetLost
		}
		after := r.targetDist()
		cycle++

		var reasons []string
		if before-after < cfg.ProgressEpsilon {
			stall++
			reasons = append(reasons, triggerNoProgress)
		} else {
			stall = 0
		}
		if cycle%cfg.WindowCycles == 0 {
			if windowStart-after < windowGain {
				reasons = append(reasons, triggerWindow)
			}
			windowStart = after
		}
		if r.now()-checkpointAt >= cfg.CheckpointSeconds {
			if after >= checkpointDist {
				reasons = append(reasons, triggerCheckpoint)
			}
			checkpointAt, checkpointDist = r.now(), after
		}
		if stall >= cfg.StallCycles {
			reasons = append([]string{triggerStall}, reasons...)
			stall = 0
		}
		if len(reasons) == 0 {
			continue
		}

		r.log("approach", "rope_trigger", reasons[0], float64(cycle))
		rope := r.ropeManeuver()
		if rope.resume == AbortTurn {
			return approachAborted
		}
		if rope.shot {
			return approachAttacked
		}
		if rope.rise < failRise {
			ropeFails++
		} else {
			ropeFails = 0
		}
		// Measure the windows from wherever the maneuver left us.
		windowStart = r.targetDist()
		checkpointAt, checkpointDist = r.now(), windowStart

		if ropeFails >= cfg.RopeFailsBeforeTunnel {
			ropeFails = 0
			esc := r.tunnelEscape()
			if esc.resume == AbortTurn {
				return approachAborted
			}
			if esc.shot {
				return approachAttacked
			}
			windowStart = r.targetDist()
			checkpointAt, checkpointDist = r.now(), windowStart
		}
	}
}

// checkAntiStuck fires once per turn, at the first check after
// AntiStuckSeconds. The attempt is consumed whether or not the teleport works.
func (r *turnRun) checkAntiStuck() {
	if r.antiStuckUsed || r.now()-r.start < r.cfg.AntiStuckSeconds {
		return
	}
	r.antiStuckUsed = true

	moved := r.pos().Dist(r.startPos)
	limit := math.Max(minStuckRadius, r.agent.Height()) * r.cfg.AntiStuckHeightMul
	if moved >= limit {
		r.log("stuck", "clear", "", moved)
		return
	}
	tp := r.agent.Teleport
	if tp == nil || !tp.Enabled() || !tp.CanUseNow() {
		r.log("stuck", "teleport_unavailable", "", moved)
		return
	}
	if tp.TryTeleportNow() {
		r.log("stuck", "teleport", "ok", moved)
	} else {
		r.log("stuck", "teleport", "denied", moved)
	}
}

// ropeResult is what a rope maneuver (or a tunnel escape) achieved.
type ropeResult struct {
	resume     Resume
	attached   bool    // the rope caught at least once
	moved      float64 // net displacement
	rise       float64 // net vertical displacement, unsigned
	noProgress bool    // extend input stopped lengthening the rope
	shot       bool    // opportunistic fire landed an attack
}

// ropeAngleAllowed rejects near-horizontal rope shots.
func (r *turnRun) ropeAngleAllowed(dir Vec2) bool {
	elev := math.Abs(math.Asin(clamp(dir.Norm().Y, -1, 1))) * 180 / math.Pi
	return elev >= r.cfg.RopeForbiddenBandDeg
}

// ropeManeuver fires the rope straight down, extends, swings toward the
// target, detaches safely and finishes with a short walk and a shot if one
// lines up.
func (r *turnRun) ropeManeuver() ropeResult {
	cfg := r.cfg
	res := ropeResult{resume: Continue}
	startPos := r.pos()
	g := r.agent.Rope

	finish := func() ropeResult {
		d := r.pos().Sub(startPos)
		res.moved = d.Len()
		res.rise = math.Abs(d.Y)
		return res
	}

	switch {
	case g == nil:
		r.log("rope", "unavailable", "no_rope", 0)
		return finish()
	case g.State().Attached:
		// Firing again would toggle; never risk a midair release.
		r.log("rope", "unavailable", "already_attached", 0)
		return finish()
	}
	down := V(0, -1)
	if !r.ropeAngleAllowed(down) {
		r.log("rope", "unavailable", "forbidden_angle", 0)
		return finish()
	}
	if !g.FireRope(down) {
		r.log("rope", "unavailable", "denied", 0)
		return finish()
	}
	defer g.SetMoveOverride(false, 0, 0)

	if res.resume = r.wait(cfg.RopeAttachWaitSeconds); res.resume == AbortTurn {
		return finish()
	}
	if !g.State().Attached {
		r.log("rope", "unavailable", "no_attach", 0)
		return finish()
	}
	res.attached = true
	r.log("rope", "attach", "", g.State().Length)

	// Extend.
	g.SetMoveOverride(true, 0, -1)
	holdStart := r.now()
	lastLen, lastGrowth := g.State().Length, holdStart
	for {
		if res.resume = r.wait(0); res.resume == AbortTurn {
			return finish()
		}
		st := g.State()
		if !st.Attached {
			break
		}
		elapsed := r.now() - holdStart
		atMax := st.Length >= st.MaxLength-ropeLengthEps
		if st.Length > lastLen+ropeLengthEps {
			lastLen, lastGrowth = st.Length, r.now()
		} else if !atMax && r.now()-lastGrowth >= ropeStallSeconds {
			res.noProgress = true
		}
		if atMax && elapsed >= cfg.RopeExtendMinSeconds {
			break
		}
		if elapsed >= cfg.RopeExtendMinSeconds+cfg.RopeExtendSafetySeconds {
			res.noProgress = true
			r.log("rope", "extend_cap", "", st.Length)
			break
		}
	}

	// Swing.
	side := r.sideToTarget()
	g.SetMoveOverride(true, side, 0)
	if res.resume = r.wait(cfg.RopeSwingSeconds); res.resume == AbortTurn {
		return finish()
	}
	g.SetMoveOverride(false, 0, 0)

	if res.resume = r.safeDetach(); res.resume == AbortTurn {
		return finish()
	}
	if g.State().Attached {
		if res.resume = r.steerToGround(); res.resume == AbortTurn {
			return finish()
		}
	}

	if !g.State().Attached {
		if res.resume = r.walk(side, cfg.LandingBurstSeconds); res.resume == AbortTurn {
			return finish()
		}
	}
	finish()
	r.log("rope", "done", fmt.Sprintf("rise=%.2f no_progress=%t", res.rise, res.noProgress), res.moved)

	if r.refreshTarget() {
		res.shot, res.resume = r.opportunisticFire()
	}
	return res
}

// detach releases the rope. Callers only reach it with ground contact or
// after the ground-steer timeout.
func (r *turnRun) detach(reason string) {
	grounded := 0.0
	if r.grounded() {
		grounded = 1
	}
	r.agent.Rope.Detach()
	r.log("rope", "detach", reason, grounded)
}

// safeDetach lets go of the rope only with ground contact: immediately if
// grounded, otherwise after descending, otherwise after reeling toward the
// anchor. Without contact the agent stays attached.
func (r *turnRun) safeDetach() Resume {
	g := r.agent.Rope
	if !g.State().Attached {
		return Continue
	}
	if r.grounded() {
		r.detach("grounded")
		return Continue
	}
	defer g.SetMoveOverride(false, 0, 0)

	phases := []struct {
		name    string
		v       float64
		seconds float64
	}{
		{"grounded_descend", -1, r.cfg.DetachDescendSeconds},
		{"grounded_reel", 1, r.cfg.DetachReelSeconds},
	}
	for _, ph := range phases {
		g.SetMoveOverride(true, 0, ph.v)
		deadline := r.now() + ph.seconds
		for r.now() < deadline {
			if r.wait(0) == AbortTurn {
				return AbortTurn
			}
			if !g.State().Attached {
				return Continue
			}
			if r.grounded() {
				r.detach(ph.name)
				return Continue
			}
		}
	}
	r.log("rope", "hold", "no_ground", 0)
	return Continue
}

// steerToGround works the rope toward the ground: extending while below the
// anchor, reeling in while above it. It detaches on contact, or on timeout
// when ForceDetachOnSteerTimeout is set.
func (r *turnRun) steerToGround() Resume {
	g := r.agent.Rope
	defer g.SetMoveOverride(false, 0, 0)

	deadline := r.now() + r.cfg.GroundSteerSeconds
	for {
		st := g.State()
		if !st.Attached {
			return Continue
		}
		v := -1.0
		if r.pos().Y > st.Anchor.Y {
			v = 1
		}
		g.SetMoveOverride(true, 0, v)

		if r.wait(0) == AbortTurn {
			return AbortTurn
		}
		if !g.State().Attached {
			return Continue
		}
		if r.grounded() {
			r.detach("grounded_steer")
			return Continue
		}
		if r.now() >= deadline {
			if r.cfg.ForceDetachOnSteerTimeout {
				r.detach("steer_timeout")
			} else {
				r.log("rope", "hold", "steer_timeout", 0)
			}
			return Continue
		}
	}
}

// tunnelEscape walks ever longer alternating legs, each followed by a rope
// descent, until one leg displaces the agent far enough or time runs short.
func (r *turnRun) tunnelEscape() ropeResult {
	cfg := r.cfg
	need := math.Max(minTunnelEscapeDist, r.agent.Height()*cfg.TunnelEscapeHeightMul)
	dir := r.sideToTarget()
	leg := cfg.TunnelFirstLeg
	r.log("tunnel", "start", "", need)

	for i := 0; i < cfg.TunnelMaxLegs; i++ {
		if r.outOfTime() {
			r.log("tunnel", "stop", "turn_floor", float64(i))
			return ropeResult{resume: Continue}
		}
		legStart := r.pos()
		if r.walkDistance(dir, leg, cfg.TunnelLegTimeout) == AbortTurn {
			return ropeResult{resume: AbortTurn}
		}
		rope := r.ropeManeuver()
		if rope.resume == AbortTurn || rope.shot {
			return rope
		}
		if moved := r.pos().Dist(legStart); moved > need {
			r.log("tunnel", "escaped", fmt.Sprintf("leg=%d", i+1), moved)
			return ropeResult{resume: Continue, moved: moved}
		}
		leg += cfg.TunnelLegGrowth
		dir = -dir
	}
	r.log("tunnel", "stop", "max_legs", float64(cfg.TunnelMaxLegs))
	return ropeResult{resume: Continue}
}

// walkDistance walks toward dir until the agent has covered dist
// horizontally or timeout seconds pass.
func (r *turnRun) walkDistance(dir, dist, timeout float64) Resume {
	if r.agent.Move == nil {
		return Continue
	}
	r.agent.Move.SetMoveOverride(true, dir)
	defer r.agent.Move.SetMoveOverride(false, 0)

	startX := r.pos().X
	deadline := r.now() + timeout
	for math.Abs(r.pos().X-startX) < dist && r.now() < deadline {
		if r.wait(0) == AbortTurn {
			return AbortTurn
		}
	}
	return Continue
}
