package agent

import (
	"math"
	"math/rand"
)

// Grenade fan bounds, in degrees above (or below) the horizontal.
const (
	grenadeUpMinDeg   = 15.0
	grenadeUpMaxDeg   = 78.0
	grenadeDownMinDeg = -10.0
	grenadeDownMaxDeg = -75.0

	// The downward fan is only sampled when the target sits this far below
	// the release point, as a fraction of the thrower's height.
	grenadeDownFanHeightFrac = 0.35

	minGrenadeAcceptRadius = 0.5
)

// Hitscan fan search.
const (
	hitscanFanSteps   = 28
	hitscanFanStepDeg = 2.5
)

// GrenadeSolution is the best throw found by FindGrenadeAim.
type GrenadeSolution struct {
	Dir     Vec2
	Landing Vec2
	Miss    float64 // landing distance from the target point
}

// FindGrenadeAim samples release angles and keeps the one whose predicted
// landing point is closest to targetPoint. It only succeeds when that miss is
// within max(0.5, acceptRadius); directions the predictor never validated are
// never returned.
func FindGrenadeAim(g GrenadeWeapon, targetPoint Vec2, samples int, acceptRadius float64) (GrenadeSolution, bool) {
	if g == nil {
		return GrenadeSolution{}, false
	}
	if samples < 2 {
		samples = 2
	}
	origin, height := g.ThrowOrigin()
	side := signOf(targetPoint.X - origin.X)

	best := GrenadeSolution{Miss: math.Inf(1)}
	found := false
	sampleFan := func(from, to float64) {
		for i := 0; i < samples; i++ {
			deg := from + (to-from)*float64(i)/float64(samples-1)
			d := FromAngleDeg(deg)
			d.X *= side
			landing, ok := g.PredictLandingPoint(d)
			if !ok {
				continue
			}
			if miss := landing.Dist(targetPoint); miss < best.Miss {
				best = GrenadeSolution{Dir: d, Landing: landing, Miss: miss}
				found = true
			}
		}
	}

	sampleFan(grenadeUpMinDeg, grenadeUpMaxDeg)
	if origin.Y-targetPoint.Y > height*grenadeDownFanHeightFrac {
		sampleFan(grenadeDownMinDeg, grenadeDownMaxDeg)
	}

	if !found || best.Miss > math.Max(minGrenadeAcceptRadius, acceptRadius) {
		return GrenadeSolution{}, false
	}
	return best, true
}

// withFireDown tilts d toward the ground by deg degrees, mirrored by the
// horizontal sign of d.
func withFireDown(d Vec2, deg float64) Vec2 {
	return d.Rotate(-deg * signOf(d.X))
}

// FindHitscanAim looks for a claw direction whose ray reaches target first.
// The direct line to targetPoint is tried before fanning out in alternating
// 2.5 degree steps up to 70 degrees each side. Every candidate gets the
// fire-down tilt before it is tested, and the tilted direction is what is
// returned.
func FindHitscanAim(w World, target CombatantID, origin, targetPoint Vec2, maxRange, fireDownDeg float64) (Vec2, bool) {
	base := targetPoint.Sub(origin).Norm()
	if base == (Vec2{}) || target == 0 {
		return Vec2{}, false
	}
	reaches := func(d Vec2) bool {
		hit, ok := w.Raycast(origin, d, maxRange)
		return ok && hit.Combatant == target
	}

	if d := withFireDown(base, fireDownDeg); reaches(d) {
		return d, true
	}
	for k := 1; k <= hitscanFanSteps; k++ {
		for _, side := range [2]float64{1, -1} {
			d := withFireDown(base.Rotate(side*float64(k)*hitscanFanStepDeg), fireDownDeg)
			if reaches(d) {
				return d, true
			}
		}
	}
	return Vec2{}, false
}

// ApplyAimNoise rotates dir by a uniform offset in [-noiseDeg, +noiseDeg].
func ApplyAimNoise(dir Vec2, noiseDeg float64, rng *rand.Rand) Vec2 {
	if noiseDeg <= 0 || rng == nil {
		return dir
	}
	return dir.Rotate((rng.Float64()*2 - 1) * noiseDeg)
}
