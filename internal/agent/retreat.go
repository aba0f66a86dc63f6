package agent

import (
	"fmt"
	"math"
)

// retreatSpot is one scored retreat candidate.
type retreatSpot struct {
	point Vec2
	score float64
}

// pickRetreat samples points along a band above the agent, drops each onto
// the ground and scores it by distance from the nearest enemy minus a penalty
// for how far away it is.
func (r *turnRun) pickRetreat() (retreatSpot, bool) {
	cfg := r.cfg
	pos := r.pos()
	n := r.profile.RetreatSamples
	bandY := pos.Y + cfg.RetreatBandHeight

	var best retreatSpot
	found := false
	for i := 0; i < n; i++ {
		x := pos.X
		if n > 1 {
			x = pos.X - cfg.RetreatBandHalfWidth + 2*cfg.RetreatBandHalfWidth*float64(i)/float64(n-1)
		}
		ground, ok := groundBelow(r.world, V(x, bandY), cfg.RetreatBandHeight*4)
		if !ok {
			continue
		}
		score := -cfg.RetreatReachPenalty * pos.Dist(ground)
		if d, ok := nearestEnemyDist(r.world, ground, r.agent.Team); ok {
			score += d
		}
		if !found || score > best.score {
			best = retreatSpot{point: ground, score: score}
			found = true
		}
	}
	return best, found
}

// retreat walks (never ropes) toward the best retreat spot in short bursts.
func (r *turnRun) retreat() Resume {
	cfg := r.cfg
	if r.agent.Move == nil {
		r.log("retreat", "skip", "no_move", 0)
		return Continue
	}
	spot, ok := r.pickRetreat()
	if !ok {
		r.log("retreat", "skip", "no_spot", 0)
		return Continue
	}
	r.log("retreat", "pick", fmt.Sprintf("x=%.2f y=%.2f", spot.point.X, spot.point.Y), spot.score)

	deadline := r.now() + cfg.RetreatMaxSeconds
	for {
		dist := r.pos().Dist(spot.point)
		if dist <= cfg.RetreatArriveDist {
			r.log("retreat", "arrived", "", dist)
			return Continue
		}
		left := deadline - r.now()
		if left <= 0 {
			r.log("retreat", "timeout", "", dist)
			return Continue
		}
		if r.walk(signOf(spot.point.X-r.pos().X), math.Min(cfg.RetreatBurstSeconds, left)) == AbortTurn {
			return AbortTurn
		}
	}
}
