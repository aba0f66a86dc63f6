package agent

// HasLineOfSight casts from origin toward the target's aim point. A zero-length
// ray sees the target. Otherwise the first hit must be the target itself or a
// collider tagged with a team other than myTeam; scenery and teammates block.
func HasLineOfSight(w World, origin Vec2, target Combatant, myTeam int) bool {
	to := target.AimPoint().Sub(origin)
	dist := to.Len()
	if dist <= 1e-4 {
		return true
	}
	hit, ok := w.Raycast(origin, to.Scale(1/dist), dist+0.05)
	if !ok {
		return false
	}
	if hit.Combatant != 0 && hit.Combatant == target.ID {
		return true
	}
	return hit.HasTeam && hit.Team != myTeam
}

// IsPointBlank reports whether dist is inside the close-range override where
// line of sight is not required.
func IsPointBlank(dist, effectiveRange, closeRangeFactor float64) bool {
	return dist <= effectiveRange*closeRangeFactor
}

// CanClawHit combines range, the point-blank override and line of sight.
func CanClawHit(w World, origin Vec2, target Combatant, myTeam int, effectiveRange, closeRangeFactor float64) bool {
	dist := origin.Dist(target.AimPoint())
	if dist > effectiveRange {
		return false
	}
	if IsPointBlank(dist, effectiveRange, closeRangeFactor) {
		return true
	}
	return HasLineOfSight(w, origin, target, myTeam)
}

// groundBelow drops a point onto the first surface underneath it.
func groundBelow(w World, from Vec2, maxDrop float64) (Vec2, bool) {
	hit, ok := w.Raycast(from, V(0, -1), maxDrop)
	if !ok || hit.Distance <= 1e-6 {
		// Starting inside solid ground is not a usable spot.
		return Vec2{}, false
	}
	return hit.Point, true
}
