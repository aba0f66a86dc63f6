package agent

// SelectTarget returns the nearest living combatant not on myTeam. Ties keep
// the first one in enumeration order.
func SelectTarget(w World, from Vec2, myTeam int) (Combatant, bool) {
	var best Combatant
	bestD := 0.0
	found := false
	for _, c := range w.Combatants() {
		if c.Team == myTeam || !c.Alive() {
			continue
		}
		d := from.DistSq(c.Position)
		if !found || d < bestD {
			best, bestD, found = c, d, true
		}
	}
	return best, found
}

// lookupCombatant refreshes a combatant record by id.
func lookupCombatant(w World, id CombatantID) (Combatant, bool) {
	for _, c := range w.Combatants() {
		if c.ID == id {
			return c, true
		}
	}
	return Combatant{}, false
}

// nearestEnemyDist is the distance from p to the closest living enemy.
func nearestEnemyDist(w World, p Vec2, myTeam int) (float64, bool) {
	best := 0.0
	found := false
	for _, c := range w.Combatants() {
		if c.Team == myTeam || !c.Alive() {
			continue
		}
		d := p.Dist(c.Position)
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}
