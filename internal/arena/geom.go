package arena

import (
	"math"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Box is a solid, axis-aligned block of terrain.
type Box struct {
	Min agent.Vec2
	Max agent.Vec2
}

// Rect returns the box as an agent rectangle.
func (b Box) Rect() agent.Rect { return agent.Rect{Min: b.Min, Max: b.Max} }

// Width and Height of the box.
func (b Box) Width() float64  { return b.Max.X - b.Min.X }
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// overlaps reports a strict overlap; touching edges do not count.
func (b Box) overlaps(r agent.Rect) bool {
	return r.Min.X < b.Max.X && r.Max.X > b.Min.X && r.Min.Y < b.Max.Y && r.Max.Y > b.Min.Y
}

func (b Box) contains(p agent.Vec2) bool {
	return p.X > b.Min.X && p.X < b.Max.X && p.Y > b.Min.Y && p.Y < b.Max.Y
}

// rayAABBHitT returns the first segment parameter t in [0,1] where the
// segment o->e enters the rectangle. The bool is false when no hit exists.
func rayAABBHitT(o, e agent.Vec2, r agent.Rect) (float64, bool) {
	d := e.Sub(o)
	tMin, tMax := 0.0, 1.0

	slab := func(o, d, lo, hi float64) bool {
		if math.Abs(d) < 1e-12 {
			return o >= lo && o <= hi
		}
		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		return tMin <= tMax
	}
	if !slab(o.X, d.X, r.Min.X, r.Max.X) {
		return 0, false
	}
	if !slab(o.Y, d.Y, r.Min.Y, r.Max.Y) {
		return 0, false
	}
	return tMin, true
}

// castTerrain finds the first terrain box the segment from->to enters.
// Boxes containing from are skipped.
func (a *Arena) castTerrain(from, to agent.Vec2) (float64, bool) {
	best, found := math.Inf(1), false
	for _, b := range a.boxes {
		if b.contains(from) {
			continue
		}
		if t, ok := rayAABBHitT(from, to, b.Rect()); ok && t < best {
			best, found = t, true
		}
	}
	return best, found
}

// Raycast implements agent.World. It reports the nearest terrain box or
// living fighter along dir within maxDist, skipping anything that contains
// origin (the shooter's own body).
func (a *Arena) Raycast(origin, dir agent.Vec2, maxDist float64) (agent.Hit, bool) {
	dir = dir.Norm()
	if dir == (agent.Vec2{}) || maxDist <= 0 {
		return agent.Hit{}, false
	}
	end := origin.Add(dir.Scale(maxDist))
	bestT, found := a.castTerrain(origin, end)
	var who *Fighter
	for _, f := range a.fighters {
		if !f.Alive() {
			continue
		}
		r := f.Bounds()
		if r.Contains(origin) {
			continue
		}
		if t, ok := rayAABBHitT(origin, end, r); ok && t < bestT {
			bestT, found, who = t, true, f
		}
	}
	if !found {
		return agent.Hit{}, false
	}
	hit := agent.Hit{
		Point:    origin.Add(end.Sub(origin).Scale(bestT)),
		Distance: bestT * maxDist,
	}
	if who != nil {
		hit.Combatant = who.ID
		hit.HasTeam = true
		hit.Team = who.Team
	}
	return hit, true
}

// Combatants implements agent.World.
func (a *Arena) Combatants() []agent.Combatant {
	out := make([]agent.Combatant, 0, len(a.fighters))
	for _, f := range a.fighters {
		out = append(out, agent.Combatant{
			ID:        f.ID,
			Team:      f.Team,
			Position:  f.pos,
			Health:    f.Health,
			Bounds:    f.Bounds(),
			HasBounds: true,
		})
	}
	return out
}

// overlapping returns every box that strictly overlaps r.
func (a *Arena) overlapping(r agent.Rect) []Box {
	var out []Box
	for _, b := range a.boxes {
		if b.overlaps(r) {
			out = append(out, b)
		}
	}
	return out
}

// surfaceAt returns the highest terrain top at x, if any.
func (a *Arena) surfaceAt(x float64) (float64, bool) {
	top, found := 0.0, false
	for _, b := range a.boxes {
		if x < b.Min.X || x > b.Max.X {
			continue
		}
		if !found || b.Max.Y > top {
			top, found = b.Max.Y, true
		}
	}
	return top, found
}
