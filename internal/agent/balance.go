package agent

// Weapon is one of the agent's two attacks.
type Weapon int

const (
	WeaponGrenade Weapon = iota
	WeaponClaw
)

func (w Weapon) String() string {
	switch w {
	case WeaponClaw:
		return "claw"
	case WeaponGrenade:
		return "grenade"
	default:
		return "unknown"
	}
}

// TeamShots is one team's shot history. 0 <= Claw <= Total.
type TeamShots struct {
	Total int
	Claw  int
}

// ClawFraction returns Claw/Total, or 0 before the first shot.
func (s TeamShots) ClawFraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Claw) / float64(s.Total)
}

// WeaponBalance converts each team's historical shot mix into a weapon bias.
// Teams are added on first reference and never reset. It is not safe for
// concurrent use; all access happens from the turn-processing context.
type WeaponBalance struct {
	target float64
	teams  map[int]*TeamShots
}

// NewWeaponBalance creates an empty table aiming for the given claw fraction,
// clamped to [0,1].
func NewWeaponBalance(targetClawFraction float64) *WeaponBalance {
	return &WeaponBalance{
		target: clamp01(targetClawFraction),
		teams:  make(map[int]*TeamShots),
	}
}

// TargetClawFraction returns the configured mix target.
func (b *WeaponBalance) TargetClawFraction() float64 { return b.target }

func (b *WeaponBalance) team(id int) *TeamShots {
	s, ok := b.teams[id]
	if !ok {
		s = &TeamShots{}
		b.teams[id] = s
	}
	return s
}

// Shots returns a copy of the team's counters.
func (b *WeaponBalance) Shots(team int) TeamShots {
	return *b.team(team)
}

// Teams returns the ids seen so far, in no particular order.
func (b *WeaponBalance) Teams() []int {
	ids := make([]int, 0, len(b.teams))
	for id := range b.teams {
		ids = append(ids, id)
	}
	return ids
}

// SelectWeapon picks a weapon for team. A single usable weapon always wins.
// With neither usable it falls back to the grenade; the caller re-checks
// usability before firing. Point-blank prefers the claw. Otherwise the claw
// is picked while the team's claw fraction is below target.
func (b *WeaponBalance) SelectWeapon(team int, canClaw, canGrenade, closeRange bool) Weapon {
	switch {
	case canClaw && !canGrenade:
		return WeaponClaw
	case canGrenade && !canClaw:
		return WeaponGrenade
	case !canClaw && !canGrenade:
		return WeaponGrenade
	case closeRange:
		return WeaponClaw
	}
	if b.team(team).ClawFraction() < b.target {
		return WeaponClaw
	}
	return WeaponGrenade
}

// RecordShot counts one confirmed fire action.
func (b *WeaponBalance) RecordShot(team int, claw bool) {
	s := b.team(team)
	s.Total++
	if claw {
		s.Claw++
	}
}

// Session holds state that outlives a single match: the weapon balance table
// is shared by every controller that plays in it.
type Session struct {
	Balance *WeaponBalance
}

// NewSession creates a session using cfg's claw target.
func NewSession(cfg Config) *Session {
	return &Session{Balance: NewWeaponBalance(cfg.ClawTargetFraction)}
}
