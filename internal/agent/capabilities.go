package agent

// CombatantID identifies a combatant in the world. Zero means "none".
type CombatantID int

// Difficulty is the agent's skill tier.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty maps "easy", "normal" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch s {
	case "easy":
		return DifficultyEasy, true
	case "normal":
		return DifficultyNormal, true
	case "hard":
		return DifficultyHard, true
	}
	return DifficultyNormal, false
}

// --- Capabilities consumed by the controller ---
//
// The world owns every implementation. A nil capability on Agent means the
// combatant does not have it; the controller treats that action as
// unavailable.

// Body exposes the controlled combatant's physical state.
type Body interface {
	Position() Vec2
	Height() float64
	Grounded() bool
}

// Mover is the continuous walk input.
type Mover interface {
	SetMoveOverride(active bool, horizontal float64)
}

// RopeState is a snapshot of the grapple rope.
// While attached, MinLength <= Length <= MaxLength.
type RopeState struct {
	Attached  bool
	Anchor    Vec2
	Length    float64
	MinLength float64
	MaxLength float64
}

// Grapple is the rope traversal capability. FireRope must not be called while
// attached; detach is always explicit.
type Grapple interface {
	State() RopeState
	FireRope(dir Vec2) bool
	// SetMoveOverride drives the rope: h swings, v > 0 reels in, v < 0 extends.
	SetMoveOverride(active bool, h, v float64)
	Detach()
}

// HitscanWeapon is the claw: instant ray damage with a finite range.
type HitscanWeapon interface {
	Enabled() bool
	Range() float64
	TryFireOnce() bool
	SetHeld(held bool)
}

// GrenadeWeapon is the arcing thrown weapon.
type GrenadeWeapon interface {
	Enabled() bool
	MaxRange() float64
	// ThrowOrigin returns the release point and the thrower's height.
	ThrowOrigin() (Vec2, float64)
	// PredictLandingPoint reports where a throw along dir comes to rest.
	PredictLandingPoint(dir Vec2) (Vec2, bool)
	TryThrowNow() bool
}

// Aimer steers the combatant's aim.
type Aimer interface {
	SetExternalAimOverride(active bool, dir Vec2)
	AimOrigin() Vec2
}

// Teleporter is the one-shot escape.
type Teleporter interface {
	Enabled() bool
	CanUseNow() bool
	TryTeleportNow() bool
}

// TurnAuthority decides whose turn it is. The active agent can change while a
// controller routine is suspended.
type TurnAuthority interface {
	ActiveAgent() CombatantID
	SecondsLeft() float64
	EndTurnAfterAttack()
}

// Hit is the nearest non-trigger collider along a ray.
type Hit struct {
	Point    Vec2
	Distance float64
	// Combatant is the owning combatant of the collider (the root of any
	// child collider), or zero for scenery.
	Combatant CombatantID
	HasTeam   bool
	Team      int
}

// Combatant is the targeting view of one fighter.
type Combatant struct {
	ID        CombatantID
	Team      int
	Position  Vec2
	Health    float64
	Bounds    Rect
	HasBounds bool
}

// Alive reports whether the combatant still has health.
func (c Combatant) Alive() bool { return c.Health > 0 }

// AimPoint is the bounds center, or the raw position without bounds.
func (c Combatant) AimPoint() Vec2 {
	if c.HasBounds {
		return c.Bounds.Center()
	}
	return c.Position
}

// World answers the spatial queries the controller needs.
type World interface {
	// Raycast returns the nearest hit within maxDist along dir. Colliders
	// containing origin are not reported.
	Raycast(origin, dir Vec2, maxDist float64) (Hit, bool)
	Combatants() []Combatant
}

// Agent is the controlled combatant for one turn. The world owns it; the
// controller only holds it while the turn runs.
type Agent struct {
	ID         CombatantID
	Label      string
	Team       int
	Difficulty Difficulty

	Body     Body
	Move     Mover
	Rope     Grapple
	Claw     HitscanWeapon
	Grenade  GrenadeWeapon
	Aim      Aimer
	Teleport Teleporter
}

// Height returns the body height with a sane floor for ratio thresholds.
func (a *Agent) Height() float64 {
	if a.Body == nil {
		return 1
	}
	if h := a.Body.Height(); h > 0 {
		return h
	}
	return 1
}
