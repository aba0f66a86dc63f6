package agent

import (
	"math"
	"testing"
)

// --- Scripted capabilities used by the controller tests ---

// segmentBox is a slab test for the segment a->b against box. It returns the
// entry parameter in [0,1].
func segmentBox(a, b Vec2, box Rect) (float64, bool) {
	d := b.Sub(a)
	tMin, tMax := 0.0, 1.0
	for axis := 0; axis < 2; axis++ {
		o, dd, lo, hi := a.X, d.X, box.Min.X, box.Max.X
		if axis == 1 {
			o, dd, lo, hi = a.Y, d.Y, box.Min.Y, box.Max.Y
		}
		if math.Abs(dd) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/dd, (hi-o)/dd
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

type fakeWorld struct {
	boxes      []Rect
	combatants []Combatant
	rayFn      func(origin, dir Vec2, maxDist float64) (Hit, bool)
	rays       int
}

func (w *fakeWorld) Combatants() []Combatant { return w.combatants }

func (w *fakeWorld) Raycast(origin, dir Vec2, maxDist float64) (Hit, bool) {
	w.rays++
	if w.rayFn != nil {
		return w.rayFn(origin, dir, maxDist)
	}
	end := origin.Add(dir.Scale(maxDist))
	var best Hit
	bestT := math.Inf(1)
	for _, b := range w.boxes {
		if b.Contains(origin) {
			continue
		}
		if t, ok := segmentBox(origin, end, b); ok && t < bestT {
			bestT, best = t, Hit{Point: origin.Add(end.Sub(origin).Scale(t))}
		}
	}
	for _, c := range w.combatants {
		if !c.HasBounds || c.Bounds.Contains(origin) {
			continue
		}
		if t, ok := segmentBox(origin, end, c.Bounds); ok && t < bestT {
			bestT = t
			best = Hit{Point: origin.Add(end.Sub(origin).Scale(t)), Combatant: c.ID, HasTeam: true, Team: c.Team}
		}
	}
	if math.IsInf(bestT, 1) {
		return Hit{}, false
	}
	best.Distance = bestT * maxDist
	return best, true
}

func boundsAt(p Vec2) Rect {
	return Rect{Min: p.Sub(V(0.4, 0.5)), Max: p.Add(V(0.4, 0.5))}
}

type fakeBody struct {
	pos      Vec2
	height   float64
	grounded bool
}

func (b *fakeBody) Position() Vec2  { return b.pos }
func (b *fakeBody) Height() float64 { return b.height }
func (b *fakeBody) Grounded() bool  { return b.grounded }

type fakeMover struct {
	s           *fakeSim
	active      bool
	h           float64
	activations []float64 // sim time of every SetMoveOverride(true, ...)
	dirs        []float64 // walk direction of each activation
	from        []Vec2    // body position at each activation
}

func (m *fakeMover) SetMoveOverride(active bool, h float64) {
	m.active, m.h = active, h
	if active {
		m.activations = append(m.activations, m.s.now)
		m.dirs = append(m.dirs, h)
		m.from = append(m.from, m.s.body.pos)
	}
}

type detachRecord struct {
	at       float64
	grounded bool
}

type fakeRope struct {
	s                  *fakeSim
	st                 RopeState
	allowFire          bool
	fires              int
	firedWhileAttached int
	active             bool
	h, v               float64
	rate               float64
	detaches           []detachRecord
}

func (r *fakeRope) State() RopeState { return r.st }

func (r *fakeRope) FireRope(dir Vec2) bool {
	r.fires++
	if r.st.Attached {
		r.firedWhileAttached++
		return false
	}
	if !r.allowFire {
		return false
	}
	r.st.Attached = true
	r.st.Anchor = r.s.body.pos.Add(V(0, -0.5))
	r.st.Length = r.st.MinLength
	return true
}

func (r *fakeRope) SetMoveOverride(active bool, h, v float64) {
	r.active, r.h, r.v = active, h, v
}

func (r *fakeRope) Detach() {
	r.detaches = append(r.detaches, detachRecord{at: r.s.now, grounded: r.s.body.grounded})
	r.st.Attached = false
}

type fakeClaw struct {
	s        *fakeSim
	enabled  bool
	rng      float64
	fireOK   bool
	fires    int
	held     bool
	heldFrom float64
	holds    []float64 // duration of every completed trigger hold
}

func (c *fakeClaw) Enabled() bool     { return c.enabled }
func (c *fakeClaw) Range() float64    { return c.rng }
func (c *fakeClaw) TryFireOnce() bool { c.fires++; return c.fireOK }
func (c *fakeClaw) SetHeld(held bool) {
	switch {
	case held && !c.held:
		c.heldFrom = c.s.now
	case !held && c.held:
		c.holds = append(c.holds, c.s.now-c.heldFrom)
	}
	c.held = held
}

type fakeGrenade struct {
	origin   Vec2
	height   float64
	maxRange float64
	predict  func(dir Vec2) (Vec2, bool)
	throwOK  bool
	throws   int
	asked    []Vec2
}

func (g *fakeGrenade) Enabled() bool                { return true }
func (g *fakeGrenade) MaxRange() float64            { return g.maxRange }
func (g *fakeGrenade) ThrowOrigin() (Vec2, float64) { return g.origin, g.height }
func (g *fakeGrenade) TryThrowNow() bool            { g.throws++; return g.throwOK }

func (g *fakeGrenade) PredictLandingPoint(dir Vec2) (Vec2, bool) {
	g.asked = append(g.asked, dir)
	return g.predict(dir)
}

// parabola lands a throw from origin on the horizontal line through origin,
// with launch speed chosen so that 45 degrees reaches maxRange.
func parabola(origin Vec2, maxRange float64) func(Vec2) (Vec2, bool) {
	return func(dir Vec2) (Vec2, bool) {
		d := dir.Norm()
		if d.Y <= 0 {
			return origin, true
		}
		a := math.Atan2(d.Y, math.Abs(d.X))
		x := maxRange * math.Sin(2*a) * signOf(d.X)
		return V(origin.X+x, origin.Y), true
	}
}

type fakeAim struct {
	s      *fakeSim
	active bool
	dir    Vec2
}

func (a *fakeAim) SetExternalAimOverride(active bool, dir Vec2) { a.active, a.dir = active, dir }
func (a *fakeAim) AimOrigin() Vec2                              { return a.s.body.pos }

type fakeTeleport struct {
	tries int
	ok    bool
}

func (t *fakeTeleport) Enabled() bool        { return true }
func (t *fakeTeleport) CanUseNow() bool      { return true }
func (t *fakeTeleport) TryTeleportNow() bool { t.tries++; return t.ok }

type fakeTurn struct {
	active CombatantID
	left   float64
	ended  int
}

func (t *fakeTurn) ActiveAgent() CombatantID { return t.active }
func (t *fakeTurn) SecondsLeft() float64     { return t.left }
func (t *fakeTurn) EndTurnAfterAttack()      { t.ended++ }

// fakeSim is a tiny kinematic world: the body walks at a fixed speed unless
// frozen, the rope lengthens or shortens at a fixed rate.
type fakeSim struct {
	now    float64
	dt     float64
	speed  float64
	frozen bool

	body    *fakeBody
	move    *fakeMover
	aim     *fakeAim
	world   *fakeWorld
	turn    *fakeTurn
	agent   *Agent
	session *Session
	trace   *TraceLog
	cfg     Config

	onStep func(s *fakeSim)
}

func newFakeSim() *fakeSim {
	s := &fakeSim{dt: 1.0 / 30, speed: 3, cfg: DefaultConfig(), trace: NewTraceLog()}
	s.body = &fakeBody{pos: V(0, 1), height: 1, grounded: true}
	s.move = &fakeMover{s: s}
	s.aim = &fakeAim{s: s}
	s.world = &fakeWorld{
		boxes:      []Rect{{Min: V(-200, -1), Max: V(200, 0.5)}},
		combatants: []Combatant{{ID: 1, Team: 0, Health: 100, HasBounds: true}},
	}
	s.turn = &fakeTurn{active: 1, left: 90}
	s.agent = &Agent{
		ID: 1, Label: "R0", Team: 0, Difficulty: DifficultyNormal,
		Body: s.body, Move: s.move, Aim: s.aim,
	}
	s.session = NewSession(s.cfg)
	s.sync()
	return s
}

func (s *fakeSim) addEnemy(id CombatantID, p Vec2) {
	s.world.combatants = append(s.world.combatants, Combatant{
		ID: id, Team: 1, Position: p, Health: 100, Bounds: boundsAt(p), HasBounds: true,
	})
}

func (s *fakeSim) withRope() *fakeRope {
	r := &fakeRope{s: s, allowFire: true, rate: 3, st: RopeState{MinLength: 1, MaxLength: 6}}
	s.agent.Rope = r
	return r
}

func (s *fakeSim) withClaw(fireOK bool) *fakeClaw {
	c := &fakeClaw{s: s, enabled: true, rng: 25, fireOK: fireOK}
	s.agent.Claw = c
	return c
}

func (s *fakeSim) sync() {
	self := &s.world.combatants[0]
	self.Position = s.body.pos
	self.Bounds = boundsAt(s.body.pos)
}

func (s *fakeSim) step() {
	s.now += s.dt
	s.turn.left -= s.dt
	if s.move.active && !s.frozen {
		s.body.pos.X += s.move.h * s.speed * s.dt
	}
	if r, ok := s.agent.Rope.(*fakeRope); ok && r.st.Attached && r.active && r.v != 0 {
		r.st.Length = clamp(r.st.Length-r.v*r.rate*s.dt, r.st.MinLength, r.st.MaxLength)
	}
	s.sync()
	if s.onStep != nil {
		s.onStep(s)
	}
}

func (s *fakeSim) controller() *Controller {
	return NewController(s.cfg, s.agent, s.world, s.turn, s.session, WithTrace(s.trace))
}

// runTurn plays one turn until it returns or simulated time reaches until.
// It reports whether the routine finished on its own.
func (s *fakeSim) runTurn(t *testing.T, until float64) bool {
	t.Helper()
	c := s.controller()
	task := NewTask(func() float64 { return s.now }, c.RunTurn)
	for s.now < until {
		if !task.Step() {
			return true
		}
		s.step()
	}
	task.Stop()
	return false
}

func dumpTrace(t *testing.T, tl *TraceLog) {
	t.Helper()
	if tl.Len() == 0 {
		t.Log("(no trace entries)")
		return
	}
	for _, e := range tl.Entries() {
		t.Log(e.String())
	}
}
