package agent

import (
	"fmt"
	"math/rand"
)

// Controller drives one combatant through its turns. It holds no per-turn
// state between RunTurn calls; the weapon balance lives in the Session.
type Controller struct {
	cfg     Config
	agent   *Agent
	world   World
	turn    TurnAuthority
	balance *WeaponBalance
	rng     *rand.Rand
	trace   *TraceLog
}

// Option configures a Controller.
type Option func(*Controller)

// WithTrace records decisions into tl.
func WithTrace(tl *TraceLog) Option {
	return func(c *Controller) { c.trace = tl }
}

// WithRand sets the aim-noise source.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// NewController wires an agent to its world, turn authority and session.
func NewController(cfg Config, a *Agent, w World, turn TurnAuthority, s *Session, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		agent:   a,
		world:   w,
		turn:    turn,
		balance: s.Balance,
		rng:     rand.New(rand.NewSource(int64(a.ID) + 1)), // #nosec G404 -- aim noise
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Agent returns the controlled combatant.
func (c *Controller) Agent() *Agent { return c.agent }

// turnRun is the state of one turn in progress.
type turnRun struct {
	*Controller
	task    *Task
	profile DifficultyProfile

	start         float64
	startPos      Vec2
	antiStuckUsed bool
	target        Combatant
	turnEnded     bool
}

// RunTurn plays one full turn. It is meant to be the body of a Task started
// by the turn authority when this agent becomes active:
//
//	think -> target -> approach -> readiness -> weapon -> aim -> fire -> retreat -> end
//
// Losing the turn at any suspension point unwinds silently.
func (c *Controller) RunTurn(t *Task) {
	r := &turnRun{
		Controller: c,
		task:       t,
		profile:    c.cfg.Difficulty.For(c.agent.Difficulty),
		start:      t.Now(),
		startPos:   c.agent.Body.Position(),
	}
	defer r.releaseInputs()

	r.log("turn", "start", c.agent.Difficulty.String(), r.turn.SecondsLeft())
	outcome := r.play()
	r.log("turn", "end", outcome, r.task.Now()-r.start)
}

func (r *turnRun) play() string {
	for {
		if r.wait(r.cfg.ThinkSeconds) == AbortTurn {
			return "lost"
		}
		r.checkAntiStuck()

		target, ok := SelectTarget(r.world, r.pos(), r.agent.Team)
		if !ok {
			r.log("target", "none", "", 0)
			if r.wait(r.cfg.NoTargetRetrySeconds) == AbortTurn {
				return "lost"
			}
			continue
		}
		r.target = target
		r.log("target", "select", fmt.Sprintf("id=%d", target.ID), r.pos().Dist(target.Position))

		switch r.approach() {
		case approachAborted:
			return "lost"
		case approachTargetLost:
			continue
		case approachAttacked:
			if r.turnEnded {
				return "attacked"
			}
			if r.retreat() == AbortTurn {
				return "lost"
			}
			r.endTurn()
			return "attacked"
		}

		rd := r.readiness()
		if !rd.any() {
			r.log("attack", "not_ready", "", rd.dist)
			if r.wait(r.cfg.NotReadyRetrySeconds) == AbortTurn {
				return "lost"
			}
			continue
		}

		switch r.attack(rd).outcome {
		case attackAborted:
			return "lost"
		case attackFailed:
			continue
		}
		if r.retreat() == AbortTurn {
			return "lost"
		}
		r.endTurn()
		return "attacked"
	}
}

// --- Suspension and turn checks ---

func (r *turnRun) now() float64 { return r.task.Now() }

func (r *turnRun) active() bool {
	return r.turn.ActiveAgent() == r.agent.ID
}

// wait yields until seconds of simulation time have passed. Every resumption
// re-checks the turn before anything else. A zero wait is one step.
func (r *turnRun) wait(seconds float64) Resume {
	start := r.now()
	for {
		if !r.task.Yield() || !r.active() {
			return AbortTurn
		}
		if r.now()-start >= seconds {
			return Continue
		}
	}
}

// outOfTime reports whether the turn has reached its floor.
func (r *turnRun) outOfTime() bool {
	return r.turn.SecondsLeft() <= r.cfg.MinTurnSecondsLeft
}

func (r *turnRun) endTurn() {
	r.turnEnded = true
	r.turn.EndTurnAfterAttack()
	r.log("turn", "end_after_attack", "", r.turn.SecondsLeft())
}

// releaseInputs drops every continuous input this controller may hold.
func (r *turnRun) releaseInputs() {
	a := r.agent
	if a.Move != nil {
		a.Move.SetMoveOverride(false, 0)
	}
	if a.Rope != nil {
		a.Rope.SetMoveOverride(false, 0, 0)
	}
	if a.Claw != nil {
		a.Claw.SetHeld(false)
	}
	if a.Aim != nil {
		a.Aim.SetExternalAimOverride(false, Vec2{})
	}
}

// --- Body and target helpers ---

func (r *turnRun) pos() Vec2 { return r.agent.Body.Position() }

func (r *turnRun) grounded() bool { return r.agent.Body.Grounded() }

func (r *turnRun) aimOrigin() Vec2 {
	if r.agent.Aim != nil {
		return r.agent.Aim.AimOrigin()
	}
	return r.pos()
}

// refreshTarget re-reads the current target and reports whether it is still
// alive.
func (r *turnRun) refreshTarget() bool {
	c, ok := lookupCombatant(r.world, r.target.ID)
	if !ok || !c.Alive() {
		return false
	}
	r.target = c
	return true
}

func (r *turnRun) targetDist() float64 {
	return r.pos().Dist(r.target.Position)
}

func (r *turnRun) sideToTarget() float64 {
	return signOf(r.target.Position.X - r.pos().X)
}

// walk holds the walk input toward dir for seconds.
func (r *turnRun) walk(dir, seconds float64) Resume {
	if r.agent.Move == nil {
		return r.wait(seconds)
	}
	r.agent.Move.SetMoveOverride(true, dir)
	defer r.agent.Move.SetMoveOverride(false, 0)
	return r.wait(seconds)
}

func (r *turnRun) log(category, key, value string, num float64) {
	r.trace.Add(TraceEntry{
		Time:     r.now(),
		Agent:    r.agent.Label,
		Team:     r.agent.Team,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   num,
	})
}
