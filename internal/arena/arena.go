package arena

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Match pacing.
const (
	StepDT           = 1.0 / 60
	TurnSeconds      = 90.0
	PostAttackGrace  = 5.0 // seconds left on the clock once a turn has attacked
	DefaultMaxTurns  = 20
	worldAgentLabel  = "--"
	worldLogCategory = "world"
)

// Arena is a headless side-view battlefield: static box terrain, a water
// line, and fighters driven by agent controllers one turn at a time. It
// implements agent.World and agent.TurnAuthority.
type Arena struct {
	boxes    []Box
	fighters []*Fighter
	ctrls    map[agent.CombatantID]*agent.Controller

	shells []*Shell
	beams  []Beam
	blasts []Blast

	cfg     agent.Config
	session *agent.Session
	trace   *agent.TraceLog
	seed    int64
	rng     *rand.Rand

	dt       float64
	now      float64
	turn     turnState
	turns    int
	maxTurns int
	turnLen  float64
	cursor   map[int]int // next fighter index per team
	over     bool
	result   Result
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra   optionKind = iota // seed, config, session, trace, terrain, pacing
	optFighter                   // fighters, applied once terrain exists
)

// Option is a builder function applied to an Arena during construction.
type Option struct {
	kind optionKind
	fn   func(*Arena)
}

// WithSeed sets the seed for aim noise and tie-breaking.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(a *Arena) {
		a.seed = seed
		a.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation
	}}
}

// WithConfig sets the controller tuning for every fighter.
func WithConfig(cfg agent.Config) Option {
	return Option{optInfra, func(a *Arena) { a.cfg = cfg }}
}

// WithSession shares a weapon-balance session across arenas.
func WithSession(s *agent.Session) Option {
	return Option{optInfra, func(a *Arena) { a.session = s }}
}

// WithTrace records controller and world events into tl.
func WithTrace(tl *agent.TraceLog) Option {
	return Option{optInfra, func(a *Arena) { a.trace = tl }}
}

// WithBox adds a terrain block.
func WithBox(minX, minY, maxX, maxY float64) Option {
	return Option{optInfra, func(a *Arena) {
		a.boxes = append(a.boxes, Box{Min: agent.V(minX, minY), Max: agent.V(maxX, maxY)})
	}}
}

// WithTurnSeconds overrides the turn clock.
func WithTurnSeconds(s float64) Option {
	return Option{optInfra, func(a *Arena) { a.turnLen = s }}
}

// WithMaxTurns caps the match length.
func WithMaxTurns(n int) Option {
	return Option{optInfra, func(a *Arena) { a.maxTurns = n }}
}

// WithFighter adds a fully equipped fighter standing on the terrain at x.
func WithFighter(team int, x float64, d agent.Difficulty) Option {
	return WithFighterLoadout(team, x, d, FullLoadout)
}

// WithFighterLoadout adds a fighter carrying only the given capabilities.
func WithFighterLoadout(team int, x float64, d agent.Difficulty, l Loadout) Option {
	return Option{optFighter, func(a *Arena) { a.addFighter(team, x, d, l) }}
}

// NewArena builds an arena from options in two passes: infrastructure, then
// fighters. A controller is created for every fighter.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		ctrls:    make(map[agent.CombatantID]*agent.Controller),
		cfg:      agent.DefaultConfig(),
		trace:    agent.NewTraceLog(),
		seed:     1,
		rng:      rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
		dt:       StepDT,
		turnLen:  TurnSeconds,
		maxTurns: DefaultMaxTurns,
		cursor:   make(map[int]int),
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(a)
		}
	}
	if a.session == nil {
		a.session = agent.NewSession(a.cfg)
	}
	for _, o := range opts {
		if o.kind == optFighter {
			o.fn(a)
		}
	}
	for _, f := range a.fighters {
		f.facing = a.sideToNearestEnemy(f)
		rng := rand.New(rand.NewSource(a.seed*7919 + int64(f.ID))) // #nosec G404 -- aim noise
		a.ctrls[f.ID] = agent.NewController(a.cfg, f.Agent(), a, a, a.session,
			agent.WithTrace(a.trace), agent.WithRand(rng))
	}
	return a
}

func (a *Arena) addFighter(team int, x float64, d agent.Difficulty, l Loadout) {
	id := agent.CombatantID(len(a.fighters) + 1)
	n := 0
	for _, f := range a.fighters {
		if f.Team == team {
			n++
		}
	}
	y, ok := a.surfaceAt(x)
	if !ok {
		y = WaterLine + 10
	}
	a.fighters = append(a.fighters, &Fighter{
		ID:         id,
		Label:      fmt.Sprintf("%s%d", teamPrefix(team), n),
		Team:       team,
		Difficulty: d,
		Health:     100,
		Loadout:    l,
		arena:      a,
		pos:        agent.V(x, y),
		grounded:   ok,
		facing:     1,
	})
}

func teamPrefix(team int) string {
	switch team {
	case TeamRed:
		return "R"
	case TeamBlue:
		return "B"
	default:
		return fmt.Sprintf("T%d.", team)
	}
}

func (a *Arena) sideToNearestEnemy(f *Fighter) float64 {
	best, side, found := 0.0, 1.0, false
	for _, e := range a.fighters {
		if e.Team == f.Team {
			continue
		}
		if d := f.pos.Dist(e.pos); !found || d < best {
			best, found = d, true
			side = 1
			if e.pos.X < f.pos.X {
				side = -1
			}
		}
	}
	return side
}

// --- Accessors ---

// Now returns simulation time in seconds.
func (a *Arena) Now() float64 { return a.now }

// Boxes returns the terrain.
func (a *Arena) Boxes() []Box { return a.boxes }

// Fighters returns every fighter, dead or alive, in id order.
func (a *Arena) Fighters() []*Fighter { return a.fighters }

// Shells returns grenades in flight.
func (a *Arena) Shells() []*Shell { return a.shells }

// Beams returns claw shots still visible.
func (a *Arena) Beams() []Beam { return a.beams }

// Blasts returns explosions still visible.
func (a *Arena) Blasts() []Blast { return a.blasts }

// Trace returns the shared event log.
func (a *Arena) Trace() *agent.TraceLog { return a.trace }

// Session returns the weapon-balance session.
func (a *Arena) Session() *agent.Session { return a.session }

// Active returns the fighter whose turn it is, or nil.
func (a *Arena) Active() *Fighter { return a.turn.active }

// TurnNumber is the 1-based index of the current turn.
func (a *Arena) TurnNumber() int { return a.turns }

// Over reports whether the match has finished.
func (a *Arena) Over() bool { return a.over }

// Result returns the outcome once Over is true.
func (a *Arena) Result() Result { return a.result }

func (a *Arena) fighter(id agent.CombatantID) *Fighter {
	for _, f := range a.fighters {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// worldLog records an arena event. World events carry the subject fighter's
// label and team, or "--" when there is none.
func (a *Arena) worldLog(f *Fighter, key, value string, num float64) {
	e := agent.TraceEntry{
		Time:     a.now,
		Agent:    worldAgentLabel,
		Team:     -1,
		Category: worldLogCategory,
		Key:      key,
		Value:    value,
		NumVal:   num,
	}
	if f != nil {
		e.Agent, e.Team = f.Label, f.Team
	}
	a.trace.Add(e)
}

// --- Simulation loop ---

// Step advances the arena by one fixed step: the active controller runs
// first, then physics, then turn bookkeeping.
func (a *Arena) Step() {
	if a.over {
		return
	}
	if a.turn.active == nil {
		if !a.beginNextTurn() {
			return
		}
	}
	if t := a.turn.task; t != nil && !t.Done() {
		t.Step()
	}

	for _, f := range a.fighters {
		f.step(a.dt)
	}
	a.stepShells(a.dt)
	a.fadeEffects(a.dt)

	a.now += a.dt
	a.turn.left -= a.dt

	if a.checkOver() {
		return
	}
	if !a.turn.active.Alive() || (a.turn.left <= 0 && len(a.shells) == 0) {
		a.finishTurn()
	}
}

// RunMatch steps until the match is over and returns its result.
func (a *Arena) RunMatch() Result {
	for !a.over {
		a.Step()
	}
	return a.result
}

// RunFor steps for the given simulated duration or until the match ends.
func (a *Arena) RunFor(seconds float64) {
	end := a.now + seconds
	for !a.over && a.now < end {
		a.Step()
	}
}

// Close abandons any running controller. Call it when discarding an arena
// before the match is over.
func (a *Arena) Close() {
	if a.turn.task != nil {
		a.turn.task.Stop()
	}
}

func (a *Arena) fadeEffects(dt float64) {
	beams := a.beams[:0]
	for _, b := range a.beams {
		if b.ttl -= dt; b.ttl > 0 {
			beams = append(beams, b)
		}
	}
	a.beams = beams
	blasts := a.blasts[:0]
	for _, b := range a.blasts {
		if b.ttl -= dt; b.ttl > 0 {
			blasts = append(blasts, b)
		}
	}
	a.blasts = blasts
}

// livingTeams returns the ids of teams with at least one living fighter.
func (a *Arena) livingTeams() []int {
	seen := map[int]bool{}
	var teams []int
	for _, f := range a.fighters {
		if f.Alive() && !seen[f.Team] {
			seen[f.Team] = true
			teams = append(teams, f.Team)
		}
	}
	sort.Ints(teams)
	return teams
}
