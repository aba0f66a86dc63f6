package arena

import (
	"math"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// turnState is the turn currently being played.
type turnState struct {
	active   *Fighter
	task     *agent.Task
	left     float64
	started  float64
	attacked bool // EndTurnAfterAttack was called; the clock is in grace

	lastTeam int
	hasLast  bool
}

// ActiveAgent implements agent.TurnAuthority.
func (a *Arena) ActiveAgent() agent.CombatantID {
	if a.turn.active == nil {
		return 0
	}
	return a.turn.active.ID
}

// SecondsLeft implements agent.TurnAuthority.
func (a *Arena) SecondsLeft() float64 {
	return math.Max(0, a.turn.left)
}

// EndTurnAfterAttack implements agent.TurnAuthority: the clock drops to the
// post-attack grace and weapons lock for the rest of the turn.
func (a *Arena) EndTurnAfterAttack() {
	if a.turn.active == nil || a.turn.attacked {
		return
	}
	a.turn.attacked = true
	a.turn.left = math.Min(a.turn.left, PostAttackGrace)
	a.worldLog(a.turn.active, "grace", "", a.turn.left)
}

// InGrace reports whether the active turn has already attacked.
func (a *Arena) InGrace() bool { return a.turn.attacked }

// beginNextTurn hands the turn to the next fighter and starts its
// controller. Teams alternate; each team cycles through its living fighters.
func (a *Arena) beginNextTurn() bool {
	if a.turns >= a.maxTurns {
		a.conclude(OutcomeInconclusive, "turn_limit")
		return false
	}
	f := a.pickNext()
	if f == nil {
		a.checkOver()
		return false
	}
	a.turns++
	f.thrown = false
	f.clawCooldown = 0
	f.clawHeld = false

	a.turn = turnState{
		active:   f,
		left:     a.turnLen,
		started:  a.now,
		lastTeam: f.Team,
		hasLast:  true,
	}
	a.turn.task = agent.NewTask(a.Now, a.ctrls[f.ID].RunTurn)
	a.worldLog(f, "turn_begin", "", float64(a.turns))
	return true
}

func (a *Arena) pickNext() *Fighter {
	teams := a.livingTeams()
	if len(teams) == 0 {
		return nil
	}
	team := teams[0]
	if a.turn.hasLast {
		for _, t := range teams {
			if t > a.turn.lastTeam {
				team = t
				break
			}
		}
	}
	var members []*Fighter
	for _, f := range a.fighters {
		if f.Team == team {
			members = append(members, f)
		}
	}
	start := a.cursor[team]
	for k := 0; k < len(members); k++ {
		i := (start + k) % len(members)
		if members[i].Alive() {
			a.cursor[team] = i + 1
			return members[i]
		}
	}
	return nil
}

// finishTurn stops the active controller and clears the turn. The next Step
// begins the following turn.
func (a *Arena) finishTurn() {
	f := a.turn.active
	if a.turn.task != nil {
		a.turn.task.Stop()
	}
	reason := "clock"
	switch {
	case !f.Alive():
		reason = "died"
	case a.turn.attacked:
		reason = "attacked"
	}
	a.worldLog(f, "turn_over", reason, a.now-a.turn.started)
	a.turn = turnState{lastTeam: f.Team, hasLast: true}
}

// checkOver concludes the match once fewer than two teams are standing.
func (a *Arena) checkOver() bool {
	teams := a.livingTeams()
	switch len(teams) {
	case 0:
		a.conclude(OutcomeDraw, "mutual_elimination")
	case 1:
		a.result.Winner = teams[0]
		a.conclude(OutcomeVictory, "last_team_standing")
	default:
		return false
	}
	return true
}

func (a *Arena) conclude(o Outcome, desc string) {
	if a.over {
		return
	}
	if a.turn.task != nil {
		a.turn.task.Stop()
	}
	winner := -1
	if o == OutcomeVictory {
		winner = a.result.Winner
	}
	a.over = true
	a.result = a.summarize(o, winner, desc)
	a.worldLog(nil, "match_over", o.String(), float64(winner))
}
