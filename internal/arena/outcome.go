package arena

import (
	"fmt"
	"sort"
	"strings"
)

type Outcome int

const (
	OutcomeInconclusive Outcome = iota
	OutcomeVictory
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDraw:
		return "draw"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Result summarizes a finished match.
type Result struct {
	Outcome     Outcome
	Winner      int // team id, -1 unless Outcome is OutcomeVictory
	Turns       int
	Seconds     float64
	Totals      map[int]int // fighters per team
	Survivors   map[int]int // living fighters per team
	Health      map[int]float64
	Description string
}

func (a *Arena) summarize(o Outcome, winner int, desc string) Result {
	r := Result{
		Outcome:     o,
		Winner:      winner,
		Turns:       a.turns,
		Seconds:     a.now,
		Totals:      map[int]int{},
		Survivors:   map[int]int{},
		Health:      map[int]float64{},
		Description: desc,
	}
	for _, f := range a.fighters {
		r.Totals[f.Team]++
		if f.Alive() {
			r.Survivors[f.Team]++
			r.Health[f.Team] += f.Health
		}
	}
	return r
}

// String renders the result on one line.
func (r Result) String() string {
	teams := make([]int, 0, len(r.Totals))
	for t := range r.Totals {
		teams = append(teams, t)
	}
	sort.Ints(teams)
	parts := make([]string, 0, len(teams))
	for _, t := range teams {
		parts = append(parts, fmt.Sprintf("%s=%d/%d(hp=%.0f)", teamPrefix(t), r.Survivors[t], r.Totals[t], r.Health[t]))
	}
	winner := "none"
	if r.Outcome == OutcomeVictory {
		winner = teamPrefix(r.Winner)
	}
	return fmt.Sprintf("outcome=%s winner=%s turns=%d time=%.1fs survivors=[%s] reason=%s",
		r.Outcome, winner, r.Turns, r.Seconds, strings.Join(parts, " "), r.Description)
}
