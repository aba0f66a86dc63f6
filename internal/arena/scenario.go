package arena

import (
	"fmt"
	"sort"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Scenario is a named, reproducible arena layout.
type Scenario struct {
	Name        string
	Description string
	options     func(d agent.Difficulty) []Option
}

// Options returns the layout with fighters at difficulty d.
func (s Scenario) Options(d agent.Difficulty) []Option { return s.options(d) }

var scenarios = map[string]Scenario{
	"flat": {
		Name:        "flat",
		Description: "open ground, one fighter per side at medium range",
		options: func(d agent.Difficulty) []Option {
			return []Option{
				WithBox(-30, -5, 30, 2),
				WithFighter(TeamRed, -8, d),
				WithFighter(TeamBlue, 8, d),
			}
		},
	},
	"valley": {
		Name:        "valley",
		Description: "a wall between the teams blocks every direct line",
		options: func(d agent.Difficulty) []Option {
			return []Option{
				WithBox(-30, -5, 30, 2),
				WithBox(-1, 2, 1, 6),
				WithFighter(TeamRed, -10, d),
				WithFighter(TeamBlue, 10, d),
			}
		},
	},
	"well": {
		Name:        "well",
		Description: "red starts at the bottom of a pit too deep to walk out of",
		options: func(d agent.Difficulty) []Option {
			return []Option{
				WithBox(-30, -5, -3, 6),
				WithBox(3, -5, 30, 6),
				WithBox(-3, -5, 3, 2),
				WithFighter(TeamRed, 0, d),
				WithFighter(TeamBlue, 15, d),
			}
		},
	},
	"duel-hard": {
		Name:        "duel-hard",
		Description: "two hard fighters per side on a stepped ridge",
		options: func(agent.Difficulty) []Option {
			hard := agent.DifficultyHard
			return []Option{
				WithBox(-32, -5, 32, 2),
				WithBox(-6, 2, 6, 2.3),
				WithBox(-3, 2.3, 3, 2.6),
				WithFighter(TeamRed, -14, hard),
				WithFighter(TeamRed, -10, hard),
				WithFighter(TeamBlue, 10, hard),
				WithFighter(TeamBlue, 14, hard),
			}
		},
	},
}

// LookupScenario returns the named scenario.
func LookupScenario(name string) (Scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (known: %v)", name, ScenarioNames())
	}
	return s, nil
}

// ScenarioNames lists every scenario, sorted.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewScenario builds an arena for the named scenario. Extra options are
// applied after the scenario's own.
func NewScenario(name string, d agent.Difficulty, extra ...Option) (*Arena, error) {
	s, err := LookupScenario(name)
	if err != nil {
		return nil, err
	}
	return NewArena(append(s.Options(d), extra...)...), nil
}
