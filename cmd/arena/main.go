package main

import (
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
	"github.com/Garsondee/Artillery-Sense/internal/arena"
	"github.com/Garsondee/Artillery-Sense/internal/viewer"
)

func main() {
	scenario := flag.String("scenario", "valley", "scenario name ("+strings.Join(arena.ScenarioNames(), ", ")+")")
	difficulty := flag.String("difficulty", "normal", "fighter difficulty (easy, normal, hard)")
	configPath := flag.String("config", "", "agent tuning YAML (defaults when empty)")
	seed := flag.Int64("seed", 1, "RNG seed; R in the viewer advances it")
	turns := flag.Int("turns", arena.DefaultMaxTurns, "turn limit per match")
	flag.Parse()

	d, ok := agent.ParseDifficulty(*difficulty)
	if !ok {
		log.Fatalf("unknown difficulty %q", *difficulty)
	}
	cfg := agent.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = agent.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	// One session for the whole viewing, so weapon balance carries across restarts.
	session := agent.NewSession(cfg)

	v, err := viewer.New(func(s int64) (*arena.Arena, error) {
		return arena.NewScenario(*scenario, d,
			arena.WithSeed(s), arena.WithConfig(cfg), arena.WithSession(session), arena.WithMaxTurns(*turns))
	}, *seed)
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	ebiten.SetWindowTitle("Artillery Sense")
	ebiten.SetWindowSize(v.Size())
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
