package arena

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// TeamStats counts what one team did over a match, read back from the trace.
type TeamStats struct {
	Turns         int
	Shots         int
	ClawShots     int
	GrenadeShots  int
	DeniedFires   int
	RopeAttaches  int
	RopeTriggers  int
	TunnelStarts  int
	TunnelEscapes int
	Teleports     int
	Kills         int
	Drowned       int
	DamageTaken   float64
}

// ClawFraction is the share of shots fired with the claw.
func (s TeamStats) ClawFraction() float64 {
	if s.Shots == 0 {
		return 0
	}
	return float64(s.ClawShots) / float64(s.Shots)
}

// MatchStats is per-team statistics keyed by team id.
type MatchStats map[int]*TeamStats

func (m MatchStats) team(id int) *TeamStats {
	s, ok := m[id]
	if !ok {
		s = &TeamStats{}
		m[id] = s
	}
	return s
}

// Teams returns the team ids in order.
func (m MatchStats) Teams() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CollectStats tallies controller and world events per team.
func CollectStats(entries []agent.TraceEntry) MatchStats {
	m := MatchStats{}
	for _, e := range entries {
		if e.Team < 0 {
			continue
		}
		s := m.team(e.Team)
		switch e.Category + "/" + e.Key {
		case "turn/start":
			s.Turns++
		case "attack/fire":
			s.Shots++
			switch e.Value {
			case agent.WeaponClaw.String():
				s.ClawShots++
			case agent.WeaponGrenade.String():
				s.GrenadeShots++
			}
		case "attack/fire_denied":
			s.DeniedFires++
		case "rope/attach":
			s.RopeAttaches++
		case "approach/rope_trigger":
			s.RopeTriggers++
		case "tunnel/start":
			s.TunnelStarts++
		case "tunnel/escaped":
			s.TunnelEscapes++
		case "world/teleport":
			s.Teleports++
		case "world/kill":
			s.Kills++
		case "world/drown":
			s.Drowned++
		case "world/damage":
			s.DamageTaken += e.NumVal
		}
	}
	return m
}

// Format renders one line per team.
func (m MatchStats) Format() string {
	var sb strings.Builder
	for _, id := range m.Teams() {
		s := m[id]
		fmt.Fprintf(&sb, "  %s turns=%d shots=%d claw=%d grenade=%d claw_frac=%.2f denied=%d rope_triggers=%d rope_attach=%d tunnels=%d/%d teleports=%d kills=%d drowned=%d dmg_taken=%.0f\n",
			teamPrefix(id), s.Turns, s.Shots, s.ClawShots, s.GrenadeShots, s.ClawFraction(), s.DeniedFires,
			s.RopeTriggers, s.RopeAttaches, s.TunnelEscapes, s.TunnelStarts, s.Teleports, s.Kills, s.Drowned, s.DamageTaken)
	}
	return sb.String()
}
