package agent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchemaJSON string

// DifficultyProfile holds the tuning that scales with skill tier.
type DifficultyProfile struct {
	AimNoiseDeg     float64 `yaml:"aim_noise_deg"`     // uniform +/- rotation on the final aim
	GrenadeSamples  int     `yaml:"grenade_samples"`   // release angles per fan
	RetreatSamples  int     `yaml:"retreat_samples"`   // candidate points along the retreat band
	ClawHoldSeconds float64 `yaml:"claw_hold_seconds"` // continuous fire after the first claw shot
}

// DifficultyTable maps each tier to its profile.
type DifficultyTable struct {
	Easy   DifficultyProfile `yaml:"easy"`
	Normal DifficultyProfile `yaml:"normal"`
	Hard   DifficultyProfile `yaml:"hard"`
}

// For returns the profile for d; unknown tiers get Normal.
func (t DifficultyTable) For(d Difficulty) DifficultyProfile {
	switch d {
	case DifficultyEasy:
		return t.Easy
	case DifficultyHard:
		return t.Hard
	default:
		return t.Normal
	}
}

// Config is the full controller tuning. All durations are simulation seconds
// and all distances world units.
type Config struct {
	// Turn pacing.
	ThinkSeconds         float64 `yaml:"think_seconds"`
	NoTargetRetrySeconds float64 `yaml:"no_target_retry_seconds"`
	NotReadyRetrySeconds float64 `yaml:"not_ready_retry_seconds"`
	FireFailRetrySeconds float64 `yaml:"fire_fail_retry_seconds"`
	AimSettleSeconds     float64 `yaml:"aim_settle_seconds"`
	MinTurnSecondsLeft   float64 `yaml:"min_turn_seconds_left"`

	// Anti-stuck watchdog.
	AntiStuckSeconds   float64 `yaml:"anti_stuck_seconds"`
	AntiStuckHeightMul float64 `yaml:"anti_stuck_height_mul"`

	// Approach.
	ApproachMaxSeconds    float64 `yaml:"approach_max_seconds"`
	ApproachStepSeconds   float64 `yaml:"approach_step_seconds"`
	ProgressEpsilon       float64 `yaml:"progress_epsilon"`
	WindowCycles          int     `yaml:"window_cycles"`
	WindowGainHeightMul   float64 `yaml:"window_gain_height_mul"`
	CheckpointSeconds     float64 `yaml:"checkpoint_seconds"`
	StallCycles           int     `yaml:"stall_cycles"`
	RopeFailRiseHeightMul float64 `yaml:"rope_fail_rise_height_mul"`
	RopeFailsBeforeTunnel int     `yaml:"rope_fails_before_tunnel"`

	// Rope maneuver.
	RopeAttachWaitSeconds   float64 `yaml:"rope_attach_wait_seconds"`
	RopeExtendMinSeconds    float64 `yaml:"rope_extend_min_seconds"`
	RopeExtendSafetySeconds float64 `yaml:"rope_extend_safety_seconds"`
	RopeSwingSeconds        float64 `yaml:"rope_swing_seconds"`
	// RopeForbiddenBandDeg rejects rope shots within this many degrees of
	// horizontal. Tuned by feel, not a load-bearing invariant.
	RopeForbiddenBandDeg      float64 `yaml:"rope_forbidden_band_deg"`
	DetachDescendSeconds      float64 `yaml:"detach_descend_seconds"`
	DetachReelSeconds         float64 `yaml:"detach_reel_seconds"`
	GroundSteerSeconds        float64 `yaml:"ground_steer_seconds"`
	ForceDetachOnSteerTimeout bool    `yaml:"force_detach_on_steer_timeout"`
	LandingBurstSeconds       float64 `yaml:"landing_burst_seconds"`

	// Tunnel escape.
	TunnelFirstLeg        float64 `yaml:"tunnel_first_leg"`
	TunnelLegGrowth       float64 `yaml:"tunnel_leg_growth"`
	TunnelMaxLegs         int     `yaml:"tunnel_max_legs"`
	TunnelLegTimeout      float64 `yaml:"tunnel_leg_timeout"`
	TunnelEscapeHeightMul float64 `yaml:"tunnel_escape_height_mul"`

	// Weapons.
	CloseRangeFactor float64 `yaml:"close_range_factor"`
	// ClawFireDownDeg tilts hitscan aim toward the ground. Tuned by feel.
	ClawFireDownDeg       float64 `yaml:"claw_fire_down_deg"`
	ClawReaimSeconds      float64 `yaml:"claw_reaim_seconds"`
	ClawTargetFraction    float64 `yaml:"claw_target_fraction"`
	GrenadeAcceptRadius   float64 `yaml:"grenade_accept_radius"`
	GrenadeSelfSafeRadius float64 `yaml:"grenade_self_safe_radius"`

	// Retreat.
	RetreatBandHeight    float64 `yaml:"retreat_band_height"`
	RetreatBandHalfWidth float64 `yaml:"retreat_band_half_width"`
	RetreatMaxSeconds    float64 `yaml:"retreat_max_seconds"`
	RetreatBurstSeconds  float64 `yaml:"retreat_burst_seconds"`
	RetreatArriveDist    float64 `yaml:"retreat_arrive_dist"`
	RetreatReachPenalty  float64 `yaml:"retreat_reach_penalty"`

	Difficulty DifficultyTable `yaml:"difficulty"`
}

// DefaultConfig returns the shipped tuning.
func DefaultConfig() Config {
	return Config{
		ThinkSeconds:         0.75,
		NoTargetRetrySeconds: 1.0,
		NotReadyRetrySeconds: 0.5,
		FireFailRetrySeconds: 0.6,
		AimSettleSeconds:     0.2,
		MinTurnSecondsLeft:   8,

		AntiStuckSeconds:   60,
		AntiStuckHeightMul: 10,

		ApproachMaxSeconds:    55,
		ApproachStepSeconds:   0.5,
		ProgressEpsilon:       0.12,
		WindowCycles:          5,
		WindowGainHeightMul:   3,
		CheckpointSeconds:     1,
		StallCycles:           5,
		RopeFailRiseHeightMul: 0.6,
		RopeFailsBeforeTunnel: 2,

		RopeAttachWaitSeconds:     0.3,
		RopeExtendMinSeconds:      5,
		RopeExtendSafetySeconds:   3,
		RopeSwingSeconds:          0.55,
		RopeForbiddenBandDeg:      12,
		DetachDescendSeconds:      1.75,
		DetachReelSeconds:         6,
		GroundSteerSeconds:        6,
		ForceDetachOnSteerTimeout: true,
		LandingBurstSeconds:       0.35,

		TunnelFirstLeg:        2,
		TunnelLegGrowth:       2,
		TunnelMaxLegs:         4,
		TunnelLegTimeout:      3,
		TunnelEscapeHeightMul: 1.10,

		CloseRangeFactor:      0.5,
		ClawFireDownDeg:       4,
		ClawReaimSeconds:      0.1,
		ClawTargetFraction:    0.5,
		GrenadeAcceptRadius:   1.5,
		GrenadeSelfSafeRadius: 3.0,

		RetreatBandHeight:    4,
		RetreatBandHalfWidth: 10,
		RetreatMaxSeconds:    5,
		RetreatBurstSeconds:  0.3,
		RetreatArriveDist:    1.25,
		RetreatReachPenalty:  0.15,

		Difficulty: DifficultyTable{
			Easy:   DifficultyProfile{AimNoiseDeg: 16, GrenadeSamples: 9, RetreatSamples: 9, ClawHoldSeconds: 3},
			Normal: DifficultyProfile{AimNoiseDeg: 8, GrenadeSamples: 15, RetreatSamples: 13, ClawHoldSeconds: 5},
			Hard:   DifficultyProfile{AimNoiseDeg: 2.5, GrenadeSamples: 23, RetreatSamples: 17, ClawHoldSeconds: 7},
		},
	}
}

// Validate reports every field that is out of range.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %g", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %g", name, v))
		}
	}
	atLeast := func(name string, v, min int) {
		if v < min {
			errs = append(errs, fmt.Errorf("%s must be >= %d, got %d", name, min, v))
		}
	}

	positive("think_seconds", c.ThinkSeconds)
	positive("no_target_retry_seconds", c.NoTargetRetrySeconds)
	positive("not_ready_retry_seconds", c.NotReadyRetrySeconds)
	positive("fire_fail_retry_seconds", c.FireFailRetrySeconds)
	nonNegative("aim_settle_seconds", c.AimSettleSeconds)
	nonNegative("min_turn_seconds_left", c.MinTurnSecondsLeft)
	positive("anti_stuck_seconds", c.AntiStuckSeconds)
	nonNegative("anti_stuck_height_mul", c.AntiStuckHeightMul)
	positive("approach_max_seconds", c.ApproachMaxSeconds)
	positive("approach_step_seconds", c.ApproachStepSeconds)
	nonNegative("progress_epsilon", c.ProgressEpsilon)
	atLeast("window_cycles", c.WindowCycles, 1)
	nonNegative("window_gain_height_mul", c.WindowGainHeightMul)
	positive("checkpoint_seconds", c.CheckpointSeconds)
	atLeast("stall_cycles", c.StallCycles, 1)
	nonNegative("rope_fail_rise_height_mul", c.RopeFailRiseHeightMul)
	atLeast("rope_fails_before_tunnel", c.RopeFailsBeforeTunnel, 1)
	nonNegative("rope_attach_wait_seconds", c.RopeAttachWaitSeconds)
	nonNegative("rope_extend_min_seconds", c.RopeExtendMinSeconds)
	nonNegative("rope_extend_safety_seconds", c.RopeExtendSafetySeconds)
	nonNegative("rope_swing_seconds", c.RopeSwingSeconds)
	if c.RopeForbiddenBandDeg < 0 || c.RopeForbiddenBandDeg >= 90 {
		errs = append(errs, fmt.Errorf("rope_forbidden_band_deg must be in [0,90), got %g", c.RopeForbiddenBandDeg))
	}
	nonNegative("detach_descend_seconds", c.DetachDescendSeconds)
	nonNegative("detach_reel_seconds", c.DetachReelSeconds)
	positive("ground_steer_seconds", c.GroundSteerSeconds)
	nonNegative("landing_burst_seconds", c.LandingBurstSeconds)
	positive("tunnel_first_leg", c.TunnelFirstLeg)
	nonNegative("tunnel_leg_growth", c.TunnelLegGrowth)
	atLeast("tunnel_max_legs", c.TunnelMaxLegs, 1)
	positive("tunnel_leg_timeout", c.TunnelLegTimeout)
	nonNegative("tunnel_escape_height_mul", c.TunnelEscapeHeightMul)
	if c.CloseRangeFactor < 0 || c.CloseRangeFactor > 1 {
		errs = append(errs, fmt.Errorf("close_range_factor must be in [0,1], got %g", c.CloseRangeFactor))
	}
	nonNegative("claw_fire_down_deg", c.ClawFireDownDeg)
	positive("claw_reaim_seconds", c.ClawReaimSeconds)
	if c.ClawTargetFraction < 0 || c.ClawTargetFraction > 1 {
		errs = append(errs, fmt.Errorf("claw_target_fraction must be in [0,1], got %g", c.ClawTargetFraction))
	}
	nonNegative("grenade_accept_radius", c.GrenadeAcceptRadius)
	nonNegative("grenade_self_safe_radius", c.GrenadeSelfSafeRadius)
	positive("retreat_band_height", c.RetreatBandHeight)
	nonNegative("retreat_band_half_width", c.RetreatBandHalfWidth)
	nonNegative("retreat_max_seconds", c.RetreatMaxSeconds)
	positive("retreat_burst_seconds", c.RetreatBurstSeconds)
	nonNegative("retreat_arrive_dist", c.RetreatArriveDist)
	nonNegative("retreat_reach_penalty", c.RetreatReachPenalty)

	for _, tier := range []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		p := c.Difficulty.For(tier)
		nonNegative(tier.String()+".aim_noise_deg", p.AimNoiseDeg)
		atLeast(tier.String()+".grenade_samples", p.GrenadeSamples, 2)
		atLeast(tier.String()+".retreat_samples", p.RetreatSamples, 1)
		nonNegative(tier.String()+".claw_hold_seconds", p.ClawHoldSeconds)
	}
	return errors.Join(errs...)
}

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

// LoadConfig reads a YAML tuning file and overlays it on DefaultConfig. The
// document is checked against the embedded schema first so unknown keys and
// wrong types are reported instead of silently ignored.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(raw)
}

// ParseConfig is LoadConfig over an in-memory document.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(doc)
	if err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}
	if err := configSchema.Validate(generic); err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("agent config: %w", err)
	}
	return cfg, nil
}
