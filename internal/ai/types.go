package ai

import (
	"time"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
)

// Params tunes bot behaviour. Distances are world units, speeds are units per
// reference frame.
type Params struct {
	BaseSpeed float64
	MinSpeed  float64
	MinSize   float64

	DetectionRange float64
	ChaseRange     float64
	AvoidRange     float64
	ZoneBuffer     float64

	ThreatRatio float64
	EnemyRatio  float64
	PreyRatio   float64

	EnemySpeedFactor        float64
	PreySpeedFactor         float64
	BattleRoyaleSpeedFactor float64
	MaxAvoidance            float64
	MaxUrgency              float64

	WanderChance  float64
	WanderPersist time.Duration
	WanderSpread  float64

	DecisionInterval time.Duration
}

// DefaultParams mirrors the reference tuning.
func DefaultParams() Params {
	return Params{
		BaseSpeed:               1.5,
		MinSpeed:                0.5,
		MinSize:                 10,
		DetectionRange:          150,
		ChaseRange:              100,
		AvoidRange:              80,
		ZoneBuffer:              50,
		ThreatRatio:             1.2,
		EnemyRatio:              0.9,
		PreyRatio:               0.8,
		EnemySpeedFactor:        1.5,
		PreySpeedFactor:         1.3,
		BattleRoyaleSpeedFactor: 1.5,
		MaxAvoidance:            2,
		MaxUrgency:              2,
		WanderChance:            0.02,
		WanderPersist:           3 * time.Second,
		WanderSpread:            4,
		DecisionInterval:        150 * time.Millisecond,
	}
}

// ModeContext is the slice of mode state bots react to.
type ModeContext struct {
	Kind            modes.Kind
	Now             time.Duration
	SafeRadius      float64
	Center          world.Vec
	ElapsedFraction float64
}

// ModeContextFrom samples a mode state at now.
func ModeContextFrom(state *modes.State, now time.Duration) ModeContext {
	if state == nil {
		return ModeContext{Kind: modes.Classic, Now: now}
	}
	return ModeContext{
		Kind:            state.Kind,
		Now:             now,
		SafeRadius:      state.SafeRadius,
		Center:          state.Center,
		ElapsedFraction: state.ElapsedFraction(),
	}
}

// View is what one bot perceives this tick. Bots must not include the
// deciding bot itself; it is skipped by id if present.
type View struct {
	Player         *world.Player
	PlayerShielded bool
	Foods          []*world.Food
	Bots           []*world.Bot
	Mode           ModeContext
}

// Decision reports the outcome of one decision pass.
type Decision struct {
	Velocity world.Vec
	// Rule names the rule that produced the velocity, or "throttled" when
	// the cascade was skipped.
	Rule    string
	Decided bool
}

// candidate is a player or bot the cascade may flee from or chase.
type candidate struct {
	pos      world.Vec
	size     float64
	team     world.Team
	shielded bool
	dist     float64
}
