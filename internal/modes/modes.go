// Package modes holds the per-session world rules selected before a session
// starts: Time Attack countdown, Battle Royale shrinking safe zone and the
// Team predation gate.
package modes

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bobblez1/blob2/internal/world"
)

// ErrUnknownMode is returned for mode names the engine does not support.
var ErrUnknownMode = errors.New("unknown game mode")

// Kind identifies a game mode.
type Kind string

const (
	Classic      Kind = "classic"
	TimeAttack   Kind = "time_attack"
	BattleRoyale Kind = "battle_royale"
	Team         Kind = "team"
)

// Kinds lists every supported mode.
func Kinds() []Kind {
	return []Kind{Classic, TimeAttack, BattleRoyale, Team}
}

// Parse resolves a mode name. Both snake_case and camelCase spellings are
// accepted; anything else is ErrUnknownMode.
func Parse(raw string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "classic":
		return Classic, nil
	case "time_attack", "timeattack":
		return TimeAttack, nil
	case "battle_royale", "battleroyale":
		return BattleRoyale, nil
	case "team":
		return Team, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// Cause explains why a session ended.
type Cause string

const (
	CauseNone         Cause = ""
	CauseDeath        Cause = "death"
	CauseTimeExpired  Cause = "time_expired"
	CauseLastStanding Cause = "last_standing"
)

// Params tunes the mode rules.
type Params struct {
	TimeLimit     time.Duration
	InitialRadius float64
	ShrinkRate    float64
	MinRadius     float64
}

// DefaultParams mirrors the reference tuning for the given world bounds.
func DefaultParams(bounds world.Bounds) Params {
	return Params{
		TimeLimit:     180 * time.Second,
		InitialRadius: math.Min(bounds.Width, bounds.Height) / 2,
		ShrinkRate:    2,
		MinRadius:     100,
	}
}

// State is the mode state machine of one session.
type State struct {
	Kind          Kind
	TimeRemaining time.Duration
	SafeRadius    float64
	Center        world.Vec

	params  Params
	pending time.Duration
}

// NewState validates kind and prepares the initial mode state.
func NewState(kind Kind, params Params, center world.Vec) (*State, error) {
	if _, err := Parse(string(kind)); err != nil {
		return nil, err
	}
	if params.MinRadius < 0 {
		params.MinRadius = 0
	}
	if params.InitialRadius < params.MinRadius {
		params.InitialRadius = params.MinRadius
	}
	return &State{
		Kind:          kind,
		TimeRemaining: params.TimeLimit,
		SafeRadius:    params.InitialRadius,
		Center:        center,
		params:        params,
	}, nil
}

// Params returns the tuning the state was built with.
func (s *State) Params() Params {
	return s.params
}

// Advance feeds elapsed wall-clock time into the per-second rules. The
// countdown and the safe radius change once per whole elapsed second, however
// the time is sliced into ticks.
func (s *State) Advance(dt time.Duration) {
	if s == nil || dt <= 0 {
		return
	}
	s.pending += dt
	for s.pending >= time.Second {
		s.pending -= time.Second
		s.secondElapsed()
	}
}

func (s *State) secondElapsed() {
	switch s.Kind {
	case TimeAttack:
		if s.TimeRemaining > 0 {
			s.TimeRemaining -= time.Second
			if s.TimeRemaining < 0 {
				s.TimeRemaining = 0
			}
		}
	case BattleRoyale:
		s.SafeRadius = math.Max(s.params.MinRadius, s.SafeRadius-s.params.ShrinkRate)
	}
}

// Expired reports whether the Time Attack countdown has run out.
func (s *State) Expired() bool {
	return s != nil && s.Kind == TimeAttack && s.TimeRemaining <= 0
}

// ElapsedFraction is how much of the Time Attack countdown has passed, in
// [0, 1]. Other modes report zero.
func (s *State) ElapsedFraction() float64 {
	if s == nil || s.Kind != TimeAttack || s.params.TimeLimit <= 0 {
		return 0
	}
	f := float64(s.params.TimeLimit-s.TimeRemaining) / float64(s.params.TimeLimit)
	return math.Max(0, math.Min(1, f))
}

// HasZone reports whether the safe zone rules are active.
func (s *State) HasZone() bool {
	return s != nil && s.Kind == BattleRoyale
}

// DistanceFromCenter measures how far (x, y) lies from the zone centre.
func (s *State) DistanceFromCenter(x, y float64) float64 {
	return world.Distance(x, y, s.Center.X, s.Center.Y)
}

// OutsideZone reports whether (x, y) lies outside the current safe radius.
// It is always false outside Battle Royale.
func (s *State) OutsideZone(x, y float64) bool {
	if !s.HasZone() {
		return false
	}
	return s.DistanceFromCenter(x, y) > s.SafeRadius
}

// RespawnsBots reports whether eaten bots are replaced.
func (s *State) RespawnsBots() bool {
	return s == nil || s.Kind != BattleRoyale
}

// TeamsEnabled reports whether entities carry team tags.
func (s *State) TeamsEnabled() bool {
	return s != nil && s.Kind == Team
}

// Victory reports the mode-specific win, if any, for the current population.
func (s *State) Victory(botCount int, playerAlive bool) Cause {
	if s == nil || !playerAlive {
		return CauseNone
	}
	switch {
	case s.Kind == BattleRoyale && botCount == 0:
		return CauseLastStanding
	case s.Expired():
		return CauseTimeExpired
	default:
		return CauseNone
	}
}
