package sim

import (
	"errors"
	"math"
	"time"

	"github.com/bobblez1/blob2/internal/growth"
	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/telemetry"
	"github.com/bobblez1/blob2/internal/world"
	"github.com/bobblez1/blob2/logging"
)

var (
	// ErrSessionEnded is returned by Step once the session is over.
	ErrSessionEnded = errors.New("session ended")
	// ErrTickAborted is returned when a tick failed and was rolled back.
	ErrTickAborted = errors.New("tick aborted")
)

// ReferenceFrame is the frame length velocities and speeds are expressed in.
const ReferenceFrame = time.Second / 60

// Effect is a temporary power-up active until ExpiresAt on the session clock.
type Effect struct {
	ExpiresAt time.Duration
}

// Active reports whether the effect is still running at now.
func (e Effect) Active(now time.Duration) bool {
	return e.ExpiresAt > now
}

// Modifiers are the player's upgrades and running power-ups for one tick.
type Modifiers struct {
	SpeedBoost      float64
	PointMultiplier float64
	InstantKill     bool
	AutoRevive      bool
	Shield          Effect
	DoublePoints    Effect
}

// Sanitize clamps values supplied from outside the engine: speed boost to a
// finite value >= 0, point multiplier to a finite value >= 1 and expiry
// stamps to >= 0.
func (m Modifiers) Sanitize() Modifiers {
	if !finite(m.SpeedBoost) || m.SpeedBoost < 0 {
		m.SpeedBoost = 0
	}
	if !finite(m.PointMultiplier) || m.PointMultiplier < 1 {
		m.PointMultiplier = 1
	}
	if m.Shield.ExpiresAt < 0 {
		m.Shield.ExpiresAt = 0
	}
	if m.DoublePoints.ExpiresAt < 0 {
		m.DoublePoints.ExpiresAt = 0
	}
	return m
}

// Input is what the outside world supplies each tick.
type Input struct {
	// Direction is the desired heading. Magnitudes above 1 are normalised.
	Direction world.Vec
	Modifiers Modifiers
}

// Sanitize drops non-finite directions and caps the magnitude at 1.
func (in Input) Sanitize() Input {
	if !finite(in.Direction.X) || !finite(in.Direction.Y) {
		in.Direction = world.Vec{}
	}
	if in.Direction.Len() > 1 {
		in.Direction = in.Direction.Normalized()
	}
	in.Modifiers = in.Modifiers.Sanitize()
	return in
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type EventKind string

const (
	EventScore             EventKind = "score"
	EventChallengeProgress EventKind = "challenge_progress"
	EventRevived           EventKind = "revived"
	EventLifeConsumed      EventKind = "life_consumed"
	EventSessionEnded      EventKind = "session_ended"
)

// Challenge counters reported through EventChallengeProgress.
const (
	ChallengeEatBlobs    = "eat_blobs"
	ChallengeSurviveTime = "survive_time"
)

// Event is a one-way notification to collaborators outside the engine.
type Event struct {
	Kind     EventKind   `json:"kind" msgpack:"kind"`
	Tick     uint64      `json:"tick" msgpack:"tick"`
	Points   int         `json:"points,omitempty" msgpack:"points,omitempty"`
	Category string      `json:"category,omitempty" msgpack:"category,omitempty"`
	Amount   int         `json:"amount,omitempty" msgpack:"amount,omitempty"`
	Cause    modes.Cause `json:"cause,omitempty" msgpack:"cause,omitempty"`
	Score    int         `json:"score,omitempty" msgpack:"score,omitempty"`
}

// Reporter receives engine events after each committed tick.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function into a Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) {
	if f == nil {
		return
	}
	f(e)
}

// MultiReporter forwards to each reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

// Deps are the engine's collaborators. Zero values are replaced by no-ops.
type Deps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Reporter  Reporter
	Clock     logging.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Logger == nil {
		d.Logger = telemetry.Discard()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NopMetrics()
	}
	if d.Reporter == nil {
		d.Reporter = ReporterFunc(nil)
	}
	if d.Clock == nil {
		d.Clock = logging.ClockFunc(time.Now)
	}
	return d
}

// Result describes one committed tick.
type Result struct {
	Tick    uint64
	Elapsed time.Duration
	Events  []Event
	Score   int
	Ended   bool
	Cause   modes.Cause
	// Rules counts which AI rule drove each bot this tick.
	Rules map[string]int
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Tick          uint64
	Elapsed       time.Duration
	Mode          modes.Kind
	TimeRemaining time.Duration
	SafeRadius    float64
	Center        world.Vec
	Bounds        world.Bounds
	Score         int
	Ended         bool
	Cause         modes.Cause
	ReviveUsed    bool
	Stage         growth.Stage
	Player        world.Player
	Bots          []world.Bot
	Foods         []world.Food
}
