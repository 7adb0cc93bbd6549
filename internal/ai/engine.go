// Package ai picks a velocity for every bot each tick by running an ordered
// cascade of rules and taking the first one that fires.
package ai

import (
	"math"
	"math/rand"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
)

// RuleThrottled marks decisions skipped because the bot decided recently.
const RuleThrottled = "throttled"

// Engine evaluates the rule cascade for bots.
type Engine struct {
	params Params
	rules  []Rule
	rng    *rand.Rand
}

// NewEngine builds an engine. A nil rules slice selects DefaultRules; a nil
// rng falls back to a deterministic stream.
func NewEngine(params Params, rng *rand.Rand, rules []Rule) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	if rng == nil {
		rng = world.NewDeterministicRNG(world.DefaultSeed, "ai")
	}
	return &Engine{params: params, rules: rules, rng: rng}
}

// Params returns the engine tuning.
func (e *Engine) Params() Params {
	return e.params
}

// Rules returns the cascade in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// BaseSpeed computes the bot's speed before any rule-specific factor: bigger
// bots are slower, aggression scales it, and the mode adds pressure.
func (e *Engine) BaseSpeed(bot *world.Bot, mode ModeContext) float64 {
	speed := math.Max(e.params.MinSpeed, e.params.BaseSpeed-(bot.Size-e.params.MinSize)/100)
	speed *= bot.Aggression
	switch mode.Kind {
	case modes.TimeAttack:
		speed *= 1 + mode.ElapsedFraction
	case modes.BattleRoyale:
		speed *= e.params.BattleRoyaleSpeedFactor
	}
	return speed
}

// Decide runs the cascade once and returns the first velocity produced. It
// only mutates the bot's wander heading and timestamp.
func (e *Engine) Decide(bot *world.Bot, view View) Decision {
	s := &Situation{
		Bot:       bot,
		View:      view,
		Params:    e.params,
		BaseSpeed: e.BaseSpeed(bot, view.Mode),
		RNG:       e.rng,
	}
	for _, rule := range e.rules {
		if v, ok := rule.Evaluate(s); ok {
			return Decision{Velocity: v, Rule: rule.Name(), Decided: true}
		}
	}
	return Decision{Velocity: bot.Velocity(), Rule: RuleWander, Decided: true}
}

// Update applies throttled decision making to bot and moves it. When less
// than the decision interval has passed since its last decision the bot keeps
// its previous velocity.
func (e *Engine) Update(bot *world.Bot, view View, frameScale float64, bounds world.Bounds) Decision {
	now := view.Mode.Now
	var decision Decision
	if now-bot.LastDecision < e.params.DecisionInterval {
		decision = Decision{Velocity: bot.Velocity(), Rule: RuleThrottled}
	} else {
		decision = e.Decide(bot, view)
		bot.LastDecision = now
	}
	bot.SetVelocity(decision.Velocity)
	Move(bot, frameScale, bounds)
	return decision
}

// Move advances the bot along its velocity. A component that would carry the
// bot through a wall is reflected and the position clamped.
func Move(bot *world.Bot, frameScale float64, bounds world.Bounds) {
	if frameScale <= 0 || math.IsNaN(frameScale) {
		return
	}
	r := bot.Size / 2
	tx := bot.X + bot.VX*frameScale
	ty := bot.Y + bot.VY*frameScale
	if tx < r || tx > bounds.Width-r {
		bot.VX = -bot.VX
		bot.Heading.X = -bot.Heading.X
	}
	if ty < r || ty > bounds.Height-r {
		bot.VY = -bot.VY
		bot.Heading.Y = -bot.Heading.Y
	}
	bot.X, bot.Y = bounds.Clamp(tx, ty, bot.Size)
}
