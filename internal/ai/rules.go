package ai

import (
	"math"
	"math/rand"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
)

// Situation carries everything a rule may read for one bot on one tick.
type Situation struct {
	Bot       *world.Bot
	View      View
	Params    Params
	BaseSpeed float64
	RNG       *rand.Rand

	others []candidate
}

// Rule is one step of the priority cascade. Evaluate returns ok=false when
// the rule has nothing to say, letting the next rule run.
type Rule interface {
	Name() string
	Evaluate(s *Situation) (world.Vec, bool)
}

type namedRule struct {
	name string
	fn   func(s *Situation) (world.Vec, bool)
}

func (r namedRule) Name() string { return r.name }

func (r namedRule) Evaluate(s *Situation) (world.Vec, bool) { return r.fn(s) }

// NewRule adapts a function into a Rule.
func NewRule(name string, fn func(s *Situation) (world.Vec, bool)) Rule {
	return namedRule{name: name, fn: fn}
}

const (
	RuleZoneHazard      = "zone_hazard"
	RuleThreatAvoidance = "threat_avoidance"
	RuleEnemyPursuit    = "enemy_pursuit"
	RulePredation       = "predation"
	RuleForaging        = "foraging"
	RuleWander          = "wander"
)

// DefaultRules returns the cascade in priority order.
func DefaultRules() []Rule {
	return []Rule{
		NewRule(RuleZoneHazard, zoneHazard),
		NewRule(RuleThreatAvoidance, threatAvoidance),
		NewRule(RuleEnemyPursuit, enemyPursuit),
		NewRule(RulePredation, predation),
		NewRule(RuleForaging, foraging),
		NewRule(RuleWander, wander),
	}
}

func zoneHazard(s *Situation) (world.Vec, bool) {
	mode := s.View.Mode
	if mode.Kind != modes.BattleRoyale || mode.SafeRadius <= 0 {
		return world.Vec{}, false
	}
	toCenter := world.Vec{X: mode.Center.X - s.Bot.X, Y: mode.Center.Y - s.Bot.Y}
	d := toCenter.Len()
	if d <= mode.SafeRadius-s.Params.ZoneBuffer || d == 0 {
		return world.Vec{}, false
	}
	urgency := math.Min(s.Params.MaxUrgency, d/mode.SafeRadius)
	return toCenter.Normalized().Scale(s.BaseSpeed * urgency * 2), true
}

func threatAvoidance(s *Situation) (world.Vec, bool) {
	bot := s.Bot
	threat, ok := nearest(s.candidates(), func(c candidate) bool {
		return !c.shielded &&
			!world.SameTeam(bot.Team, c.team) &&
			c.size >= bot.Size*s.Params.ThreatRatio &&
			c.dist < s.Params.AvoidRange
	})
	if !ok || threat.dist == 0 {
		return world.Vec{}, false
	}
	away := world.Vec{X: bot.X - threat.pos.X, Y: bot.Y - threat.pos.Y}
	strength := math.Min(s.Params.MaxAvoidance, threat.size/bot.Size)
	return away.Normalized().Scale(s.BaseSpeed * strength), true
}

func enemyPursuit(s *Situation) (world.Vec, bool) {
	bot := s.Bot
	if bot.Team == world.TeamNone {
		return world.Vec{}, false
	}
	enemy, ok := nearest(s.candidates(), func(c candidate) bool {
		return !c.shielded &&
			c.team != bot.Team &&
			c.size < bot.Size*s.Params.EnemyRatio &&
			c.dist < s.Params.ChaseRange
	})
	if !ok {
		return world.Vec{}, false
	}
	return s.toward(enemy, s.Params.EnemySpeedFactor)
}

func predation(s *Situation) (world.Vec, bool) {
	bot := s.Bot
	prey, ok := nearest(s.candidates(), func(c candidate) bool {
		return !c.shielded &&
			!world.SameTeam(bot.Team, c.team) &&
			c.size < bot.Size*s.Params.PreyRatio &&
			c.dist < s.Params.ChaseRange
	})
	if !ok {
		return world.Vec{}, false
	}
	return s.toward(prey, s.Params.PreySpeedFactor)
}

func foraging(s *Situation) (world.Vec, bool) {
	bot := s.Bot
	var (
		best  *world.Food
		bestD = math.Inf(1)
	)
	for _, f := range s.View.Foods {
		if f == nil {
			continue
		}
		d := world.Distance(bot.X, bot.Y, f.X, f.Y)
		if d < s.Params.DetectionRange && d < bestD {
			best, bestD = f, d
		}
	}
	if best == nil {
		return world.Vec{}, false
	}
	return s.toward(candidate{pos: best.Pos(), size: best.Size, dist: bestD}, 1)
}

// wander keeps the bot's heading for a while and re-rolls it occasionally.
// The heading is scaled by the current base speed on every decision.
func wander(s *Situation) (world.Vec, bool) {
	bot := s.Bot
	now := s.View.Mode.Now
	h := bot.Heading
	change := h.X == 0 || h.Y == 0 ||
		world.RandomFloat(s.RNG) < s.Params.WanderChance ||
		now-bot.LastWanderChange > s.Params.WanderPersist
	if change {
		spread := s.Params.WanderSpread
		h = world.Vec{
			X: (world.RandomFloat(s.RNG) - 0.5) * spread,
			Y: (world.RandomFloat(s.RNG) - 0.5) * spread,
		}
		bot.Heading = h
		bot.LastWanderChange = now
	}
	return h.Scale(s.BaseSpeed), true
}

func (s *Situation) toward(c candidate, factor float64) (world.Vec, bool) {
	if c.dist == 0 {
		return world.Vec{}, false
	}
	dir := world.Vec{X: c.pos.X - s.Bot.X, Y: c.pos.Y - s.Bot.Y}
	return dir.Normalized().Scale(s.BaseSpeed * factor), true
}

// candidates lists the player and the other bots with their distance to the
// deciding bot. Computed once per situation.
func (s *Situation) candidates() []candidate {
	if s.others != nil {
		return s.others
	}
	bot := s.Bot
	out := make([]candidate, 0, len(s.View.Bots)+1)
	if p := s.View.Player; p != nil {
		out = append(out, candidate{
			pos:      p.Pos(),
			size:     p.Size,
			team:     p.Team,
			shielded: s.View.PlayerShielded,
			dist:     world.Distance(bot.X, bot.Y, p.X, p.Y),
		})
	}
	for _, other := range s.View.Bots {
		if other == nil || other.ID == bot.ID {
			continue
		}
		out = append(out, candidate{
			pos:  other.Pos(),
			size: other.Size,
			team: other.Team,
			dist: world.Distance(bot.X, bot.Y, other.X, other.Y),
		})
	}
	s.others = out
	return out
}

func nearest(cands []candidate, eligible func(candidate) bool) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	for _, c := range cands {
		if !eligible(c) {
			continue
		}
		if !found || c.dist < best.dist {
			best, found = c, true
		}
	}
	return best, found
}
