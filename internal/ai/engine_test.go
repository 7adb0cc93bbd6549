package ai

import (
	"math"
	"testing"
	"time"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
)

var arena = world.Bounds{Width: 1000, Height: 1500}

func newTestEngine() *Engine {
	return NewEngine(DefaultParams(), world.NewDeterministicRNG("ai-test", "ai"), nil)
}

func newBot(id world.EntityID, x, y, size float64, team world.Team) *world.Bot {
	return &world.Bot{Blob: world.Blob{ID: id, X: x, Y: y, Size: size}, Team: team, Aggression: 1, VX: 1, VY: 1}
}

func classicView(now time.Duration) View {
	return View{Mode: ModeContext{Kind: modes.Classic, Now: now}}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBaseSpeedScalesWithSizeAggressionAndMode(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 0, 0, 10, world.TeamNone)
	bot.Aggression = 0.5
	if got := e.BaseSpeed(bot, ModeContext{Kind: modes.Classic}); !almost(got, 0.75) {
		t.Fatalf("expected 0.75, got %f", got)
	}
	bot.Size = 500
	if got := e.BaseSpeed(bot, ModeContext{Kind: modes.Classic}); !almost(got, 0.25) {
		t.Fatalf("expected floor speed 0.5*0.5, got %f", got)
	}
	bot.Size = 10
	bot.Aggression = 1
	if got := e.BaseSpeed(bot, ModeContext{Kind: modes.BattleRoyale}); !almost(got, 2.25) {
		t.Fatalf("expected battle royale 1.5x, got %f", got)
	}
	if got := e.BaseSpeed(bot, ModeContext{Kind: modes.TimeAttack, ElapsedFraction: 0.5}); !almost(got, 2.25) {
		t.Fatalf("expected time attack 1.5x at half time, got %f", got)
	}
}

func TestZoneHazardOverridesEverything(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 100, 100, 20, world.TeamNone)
	food := &world.Food{Blob: world.Blob{ID: 9, X: 110, Y: 100, Size: 4}}
	view := View{
		Foods: []*world.Food{food},
		Mode: ModeContext{
			Kind:       modes.BattleRoyale,
			SafeRadius: 300,
			Center:     world.Vec{X: 500, Y: 750},
		},
	}
	d := e.Decide(bot, view)
	if d.Rule != RuleZoneHazard {
		t.Fatalf("expected zone hazard, got %s", d.Rule)
	}
	if d.Velocity.X <= 0 || d.Velocity.Y <= 0 {
		t.Fatalf("expected velocity toward centre, got %+v", d.Velocity)
	}
	// distance ~763 / 300 caps urgency at 2: speed = base(1.5*1.5) * 2 * 2.
	want := e.BaseSpeed(bot, view.Mode) * 2 * 2
	if !almost(d.Velocity.Len(), want) {
		t.Fatalf("expected magnitude %f, got %f", want, d.Velocity.Len())
	}
}

func TestThreatAvoidanceFleesNearestLargerEntity(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	big := newBot(2, 560, 500, 30, world.TeamNone)
	food := &world.Food{Blob: world.Blob{ID: 3, X: 480, Y: 500, Size: 4}}
	view := classicView(time.Second)
	view.Bots = []*world.Bot{bot, big}
	view.Foods = []*world.Food{food}

	d := e.Decide(bot, view)
	if d.Rule != RuleThreatAvoidance {
		t.Fatalf("expected threat avoidance, got %s", d.Rule)
	}
	if d.Velocity.X >= 0 || !almost(d.Velocity.Y, 0) {
		t.Fatalf("expected to flee along -x, got %+v", d.Velocity)
	}
	want := e.BaseSpeed(bot, view.Mode) * 1.5
	if !almost(d.Velocity.Len(), want) {
		t.Fatalf("expected strength 1.5x base, got %f want %f", d.Velocity.Len(), want)
	}
}

func TestShieldedPlayerIsNeitherThreatNorPrey(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 30, world.TeamNone)
	player := &world.Player{Blob: world.Blob{ID: 2, X: 540, Y: 500, Size: 60}}

	view := classicView(time.Second)
	view.Player = player
	if d := e.Decide(bot, view); d.Rule != RuleThreatAvoidance {
		t.Fatalf("unshielded large player should be a threat, got %s", d.Rule)
	}

	view.PlayerShielded = true
	if d := e.Decide(bot, view); d.Rule == RuleThreatAvoidance {
		t.Fatalf("shielded player must be invisible to threat avoidance")
	}

	player.Size = 10
	if d := e.Decide(bot, view); d.Rule == RulePredation {
		t.Fatalf("shielded player must not be hunted")
	}
}

func TestTeammatesAreIgnored(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 30, world.TeamA)
	mateBig := newBot(2, 540, 500, 60, world.TeamA)
	mateSmall := newBot(3, 460, 500, 10, world.TeamA)
	view := View{Mode: ModeContext{Kind: modes.Team, Now: time.Second}, Bots: []*world.Bot{mateBig, mateSmall}}

	d := e.Decide(bot, view)
	if d.Rule != RuleWander {
		t.Fatalf("teammates should neither threaten nor attract, got %s", d.Rule)
	}
}

func TestEnemyPursuitBeatsGeneralPredation(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 30, world.TeamA)
	enemy := newBot(2, 560, 500, 26, world.TeamB)
	view := View{Mode: ModeContext{Kind: modes.Team, Now: time.Second}, Bots: []*world.Bot{enemy}}

	d := e.Decide(bot, view)
	if d.Rule != RuleEnemyPursuit {
		t.Fatalf("expected enemy pursuit for 0.87x enemy, got %s", d.Rule)
	}
	want := e.BaseSpeed(bot, view.Mode) * 1.5
	if !almost(d.Velocity.Len(), want) || d.Velocity.X <= 0 {
		t.Fatalf("expected chase at 1.5x toward +x, got %+v", d.Velocity)
	}
}

func TestPredationChasesNearestSmallerEntity(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 30, world.TeamNone)
	far := newBot(2, 590, 500, 10, world.TeamNone)
	near := newBot(3, 500, 450, 10, world.TeamNone)
	view := classicView(time.Second)
	view.Bots = []*world.Bot{far, near}

	d := e.Decide(bot, view)
	if d.Rule != RulePredation {
		t.Fatalf("expected predation, got %s", d.Rule)
	}
	if d.Velocity.Y >= 0 || !almost(d.Velocity.X, 0) {
		t.Fatalf("expected chase toward nearest prey at -y, got %+v", d.Velocity)
	}
	want := e.BaseSpeed(bot, view.Mode) * 1.3
	if !almost(d.Velocity.Len(), want) {
		t.Fatalf("expected 1.3x base, got %f", d.Velocity.Len())
	}
}

func TestForagingSeeksNearestFoodInRange(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	out := &world.Food{Blob: world.Blob{ID: 2, X: 700, Y: 500, Size: 4}}
	in := &world.Food{Blob: world.Blob{ID: 3, X: 500, Y: 620, Size: 4}}
	view := classicView(time.Second)
	view.Foods = []*world.Food{out, in}

	d := e.Decide(bot, view)
	if d.Rule != RuleForaging {
		t.Fatalf("expected foraging, got %s", d.Rule)
	}
	if d.Velocity.Y <= 0 || !almost(d.Velocity.Len(), e.BaseSpeed(bot, view.Mode)) {
		t.Fatalf("expected base speed toward +y, got %+v", d.Velocity)
	}
}

func TestWanderPersistsUntilTimer(t *testing.T) {
	params := DefaultParams()
	params.WanderChance = 0
	e := NewEngine(params, world.NewDeterministicRNG("wander", "ai"), nil)
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	bot.Heading = world.Vec{X: 0.4, Y: -0.3}

	d := e.Decide(bot, classicView(time.Second))
	speed := e.BaseSpeed(bot, ModeContext{Kind: modes.Classic})
	if d.Rule != RuleWander || !almost(d.Velocity.X, 0.4*speed) || !almost(d.Velocity.Y, -0.3*speed) {
		t.Fatalf("expected heading scaled by %f, got %+v via %s", speed, d.Velocity, d.Rule)
	}

	d = e.Decide(bot, classicView(3*time.Second+time.Millisecond))
	if bot.Heading == (world.Vec{X: 0.4, Y: -0.3}) {
		t.Fatalf("expected a new wander heading after 3s")
	}
	if bot.LastWanderChange != 3*time.Second+time.Millisecond {
		t.Fatalf("expected wander timestamp updated, got %s", bot.LastWanderChange)
	}
}

func TestWanderSpeedFollowsGrowth(t *testing.T) {
	params := DefaultParams()
	params.WanderChance = 0
	e := NewEngine(params, world.NewDeterministicRNG("wander", "ai"), nil)
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	bot.Heading = world.Vec{X: 1, Y: 1}

	small := e.Decide(bot, classicView(time.Second))
	bot.Size = 80
	big := e.Decide(bot, classicView(2*time.Second))
	if bot.Heading != (world.Vec{X: 1, Y: 1}) {
		t.Fatalf("heading must persist before the timer, got %+v", bot.Heading)
	}
	want := e.BaseSpeed(bot, ModeContext{Kind: modes.Classic})
	if !almost(big.Velocity.X, want) || big.Velocity.X >= small.Velocity.X {
		t.Fatalf("expected wander speed to drop to %f after growth, got %f (was %f)", want, big.Velocity.X, small.Velocity.X)
	}

	rush := e.Decide(bot, View{Mode: ModeContext{Kind: modes.TimeAttack, Now: 2500 * time.Millisecond, ElapsedFraction: 0.5}})
	if !almost(rush.Velocity.X, want*1.5) {
		t.Fatalf("expected time attack pressure on wander speed, got %f", rush.Velocity.X)
	}
}

func TestUpdateThrottlesDecisions(t *testing.T) {
	e := newTestEngine()
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	bot.LastDecision = time.Second
	bot.VX, bot.VY = 1, 0
	food := &world.Food{Blob: world.Blob{ID: 2, X: 500, Y: 600, Size: 4}}
	view := classicView(time.Second + 100*time.Millisecond)
	view.Foods = []*world.Food{food}

	d := e.Update(bot, view, 1, arena)
	if d.Rule != RuleThrottled || d.Decided {
		t.Fatalf("expected throttled decision, got %s", d.Rule)
	}
	if bot.X != 501 || bot.Y != 500 {
		t.Fatalf("expected bot to keep moving along old velocity, got (%f,%f)", bot.X, bot.Y)
	}

	view.Mode.Now = time.Second + 200*time.Millisecond
	d = e.Update(bot, view, 1, arena)
	if d.Rule != RuleForaging || bot.LastDecision != view.Mode.Now {
		t.Fatalf("expected fresh decision after interval, got %s", d.Rule)
	}
}

func TestMoveBouncesOffWalls(t *testing.T) {
	bot := newBot(1, 12, 500, 20, world.TeamNone)
	bot.VX, bot.VY = -5, 0
	Move(bot, 1, arena)
	if bot.X != 10 {
		t.Fatalf("expected clamp to radius, got %f", bot.X)
	}
	if bot.VX != 5 {
		t.Fatalf("expected reflected velocity, got %f", bot.VX)
	}

	bot.X, bot.Heading = 12, world.Vec{X: -1, Y: 0.5}
	bot.VX = -5
	Move(bot, 1, arena)
	if bot.Heading != (world.Vec{X: 1, Y: 0.5}) {
		t.Fatalf("expected wander heading reflected with the velocity, got %+v", bot.Heading)
	}
}

func TestCustomRuleOrder(t *testing.T) {
	stop := NewRule("stop", func(s *Situation) (world.Vec, bool) { return world.Vec{}, true })
	e := NewEngine(DefaultParams(), nil, []Rule{stop, NewRule(RuleForaging, foraging)})
	bot := newBot(1, 500, 500, 20, world.TeamNone)
	view := classicView(time.Second)
	view.Foods = []*world.Food{{Blob: world.Blob{ID: 2, X: 510, Y: 500, Size: 4}}}
	if d := e.Decide(bot, view); d.Rule != "stop" || !d.Velocity.IsZero() {
		t.Fatalf("first rule must win, got %s", d.Rule)
	}
}
