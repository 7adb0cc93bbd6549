// Package sim drives an arena session one tick at a time. The engine owns
// the world; every tick runs on a copy that is committed only when the whole
// tick succeeds.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/bobblez1/blob2/internal/ai"
	"github.com/bobblez1/blob2/internal/combat"
	"github.com/bobblez1/blob2/internal/config"
	"github.com/bobblez1/blob2/internal/growth"
	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/spatial"
	"github.com/bobblez1/blob2/internal/world"
	"github.com/bobblez1/blob2/logging"
	"github.com/bobblez1/blob2/logging/predation"
	"github.com/bobblez1/blob2/logging/progress"
	"github.com/bobblez1/blob2/logging/session"
)

// sessionState holds the per-session counters that must roll back with the world
// when a tick aborts.
type sessionState struct {
	now             time.Duration
	tick            uint64
	score           int
	decay           growth.Timer
	reviveUsed      bool
	survivedMinutes int
	ended           bool
	cause           modes.Cause
}

// Engine runs one session.
type Engine struct {
	cfg    config.Config
	deps   Deps
	kind   modes.Kind
	team   world.Team
	bounds world.Bounds

	world    *world.World
	mode     *modes.State
	state    sessionState
	bots     *ai.Engine
	resolver *combat.Resolver
	spawnRNG *rand.Rand

	growthParams growth.Params
	spawnParams  world.SpawnParams
	perception   float64
}

// NewEngine validates cfg and sets up a fresh session: the player at the
// centre, the mode's bot population and the initial food.
func NewEngine(cfg config.Config, deps Deps) (*Engine, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind := cfg.ModeKind()
	bounds := cfg.Bounds()
	state, err := modes.NewState(kind, cfg.ModeParams(), bounds.Center())
	if err != nil {
		return nil, err
	}
	team := cfg.PlayerTeam()
	if state.TeamsEnabled() && team == world.TeamNone {
		team = world.TeamA
	}
	if !state.TeamsEnabled() {
		team = world.TeamNone
	}

	aiParams := cfg.AIParams()
	e := &Engine{
		cfg:          cfg,
		deps:         deps.withDefaults(),
		kind:         kind,
		team:         team,
		bounds:       bounds,
		world:        world.New(bounds),
		mode:         state,
		bots:         ai.NewEngine(aiParams, world.NewDeterministicRNG(cfg.Seed, "ai"), nil),
		resolver:     combat.NewResolver(cfg.CombatParams()),
		spawnRNG:     world.NewDeterministicRNG(cfg.Seed, "spawn"),
		growthParams: cfg.GrowthParams(),
		spawnParams:  cfg.SpawnParams(),
		perception:   math.Max(aiParams.DetectionRange, math.Max(aiParams.ChaseRange, aiParams.AvoidRange)),
	}

	color := world.TeamColor(team)
	if color == "" {
		color = growth.StageFor(cfg.Player.InitialSize).Color()
	}
	e.world.PlacePlayer(cfg.PlayerName, cfg.Player.InitialSize, team, color)
	for i := 0; i < cfg.BotCount(kind); i++ {
		botTeam := world.TeamNone
		if state.TeamsEnabled() {
			botTeam = world.TeamA
			if i%2 == 1 {
				botTeam = world.TeamB
			}
		}
		e.world.SpawnBot(e.spawnRNG, e.spawnParams, botTeam, 0)
	}
	for i := 0; i < cfg.Food.InitialCount; i++ {
		e.world.SpawnFood(e.spawnRNG, e.spawnParams)
	}

	session.Started(context.Background(), e.deps.Publisher, 0, e.sessionRef(), session.StartedPayload{
		Mode:  string(kind),
		Team:  teamName(team),
		Seed:  cfg.Seed,
		Bots:  len(e.world.Bots),
		Foods: len(e.world.Foods),
	}, nil)
	return e, nil
}

// Config returns the normalised configuration the session runs with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Deps returns the injected collaborators.
func (e *Engine) Deps() Deps {
	return e.deps
}

// Ended reports whether the session is over.
func (e *Engine) Ended() bool {
	return e.state.ended
}

// Step advances the session by dt. On success the new state is committed and
// the tick's events are published and reported. A failure inside the tick
// leaves the previous state untouched and returns ErrTickAborted.
func (e *Engine) Step(dt time.Duration, in Input) (Result, error) {
	if e.state.ended {
		return Result{Tick: e.state.tick, Ended: true, Cause: e.state.cause, Score: e.state.score}, ErrSessionEnded
	}
	if dt < 0 {
		dt = 0
	}
	in = in.Sanitize()

	t, err := e.runTick(dt, in)
	if err != nil {
		return Result{Tick: e.state.tick, Score: e.state.score}, err
	}
	e.world = t.world
	*e.mode = t.mode
	e.state = t.state
	t.flush()

	e.deps.Metrics.Add("sim.ticks", 1)
	e.deps.Metrics.Store("sim.bots", uint64(len(e.world.Bots)))
	e.deps.Metrics.Store("sim.foods", uint64(len(e.world.Foods)))
	e.deps.Metrics.Store("sim.score", uint64(e.state.score))

	return Result{
		Tick:    e.state.tick,
		Elapsed: e.state.now,
		Events:  t.events,
		Score:   e.state.score,
		Ended:   e.state.ended,
		Cause:   e.state.cause,
		Rules:   t.rules,
	}, nil
}

// runTick executes the tick phases on copies of the committed state. A panic
// in any phase is converted into ErrTickAborted.
func (e *Engine) runTick(dt time.Duration, in Input) (t *tick, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("%w: %v", ErrTickAborted, r)
			e.deps.Metrics.Add("sim.ticks_aborted", 1)
			e.deps.Logger.Printf("[sim] tick %d aborted: %v", e.state.tick+1, r)
			session.TickAborted(context.Background(), e.deps.Publisher, e.state.tick+1, e.sessionRef(), session.TickAbortedPayload{Reason: fmt.Sprint(r)}, nil)
		}
	}()
	t = &tick{
		engine: e,
		world:  e.world.Clone(),
		mode:   *e.mode,
		state:  e.state,
		in:     in,
		dt:     dt,
		rules:  make(map[string]int),
	}
	t.run()
	return t, nil
}

// Snapshot copies the committed state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:          e.state.tick,
		Elapsed:       e.state.now,
		Mode:          e.kind,
		TimeRemaining: e.mode.TimeRemaining,
		SafeRadius:    e.mode.SafeRadius,
		Center:        e.mode.Center,
		Bounds:        e.bounds,
		Score:         e.state.score,
		Ended:         e.state.ended,
		Cause:         e.state.cause,
		ReviveUsed:    e.state.reviveUsed,
		Bots:          make([]world.Bot, len(e.world.Bots)),
		Foods:         make([]world.Food, len(e.world.Foods)),
	}
	if p := e.world.Player; p != nil {
		snap.Player = *p
		snap.Stage = growth.StageFor(p.Size)
	}
	for i, b := range e.world.Bots {
		snap.Bots[i] = *b
	}
	for i, f := range e.world.Foods {
		snap.Foods[i] = *f
	}
	return snap
}

func (e *Engine) sessionRef() logging.EntityRef {
	return logging.EntityRef{ID: string(e.kind), Kind: logging.EntityKindSession}
}

func teamName(t world.Team) string {
	if t == world.TeamNone {
		return ""
	}
	return t.String()
}

// tick is the working copy of one Step.
type tick struct {
	engine *Engine
	world  *world.World
	mode   modes.State
	state  sessionState
	in     Input
	dt     time.Duration
	now    time.Duration

	events []Event
	logs   []func(ctx context.Context, pub logging.Publisher)
	rules  map[string]int
}

func (t *tick) run() {
	e := t.engine
	t.state.tick++
	t.now = t.state.now + t.dt
	t.state.now = t.now
	frameScale := float64(t.dt) / float64(ReferenceFrame)

	t.decayPlayer()
	t.movePlayer(frameScale)

	idx := spatial.Build(t.world.Entities(), spatial.DefaultCellSize)
	t.moveBots(idx, frameScale)

	t.mode.Advance(t.dt)
	t.applyZone()
	t.keepInside()

	idx = spatial.Build(t.world.Entities(), spatial.DefaultCellSize)
	res := e.resolver.Resolve(t.world, idx, t.combatContext())
	t.applyResolution(res)
	t.keepInside()

	t.regenerateFood()
	t.trackSurvival()
	if !t.state.ended {
		if cause := t.mode.Victory(len(t.world.Bots), true); cause != modes.CauseNone {
			t.end(cause)
		}
	}
}

func (t *tick) decayPlayer() {
	p := t.world.Player
	p.Size, _ = growth.ApplyDecay(p.Size, t.engine.cfg.Player.MinSize, &t.state.decay, t.now, t.engine.growthParams)
}

// movePlayer moves the player along the input direction. Any movement counts
// as activity for decay.
func (t *tick) movePlayer(frameScale float64) {
	dir := t.in.Direction
	if dir.IsZero() || frameScale <= 0 {
		return
	}
	cfg := t.engine.cfg.Player
	p := t.world.Player
	slowdown := math.Max(cfg.MinSpeedFactor, 1-(p.Size-cfg.MinSize)/cfg.SlowdownRange)
	speed := cfg.BaseSpeed * (1 + t.in.Modifiers.SpeedBoost) * slowdown * frameScale
	p.X, p.Y = t.world.Bounds.Clamp(p.X+dir.X*speed, p.Y+dir.Y*speed, p.Size)
	t.state.decay.Reset(t.now)
}

func (t *tick) moveBots(idx *spatial.Index, frameScale float64) {
	e := t.engine
	mode := ai.ModeContextFrom(&t.mode, t.now)
	shielded := t.in.Modifiers.Shield.Active(t.now)
	for _, bot := range t.world.Bots {
		view := ai.View{
			Player:         t.world.Player,
			PlayerShielded: shielded,
			Mode:           mode,
		}
		for _, ent := range idx.QueryRadius(bot.X, bot.Y, e.perception) {
			switch ent.Kind {
			case world.KindFood:
				view.Foods = append(view.Foods, ent.Food)
			case world.KindBot:
				if ent.Bot.ID != bot.ID {
					view.Bots = append(view.Bots, ent.Bot)
				}
			case world.KindPlayer:
			}
		}
		decision := e.bots.Update(bot, view, frameScale, t.world.Bounds)
		t.rules[decision.Rule]++
	}
}

func (t *tick) applyZone() {
	if !t.mode.HasZone() {
		return
	}
	cfg := t.engine.cfg
	rate := cfg.Modes.ZoneDamageRate
	if p := t.world.Player; t.mode.OutsideZone(p.X, p.Y) {
		p.Size = growth.ZoneDamage(p.Size, cfg.Player.MinSize, t.dt, rate)
	}
	for _, b := range t.world.Bots {
		if t.mode.OutsideZone(b.X, b.Y) {
			b.Size = growth.ZoneDamage(b.Size, cfg.Bots.MinSize, t.dt, rate)
		}
	}
}

// keepInside pulls every blob back so its full extent stays in the world.
// Growth can push a stationary blob over a wall.
func (t *tick) keepInside() {
	b := t.world.Bounds
	if p := t.world.Player; p != nil {
		p.X, p.Y = b.Clamp(p.X, p.Y, p.Size)
	}
	for _, bot := range t.world.Bots {
		bot.X, bot.Y = b.Clamp(bot.X, bot.Y, bot.Size)
	}
}

func (t *tick) combatContext() combat.Context {
	mods := t.in.Modifiers
	ctx := combat.Context{
		PlayerShielded:      mods.Shield.Active(t.now),
		InstantKill:         mods.InstantKill,
		PointMultiplier:     mods.PointMultiplier,
		TemporaryMultiplier: 1,
	}
	if mods.DoublePoints.Active(t.now) {
		ctx.TemporaryMultiplier = 2
	}
	if t.mode.RespawnsBots() {
		e := t.engine
		ctx.Respawn = func(w *world.World) *world.Bot {
			team := world.TeamNone
			if t.mode.TeamsEnabled() {
				team = world.TeamA
				if world.RandomFloat(e.spawnRNG) > 0.5 {
					team = world.TeamB
				}
			}
			return w.SpawnBot(e.spawnRNG, e.spawnParams, team, t.now)
		}
	}
	return ctx
}

func (t *tick) applyResolution(res combat.Resolution) {
	e := t.engine
	p := t.world.Player
	playerRef := logging.Ref(logging.EntityKindPlayer, p.ID)
	tickNo := t.state.tick

	if res.PlayerFood > 0 {
		payload := predation.FoodEatenPayload{Count: res.PlayerFood, Growth: float64(res.PlayerFood) * e.cfg.Food.Growth, Size: p.Size}
		t.log(func(ctx context.Context, pub logging.Publisher) {
			predation.FoodEaten(ctx, pub, tickNo, playerRef, payload, nil)
		})
	}
	for _, pr := range res.Predations {
		preyRef := logging.Ref(logging.EntityKindBot, pr.Prey)
		if pr.PredatorKind != world.KindPlayer {
			predatorRef := logging.Ref(logging.EntityKindBot, pr.Predator)
			t.log(func(ctx context.Context, pub logging.Publisher) {
				predation.BotConsumed(ctx, pub, tickNo, predatorRef, preyRef, predation.ConsumedPayload{PreySize: pr.PreySize, Growth: pr.Growth}, nil)
			})
			continue
		}
		t.state.score += pr.Points
		total := t.state.score
		t.emit(Event{Kind: EventScore, Points: pr.Points, Score: total})
		t.emit(Event{Kind: EventChallengeProgress, Category: ChallengeEatBlobs, Amount: 1})
		t.log(func(ctx context.Context, pub logging.Publisher) {
			predation.PlayerConsumedBot(ctx, pub, tickNo, playerRef, preyRef, predation.ConsumedPayload{PreySize: pr.PreySize, Growth: pr.Growth, Points: pr.Points}, nil)
			progress.Score(ctx, pub, tickNo, playerRef, progress.ScorePayload{Points: pr.Points, Total: total}, nil)
			progress.Challenge(ctx, pub, tickNo, playerRef, progress.ChallengePayload{Challenge: ChallengeEatBlobs, Amount: 1}, nil)
		})
	}
	if !res.PlayerKilled {
		return
	}

	killerRef := logging.Ref(logging.EntityKindBot, res.Killer)
	var killerSize float64
	if k := t.world.Bot(res.Killer); k != nil {
		killerSize = k.Size
	}
	payload := predation.PlayerKilledPayload{KillerSize: killerSize, PlayerSize: p.Size}
	if t.in.Modifiers.AutoRevive && !t.state.reviveUsed {
		t.state.reviveUsed = true
		p.Size = e.cfg.Player.InitialSize
		payload.Revived = true
		t.emit(Event{Kind: EventRevived})
		t.log(func(ctx context.Context, pub logging.Publisher) {
			predation.PlayerKilled(ctx, pub, tickNo, killerRef, playerRef, payload, nil)
			session.Revived(ctx, pub, tickNo, playerRef, session.RevivedPayload{Size: e.cfg.Player.InitialSize}, nil)
		})
		return
	}
	t.log(func(ctx context.Context, pub logging.Publisher) {
		predation.PlayerKilled(ctx, pub, tickNo, killerRef, playerRef, payload, nil)
		progress.LifeConsumed(ctx, pub, tickNo, playerRef, nil)
	})
	t.emit(Event{Kind: EventLifeConsumed})
	t.end(modes.CauseDeath)
}

func (t *tick) regenerateFood() {
	e := t.engine
	if len(t.world.Foods) >= e.cfg.Food.RegenThreshold {
		return
	}
	for i := 0; i < e.cfg.Food.RegenBatch; i++ {
		t.world.SpawnFood(e.spawnRNG, e.spawnParams)
	}
}

// trackSurvival reports one survive_time increment per completed minute.
func (t *tick) trackSurvival() {
	minutes := int(t.now / time.Minute)
	if minutes <= t.state.survivedMinutes {
		return
	}
	amount := minutes - t.state.survivedMinutes
	t.state.survivedMinutes = minutes
	t.emit(Event{Kind: EventChallengeProgress, Category: ChallengeSurviveTime, Amount: amount})
	tickNo := t.state.tick
	ref := logging.Ref(logging.EntityKindPlayer, t.world.Player.ID)
	t.log(func(ctx context.Context, pub logging.Publisher) {
		progress.Challenge(ctx, pub, tickNo, ref, progress.ChallengePayload{Challenge: ChallengeSurviveTime, Amount: amount}, nil)
	})
}

func (t *tick) end(cause modes.Cause) {
	t.state.ended = true
	t.state.cause = cause
	t.emit(Event{Kind: EventSessionEnded, Cause: cause, Score: t.state.score})
	payload := session.EndedPayload{
		Cause:     string(cause),
		Score:     t.state.score,
		ElapsedMS: t.now.Milliseconds(),
		FinalSize: t.world.Player.Size,
	}
	tickNo := t.state.tick
	ref := t.engine.sessionRef()
	t.log(func(ctx context.Context, pub logging.Publisher) {
		session.Ended(ctx, pub, tickNo, ref, payload, nil)
	})
}

func (t *tick) emit(ev Event) {
	ev.Tick = t.state.tick
	t.events = append(t.events, ev)
}

func (t *tick) log(fn func(ctx context.Context, pub logging.Publisher)) {
	t.logs = append(t.logs, fn)
}

// flush hands the committed tick's events to the outside world.
func (t *tick) flush() {
	deps := t.engine.deps
	ctx := context.Background()
	for _, fn := range t.logs {
		fn(ctx, deps.Publisher)
	}
	for _, ev := range t.events {
		deps.Reporter.Report(ev)
	}
}
