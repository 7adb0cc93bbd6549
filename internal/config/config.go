// Package config holds the arena's tunables: world size, session defaults,
// the growth economy, bot behaviour, mode rules and the process surface.
// Values load from YAML and may be overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bobblez1/blob2/internal/ai"
	"github.com/bobblez1/blob2/internal/combat"
	"github.com/bobblez1/blob2/internal/growth"
	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/observability"
	"github.com/bobblez1/blob2/internal/world"
	"github.com/bobblez1/blob2/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Seed       string `yaml:"seed" json:"seed" jsonschema:"description=Seed for every random stream of a session"`
	Mode       string `yaml:"mode" json:"mode" jsonschema:"enum=classic,enum=time_attack,enum=battle_royale,enum=team,description=Game mode"`
	Team       string `yaml:"team" json:"team,omitempty" jsonschema:"enum=,enum=red,enum=blue,description=Player team in team mode"`
	PlayerName string `yaml:"playerName" json:"playerName"`

	World     WorldConfig     `yaml:"world" json:"world"`
	Tick      TickConfig      `yaml:"tick" json:"tick"`
	Player    PlayerConfig    `yaml:"player" json:"player"`
	Bots      BotConfig       `yaml:"bots" json:"bots"`
	Food      FoodConfig      `yaml:"food" json:"food"`
	Decay     DecayConfig     `yaml:"decay" json:"decay"`
	Predation PredationConfig `yaml:"predation" json:"predation"`
	Modes     ModesConfig     `yaml:"modes" json:"modes"`
	Modifiers ModifiersConfig `yaml:"modifiers" json:"modifiers"`

	Server        ServerConfig         `yaml:"server" json:"server"`
	Logging       LoggingConfig        `yaml:"logging" json:"logging"`
	Observability observability.Config `yaml:"observability" json:"observability"`
}

type WorldConfig struct {
	Width  float64 `yaml:"width" json:"width" jsonschema:"exclusiveMinimum=0"`
	Height float64 `yaml:"height" json:"height" jsonschema:"exclusiveMinimum=0"`
}

type TickConfig struct {
	Rate            int `yaml:"rate" json:"rate" jsonschema:"minimum=1,description=Ticks per second"`
	CatchupMaxTicks int `yaml:"catchupMaxTicks" json:"catchupMaxTicks" jsonschema:"minimum=1,description=Largest dt a single tick may absorb in tick budgets"`
}

type PlayerConfig struct {
	InitialSize    float64 `yaml:"initialSize" json:"initialSize"`
	MinSize        float64 `yaml:"minSize" json:"minSize"`
	BaseSpeed      float64 `yaml:"baseSpeed" json:"baseSpeed"`
	MinSpeedFactor float64 `yaml:"minSpeedFactor" json:"minSpeedFactor"`
	SlowdownRange  float64 `yaml:"slowdownRange" json:"slowdownRange" jsonschema:"description=Size growth over which speed falls to the minimum factor"`
}

type BotConfig struct {
	Classic      int `yaml:"classic" json:"classic"`
	TimeAttack   int `yaml:"timeAttack" json:"timeAttack"`
	BattleRoyale int `yaml:"battleRoyale" json:"battleRoyale"`
	Team         int `yaml:"team" json:"team"`

	MinSize        float64 `yaml:"minSize" json:"minSize"`
	MaxInitialSize float64 `yaml:"maxInitialSize" json:"maxInitialSize"`
	BaseSpeed      float64 `yaml:"baseSpeed" json:"baseSpeed"`
	MinSpeed       float64 `yaml:"minSpeed" json:"minSpeed"`

	DetectionRange float64 `yaml:"detectionRange" json:"detectionRange"`
	ChaseRange     float64 `yaml:"chaseRange" json:"chaseRange"`
	AvoidRange     float64 `yaml:"avoidRange" json:"avoidRange"`
	ZoneBuffer     float64 `yaml:"zoneBuffer" json:"zoneBuffer"`

	DecisionInterval Duration `yaml:"decisionInterval" json:"decisionInterval"`
	WanderPersist    Duration `yaml:"wanderPersist" json:"wanderPersist"`
	WanderChance     float64  `yaml:"wanderChance" json:"wanderChance" jsonschema:"minimum=0,maximum=1"`
}

type FoodConfig struct {
	InitialCount   int     `yaml:"initialCount" json:"initialCount"`
	RegenThreshold int     `yaml:"regenThreshold" json:"regenThreshold"`
	RegenBatch     int     `yaml:"regenBatch" json:"regenBatch"`
	MinSize        float64 `yaml:"minSize" json:"minSize"`
	MaxSize        float64 `yaml:"maxSize" json:"maxSize"`
	Growth         float64 `yaml:"growth" json:"growth"`
	BotFactor      float64 `yaml:"botFactor" json:"botFactor"`
	Color          string  `yaml:"color" json:"color,omitempty" jsonschema:"description=Fixed pellet colour; empty picks from the palette"`
}

type DecayConfig struct {
	Interval Duration `yaml:"interval" json:"interval"`
	Amount   float64  `yaml:"amount" json:"amount"`
}

type PredationConfig struct {
	GrowthMultiplier float64 `yaml:"growthMultiplier" json:"growthMultiplier"`
}

type ModesConfig struct {
	TimeLimit      Duration `yaml:"timeLimit" json:"timeLimit"`
	ShrinkRate     float64  `yaml:"shrinkRate" json:"shrinkRate" jsonschema:"description=Safe radius lost per second in battle royale"`
	MinRadius      float64  `yaml:"minRadius" json:"minRadius"`
	ZoneDamageRate float64  `yaml:"zoneDamageRate" json:"zoneDamageRate" jsonschema:"description=Size lost per second outside the safe zone"`
}

// ModifiersConfig seeds the permanent modifiers of a session.
type ModifiersConfig struct {
	SpeedBoost      float64 `yaml:"speedBoost" json:"speedBoost"`
	PointMultiplier float64 `yaml:"pointMultiplier" json:"pointMultiplier"`
	InstantKill     bool    `yaml:"instantKill" json:"instantKill"`
	AutoRevive      bool    `yaml:"autoRevive" json:"autoRevive"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr" json:"addr"`
	BroadcastEvery int    `yaml:"broadcastEvery" json:"broadcastEvery" jsonschema:"minimum=1,description=Ticks between spectator snapshots"`
}

type LoggingConfig struct {
	Sinks           []string `yaml:"sinks" json:"sinks" jsonschema:"description=Enabled sinks: console or json"`
	JSONPath        string   `yaml:"jsonPath" json:"jsonPath,omitempty"`
	MinimumSeverity string   `yaml:"minimumSeverity" json:"minimumSeverity" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	BufferSize      int      `yaml:"bufferSize" json:"bufferSize"`
}

// Default returns the reference tuning.
func Default() Config {
	return Config{
		Seed:       world.DefaultSeed,
		Mode:       string(modes.Classic),
		PlayerName: "Player",
		World:      WorldConfig{Width: world.DefaultWidth, Height: world.DefaultHeight},
		Tick:       TickConfig{Rate: 60, CatchupMaxTicks: 4},
		Player: PlayerConfig{
			InitialSize:    20,
			MinSize:        20,
			BaseSpeed:      2.5,
			MinSpeedFactor: 0.3,
			SlowdownRange:  200,
		},
		Bots: BotConfig{
			Classic:          15,
			TimeAttack:       15,
			BattleRoyale:     20,
			Team:             10,
			MinSize:          10,
			MaxInitialSize:   40,
			BaseSpeed:        1.5,
			MinSpeed:         0.5,
			DetectionRange:   150,
			ChaseRange:       100,
			AvoidRange:       80,
			ZoneBuffer:       50,
			DecisionInterval: Duration(150 * time.Millisecond),
			WanderPersist:    Duration(3 * time.Second),
			WanderChance:     0.02,
		},
		Food: FoodConfig{
			InitialCount:   200,
			RegenThreshold: 150,
			RegenBatch:     30,
			MinSize:        2,
			MaxSize:        6,
			Growth:         0.3,
			BotFactor:      0.7,
		},
		Decay:     DecayConfig{Interval: Duration(2 * time.Second), Amount: 0.5},
		Predation: PredationConfig{GrowthMultiplier: 0.1},
		Modes: ModesConfig{
			TimeLimit:      Duration(180 * time.Second),
			ShrinkRate:     2,
			MinRadius:      100,
			ZoneDamageRate: 30,
		},
		Modifiers: ModifiersConfig{PointMultiplier: 1},
		Server:    ServerConfig{Addr: ":8080", BroadcastEvery: 3},
		Logging: LoggingConfig{
			Sinks:           []string{logging.SinkConsole},
			MinimumSeverity: "info",
			BufferSize:      512,
		},
	}
}

// Normalized trims strings, canonicalises the mode spelling and fills
// zero-valued fields that have no meaningful zero with defaults.
func (c Config) Normalized() Config {
	def := Default()
	n := c
	n.Seed = strings.TrimSpace(n.Seed)
	if n.Seed == "" {
		n.Seed = def.Seed
	}
	n.Mode = strings.TrimSpace(n.Mode)
	if n.Mode == "" {
		n.Mode = def.Mode
	} else if kind, err := modes.Parse(n.Mode); err == nil {
		n.Mode = string(kind)
	}
	n.Team = strings.ToLower(strings.TrimSpace(n.Team))
	if strings.TrimSpace(n.PlayerName) == "" {
		n.PlayerName = def.PlayerName
	}
	if n.Tick.Rate == 0 {
		n.Tick.Rate = def.Tick.Rate
	}
	if n.Tick.CatchupMaxTicks == 0 {
		n.Tick.CatchupMaxTicks = def.Tick.CatchupMaxTicks
	}
	if n.Modifiers.PointMultiplier == 0 {
		n.Modifiers.PointMultiplier = 1
	}
	if n.Server.BroadcastEvery == 0 {
		n.Server.BroadcastEvery = def.Server.BroadcastEvery
	}
	if n.Logging.MinimumSeverity == "" {
		n.Logging.MinimumSeverity = def.Logging.MinimumSeverity
	}
	if n.Logging.BufferSize == 0 {
		n.Logging.BufferSize = def.Logging.BufferSize
	}
	return n
}

// Validate reports the first invalid field, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if _, err := modes.Parse(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := world.ParseTeam(c.Team); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := logging.ParseSeverity(c.Logging.MinimumSeverity); err != nil {
		return fmt.Errorf("%w: logging.minimumSeverity: %w", ErrInvalid, err)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"world.width", c.World.Width},
		{"world.height", c.World.Height},
		{"tick.rate", float64(c.Tick.Rate)},
		{"tick.catchupMaxTicks", float64(c.Tick.CatchupMaxTicks)},
		{"player.initialSize", c.Player.InitialSize},
		{"player.minSize", c.Player.MinSize},
		{"player.baseSpeed", c.Player.BaseSpeed},
		{"bots.minSize", c.Bots.MinSize},
		{"bots.baseSpeed", c.Bots.BaseSpeed},
		{"food.minSize", c.Food.MinSize},
		{"food.maxSize", c.Food.MaxSize},
		{"decay.interval", float64(c.Decay.Interval)},
		{"bots.decisionInterval", float64(c.Bots.DecisionInterval)},
		{"modes.timeLimit", float64(c.Modes.TimeLimit)},
		{"server.broadcastEvery", float64(c.Server.BroadcastEvery)},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, p.name, p.value)
		}
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"bots.classic", float64(c.Bots.Classic)},
		{"bots.timeAttack", float64(c.Bots.TimeAttack)},
		{"bots.battleRoyale", float64(c.Bots.BattleRoyale)},
		{"bots.team", float64(c.Bots.Team)},
		{"bots.maxInitialSize", c.Bots.MaxInitialSize},
		{"bots.minSpeed", c.Bots.MinSpeed},
		{"bots.wanderChance", c.Bots.WanderChance},
		{"food.initialCount", float64(c.Food.InitialCount)},
		{"food.regenThreshold", float64(c.Food.RegenThreshold)},
		{"food.regenBatch", float64(c.Food.RegenBatch)},
		{"food.growth", c.Food.Growth},
		{"food.botFactor", c.Food.BotFactor},
		{"decay.amount", c.Decay.Amount},
		{"predation.growthMultiplier", c.Predation.GrowthMultiplier},
		{"modes.shrinkRate", c.Modes.ShrinkRate},
		{"modes.minRadius", c.Modes.MinRadius},
		{"modes.zoneDamageRate", c.Modes.ZoneDamageRate},
		{"modifiers.speedBoost", c.Modifiers.SpeedBoost},
	}
	for _, p := range nonNegative {
		if p.value < 0 || math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalid, p.name, p.value)
		}
	}
	if c.Food.MaxSize < c.Food.MinSize {
		return fmt.Errorf("%w: food.maxSize %v below food.minSize %v", ErrInvalid, c.Food.MaxSize, c.Food.MinSize)
	}
	if c.Player.InitialSize < c.Player.MinSize {
		return fmt.Errorf("%w: player.initialSize %v below player.minSize %v", ErrInvalid, c.Player.InitialSize, c.Player.MinSize)
	}
	if c.Modifiers.PointMultiplier < 1 || math.IsNaN(c.Modifiers.PointMultiplier) {
		return fmt.Errorf("%w: modifiers.pointMultiplier must be at least 1, got %v", ErrInvalid, c.Modifiers.PointMultiplier)
	}
	for _, sink := range c.Logging.Sinks {
		switch sink {
		case logging.SinkConsole, logging.SinkJSON:
		default:
			return fmt.Errorf("%w: unknown logging sink %q", ErrInvalid, sink)
		}
	}
	return nil
}

// ModeKind returns the parsed mode. Call Validate first.
func (c Config) ModeKind() modes.Kind {
	kind, err := modes.Parse(c.Mode)
	if err != nil {
		return modes.Classic
	}
	return kind
}

// PlayerTeam returns the parsed player team. Call Validate first.
func (c Config) PlayerTeam() world.Team {
	team, _ := world.ParseTeam(c.Team)
	return team
}

// Bounds returns the world rectangle.
func (c Config) Bounds() world.Bounds {
	return world.Bounds{Width: c.World.Width, Height: c.World.Height}
}

// TickInterval is the wall time between loop ticks.
func (c Config) TickInterval() time.Duration {
	if c.Tick.Rate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Tick.Rate)
}

// BotCount returns the initial bot population for kind.
func (c Config) BotCount(kind modes.Kind) int {
	switch kind {
	case modes.TimeAttack:
		return c.Bots.TimeAttack
	case modes.BattleRoyale:
		return c.Bots.BattleRoyale
	case modes.Team:
		return c.Bots.Team
	default:
		return c.Bots.Classic
	}
}

func (c Config) AIParams() ai.Params {
	p := ai.DefaultParams()
	p.BaseSpeed = c.Bots.BaseSpeed
	p.MinSpeed = c.Bots.MinSpeed
	p.MinSize = c.Bots.MinSize
	p.DetectionRange = c.Bots.DetectionRange
	p.ChaseRange = c.Bots.ChaseRange
	p.AvoidRange = c.Bots.AvoidRange
	p.ZoneBuffer = c.Bots.ZoneBuffer
	p.DecisionInterval = c.Bots.DecisionInterval.Std()
	p.WanderPersist = c.Bots.WanderPersist.Std()
	p.WanderChance = c.Bots.WanderChance
	return p
}

func (c Config) CombatParams() combat.Params {
	p := combat.DefaultParams()
	p.FoodGrowth = c.Food.Growth
	p.BotFoodFactor = c.Food.BotFactor
	p.PredationGrowth = c.Predation.GrowthMultiplier
	return p
}

func (c Config) GrowthParams() growth.Params {
	return growth.Params{Interval: c.Decay.Interval.Std(), Amount: c.Decay.Amount}
}

func (c Config) ModeParams() modes.Params {
	p := modes.DefaultParams(c.Bounds())
	p.TimeLimit = c.Modes.TimeLimit.Std()
	p.ShrinkRate = c.Modes.ShrinkRate
	p.MinRadius = c.Modes.MinRadius
	return p
}

func (c Config) SpawnParams() world.SpawnParams {
	return world.SpawnParams{
		BotMinSize:        c.Bots.MinSize,
		BotMaxInitialSize: c.Bots.MaxInitialSize,
		FoodMinSize:       c.Food.MinSize,
		FoodMaxSize:       c.Food.MaxSize,
		FoodColor:         c.Food.Color,
	}
}

// RouterConfig converts the logging section for logging.NewRouter.
func (c Config) RouterConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if len(c.Logging.Sinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), c.Logging.Sinks...)
	}
	if sev, err := logging.ParseSeverity(c.Logging.MinimumSeverity); err == nil {
		cfg.MinimumSeverity = sev
	}
	if c.Logging.BufferSize > 0 {
		cfg.BufferSize = c.Logging.BufferSize
	}
	cfg.JSON.FilePath = c.Logging.JSONPath
	return cfg
}
