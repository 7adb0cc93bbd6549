package world

import (
	"math/rand"
	"time"
)

var (
	// FoodColors is the palette used when food colour is randomised.
	FoodColors = []string{"#DC2626", "#EA580C", "#CA8A04", "#16A34A", "#2563EB", "#9333EA", "#DB2777"}
	// BotColors is the palette for bots outside Team mode.
	BotColors = []string{"#EF4444", "#10B981", "#F59E0B", "#8B5CF6", "#EC4899", "#06B6D4", "#84CC16"}
	// BotNames is the pool bot names are drawn from.
	BotNames = []string{"Alpha", "Beta", "Gamma", "Delta", "Omega", "Sigma", "Theta", "Zeta", "Kappa", "Lambda"}
)

// TeamColor returns the display colour of a team.
func TeamColor(t Team) string {
	switch t {
	case TeamA:
		return "#EF4444"
	case TeamB:
		return "#3B82F6"
	default:
		return ""
	}
}

// SpawnParams tunes the initial state of spawned bots and food.
type SpawnParams struct {
	BotMinSize        float64
	BotMaxInitialSize float64
	FoodMinSize       float64
	FoodMaxSize       float64
	// FoodColor pins every pellet to one colour; empty picks from FoodColors.
	FoodColor string
}

// DefaultSpawnParams mirrors the reference tuning.
func DefaultSpawnParams() SpawnParams {
	return SpawnParams{
		BotMinSize:        10,
		BotMaxInitialSize: 40,
		FoodMinSize:       2,
		FoodMaxSize:       6,
	}
}

// SpawnBot adds a bot at a random position. The session clock value now seeds
// the bot's decision and wander timestamps.
func (w *World) SpawnBot(rng *rand.Rand, params SpawnParams, team Team, now time.Duration) *Bot {
	size := params.BotMinSize + RandomFloat(rng)*params.BotMaxInitialSize
	x, y := w.randomPosition(rng, size)
	color := TeamColor(team)
	if color == "" {
		color = pick(rng, BotColors)
	}
	heading := Vec{X: (RandomFloat(rng) - 0.5) * 2, Y: (RandomFloat(rng) - 0.5) * 2}
	bot := &Bot{
		Blob:             Blob{X: x, Y: y, Size: size, Color: color},
		Name:             pick(rng, BotNames),
		Team:             team,
		VX:               heading.X,
		VY:               heading.Y,
		Heading:          heading,
		Aggression:       0.5 + RandomFloat(rng)*0.5,
		LastDecision:     now,
		LastWanderChange: now,
	}
	return w.AddBot(bot)
}

// SpawnFood adds one pellet at a random position.
func (w *World) SpawnFood(rng *rand.Rand, params SpawnParams) *Food {
	size := RandomRange(rng, params.FoodMinSize, params.FoodMaxSize)
	x, y := w.randomPosition(rng, size)
	color := params.FoodColor
	if color == "" {
		color = pick(rng, FoodColors)
	}
	return w.AddFood(&Food{Blob: Blob{X: x, Y: y, Size: size, Color: color}})
}

func (w *World) randomPosition(rng *rand.Rand, size float64) (float64, float64) {
	x := RandomFloat(rng) * w.Bounds.Width
	y := RandomFloat(rng) * w.Bounds.Height
	return w.Bounds.Clamp(x, y, size)
}

func pick(rng *rand.Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[int(RandomFloat(rng)*float64(len(options)))%len(options)]
}
