// Package combat resolves contacts between blobs after movement: food
// pickups, bot predation and the player's fights with bots.
package combat

import (
	"math"

	"github.com/bobblez1/blob2/internal/growth"
	"github.com/bobblez1/blob2/internal/spatial"
	"github.com/bobblez1/blob2/internal/world"
)

// Params tunes the growth economy.
type Params struct {
	FoodGrowth       float64
	BotFoodFactor    float64
	PredationGrowth  float64
	PointsSizeFactor float64
}

// DefaultParams returns the reference growth economy.
func DefaultParams() Params {
	return Params{
		FoodGrowth:       0.3,
		BotFoodFactor:    0.7,
		PredationGrowth:  0.1,
		PointsSizeFactor: 0.5,
	}
}

// Context carries the per-tick player state that gates combat.
type Context struct {
	PlayerShielded bool
	InstantKill    bool
	// PointMultiplier is permanent; TemporaryMultiplier comes from timed
	// effects. Both are expected to be >= 1.
	PointMultiplier     float64
	TemporaryMultiplier float64
	// Respawn, when set, is called once per bot eaten by the player to add a
	// replacement after the player pass completes.
	Respawn func(w *world.World) *world.Bot
}

// Predation records one blob consuming another.
type Predation struct {
	Predator     world.EntityID
	PredatorKind world.Kind
	Prey         world.EntityID
	PreyKind     world.Kind
	PreySize     float64
	Growth       float64
	Points       int
}

// Resolution summarises everything a Resolve pass changed.
type Resolution struct {
	PlayerFood   int
	PlayerGrowth float64
	BotFood      int

	RemovedFoods world.IDSet
	RemovedBots  world.IDSet
	Predations   []Predation
	Spawned      []*world.Bot

	Points       int
	PlayerKilled bool
	Killer       world.EntityID
}

// PlayerKills returns the predations where the player was the predator.
func (r Resolution) PlayerKills() []Predation {
	var out []Predation
	for _, p := range r.Predations {
		if p.PredatorKind == world.KindPlayer {
			out = append(out, p)
		}
	}
	return out
}

// Resolver applies the contact rules to a world.
type Resolver struct {
	params Params
}

// NewResolver constructs a resolver.
func NewResolver(params Params) *Resolver {
	return &Resolver{params: params}
}

// Resolve runs the four contact passes in order against w, mutating it. idx
// must have been built from w's current positions; a nil idx builds one.
// The player pass stops at the first contact that kills the player.
func (r *Resolver) Resolve(w *world.World, idx *spatial.Index, ctx Context) Resolution {
	if idx == nil {
		idx = spatial.Build(w.Entities(), spatial.DefaultCellSize)
	}
	res := Resolution{
		RemovedFoods: world.IDSet{},
		RemovedBots:  world.IDSet{},
	}

	r.playerFood(w, idx, &res)
	r.botFood(w, idx, &res)
	r.botPredation(w, idx, &res)
	r.playerFights(w, idx, ctx, &res)

	w.RemoveFoods(res.RemovedFoods)
	w.RemoveBots(res.RemovedBots)
	if ctx.Respawn != nil {
		for range res.PlayerKills() {
			if b := ctx.Respawn(w); b != nil {
				res.Spawned = append(res.Spawned, b)
			}
		}
	}
	return res
}

func (r *Resolver) playerFood(w *world.World, idx *spatial.Index, res *Resolution) {
	p := w.Player
	if p == nil {
		return
	}
	for _, e := range idx.QueryNear(p.X, p.Y) {
		if e.Kind != world.KindFood || res.RemovedFoods.Has(e.Food.ID) {
			continue
		}
		if world.Overlaps(&p.Blob, &e.Food.Blob) {
			res.RemovedFoods.Add(e.Food.ID)
			res.PlayerFood++
		}
	}
	if res.PlayerFood > 0 {
		res.PlayerGrowth += float64(res.PlayerFood) * r.params.FoodGrowth
		p.Size = growth.ApplyGrowth(p.Size, float64(res.PlayerFood)*r.params.FoodGrowth)
	}
}

func (r *Resolver) botFood(w *world.World, idx *spatial.Index, res *Resolution) {
	per := r.params.FoodGrowth * r.params.BotFoodFactor
	for _, bot := range w.Bots {
		eaten := 0
		for _, e := range idx.QueryNear(bot.X, bot.Y) {
			if e.Kind != world.KindFood || res.RemovedFoods.Has(e.Food.ID) {
				continue
			}
			if world.Overlaps(&bot.Blob, &e.Food.Blob) {
				res.RemovedFoods.Add(e.Food.ID)
				eaten++
			}
		}
		bot.Size = growth.ApplyGrowth(bot.Size, float64(eaten)*per)
		res.BotFood += eaten
	}
}

func (r *Resolver) botPredation(w *world.World, idx *spatial.Index, res *Resolution) {
	for _, bot := range w.Bots {
		if res.RemovedBots.Has(bot.ID) {
			continue
		}
		gained := 0.0
		for _, e := range idx.QueryNear(bot.X, bot.Y) {
			if e.Kind != world.KindBot {
				continue
			}
			prey := e.Bot
			if prey.ID == bot.ID || res.RemovedBots.Has(prey.ID) {
				continue
			}
			if world.SameTeam(bot.Team, prey.Team) || bot.Size <= prey.Size {
				continue
			}
			if !world.Overlaps(&bot.Blob, &prey.Blob) {
				continue
			}
			g := prey.Size * r.params.PredationGrowth
			gained += g
			res.RemovedBots.Add(prey.ID)
			res.Predations = append(res.Predations, Predation{
				Predator:     bot.ID,
				PredatorKind: world.KindBot,
				Prey:         prey.ID,
				PreyKind:     world.KindBot,
				PreySize:     prey.Size,
				Growth:       g,
			})
		}
		bot.Size = growth.ApplyGrowth(bot.Size, gained)
	}
}

func (r *Resolver) playerFights(w *world.World, idx *spatial.Index, ctx Context, res *Resolution) {
	p := w.Player
	if p == nil {
		return
	}
	mult := multiplier(ctx.PointMultiplier) * multiplier(ctx.TemporaryMultiplier)
	for _, e := range idx.QueryRadius(p.X, p.Y, p.Size/2+idx.CellSize()) {
		if e.Kind != world.KindBot {
			continue
		}
		bot := e.Bot
		if res.RemovedBots.Has(bot.ID) || world.SameTeam(p.Team, bot.Team) {
			continue
		}
		if !world.Overlaps(&p.Blob, &bot.Blob) {
			continue
		}
		if p.Size > bot.Size || ctx.InstantKill {
			points := int(math.Floor(math.Floor(bot.Size*r.params.PointsSizeFactor) * mult))
			g := bot.Size * r.params.PredationGrowth
			p.Size = growth.ApplyGrowth(p.Size, g)
			res.PlayerGrowth += g
			res.Points += points
			res.RemovedBots.Add(bot.ID)
			res.Predations = append(res.Predations, Predation{
				Predator:     p.ID,
				PredatorKind: world.KindPlayer,
				Prey:         bot.ID,
				PreyKind:     world.KindBot,
				PreySize:     bot.Size,
				Growth:       g,
				Points:       points,
			})
			continue
		}
		if !ctx.PlayerShielded && bot.Size > p.Size {
			res.PlayerKilled = true
			res.Killer = bot.ID
			return
		}
	}
}

func multiplier(m float64) float64 {
	if m < 1 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	return m
}
