package combat

import (
	"math"
	"testing"

	"github.com/bobblez1/blob2/internal/world"
)

func newWorld(playerSize float64, team world.Team) *world.World {
	w := world.New(world.Bounds{Width: 1000, Height: 1500})
	w.PlacePlayer("you", playerSize, team, "#fff")
	return w
}

func addBot(w *world.World, x, y, size float64, team world.Team) *world.Bot {
	return w.AddBot(&world.Bot{Blob: world.Blob{X: x, Y: y, Size: size}, Team: team, Aggression: 1})
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlayerEatsSmallerBot(t *testing.T) {
	w := newWorld(20, world.TeamNone)
	p := w.Player
	bot := addBot(w, p.X+5, p.Y, 15, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{PointMultiplier: 1, TemporaryMultiplier: 1})
	if !closeTo(p.Size, 21.5) {
		t.Fatalf("expected player size 21.5, got %f", p.Size)
	}
	if res.Points != 7 {
		t.Fatalf("expected 7 points, got %d", res.Points)
	}
	if !res.RemovedBots.Has(bot.ID) || len(w.Bots) != 0 {
		t.Fatalf("expected bot removed, remaining %d", len(w.Bots))
	}
	kills := res.PlayerKills()
	if len(kills) != 1 || kills[0].Prey != bot.ID || kills[0].Points != 7 {
		t.Fatalf("expected one player predation, got %+v", kills)
	}
}

func TestPointMultipliersCompound(t *testing.T) {
	w := newWorld(20, world.TeamNone)
	addBot(w, w.Player.X+5, w.Player.Y, 15, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{PointMultiplier: 2, TemporaryMultiplier: 2})
	if res.Points != 28 {
		t.Fatalf("expected 7*2*2 points, got %d", res.Points)
	}
}

func TestLargerBotKillsPlayer(t *testing.T) {
	w := newWorld(10, world.TeamNone)
	bot := addBot(w, w.Player.X+5, w.Player.Y, 20, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{})
	if !res.PlayerKilled || res.Killer != bot.ID {
		t.Fatalf("expected player killed by %s, got %+v", bot.ID, res)
	}
	if len(w.Bots) != 1 {
		t.Fatalf("killer must survive, got %d bots", len(w.Bots))
	}
}

func TestShieldPreventsDeath(t *testing.T) {
	w := newWorld(10, world.TeamNone)
	addBot(w, w.Player.X+5, w.Player.Y, 20, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{PlayerShielded: true})
	if res.PlayerKilled {
		t.Fatalf("shielded player must survive")
	}
	if w.Player.Size != 10 || len(w.Bots) != 1 {
		t.Fatalf("shield should not change sizes or bots")
	}
}

func TestInstantKillEatsLargerBot(t *testing.T) {
	w := newWorld(10, world.TeamNone)
	addBot(w, w.Player.X+5, w.Player.Y, 20, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{InstantKill: true})
	if res.PlayerKilled {
		t.Fatalf("instant kill should win the contact")
	}
	if res.Points != 10 || !closeTo(w.Player.Size, 12) {
		t.Fatalf("expected 10 points and size 12, got %d and %f", res.Points, w.Player.Size)
	}
}

func TestSameTeamContactIsNoop(t *testing.T) {
	w := newWorld(20, world.TeamA)
	addBot(w, w.Player.X+5, w.Player.Y, 15, world.TeamA)
	addBot(w, w.Player.X+5, w.Player.Y+60, 40, world.TeamA)
	addBot(w, w.Player.X+5, w.Player.Y+62, 12, world.TeamA)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{})
	if len(res.Predations) != 0 || res.PlayerKilled {
		t.Fatalf("teammates must never consume each other, got %+v", res.Predations)
	}
	if len(w.Bots) != 3 {
		t.Fatalf("expected all bots kept, got %d", len(w.Bots))
	}
}

func TestFoodGrowthIsSummed(t *testing.T) {
	w := newWorld(20, world.TeamNone)
	p := w.Player
	w.AddFood(&world.Food{Blob: world.Blob{X: p.X + 5, Y: p.Y, Size: 4}})
	w.AddFood(&world.Food{Blob: world.Blob{X: p.X - 8, Y: p.Y, Size: 4}})
	w.AddFood(&world.Food{Blob: world.Blob{X: p.X + 40, Y: p.Y, Size: 4}})
	bot := addBot(w, 300, 300, 20, world.TeamNone)
	w.AddFood(&world.Food{Blob: world.Blob{X: 303, Y: 300, Size: 2}})

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{})
	if res.PlayerFood != 2 || !closeTo(p.Size, 20.6) {
		t.Fatalf("expected 2 foods and size 20.6, got %d and %f", res.PlayerFood, p.Size)
	}
	if res.BotFood != 1 || !closeTo(bot.Size, 20.21) {
		t.Fatalf("expected bot food growth 0.21, got size %f", bot.Size)
	}
	if len(w.Foods) != 1 {
		t.Fatalf("expected one uneaten food, got %d", len(w.Foods))
	}
}

func TestBotEatsSmallerBot(t *testing.T) {
	w := newWorld(20, world.TeamNone)
	big := addBot(w, 300, 300, 30, world.TeamNone)
	small := addBot(w, 310, 300, 20, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{})
	if !res.RemovedBots.Has(small.ID) || res.RemovedBots.Has(big.ID) {
		t.Fatalf("expected only the smaller bot removed")
	}
	if !closeTo(big.Size, 32) {
		t.Fatalf("expected predator size 32, got %f", big.Size)
	}
}

func TestEqualBotsDoNotEat(t *testing.T) {
	w := newWorld(20, world.TeamNone)
	addBot(w, 300, 300, 20, world.TeamNone)
	addBot(w, 305, 300, 20, world.TeamNone)

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{})
	if len(res.Predations) != 0 {
		t.Fatalf("equal sizes must not consume, got %d", len(res.Predations))
	}
}

func TestRespawnReplacesPlayerKills(t *testing.T) {
	w := newWorld(30, world.TeamNone)
	addBot(w, w.Player.X+8, w.Player.Y, 10, world.TeamNone)
	addBot(w, w.Player.X-8, w.Player.Y, 12, world.TeamNone)
	rng := world.NewDeterministicRNG("combat", "spawn")

	res := NewResolver(DefaultParams()).Resolve(w, nil, Context{
		Respawn: func(w *world.World) *world.Bot {
			return w.SpawnBot(rng, world.DefaultSpawnParams(), world.TeamNone, 0)
		},
	})
	if len(res.PlayerKills()) != 2 || len(res.Spawned) != 2 {
		t.Fatalf("expected two kills and two replacements, got %d and %d", len(res.PlayerKills()), len(res.Spawned))
	}
	if len(w.Bots) != 2 {
		t.Fatalf("population should be maintained, got %d", len(w.Bots))
	}
	for _, b := range res.Spawned {
		if res.RemovedBots.Has(b.ID) {
			t.Fatalf("replacement reused a removed id %s", b.ID)
		}
	}
}
