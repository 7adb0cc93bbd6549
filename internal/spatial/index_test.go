package spatial

import (
	"testing"

	"github.com/bobblez1/blob2/internal/world"
)

func containsID(entities []world.Entity, id world.EntityID) bool {
	for _, e := range entities {
		if e.ID() == id {
			return true
		}
	}
	return false
}

func TestQueryNearReturnsThreeByThreeBlock(t *testing.T) {
	near := &world.Food{Blob: world.Blob{ID: 1, X: 150, Y: 150, Size: 4}}
	diagonal := &world.Food{Blob: world.Blob{ID: 2, X: 250, Y: 250, Size: 4}}
	far := &world.Food{Blob: world.Blob{ID: 3, X: 350, Y: 150, Size: 4}}
	idx := Build([]world.Entity{world.FoodEntity(near), world.FoodEntity(diagonal), world.FoodEntity(far)}, 100)

	got := idx.QueryNear(150, 150)
	if !containsID(got, 1) || !containsID(got, 2) {
		t.Fatalf("expected neighbours 1 and 2, got %d entities", len(got))
	}
	if containsID(got, 3) {
		t.Fatalf("entity two cells away should not be returned")
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 indexed entities, got %d", idx.Len())
	}
}

func TestOverlappingPairsAreAlwaysCoLocated(t *testing.T) {
	rng := world.NewDeterministicRNG("spatial", "pairs")
	w := world.New(world.Bounds{Width: 1000, Height: 1000})
	params := world.DefaultSpawnParams()
	for i := 0; i < 300; i++ {
		w.SpawnFood(rng, params)
		if i%3 == 0 {
			w.SpawnBot(rng, params, world.TeamNone, 0)
		}
	}
	// One oversized bot forces the cell to widen.
	w.AddBot(&world.Bot{Blob: world.Blob{X: 500, Y: 500, Size: 260}})

	entities := w.Entities()
	idx := Build(entities, DefaultCellSize)
	if idx.CellSize() < 260 {
		t.Fatalf("expected cell size widened to the largest diameter, got %f", idx.CellSize())
	}
	for _, a := range entities {
		candidates := idx.QueryNear(a.Blob().X, a.Blob().Y)
		for _, b := range entities {
			if a.ID() == b.ID() || !world.Overlaps(a.Blob(), b.Blob()) {
				continue
			}
			if !containsID(candidates, b.ID()) {
				t.Fatalf("overlapping %d missing from neighbours of %d", b.ID(), a.ID())
			}
		}
	}
}

func TestQueryRadiusCoversRangesBeyondOneCell(t *testing.T) {
	origin := &world.Bot{Blob: world.Blob{ID: 1, X: 50, Y: 50, Size: 10}}
	target := &world.Food{Blob: world.Blob{ID: 2, X: 190, Y: 50, Size: 4}}
	idx := Build([]world.Entity{world.BotEntity(origin), world.FoodEntity(target)}, 50)

	if containsID(idx.QueryNear(50, 50), 2) {
		t.Fatalf("3x3 query should not reach 140 units with 50 unit cells")
	}
	if !containsID(idx.QueryRadius(50, 50, 150), 2) {
		t.Fatalf("radius query should include food within 150 units")
	}
}

func TestBuildIsFreshEachCall(t *testing.T) {
	f := &world.Food{Blob: world.Blob{ID: 7, X: 10, Y: 10, Size: 4}}
	first := Build([]world.Entity{world.FoodEntity(f)}, 100)
	second := Build(nil, 100)
	if first.Len() != 1 || second.Len() != 0 {
		t.Fatalf("expected independent indexes, got %d and %d", first.Len(), second.Len())
	}
	if got := second.QueryNear(10, 10); len(got) != 0 {
		t.Fatalf("empty index returned %d entities", len(got))
	}
}
