// Package spatial buckets arena entities into a uniform grid so collision and
// perception queries only look at nearby cells. The grid is rebuilt from
// scratch every tick; there are no incremental updates.
package spatial

import (
	"math"

	"github.com/bobblez1/blob2/internal/world"
)

// DefaultCellSize is the reference bucket edge in world units.
const DefaultCellSize = 100.0

type cellKey struct {
	X int
	Y int
}

// Index is an immutable snapshot of entity positions bucketed by cell.
type Index struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]world.Entity
	count       int
}

// Build buckets every entity by its centre. The effective cell size is
// widened to the largest entity diameter so that two overlapping entities
// always sit in adjacent cells and a 3x3 query around either centre returns
// both.
func Build(entities []world.Entity, cellSize float64) *Index {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		cellSize = DefaultCellSize
	}
	for _, e := range entities {
		if b := e.Blob(); b != nil && b.Size > cellSize {
			cellSize = b.Size
		}
	}
	idx := &Index{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]world.Entity, len(entities)/4+1),
	}
	for _, e := range entities {
		b := e.Blob()
		if b == nil {
			continue
		}
		key := idx.keyFor(b.X, b.Y)
		idx.cells[key] = append(idx.cells[key], e)
		idx.count++
	}
	return idx
}

// CellSize reports the effective cell edge used by the index.
func (idx *Index) CellSize() float64 {
	if idx == nil {
		return 0
	}
	return idx.cellSize
}

// Len reports how many entities were indexed.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.count
}

// QueryNear returns the entities in the 3x3 block of cells centred on the
// cell containing (x, y). Callers must still perform exact distance checks.
func (idx *Index) QueryNear(x, y float64) []world.Entity {
	if idx == nil {
		return nil
	}
	center := idx.keyFor(x, y)
	return idx.collect(center.X-1, center.X+1, center.Y-1, center.Y+1)
}

// QueryRadius returns the entities in every cell touched by the square that
// bounds a circle of radius r around (x, y).
func (idx *Index) QueryRadius(x, y, r float64) []world.Entity {
	if idx == nil {
		return nil
	}
	if r < 0 || math.IsNaN(r) {
		r = 0
	}
	lo := idx.keyFor(x-r, y-r)
	hi := idx.keyFor(x+r, y+r)
	return idx.collect(lo.X, hi.X, lo.Y, hi.Y)
}

func (idx *Index) collect(minX, maxX, minY, maxY int) []world.Entity {
	var out []world.Entity
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			out = append(out, idx.cells[cellKey{X: cx, Y: cy}]...)
		}
	}
	return out
}

func (idx *Index) keyFor(x, y float64) cellKey {
	return cellKey{
		X: int(math.Floor(x * idx.invCellSize)),
		Y: int(math.Floor(y * idx.invCellSize)),
	}
}
