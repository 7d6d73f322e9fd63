package room

import (
	"fmt"
	"math"

	"github.com/vovakirdan/multisnake/internal/core"
)

// Grid counts solid snake segments per cell. A count above one after a
// tick's moves means every head on that cell collided.
type Grid struct {
	width  int
	height int
	counts []uint16 // index = y*width + x
}

// NewGrid creates an empty occupancy grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		counts: make([]uint16, width*height),
	}
}

// Bounds returns the board rectangle.
func (g *Grid) Bounds() core.Rect {
	return core.NewRect(0, 0, g.width, g.height)
}

// InBounds reports whether p lies on the board.
func (g *Grid) InBounds(p core.Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Increment adds one segment at p.
func (g *Grid) Increment(p core.Position) {
	i := g.index(p)
	if g.counts[i] == math.MaxUint16 {
		panic(fmt.Sprintf("room: occupancy overflow at %v", p))
	}
	g.counts[i]++
}

// Decrement removes one segment at p. It panics if the cell is already
// empty: the grid and the snake bodies have gone out of sync.
func (g *Grid) Decrement(p core.Position) {
	i := g.index(p)
	if g.counts[i] == 0 {
		panic(fmt.Sprintf("room: occupancy underflow at %v", p))
	}
	g.counts[i]--
}

// Count returns the number of solid segments at p.
func (g *Grid) Count(p core.Position) int {
	return int(g.counts[g.index(p)])
}

// Total returns the sum of all cell counts.
func (g *Grid) Total() int {
	total := 0
	for _, c := range g.counts {
		total += int(c)
	}
	return total
}

func (g *Grid) index(p core.Position) int {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("room: position %v outside %dx%d grid", p, g.width, g.height))
	}
	return p.Y*g.width + p.X
}
