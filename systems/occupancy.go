package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// Grid is a square occupancy grid over the normalized track [0,1]².
// Cells are true for walls. A Grid is never mutated after construction,
// so one instance can be shared by any number of concurrent episodes.
type Grid struct {
	cells []bool // true = wall, indexed y*size+x
	size  int
}

// NewGrid creates a size×size grid with the given wall cells.
// Walls outside the grid are ignored.
func NewGrid(size int, walls []components.Cell) *Grid {
	g := &Grid{
		cells: make([]bool, size*size),
		size:  size,
	}
	for _, c := range walls {
		if g.inBounds(c.X, c.Y) {
			g.cells[c.Y*size+c.X] = true
		}
	}
	return g
}

// ParseGrid builds a grid from rows of '#' (wall) and '.' (open).
// Row i is cell row y=i. All rows must be as long as there are rows.
func ParseGrid(rows ...string) (*Grid, error) {
	size := len(rows)
	if size == 0 {
		return nil, fmt.Errorf("parse grid: no rows")
	}
	var walls []components.Cell
	for y, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("parse grid: row %d has %d cells, want %d", y, len(row), size)
		}
		for x, ch := range row {
			switch ch {
			case '#':
				walls = append(walls, components.Cell{X: x, Y: y})
			case '.':
			default:
				return nil, fmt.Errorf("parse grid: unexpected %q at (%d, %d)", ch, x, y)
			}
		}
	}
	return NewGrid(size, walls), nil
}

// Size returns the number of cells per side.
func (g *Grid) Size() int {
	return g.size
}

// CellSize returns the side of one cell in normalized units.
func (g *Grid) CellSize() float64 {
	return 1 / float64(g.size)
}

func (g *Grid) inBounds(cx, cy int) bool {
	return cx >= 0 && cx < g.size && cy >= 0 && cy < g.size
}

// IsWall reports whether the cell is a wall.
// Cells outside the grid are open space, never walls.
func (g *Grid) IsWall(cx, cy int) bool {
	if !g.inBounds(cx, cy) {
		return false
	}
	return g.cells[cy*g.size+cx]
}

// NormalizedToCell converts normalized coordinates to cell indices with floor(coord*size).
func (g *Grid) NormalizedToCell(x, y float64) (cx, cy int) {
	cx = int(math.Floor(x * float64(g.size)))
	cy = int(math.Floor(y * float64(g.size)))
	return
}

// IsWallAt reports whether the normalized point lies in a wall cell.
func (g *Grid) IsWallAt(x, y float64) bool {
	return g.IsWall(g.NormalizedToCell(x, y))
}

// WallCount returns the number of wall cells.
func (g *Grid) WallCount() int {
	n := 0
	for _, wall := range g.cells {
		if wall {
			n++
		}
	}
	return n
}
