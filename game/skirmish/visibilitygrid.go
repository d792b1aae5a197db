package skirmish

import (
	"github.com/bytearena/skirmish/common/utils/vector"
)

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CellOf floors the point's coordinates to the cell containing it
func CellOf(point vector.Vector2) Cell {
	x, y := point.Floor()
	return Cell{X: x, Y: y}
}

// VisibilityGrid is the fog of war: a dense rectangle of cells that only ever turn from hidden to revealed until Reset
type VisibilityGrid struct {
	minX, minY    int
	width, height int
	revealed      []bool
	nbRevealed    int
}

func NewVisibilityGrid(minX int, minY int, width int, height int) *VisibilityGrid {
	if width < 0 {
		width = 0
	}

	if height < 0 {
		height = 0
	}

	return &VisibilityGrid{
		minX:     minX,
		minY:     minY,
		width:    width,
		height:   height,
		revealed: make([]bool, width*height),
	}
}

func (g *VisibilityGrid) Bounds() (minX int, minY int, width int, height int) {
	return g.minX, g.minY, g.width, g.height
}

func (g *VisibilityGrid) Contains(cell Cell) bool {
	x, y := cell.X-g.minX, cell.Y-g.minY
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *VisibilityGrid) offset(cell Cell) int {
	return (cell.Y-g.minY)*g.width + (cell.X - g.minX)
}

// Reveal marks the cell revealed; cells outside the grid are ignored. Returns true if the cell was hidden.
func (g *VisibilityGrid) Reveal(cell Cell) bool {
	if !g.Contains(cell) {
		return false
	}

	i := g.offset(cell)
	if g.revealed[i] {
		return false
	}

	g.revealed[i] = true
	g.nbRevealed++
	return true
}

func (g *VisibilityGrid) IsRevealed(cell Cell) bool {
	return g.Contains(cell) && g.revealed[g.offset(cell)]
}

func (g *VisibilityGrid) RevealedCount() int {
	return g.nbRevealed
}

func (g *VisibilityGrid) CellCount() int {
	return len(g.revealed)
}

func (g *VisibilityGrid) Reset() {
	for i := range g.revealed {
		g.revealed[i] = false
	}

	g.nbRevealed = 0
}

// RevealedCells lists the revealed cells row by row
func (g *VisibilityGrid) RevealedCells() []Cell {
	cells := make([]Cell, 0, g.nbRevealed)
	for i, revealed := range g.revealed {
		if revealed {
			cells = append(cells, Cell{X: g.minX + i%g.width, Y: g.minY + i/g.width})
		}
	}

	return cells
}

// RevealAlongRays reveals, for each ray, the cell just past its hit point
func (g *VisibilityGrid) RevealAlongRays(readings []RayReading) int {
	nb := 0
	for _, reading := range readings {
		if g.Reveal(CellOf(reading.At(reading.Fraction + fogRayExtension))) {
			nb++
		}
	}

	return nb
}
