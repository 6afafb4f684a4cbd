// 网格坐标运算，纯函数
package snake

import (
	"math"

	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// Grid is a Size x Size board of Box-pixel cells.
type Grid struct {
	Size int // 每边格子数
	Box  int // 每个格子的像素
}

// Pixels 画布边长
func (g Grid) Pixels() int {
	return g.Size * g.Box
}

// Cell returns the grid-aligned position of column col, row row.
func (g Grid) Cell(col, row int) structs.Position {
	return structs.Position{X: col * g.Box, Y: row * g.Box}
}

// Snap maps a point on the canvas (a click or touch) to the cell containing it.
func (g Grid) Snap(x, y float64) structs.Position {
	box := float64(g.Box)
	return structs.Position{
		X: int(math.Floor(x/box)) * g.Box,
		Y: int(math.Floor(y/box)) * g.Box,
	}
}

// Contains 检查位置是否在地图内
func (g Grid) Contains(p structs.Position) bool {
	limit := g.Pixels()
	return p.X >= 0 && p.X < limit && p.Y >= 0 && p.Y < limit
}

// Aligned reports whether p sits exactly on a cell corner.
func (g Grid) Aligned(p structs.Position) bool {
	return p.X%g.Box == 0 && p.Y%g.Box == 0
}

// Step 根据方向计算相邻格子，不做边界处理
func (g Grid) Step(p structs.Position, d structs.Direction) structs.Position {
	switch d {
	case structs.Up:
		p.Y -= g.Box
	case structs.Down:
		p.Y += g.Box
	case structs.Left:
		p.X -= g.Box
	case structs.Right:
		p.X += g.Box
	}
	return p
}
