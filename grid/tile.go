// Package grid 维护关卡的格子拓扑：墙、地板、门，以及食物落点。
package grid

import (
	"fmt"
	"math"
)

// Tile 整数格子坐标，Row 向上增长，Col 向右增长
type Tile struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add 返回偏移后的格子
func (t Tile) Add(d Tile) Tile {
	return Tile{Row: t.Row + d.Row, Col: t.Col + d.Col}
}

// Center 格子中心的世界坐标
func (t Tile) Center(tileSize float64) Vec {
	return Vec{X: float64(t.Row) * tileSize, Y: float64(t.Col) * tileSize}
}

// Neighbors 四邻接格子，顺序固定：上、下、右、左
func (t Tile) Neighbors() [4]Tile {
	return [4]Tile{
		{Row: t.Row + 1, Col: t.Col},
		{Row: t.Row - 1, Col: t.Col},
		{Row: t.Row, Col: t.Col + 1},
		{Row: t.Row, Col: t.Col - 1},
	}
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.Row, t.Col)
}

// Vec 世界坐标：X 对应行方向，Y 对应列方向，Z 为高度
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec) Sub(o Vec) Vec { return Vec{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k, Z: v.Z * k} }
func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec) Dist(o Vec) float64 { return math.Sqrt(v.Sub(o).LenSq()) }
func (v Vec) Flat() Vec { return Vec{X: v.X, Y: v.Y} }
func (v Vec) Equals(o Vec, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// Snap 将平面坐标对齐到最近的格子中心，高度保持不变。重复调用结果不变。
func Snap(v Vec, tileSize float64) Vec {
	return Vec{
		X: math.Round(v.X/tileSize) * tileSize,
		Y: math.Round(v.Y/tileSize) * tileSize,
		Z: v.Z,
	}
}

// TileOf 世界坐标所在的格子（四舍五入）
func TileOf(v Vec, tileSize float64) Tile {
	return Tile{
		Row: int(math.Round(v.X / tileSize)),
		Col: int(math.Round(v.Y / tileSize)),
	}
}

// Direction 移动方向；None 只表示“无路径 / 无待定方向”，不会作为实际移动状态提交
type Direction uint8

const (
	Up    Direction = 0
	Right Direction = 1
	Down  Direction = 2
	Left  Direction = 3
	None  Direction = 255
)

// Delta 方向对应的格子偏移
func (d Direction) Delta() Tile {
	switch d {
	case Up:
		return Tile{Row: 1}
	case Right:
		return Tile{Col: 1}
	case Down:
		return Tile{Row: -1}
	case Left:
		return Tile{Col: -1}
	default:
		return Tile{}
	}
}

// Unit 方向单位向量；None 为零向量
func (d Direction) Unit() Vec {
	t := d.Delta()
	return Vec{X: float64(t.Row), Y: float64(t.Col)}
}

// Opposite 反方向；None 的反方向仍是 None
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return None
	}
}

// IsOpposite 两个方向是否构成 180° 掉头
func IsOpposite(a, b Direction) bool {
	return a != None && b != None && a.Opposite() == b
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "none"
	}
}

// ParseDirection 解析客户端方向字符串，未知值返回 None
func ParseDirection(s string) Direction {
	switch s {
	case "up":
		return Up
	case "right":
		return Right
	case "down":
		return Down
	case "left":
		return Left
	default:
		return None
	}
}
