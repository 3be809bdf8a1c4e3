// Package pathfind 为 AI 蛇选择下一步：在四连通格子上做广度优先搜索，避开自己的身体。
package pathfind

import (
	"math"

	"github.com/pkg/errors"
	"github.com/zyedidia/generic/mapset"

	"snakegrid/grid"
)

var (
	// ErrPathNotFound 去掉身体格后起点与目标不连通
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidGoal 目标格不可走，按 ErrPathNotFound 同样处理
	ErrInvalidGoal = errors.New("goal tile not walkable")
)

// Walkable 可走格查询
type Walkable interface {
	IsWalkable(t grid.Tile) bool
}

// FindPath 返回从 start 到 goal 的最短格子路径（含两端，path[0] == start）。
// 搜索范围为 walkable 减去 blocked；start 本身不要求可走，也不会被视为阻挡。
func FindPath(start, goal grid.Tile, blocked mapset.Set[grid.Tile], walkable Walkable) ([]grid.Tile, error) {
	if !walkable.IsWalkable(goal) {
		return nil, errors.Wrapf(ErrInvalidGoal, "goal %s", goal)
	}

	cameFrom := map[grid.Tile]grid.Tile{start: start}
	queue := []grid.Tile{start}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur == goal {
			break
		}
		for _, next := range cur.Neighbors() {
			if _, seen := cameFrom[next]; seen {
				continue
			}
			if !walkable.IsWalkable(next) || blocked.Has(next) {
				continue
			}
			cameFrom[next] = cur
			queue = append(queue, next)
		}
	}

	if _, ok := cameFrom[goal]; !ok {
		return nil, errors.Wrapf(ErrPathNotFound, "%s -> %s", start, goal)
	}

	var path []grid.Tile
	for at := goal; at != start; at = cameFrom[at] {
		path = append(path, at)
	}
	path = append(path, start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// StepDirection 取位移较大的轴作为移动方向；两格重合时返回 None
func StepDirection(from, to grid.Tile) grid.Direction {
	dr, dc := to.Row-from.Row, to.Col-from.Col
	switch {
	case dr == 0 && dc == 0:
		return grid.None
	case abs(dr) > abs(dc):
		if dr > 0 {
			return grid.Up
		}
		return grid.Down
	case dc > 0:
		return grid.Right
	default:
		return grid.Left
	}
}

// Nearest 欧氏距离最近的食物；距离相同取先出现的
func Nearest(from grid.Tile, foods []grid.Tile) (grid.Tile, bool) {
	if len(foods) == 0 {
		return grid.Tile{}, false
	}
	best, bestD := foods[0], math.Inf(1)
	for _, f := range foods {
		dr, dc := float64(f.Row-from.Row), float64(f.Col-from.Col)
		if d := math.Hypot(dr, dc); d < bestD {
			best, bestD = f, d
		}
	}
	return best, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
