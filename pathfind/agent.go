package pathfind

import (
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"snakegrid/grid"
)

// Steerable AI 控制的身体
type Steerable interface {
	Tile() grid.Tile
	Heading() grid.Direction
	BodyTiles() []grid.Tile
	Steer(d grid.Direction) bool
}

// Board 关卡与食物
type Board interface {
	Walkable
	Foods() []grid.Tile
}

// Plan 一次重新规划的结果
type Plan struct {
	Replanned bool
	Goal      grid.Tile
	Path      []grid.Tile
	Dir       grid.Direction
	Committed bool  // Dir 已被采用（与当前朝向相同也算）
	Err       error // ErrPathNotFound / ErrInvalidGoal 时保持原方向，下一格重试
}

// Agent 每进入一个新格子重新规划一次
type Agent struct {
	prev    grid.Tile
	hasPrev bool
	log     *zap.SugaredLogger
}

// NewAgent 创建 AI 代理
func NewAgent(log *zap.SugaredLogger) *Agent {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Agent{log: log}
}

// OnTileEntered 在身体到达格子中心时调用。格子未变化时直接返回空 Plan。
// 场上没有食物时不记录该格，下一次跨格会再次尝试。
func (a *Agent) OnTileEntered(s Steerable, b Board) Plan {
	tile := s.Tile()
	if a.hasPrev && tile == a.prev {
		return Plan{}
	}

	goal, ok := Nearest(tile, b.Foods())
	if !ok {
		return Plan{}
	}
	a.prev, a.hasPrev = tile, true

	blocked := mapset.New[grid.Tile]()
	for _, t := range s.BodyTiles() {
		blocked.Put(t)
	}
	blocked.Remove(tile)

	plan := Plan{Replanned: true, Goal: goal, Dir: grid.None}
	path, err := FindPath(tile, goal, blocked, b)
	if err != nil {
		a.log.Debugf("ai: no path from %s to %s, holding %s: %v", tile, goal, s.Heading(), err)
		plan.Err = err
		return plan
	}
	plan.Path = path
	if len(path) < 2 {
		return plan
	}

	plan.Dir = StepDirection(path[0], path[1])
	if grid.IsOpposite(s.Heading(), plan.Dir) {
		a.log.Debugf("ai: skipping u-turn from %s to %s", s.Heading(), plan.Dir)
		return plan
	}
	plan.Committed = true
	if plan.Dir != s.Heading() {
		s.Steer(plan.Dir)
	}
	return plan
}

// Reset 清除记录的格子，下一次调用必定重新规划
func (a *Agent) Reset() {
	a.hasPrev = false
}
