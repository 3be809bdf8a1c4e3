package motion

import (
	"math"

	"snakegrid/grid"
)

const (
	// crossEpsilon 浮点累加误差容忍，累计距离达到 TileSize-crossEpsilon 即视为跨格
	crossEpsilon = 1e-4
	// maxQueuedDirections 待定方向队列上限，超出的输入直接丢弃
	maxQueuedDirections = 4
)

// TileHook 每次跨格后同步调用；此时身体正好停在格子中心
type TileHook func(id string, tile grid.Tile)

// Segment 尾节。Pos 为平滑后的显示位置，碰撞使用逻辑目标格。
type Segment struct {
	Pos        grid.Vec
	Collidable bool
}

// graceEvent 到期后把尾节置为可碰撞
type graceEvent struct {
	due float64
	seg *Segment
}

// Body 单个蛇头的运动状态机
type Body struct {
	ID string

	p     Params
	pos   grid.Vec
	dir   grid.Direction
	queue []grid.Direction
	moved float64   // 自上次到达格子中心以来移动的距离，位于 [0, TileSize)
	tile  grid.Tile // 最近一次对齐的格子

	// turned 本次跨格已消费过待定方向，离开边界前不再立即转向
	turned bool

	segments []*Segment
	targets  []grid.Tile // 逻辑目标链：targets[i] 是 i+1 次跨格前头部所在的格子
	history  []grid.Vec

	velZ  float64
	inAir bool

	clock float64
	grace []graceEvent
	hooks []TileHook
}

// NewBody 在 spawn 附近最近的格子中心创建身体，初始方向为 None
func NewBody(id string, spawn grid.Vec, p Params) *Body {
	pos := grid.Snap(spawn, p.TileSize)
	return &Body{
		ID:   id,
		p:    p,
		pos:  pos,
		dir:  grid.None,
		tile: grid.TileOf(pos, p.TileSize),
	}
}

// OnTileEntered 注册跨格回调
func (b *Body) OnTileEntered(h TileHook) {
	b.hooks = append(b.hooks, h)
}

func (b *Body) Position() grid.Vec { return b.pos }
func (b *Body) Heading() grid.Direction { return b.dir }
func (b *Body) Tile() grid.Tile { return b.tile }
func (b *Body) Moved() float64 { return b.moved }
func (b *Body) InAir() bool { return b.inAir }
func (b *Body) Params() Params { return b.p }
func (b *Body) Pending() []grid.Direction { return append([]grid.Direction(nil), b.queue...) }

// SetParams 热更新参数（速度等），不影响已累计的距离
func (b *Body) SetParams(p Params) {
	b.p = p
}

// Segments 尾节快照
func (b *Body) Segments() []Segment {
	out := make([]Segment, len(b.segments))
	for i, s := range b.segments {
		out[i] = *s
	}
	return out
}

// Targets 逻辑目标链副本
func (b *Body) Targets() []grid.Tile {
	return append([]grid.Tile(nil), b.targets...)
}

// HistoryLen 头部历史缓冲长度
func (b *Body) HistoryLen() int { return len(b.history) }

// Len 尾节数量
func (b *Body) Len() int { return len(b.segments) }

// Enqueue 缓冲一次方向变化，下一次跨格时生效
func (b *Body) Enqueue(d grid.Direction) {
	if d == grid.None || len(b.queue) >= maxQueuedDirections {
		return
	}
	b.queue = append(b.queue, d)
}

// Steer 仅当身体正好位于格子边界、队列为空且本次跨格尚未转向时立即改变方向，
// 否则退化为 Enqueue。返回是否立即生效。
func (b *Body) Steer(d grid.Direction) bool {
	if d == grid.None {
		return false
	}
	if b.moved == 0 && len(b.queue) == 0 && !b.turned {
		b.dir = d
		return true
	}
	b.Enqueue(d)
	return false
}

// Grow 在最近的格子位置追加一节尾巴，CollisionGrace 之后才可碰撞
func (b *Body) Grow() {
	seg := &Segment{Pos: b.tile.Center(b.p.TileSize)}
	b.segments = append(b.segments, seg)
	b.targets = append(b.targets, b.tile)
	if b.p.CollisionGrace <= 0 {
		seg.Collidable = true
		return
	}
	b.grace = append(b.grace, graceEvent{due: b.clock + b.p.CollisionGrace, seg: seg})
}

// Jump 只有落地时才能起跳
func (b *Body) Jump() {
	if !b.inAir {
		b.velZ = b.p.JumpVelocity
	}
}

// BodyTiles 尾巴占据的逻辑格子，排除头部当前所在格
func (b *Body) BodyTiles() []grid.Tile {
	out := make([]grid.Tile, 0, len(b.targets))
	for _, t := range b.targets {
		if t != b.tile {
			out = append(out, t)
		}
	}
	return out
}

// CollidableTiles 已过保护期的尾节所在的逻辑格子
func (b *Body) CollidableTiles() []grid.Tile {
	out := make([]grid.Tile, 0, len(b.targets))
	for i, t := range b.targets {
		if b.segments[i].Collidable {
			out = append(out, t)
		}
	}
	return out
}

// Tick 推进一帧：保护期事件 → 下落 → 逐格移动 → 历史采样 → 尾巴跟随
func (b *Body) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	b.clock += dt
	b.fireGrace()
	b.updateFalling(dt)
	b.updateMovement(dt)
	b.recordHistory()
	b.followHistory(dt)
}

func (b *Body) fireGrace() {
	kept := b.grace[:0]
	for _, ev := range b.grace {
		if ev.due <= b.clock {
			ev.seg.Collidable = true
			continue
		}
		kept = append(kept, ev)
	}
	b.grace = kept
}

func (b *Body) updateMovement(dt float64) {
	remaining := b.p.Speed * dt
	for remaining > 0 {
		step := math.Min(remaining, b.p.TileSize-b.moved)
		b.pos = b.pos.Add(b.dir.Unit().Scale(step))
		b.moved += step
		remaining -= step
		if step > 0 {
			b.turned = false
		}

		if b.moved >= b.p.TileSize-crossEpsilon {
			b.cross()
		}
	}
}

// cross 对齐格子中心、推进尾巴目标链、消费一个待定方向，然后通知回调
func (b *Body) cross() {
	vacated := b.tile
	b.pos = grid.Snap(b.pos, b.p.TileSize)
	b.tile = grid.TileOf(b.pos, b.p.TileSize)
	b.moved = 0

	if b.tile != vacated {
		b.shiftTargets(vacated)
	}
	b.turned = false
	if len(b.queue) > 0 {
		b.dir = b.queue[0]
		b.queue = b.queue[1:]
		b.turned = true
	}
	for _, h := range b.hooks {
		h(b.ID, b.tile)
	}
}

func (b *Body) shiftTargets(vacated grid.Tile) {
	if len(b.targets) == 0 {
		return
	}
	for i := len(b.targets) - 1; i > 0; i-- {
		b.targets[i] = b.targets[i-1]
	}
	b.targets[0] = vacated
}

func (b *Body) updateFalling(dt float64) {
	if !b.inAir && b.velZ == 0 {
		return
	}
	b.velZ -= b.p.Gravity * dt
	b.pos.Z += b.velZ * dt

	if b.pos.Z <= 0 {
		b.pos.Z = -b.pos.Z
		b.velZ = -b.velZ * b.p.Bounce
		// 反弹速度不足以撑过一帧重力时直接落定
		if math.Abs(b.velZ) < math.Max(b.p.SettleVelocity, b.p.Gravity*dt) {
			b.velZ = 0
			b.pos.Z = 0
			b.inAir = false
			return
		}
	}
	b.inAir = true
}

func (b *Body) recordHistory() {
	n := len(b.history)
	if n == 0 || b.history[n-1].Dist(b.pos) >= b.p.RecordDistance {
		b.history = append(b.history, b.pos)
	}

	limit := (len(b.segments)+1)*b.p.HistorySpacing + b.p.HistoryMargin
	if len(b.history) > limit {
		k := copy(b.history, b.history[len(b.history)-limit:])
		b.history = b.history[:k]
	}
}

func (b *Body) followHistory(dt float64) {
	n := len(b.history)
	if n == 0 {
		return
	}
	for i, seg := range b.segments {
		idx := n - 1 - (i+1)*b.p.HistorySpacing
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		seg.Pos = interpTo(seg.Pos, b.history[idx], dt, b.p.SmoothSpeed)
	}
}

// interpTo 按 dt*speed 的比例向目标靠近，足够近时直接到达
func interpTo(cur, target grid.Vec, dt, speed float64) grid.Vec {
	if speed <= 0 {
		return target
	}
	dist := target.Sub(cur)
	if dist.LenSq() < 1e-4 {
		return target
	}
	alpha := math.Max(0, math.Min(dt*speed, 1))
	return cur.Add(dist.Scale(alpha))
}
