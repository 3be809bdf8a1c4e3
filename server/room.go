package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"snakegrid/flow"
	"snakegrid/grid"
	"snakegrid/motion"
	"snakegrid/pathfind"
)

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进。
// 除 OnInput / JoinPlayer / RequestLeave / Settings / UpdateSettings 外，所有方法只在 Tick 协程中调用。
type Room struct {
	ID string

	Players   map[PlayerID]*Player
	joinChan  chan *Player
	inputChan chan Input
	leaveChan chan leaveRequest

	cfg     Config
	world   *grid.World
	session *flow.Session
	flow    *flow.Controller
	snakes  []*Snake

	// 热更新：HTTP 协程写入，BeginTick 中生效
	settingsMu sync.Mutex
	settings   RoomSettings
	settingsV  int64
	appliedV   int64

	tickSeq   int64
	dirty     bool
	sentLevel int

	metrics *RoomMetrics
	log     *zap.SugaredLogger

	tickerStarted bool
	stop          chan struct{}
}

// RoomSettings 可在运行中调整的规则
type RoomSettings struct {
	Speed            float64 `json:"speed"`
	ApplesToFinish   int     `json:"applesToFinish"`
	MaxInputsPerTick int     `json:"maxInputsPerTick"`
}

// NewRoom 创建房间并加载第 1 关；第 1 关不可用时返回错误
func NewRoom(id string, cfg Config, log *zap.SugaredLogger) (*Room, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("room", id)

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	store := grid.NewStore(cfg.Game.LevelsDir)
	if cfg.Game.LevelPattern != "" {
		store.Pattern = cfg.Game.LevelPattern
	}

	r := &Room{
		ID:        id,
		Players:   make(map[PlayerID]*Player),
		joinChan:  make(chan *Player, 16),
		inputChan: make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan: make(chan leaveRequest, 64),
		cfg:       cfg,
		world:     grid.NewWorld(store, seed, log),
		session:   flow.NewSession(cfg.Game.ApplesToFinish),
		settings: RoomSettings{
			Speed:            cfg.Motion.Speed,
			ApplesToFinish:   cfg.Game.ApplesToFinish,
			MaxInputsPerTick: cfg.Server.MaxInputsPerTick,
		},
		metrics: &RoomMetrics{},
		log:     log,
		stop:    make(chan struct{}),
	}
	r.flow = flow.NewController(r, r, log)
	r.flow.OnStateChange(func(flow.State, flow.State) {
		r.dirty = true
	})

	if err := r.flow.Begin(r.session); err != nil {
		return nil, errors.Wrapf(err, "room %s", id)
	}
	r.spawnSnake(SnakeP1, flow.Human(0), 0)
	r.dirty = true
	return r, nil
}

// Session 当前会话（只读使用）
func (r *Room) Session() flow.Session { return *r.session }

// Metrics 运行指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Settings 当前可调规则
func (r *Room) Settings() RoomSettings {
	r.settingsMu.Lock()
	defer r.settingsMu.Unlock()
	return r.settings
}

// UpdateSettings 记录新规则，下一次 Tick 开始时生效
func (r *Room) UpdateSettings(s RoomSettings) error {
	if s.Speed < 0 || s.ApplesToFinish <= 0 || s.MaxInputsPerTick <= 0 {
		return errors.Errorf("invalid settings %+v", s)
	}
	r.settingsMu.Lock()
	r.settings = s
	r.settingsV++
	r.settingsMu.Unlock()
	return nil
}

// JoinPlayer 请求在 Tick 线程中加入玩家
func (r *Room) JoinPlayer(id PlayerID, conn *ClientConn) {
	select {
	case r.joinChan <- &Player{ID: id, Slot: -1, Conn: conn}:
	case <-r.stop:
		// 房间已停止，没有 Tick 线程再消费加入请求
		if conn != nil {
			conn.Close()
		}
	}
}

func (r *Room) addPlayer(p *Player) {
	if old, ok := r.Players[p.ID]; ok {
		r.removePlayer(old.ID)
	}
	used := map[int]bool{}
	for _, other := range r.Players {
		used[other.Slot] = true
	}
	for slot := 0; slot < 2; slot++ {
		if !used[slot] {
			p.Slot = slot
			break
		}
	}
	p.needLevel = true
	r.Players[p.ID] = p
	r.log.Infof("player %s joined, slot=%d", p.ID, p.Slot)
}

// removePlayer 将玩家移出房间
func (r *Room) removePlayer(id PlayerID) {
	if p, ok := r.Players[id]; ok {
		if p.Conn != nil {
			p.Conn.Close()
		}
		delete(r.Players, id)
		r.log.Infof("player %s left", id)
	}
}

// OnInput 入站输入（不立即改变状态），仅记录意图，等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	select {
	case r.inputChan <- in:
	default:
		// 为了实时性，避免背压影响世界推进
		r.metrics.IncChanFullDiscarded()
	}
}

// leaveRequest conn 为 nil 时无条件移除，否则只移除仍使用该连接的玩家
type leaveRequest struct {
	id   PlayerID
	conn *ClientConn
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态。
// 房间停止后直接返回，不再阻塞调用方。
func (r *Room) RequestLeave(pid PlayerID, conn *ClientConn) {
	select {
	case r.leaveChan <- leaveRequest{id: pid, conn: conn}:
	case <-r.stop:
	}
}

// BeginTick 重置帧内计数并应用热更新
func (r *Room) BeginTick() {
	r.tickSeq++
	for _, p := range r.Players {
		p.inputs = 0
	}

	r.settingsMu.Lock()
	s, v := r.settings, r.settingsV
	r.settingsMu.Unlock()
	if v == r.appliedV {
		return
	}
	r.appliedV = v
	r.cfg.Motion.Speed = s.Speed
	r.cfg.Server.MaxInputsPerTick = s.MaxInputsPerTick
	r.session.ApplesToFinish = s.ApplesToFinish
	for _, sn := range r.snakes {
		sn.Body.SetParams(r.cfg.Motion)
	}
	r.log.Infof("settings applied: speed=%.1f applesToFinish=%d maxInputsPerTick=%d",
		s.Speed, s.ApplesToFinish, s.MaxInputsPerTick)
}

// ProcessInputs 处理当前帧的加入、输入与离开（非阻塞 drain）。
// 先加入后输入，同一帧内新连接的输入不会因为顺序而丢失。
func (r *Room) ProcessInputs() {
joins:
	for {
		select {
		case p := <-r.joinChan:
			r.addPlayer(p)
		default:
			break joins
		}
	}
inputs:
	for {
		select {
		case in := <-r.inputChan:
			r.applyInput(in)
		default:
			break inputs
		}
	}
	for {
		select {
		case req := <-r.leaveChan:
			if p, ok := r.Players[req.id]; ok && (req.conn == nil || p.Conn == req.conn) {
				r.removePlayer(req.id)
			}
		default:
			return
		}
	}
}

func (r *Room) applyInput(in Input) {
	p, ok := r.Players[in.PlayerID]
	if !ok {
		r.metrics.IncRejected()
		return
	}
	if in.Seq > 0 {
		if in.Seq <= p.lastSeq {
			r.metrics.IncOldSeqIgnored()
			return
		}
		p.lastSeq = in.Seq
	}
	if p.inputs >= r.cfg.Server.MaxInputsPerTick {
		r.metrics.IncRateLimited()
		return
	}
	p.inputs++

	switch in.Kind {
	case InputMove, InputJump:
		sn := r.snake(p.SnakeID())
		if sn == nil || !sn.Alive || r.session.State != flow.Playing {
			r.metrics.IncRejected()
			return
		}
		if in.Kind == InputMove {
			sn.Body.Steer(in.Dir)
		} else {
			sn.Body.Jump()
		}
	case InputPause:
		r.flow.TogglePause(r.session)
	case InputSelect:
		gt := in.GameType
		if r.cfg.Game.DepthLevel {
			gt = flow.ToDepthVariant(gt)
		}
		if err := r.flow.SelectGameType(r.session, gt); err != nil {
			r.log.Debugf("select from %s rejected: %v", p.ID, err)
			r.metrics.IncRejected()
			return
		}
	case InputRestart:
		if err := r.flow.Reset(r.session); err != nil {
			r.log.Warnf("restart: %v", err)
		}
	}
	r.metrics.IncAccepted()
	r.dirty = true
}

// UpdateWorld 推进所有存活的蛇，然后检测重叠：食物、墙、尾节
func (r *Room) UpdateWorld() {
	if r.session.State != flow.Playing {
		return
	}
	dt := 1 / float64(r.cfg.Server.TicksPerSecond)
	for _, sn := range r.snakes {
		if sn.Alive {
			sn.Body.Tick(dt)
		}
	}
	r.dirty = true
	r.detectOverlaps()
}

func (r *Room) detectOverlaps() {
	level := r.session.LevelIndex
	for _, sn := range r.snakes {
		if r.session.State != flow.Playing || r.session.LevelIndex != level {
			return
		}
		if !sn.Alive {
			continue
		}
		head := r.headTile(sn)
		switch {
		case r.world.IsWall(head):
			r.collide(sn, "wall", head)
		case r.hitsBody(sn, head):
			r.collide(sn, "body", head)
		case r.world.ConsumeFood(head):
			sn.Body.Grow()
			r.metrics.IncApples()
			r.log.Debugf("%s ate food at %s", sn.ID, head)
			if err := r.flow.OnAppleEaten(r.session, sn.Tag.CounterID()); err != nil {
				r.log.Warnf("apple eaten by %s: %v", sn.ID, err)
			}
			if r.session.LevelIndex != level {
				r.metrics.IncLevelsCleared()
			}
		}
	}
}

// headTile 头部当前重叠的格子，越过半格即算进入下一格
func (r *Room) headTile(sn *Snake) grid.Tile {
	return grid.TileOf(sn.Body.Position(), r.cfg.Motion.TileSize)
}

// hitsBody 头部是否压到任意存活蛇的可碰撞尾节；自己头部所在的对齐格除外
func (r *Room) hitsBody(sn *Snake, head grid.Tile) bool {
	for _, other := range r.snakes {
		if !other.Alive {
			continue
		}
		for _, t := range other.Body.CollidableTiles() {
			if other == sn && t == sn.Body.Tile() {
				continue
			}
			if t == head {
				return true
			}
		}
	}
	return false
}

func (r *Room) collide(sn *Snake, what string, at grid.Tile) {
	r.metrics.IncCollisions()
	r.log.Infof("%s hit %s at %s", sn.ID, what, at)
	r.flow.OnBodyCollision(r.session, sn.ID)
}

// BroadcastDelta 世界有变化时把快照广播给所有玩家（文本 JSON）；换关或新加入时先发送关卡布局
func (r *Room) BroadcastDelta() {
	levelChanged := r.world.LevelIndex() != r.sentLevel
	if levelChanged {
		r.sentLevel = r.world.LevelIndex()
	}
	var layout []byte
	for _, p := range r.Players {
		if p.Conn == nil || !(levelChanged || p.needLevel) {
			continue
		}
		if layout == nil {
			b, err := json.Marshal(r.levelMessage())
			if err != nil {
				r.log.Errorf("marshal level: %v", err)
				break
			}
			layout = b
		}
		p.Conn.Enqueue(layout)
		p.needLevel = false
	}

	if !r.dirty {
		return
	}
	r.dirty = false
	b, err := json.Marshal(r.snapshot())
	if err != nil {
		r.log.Errorf("marshal snapshot: %v", err)
		return
	}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}

func (r *Room) snapshot() Snapshot {
	s := r.session
	snap := Snapshot{
		Type:        "state",
		Tick:        r.tickSeq,
		State:       s.State.String(),
		GameType:    s.Type.String(),
		Level:       s.LevelIndex,
		Score:       s.Score,
		Apples:      s.TotalApples,
		LevelApples: s.EatenThisLevel(),
		Food:        r.world.Foods(),
		Snakes:      make([]SnakeState, 0, len(r.snakes)),
	}
	for _, sn := range r.snakes {
		snap.Snakes = append(snap.Snakes, sn.state())
	}
	return snap
}

func (r *Room) levelMessage() LevelMessage {
	lv := r.world.Level()
	return LevelMessage{
		Type:     "level",
		Index:    lv.Index,
		Rows:     lv.Rows,
		Cols:     lv.Cols,
		TileSize: r.cfg.Motion.TileSize,
		Walls:    lv.Walls(),
		Doors:    lv.Doors(),
	}
}

func (r *Room) snake(id string) *Snake {
	for _, sn := range r.snakes {
		if sn.ID == id {
			return sn
		}
	}
	return nil
}

// spawnTile 出生格：优先使用关卡中的门，其次配置的出生格，都不可走时退回第一个地板格
func (r *Room) spawnTile(slot int) grid.Tile {
	lv := r.world.Level()
	if doors := lv.Doors(); slot < len(doors) {
		return doors[slot]
	}
	t := grid.Tile{Row: 4, Col: 10}
	if slot < len(r.cfg.Game.Spawns) {
		t = r.cfg.Game.Spawns[slot]
	}
	if r.world.IsWalkable(t) {
		return t
	}
	if floors := lv.Floors(); len(floors) > 0 {
		return floors[slot%len(floors)]
	}
	return t
}

func (r *Room) spawnSnake(id string, tag flow.ControllerTag, slot int) *Snake {
	sn := &Snake{ID: id, Tag: tag, slot: slot}
	if tag.IsAI() {
		sn.Agent = pathfind.NewAgent(r.log)
	}
	r.resetSnake(sn)
	r.snakes = append(r.snakes, sn)
	r.log.Infof("spawned %s at %s", id, sn.Body.Tile())
	return sn
}

// resetSnake 在出生格重建身体并挂上 AI 回调
func (r *Room) resetSnake(sn *Snake) {
	sn.Body = motion.NewBody(sn.ID, r.spawnTile(sn.slot).Center(r.cfg.Motion.TileSize), r.cfg.Motion)
	sn.Alive = true
	if sn.Agent == nil {
		return
	}
	sn.Agent.Reset()
	sn.Body.OnTileEntered(func(string, grid.Tile) {
		plan := sn.Agent.OnTileEntered(sn.Body, r.world)
		if plan.Replanned {
			r.metrics.IncReplans()
		}
		if plan.Err != nil {
			r.metrics.IncPathFailures()
		}
	})
}

func (r *Room) removeSnake(id string) {
	for i, sn := range r.snakes {
		if sn.ID == id {
			r.snakes = append(r.snakes[:i], r.snakes[i+1:]...)
			r.log.Infof("removed %s", id)
			return
		}
	}
}

var (
	_ flow.Levels = (*Room)(nil)
	_ flow.Roster = (*Room)(nil)
)

// ---- flow.Levels ----

func (r *Room) LevelIndex() int { return r.world.LevelIndex() }
func (r *Room) LevelExists(index int) bool { return r.world.LevelExists(index) }
func (r *Room) LoadLevel(index int) error { return r.world.LoadLevel(index) }
func (r *Room) SpawnFood() error { return r.world.SpawnFood() }

// ---- flow.Roster ----

// SetSecondPlayer 生成或移除二号本地玩家
func (r *Room) SetSecondPlayer(present bool) {
	r.setPresent(SnakeP2, flow.Human(1), present)
}

// SetAI 生成或移除 AI 蛇，占用二号出生格
func (r *Room) SetAI(present bool) {
	r.setPresent(SnakeAI, flow.AI(), present)
}

func (r *Room) setPresent(id string, tag flow.ControllerTag, present bool) {
	exists := r.snake(id) != nil
	switch {
	case present && !exists:
		r.spawnSnake(id, tag, 1)
	case !present && exists:
		r.removeSnake(id)
	}
}

// Respawn 所有蛇回到出生格，身体清空
func (r *Room) Respawn() {
	for _, sn := range r.snakes {
		r.resetSnake(sn)
	}
}

// Eliminate 撞毁的蛇停在原地，不再参与移动与碰撞
func (r *Room) Eliminate(id string) {
	if sn := r.snake(id); sn != nil {
		sn.Alive = false
	}
}

// LiveHumans 存活的本地玩家蛇数量
func (r *Room) LiveHumans() int {
	n := 0
	for _, sn := range r.snakes {
		if sn.Alive && !sn.Tag.IsAI() {
			n++
		}
	}
	return n
}
