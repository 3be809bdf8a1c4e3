package server

import (
	"snakegrid/flow"
	"snakegrid/grid"
	"snakegrid/motion"
	"snakegrid/pathfind"
)

// PlayerID 表示玩家唯一标识
type PlayerID string

// 场上蛇的固定 id
const (
	SnakeP1 = "p1"
	SnakeP2 = "p2"
	SnakeAI = "ai"
)

// Player 房间内的一个连接；Slot 0/1 分别控制一号、二号蛇，-1 为观战
type Player struct {
	ID   PlayerID
	Slot int

	lastSeq   int64
	inputs    int // 本帧已接受的输入数
	needLevel bool

	Conn *ClientConn // 网络连接的发送端（写协程）
}

// SnakeID 该连接控制的蛇
func (p *Player) SnakeID() string {
	switch p.Slot {
	case 0:
		return SnakeP1
	case 1:
		return SnakeP2
	default:
		return ""
	}
}

// Snake 服务端权威的蛇实体
type Snake struct {
	ID    string
	Tag   flow.ControllerTag
	Body  *motion.Body
	Agent *pathfind.Agent // 仅 AI 蛇
	Alive bool
	slot  int
}

// SnakeState 广播给客户端的蛇状态
type SnakeState struct {
	ID       string     `json:"id"`
	AI       bool       `json:"ai"`
	Alive    bool       `json:"alive"`
	Head     grid.Vec   `json:"head"`
	Tile     grid.Tile  `json:"tile"`
	Heading  string     `json:"heading"`
	Segments []grid.Vec `json:"segments"`
}

func (s *Snake) state() SnakeState {
	segs := s.Body.Segments()
	pos := make([]grid.Vec, len(segs))
	for i, seg := range segs {
		pos[i] = seg.Pos
	}
	return SnakeState{
		ID:       s.ID,
		AI:       s.Tag.IsAI(),
		Alive:    s.Alive,
		Head:     s.Body.Position(),
		Tile:     s.Body.Tile(),
		Heading:  s.Body.Heading().String(),
		Segments: pos,
	}
}

// Snapshot 每帧广播的世界状态
type Snapshot struct {
	Type        string       `json:"type"`
	Tick        int64        `json:"tick"`
	State       string       `json:"state"`
	GameType    string       `json:"gameType"`
	Level       int          `json:"level"`
	Score       int          `json:"score"`
	Apples      [2]int       `json:"apples"`
	LevelApples int          `json:"levelApples"`
	Food        []grid.Tile  `json:"food"`
	Snakes      []SnakeState `json:"snakes"`
}

// LevelMessage 关卡布局，加入房间或换关时发送
type LevelMessage struct {
	Type     string      `json:"type"`
	Index    int         `json:"index"`
	Rows     int         `json:"rows"`
	Cols     int         `json:"cols"`
	TileSize float64     `json:"tileSize"`
	Walls    []grid.Tile `json:"walls"`
	Doors    []grid.Tile `json:"doors"`
}
