// Package flow 管理对局状态（菜单 / 游戏 / 暂停 / 结束）、玩法类型与计分，
// 并根据吃苹果的事件决定刷新食物还是进入下一关。
package flow

import (
	"strings"

	"github.com/pkg/errors"
)

// State 对局状态，同一时刻只有一个
type State uint8

const (
	MainMenu State = iota
	Playing
	Paused
	Outro
)

func (s State) String() string {
	switch s {
	case MainMenu:
		return "main_menu"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Outro:
		return "outro"
	default:
		return "unknown"
	}
}

// GameType 玩法类型；Depth 变体只改变渲染模式，规则与基础类型完全相同
type GameType uint8

const (
	SinglePlayer GameType = iota
	PvP
	Coop
	PvAI
	CoopAI

	SinglePlayerDepth
	PvPDepth
	CoopDepth
	PvAIDepth
	CoopAIDepth
)

var gameTypeNames = map[GameType]string{
	SinglePlayer:      "single",
	PvP:               "pvp",
	Coop:              "coop",
	PvAI:              "pvai",
	CoopAI:            "coopai",
	SinglePlayerDepth: "single_depth",
	PvPDepth:          "pvp_depth",
	CoopDepth:         "coop_depth",
	PvAIDepth:         "pvai_depth",
	CoopAIDepth:       "coopai_depth",
}

func (t GameType) String() string {
	if n, ok := gameTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseGameType 解析玩法名称（大小写不敏感）
func ParseGameType(s string) (GameType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, n := range gameTypeNames {
		if n == s {
			return t, nil
		}
	}
	return SinglePlayer, errors.Errorf("unknown game type %q", s)
}

// ToDepthVariant 基础类型映射到 Depth 变体，已是变体时原样返回
func ToDepthVariant(t GameType) GameType {
	switch t {
	case SinglePlayer:
		return SinglePlayerDepth
	case PvP:
		return PvPDepth
	case Coop:
		return CoopDepth
	case PvAI:
		return PvAIDepth
	case CoopAI:
		return CoopAIDepth
	default:
		return t
	}
}

// ToBaseVariant Depth 变体映射回基础类型，基础类型原样返回
func ToBaseVariant(t GameType) GameType {
	switch t {
	case SinglePlayerDepth:
		return SinglePlayer
	case PvPDepth:
		return PvP
	case CoopDepth:
		return Coop
	case PvAIDepth:
		return PvAI
	case CoopAIDepth:
		return CoopAI
	default:
		return t
	}
}

// IsDepth 是否为 Depth 变体
func (t GameType) IsDepth() bool {
	return ToBaseVariant(t) != t
}

// SeparateCounters 对抗模式下两个控制器各自计数
func (t GameType) SeparateCounters() bool {
	b := ToBaseVariant(t)
	return b == PvP || b == PvAI
}

// NeedsSecondPlayer 需要第二个本地玩家
func (t GameType) NeedsSecondPlayer() bool {
	b := ToBaseVariant(t)
	return b == PvP || b == Coop
}

// NeedsAI 需要 AI 蛇
func (t GameType) NeedsAI() bool {
	b := ToBaseVariant(t)
	return b == PvAI || b == CoopAI
}

// SnakeCount 场上蛇的数量
func (t GameType) SnakeCount() int {
	if ToBaseVariant(t) == SinglePlayer {
		return 1
	}
	return 2
}

// ControllerKind 控制者类别
type ControllerKind uint8

const (
	HumanKind ControllerKind = iota
	AIKind
)

// ControllerTag 标记一条蛇由谁控制
type ControllerTag struct {
	Kind ControllerKind
	ID   int
}

// Human 本地玩家 id（0 为一号玩家）
func Human(id int) ControllerTag { return ControllerTag{Kind: HumanKind, ID: id} }

// AI AI 控制者，计分时算作二号玩家
func AI() ControllerTag { return ControllerTag{Kind: AIKind, ID: 1} }

// CounterID 计分使用的控制器编号
func (c ControllerTag) CounterID() int {
	if c.Kind == AIKind {
		return 1
	}
	return c.ID
}

func (c ControllerTag) IsAI() bool { return c.Kind == AIKind }
