package flow

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultApplesToFinish 每关需要吃掉的苹果数
const DefaultApplesToFinish = 5

var (
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrUnknownController 计分时遇到未知控制器编号
	ErrUnknownController = errors.New("unknown controller")
)

// Session 一局游戏的可变状态，由宿主持有并显式传入 Controller
type Session struct {
	State          State
	Type           GameType
	LevelIndex     int
	ApplesToFinish int

	// ApplesEaten 本关共享计数（单人 / 合作）
	ApplesEaten int
	// LevelApples 对抗模式下本关各控制器计数
	LevelApples [2]int
	// TotalApples 整局各控制器累计
	TotalApples [2]int
	Score       int
}

// NewSession 创建处于主菜单、位于第 1 关的会话
func NewSession(applesToFinish int) *Session {
	if applesToFinish <= 0 {
		applesToFinish = DefaultApplesToFinish
	}
	return &Session{
		State:          MainMenu,
		Type:           SinglePlayer,
		LevelIndex:     1,
		ApplesToFinish: applesToFinish,
	}
}

// EatenThisLevel 判定过关时使用的计数：对抗模式为两方之和
func (s *Session) EatenThisLevel() int {
	if s.Type.SeparateCounters() {
		return s.LevelApples[0] + s.LevelApples[1]
	}
	return s.ApplesEaten
}

func (s *Session) resetLevelCounters() {
	s.ApplesEaten = 0
	s.LevelApples = [2]int{}
}

// Levels 关卡网格，一般由 grid.World 提供
type Levels interface {
	LevelIndex() int
	LevelExists(index int) bool
	LoadLevel(index int) error
	SpawnFood() error
}

// Roster 场上实体的生成与销毁
type Roster interface {
	// SetSecondPlayer 生成或移除二号本地玩家
	SetSecondPlayer(present bool)
	// SetAI 生成或移除 AI 蛇
	SetAI(present bool)
	// Respawn 把所有蛇放回出生点（进入新关卡时调用）
	Respawn()
	// Eliminate 移除一条撞毁的蛇
	Eliminate(id string)
	// LiveHumans 存活的本地玩家数量
	LiveHumans() int
}

// Listener 状态变化通知
type Listener func(from, to State)

// Controller 对局流程：状态机、玩法切换与过关判定
type Controller struct {
	levels    Levels
	roster    Roster
	log       *zap.SugaredLogger
	listeners []Listener
}

// NewController 创建流程控制器
func NewController(levels Levels, roster Roster, log *zap.SugaredLogger) *Controller {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Controller{levels: levels, roster: roster, log: log}
}

// OnStateChange 注册状态监听
func (c *Controller) OnStateChange(l Listener) {
	c.listeners = append(c.listeners, l)
}

// SetState 切换状态并通知监听者；相同状态不通知
func (c *Controller) SetState(s *Session, st State) {
	from := s.State
	if from == st {
		return
	}
	s.State = st
	c.log.Infow("flow: state changed", "from", from, "to", st, "level", s.LevelIndex)
	for _, l := range c.listeners {
		l(from, st)
	}
}

// Begin 加载第 1 关并放置第一个食物，回到主菜单
func (c *Controller) Begin(s *Session) error {
	if err := c.levels.LoadLevel(1); err != nil {
		return errors.Wrap(err, "load first level")
	}
	s.LevelIndex = c.levels.LevelIndex()
	if err := c.levels.SpawnFood(); err != nil {
		return errors.Wrap(err, "spawn first food")
	}
	c.SetState(s, MainMenu)
	return nil
}

// SelectGameType 主菜单选择玩法后开始游戏，按需生成 / 移除二号玩家与 AI
func (c *Controller) SelectGameType(s *Session, t GameType) error {
	if s.State != MainMenu {
		return errors.Wrapf(ErrInvalidTransition, "select %s in %s", t, s.State)
	}
	s.Type = t
	c.roster.SetSecondPlayer(t.NeedsSecondPlayer())
	c.roster.SetAI(t.NeedsAI())
	c.SetState(s, Playing)
	return nil
}

// TogglePause 在 Playing 与 Paused 之间切换，其他状态忽略
func (c *Controller) TogglePause(s *Session) bool {
	switch s.State {
	case Playing:
		c.SetState(s, Paused)
	case Paused:
		c.SetState(s, Playing)
	default:
		return false
	}
	return true
}

// OnAppleEaten 记录一次进食；未达到过关数时刷新食物，否则尝试进入下一关，
// 没有下一关（或加载失败）时进入 Outro
func (c *Controller) OnAppleEaten(s *Session, controllerID int) error {
	if s.State != Playing {
		return errors.Wrapf(ErrInvalidTransition, "apple eaten in %s", s.State)
	}
	if controllerID < 0 || controllerID > 1 {
		return errors.Wrapf(ErrUnknownController, "id %d", controllerID)
	}

	s.Score++
	s.TotalApples[controllerID]++
	if s.Type.SeparateCounters() {
		s.LevelApples[controllerID]++
	} else {
		s.ApplesEaten++
	}

	if s.EatenThisLevel() < s.ApplesToFinish {
		if err := c.levels.SpawnFood(); err != nil {
			c.log.Warnf("flow: spawn food: %v", err)
		}
		return nil
	}

	c.SetState(s, Paused)
	next := c.levels.LevelIndex() + 1
	if !c.levels.LevelExists(next) {
		c.log.Infof("flow: level %d cleared, no level %d", next-1, next)
		c.SetState(s, Outro)
		return nil
	}
	if err := c.levels.LoadLevel(next); err != nil {
		c.log.Warnf("flow: level %d exists but failed to load: %v", next, err)
		c.SetState(s, Outro)
		return nil
	}

	s.LevelIndex = next
	s.resetLevelCounters()
	c.roster.Respawn()
	if err := c.levels.SpawnFood(); err != nil {
		c.log.Warnf("flow: spawn food on level %d: %v", next, err)
	}
	c.SetState(s, Playing)
	return nil
}

// OnBodyCollision 一条蛇撞到墙或尾巴。单人模式直接结束；
// 多蛇模式移除该蛇，没有存活的本地玩家时结束。
func (c *Controller) OnBodyCollision(s *Session, id string) {
	if s.State != Playing {
		return
	}
	if s.Type.SnakeCount() == 1 {
		c.SetState(s, Outro)
		return
	}
	c.roster.Eliminate(id)
	if c.roster.LiveHumans() == 0 {
		c.SetState(s, Outro)
	}
}

// Reset 回到主菜单：清空计分、移除额外实体并重新加载第 1 关
func (c *Controller) Reset(s *Session) error {
	s.Score = 0
	s.TotalApples = [2]int{}
	s.resetLevelCounters()
	s.Type = SinglePlayer
	c.roster.SetSecondPlayer(false)
	c.roster.SetAI(false)
	err := c.Begin(s)
	c.roster.Respawn()
	if err != nil {
		c.SetState(s, MainMenu)
		return err
	}
	return nil
}
