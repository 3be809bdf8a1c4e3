// Package motion 把连续的每帧速度换算成逐格移动，并驱动尾巴跟随头部的历史轨迹。
package motion

// Params 运动参数；长度单位与格子尺寸一致，时间单位为秒
type Params struct {
	TileSize float64 `yaml:"tileSize" json:"tileSize"`
	// 每秒移动距离
	Speed float64 `yaml:"speed" json:"speed"`
	// 相邻尾节之间相隔的历史采样数
	HistorySpacing int `yaml:"historySpacing" json:"historySpacing"`
	// 头部移动多远记录一次采样
	RecordDistance float64 `yaml:"recordDistance" json:"recordDistance"`
	// 历史缓冲额外保留的采样数
	HistoryMargin int `yaml:"historyMargin" json:"historyMargin"`
	// 尾节插值速度，<=0 时直接跳到目标
	SmoothSpeed float64 `yaml:"smoothSpeed" json:"smoothSpeed"`
	// 新尾节不可碰撞的时长
	CollisionGrace float64 `yaml:"collisionGrace" json:"collisionGrace"`
	// 竖直方向与格子移动互不影响，落到 Z=0 平面后反弹直至静止
	Gravity        float64 `yaml:"gravity" json:"gravity"`
	Bounce         float64 `yaml:"bounce" json:"bounce"`
	SettleVelocity float64 `yaml:"settleVelocity" json:"settleVelocity"`
	JumpVelocity   float64 `yaml:"jumpVelocity" json:"jumpVelocity"`
}

// DefaultParams 默认参数
func DefaultParams() Params {
	return Params{
		TileSize:       100,
		Speed:          500,
		HistorySpacing: 5,
		RecordDistance: 10,
		HistoryMargin:  10,
		SmoothSpeed:    10,
		CollisionGrace: 0.3,
		Gravity:        600,
		Bounce:         0.5,
		SettleVelocity: 6,
		JumpVelocity:   150,
	}
}
