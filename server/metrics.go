package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 推进世界的 Tick 次数
	InputsAccepted    int64 // 被接受的输入数
	InputsRejected    int64 // 无法解析或无权操作的输入数
	RateLimited       int64 // 因同帧限流被拒绝的输入数
	OldSeqIgnored     int64 // 因旧序列被忽略的输入数
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	ApplesEaten       int64
	Collisions        int64
	Replans           int64 // AI 重新规划次数
	PathFailures      int64 // AI 找不到路径的次数
	LevelsCleared     int64
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted() { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRejected() { atomic.AddInt64(&m.InputsRejected, 1) }
func (m *RoomMetrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncOldSeqIgnored() { atomic.AddInt64(&m.OldSeqIgnored, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncApples() { atomic.AddInt64(&m.ApplesEaten, 1) }
func (m *RoomMetrics) IncCollisions() { atomic.AddInt64(&m.Collisions, 1) }
func (m *RoomMetrics) IncReplans() { atomic.AddInt64(&m.Replans, 1) }
func (m *RoomMetrics) IncPathFailures() { atomic.AddInt64(&m.PathFailures, 1) }
func (m *RoomMetrics) IncLevelsCleared() { atomic.AddInt64(&m.LevelsCleared, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"inputs_rejected":     atomic.LoadInt64(&m.InputsRejected),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"old_seq_ignored":     atomic.LoadInt64(&m.OldSeqIgnored),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"apples_eaten":        atomic.LoadInt64(&m.ApplesEaten),
		"collisions":          atomic.LoadInt64(&m.Collisions),
		"ai_replans":          atomic.LoadInt64(&m.Replans),
		"ai_path_failures":    atomic.LoadInt64(&m.PathFailures),
		"levels_cleared":      atomic.LoadInt64(&m.LevelsCleared),
		"avg_tick_ms":         avgMs,
	}
}
